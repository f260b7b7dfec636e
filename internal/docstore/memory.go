package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps documents in process memory. It backs local development
// (STORE_DRIVER=memory) and the service tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string]Fields
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]Fields)}
}

func (m *MemoryStore) Get(_ context.Context, collection, key string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.data[collection][key]
	if !ok {
		return nil, ErrNotFound
	}
	return &Document{Collection: collection, Key: key, Fields: cloneFields(body)}, nil
}

func (m *MemoryStore) Query(_ context.Context, q Query) ([]Document, error) {
	m.mu.RLock()
	docs := make([]Document, 0, len(m.data[q.Collection]))
	for key, body := range m.data[q.Collection] {
		docs = append(docs, Document{Collection: q.Collection, Key: key, Fields: cloneFields(body)})
	}
	m.mu.RUnlock()
	return selectDocs(docs, q), nil
}

func (m *MemoryStore) Create(_ context.Context, collection, key string, fields Fields) (string, error) {
	if key == "" {
		key = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.data[collection]
	if !ok {
		coll = make(map[string]Fields)
		m.data[collection] = coll
	}
	if _, exists := coll[key]; exists {
		return "", ErrDuplicateKey
	}
	coll[key] = cloneFields(fields)
	return key, nil
}

func (m *MemoryStore) Patch(_ context.Context, ref Ref, mask []string, fields Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.data[ref.Collection][ref.Key]
	if !ok {
		return ErrNotFound
	}
	applyPatch(body, mask, cloneFields(fields))
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, ref Ref) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[ref.Collection][ref.Key]; !ok {
		return ErrNotFound
	}
	delete(m.data[ref.Collection], ref.Key)
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
