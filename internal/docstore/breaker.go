package docstore

import (
	"context"
	"errors"

	"gmrstock/internal/infra"
)

// breakerStore guards every call to the wrapped store with a circuit breaker.
type breakerStore struct {
	next Store
	cb   *infra.CircuitBreaker
}

// ConBreaker wraps store so transport failures trip cb. Not-found and
// duplicate-key answers are normal replies and never count as failures.
func ConBreaker(store Store, cb *infra.CircuitBreaker) Store {
	return &breakerStore{next: store, cb: cb}
}

// EsFalloTransporte is the IsFailure classifier the breaker should be built with.
func EsFalloTransporte(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrNotFound) &&
		!errors.Is(err, ErrDuplicateKey) &&
		!errors.Is(err, context.Canceled)
}

func (b *breakerStore) Get(ctx context.Context, collection, key string) (*Document, error) {
	var doc *Document
	err := b.cb.Execute(func() error {
		var err error
		doc, err = b.next.Get(ctx, collection, key)
		return err
	})
	return doc, err
}

func (b *breakerStore) Query(ctx context.Context, q Query) ([]Document, error) {
	var docs []Document
	err := b.cb.Execute(func() error {
		var err error
		docs, err = b.next.Query(ctx, q)
		return err
	})
	return docs, err
}

func (b *breakerStore) Create(ctx context.Context, collection, key string, fields Fields) (string, error) {
	var created string
	err := b.cb.Execute(func() error {
		var err error
		created, err = b.next.Create(ctx, collection, key, fields)
		return err
	})
	return created, err
}

func (b *breakerStore) Patch(ctx context.Context, ref Ref, mask []string, fields Fields) error {
	return b.cb.Execute(func() error { return b.next.Patch(ctx, ref, mask, fields) })
}

func (b *breakerStore) Delete(ctx context.Context, ref Ref) error {
	return b.cb.Execute(func() error { return b.next.Delete(ctx, ref) })
}

func (b *breakerStore) Ping(ctx context.Context) error {
	return b.cb.Execute(func() error { return b.next.Ping(ctx) })
}
