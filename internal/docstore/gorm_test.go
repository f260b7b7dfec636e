package docstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Patch must read the row FOR UPDATE. On Postgres that serializes
// concurrent patches of one document; without it two patches of disjoint
// fields both read the old body and the later commit drops the earlier one.
// SQLite already serializes writers and its dialect renders no FOR clause,
// so here the test checks the statement gorm builds.
func TestGormStore_PatchBloqueaLaFila(t *testing.T) {
	db := openSQLite(t)
	store := NewGormStore(db)
	require.NoError(t, store.Migrate())

	var (
		mu       sync.Mutex
		bloqueos []string
	)
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:locking", func(tx *gorm.DB) {
		mu.Lock()
		defer mu.Unlock()
		if c, ok := tx.Statement.Clauses["FOR"]; ok {
			if l, ok := c.Expression.(clause.Locking); ok {
				bloqueos = append(bloqueos, l.Strength)
			}
		}
	}))

	ctx := context.Background()
	key, err := store.Create(ctx, "lotes", "", Fields{"number": "L1", "count": int64(1)})
	require.NoError(t, err)

	_, err = store.Get(ctx, "lotes", key)
	require.NoError(t, err)
	assert.Empty(t, bloqueos, "plain reads must not lock")

	require.NoError(t, store.Patch(ctx, Ref{Collection: "lotes", Key: key}, []string{"booked"}, Fields{"booked": "ACME"}))
	assert.Equal(t, []string{"UPDATE"}, bloqueos)
}

// Sequential patches of disjoint fields keep each other's values.
func TestGormStore_PatchesDisjuntosConservanAmbos(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()
	key, err := store.Create(ctx, "lotes", "", Fields{"number": "L1", "count": int64(2)})
	require.NoError(t, err)
	ref := Ref{Collection: "lotes", Key: key}

	require.NoError(t, store.Patch(ctx, ref, []string{"bigBag", "count"}, Fields{
		"bigBag": []any{map[string]any{"bbNumber": "B1", "bbStatus": "o"}},
		"count":  int64(1),
	}))
	require.NoError(t, store.Patch(ctx, ref, []string{"booked"}, Fields{"booked": "ACME"}))

	doc, err := store.Get(ctx, "lotes", key)
	require.NoError(t, err)
	assert.Equal(t, "ACME", doc.Fields["booked"])
	bags, ok := doc.Fields["bigBag"].([]any)
	require.True(t, ok)
	assert.Equal(t, "o", bags[0].(map[string]any)["bbStatus"])
}
