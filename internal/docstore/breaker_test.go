package docstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"gmrstock/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeCaido struct{ *MemoryStore }

var errRed = errors.New("connection refused")

func (storeCaido) Query(context.Context, Query) ([]Document, error) { return nil, errRed }

func TestConBreaker_NoEncontradoNoAbreElCircuito(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		IsFailure:        EsFalloTransporte,
	})
	s := ConBreaker(NewMemoryStore(), cb)

	for i := 0; i < 5; i++ {
		_, err := s.Get(context.Background(), "lotes", "missing")
		require.True(t, errors.Is(err, ErrNotFound))
	}
	assert.Equal(t, infra.CBClosed, cb.State())
}

func TestConBreaker_FallosDeRedAbrenElCircuito(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		IsFailure:        EsFalloTransporte,
	})
	s := ConBreaker(storeCaido{NewMemoryStore()}, cb)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := s.Query(ctx, Query{Collection: "lotes"})
		require.ErrorIs(t, err, errRed)
	}
	assert.Equal(t, infra.CBOpen, cb.State())

	_, err := s.Get(ctx, "lotes", "x")
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
}

func TestEsFalloTransporte(t *testing.T) {
	assert.False(t, EsFalloTransporte(nil))
	assert.False(t, EsFalloTransporte(ErrNotFound))
	assert.False(t, EsFalloTransporte(ErrDuplicateKey))
	assert.False(t, EsFalloTransporte(context.Canceled))
	assert.True(t, EsFalloTransporte(errRed))
}
