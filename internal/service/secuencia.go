package service

import (
	"context"
	"time"

	"gmrstock/internal/metrics"
	"gmrstock/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SecuenciaCentinela is issued when the counter cannot be read or written.
// Staff recognise it on printed orders and renumber by hand.
const SecuenciaCentinela int64 = 999999

const contadorComandas = "comandas"

// Secuencia issues comanda numbers. Siguiente never fails and never blocks
// beyond the store round trip.
type Secuencia interface {
	Siguiente(ctx context.Context) int64
}

// storeSecuencia keeps the counter in contadores/comandas. Read and write are
// separate calls, so two concurrent callers can receive the same number.
type storeSecuencia struct {
	repo    repository.ContadorRepository
	metrics *metrics.Metrics
}

func NewStoreSecuencia(repo repository.ContadorRepository, m *metrics.Metrics) Secuencia {
	return &storeSecuencia{repo: repo, metrics: m}
}

func (s *storeSecuencia) Siguiente(ctx context.Context) int64 {
	ultimo, existe, err := s.repo.Get(ctx, contadorComandas)
	if err != nil {
		return centinela(s.metrics, err)
	}
	siguiente := ultimo + 1
	if err := s.repo.Save(ctx, contadorComandas, siguiente, existe); err != nil {
		return centinela(s.metrics, err)
	}
	return siguiente
}

const redisKeySecuencia = "secuencia:comandas"

// redisSecuencia uses INCR, which is atomic across processes.
type redisSecuencia struct {
	rdb     *redis.Client
	metrics *metrics.Metrics
}

func NewRedisSecuencia(rdb *redis.Client, m *metrics.Metrics) Secuencia {
	return &redisSecuencia{rdb: rdb, metrics: m}
}

func (s *redisSecuencia) Siguiente(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	n, err := s.rdb.Incr(ctx, redisKeySecuencia).Result()
	if err != nil {
		return centinela(s.metrics, err)
	}
	return n
}

func centinela(m *metrics.Metrics, err error) int64 {
	log.Error().Err(err).Int64("numero", SecuenciaCentinela).Msg("secuencia de comandas no disponible, se usa el centinela")
	m.IncCentinela()
	return SecuenciaCentinela
}
