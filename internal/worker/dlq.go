package worker

// dlq.go: reconciliation queue
// Partial workflow writes and scanner findings are pushed here for staff to
// fix by hand. Uses a single Redis list: reconciliacion:incidencias

import (
	"context"
	"encoding/json"
	"time"

	"gmrstock/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const ColaIncidencias = "reconciliacion:incidencias"

// NotificadorRedis queues incidents. A nil client only logs them, which is
// what local runs without Redis get.
type NotificadorRedis struct {
	rdb *redis.Client
}

func NewNotificadorRedis(rdb *redis.Client) *NotificadorRedis {
	return &NotificadorRedis{rdb: rdb}
}

// Registrar pushes inc to the queue. Failures are logged and swallowed so the
// calling workflow is never blocked by Redis.
func (n *NotificadorRedis) Registrar(ctx context.Context, inc model.Incidencia) {
	if inc.Fecha.IsZero() {
		inc.Fecha = time.Now().UTC()
	}
	logger := log.With().
		Str("tipo", string(inc.Tipo)).
		Str("numero_lote", inc.NumeroLote).
		Str("id_comanda", inc.IDComanda).
		Logger()

	if n == nil || n.rdb == nil {
		logger.Warn().Str("detalle", inc.Detalle).Msg("incidencia sin cola de reconciliacion")
		return
	}

	data, err := json.Marshal(inc)
	if err != nil {
		logger.Error().Err(err).Msg("incidencias: failed to marshal entry")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := n.rdb.LPush(ctx, ColaIncidencias, data).Err(); err != nil {
		logger.Error().Err(err).Str("detalle", inc.Detalle).Msg("incidencias: failed to push")
		return
	}
	logger.Warn().Str("detalle", inc.Detalle).Msg("incidencia encolada para reconciliacion")
}

// Pendientes returns the queue length for monitoring.
func (n *NotificadorRedis) Pendientes(ctx context.Context) (int64, error) {
	if n == nil || n.rdb == nil {
		return 0, nil
	}
	return n.rdb.LLen(ctx, ColaIncidencias).Result()
}
