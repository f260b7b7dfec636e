package service

import (
	"context"
	"fmt"
	"time"

	"gmrstock/internal/metrics"
	"gmrstock/internal/model"

	"github.com/rs/zerolog/log"
)

// Resultado reports a multi-document workflow that wrote at least once.
// Exito is false when a required step failed after an earlier write; the
// documents are then left as they are and Advertencias names what to fix.
type Resultado struct {
	Exito        bool
	Advertencias []string
	Lote         *model.Lote
	Comanda      *model.Comanda
}

// Notificador receives inconsistencies for manual reconciliation.
// Implementations must not block the workflow on failure.
type Notificador interface {
	Registrar(ctx context.Context, inc model.Incidencia)
}

type sinNotificador struct{}

func (sinNotificador) Registrar(context.Context, model.Incidencia) {}

// seguimiento accumulates the outcome of one workflow execution.
type seguimiento struct {
	operacion string
	inicio    time.Time
	metrics   *metrics.Metrics
	notif     Notificador
	res       Resultado
}

func iniciar(operacion string, m *metrics.Metrics, n Notificador) *seguimiento {
	if n == nil {
		n = sinNotificador{}
	}
	return &seguimiento{
		operacion: operacion,
		inicio:    time.Now(),
		metrics:   m,
		notif:     n,
		res:       Resultado{Exito: true},
	}
}

// advertir records a warning that leaves the workflow successful.
func (s *seguimiento) advertir(msg string, args ...any) {
	texto := fmt.Sprintf(msg, args...)
	s.res.Advertencias = append(s.res.Advertencias, texto)
	log.Warn().Str("operacion", s.operacion).Msg(texto)
}

// incidencia records a warning and queues it for reconciliation.
func (s *seguimiento) incidencia(ctx context.Context, inc model.Incidencia) {
	s.advertir("%s", inc.Detalle)
	if inc.Tipo == "" {
		inc.Tipo = model.IncidenciaEscrituraParcial
	}
	inc.Operacion = s.operacion
	if inc.Fecha.IsZero() {
		inc.Fecha = time.Now().UTC()
	}
	s.notif.Registrar(ctx, inc)
}

// fallo marks a required step as failed after an earlier write.
func (s *seguimiento) fallo(ctx context.Context, inc model.Incidencia, err error) {
	s.res.Exito = false
	inc.Detalle = fmt.Sprintf("%s: %v", inc.Detalle, err)
	s.incidencia(ctx, inc)
}

// terminar closes a workflow that wrote something.
func (s *seguimiento) terminar() *Resultado {
	resultado := metrics.ResultadoOK
	if !s.res.Exito || len(s.res.Advertencias) > 0 {
		resultado = metrics.ResultadoParcial
	}
	s.metrics.ObserveWorkflow(s.operacion, resultado, time.Since(s.inicio))
	return &s.res
}

// abortar closes a workflow that wrote nothing.
func (s *seguimiento) abortar(err error) error {
	s.metrics.ObserveWorkflow(s.operacion, metrics.ResultadoError, time.Since(s.inicio))
	return err
}
