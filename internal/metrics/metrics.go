// Package metrics exposes the Prometheus instruments of the inventory
// workflows. Every method is safe on a nil receiver so services can run
// without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for workflow executions.
const (
	ResultadoOK      = "ok"
	ResultadoParcial = "parcial"
	ResultadoError   = "error"
)

// Metrics groups the workflow, sequence and reconciliation instruments.
type Metrics struct {
	workflows   *prometheus.CounterVec
	duracion    *prometheus.HistogramVec
	centinela   prometheus.Counter
	incidencias *prometheus.GaugeVec
}

// New registers the inventory metrics on reg. A nil registerer yields a
// no-op instance.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	workflows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gmrstock_workflow_total",
		Help: "Workflow executions by operation and outcome.",
	}, []string{"operacion", "resultado"})
	duracion := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gmrstock_workflow_duration_seconds",
		Help:    "Duration of inventory workflows in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operacion"})
	centinela := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gmrstock_secuencia_centinela_total",
		Help: "Comanda numbers issued as the sentinel after a counter failure.",
	})
	incidencias := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gmrstock_reconciliacion_incidencias",
		Help: "Inconsistencies found by the last reconciliation scan, by kind.",
	}, []string{"tipo"})
	reg.MustRegister(workflows, duracion, centinela, incidencias)
	return &Metrics{
		workflows:   workflows,
		duracion:    duracion,
		centinela:   centinela,
		incidencias: incidencias,
	}
}

// ObserveWorkflow counts one execution of operacion with the given outcome.
func (m *Metrics) ObserveWorkflow(operacion, resultado string, d time.Duration) {
	if m == nil || m.workflows == nil {
		return
	}
	op := normalizeLabel(operacion)
	m.workflows.WithLabelValues(op, normalizeLabel(resultado)).Inc()
	m.duracion.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) IncCentinela() {
	if m == nil || m.centinela == nil {
		return
	}
	m.centinela.Inc()
}

// SetIncidencias publishes the count of one inconsistency kind.
func (m *Metrics) SetIncidencias(tipo string, n int) {
	if m == nil || m.incidencias == nil {
		return
	}
	m.incidencias.WithLabelValues(normalizeLabel(tipo)).Set(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
