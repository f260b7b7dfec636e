package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ExportsWorkflowAndSentinel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveWorkflow("devolucion", ResultadoOK, 120*time.Millisecond)
	m.ObserveWorkflow("devolucion", ResultadoParcial, 80*time.Millisecond)
	m.ObserveWorkflow("devolucion", ResultadoParcial, 10*time.Millisecond)
	m.IncCentinela()
	m.SetIncidencias("reserva_huerfana", 3)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	assert.Equal(t, 1.0, counterValue(t, mfs, "gmrstock_workflow_total", map[string]string{"operacion": "devolucion", "resultado": "ok"}))
	assert.Equal(t, 2.0, counterValue(t, mfs, "gmrstock_workflow_total", map[string]string{"operacion": "devolucion", "resultado": "parcial"}))
	assert.Equal(t, 1.0, counterValue(t, mfs, "gmrstock_secuencia_centinela_total", nil))

	gauge := findMetric(t, mfs, "gmrstock_reconciliacion_incidencias", map[string]string{"tipo": "reserva_huerfana"})
	assert.Equal(t, 3.0, gauge.GetGauge().GetValue())

	hist := findMetric(t, mfs, "gmrstock_workflow_duration_seconds", map[string]string{"operacion": "devolucion"})
	assert.Equal(t, uint64(3), hist.GetHistogram().GetSampleCount())
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveWorkflow("venta", ResultadoError, time.Second)
		m.IncCentinela()
		m.SetIncidencias("x", 1)
	})

	unregistered := New(nil)
	assert.NotPanics(t, func() { unregistered.IncCentinela() })
}

func TestMetrics_EmptyLabelBecomesUnknown(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveWorkflow("", "", 0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, mfs, "gmrstock_workflow_total", map[string]string{"operacion": "unknown", "resultado": "unknown"}))
}

func counterValue(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string) float64 {
	t.Helper()
	return findMetric(t, mfs, name, labels).GetCounter().GetValue()
}

func findMetric(t *testing.T, mfs []*dto.MetricFamily, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if hasLabels(metric.GetLabel(), labels) {
				return metric
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return nil
}

func hasLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	for k, v := range want {
		found := false
		for _, p := range pairs {
			if p.GetName() == k && p.GetValue() == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
