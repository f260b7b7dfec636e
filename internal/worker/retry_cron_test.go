package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"gmrstock/internal/docstore"
	"gmrstock/internal/infra"
	"gmrstock/internal/metrics"
	"gmrstock/internal/model"
	"gmrstock/internal/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fecha = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type notifEspia struct {
	mu          sync.Mutex
	incidencias []model.Incidencia
}

func (n *notifEspia) Registrar(_ context.Context, inc model.Incidencia) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.incidencias = append(n.incidencias, inc)
}

func (n *notifEspia) total() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.incidencias)
}

type fixture struct {
	lotes    repository.LoteRepository
	comandas repository.ComandaRepository
}

func nuevoFixture() *fixture {
	store := docstore.NewMemoryStore()
	return &fixture{
		lotes:    repository.NewLoteRepository(store),
		comandas: repository.NewComandaRepository(store),
	}
}

func (f *fixture) lote(t *testing.T, almacen model.Almacen, numero string, reserva *model.Reserva) {
	t.Helper()
	_, err := f.lotes.Create(context.Background(), almacen, &model.Lote{
		Numero: numero, Descripcion: "PET", Estado: model.LoteActivo, Reserva: reserva,
	})
	require.NoError(t, err)
}

func (f *fixture) comanda(t *testing.T, numero int64, cliente, numeroLote string, vendida bool) {
	t.Helper()
	_, err := f.comandas.Create(context.Background(), &model.Comanda{
		Numero: numero, Material: "PET", Cliente: cliente, NumeroLote: numeroLote,
		FechaReserva: fecha, Vendida: vendida,
	})
	require.NoError(t, err)
}

func porTipo(incs []model.Incidencia) map[model.TipoIncidencia][]string {
	out := make(map[model.TipoIncidencia][]string)
	for _, inc := range incs {
		out[inc.Tipo] = append(out[inc.Tipo], inc.NumeroLote)
	}
	return out
}

func TestEscanear_SinIncidencias(t *testing.T) {
	f := nuevoFixture()
	f.lote(t, model.AlmacenActivo, "L1", &model.Reserva{Cliente: "ACME", FechaReserva: fecha})
	f.lote(t, model.AlmacenActivo, "L2", nil)
	f.comanda(t, 1, "acme", "L1", false)

	incs, err := Escanear(context.Background(), f.lotes, f.comandas)
	require.NoError(t, err)
	assert.Empty(t, incs)
}

func TestEscanear_DetectaLosTresTipos(t *testing.T) {
	f := nuevoFixture()
	// booked with no open comanda: the only comanda was sold
	f.lote(t, model.AlmacenActivo, "L1", &model.Reserva{Cliente: "ACME", FechaReserva: fecha})
	f.comanda(t, 1, "ACME", "L1", true)
	// same number in both stores
	f.lote(t, model.AlmacenActivo, "L2", nil)
	f.lote(t, model.AlmacenHistorial, "L2", nil)
	// comanda for another client than the booking
	f.lote(t, model.AlmacenActivo, "L3", &model.Reserva{Cliente: "Globex", FechaReserva: fecha})
	f.comanda(t, 2, "ACME", "L3", false)
	// comanda pointing at a lot that is not active
	f.comanda(t, 3, "ACME", "L9", false)

	incs, err := Escanear(context.Background(), f.lotes, f.comandas)
	require.NoError(t, err)

	got := porTipo(incs)
	assert.Equal(t, []string{"L1"}, got[model.IncidenciaReservaHuerfana])
	assert.Equal(t, []string{"L2"}, got[model.IncidenciaLoteDuplicado])
	assert.ElementsMatch(t, []string{"L3", "L9"}, got[model.IncidenciaParDesalineado])
}

func TestEscanear_FechaDistinta(t *testing.T) {
	f := nuevoFixture()
	f.lote(t, model.AlmacenActivo, "L1", &model.Reserva{Cliente: "ACME", FechaReserva: fecha.AddDate(0, 0, 1)})
	f.comanda(t, 1, "ACME", "L1", false)

	incs, err := Escanear(context.Background(), f.lotes, f.comandas)
	require.NoError(t, err)
	require.Len(t, incs, 1)
	assert.Equal(t, model.IncidenciaParDesalineado, incs[0].Tipo)
	assert.NotEmpty(t, incs[0].IDComanda)
}

func TestReconciliador_NotificaSoloNuevas(t *testing.T) {
	f := nuevoFixture()
	f.lote(t, model.AlmacenActivo, "L1", &model.Reserva{Cliente: "ACME", FechaReserva: fecha})
	notif := &notifEspia{}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	r := NewReconciliador(ReconciliacionConfig{
		Lotes: f.lotes, Comandas: f.comandas, Notificador: notif, Metrics: m,
	})
	ctx := context.Background()

	require.Len(t, r.Ejecutar(ctx), 1)
	require.Len(t, r.Ejecutar(ctx), 1)
	assert.Equal(t, 1, notif.total())

	f.lote(t, model.AlmacenHistorial, "L1", nil)
	require.Len(t, r.Ejecutar(ctx), 2)
	assert.Equal(t, 2, notif.total())

	assert.Equal(t, 1.0, gauge(t, reg, string(model.IncidenciaReservaHuerfana)))
	assert.Equal(t, 1.0, gauge(t, reg, string(model.IncidenciaLoteDuplicado)))
	assert.Equal(t, 0.0, gauge(t, reg, string(model.IncidenciaParDesalineado)))
}

func gauge(t *testing.T, reg *prometheus.Registry, tipo string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "gmrstock_reconciliacion_incidencias" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "tipo" && lp.GetValue() == tipo {
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("no gauge for tipo %q", tipo)
	return 0
}

func TestReconciliador_BreakerAbiertoSaltaElTick(t *testing.T) {
	f := nuevoFixture()
	f.lote(t, model.AlmacenActivo, "L1", &model.Reserva{Cliente: "ACME", FechaReserva: fecha})
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: time.Hour})
	_ = cb.Execute(func() error { return assert.AnError })
	require.Equal(t, infra.CBOpen, cb.State())
	notif := &notifEspia{}

	r := NewReconciliador(ReconciliacionConfig{Lotes: f.lotes, Comandas: f.comandas, CB: cb, Notificador: notif})
	assert.Nil(t, r.Ejecutar(context.Background()))
	assert.Zero(t, notif.total())
}

func TestNotificadorRedis_SinClienteNoFalla(t *testing.T) {
	n := NewNotificadorRedis(nil)
	assert.NotPanics(t, func() {
		n.Registrar(context.Background(), model.Incidencia{Tipo: model.IncidenciaEscrituraParcial, NumeroLote: "L1"})
	})
	total, err := n.Pendientes(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total)
}
