package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gmrstock/internal/docstore"
	"gmrstock/internal/model"
	"gmrstock/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// ── Failure-injecting store ──────────────────────────────────────────────────

var errInyectado = errors.New("almacen caido")

type clave struct{ op, coleccion string }

// storeFalible wraps the memory store and fails chosen operations per collection.
type storeFalible struct {
	*docstore.MemoryStore
	mu     sync.Mutex
	fallas map[clave]bool
}

func newStoreFalible() *storeFalible {
	return &storeFalible{MemoryStore: docstore.NewMemoryStore(), fallas: make(map[clave]bool)}
}

func (s *storeFalible) fallar(op, coleccion string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallas[clave{op, coleccion}] = true
}

func (s *storeFalible) check(op, coleccion string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fallas[clave{op, coleccion}] {
		return errInyectado
	}
	return nil
}

func (s *storeFalible) Get(ctx context.Context, collection, key string) (*docstore.Document, error) {
	if err := s.check("get", collection); err != nil {
		return nil, err
	}
	return s.MemoryStore.Get(ctx, collection, key)
}

func (s *storeFalible) Query(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	if err := s.check("query", q.Collection); err != nil {
		return nil, err
	}
	return s.MemoryStore.Query(ctx, q)
}

func (s *storeFalible) Create(ctx context.Context, collection, key string, fields docstore.Fields) (string, error) {
	if err := s.check("create", collection); err != nil {
		return "", err
	}
	return s.MemoryStore.Create(ctx, collection, key, fields)
}

func (s *storeFalible) Patch(ctx context.Context, ref docstore.Ref, mask []string, fields docstore.Fields) error {
	if err := s.check("patch", ref.Collection); err != nil {
		return err
	}
	return s.MemoryStore.Patch(ctx, ref, mask, fields)
}

func (s *storeFalible) Delete(ctx context.Context, ref docstore.Ref) error {
	if err := s.check("delete", ref.Collection); err != nil {
		return err
	}
	return s.MemoryStore.Delete(ctx, ref)
}

func (s *storeFalible) contar(t *testing.T, coleccion string) int {
	t.Helper()
	docs, err := s.MemoryStore.Query(context.Background(), docstore.Query{Collection: coleccion})
	require.NoError(t, err)
	return len(docs)
}

// ── Notifier spy ─────────────────────────────────────────────────────────────

type notifEspia struct {
	mu          sync.Mutex
	incidencias []model.Incidencia
}

func (n *notifEspia) Registrar(_ context.Context, inc model.Incidencia) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.incidencias = append(n.incidencias, inc)
}

func (n *notifEspia) tipos() []model.TipoIncidencia {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]model.TipoIncidencia, 0, len(n.incidencias))
	for _, inc := range n.incidencias {
		out = append(out, inc.Tipo)
	}
	return out
}

// ── Environment ──────────────────────────────────────────────────────────────

type entorno struct {
	store        *storeFalible
	notif        *notifEspia
	lotesRepo    repository.LoteRepository
	comandasRepo repository.ComandaRepository
	ventasRepo   repository.VentaRepository
	devRepo      repository.DevolucionRepository
	repRepo      repository.ReprocesoRepository
	lotes        LoteService
	reservas     ReservaService
	ventas       VentaService
	devoluciones DevolucionService
	traza        TrazaService
}

func nuevoEntorno(t *testing.T) *entorno {
	t.Helper()
	e := &entorno{store: newStoreFalible(), notif: &notifEspia{}}
	e.lotesRepo = repository.NewLoteRepository(e.store)
	e.comandasRepo = repository.NewComandaRepository(e.store)
	e.ventasRepo = repository.NewVentaRepository(e.store)
	e.devRepo = repository.NewDevolucionRepository(e.store)
	e.repRepo = repository.NewReprocesoRepository(e.store)
	secuencia := NewStoreSecuencia(repository.NewContadorRepository(e.store), nil)

	e.lotes = NewLoteService(e.lotesRepo, nil, e.notif)
	e.reservas = NewReservaService(e.comandasRepo, e.lotes, secuencia, nil, e.notif)
	e.ventas = NewVentaService(e.lotes, e.ventasRepo, e.comandasRepo, nil, e.notif)
	e.devoluciones = NewDevolucionService(e.lotes, e.ventasRepo, e.devRepo, nil, e.notif)
	e.traza = NewTrazaService(e.lotesRepo, e.ventasRepo, e.repRepo, e.devRepo)
	return e
}

func bb(numero, peso string, estado model.EstadoBigBag) model.BigBag {
	return model.BigBag{Numero: numero, Peso: decimal.RequireFromString(peso), Estado: estado}
}

// sembrarLote stores a lot as-is, without going through LoteService.Crear,
// so tests can start from any persisted state.
func (e *entorno) sembrarLote(t *testing.T, almacen model.Almacen, l *model.Lote) *model.Lote {
	t.Helper()
	if l.Estado == "" {
		l.Estado = model.LoteActivo
		if almacen == model.AlmacenHistorial {
			l.Estado = model.LoteArchivado
		}
	}
	id, err := e.lotesRepo.Create(context.Background(), almacen, l)
	require.NoError(t, err)
	l.ID = id
	return l
}

func (e *entorno) sembrarVenta(t *testing.T, numeroLote, cliente string, fecha time.Time, bags ...model.BigBag) {
	t.Helper()
	lineas := model.LineasDe(bags)
	_, err := e.ventasRepo.Create(context.Background(), &model.Venta{
		NumeroLote: numeroLote,
		Cliente:    cliente,
		Fecha:      fecha,
		BigBags:    lineas,
		PesoTotal:  model.SumarLineas(lineas),
	})
	require.NoError(t, err)
}

func (e *entorno) lote(t *testing.T, almacen model.Almacen, numero string) *model.Lote {
	t.Helper()
	l, err := e.lotesRepo.FindByNumero(context.Background(), almacen, numero)
	require.NoError(t, err)
	return l
}

func (e *entorno) crearComanda(t *testing.T, material, cliente string, fecha time.Time) *model.Comanda {
	t.Helper()
	c, err := e.reservas.CrearComanda(context.Background(), comandaReq(material, cliente, fecha))
	require.NoError(t, err)
	return c
}

var (
	dia1 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	dia2 = time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	dia3 = time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)
)
