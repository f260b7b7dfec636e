package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gmrstock/internal/model"
	"gmrstock/internal/repository"

	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

// TrazaService builds the history of a lot from every collection that
// mentions it.
type TrazaService interface {
	// Trazar returns the events newest first. Failing sources are logged and
	// skipped; an error is returned only when every source failed.
	Trazar(ctx context.Context, numero string) ([]model.EventoTraza, error)
}

type trazaService struct {
	lotes        repository.LoteRepository
	ventas       repository.VentaRepository
	reprocesos   repository.ReprocesoRepository
	devoluciones repository.DevolucionRepository
}

func NewTrazaService(
	lotes repository.LoteRepository,
	ventas repository.VentaRepository,
	reprocesos repository.ReprocesoRepository,
	devoluciones repository.DevolucionRepository,
) TrazaService {
	return &trazaService{lotes: lotes, ventas: ventas, reprocesos: reprocesos, devoluciones: devoluciones}
}

type fuenteTraza struct {
	nombre string
	leer   func(ctx context.Context, numero string) ([]model.EventoTraza, error)
}

func (s *trazaService) fuentes() []fuenteTraza {
	return []fuenteTraza{
		{"lotes", func(ctx context.Context, n string) ([]model.EventoTraza, error) {
			return s.eventosLote(ctx, model.AlmacenActivo, n)
		}},
		{"historial", func(ctx context.Context, n string) ([]model.EventoTraza, error) {
			return s.eventosLote(ctx, model.AlmacenHistorial, n)
		}},
		{"ventas", s.eventosVentas},
		{"reprocesos", s.eventosReprocesos},
		{"devoluciones", s.eventosDevoluciones},
	}
}

func (s *trazaService) Trazar(ctx context.Context, numero string) ([]model.EventoTraza, error) {
	numero = strings.TrimSpace(numero)
	fuentes := s.fuentes()
	resultados := make([][]model.EventoTraza, len(fuentes))
	errs := make([]error, len(fuentes))

	var wg sync.WaitGroup
	for i, f := range fuentes {
		wg.Add(1)
		go func(i int, f fuenteTraza) {
			defer wg.Done()
			eventos, err := f.leer(ctx, numero)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", f.nombre, err)
				return
			}
			resultados[i] = eventos
		}(i, f)
	}
	wg.Wait()

	var combinado error
	fallidas := 0
	for _, err := range errs {
		if err != nil {
			fallidas++
			combinado = multierr.Append(combinado, err)
		}
	}
	if combinado != nil {
		log.Warn().Err(combinado).Str("numero_lote", numero).Int("fuentes_fallidas", fallidas).Msg("traza incompleta")
		if fallidas == len(fuentes) {
			return nil, dependencia(combinado, "leer traza")
		}
	}

	eventos := make([]model.EventoTraza, 0)
	for _, r := range resultados {
		eventos = append(eventos, r...)
	}
	ordenarTraza(eventos)
	return eventos, nil
}

// ordenarTraza sorts newest first; events without a date go last.
func ordenarTraza(eventos []model.EventoTraza) {
	sort.SliceStable(eventos, func(i, j int) bool {
		a, b := eventos[i].Fecha, eventos[j].Fecha
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.After(b)
	})
}

func (s *trazaService) eventosLote(ctx context.Context, almacen model.Almacen, numero string) ([]model.EventoTraza, error) {
	lotes, err := s.lotes.FindAllByNumero(ctx, almacen, numero)
	if err != nil {
		return nil, err
	}
	eventos := make([]model.EventoTraza, 0, len(lotes))
	for i := range lotes {
		l := &lotes[i]
		ev := model.EventoTraza{
			Fecha:      l.CreadoEn,
			Tipo:       model.EventoCreacion,
			Titulo:     "Lote " + l.Numero,
			Subtitulo:  strings.TrimSpace(l.Descripcion + " " + l.Ubicacion),
			Peso:       l.PesoVisible(),
			BigBags:    numerosBigBag(l.BigBags),
			Referencia: string(almacen) + "/" + l.ID,
		}
		if almacen == model.AlmacenHistorial {
			ev.Tipo = model.EventoArchivo
			ev.Titulo = "Lote " + l.Numero + " en historial"
		}
		eventos = append(eventos, ev)
	}
	return eventos, nil
}

func (s *trazaService) eventosVentas(ctx context.Context, numero string) ([]model.EventoTraza, error) {
	ventas, err := s.ventas.ListByLote(ctx, numero)
	if err != nil {
		return nil, err
	}
	eventos := make([]model.EventoTraza, 0, len(ventas))
	for _, v := range ventas {
		sub := v.Descripcion
		if v.IDComanda != "" {
			sub = "comanda " + v.IDComanda
		}
		eventos = append(eventos, model.EventoTraza{
			Fecha:      v.Fecha,
			Tipo:       model.EventoVenta,
			Titulo:     "Venta a " + v.Cliente,
			Subtitulo:  sub,
			Peso:       v.PesoTotal,
			BigBags:    numerosLinea(v.BigBags),
			Referencia: repository.ColeccionVentas + "/" + v.ID,
		})
	}
	return eventos, nil
}

func (s *trazaService) eventosReprocesos(ctx context.Context, numero string) ([]model.EventoTraza, error) {
	reprocesos, err := s.reprocesos.ListByLote(ctx, numero)
	if err != nil {
		return nil, err
	}
	eventos := make([]model.EventoTraza, 0, len(reprocesos))
	for _, r := range reprocesos {
		eventos = append(eventos, model.EventoTraza{
			Fecha:      r.Fecha,
			Tipo:       model.EventoReproceso,
			Titulo:     "Reproceso",
			Subtitulo:  r.Observacion,
			Peso:       r.PesoTotal,
			BigBags:    numerosLinea(r.BigBags),
			Referencia: repository.ColeccionReprocesos + "/" + r.ID,
		})
	}
	return eventos, nil
}

func (s *trazaService) eventosDevoluciones(ctx context.Context, numero string) ([]model.EventoTraza, error) {
	devoluciones, err := s.devoluciones.ListByLote(ctx, numero)
	if err != nil {
		return nil, err
	}
	eventos := make([]model.EventoTraza, 0, len(devoluciones))
	for _, d := range devoluciones {
		eventos = append(eventos, model.EventoTraza{
			Fecha:      d.Fecha,
			Tipo:       model.EventoDevolucion,
			Titulo:     "Devolucion de " + d.Cliente,
			Subtitulo:  d.Descripcion,
			Peso:       d.PesoTotal,
			BigBags:    numerosLinea(d.BigBags),
			Referencia: repository.ColeccionDevoluciones + "/" + d.ID,
		})
	}
	return eventos, nil
}

func numerosBigBag(bags []model.BigBag) []string {
	out := make([]string, 0, len(bags))
	for _, b := range bags {
		out = append(out, b.Numero)
	}
	return out
}

func numerosLinea(lineas []model.LineaBigBag) []string {
	out := make([]string, 0, len(lineas))
	for _, l := range lineas {
		out = append(out, l.Numero)
	}
	return out
}
