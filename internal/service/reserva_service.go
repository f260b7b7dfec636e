package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gmrstock/internal/apierror"
	"gmrstock/internal/dto"
	"gmrstock/internal/metrics"
	"gmrstock/internal/model"
	"gmrstock/internal/repository"

	"github.com/rs/zerolog/log"
)

// ReservaService manages comandas and their link to lots. The link is held
// twice (lot booking and comanda lot number) and is written without a lock;
// concurrent assignments of the same lot are resolved by the last write.
type ReservaService interface {
	CrearComanda(ctx context.Context, req dto.CrearComandaRequest) (*model.Comanda, error)
	ObtenerComanda(ctx context.Context, id string) (*model.Comanda, error)
	ListarComandas(ctx context.Context, soloPendientes bool) ([]model.Comanda, error)
	LotesCandidatos(ctx context.Context, idComanda string) ([]model.Lote, error)
	Asignar(ctx context.Context, idComanda, numeroLote, reservadoPor string) (*Resultado, error)
	Desasignar(ctx context.Context, idComanda string, liberarLote bool) (*Resultado, error)
	ReprogramarComanda(ctx context.Context, idComanda string, fecha time.Time) (*Resultado, error)
	EliminarComanda(ctx context.Context, idComanda string) error
	MarcarVendida(ctx context.Context, idComanda string) error
}

type reservaService struct {
	comandas  repository.ComandaRepository
	lotes     LoteService
	secuencia Secuencia
	metrics   *metrics.Metrics
	notif     Notificador
}

func NewReservaService(
	comandas repository.ComandaRepository,
	lotes LoteService,
	secuencia Secuencia,
	m *metrics.Metrics,
	notif Notificador,
) ReservaService {
	return &reservaService{comandas: comandas, lotes: lotes, secuencia: secuencia, metrics: m, notif: notif}
}

func (s *reservaService) CrearComanda(ctx context.Context, req dto.CrearComandaRequest) (*model.Comanda, error) {
	peso, err := model.ParsePeso(req.PesoTotal)
	if err != nil {
		return nil, validacion(err, "peso total invalido")
	}
	c := &model.Comanda{
		Numero:       s.secuencia.Siguiente(ctx),
		Material:     strings.TrimSpace(req.Material),
		FechaReserva: req.FechaReserva.UTC(),
		Cliente:      strings.TrimSpace(req.Cliente),
		PesoTotal:    peso,
		Observacion:  req.Observacion,
	}
	id, err := s.comandas.Create(ctx, c)
	if err != nil {
		return nil, dependencia(err, "crear comanda")
	}
	c.ID = id
	log.Info().Str("id_comanda", id).Int64("numero", c.Numero).Str("cliente", c.Cliente).Msg("comanda creada")
	return c, nil
}

func (s *reservaService) ObtenerComanda(ctx context.Context, id string) (*model.Comanda, error) {
	c, err := s.comandas.FindByID(ctx, id)
	if err != nil {
		return nil, dependencia(err, "leer comanda")
	}
	if c == nil {
		return nil, comandaNoEncontrada(id)
	}
	return c, nil
}

func (s *reservaService) ListarComandas(ctx context.Context, soloPendientes bool) ([]model.Comanda, error) {
	comandas, err := s.comandas.List(ctx, soloPendientes)
	if err != nil {
		return nil, dependencia(err, "listar comandas")
	}
	return comandas, nil
}

// LotesCandidatos scans every open comanda to exclude lots already promised
// to another order.
func (s *reservaService) LotesCandidatos(ctx context.Context, idComanda string) ([]model.Lote, error) {
	c, err := s.ObtenerComanda(ctx, idComanda)
	if err != nil {
		return nil, err
	}
	lotes, err := s.lotes.Listar(ctx, c.Material)
	if err != nil {
		return nil, err
	}
	abiertas, err := s.comandas.List(ctx, true)
	if err != nil {
		return nil, dependencia(err, "listar comandas abiertas")
	}
	tomados := make(map[string]bool, len(abiertas))
	for _, otra := range abiertas {
		if otra.ID != c.ID && otra.Asignada() {
			tomados[otra.NumeroLote] = true
		}
	}

	candidatos := make([]model.Lote, 0, len(lotes))
	for _, l := range lotes {
		if l.Descripcion != c.Material || tomados[l.Numero] {
			continue
		}
		if l.Reserva != nil && !l.ReservadoPara(c.Cliente) {
			continue
		}
		candidatos = append(candidatos, l)
	}
	return candidatos, nil
}

func (s *reservaService) Asignar(ctx context.Context, idComanda, numeroLote, reservadoPor string) (*Resultado, error) {
	ctx = context.WithoutCancel(ctx)
	seg := iniciar("asignar", s.metrics, s.notif)

	c, err := s.ObtenerComanda(ctx, idComanda)
	if err != nil {
		return nil, seg.abortar(err)
	}
	if c.Vendida {
		return nil, seg.abortar(conflicto(fmt.Sprintf("la comanda %d ya fue vendida", c.Numero)))
	}
	if c.Asignada() && c.NumeroLote != numeroLote {
		return nil, seg.abortar(conflicto(fmt.Sprintf("la comanda %d ya tiene asignado el lote %s", c.Numero, c.NumeroLote)))
	}
	lote, err := s.lotes.BuscarPorNumero(ctx, numeroLote)
	if err != nil {
		return nil, seg.abortar(err)
	}
	if lote == nil {
		return nil, seg.abortar(loteNoEncontrado(numeroLote))
	}

	fecha := c.FechaReserva
	err = s.lotes.AplicarReserva(ctx, lote, model.CamposReserva{
		Cliente:      &c.Cliente,
		FechaReserva: &fecha,
		ReservadoPor: &reservadoPor,
	})
	if err != nil {
		return nil, seg.abortar(err)
	}
	seg.res.Lote = lote

	if err := s.comandas.UpdateLote(ctx, c.ID, lote.Numero); err != nil {
		seg.fallo(ctx, model.Incidencia{
			Tipo:       model.IncidenciaReservaHuerfana,
			NumeroLote: lote.Numero,
			IDComanda:  c.ID,
			Detalle:    fmt.Sprintf("el lote %s quedo reservado para %s sin comanda asociada", lote.Numero, c.Cliente),
		}, err)
		seg.res.Comanda = c
		return seg.terminar(), nil
	}
	c.NumeroLote = lote.Numero
	seg.res.Comanda = c
	log.Info().Str("id_comanda", c.ID).Str("numero_lote", lote.Numero).Str("cliente", c.Cliente).Msg("lote asignado")
	return seg.terminar(), nil
}

func (s *reservaService) Desasignar(ctx context.Context, idComanda string, liberarLote bool) (*Resultado, error) {
	ctx = context.WithoutCancel(ctx)
	seg := iniciar("desasignar", s.metrics, s.notif)

	c, err := s.ObtenerComanda(ctx, idComanda)
	if err != nil {
		return nil, seg.abortar(err)
	}
	if !c.Asignada() {
		return nil, seg.abortar(conflicto(fmt.Sprintf("la comanda %d no tiene lote asignado", c.Numero)))
	}
	numeroLote := c.NumeroLote
	if err := s.comandas.UpdateLote(ctx, c.ID, ""); err != nil {
		return nil, seg.abortar(dependencia(err, "desasignar comanda"))
	}
	c.NumeroLote = ""
	seg.res.Comanda = c

	if !liberarLote {
		return seg.terminar(), nil
	}
	lote, err := s.lotes.BuscarPorNumero(ctx, numeroLote)
	switch {
	case err != nil:
		seg.fallo(ctx, reservaSinLiberar(numeroLote, c), err)
		return seg.terminar(), nil
	case lote == nil:
		seg.advertir("el lote %s ya no esta en lotes; no hay reserva que liberar", numeroLote)
		return seg.terminar(), nil
	case !lote.ReservadoPara(c.Cliente):
		seg.advertir("el lote %s no esta reservado para %s; la reserva se conserva", numeroLote, c.Cliente)
		seg.res.Lote = lote
		return seg.terminar(), nil
	}
	if err := s.lotes.AplicarReserva(ctx, lote, model.CamposReserva{}); err != nil {
		seg.fallo(ctx, reservaSinLiberar(numeroLote, c), err)
	}
	seg.res.Lote = lote
	return seg.terminar(), nil
}

func reservaSinLiberar(numeroLote string, c *model.Comanda) model.Incidencia {
	return model.Incidencia{
		Tipo:       model.IncidenciaReservaHuerfana,
		NumeroLote: numeroLote,
		IDComanda:  c.ID,
		Detalle:    fmt.Sprintf("la comanda %d se desasigno pero el lote %s sigue reservado", c.Numero, numeroLote),
	}
}

func (s *reservaService) ReprogramarComanda(ctx context.Context, idComanda string, fecha time.Time) (*Resultado, error) {
	ctx = context.WithoutCancel(ctx)
	seg := iniciar("reprogramar", s.metrics, s.notif)

	if fecha.IsZero() {
		return nil, seg.abortar(apierror.NewError(apierror.CodeValidation, "la fecha de reserva es obligatoria"))
	}
	c, err := s.ObtenerComanda(ctx, idComanda)
	if err != nil {
		return nil, seg.abortar(err)
	}
	if c.Vendida {
		return nil, seg.abortar(conflicto(fmt.Sprintf("la comanda %d ya fue vendida", c.Numero)))
	}
	fecha = fecha.UTC()

	loteEscrito := false
	if c.Asignada() {
		lote, err := s.lotes.BuscarPorNumero(ctx, c.NumeroLote)
		if err != nil {
			return nil, seg.abortar(err)
		}
		if lote != nil && lote.ReservadoPara(c.Cliente) {
			r := lote.Reserva
			if err := s.lotes.AplicarReserva(ctx, lote, model.CamposReserva{
				Cliente:      &r.Cliente,
				FechaReserva: &fecha,
				ReservadoPor: &r.ReservadoPor,
				Observacion:  &r.Observacion,
			}); err != nil {
				return nil, seg.abortar(err)
			}
			loteEscrito = true
			seg.res.Lote = lote
		} else {
			seg.advertir("el lote %s no tiene la reserva de la comanda %d; solo se cambia la comanda", c.NumeroLote, c.Numero)
		}
	}

	anterior := c.FechaReserva
	c.FechaReserva = fecha
	if err := s.comandas.UpdateFecha(ctx, c); err != nil {
		if !loteEscrito {
			return nil, seg.abortar(dependencia(err, "reprogramar comanda"))
		}
		c.FechaReserva = anterior
		seg.fallo(ctx, model.Incidencia{
			Tipo:       model.IncidenciaParDesalineado,
			NumeroLote: c.NumeroLote,
			IDComanda:  c.ID,
			Detalle:    fmt.Sprintf("la reserva del lote %s tiene la fecha nueva y la comanda %d la anterior", c.NumeroLote, c.Numero),
		}, err)
	}
	seg.res.Comanda = c
	return seg.terminar(), nil
}

func (s *reservaService) EliminarComanda(ctx context.Context, idComanda string) error {
	c, err := s.ObtenerComanda(ctx, idComanda)
	if err != nil {
		return err
	}
	if c.Asignada() {
		return conflicto(fmt.Sprintf("la comanda %d tiene asignado el lote %s", c.Numero, c.NumeroLote))
	}
	if c.Vendida {
		return conflicto(fmt.Sprintf("la comanda %d ya fue vendida", c.Numero))
	}
	if err := s.comandas.Delete(ctx, c.ID); err != nil {
		return dependencia(err, "eliminar comanda")
	}
	log.Info().Str("id_comanda", c.ID).Int64("numero", c.Numero).Msg("comanda eliminada")
	return nil
}

func (s *reservaService) MarcarVendida(ctx context.Context, idComanda string) error {
	c, err := s.ObtenerComanda(ctx, idComanda)
	if err != nil {
		return err
	}
	if c.Vendida {
		return conflicto(fmt.Sprintf("la comanda %d ya fue vendida", c.Numero))
	}
	if err := s.comandas.MarkVendida(ctx, c.ID); err != nil {
		return dependencia(err, "marcar comanda vendida")
	}
	return nil
}
