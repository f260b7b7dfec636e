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

// DevolucionService brings sold big bags back into stock, reviving the lot
// from historial when it was archived after the sale.
type DevolucionService interface {
	// BigBagsDevolvibles lists the bags of a lot that cliente may return: out
	// of stock and moved by a sale to cliente more recently than to anyone else.
	BigBagsDevolvibles(ctx context.Context, numeroLote, cliente string) ([]model.BigBag, error)
	RegistrarDevolucion(ctx context.Context, req dto.RegistrarDevolucionRequest) (*Resultado, error)
}

type devolucionService struct {
	lotes        LoteService
	ventas       repository.VentaRepository
	devoluciones repository.DevolucionRepository
	metrics      *metrics.Metrics
	notif        Notificador
	now          func() time.Time
}

func NewDevolucionService(
	lotes LoteService,
	ventas repository.VentaRepository,
	devoluciones repository.DevolucionRepository,
	m *metrics.Metrics,
	notif Notificador,
) DevolucionService {
	return &devolucionService{
		lotes:        lotes,
		ventas:       ventas,
		devoluciones: devoluciones,
		metrics:      m,
		notif:        notif,
		now:          time.Now,
	}
}

func (s *devolucionService) BigBagsDevolvibles(ctx context.Context, numeroLote, cliente string) ([]model.BigBag, error) {
	lote, _, err := s.lotes.Localizar(ctx, numeroLote)
	if err != nil {
		return nil, err
	}
	if lote == nil {
		return nil, loteNoEncontrado(numeroLote)
	}
	ventas, err := s.ventas.ListByLote(ctx, lote.Numero)
	if err != nil {
		return nil, dependencia(err, "leer ventas")
	}
	elegibles := devolvibles(lote, ventas, cliente)
	out := make([]model.BigBag, 0, len(elegibles))
	for _, b := range lote.BigBags {
		if elegibles[b.Numero] {
			out = append(out, b)
		}
	}
	return out, nil
}

// devolvibles applies the last-sale-owns-the-return rule.
func devolvibles(lote *model.Lote, ventas []model.Venta, cliente string) map[string]bool {
	elegibles := make(map[string]bool)
	for _, b := range lote.BigBags {
		if b.Estado != model.BigBagFuera {
			continue
		}
		var ultima *model.Venta
		for i := range ventas {
			v := &ventas[i]
			if !v.Incluye(b.Numero) {
				continue
			}
			if ultima == nil || v.Fecha.After(ultima.Fecha) {
				ultima = v
			}
		}
		if ultima != nil && model.MismoCliente(ultima.Cliente, cliente) {
			elegibles[b.Numero] = true
		}
	}
	return elegibles
}

func (s *devolucionService) RegistrarDevolucion(ctx context.Context, req dto.RegistrarDevolucionRequest) (*Resultado, error) {
	ctx = context.WithoutCancel(ctx)
	seg := iniciar("devolucion", s.metrics, s.notif)
	cliente := strings.TrimSpace(req.Cliente)

	// Validate everything before the first write.
	if len(req.BigBags) == 0 {
		return nil, seg.abortar(apierror.NewError(apierror.CodeValidation, "no se selecciono ningun big bag"))
	}
	lote, almacen, err := s.lotes.Localizar(ctx, req.NumeroLote)
	if err != nil {
		return nil, seg.abortar(err)
	}
	if lote == nil {
		return nil, seg.abortar(loteNoEncontrado(req.NumeroLote))
	}
	ventas, err := s.ventas.ListByLote(ctx, lote.Numero)
	if err != nil {
		return nil, seg.abortar(dependencia(err, "leer ventas"))
	}
	elegibles := devolvibles(lote, ventas, cliente)
	vistos := make(map[string]bool, len(req.BigBags))
	for _, numero := range req.BigBags {
		if vistos[numero] {
			return nil, seg.abortar(apierror.NewError(apierror.CodeValidation, fmt.Sprintf("big bag %s repetido", numero)))
		}
		vistos[numero] = true
		i, ok := lote.IndiceBigBag(numero)
		if !ok {
			return nil, seg.abortar(apierror.NewError(apierror.CodeValidation, fmt.Sprintf("el big bag %s no pertenece al lote %s", numero, lote.Numero)))
		}
		if lote.BigBags[i].Estado != model.BigBagFuera {
			return nil, seg.abortar(validacion(model.ErrTransicionInvalida, fmt.Sprintf("el big bag %s ya esta en stock", numero)))
		}
		if !elegibles[numero] {
			return nil, seg.abortar(apierror.NewError(apierror.CodeValidation, fmt.Sprintf("el big bag %s no fue vendido por ultima vez a %s", numero, cliente)))
		}
	}
	logger := log.With().Str("numero_lote", lote.Numero).Str("cliente", cliente).Logger()

	escrito := false
	if almacen == model.AlmacenHistorial {
		vivo, advertencias, err := s.lotes.Revivir(ctx, lote)
		if err != nil {
			return nil, seg.abortar(err)
		}
		for _, a := range advertencias {
			seg.advertir("%s", a)
		}
		lote = vivo
		escrito = true
		logger.Info().Str("paso", "revivir").Str("id_lote", vivo.ID).Msg("lote recuperado de historial")
	}
	seg.res.Lote = lote

	fecha := s.now().UTC()
	if req.Fecha != nil && !req.Fecha.IsZero() {
		fecha = req.Fecha.UTC()
	}
	seleccion := make([]model.BigBag, 0, len(req.BigBags))
	for _, numero := range req.BigBags {
		i, _ := lote.IndiceBigBag(numero)
		seleccion = append(seleccion, lote.BigBags[i])
	}
	lineas := model.LineasDe(seleccion)
	devolucion := &model.Devolucion{
		NumeroLote:  lote.Numero,
		Cliente:     cliente,
		Descripcion: lote.Descripcion,
		Fecha:       fecha,
		BigBags:     lineas,
		PesoTotal:   model.SumarLineas(lineas),
	}
	id, err := s.devoluciones.Create(ctx, devolucion)
	if err != nil {
		if !escrito {
			return nil, seg.abortar(dependencia(err, "registrar devolucion"))
		}
		seg.fallo(ctx, model.Incidencia{
			NumeroLote: lote.Numero,
			Detalle:    fmt.Sprintf("el lote %s se recupero de historial pero la devolucion no se registro", lote.Numero),
		}, err)
		return seg.terminar(), nil
	}
	devolucion.ID = id
	logger.Info().Str("paso", "registro").Str("id_devolucion", id).Str("peso_total", model.FormatPeso(devolucion.PesoTotal)).Msg("devolucion registrada")

	mutado := lote.Clonar()
	devueltos := make([]model.BigBag, 0, len(seleccion))
	for _, numero := range req.BigBags {
		i, _ := mutado.IndiceBigBag(numero)
		bag, err := model.MarcarDevuelto(mutado.BigBags[i])
		if err != nil {
			// validated above; only reachable if the revived copy differs
			seg.fallo(ctx, model.Incidencia{NumeroLote: lote.Numero, Detalle: "big bag " + numero + " no se pudo devolver"}, err)
			return seg.terminar(), nil
		}
		mutado.BigBags[i] = bag
		devueltos = append(devueltos, bag)
	}
	mutado.RecalcularAgregados(devueltos...)

	if err := s.lotes.GuardarBigBags(ctx, model.AlmacenActivo, mutado); err != nil {
		seg.fallo(ctx, model.Incidencia{
			NumeroLote: lote.Numero,
			Detalle:    fmt.Sprintf("la devolucion %s se registro pero los big bags del lote %s siguen fuera de stock", id, lote.Numero),
		}, err)
		return seg.terminar(), nil
	}
	logger.Info().Str("paso", "stock").Int("cantidad", mutado.Cantidad).Str("peso_total", model.FormatPeso(mutado.PesoTotal)).Msg("big bags devueltos a stock")

	confirmado, err := s.lotes.BuscarPorNumero(ctx, lote.Numero)
	switch {
	case err != nil:
		seg.advertir("no se pudo releer el lote %s: %v", lote.Numero, err)
		seg.res.Lote = mutado
	case confirmado == nil:
		seg.advertir("el lote %s no se encontro al releerlo", lote.Numero)
		seg.res.Lote = mutado
	default:
		seg.res.Lote = confirmado
	}
	return seg.terminar(), nil
}
