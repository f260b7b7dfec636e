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

// VentaService moves big bags out of stock and journals who received them.
type VentaService interface {
	RegistrarVenta(ctx context.Context, req dto.RegistrarVentaRequest) (*Resultado, error)
}

type ventaService struct {
	lotes    LoteService
	ventas   repository.VentaRepository
	comandas repository.ComandaRepository
	metrics  *metrics.Metrics
	notif    Notificador
	now      func() time.Time
}

func NewVentaService(
	lotes LoteService,
	ventas repository.VentaRepository,
	comandas repository.ComandaRepository,
	m *metrics.Metrics,
	notif Notificador,
) VentaService {
	return &ventaService{lotes: lotes, ventas: ventas, comandas: comandas, metrics: m, notif: notif, now: time.Now}
}

// RegistrarVenta writes the lot first so stock is never oversold; the
// journal and the comanda follow and are reported as warnings on failure.
func (s *ventaService) RegistrarVenta(ctx context.Context, req dto.RegistrarVentaRequest) (*Resultado, error) {
	ctx = context.WithoutCancel(ctx)
	seg := iniciar("venta", s.metrics, s.notif)

	lote, err := s.lotes.BuscarPorNumero(ctx, req.NumeroLote)
	if err != nil {
		return nil, seg.abortar(err)
	}
	if lote == nil {
		return nil, seg.abortar(loteNoEncontrado(req.NumeroLote))
	}

	cliente := strings.TrimSpace(req.Cliente)
	var comanda *model.Comanda
	if req.IDComanda != "" {
		comanda, err = s.comandas.FindByID(ctx, req.IDComanda)
		if err != nil {
			return nil, seg.abortar(dependencia(err, "leer comanda"))
		}
		if comanda == nil {
			return nil, seg.abortar(comandaNoEncontrada(req.IDComanda))
		}
		if comanda.Vendida {
			return nil, seg.abortar(conflicto(fmt.Sprintf("la comanda %d ya fue vendida", comanda.Numero)))
		}
		if comanda.Asignada() && comanda.NumeroLote != lote.Numero {
			return nil, seg.abortar(conflicto(fmt.Sprintf("la comanda %d corresponde al lote %s", comanda.Numero, comanda.NumeroLote)))
		}
		if cliente == "" {
			cliente = comanda.Cliente
		}
	}
	if cliente == "" {
		return nil, seg.abortar(apierror.NewError(apierror.CodeValidation, "el cliente es obligatorio"))
	}

	mutado := lote.Clonar()
	vendidos := make([]model.BigBag, 0, len(req.BigBags))
	vistos := make(map[string]bool, len(req.BigBags))
	for _, numero := range req.BigBags {
		if vistos[numero] {
			return nil, seg.abortar(apierror.NewError(apierror.CodeValidation, fmt.Sprintf("big bag %s repetido", numero)))
		}
		vistos[numero] = true
		i, ok := mutado.IndiceBigBag(numero)
		if !ok {
			return nil, seg.abortar(apierror.NewError(apierror.CodeValidation, fmt.Sprintf("el big bag %s no pertenece al lote %s", numero, lote.Numero)))
		}
		bag, err := model.MarcarSalida(mutado.BigBags[i])
		if err != nil {
			return nil, seg.abortar(validacion(err, fmt.Sprintf("el big bag %s no esta en stock", numero)))
		}
		mutado.BigBags[i] = bag
		vendidos = append(vendidos, bag)
	}
	mutado.RecalcularAgregados()

	if err := s.lotes.GuardarBigBags(ctx, model.AlmacenActivo, mutado); err != nil {
		return nil, seg.abortar(err)
	}
	seg.res.Lote = mutado
	log.Info().Str("numero_lote", lote.Numero).Str("cliente", cliente).Int("big_bags", len(vendidos)).Str("paso", "lote").Msg("big bags vendidos")

	fecha := s.now().UTC()
	if req.Fecha != nil && !req.Fecha.IsZero() {
		fecha = req.Fecha.UTC()
	}
	lineas := model.LineasDe(vendidos)
	venta := &model.Venta{
		NumeroLote:  lote.Numero,
		Cliente:     cliente,
		Descripcion: lote.Descripcion,
		Fecha:       fecha,
		BigBags:     lineas,
		PesoTotal:   model.SumarLineas(lineas),
	}
	if comanda != nil {
		venta.IDComanda = comanda.ID
	}
	if _, err := s.ventas.Create(ctx, venta); err != nil {
		seg.fallo(ctx, model.Incidencia{
			NumeroLote: lote.Numero,
			IDComanda:  venta.IDComanda,
			Detalle:    fmt.Sprintf("los big bags %s del lote %s salieron sin registro de venta", strings.Join(req.BigBags, ","), lote.Numero),
		}, err)
	}

	if comanda != nil {
		if err := s.comandas.MarkVendida(ctx, comanda.ID); err != nil {
			seg.fallo(ctx, model.Incidencia{
				NumeroLote: lote.Numero,
				IDComanda:  comanda.ID,
				Detalle:    fmt.Sprintf("la comanda %d no quedo marcada como vendida", comanda.Numero),
			}, err)
		} else {
			comanda.Vendida = true
		}
		seg.res.Comanda = comanda
	}
	return seg.terminar(), nil
}
