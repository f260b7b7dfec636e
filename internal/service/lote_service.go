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

// LoteService is the only writer of lot documents. Every other workflow goes
// through it to read, book, mutate, archive or revive a lot.
type LoteService interface {
	// BuscarPorNumero looks in Active only. A missing lot is nil, nil.
	BuscarPorNumero(ctx context.Context, numero string) (*model.Lote, error)
	// Localizar looks in Active, then Archive. A missing lot is nil, "", nil.
	Localizar(ctx context.Context, numero string) (*model.Lote, model.Almacen, error)
	Listar(ctx context.Context, material string) ([]model.Lote, error)
	Crear(ctx context.Context, req dto.CrearLoteRequest) (*model.Lote, error)
	AplicarObservacion(ctx context.Context, lote *model.Lote, texto string) error
	AplicarReserva(ctx context.Context, lote *model.Lote, campos model.CamposReserva) error
	// GuardarBigBags persists the bag array, count and totalWeight of a lot
	// held in almacen in one document write.
	GuardarBigBags(ctx context.Context, almacen model.Almacen, lote *model.Lote) error
	Archivar(ctx context.Context, numero string) (*Resultado, error)
	// Revivir moves an archived lot back to Active. The returned lot carries
	// its new Active ID. An error means nothing was written.
	Revivir(ctx context.Context, lote *model.Lote) (*model.Lote, []string, error)
}

type loteService struct {
	repo    repository.LoteRepository
	metrics *metrics.Metrics
	notif   Notificador
	now     func() time.Time
}

func NewLoteService(repo repository.LoteRepository, m *metrics.Metrics, notif Notificador) LoteService {
	return &loteService{repo: repo, metrics: m, notif: notif, now: time.Now}
}

func (s *loteService) BuscarPorNumero(ctx context.Context, numero string) (*model.Lote, error) {
	l, err := s.repo.FindByNumero(ctx, model.AlmacenActivo, strings.TrimSpace(numero))
	if err != nil {
		return nil, dependencia(err, "leer lote")
	}
	return l, nil
}

func (s *loteService) Localizar(ctx context.Context, numero string) (*model.Lote, model.Almacen, error) {
	numero = strings.TrimSpace(numero)
	for _, almacen := range []model.Almacen{model.AlmacenActivo, model.AlmacenHistorial} {
		l, err := s.repo.FindByNumero(ctx, almacen, numero)
		if err != nil {
			return nil, "", dependencia(err, "localizar lote")
		}
		if l != nil {
			return l, almacen, nil
		}
	}
	return nil, "", nil
}

func (s *loteService) Listar(ctx context.Context, material string) ([]model.Lote, error) {
	lotes, err := s.repo.List(ctx, model.AlmacenActivo, strings.TrimSpace(material))
	if err != nil {
		return nil, dependencia(err, "listar lotes")
	}
	return lotes, nil
}

func (s *loteService) Crear(ctx context.Context, req dto.CrearLoteRequest) (*model.Lote, error) {
	numero := strings.TrimSpace(req.Numero)
	existente, _, err := s.Localizar(ctx, numero)
	if err != nil {
		return nil, err
	}
	if existente != nil {
		return nil, conflicto(fmt.Sprintf("el lote %s ya existe", numero))
	}

	bags := make([]model.BigBag, 0, len(req.BigBags))
	vistos := make(map[string]bool, len(req.BigBags))
	for _, b := range req.BigBags {
		bbNumero := strings.TrimSpace(b.Numero)
		if vistos[bbNumero] {
			return nil, apierror.NewError(apierror.CodeValidation, fmt.Sprintf("big bag %s repetido", bbNumero))
		}
		vistos[bbNumero] = true
		peso, err := model.ParsePeso(b.Peso)
		if err != nil {
			return nil, validacion(err, fmt.Sprintf("peso invalido en big bag %s", bbNumero))
		}
		bags = append(bags, model.BigBag{
			Numero:    bbNumero,
			Peso:      peso,
			Ubicacion: b.Ubicacion,
			Estado:    model.BigBagEnStock,
		})
	}

	total := model.SumarPesos(bags)
	lote := &model.Lote{
		Numero:      numero,
		Descripcion: strings.TrimSpace(req.Descripcion),
		Ubicacion:   req.Ubicacion,
		BigBags:     bags,
		Cantidad:    len(bags),
		Peso:        total,
		PesoTotal:   total,
		Estado:      model.LoteActivo,
		Observacion: req.Observacion,
		CreadoEn:    s.now().UTC(),
	}
	id, err := s.repo.Create(ctx, model.AlmacenActivo, lote)
	if err != nil {
		return nil, dependencia(err, "crear lote")
	}
	lote.ID = id
	log.Info().Str("numero_lote", numero).Int("big_bags", len(bags)).Msg("lote creado")
	return lote, nil
}

func (s *loteService) AplicarObservacion(ctx context.Context, lote *model.Lote, texto string) error {
	lote.Observacion = texto
	if err := s.repo.UpdateObservacion(ctx, model.AlmacenActivo, lote); err != nil {
		return dependencia(err, "guardar observacion")
	}
	return nil
}

func (s *loteService) AplicarReserva(ctx context.Context, lote *model.Lote, campos model.CamposReserva) error {
	reserva, err := model.NuevaReserva(campos)
	if err != nil {
		return validacion(err, err.Error())
	}
	anterior := lote.Reserva
	lote.Reserva = reserva
	if err := s.repo.UpdateReserva(ctx, model.AlmacenActivo, lote); err != nil {
		lote.Reserva = anterior
		return dependencia(err, "guardar reserva")
	}
	ev := log.Info().Str("numero_lote", lote.Numero)
	if reserva != nil {
		ev = ev.Str("cliente", reserva.Cliente)
	}
	ev.Bool("liberada", reserva == nil).Msg("reserva actualizada")
	return nil
}

func (s *loteService) GuardarBigBags(ctx context.Context, almacen model.Almacen, lote *model.Lote) error {
	if err := s.repo.UpdateBigBags(ctx, almacen, lote); err != nil {
		return dependencia(err, "guardar big bags")
	}
	return nil
}

func (s *loteService) Archivar(ctx context.Context, numero string) (*Resultado, error) {
	ctx = context.WithoutCancel(ctx)
	seg := iniciar("archivar", s.metrics, s.notif)

	lote, err := s.BuscarPorNumero(ctx, numero)
	if err != nil {
		return nil, seg.abortar(err)
	}
	if lote == nil {
		return nil, seg.abortar(loteNoEncontrado(numero))
	}
	if lote.Reserva != nil {
		return nil, seg.abortar(conflicto(fmt.Sprintf("el lote %s esta reservado para %s", lote.Numero, lote.Reserva.Cliente)))
	}

	activoID := lote.ID
	copia := lote.Clonar()
	copia.Estado = model.LoteArchivado
	id, err := s.repo.Create(ctx, model.AlmacenHistorial, copia)
	if err != nil {
		return nil, seg.abortar(dependencia(err, "crear copia en historial"))
	}
	copia.ID = id
	log.Info().Str("numero_lote", lote.Numero).Str("paso", "copia_historial").Msg("lote archivado")

	if err := s.repo.Delete(ctx, model.AlmacenActivo, activoID); err != nil {
		seg.incidencia(ctx, model.Incidencia{
			Tipo:       model.IncidenciaLoteDuplicado,
			NumeroLote: lote.Numero,
			Detalle:    fmt.Sprintf("el lote %s quedo en lotes y en historial: %v", lote.Numero, err),
		})
	}
	seg.res.Lote = copia
	return seg.terminar(), nil
}

func (s *loteService) Revivir(ctx context.Context, lote *model.Lote) (*model.Lote, []string, error) {
	ctx = context.WithoutCancel(ctx)
	historialID := lote.ID
	vivo := lote.Clonar()
	vivo.Estado = model.LoteActivo

	id, err := s.repo.Create(ctx, model.AlmacenActivo, vivo)
	if err != nil {
		return nil, nil, dependencia(err, "revivir lote")
	}
	vivo.ID = id
	log.Info().Str("numero_lote", vivo.Numero).Str("paso", "revivir").Msg("lote devuelto a lotes")

	var advertencias []string
	if err := s.repo.Delete(ctx, model.AlmacenHistorial, historialID); err != nil {
		msg := fmt.Sprintf("el lote %s quedo duplicado en historial: %v", vivo.Numero, err)
		log.Warn().Str("numero_lote", vivo.Numero).Err(err).Msg("no se pudo borrar la copia de historial")
		s.notificador().Registrar(ctx, model.Incidencia{
			Tipo:       model.IncidenciaLoteDuplicado,
			Operacion:  "revivir",
			NumeroLote: vivo.Numero,
			Detalle:    msg,
			Fecha:      s.now().UTC(),
		})
		advertencias = append(advertencias, msg)
	}
	return vivo, advertencias, nil
}

func (s *loteService) notificador() Notificador {
	if s.notif == nil {
		return sinNotificador{}
	}
	return s.notif
}
