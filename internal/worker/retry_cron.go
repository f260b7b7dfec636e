package worker

// retry_cron.go
// Background goroutine that periodically scans lots and comandas for the
// inconsistencies multi-document workflows can leave behind. It only reports;
// repairs are manual. Skips ticks while the store circuit breaker is open.

import (
	"context"
	"fmt"
	"time"

	"gmrstock/internal/infra"
	"gmrstock/internal/metrics"
	"gmrstock/internal/model"
	"gmrstock/internal/repository"
	"gmrstock/internal/service"

	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

const defaultReconciliacionInterval = 10 * time.Minute

// ReconciliacionConfig holds all dependencies for the scanner goroutine.
type ReconciliacionConfig struct {
	Lotes       repository.LoteRepository
	Comandas    repository.ComandaRepository
	CB          *infra.CircuitBreaker
	Notificador service.Notificador
	Metrics     *metrics.Metrics
	Intervalo   time.Duration
}

// StartReconciliacionCron launches the scanner. It respects ctx for
// graceful shutdown.
func StartReconciliacionCron(ctx context.Context, cfg ReconciliacionConfig) {
	intervalo := cfg.Intervalo
	if intervalo <= 0 {
		intervalo = defaultReconciliacionInterval
	}
	r := NewReconciliador(cfg)
	go func() {
		ticker := time.NewTicker(intervalo)
		defer ticker.Stop()

		log.Info().Dur("intervalo", intervalo).Msg("reconciliacion: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconciliacion: shutting down")
				return
			case <-ticker.C:
				r.Ejecutar(ctx)
			}
		}
	}()
}

// Reconciliador remembers what it already reported so each incident is
// queued once, not on every tick.
type Reconciliador struct {
	cfg        ReconciliacionConfig
	reportadas map[string]bool
}

func NewReconciliador(cfg ReconciliacionConfig) *Reconciliador {
	return &Reconciliador{cfg: cfg, reportadas: make(map[string]bool)}
}

// Ejecutar runs one scan and queues the incidents not seen on the previous one.
func (r *Reconciliador) Ejecutar(ctx context.Context) []model.Incidencia {
	if r.cfg.CB != nil && r.cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("reconciliacion: circuit breaker is open, skipping tick")
		return nil
	}
	incidencias, err := Escanear(ctx, r.cfg.Lotes, r.cfg.Comandas)
	if err != nil {
		log.Error().Err(err).Msg("reconciliacion: scan failed")
		return nil
	}

	porTipo := make(map[model.TipoIncidencia]int)
	vigentes := make(map[string]bool, len(incidencias))
	nuevas := 0
	for _, inc := range incidencias {
		porTipo[inc.Tipo]++
		k := claveIncidencia(inc)
		vigentes[k] = true
		if r.reportadas[k] {
			continue
		}
		nuevas++
		if r.cfg.Notificador != nil {
			r.cfg.Notificador.Registrar(ctx, inc)
		}
	}
	r.reportadas = vigentes
	for _, tipo := range model.TiposIncidencia {
		if tipo == model.IncidenciaEscrituraParcial {
			continue
		}
		r.cfg.Metrics.SetIncidencias(string(tipo), porTipo[tipo])
	}
	if len(incidencias) > 0 {
		log.Warn().Int("total", len(incidencias)).Int("nuevas", nuevas).Msg("reconciliacion: inconsistencias detectadas")
	}
	return incidencias
}

func claveIncidencia(inc model.Incidencia) string {
	return fmt.Sprintf("%s|%s|%s", inc.Tipo, inc.NumeroLote, inc.IDComanda)
}

// Escanear compares both lot stores with the open comandas.
func Escanear(ctx context.Context, lotesRepo repository.LoteRepository, comandasRepo repository.ComandaRepository) ([]model.Incidencia, error) {
	activos, errActivos := lotesRepo.List(ctx, model.AlmacenActivo, "")
	historial, errHistorial := lotesRepo.List(ctx, model.AlmacenHistorial, "")
	abiertas, errComandas := comandasRepo.List(ctx, true)
	if err := multierr.Combine(errActivos, errHistorial, errComandas); err != nil {
		return nil, err
	}

	ahora := time.Now().UTC()
	var out []model.Incidencia

	porNumero := make(map[string]*model.Lote, len(activos))
	copias := make(map[string]int, len(activos))
	for i := range activos {
		porNumero[activos[i].Numero] = &activos[i]
		copias[activos[i].Numero]++
	}
	for i := range historial {
		copias[historial[i].Numero]++
	}
	for numero, n := range copias {
		if n > 1 {
			out = append(out, model.Incidencia{
				Tipo:       model.IncidenciaLoteDuplicado,
				NumeroLote: numero,
				Detalle:    fmt.Sprintf("el lote %s tiene %d copias entre lotes e historial", numero, n),
				Fecha:      ahora,
			})
		}
	}

	apuntados := make(map[string]bool, len(abiertas))
	for _, c := range abiertas {
		if !c.Asignada() {
			continue
		}
		apuntados[c.NumeroLote] = true
		l := porNumero[c.NumeroLote]
		var detalle string
		switch {
		case l == nil:
			detalle = fmt.Sprintf("la comanda %d apunta al lote %s que no esta en lotes", c.Numero, c.NumeroLote)
		case l.Reserva == nil:
			detalle = fmt.Sprintf("la comanda %d apunta al lote %s que no tiene reserva", c.Numero, c.NumeroLote)
		case !l.ReservadoPara(c.Cliente):
			detalle = fmt.Sprintf("la comanda %d es de %s pero el lote %s esta reservado para %s", c.Numero, c.Cliente, l.Numero, l.Reserva.Cliente)
		case !l.Reserva.FechaReserva.Equal(c.FechaReserva):
			detalle = fmt.Sprintf("la fecha de la comanda %d no coincide con la reserva del lote %s", c.Numero, l.Numero)
		default:
			continue
		}
		out = append(out, model.Incidencia{
			Tipo:       model.IncidenciaParDesalineado,
			NumeroLote: c.NumeroLote,
			IDComanda:  c.ID,
			Detalle:    detalle,
			Fecha:      ahora,
		})
	}

	for i := range activos {
		l := &activos[i]
		if l.Reserva != nil && !apuntados[l.Numero] {
			out = append(out, model.Incidencia{
				Tipo:       model.IncidenciaReservaHuerfana,
				NumeroLote: l.Numero,
				Detalle:    fmt.Sprintf("el lote %s esta reservado para %s sin comanda abierta", l.Numero, l.Reserva.Cliente),
				Fecha:      ahora,
			})
		}
	}
	return out, nil
}
