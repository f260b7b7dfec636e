// cmd/seedlotes/main.go: loads demo lots and comandas into the configured store.
// Uso: STORE_DRIVER=mongo go run ./cmd/seedlotes
package main

import (
	"context"
	"errors"
	"strings"
	"time"

	"gmrstock/internal/apierror"
	"gmrstock/internal/config"
	"gmrstock/internal/docstore"
	"gmrstock/internal/dto"
	"gmrstock/internal/repository"
	"gmrstock/internal/service"
	"gmrstock/internal/worker"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	ctx := context.Background()

	store, closeStore, err := docstore.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open document store")
	}
	defer closeStore()

	if err := seed(ctx, store); err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	log.Info().Str("store", cfg.StoreDriver).Msg("datos de demo cargados")
}

func seed(ctx context.Context, store docstore.Store) error {
	loteRepo := repository.NewLoteRepository(store)
	comandaRepo := repository.NewComandaRepository(store)
	notif := worker.NewNotificadorRedis(nil)
	lotes := service.NewLoteService(loteRepo, nil, notif)
	reservas := service.NewReservaService(comandaRepo, lotes,
		service.NewStoreSecuencia(repository.NewContadorRepository(store), nil), nil, notif)

	demo := []dto.CrearLoteRequest{
		lote("L100", "PET", "Nave 1", "10", "15"),
		lote("L101", "PET", "Nave 1", "12,5", "12,5", "11"),
		lote("L200", "PEAD", "Nave 2", "20", "18,75"),
		lote("L300", "PP", "Patio", "25"),
	}
	for _, req := range demo {
		if _, err := lotes.Crear(ctx, req); err != nil {
			if apierror.CodeOf(err) == apierror.CodeConflict {
				log.Info().Str("numero_lote", req.Numero).Msg("lote ya existe, se omite")
				continue
			}
			return err
		}
		log.Info().Str("numero_lote", req.Numero).Msg("lote creado")
	}

	pendientes, err := reservas.ListarComandas(ctx, true)
	if err != nil {
		return err
	}
	if len(pendientes) > 0 {
		log.Info().Int("comandas", len(pendientes)).Msg("ya hay comandas pendientes, se omiten")
		return nil
	}
	c, err := reservas.CrearComanda(ctx, dto.CrearComandaRequest{
		Material:     "PET",
		Cliente:      "Acme",
		FechaReserva: time.Now().UTC().AddDate(0, 0, 7).Truncate(24 * time.Hour),
		PesoTotal:    "25",
	})
	if err != nil {
		return err
	}
	res, err := reservas.Asignar(ctx, c.ID, "L100", "seed")
	if err != nil {
		return err
	}
	if !res.Exito {
		return errors.New("asignar L100: " + strings.Join(res.Advertencias, "; "))
	}
	log.Info().Int64("comanda", c.Numero).Str("numero_lote", "L100").Msg("comanda de demo asignada")
	return nil
}

func lote(numero, material, ubicacion string, pesos ...string) dto.CrearLoteRequest {
	req := dto.CrearLoteRequest{Numero: numero, Descripcion: material, Ubicacion: ubicacion}
	for i, p := range pesos {
		req.BigBags = append(req.BigBags, dto.CrearBigBagRequest{
			Numero:    numero + "-" + string(rune('A'+i)),
			Peso:      p,
			Ubicacion: ubicacion,
		})
	}
	return req
}
