package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gmrstock/internal/config"
	"gmrstock/internal/docstore"
	"gmrstock/internal/infra"
	"gmrstock/internal/metrics"
	"gmrstock/internal/repository"
	"gmrstock/internal/router"
	"gmrstock/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// @title        GMR Stock API
// @version      1.0
// @description  Lotes de big bags, comandas, ventas y devoluciones.
// @BasePath     /
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: dev pretty, prod JSON
	zerolog.TimeFieldFormat = time.RFC3339
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rawStore, closeStore, err := docstore.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open document store")
	}
	defer closeStore()

	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: cfg.CBFailureThreshold,
		OpenTimeout:      cfg.CBOpenTimeout,
		IsFailure:        docstore.EsFalloTransporte,
	})
	store := docstore.ConBreaker(rawStore, cb)

	// Redis is optional: without it the sequence lives in the store and
	// incidents are only logged.
	var rdb *redis.Client
	if client, err := infra.NewRedis(cfg.RedisURL); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, continuing without it")
	} else {
		rdb = client
		defer rdb.Close()
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	notif := worker.NewNotificadorRedis(rdb)

	worker.StartReconciliacionCron(ctx, worker.ReconciliacionConfig{
		Lotes:       repository.NewLoteRepository(store),
		Comandas:    repository.NewComandaRepository(store),
		CB:          cb,
		Notificador: notif,
		Metrics:     m,
		Intervalo:   cfg.ReconciliacionIntervalo,
	})

	r := router.New(ctx, cfg, store, rdb, cb, m, notif)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("store", cfg.StoreDriver).Msgf("gmrstock listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
