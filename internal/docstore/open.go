package docstore

import (
	"context"
	"fmt"

	"gmrstock/internal/config"
	"gmrstock/internal/infra"

	"github.com/rs/zerolog/log"
)

// Open connects the backend named by cfg.StoreDriver. The returned close
// function releases the connection and is never nil.
func Open(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		db, err := infra.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}
		return NewMongoStore(db), closeFn, nil

	case config.DriverPostgres:
		db, err := infra.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := NewGormStore(db)
		if err := store.Migrate(); err != nil {
			return nil, nil, fmt.Errorf("migrate documentos: %w", err)
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return store, closeFn, nil

	case config.DriverMemory:
		log.Warn().Msg("using in-memory document store, data is lost on exit")
		return NewMemoryStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
