package app

import (
	"context"

	"evdash/adapters/postgres"
	"evdash/internal/config"
	loader "evdash/internal/dataset"
)

// ConfiguredSource picks the data source from configuration: fixed files
// first, then PostgreSQL, then the demo fixture. It returns a nil source when
// nothing is configured and demo mode is off. closeFn releases resources.
func ConfiguredSource(ctx context.Context, cfg *config.Config, opts loader.Options) (src loader.Source, closeFn func(), err error) {
	closeFn = func() {}

	switch {
	case cfg.Data.EVFile != "":
		return loader.NewFileSource(cfg.Data.EVFile, cfg.Data.ChargerFile, opts), closeFn, nil

	case cfg.Database.URL != "":
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return nil, closeFn, err
		}
		repo, err := postgres.NewObservationRepository(db, cfg.Database.Table)
		if err != nil {
			db.Close()
			return nil, closeFn, err
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, closeFn, err
		}
		return postgres.NewSource(repo, "postgres "+cfg.Database.Table), func() { db.Close() }, nil

	case cfg.Data.Demo:
		demo, err := DemoSource(opts)
		return demo, closeFn, err
	}
	return nil, closeFn, nil
}
