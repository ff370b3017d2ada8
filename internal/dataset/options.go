package dataset

import (
	"evdash/adapters/excel"
	"evdash/domain/dataset"
	"evdash/internal/config"

	"go.uber.org/zap"
)

// OptionsFrom maps configuration onto loader options
func OptionsFrom(cfg *config.Config, logger *zap.Logger) Options {
	return Options{
		Columns: dataset.ColumnMap{
			Region:        cfg.Columns.Region,
			Registrations: cfg.Columns.Registrations,
			Chargers:      cfg.Columns.Chargers,
			SlowChargers:  cfg.Columns.SlowChargers,
			FastChargers:  cfg.Columns.FastChargers,
			Date:          cfg.Columns.Date,
		},
		Reader: excel.ReaderConfig{
			Sheet:    cfg.Data.Sheet,
			Encoding: cfg.Data.Encoding,
		},
		DateLayouts: cfg.Data.DateLayouts,
		Logger:      logger,
	}
}
