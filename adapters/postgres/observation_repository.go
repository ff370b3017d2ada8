package postgres

import (
	"context"
	"database/sql"
	"time"

	"evdash/domain/core"
	"evdash/domain/dataset"
	"evdash/internal/errors"
	"evdash/internal/migration"

	"github.com/jmoiron/sqlx"
)

// observationRow is the database shape of an observation
type observationRow struct {
	ID            string       `db:"id"`
	Region        string       `db:"region"`
	Period        sql.NullTime `db:"period"`
	Registrations float64      `db:"registrations"`
	SlowChargers  float64      `db:"slow_chargers"`
	FastChargers  float64      `db:"fast_chargers"`
	Chargers      float64      `db:"chargers"`
	Position      int          `db:"position"`
}

func toRow(o dataset.Observation, position int) observationRow {
	return observationRow{
		ID:            core.NewID().String(),
		Region:        o.Region,
		Period:        sql.NullTime{Time: o.Period, Valid: o.HasPeriod()},
		Registrations: o.Registrations,
		SlowChargers:  o.SlowChargers,
		FastChargers:  o.FastChargers,
		Chargers:      o.Chargers,
		Position:      position,
	}
}

func (r observationRow) observation() dataset.Observation {
	o := dataset.Observation{
		Region:        r.Region,
		Registrations: r.Registrations,
		SlowChargers:  r.SlowChargers,
		FastChargers:  r.FastChargers,
		Chargers:      r.Chargers,
	}
	if r.Period.Valid {
		t := r.Period.Time
		o.Period = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	o.DeriveRatio()
	return o
}

// ObservationRepository stores merged observations in one table
type ObservationRepository struct {
	db     *sqlx.DB
	runner *migration.MigrationRunner
}

// NewObservationRepository creates a repository over table
func NewObservationRepository(db *sqlx.DB, table string) (*ObservationRepository, error) {
	runner, err := migration.NewRunner(table)
	if err != nil {
		return nil, err
	}
	return &ObservationRepository{db: db, runner: runner}, nil
}

// EnsureSchema creates the table and indexes if missing
func (r *ObservationRepository) EnsureSchema(ctx context.Context) error {
	return r.runner.Run(ctx, r.db)
}

// ReplaceAll swaps the table contents for obs in one transaction
func (r *ObservationRepository) ReplaceAll(ctx context.Context, obs []dataset.Observation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+r.runner.Table()); err != nil {
		return errors.DatabaseError("failed to clear observations", err)
	}

	stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO `+r.runner.Table()+` (
		id, region, period, registrations, slow_chargers, fast_chargers, chargers, position
	) VALUES (
		:id, :region, :period, :registrations, :slow_chargers, :fast_chargers, :chargers, :position
	)`)
	if err != nil {
		return errors.DatabaseError("failed to prepare insert", err)
	}
	defer stmt.Close()

	for i, o := range obs {
		if _, err := stmt.ExecContext(ctx, toRow(o, i)); err != nil {
			return errors.DatabaseError("failed to insert observation for "+o.Region, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit observations", err)
	}
	return nil
}

// List returns every observation in insertion order
func (r *ObservationRepository) List(ctx context.Context) ([]dataset.Observation, error) {
	var rows []observationRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, region, period, registrations, slow_chargers, fast_chargers, chargers, position
		FROM `+r.runner.Table()+`
		ORDER BY position
	`)
	if err != nil {
		return nil, errors.DatabaseError("failed to list observations", err)
	}

	out := make([]dataset.Observation, len(rows))
	for i, row := range rows {
		out[i] = row.observation()
	}
	return out, nil
}
