package migration

import (
	"context"
	"regexp"

	"evdash/internal/errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the observation table and its indexes
type MigrationRunner struct {
	version string
	table   string
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// ValidateTable rejects names that are not plain SQL identifiers
func ValidateTable(table string) error {
	if !tableName.MatchString(table) {
		return errors.ConfigInvalid("invalid table name: " + table)
	}
	return nil
}

// NewRunner creates a runner for the observations table
func NewRunner(table string) (*MigrationRunner, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	return &MigrationRunner{version: "1.0.0", table: table}, nil
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Table returns the quoted table identifier
func (r *MigrationRunner) Table() string {
	return pq.QuoteIdentifier(r.table)
}

// Run executes all migrations in order; each statement is idempotent
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createObservationsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create "+r.table+" table", err)
	}
	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("failed to create indexes", err)
	}
	return nil
}

// Statements returns the DDL Run executes
func (r *MigrationRunner) Statements() []string {
	t := r.Table()
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + t + ` (
			id UUID PRIMARY KEY,
			region TEXT NOT NULL,
			period DATE,
			registrations DOUBLE PRECISION NOT NULL DEFAULT 0,
			slow_chargers DOUBLE PRECISION NOT NULL DEFAULT 0,
			fast_chargers DOUBLE PRECISION NOT NULL DEFAULT 0,
			chargers DOUBLE PRECISION NOT NULL DEFAULT 0,
			position INTEGER NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS ` + pq.QuoteIdentifier("idx_"+r.table+"_region") + ` ON ` + t + ` (region)`,
		`CREATE INDEX IF NOT EXISTS ` + pq.QuoteIdentifier("idx_"+r.table+"_position") + ` ON ` + t + ` (position)`,
	}
}

func (r *MigrationRunner) createObservationsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, r.Statements()[0])
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range r.Statements()[1:] {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var _ Migrator = (*MigrationRunner)(nil)
