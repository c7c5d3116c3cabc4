// Package migration manages the database schema. Migrations are
// embedded statements applied in version order and tracked in a
// schema_migrations table with checksums.
package migration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/jmoiron/sqlx"

	"topowave/internal"
)

type migration struct {
	Version   string
	Statement string
}

var migrations = []migration{
	{
		Version: "001_create_detection_runs",
		Statement: `
		CREATE TABLE IF NOT EXISTS detection_runs (
			id UUID PRIMARY KEY,
			generator_config JSONB NOT NULL,
			pipeline_config JSONB NOT NULL,
			seed BIGINT NOT NULL,
			status TEXT NOT NULL,
			metrics JSONB,
			error_message TEXT,
			fingerprint TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			runtime_ms BIGINT NOT NULL DEFAULT 0
		)`,
	},
	{
		Version: "002_index_detection_runs",
		Statement: `
		CREATE INDEX IF NOT EXISTS idx_detection_runs_status ON detection_runs (status);
		CREATE INDEX IF NOT EXISTS idx_detection_runs_created_at ON detection_runs (created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_detection_runs_fingerprint ON detection_runs (fingerprint)`,
	},
}

// Migrator applies schema migrations.
type Migrator struct {
	db     *sqlx.DB
	logger *internal.Logger
}

// NewMigrator creates a new migrator.
func NewMigrator(db *sqlx.DB, logger *internal.Logger) *Migrator {
	return &Migrator{db: db, logger: logger.With("migrate")}
}

// Up executes all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}

	for _, mig := range migrations {
		sum := checksum(mig.Statement)
		if existing, ok := applied[mig.Version]; ok {
			if existing != sum {
				return fmt.Errorf("migration %s was modified after being applied", mig.Version)
			}
			continue
		}
		if err := m.apply(ctx, mig, sum); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", mig.Version, err)
		}
		m.logger.Info("applied migration %s", mig.Version)
	}
	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version, checksum FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]string)
	for rows.Next() {
		var version, sum string
		if err := rows.Scan(&version, &sum); err != nil {
			return nil, err
		}
		applied[version] = sum
	}
	return applied, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, mig migration, sum string) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, mig.Statement); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, checksum) VALUES ($1, $2)`,
		mig.Version, sum); err != nil {
		return err
	}
	return tx.Commit()
}

func checksum(statement string) string {
	sum := sha256.Sum256([]byte(statement))
	return hex.EncodeToString(sum[:])
}
