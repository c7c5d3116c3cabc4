// Package postgres persists detection runs in PostgreSQL through sqlx.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"topowave/domain/core"
	"topowave/domain/run"
	"topowave/ports"

	"github.com/jmoiron/sqlx"
)

// RunRepositoryImpl implements ports.RunRepository for PostgreSQL.
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a new PostgreSQL run repository.
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

type runRow struct {
	ID          string         `db:"id"`
	Generator   []byte         `db:"generator_config"`
	Pipeline    []byte         `db:"pipeline_config"`
	Seed        int64          `db:"seed"`
	Status      string         `db:"status"`
	Metrics     []byte         `db:"metrics"`
	ErrorMsg    sql.NullString `db:"error_message"`
	Fingerprint string         `db:"fingerprint"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
	RuntimeMs   int64          `db:"runtime_ms"`
}

func toRow(dr *run.DetectionRun) (*runRow, error) {
	genJSON, err := json.Marshal(dr.Generator)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize generator config: %w", err)
	}
	pipeJSON, err := json.Marshal(dr.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize pipeline config: %w", err)
	}
	var metricsJSON []byte
	if dr.Metrics != nil {
		metricsJSON, err = json.Marshal(dr.Metrics)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize metrics: %w", err)
		}
	}
	return &runRow{
		ID:          dr.ID.String(),
		Generator:   genJSON,
		Pipeline:    pipeJSON,
		Seed:        dr.Seed,
		Status:      string(dr.Status),
		Metrics:     metricsJSON,
		ErrorMsg:    sql.NullString{String: dr.ErrorMsg, Valid: dr.ErrorMsg != ""},
		Fingerprint: dr.Fingerprint.String(),
		RuntimeMs:   dr.RuntimeMs,
	}, nil
}

func fromRow(row *runRow) (*run.DetectionRun, error) {
	id, err := core.ParseRunID(row.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt run id %q: %w", row.ID, err)
	}
	dr := &run.DetectionRun{
		ID:          id,
		Seed:        row.Seed,
		Status:      run.Status(row.Status),
		ErrorMsg:    row.ErrorMsg.String,
		Fingerprint: core.Fingerprint(row.Fingerprint),
		RuntimeMs:   row.RuntimeMs,
	}
	if err := json.Unmarshal(row.Generator, &dr.Generator); err != nil {
		return nil, fmt.Errorf("corrupt generator config for run %s: %w", row.ID, err)
	}
	if err := json.Unmarshal(row.Pipeline, &dr.Pipeline); err != nil {
		return nil, fmt.Errorf("corrupt pipeline config for run %s: %w", row.ID, err)
	}
	if len(row.Metrics) > 0 {
		var m run.Metrics
		if err := json.Unmarshal(row.Metrics, &m); err != nil {
			return nil, fmt.Errorf("corrupt metrics for run %s: %w", row.ID, err)
		}
		dr.Metrics = &m
	}
	if row.CreatedAt.Valid {
		dr.CreatedAt = core.Timestamp(row.CreatedAt.Time)
	}
	if row.UpdatedAt.Valid {
		dr.UpdatedAt = core.Timestamp(row.UpdatedAt.Time)
	}
	return dr, nil
}

// Create inserts a new run record.
func (r *RunRepositoryImpl) Create(ctx context.Context, dr *run.DetectionRun) error {
	row, err := toRow(dr)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO detection_runs (
			id, generator_config, pipeline_config, seed, status,
			metrics, error_message, fingerprint, created_at, updated_at, runtime_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW(), $9)`,
		row.ID, row.Generator, row.Pipeline, row.Seed, row.Status,
		row.Metrics, row.ErrorMsg, row.Fingerprint, row.RuntimeMs)
	return err
}

// GetByID fetches one run.
func (r *RunRepositoryImpl) GetByID(ctx context.Context, id core.RunID) (*run.DetectionRun, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, generator_config, pipeline_config, seed, status,
		       metrics, error_message, fingerprint, created_at, updated_at, runtime_ms
		FROM detection_runs WHERE id = $1`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("run", id.String())
	}
	if err != nil {
		return nil, err
	}
	return fromRow(&row)
}

// List returns runs most recent first. A non-positive limit returns
// every run, matching the port contract relied on by the exporters.
func (r *RunRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*run.DetectionRun, error) {
	if offset < 0 {
		offset = 0
	}
	var rows []runRow
	var err error
	if limit > 0 {
		err = r.db.SelectContext(ctx, &rows, `
			SELECT id, generator_config, pipeline_config, seed, status,
			       metrics, error_message, fingerprint, created_at, updated_at, runtime_ms
			FROM detection_runs
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2`, limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &rows, `
			SELECT id, generator_config, pipeline_config, seed, status,
			       metrics, error_message, fingerprint, created_at, updated_at, runtime_ms
			FROM detection_runs
			ORDER BY created_at DESC
			OFFSET $1`, offset)
	}
	if err != nil {
		return nil, err
	}
	return rowsToRuns(rows)
}

// ListByStatus returns runs in one lifecycle state, most recent first.
func (r *RunRepositoryImpl) ListByStatus(ctx context.Context, status run.Status) ([]*run.DetectionRun, error) {
	var rows []runRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, generator_config, pipeline_config, seed, status,
		       metrics, error_message, fingerprint, created_at, updated_at, runtime_ms
		FROM detection_runs
		WHERE status = $1
		ORDER BY created_at DESC`, string(status))
	if err != nil {
		return nil, err
	}
	return rowsToRuns(rows)
}

func rowsToRuns(rows []runRow) ([]*run.DetectionRun, error) {
	out := make([]*run.DetectionRun, 0, len(rows))
	for i := range rows {
		dr, err := fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, dr)
	}
	return out, nil
}

// Update rewrites the mutable fields of a run.
func (r *RunRepositoryImpl) Update(ctx context.Context, dr *run.DetectionRun) error {
	row, err := toRow(dr)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE detection_runs SET
			status = $2, metrics = $3, error_message = $4,
			updated_at = NOW(), runtime_ms = $5
		WHERE id = $1`,
		row.ID, row.Status, row.Metrics, row.ErrorMsg, row.RuntimeMs)
	if err != nil {
		return err
	}
	return requireRowAffected(result, dr.ID)
}

// UpdateStatus transitions a run's lifecycle state.
func (r *RunRepositoryImpl) UpdateStatus(ctx context.Context, id core.RunID, status run.Status, errorMsg string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE detection_runs SET status = $2, error_message = $3, updated_at = NOW()
		WHERE id = $1`,
		id.String(), string(status), sql.NullString{String: errorMsg, Valid: errorMsg != ""})
	if err != nil {
		return err
	}
	return requireRowAffected(result, id)
}

// Delete removes a run.
func (r *RunRepositoryImpl) Delete(ctx context.Context, id core.RunID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM detection_runs WHERE id = $1`, id.String())
	if err != nil {
		return err
	}
	return requireRowAffected(result, id)
}

func requireRowAffected(result sql.Result, id core.RunID) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.NewNotFoundError("run", id.String())
	}
	return nil
}
