package ports

import (
	"context"

	"topowave/domain/core"
	"topowave/domain/run"
)

// RunRepository defines the interface for detection-run persistence
type RunRepository interface {
	// Create inserts a new detection run
	Create(ctx context.Context, r *run.DetectionRun) error

	// GetByID retrieves a run by its ID
	GetByID(ctx context.Context, id core.RunID) (*run.DetectionRun, error)

	// List returns runs ordered by creation time, newest first.
	// A limit of zero or less returns all runs.
	List(ctx context.Context, limit, offset int) ([]*run.DetectionRun, error)

	// ListByStatus returns runs in a given lifecycle state
	ListByStatus(ctx context.Context, status run.Status) ([]*run.DetectionRun, error)

	// Update replaces the stored run (status, metrics, timestamps)
	Update(ctx context.Context, r *run.DetectionRun) error

	// UpdateStatus updates only the status and error message of a run
	UpdateStatus(ctx context.Context, id core.RunID, status run.Status, errorMsg string) error

	// Delete removes a run
	Delete(ctx context.Context, id core.RunID) error
}
