// Package testkit provides in-memory fakes used by the CLI's
// no-database path and by tests.
package testkit

import (
	"context"
	"sort"
	"sync"

	"topowave/adapters/rng"
	"topowave/domain/core"
	"topowave/domain/run"
	"topowave/ports"
)

// TestKit bundles the in-memory fakes with the real RNG adapter.
type TestKit struct {
	runs *InMemoryRunRepository
}

// NewTestKit creates a new test kit instance.
func NewTestKit() *TestKit {
	return &TestKit{runs: NewInMemoryRunRepository()}
}

// RNGAdapter returns the production RNG adapter; randomness is already
// deterministic under seed, so tests run against the real implementation.
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return rng.NewAdapter()
}

// RunRepository returns the shared in-memory run repository.
func (t *TestKit) RunRepository() ports.RunRepository {
	return t.runs
}

// InMemoryRunRepository implements ports.RunRepository without a database.
type InMemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[core.RunID]*run.DetectionRun
}

// NewInMemoryRunRepository creates an empty repository.
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{runs: make(map[core.RunID]*run.DetectionRun)}
}

func (r *InMemoryRunRepository) Create(ctx context.Context, dr *run.DetectionRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *dr
	r.runs[dr.ID] = &cp
	return nil
}

func (r *InMemoryRunRepository) GetByID(ctx context.Context, id core.RunID) (*run.DetectionRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dr, ok := r.runs[id]
	if !ok {
		return nil, core.NewNotFoundError("run", id.String())
	}
	cp := *dr
	return &cp, nil
}

func (r *InMemoryRunRepository) List(ctx context.Context, limit, offset int) ([]*run.DetectionRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*run.DetectionRun, 0, len(r.runs))
	for _, dr := range r.runs {
		cp := *dr
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *InMemoryRunRepository) ListByStatus(ctx context.Context, status run.Status) ([]*run.DetectionRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*run.DetectionRun
	for _, dr := range r.runs {
		if dr.Status == status {
			cp := *dr
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRunRepository) Update(ctx context.Context, dr *run.DetectionRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[dr.ID]; !ok {
		return core.NewNotFoundError("run", dr.ID.String())
	}
	cp := *dr
	r.runs[dr.ID] = &cp
	return nil
}

func (r *InMemoryRunRepository) UpdateStatus(ctx context.Context, id core.RunID, status run.Status, errorMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dr, ok := r.runs[id]
	if !ok {
		return core.NewNotFoundError("run", id.String())
	}
	dr.Status = status
	dr.ErrorMsg = errorMsg
	dr.UpdatedAt = core.Now()
	return nil
}

func (r *InMemoryRunRepository) Delete(ctx context.Context, id core.RunID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[id]; !ok {
		return core.NewNotFoundError("run", id.String())
	}
	delete(r.runs, id)
	return nil
}
