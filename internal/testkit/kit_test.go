package testkit

import (
	"context"
	"testing"

	"topowave/domain/core"
	"topowave/domain/run"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRun(t *testing.T, seed int64) *run.DetectionRun {
	t.Helper()
	dr, err := run.NewDetectionRun(
		run.GeneratorConfig{SignalCount: 10, SampleCount: 64, SNRMin: 0.1, SNRMax: 0.5, SNRSteps: 3},
		run.PipelineConfig{EmbeddingDimension: 3, EmbeddingDelay: 2, EmbeddingStride: 1, HomologyDimensions: []int{0}, PCAComponents: 2, Workers: 1},
		seed,
	)
	require.NoError(t, err)
	return dr
}

func TestListNoLimitReturnsEveryRun(t *testing.T) {
	repo := NewInMemoryRunRepository()
	ctx := context.Background()

	const total = 60
	for i := 0; i < total; i++ {
		require.NoError(t, repo.Create(ctx, newRun(t, int64(i))))
	}

	// Exporters request everything with a non-positive limit.
	all, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, total)

	page, err := repo.List(ctx, 50, 0)
	require.NoError(t, err)
	assert.Len(t, page, 50)
}

func TestInMemoryRepositoryLifecycle(t *testing.T) {
	repo := NewInMemoryRunRepository()
	ctx := context.Background()
	dr := newRun(t, 42)

	require.NoError(t, repo.Create(ctx, dr))

	fetched, err := repo.GetByID(ctx, dr.ID)
	require.NoError(t, err)
	assert.Equal(t, dr.ID, fetched.ID)
	assert.Equal(t, run.StatusPending, fetched.Status)

	// Stored copy is isolated from later mutation of the original.
	dr.Status = run.StatusRunning
	fetched, err = repo.GetByID(ctx, dr.ID)
	require.NoError(t, err)
	assert.Equal(t, run.StatusPending, fetched.Status)

	require.NoError(t, repo.Update(ctx, dr))
	fetched, err = repo.GetByID(ctx, dr.ID)
	require.NoError(t, err)
	assert.Equal(t, run.StatusRunning, fetched.Status)

	require.NoError(t, repo.UpdateStatus(ctx, dr.ID, run.StatusFailed, "boom"))
	fetched, err = repo.GetByID(ctx, dr.ID)
	require.NoError(t, err)
	assert.Equal(t, run.StatusFailed, fetched.Status)
	assert.Equal(t, "boom", fetched.ErrorMsg)

	require.NoError(t, repo.Delete(ctx, dr.ID))
	_, err = repo.GetByID(ctx, dr.ID)
	assert.True(t, core.IsNotFoundError(err))
}

func TestInMemoryRepositoryListFilters(t *testing.T) {
	repo := NewInMemoryRunRepository()
	ctx := context.Background()

	first := newRun(t, 1)
	second := newRun(t, 2)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.UpdateStatus(ctx, second.ID, run.StatusCompleted, ""))

	all, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	completed, err := repo.ListByStatus(ctx, run.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, second.ID, completed[0].ID)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	empty, err := repo.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRepositoryNotFoundPaths(t *testing.T) {
	repo := NewInMemoryRunRepository()
	ctx := context.Background()
	dr := newRun(t, 42)

	assert.Error(t, repo.Update(ctx, dr))
	assert.Error(t, repo.UpdateStatus(ctx, dr.ID, run.StatusFailed, ""))
	assert.Error(t, repo.Delete(ctx, dr.ID))
}
