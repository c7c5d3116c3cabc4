package app

import (
	"context"
	"testing"

	"topowave/domain/run"
	"topowave/internal"
	"topowave/internal/gw"
	"topowave/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(kit *testkit.TestKit) *DetectionService {
	cfg := DefaultClassifierConfig()
	cfg.Epochs = 50
	return NewDetectionService(
		gw.NewGenerator(kit.RNGAdapter()),
		kit.RunRepository(),
		kit.RNGAdapter(),
		cfg,
		internal.NewLogger(internal.LogLevelError),
	)
}

func smallGenConfig() run.GeneratorConfig {
	return run.GeneratorConfig{
		SignalCount: 40,
		SampleCount: 160,
		SNRMin:      0.3,
		SNRMax:      0.9,
		SNRSteps:    5,
	}
}

func smallPipeConfig() run.PipelineConfig {
	return run.PipelineConfig{
		EmbeddingDimension: 3,
		EmbeddingDelay:     4,
		EmbeddingStride:    4,
		HomologyDimensions: []int{0, 1},
		PCAComponents:      2,
		Workers:            2,
	}
}

func TestExecuteCompletesRun(t *testing.T) {
	kit := testkit.NewTestKit()
	svc := testService(kit)

	dr, err := svc.Execute(context.Background(), smallGenConfig(), smallPipeConfig(), 42)
	require.NoError(t, err)

	assert.Equal(t, run.StatusCompleted, dr.Status)
	require.NotNil(t, dr.Metrics)
	assert.GreaterOrEqual(t, dr.Metrics.Accuracy, 0.0)
	assert.LessOrEqual(t, dr.Metrics.Accuracy, 1.0)
	assert.GreaterOrEqual(t, dr.Metrics.ROCAUC, 0.0)
	assert.LessOrEqual(t, dr.Metrics.ROCAUC, 1.0)
	assert.Equal(t, 40, dr.Metrics.TrainSize+dr.Metrics.TestSize)
	assert.Greater(t, dr.Metrics.Positives, 0)
	assert.Greater(t, dr.Metrics.Negatives, 0)

	// Persisted with the final state.
	stored, err := svc.GetRun(context.Background(), dr.ID.String())
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, stored.Status)
	require.NotNil(t, stored.Metrics)
	assert.Equal(t, dr.Metrics.Accuracy, stored.Metrics.Accuracy)
}

func TestExecuteSameSeedSameFingerprint(t *testing.T) {
	kit := testkit.NewTestKit()
	svc := testService(kit)
	ctx := context.Background()

	a, err := svc.Execute(ctx, smallGenConfig(), smallPipeConfig(), 42)
	require.NoError(t, err)
	b, err := svc.Execute(ctx, smallGenConfig(), smallPipeConfig(), 42)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Fingerprint, b.Fingerprint)
	require.NotNil(t, b.Metrics)
	assert.Equal(t, a.Metrics.Accuracy, b.Metrics.Accuracy)
	assert.Equal(t, a.Metrics.ROCAUC, b.Metrics.ROCAUC)

	c, err := svc.Execute(ctx, smallGenConfig(), smallPipeConfig(), 7)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint, c.Fingerprint)
}

func TestExecuteFailurePersisted(t *testing.T) {
	kit := testkit.NewTestKit()
	svc := testService(kit)

	bad := smallGenConfig()
	bad.SNRMin = 2.0
	bad.SNRMax = 0.1

	dr, err := svc.Execute(context.Background(), bad, smallPipeConfig(), 42)
	require.Error(t, err)
	require.NotNil(t, dr)
	assert.Equal(t, run.StatusFailed, dr.Status)
	assert.NotEmpty(t, dr.ErrorMsg)

	stored, getErr := svc.GetRun(context.Background(), dr.ID.String())
	require.NoError(t, getErr)
	assert.Equal(t, run.StatusFailed, stored.Status)
}

func TestListRunsMostRecentFirst(t *testing.T) {
	kit := testkit.NewTestKit()
	svc := testService(kit)
	ctx := context.Background()

	_, err := svc.Execute(ctx, smallGenConfig(), smallPipeConfig(), 1)
	require.NoError(t, err)
	second, err := svc.Execute(ctx, smallGenConfig(), smallPipeConfig(), 2)
	require.NoError(t, err)

	runs, err := svc.ListRuns(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
}

func TestEmbeddingPreview(t *testing.T) {
	kit := testkit.NewTestKit()
	svc := testService(kit)

	cloud, err := svc.EmbeddingPreview(context.Background(), smallGenConfig(), smallPipeConfig(), 42, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, cloud)
	assert.Len(t, cloud[0], 3)

	_, err = svc.EmbeddingPreview(context.Background(), smallGenConfig(), smallPipeConfig(), 42, 999)
	assert.Error(t, err)
}

func TestDiagramPreview(t *testing.T) {
	kit := testkit.NewTestKit()
	svc := testService(kit)

	preview, err := svc.DiagramPreview(context.Background(), smallGenConfig(), smallPipeConfig(), 42, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, preview.Diagram.Points)

	dims := preview.Diagram.Dimensions()
	assert.Contains(t, dims, 0)
}

func TestGetRunInvalidID(t *testing.T) {
	kit := testkit.NewTestKit()
	svc := testService(kit)
	_, err := svc.GetRun(context.Background(), "not-a-uuid")
	assert.Error(t, err)
}

func TestSuggestEmbeddingParams(t *testing.T) {
	kit := testkit.NewTestKit()
	svc := testService(kit)
	ctx := context.Background()

	delay, dimension, err := svc.SuggestEmbeddingParams(ctx, smallGenConfig(), 42)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, delay, 1)
	assert.GreaterOrEqual(t, dimension, 1)

	delay2, dimension2, err := svc.SuggestEmbeddingParams(ctx, smallGenConfig(), 42)
	require.NoError(t, err)
	assert.Equal(t, delay, delay2)
	assert.Equal(t, dimension, dimension2)
}

func TestInvalidMetricsMarkRunFailed(t *testing.T) {
	kit := testkit.NewTestKit()
	svc := testService(kit)
	ctx := context.Background()

	dr, err := run.NewDetectionRun(smallGenConfig(), smallPipeConfig(), 42)
	require.NoError(t, err)
	require.NoError(t, kit.RunRepository().Create(ctx, dr))

	bad := &run.Metrics{Accuracy: 1.5, ROCAUC: 0.5, TrainSize: 8, TestSize: 2}
	out, err := svc.finishRun(ctx, dr, bad, 10)
	require.Error(t, err)
	require.NotNil(t, out)
	assert.Equal(t, run.StatusFailed, out.Status)
	assert.NotEmpty(t, out.ErrorMsg)

	// The stored run must not be left in the running state.
	stored, getErr := svc.GetRun(ctx, dr.ID.String())
	require.NoError(t, getErr)
	assert.Equal(t, run.StatusFailed, stored.Status)
}
