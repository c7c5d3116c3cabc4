package excel

import (
	"path/filepath"
	"testing"

	"topowave/domain/run"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRuns(t *testing.T) []*run.DetectionRun {
	t.Helper()
	gen := run.GeneratorConfig{SignalCount: 200, SampleCount: 2048, SNRMin: 0.075, SNRMax: 0.65, SNRSteps: 10}
	pipe := run.PipelineConfig{EmbeddingDimension: 30, EmbeddingDelay: 30, EmbeddingStride: 5, HomologyDimensions: []int{0, 1}, PCAComponents: 3, Workers: 4}

	completed, err := run.NewDetectionRun(gen, pipe, 42)
	require.NoError(t, err)
	completed.Complete(run.Metrics{Accuracy: 0.9, ROCAUC: 0.95, TrainSize: 160, TestSize: 40, Positives: 21, Negatives: 19}, 1500)

	failed, err := run.NewDetectionRun(gen, pipe, 7)
	require.NoError(t, err)
	failed.Fail("generator: invalid SNR range")

	return []*run.DetectionRun{completed, failed}
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	runs := sampleRuns(t)

	require.NoError(t, NewReportWriter().Write(runs, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Runs")
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per run")
	assert.Equal(t, "Run ID", rows[0][0])
	assert.Equal(t, runs[0].ID.String(), rows[1][0])
	assert.Equal(t, "completed", rows[1][1])
	assert.Equal(t, "failed", rows[2][1])

	config, err := f.GetRows("Configuration")
	require.NoError(t, err)
	require.Len(t, config, 3)
	assert.Equal(t, "200", config[1][1])
}

func TestWriteEmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, NewReportWriter().Write(nil, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Runs")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
