package pipeline

import (
	"context"
	"math"
	"testing"

	"topowave/domain/core"
	"topowave/domain/run"
	"topowave/domain/signal"
	"topowave/internal"
	"topowave/internal/ml"
	"topowave/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder counts calls to verify fit/transform sequencing.
type recorder struct {
	name       string
	fits       int
	transforms int
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Fit(X [][]float64) error {
	r.fits++
	return nil
}

func (r *recorder) Transform(X [][]float64) ([][]float64, error) {
	r.transforms++
	out := make([][]float64, len(X))
	for i, row := range X {
		cp := make([]float64, len(row))
		copy(cp, row)
		for j := range cp {
			cp[j]++
		}
		out[i] = cp
	}
	return out, nil
}

func TestPipelineFitThenTransformSequencing(t *testing.T) {
	a := &recorder{name: "a"}
	b := &recorder{name: "b"}
	p := New("test", a, b)

	X := [][]float64{{0}, {10}}
	require.NoError(t, p.Fit(X))

	// Fit transforms each stage once to feed the next.
	assert.Equal(t, 1, a.fits)
	assert.Equal(t, 1, a.transforms)
	assert.Equal(t, 1, b.fits)

	out, err := p.Transform(X)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2}, {12}}, out)
	assert.Equal(t, []string{"a", "b"}, p.Stages())
}

func TestPipelineNotFitted(t *testing.T) {
	p := New("test", &recorder{name: "a"})
	_, err := p.Transform([][]float64{{1}})
	assert.ErrorIs(t, err, core.ErrNotFitted)
}

func TestPipelineWithRealStages(t *testing.T) {
	p := New("tail", ml.NewStandardScaler(), ml.NewPCA(2))

	X := [][]float64{
		{1, 2, 3}, {4, 5, 6}, {7, 8, 10}, {2, 1, 0}, {9, 9, 9},
	}
	out, err := ports.FitTransform(p, X)
	require.NoError(t, err)
	require.Len(t, out, 5)
	for _, row := range out {
		require.Len(t, row, 2)
	}
}

func testPipelineConfig() run.PipelineConfig {
	return run.PipelineConfig{
		EmbeddingDimension: 3,
		EmbeddingDelay:     5,
		EmbeddingStride:    2,
		HomologyDimensions: []int{0, 1},
		PCAComponents:      2,
		Workers:            2,
	}
}

func sineSeries(n int, period float64) signal.Series {
	s := make(signal.Series, n)
	for i := range s {
		s[i] = math.Sin(2 * math.Pi * float64(i) / period)
	}
	return s
}

func TestTopologicalFeaturesShape(t *testing.T) {
	top := NewTopological(testPipelineConfig(), internal.NewLogger(internal.LogLevelError))

	batch := []signal.Series{
		sineSeries(120, 20),
		sineSeries(120, 33),
		sineSeries(120, 47),
	}
	matrix, err := top.FitFeatures(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, matrix, 3)

	names := top.FeatureNames()
	for _, row := range matrix {
		assert.Len(t, row, len(names))
	}
	assert.Contains(t, names, "persistence_entropy_h0")
	assert.Contains(t, names, "persistence_entropy_h1")
}

func TestTopologicalDeterministic(t *testing.T) {
	cfg := testPipelineConfig()
	logger := internal.NewLogger(internal.LogLevelError)
	batch := []signal.Series{sineSeries(100, 25), sineSeries(100, 13)}

	a, err := NewTopological(cfg, logger).FitFeatures(context.Background(), batch)
	require.NoError(t, err)
	b, err := NewTopological(cfg, logger).FitFeatures(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestTopologicalSeriesTooShort(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.EmbeddingDimension = 50
	cfg.EmbeddingDelay = 50
	top := NewTopological(cfg, internal.NewLogger(internal.LogLevelError))

	_, err := top.FitFeatures(context.Background(), []signal.Series{sineSeries(100, 10)})
	assert.ErrorIs(t, err, core.ErrSeriesTooShort)
}

func TestTopologicalFeaturesRequireFit(t *testing.T) {
	top := NewTopological(testPipelineConfig(), internal.NewLogger(internal.LogLevelError))

	_, err := top.Features(context.Background(), []signal.Series{sineSeries(100, 25)})
	assert.ErrorIs(t, err, core.ErrNotFitted)
}

func TestTopologicalTransformIgnoresBatchCompanions(t *testing.T) {
	cfg := testPipelineConfig()
	logger := internal.NewLogger(internal.LogLevelError)

	train := []signal.Series{sineSeries(120, 20), sineSeries(120, 33), sineSeries(120, 47)}
	target := sineSeries(120, 25)

	// A much larger companion stretches the batch's filtration scale.
	large := make(signal.Series, 120)
	for i := range large {
		large[i] = 60 * math.Sin(2*math.Pi*float64(i)/40)
	}

	top := NewTopological(cfg, logger)
	_, err := top.FitFeatures(context.Background(), train)
	require.NoError(t, err)

	alone, err := top.Features(context.Background(), []signal.Series{target})
	require.NoError(t, err)
	accompanied, err := top.Features(context.Background(), []signal.Series{target, large})
	require.NoError(t, err)

	// The fitted infinity cap and diagram scale come from training, so
	// a series' feature row must not depend on its batch companions.
	assert.Equal(t, alone[0], accompanied[0])
}

func TestTopologicalDiagramsRectangular(t *testing.T) {
	top := NewTopological(testPipelineConfig(), internal.NewLogger(internal.LogLevelError))
	batch := []signal.Series{sineSeries(110, 18), sineSeries(110, 29)}

	diagrams, err := top.Diagrams(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, diagrams, 2)
	assert.Equal(t, len(diagrams[0].ForDimension(0)), len(diagrams[1].ForDimension(0)))
	assert.Equal(t, len(diagrams[0].ForDimension(1)), len(diagrams[1].ForDimension(1)))
}
