package pipeline

import (
	"context"
	"time"

	"topowave/domain/core"
	"topowave/domain/diagram"
	"topowave/domain/run"
	"topowave/domain/signal"
	"topowave/internal"
	"topowave/internal/embedding"
	"topowave/internal/features"
	"topowave/internal/homology"

	apperrors "topowave/internal/errors"
)

// Topological is the front end of the detection pipeline: series in,
// diagram features out. The homology post-processing and diagram
// scaling carry batch-level state (the infinity cap and the scale
// factor), so the stage follows the fit/transform contract: FitFeatures
// learns that state from the training batch, Features applies it to
// later batches without looking at their composition.
type Topological struct {
	embedder   *embedding.Takens
	batchCfg   homology.BatchConfig
	extractors []features.Extractor
	scaler     *features.Scaler
	fitted     bool
	logger     *internal.Logger
}

// NewTopological wires the embedding, homology and feature stages from
// a run's pipeline parameters.
func NewTopological(cfg run.PipelineConfig, logger *internal.Logger) *Topological {
	dims := cfg.HomologyDimensions
	if len(dims) == 0 {
		dims = []int{0, 1}
	}
	return &Topological{
		embedder: embedding.NewTakens(cfg.EmbeddingDimension, cfg.EmbeddingDelay, cfg.EmbeddingStride),
		batchCfg: homology.BatchConfig{
			Dimensions: dims,
			Workers:    cfg.Workers,
		},
		extractors: features.DefaultExtractors(),
		scaler:     features.NewScaler(),
		logger:     logger,
	}
}

// FeatureNames returns the column labels of the produced matrix.
func (t *Topological) FeatureNames() []string {
	return features.ColumnNames(t.extractors, t.batchCfg.Dimensions)
}

// FitFeatures learns the batch-level state from the training series and
// returns their feature matrix.
func (t *Topological) FitFeatures(ctx context.Context, series []signal.Series) ([][]float64, error) {
	start := time.Now()

	diagrams, err := t.computeDiagrams(ctx, series, 0)
	if err != nil {
		return nil, err
	}

	// The infinity cap is the largest finite death of the training
	// batch; PostProcess has already substituted it for every
	// essential death, so it is recoverable from the diagrams.
	infinity := 0.0
	for i := range diagrams {
		if m := diagrams[i].MaxDeath(); m > infinity {
			infinity = m
		}
	}
	t.batchCfg.InfinityValue = infinity

	scaled, err := t.scaler.FitTransform(diagrams)
	if err != nil {
		return nil, apperrors.PipelineError("diagram_scaling", err)
	}
	t.fitted = true

	matrix := features.BuildMatrix(scaled, t.batchCfg.Dimensions, t.extractors)
	t.logger.Info("topological fit: %d samples x %d columns in %s",
		len(matrix), len(t.FeatureNames()), time.Since(start).Round(time.Millisecond))
	return matrix, nil
}

// Features maps a batch of series to its feature matrix using the
// fitted state, so a series' row does not depend on its companions.
func (t *Topological) Features(ctx context.Context, series []signal.Series) ([][]float64, error) {
	if !t.fitted {
		return nil, core.ErrNotFitted
	}
	start := time.Now()

	diagrams, err := t.computeDiagrams(ctx, series, t.batchCfg.InfinityValue)
	if err != nil {
		return nil, err
	}
	scaled, err := t.scaler.Transform(diagrams)
	if err != nil {
		return nil, apperrors.PipelineError("diagram_scaling", err)
	}

	matrix := features.BuildMatrix(scaled, t.batchCfg.Dimensions, t.extractors)
	t.logger.Info("topological features: %d samples x %d columns in %s",
		len(matrix), len(t.FeatureNames()), time.Since(start).Round(time.Millisecond))
	return matrix, nil
}

func (t *Topological) computeDiagrams(ctx context.Context, series []signal.Series, infinity float64) ([]diagram.Diagram, error) {
	clouds, err := t.embedder.EmbedAll(series)
	if err != nil {
		return nil, apperrors.PipelineError("embedding", err)
	}
	if len(clouds) > 0 {
		t.logger.Debug("embedded %d series into clouds of %d points",
			len(series), len(clouds[0]))
	}

	cfg := t.batchCfg
	cfg.InfinityValue = infinity
	diagrams, err := homology.ComputeBatch(ctx, clouds, cfg)
	if err != nil {
		return nil, apperrors.PipelineError("homology", err)
	}
	return diagrams, nil
}

// Diagrams exposes the post-processed persistence diagrams of a batch,
// used by the preview endpoints. Previews are batch-local: the infinity
// cap comes from the batch itself.
func (t *Topological) Diagrams(ctx context.Context, series []signal.Series) ([]diagram.Diagram, error) {
	return t.computeDiagrams(ctx, series, 0)
}

// Embed exposes the raw point clouds, used by the embedding preview.
func (t *Topological) Embed(series []signal.Series) ([][][]float64, error) {
	return t.embedder.EmbedAll(series)
}
