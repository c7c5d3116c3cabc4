// Package app orchestrates detection runs: synthetic data generation,
// the topological pipeline, classification, and persistence of results.
package app

import (
	"context"
	"fmt"
	"time"

	"topowave/domain/core"
	"topowave/domain/diagram"
	"topowave/domain/run"
	"topowave/domain/signal"
	"topowave/internal"
	"topowave/internal/embedding"
	"topowave/internal/ml"
	"topowave/internal/pipeline"
	"topowave/ports"

	apperrors "topowave/internal/errors"
)

// ClassifierConfig holds the logistic-regression hyperparameters.
type ClassifierConfig struct {
	LearningRate float64
	Epochs       int
	BatchSize    int
	TestFraction float64
}

// DefaultClassifierConfig returns the hyperparameters used when a run
// does not override them.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		LearningRate: 0.1,
		Epochs:       300,
		BatchSize:    32,
		TestFraction: 0.2,
	}
}

// DetectionService executes and tracks detection runs.
type DetectionService struct {
	source     ports.SignalSource
	runs       ports.RunRepository
	rng        ports.RNGPort
	classifier ClassifierConfig
	logger     *internal.Logger
}

// NewDetectionService wires the service from its ports.
func NewDetectionService(source ports.SignalSource, runs ports.RunRepository, rng ports.RNGPort, classifier ClassifierConfig, logger *internal.Logger) *DetectionService {
	return &DetectionService{
		source:     source,
		runs:       runs,
		rng:        rng,
		classifier: classifier,
		logger:     logger,
	}
}

// Execute runs the full pipeline for the given configuration and
// persists the run through every state transition. The returned run is
// completed or failed, never pending.
func (s *DetectionService) Execute(ctx context.Context, gen run.GeneratorConfig, pipe run.PipelineConfig, seed int64) (*run.DetectionRun, error) {
	dr, err := run.NewDetectionRun(gen, pipe, seed)
	if err != nil {
		return nil, err
	}
	if err := s.runs.Create(ctx, dr); err != nil {
		return nil, apperrors.Wrap(err, "failed to create run record")
	}

	started := time.Now()
	dr.Status = run.StatusRunning
	if err := s.runs.Update(ctx, dr); err != nil {
		return nil, apperrors.Wrap(err, "failed to mark run running")
	}
	s.logger.Info("run %s started (signals=%d, seed=%d, fingerprint=%s)",
		dr.ID, gen.SignalCount, seed, dr.Fingerprint.Short())

	metrics, err := s.execute(ctx, dr)
	if err != nil {
		return s.failRun(ctx, dr, err)
	}
	return s.finishRun(ctx, dr, metrics, time.Since(started).Milliseconds())
}

// failRun persists the failed state and returns the run alongside the
// original error.
func (s *DetectionService) failRun(ctx context.Context, dr *run.DetectionRun, cause error) (*run.DetectionRun, error) {
	dr.Fail(cause.Error())
	if updateErr := s.runs.Update(ctx, dr); updateErr != nil {
		s.logger.Error("run %s: failed to persist failure: %v", dr.ID, updateErr)
	}
	return dr, cause
}

// finishRun completes the run, validates its metrics and persists the
// outcome. Invalid metrics mark the run failed rather than leaving it
// stuck in the running state.
func (s *DetectionService) finishRun(ctx context.Context, dr *run.DetectionRun, metrics *run.Metrics, runtimeMs int64) (*run.DetectionRun, error) {
	dr.Complete(*metrics, runtimeMs)
	if err := dr.Validate(); err != nil {
		return s.failRun(ctx, dr, err)
	}
	if err := s.runs.Update(ctx, dr); err != nil {
		return nil, apperrors.Wrap(err, "failed to persist run result")
	}
	s.logger.Info("run %s completed: accuracy=%.3f auc=%.3f (%dms)",
		dr.ID, metrics.Accuracy, metrics.ROCAUC, dr.RuntimeMs)
	return dr, nil
}

func (s *DetectionService) execute(ctx context.Context, dr *run.DetectionRun) (*run.Metrics, error) {
	set, err := s.source.Generate(ctx, dr.Generator, dr.Seed)
	if err != nil {
		return nil, err
	}

	// Streams key on the fingerprint, not the run ID: two runs with the
	// same config and seed must produce identical metrics.
	splitRNG, err := s.rng.Stream(ctx, dr.Fingerprint.String(), "split", dr.Seed)
	if err != nil {
		return nil, err
	}

	// Split the raw series before any fitted stage sees them, so the
	// topological state (infinity cap, diagram scale) learns from the
	// training half only.
	labels := set.LabelsFloat()
	trainIdx, testIdx, err := ml.StratifiedIndices(labels, s.classifier.TestFraction, splitRNG)
	if err != nil {
		return nil, err
	}
	trainSeries, yTrain := pickSeries(set.Noisy, labels, trainIdx)
	testSeries, yTest := pickSeries(set.Noisy, labels, testIdx)

	top := pipeline.NewTopological(dr.Pipeline, s.logger)
	trainFeatures, err := top.FitFeatures(ctx, trainSeries)
	if err != nil {
		return nil, err
	}
	testFeatures, err := top.Features(ctx, testSeries)
	if err != nil {
		return nil, err
	}

	tail := pipeline.New("feature_tail",
		ml.NewStandardScaler(),
		ml.NewPCA(dr.Pipeline.PCAComponents),
	)
	if err := tail.Fit(trainFeatures); err != nil {
		return nil, err
	}
	xTrain, err := tail.Transform(trainFeatures)
	if err != nil {
		return nil, err
	}
	xTest, err := tail.Transform(testFeatures)
	if err != nil {
		return nil, err
	}

	clfRNG, err := s.rng.Stream(ctx, dr.Fingerprint.String(), "classifier", dr.Seed)
	if err != nil {
		return nil, err
	}
	clf := ml.NewLogisticRegression(s.classifier.LearningRate, s.classifier.Epochs, s.classifier.BatchSize, clfRNG)
	if err := clf.Fit(xTrain, yTrain); err != nil {
		return nil, err
	}

	pred, err := clf.Predict(xTest)
	if err != nil {
		return nil, err
	}
	proba, err := clf.PredictProba(xTest)
	if err != nil {
		return nil, err
	}

	accuracy, err := ml.Accuracy(yTest, pred)
	if err != nil {
		return nil, err
	}
	auc, err := ml.ROCAUC(yTest, proba)
	if err != nil {
		return nil, err
	}

	positives, negatives := 0, 0
	for _, label := range yTest {
		if label == signal.LabelEvent.Float() {
			positives++
		} else {
			negatives++
		}
	}

	return &run.Metrics{
		Accuracy:  accuracy,
		ROCAUC:    auc,
		TrainSize: len(trainIdx),
		TestSize:  len(testIdx),
		Positives: positives,
		Negatives: negatives,
	}, nil
}

// pickSeries gathers the series and labels at the given indices.
func pickSeries(series []signal.Series, labels []float64, idx []int) ([]signal.Series, []float64) {
	outSeries := make([]signal.Series, len(idx))
	outLabels := make([]float64, len(idx))
	for k, i := range idx {
		outSeries[k] = series[i]
		outLabels[k] = labels[i]
	}
	return outSeries, outLabels
}

// SuggestEmbeddingParams derives the embedding delay and dimension from
// a generated dataset: the delay from the first minimum of time-delayed
// mutual information, the dimension from the false-nearest-neighbors
// drop-off. The search runs on the first series of the set.
func (s *DetectionService) SuggestEmbeddingParams(ctx context.Context, gen run.GeneratorConfig, seed int64) (delay, dimension int, err error) {
	set, err := s.source.Generate(ctx, gen, seed)
	if err != nil {
		return 0, 0, err
	}

	cfg := embedding.DefaultSearchConfig()
	delay, err = embedding.SearchDelay(set.Noisy[0], cfg)
	if err != nil {
		return 0, 0, err
	}
	dimension, err = embedding.SearchDimension(set.Noisy[0], delay, cfg)
	if err != nil {
		return 0, 0, err
	}
	s.logger.Info("embedding search: delay=%d dimension=%d", delay, dimension)
	return delay, dimension, nil
}

// GetRun fetches one run by ID.
func (s *DetectionService) GetRun(ctx context.Context, id string) (*run.DetectionRun, error) {
	runID, err := core.ParseRunID(id)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid run id %q", id))
	}
	return s.runs.GetByID(ctx, runID)
}

// ListRuns lists runs most recent first.
func (s *DetectionService) ListRuns(ctx context.Context, limit, offset int) ([]*run.DetectionRun, error) {
	return s.runs.List(ctx, limit, offset)
}

// EmbeddingPreview generates a small batch and returns the point cloud
// of one series, for visual inspection of the delay embedding.
func (s *DetectionService) EmbeddingPreview(ctx context.Context, gen run.GeneratorConfig, pipe run.PipelineConfig, seed int64, index int) ([][]float64, error) {
	set, err := s.source.Generate(ctx, gen, seed)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= set.Len() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("series index %d out of range [0,%d)", index, set.Len()))
	}

	top := pipeline.NewTopological(pipe, s.logger)
	clouds, err := top.Embed([]signal.Series{set.Noisy[index]})
	if err != nil {
		return nil, err
	}
	cloud := clouds[0]

	// High-dimensional embeddings project to 3-D for plotting.
	if pipe.EmbeddingDimension > 3 && len(cloud) > 3 {
		pca := ml.NewPCA(3)
		if err := pca.Fit(cloud); err != nil {
			return nil, err
		}
		return pca.Transform(cloud)
	}
	return cloud, nil
}

// DiagramPreviewResult pairs a series' diagram with its ground truth.
type DiagramPreviewResult struct {
	Label   signal.Label    `json:"label"`
	SNR     float64         `json:"snr"`
	Diagram diagram.Diagram `json:"diagram"`
}

// DiagramPreview returns the persistence diagram of one generated series.
func (s *DetectionService) DiagramPreview(ctx context.Context, gen run.GeneratorConfig, pipe run.PipelineConfig, seed int64, index int) (*DiagramPreviewResult, error) {
	set, err := s.source.Generate(ctx, gen, seed)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= set.Len() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("series index %d out of range [0,%d)", index, set.Len()))
	}

	top := pipeline.NewTopological(pipe, s.logger)
	diagrams, err := top.Diagrams(ctx, []signal.Series{set.Noisy[index]})
	if err != nil {
		return nil, err
	}
	return &DiagramPreviewResult{
		Label:   set.Labels[index],
		SNR:     set.Meta[index].SNR,
		Diagram: diagrams[0],
	}, nil
}
