package run

import (
	"topowave/domain/core"
)

// Status tracks the lifecycle of a detection run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// GeneratorConfig records the synthetic-data parameters of a run.
type GeneratorConfig struct {
	SignalCount  int     `json:"signal_count"`
	SampleCount  int     `json:"sample_count"`
	SNRMin       float64 `json:"snr_min"`
	SNRMax       float64 `json:"snr_max"`
	SNRSteps     int     `json:"snr_steps"`
	TemplatePath string  `json:"template_path,omitempty"`
}

// PipelineConfig records the transformer parameters of a run.
type PipelineConfig struct {
	EmbeddingDimension int   `json:"embedding_dimension"`
	EmbeddingDelay     int   `json:"embedding_delay"`
	EmbeddingStride    int   `json:"embedding_stride"`
	HomologyDimensions []int `json:"homology_dimensions"`
	PCAComponents      int   `json:"pca_components"`
	Workers            int   `json:"workers"`
}

// Metrics holds the evaluation result of a completed run. Accuracy and
// ROCAUC are always within [0, 1].
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	ROCAUC    float64 `json:"roc_auc"`
	TrainSize int     `json:"train_size"`
	TestSize  int     `json:"test_size"`
	Positives int     `json:"positives"`
	Negatives int     `json:"negatives"`
}

// DetectionRun represents one end-to-end execution of the detection
// pipeline: generate, embed, persist homology, featurize, classify.
type DetectionRun struct {
	ID          core.RunID       `json:"id"`
	Generator   GeneratorConfig  `json:"generator"`
	Pipeline    PipelineConfig   `json:"pipeline"`
	Seed        int64            `json:"seed"`
	Status      Status           `json:"status"`
	Metrics     *Metrics         `json:"metrics,omitempty"`
	ErrorMsg    string           `json:"error_message,omitempty"`
	Fingerprint core.Fingerprint `json:"fingerprint"`
	CreatedAt   core.Timestamp   `json:"created_at"`
	UpdatedAt   core.Timestamp   `json:"updated_at"`
	RuntimeMs   int64            `json:"runtime_ms"`
}

// NewDetectionRun creates a pending run with a determinism fingerprint
// over both config blocks and the seed.
func NewDetectionRun(gen GeneratorConfig, pipe PipelineConfig, seed int64) (*DetectionRun, error) {
	fp, err := core.ComputeFingerprint(struct {
		Generator GeneratorConfig `json:"generator"`
		Pipeline  PipelineConfig  `json:"pipeline"`
	}{gen, pipe}, seed)
	if err != nil {
		return nil, err
	}

	now := core.Now()
	return &DetectionRun{
		ID:          core.RunID(core.NewID()),
		Generator:   gen,
		Pipeline:    pipe,
		Seed:        seed,
		Status:      StatusPending,
		Fingerprint: fp,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Complete marks the run successful and attaches metrics.
func (r *DetectionRun) Complete(m Metrics, runtimeMs int64) {
	r.Status = StatusCompleted
	r.Metrics = &m
	r.RuntimeMs = runtimeMs
	r.UpdatedAt = core.Now()
}

// Fail marks the run failed with a reason.
func (r *DetectionRun) Fail(reason string) {
	r.Status = StatusFailed
	r.ErrorMsg = reason
	r.UpdatedAt = core.Now()
}

// Validate checks metric ranges for completed runs.
func (r *DetectionRun) Validate() error {
	if r.Status != StatusCompleted || r.Metrics == nil {
		return nil
	}
	if r.Metrics.Accuracy < 0 || r.Metrics.Accuracy > 1 {
		return core.NewValidationError("accuracy", "must be within [0,1]")
	}
	if r.Metrics.ROCAUC < 0 || r.Metrics.ROCAUC > 1 {
		return core.NewValidationError("roc_auc", "must be within [0,1]")
	}
	return nil
}
