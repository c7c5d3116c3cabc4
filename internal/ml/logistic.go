package ml

import (
	"math"
	"math/rand"

	"topowave/domain/core"
)

// LogisticRegression is a binary classifier trained with mini-batch
// gradient descent on the cross-entropy loss.
type LogisticRegression struct {
	Weights []float64
	Bias    float64

	LearningRate float64
	Epochs       int
	BatchSize    int

	rng *rand.Rand
}

// NewLogisticRegression creates a classifier with the given
// hyperparameters. The RNG seeds weight initialization and the
// per-epoch shuffle, so training is reproducible.
func NewLogisticRegression(learningRate float64, epochs, batchSize int, rng *rand.Rand) *LogisticRegression {
	return &LogisticRegression{
		LearningRate: learningRate,
		Epochs:       epochs,
		BatchSize:    batchSize,
		rng:          rng,
	}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// Fit trains on X with binary labels y.
func (m *LogisticRegression) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return core.ErrInsufficientData
	}
	if len(X) != len(y) {
		return core.ErrShapeMismatch
	}
	d := len(X[0])

	// Small random init breaks symmetry across features.
	m.Weights = make([]float64, d)
	for i := range m.Weights {
		m.Weights[i] = m.rng.NormFloat64() * 0.01
	}
	m.Bias = 0

	batchSize := m.BatchSize
	if batchSize <= 0 || batchSize > len(X) {
		batchSize = len(X)
	}

	order := make([]int, len(X))
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < m.Epochs; epoch++ {
		m.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		for start := 0; start < len(order); start += batchSize {
			end := start + batchSize
			if end > len(order) {
				end = len(order)
			}
			batch := order[start:end]

			gradW := make([]float64, d)
			gradB := 0.0
			for _, idx := range batch {
				row := X[idx]
				if len(row) != d {
					return core.ErrShapeMismatch
				}
				// BCE gradient: (sigma(wx+b) - y) per sample.
				diff := sigmoid(m.decision(row)) - y[idx]
				for j, v := range row {
					gradW[j] += diff * v
				}
				gradB += diff
			}

			scale := m.LearningRate / float64(len(batch))
			for j := range m.Weights {
				m.Weights[j] -= scale * gradW[j]
			}
			m.Bias -= scale * gradB
		}
	}
	return nil
}

func (m *LogisticRegression) decision(row []float64) float64 {
	z := m.Bias
	for j, v := range row {
		z += m.Weights[j] * v
	}
	return z
}

// PredictProba returns the event probability for each row.
func (m *LogisticRegression) PredictProba(X [][]float64) ([]float64, error) {
	if m.Weights == nil {
		return nil, core.ErrNotFitted
	}
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(m.Weights) {
			return nil, core.ErrShapeMismatch
		}
		out[i] = sigmoid(m.decision(row))
	}
	return out, nil
}

// Predict thresholds probabilities at 0.5.
func (m *LogisticRegression) Predict(X [][]float64) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(proba))
	for i, p := range proba {
		if p >= 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}
