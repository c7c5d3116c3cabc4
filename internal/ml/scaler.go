// Package ml holds the classical learning stages of the detection
// pipeline: feature scaling, PCA, logistic regression, and the
// evaluation metrics reported per run.
package ml

import (
	"topowave/domain/core"

	"github.com/montanaflynn/stats"
)

// StandardScaler centers each column to zero mean and unit variance.
// Constant columns are left centered but unscaled.
type StandardScaler struct {
	means []float64
	stds  []float64
}

// NewStandardScaler creates an unfitted scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

func (s *StandardScaler) Name() string { return "standard_scaler" }

// Fit learns per-column means and standard deviations.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return core.ErrInsufficientData
	}
	cols := len(X[0])
	s.means = make([]float64, cols)
	s.stds = make([]float64, cols)

	column := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i, row := range X {
			if len(row) != cols {
				return core.ErrShapeMismatch
			}
			column[i] = row[j]
		}
		mean, err := stats.Mean(stats.Float64Data(column))
		if err != nil {
			return err
		}
		std, err := stats.StandardDeviation(stats.Float64Data(column))
		if err != nil {
			return err
		}
		if std == 0 {
			std = 1
		}
		s.means[j] = mean
		s.stds[j] = std
	}
	return nil
}

// Transform z-scores every row with the fitted statistics.
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if s.means == nil {
		return nil, core.ErrNotFitted
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(s.means) {
			return nil, core.ErrShapeMismatch
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.means[j]) / s.stds[j]
		}
		out[i] = scaled
	}
	return out, nil
}
