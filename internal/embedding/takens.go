// Package embedding reconstructs phase-space point clouds from scalar
// time series via delayed coordinates (Takens embedding). A series
// x[0..N) with dimension d, delay tau and stride s maps to points
// (x[i], x[i+tau], ..., x[i+(d-1)tau]) for i = 0, s, 2s, ...
package embedding

import (
	"fmt"

	"topowave/domain/core"
	"topowave/domain/signal"
)

// Takens performs time-delay embedding of scalar series.
type Takens struct {
	Dimension int
	Delay     int
	Stride    int
}

// NewTakens creates an embedder with the given parameters. Stride 0 is
// treated as 1.
func NewTakens(dimension, delay, stride int) *Takens {
	if stride <= 0 {
		stride = 1
	}
	return &Takens{Dimension: dimension, Delay: delay, Stride: stride}
}

// NumPoints returns how many embedded points a series of n samples yields,
// or 0 when the series is too short.
func (t *Takens) NumPoints(n int) int {
	span := (t.Dimension - 1) * t.Delay
	if n <= span {
		return 0
	}
	return (n-span-1)/t.Stride + 1
}

// Embed maps one series to its delay-coordinate point cloud.
func (t *Takens) Embed(series signal.Series) ([][]float64, error) {
	if t.Dimension < 1 {
		return nil, core.NewValidationError("dimension", "must be at least 1")
	}
	if t.Delay < 1 {
		return nil, core.NewValidationError("delay", "must be at least 1")
	}

	n := t.NumPoints(len(series))
	if n == 0 {
		return nil, fmt.Errorf("%w: %d samples, need more than %d",
			core.ErrSeriesTooShort, len(series), (t.Dimension-1)*t.Delay)
	}

	cloud := make([][]float64, n)
	for i := 0; i < n; i++ {
		start := i * t.Stride
		point := make([]float64, t.Dimension)
		for j := 0; j < t.Dimension; j++ {
			point[j] = series[start+j*t.Delay]
		}
		cloud[i] = point
	}
	return cloud, nil
}

// EmbedAll maps every series in a batch to its point cloud.
func (t *Takens) EmbedAll(series []signal.Series) ([][][]float64, error) {
	clouds := make([][][]float64, len(series))
	for i, s := range series {
		cloud, err := t.Embed(s)
		if err != nil {
			return nil, fmt.Errorf("series %d: %w", i, err)
		}
		clouds[i] = cloud
	}
	return clouds, nil
}
