package embedding

import (
	"math"

	"topowave/domain/core"
	"topowave/domain/signal"

	"github.com/montanaflynn/stats"
)

// SearchConfig bounds the automatic embedding-parameter search.
type SearchConfig struct {
	MaxDelay     int
	MaxDimension int
	// FNNTolerance is the neighbor-distance expansion ratio above which a
	// neighbor counts as false. Standard value is 10.
	FNNTolerance float64
	// FNNThreshold is the false-neighbor fraction below which the
	// dimension is accepted.
	FNNThreshold float64
	// Bins used for the mutual-information histogram.
	Bins int
}

// DefaultSearchConfig mirrors the usual heuristics: delay from the first
// minimum of time-delayed mutual information, dimension from the
// false-nearest-neighbors drop-off.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxDelay:     50,
		MaxDimension: 10,
		FNNTolerance: 10.0,
		FNNThreshold: 0.01,
		Bins:         16,
	}
}

// SearchDelay returns the delay at the first local minimum of the
// time-delayed mutual information, falling back to the global minimum
// when no local minimum exists within the bound.
func SearchDelay(series signal.Series, cfg SearchConfig) (int, error) {
	if len(series) < 4 {
		return 0, core.ErrSeriesTooShort
	}
	maxDelay := cfg.MaxDelay
	if maxDelay >= len(series)/2 {
		maxDelay = len(series)/2 - 1
	}
	if maxDelay < 1 {
		return 0, core.ErrSeriesTooShort
	}

	prev := math.Inf(1)
	bestDelay, bestMI := 1, math.Inf(1)
	for tau := 1; tau <= maxDelay; tau++ {
		mi := mutualInformation(series, tau, cfg.Bins)
		if mi > prev {
			// prev was the first local minimum
			return tau - 1, nil
		}
		if mi < bestMI {
			bestMI, bestDelay = mi, tau
		}
		prev = mi
	}
	return bestDelay, nil
}

// SearchDimension returns the smallest embedding dimension whose
// false-nearest-neighbor fraction falls below the threshold, or
// MaxDimension when none does.
func SearchDimension(series signal.Series, delay int, cfg SearchConfig) (int, error) {
	if delay < 1 {
		return 0, core.NewValidationError("delay", "must be at least 1")
	}
	for d := 1; d < cfg.MaxDimension; d++ {
		frac, err := falseNeighborFraction(series, d, delay, cfg.FNNTolerance)
		if err != nil {
			return 0, err
		}
		if frac <= cfg.FNNThreshold {
			return d, nil
		}
	}
	return cfg.MaxDimension, nil
}

// mutualInformation estimates I(x_t; x_{t+tau}) with an equal-width
// 2-D histogram.
func mutualInformation(series signal.Series, tau, bins int) float64 {
	n := len(series) - tau
	if n < 2 || bins < 2 {
		return 0
	}

	min, _ := stats.Min(stats.Float64Data(series))
	max, _ := stats.Max(stats.Float64Data(series))
	if max == min {
		return 0
	}
	width := (max - min) / float64(bins)

	bucket := func(v float64) int {
		b := int((v - min) / width)
		if b >= bins {
			b = bins - 1
		}
		if b < 0 {
			b = 0
		}
		return b
	}

	joint := make([][]float64, bins)
	for i := range joint {
		joint[i] = make([]float64, bins)
	}
	px := make([]float64, bins)
	py := make([]float64, bins)

	for i := 0; i < n; i++ {
		bx := bucket(series[i])
		by := bucket(series[i+tau])
		joint[bx][by]++
		px[bx]++
		py[by]++
	}

	mi := 0.0
	total := float64(n)
	for i := 0; i < bins; i++ {
		for j := 0; j < bins; j++ {
			if joint[i][j] == 0 {
				continue
			}
			pxy := joint[i][j] / total
			mi += pxy * math.Log(pxy/((px[i]/total)*(py[j]/total)))
		}
	}
	return mi
}

// falseNeighborFraction computes the Kennel false-nearest-neighbor
// fraction when going from dimension d to d+1.
func falseNeighborFraction(series signal.Series, d, delay int, tolerance float64) (float64, error) {
	embedder := NewTakens(d+1, delay, 1)
	high, err := embedder.Embed(series)
	if err != nil {
		return 0, err
	}
	n := len(high)
	if n < 2 {
		return 0, core.ErrSeriesTooShort
	}

	falseCount := 0
	for i := 0; i < n; i++ {
		// Nearest neighbor in dimension d (first d coordinates).
		nearest, nearestDist := -1, math.Inf(1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			dist := 0.0
			for k := 0; k < d; k++ {
				diff := high[i][k] - high[j][k]
				dist += diff * diff
			}
			if dist < nearestDist {
				nearestDist, nearest = dist, j
			}
		}
		if nearest < 0 || nearestDist == 0 {
			continue
		}
		// Expansion when the (d+1)-th coordinate is revealed.
		extra := math.Abs(high[i][d] - high[nearest][d])
		if extra/math.Sqrt(nearestDist) > tolerance {
			falseCount++
		}
	}
	return float64(falseCount) / float64(n), nil
}
