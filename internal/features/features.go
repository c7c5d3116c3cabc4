// Package features turns persistence diagrams into fixed-width
// numeric vectors for the classifier. Every extractor produces one
// scalar per (diagram, homology dimension) pair; BuildMatrix stacks
// them into a design matrix with consistent column order.
package features

import (
	"fmt"
	"math"

	"topowave/domain/diagram"

	"github.com/montanaflynn/stats"
)

// Extractor maps one homology dimension of a diagram to a scalar.
type Extractor interface {
	Name() string
	Extract(d diagram.Diagram, dim int) float64
}

// lifetimes collects the positive finite lifetimes of one dimension.
func lifetimes(d diagram.Diagram, dim int) []float64 {
	var out []float64
	for _, p := range d.ForDimension(dim) {
		if p.IsEssential() {
			continue
		}
		if l := p.Persistence(); l > 0 {
			out = append(out, l)
		}
	}
	return out
}

// PersistenceEntropy is the Shannon entropy of the normalized lifetime
// distribution. Diagrams with no surviving features score zero.
type PersistenceEntropy struct {
	// Normalize divides by log2 of the point count, mapping the value
	// into [0, 1] regardless of diagram size.
	Normalize bool
}

func (PersistenceEntropy) Name() string { return "persistence_entropy" }

func (e PersistenceEntropy) Extract(d diagram.Diagram, dim int) float64 {
	ls := lifetimes(d, dim)
	total, _ := stats.Sum(stats.Float64Data(ls))
	if total <= 0 {
		return 0
	}

	entropy := 0.0
	for _, l := range ls {
		p := l / total
		entropy -= p * math.Log2(p)
	}
	if e.Normalize && len(ls) > 1 {
		entropy /= math.Log2(float64(len(ls)))
	}
	return entropy
}

// Amplitude is the L2 norm of the lifetime vector, a size-sensitive
// counterpart to entropy.
type Amplitude struct{}

func (Amplitude) Name() string { return "amplitude" }

func (Amplitude) Extract(d diagram.Diagram, dim int) float64 {
	sum := 0.0
	for _, l := range lifetimes(d, dim) {
		sum += l * l
	}
	return math.Sqrt(sum)
}

// PointCount counts features with positive lifetime.
type PointCount struct{}

func (PointCount) Name() string { return "point_count" }

func (PointCount) Extract(d diagram.Diagram, dim int) float64 {
	return float64(len(lifetimes(d, dim)))
}

// MaxLifetime is the persistence of the most prominent feature.
type MaxLifetime struct{}

func (MaxLifetime) Name() string { return "max_lifetime" }

func (MaxLifetime) Extract(d diagram.Diagram, dim int) float64 {
	max := 0.0
	for _, l := range lifetimes(d, dim) {
		if l > max {
			max = l
		}
	}
	return max
}

// DefaultExtractors returns the extractor set used by the detection
// pipeline. Entropy comes first so the leading columns match the
// plain entropy-only configuration.
func DefaultExtractors() []Extractor {
	return []Extractor{
		PersistenceEntropy{},
		Amplitude{},
		PointCount{},
		MaxLifetime{},
	}
}

// ColumnNames returns the design-matrix column labels for the given
// extractors and homology dimensions, in BuildMatrix order.
func ColumnNames(extractors []Extractor, dims []int) []string {
	names := make([]string, 0, len(extractors)*len(dims))
	for _, e := range extractors {
		for _, dim := range dims {
			names = append(names, fmt.Sprintf("%s_h%d", e.Name(), dim))
		}
	}
	return names
}

// BuildMatrix evaluates every extractor on every diagram, producing one
// row per diagram. Columns iterate extractors in the outer loop and
// homology dimensions in the inner loop.
func BuildMatrix(diagrams []diagram.Diagram, dims []int, extractors []Extractor) [][]float64 {
	matrix := make([][]float64, len(diagrams))
	for i, d := range diagrams {
		row := make([]float64, 0, len(extractors)*len(dims))
		for _, e := range extractors {
			for _, dim := range dims {
				row = append(row, e.Extract(d, dim))
			}
		}
		matrix[i] = row
	}
	return matrix
}
