// Package diagram defines persistence diagrams, the output of the
// Vietoris-Rips filtration stage. A diagram is a multiset of
// (birth, death, dimension) triples; persistence death-birth measures
// how long a topological feature survives across scales.
package diagram

import (
	"math"
	"sort"
)

// Point is one topological feature: born at scale Birth, dead at scale
// Death, in homology dimension Dimension (0 = components, 1 = loops).
type Point struct {
	Birth     float64 `json:"birth"`
	Death     float64 `json:"death"`
	Dimension int     `json:"dimension"`
}

// Persistence returns the lifetime of the feature.
func (p Point) Persistence() float64 {
	return p.Death - p.Birth
}

// IsEssential reports whether the feature never dies within the filtration.
func (p Point) IsEssential() bool {
	return math.IsInf(p.Death, 1)
}

// Diagram is the persistence diagram of a single point cloud.
type Diagram struct {
	Points []Point `json:"points"`
}

// ForDimension returns the sub-diagram for one homology dimension.
func (d Diagram) ForDimension(dim int) []Point {
	var out []Point
	for _, p := range d.Points {
		if p.Dimension == dim {
			out = append(out, p)
		}
	}
	return out
}

// Dimensions returns the sorted set of homology dimensions present.
func (d Diagram) Dimensions() []int {
	seen := make(map[int]bool)
	for _, p := range d.Points {
		seen[p.Dimension] = true
	}
	dims := make([]int, 0, len(seen))
	for dim := range seen {
		dims = append(dims, dim)
	}
	sort.Ints(dims)
	return dims
}

// TotalPersistence sums lifetimes across a dimension, skipping
// non-finite deaths.
func (d Diagram) TotalPersistence(dim int) float64 {
	total := 0.0
	for _, p := range d.ForDimension(dim) {
		if !p.IsEssential() {
			total += p.Persistence()
		}
	}
	return total
}

// MaxDeath returns the largest finite death value in the diagram, or 0
// when every point is essential or the diagram is empty.
func (d Diagram) MaxDeath() float64 {
	max := 0.0
	for _, p := range d.Points {
		if !p.IsEssential() && p.Death > max {
			max = p.Death
		}
	}
	return max
}
