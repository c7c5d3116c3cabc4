package homology

import (
	"math"

	"topowave/domain/diagram"
)

// PostProcess normalizes a batch of raw diagrams into a rectangular
// form suitable for feature extraction:
//
//  1. essential features (infinite death) get death = infinityValue
//  2. points with birth >= death are dropped
//  3. every diagram is padded, per homology dimension, to the batch
//     maximum point count using degenerate (minBirth, minBirth) rows,
//     with at least one row per dimension
//
// After this every diagram in the batch holds the same number of
// points in each dimension, so downstream features see fixed shapes.
func PostProcess(batch []diagram.Diagram, dimensions []int, infinityValue float64) []diagram.Diagram {
	if len(batch) == 0 {
		return nil
	}

	cleaned := make([]map[int][]diagram.Point, len(batch))
	for i, d := range batch {
		byDim := make(map[int][]diagram.Point, len(dimensions))
		for _, dim := range dimensions {
			for _, p := range d.ForDimension(dim) {
				if p.IsEssential() {
					p.Death = infinityValue
				}
				if p.Birth >= p.Death {
					continue
				}
				byDim[dim] = append(byDim[dim], p)
			}
		}
		cleaned[i] = byDim
	}

	maxPoints := make(map[int]int, len(dimensions))
	minBirth := make(map[int]float64, len(dimensions))
	for _, dim := range dimensions {
		maxPoints[dim] = 1
		minBirth[dim] = math.Inf(1)
		for i := range cleaned {
			pts := cleaned[i][dim]
			if len(pts) > maxPoints[dim] {
				maxPoints[dim] = len(pts)
			}
			for _, p := range pts {
				if p.Birth < minBirth[dim] {
					minBirth[dim] = p.Birth
				}
			}
		}
		if math.IsInf(minBirth[dim], 1) {
			minBirth[dim] = 0
		}
	}

	out := make([]diagram.Diagram, len(batch))
	for i := range cleaned {
		var points []diagram.Point
		for _, dim := range dimensions {
			pts := cleaned[i][dim]
			points = append(points, pts...)
			for pad := len(pts); pad < maxPoints[dim]; pad++ {
				points = append(points, diagram.Point{
					Birth:     minBirth[dim],
					Death:     minBirth[dim],
					Dimension: dim,
				})
			}
		}
		out[i] = diagram.Diagram{Points: points}
	}
	return out
}
