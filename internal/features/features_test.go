package features

import (
	"math"
	"testing"

	"topowave/domain/diagram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistenceEntropyUniformLifetimes(t *testing.T) {
	// Four equal lifetimes: entropy = log2(4) = 2 bits.
	d := diagram.Diagram{Points: []diagram.Point{
		{Birth: 0, Death: 1, Dimension: 0},
		{Birth: 0, Death: 1, Dimension: 0},
		{Birth: 1, Death: 2, Dimension: 0},
		{Birth: 2, Death: 3, Dimension: 0},
	}}
	assert.InDelta(t, 2.0, PersistenceEntropy{}.Extract(d, 0), 1e-12)
	assert.InDelta(t, 1.0, PersistenceEntropy{Normalize: true}.Extract(d, 0), 1e-12)
}

func TestPersistenceEntropySinglePoint(t *testing.T) {
	d := diagram.Diagram{Points: []diagram.Point{
		{Birth: 0, Death: 0.7, Dimension: 1},
	}}
	assert.Zero(t, PersistenceEntropy{}.Extract(d, 1))
}

func TestPersistenceEntropyEmptyDiagram(t *testing.T) {
	assert.Zero(t, PersistenceEntropy{}.Extract(diagram.Diagram{}, 0))

	// Degenerate padding rows do not contribute.
	d := diagram.Diagram{Points: []diagram.Point{
		{Birth: 0.4, Death: 0.4, Dimension: 1},
	}}
	assert.Zero(t, PersistenceEntropy{}.Extract(d, 1))
}

func TestPersistenceEntropySkipsEssentials(t *testing.T) {
	d := diagram.Diagram{Points: []diagram.Point{
		{Birth: 0, Death: 1, Dimension: 0},
		{Birth: 0, Death: 1, Dimension: 0},
		{Birth: 0, Death: math.Inf(1), Dimension: 0},
	}}
	assert.InDelta(t, 1.0, PersistenceEntropy{}.Extract(d, 0), 1e-12)
}

func TestAmplitude(t *testing.T) {
	d := diagram.Diagram{Points: []diagram.Point{
		{Birth: 0, Death: 3, Dimension: 0},
		{Birth: 0, Death: 4, Dimension: 0},
		{Birth: 0, Death: 9, Dimension: 1},
	}}
	assert.InDelta(t, 5.0, Amplitude{}.Extract(d, 0), 1e-12)
	assert.InDelta(t, 9.0, Amplitude{}.Extract(d, 1), 1e-12)
}

func TestPointCountAndMaxLifetime(t *testing.T) {
	d := diagram.Diagram{Points: []diagram.Point{
		{Birth: 0, Death: 0.5, Dimension: 0},
		{Birth: 0.1, Death: 0.1, Dimension: 0},
		{Birth: 0.2, Death: 1.4, Dimension: 0},
	}}
	assert.Equal(t, 2.0, PointCount{}.Extract(d, 0))
	assert.InDelta(t, 1.2, MaxLifetime{}.Extract(d, 0), 1e-12)
	assert.Zero(t, MaxLifetime{}.Extract(d, 1))
}

func TestBuildMatrixShapeAndOrder(t *testing.T) {
	diagrams := []diagram.Diagram{
		{Points: []diagram.Point{
			{Birth: 0, Death: 1, Dimension: 0},
			{Birth: 0.2, Death: 0.8, Dimension: 1},
		}},
		{},
	}
	extractors := DefaultExtractors()
	dims := []int{0, 1}

	matrix := BuildMatrix(diagrams, dims, extractors)
	require.Len(t, matrix, 2)

	names := ColumnNames(extractors, dims)
	require.Len(t, names, len(extractors)*len(dims))
	assert.Equal(t, "persistence_entropy_h0", names[0])
	assert.Equal(t, "persistence_entropy_h1", names[1])
	assert.Equal(t, "amplitude_h0", names[2])

	for _, row := range matrix {
		assert.Len(t, row, len(names))
	}

	// Empty diagram yields an all-zero row.
	for _, v := range matrix[1] {
		assert.Zero(t, v)
	}

	// amplitude_h0 of the first diagram is its single H0 lifetime.
	assert.InDelta(t, 1.0, matrix[0][2], 1e-12)
}
