package features

import (
	"math"
	"testing"

	"topowave/domain/core"
	"topowave/domain/diagram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalerNormalizesToBatchScale(t *testing.T) {
	batch := []diagram.Diagram{
		{Points: []diagram.Point{
			{Birth: 0, Death: 2, Dimension: 0},
			{Birth: 1, Death: 4, Dimension: 1},
		}},
		{Points: []diagram.Point{
			{Birth: 0, Death: 1, Dimension: 0},
		}},
	}

	s := NewScaler()
	scaled, err := s.FitTransform(batch)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, s.Factor(), 1e-12)

	assert.InDelta(t, 0.5, scaled[0].Points[0].Death, 1e-12)
	assert.InDelta(t, 0.25, scaled[0].Points[1].Birth, 1e-12)
	assert.InDelta(t, 1.0, scaled[0].Points[1].Death, 1e-12)
	assert.InDelta(t, 0.25, scaled[1].Points[0].Death, 1e-12)

	// The input batch is untouched.
	assert.InDelta(t, 2.0, batch[0].Points[0].Death, 1e-12)
}

func TestScalerKeepsEssentialDeaths(t *testing.T) {
	batch := []diagram.Diagram{
		{Points: []diagram.Point{
			{Birth: 0, Death: 2, Dimension: 0},
			{Birth: 0, Death: math.Inf(1), Dimension: 0},
		}},
	}

	scaled, err := NewScaler().FitTransform(batch)
	require.NoError(t, err)
	assert.True(t, scaled[0].Points[1].IsEssential())
}

func TestScalerDegenerateBatchUsesUnitFactor(t *testing.T) {
	batch := []diagram.Diagram{
		{Points: []diagram.Point{{Birth: 0, Death: 0, Dimension: 0}}},
	}

	s := NewScaler()
	scaled, err := s.FitTransform(batch)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, s.Factor(), 1e-12)
	assert.Zero(t, scaled[0].Points[0].Death)
}

func TestScalerErrors(t *testing.T) {
	s := NewScaler()
	assert.ErrorIs(t, s.Fit(nil), core.ErrInsufficientData)

	_, err := s.Transform([]diagram.Diagram{{}})
	assert.ErrorIs(t, err, core.ErrNotFitted)
	assert.Zero(t, s.Factor())
}
