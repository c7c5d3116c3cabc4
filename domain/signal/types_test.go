package signal

import (
	"testing"

	"topowave/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSet() *Set {
	return &Set{
		ID:     core.DatasetID(core.NewID()),
		Noisy:  []Series{{1, 2, 3}, {4, 5, 6}},
		Clean:  []Series{{0, 0, 0}, {1, 1, 1}},
		Labels: []Label{LabelNoise, LabelEvent},
		Meta: []SeriesMeta{
			{Key: "series_0000", Label: LabelNoise},
			{Key: "series_0001", SNR: 0.5, Label: LabelEvent},
		},
		Seed: 42,
	}
}

func TestSetValidate(t *testing.T) {
	require.NoError(t, validSet().Validate())

	s := validSet()
	s.Labels = s.Labels[:1]
	assert.Error(t, s.Validate())

	s = validSet()
	s.Clean[1] = Series{1}
	assert.Error(t, s.Validate())
}

func TestEventCountAndLabels(t *testing.T) {
	s := validSet()
	assert.Equal(t, 1, s.EventCount())
	assert.Equal(t, []float64{0, 1}, s.LabelsFloat())
	assert.Equal(t, 1.0, LabelEvent.Float())
	assert.Equal(t, 0.0, LabelNoise.Float())
}
