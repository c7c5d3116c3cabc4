package signal

import (
	"topowave/domain/core"
)

// Label is a binary class label for a series: 1 when a gravitational-wave
// burst is embedded in the noise, 0 for pure noise.
type Label int

const (
	LabelNoise Label = 0
	LabelEvent Label = 1
)

// Float returns the label as a classifier target.
func (l Label) Float() float64 { return float64(l) }

// Series is a single scalar time series sampled at a uniform rate.
type Series []float64

// SeriesMeta carries provenance for one generated series.
type SeriesMeta struct {
	Key   core.SeriesKey `json:"key"`
	SNR   float64        `json:"snr"`
	Label Label          `json:"label"`
}

// Set holds the three parallel collections produced by the generator:
// noisy detector series, the clean injected waveforms, and binary labels.
// Clean[i] is all zeros when Labels[i] == LabelNoise.
type Set struct {
	ID     core.DatasetID `json:"id"`
	Noisy  []Series       `json:"noisy"`
	Clean  []Series       `json:"clean"`
	Labels []Label        `json:"labels"`
	Meta   []SeriesMeta   `json:"meta"`
	Seed   int64          `json:"seed"`
}

// Len returns the number of series in the set.
func (s *Set) Len() int { return len(s.Noisy) }

// Validate checks the parallel-collection invariant.
func (s *Set) Validate() error {
	n := len(s.Noisy)
	if len(s.Clean) != n {
		return core.NewShapeError("clean series", n, len(s.Clean))
	}
	if len(s.Labels) != n {
		return core.NewShapeError("labels", n, len(s.Labels))
	}
	if len(s.Meta) != n {
		return core.NewShapeError("series metadata", n, len(s.Meta))
	}
	for i := range s.Noisy {
		if len(s.Clean[i]) != len(s.Noisy[i]) {
			return core.NewShapeError("clean samples", len(s.Noisy[i]), len(s.Clean[i]))
		}
	}
	return nil
}

// EventCount returns how many series carry an injected burst.
func (s *Set) EventCount() int {
	count := 0
	for _, l := range s.Labels {
		if l == LabelEvent {
			count++
		}
	}
	return count
}

// LabelsFloat returns labels as float64 targets for the classifier.
func (s *Set) LabelsFloat() []float64 {
	out := make([]float64, len(s.Labels))
	for i, l := range s.Labels {
		out[i] = float64(l)
	}
	return out
}
