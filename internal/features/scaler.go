package features

import (
	"topowave/domain/core"
	"topowave/domain/diagram"
)

// Scaler rescales persistence diagrams by a fitted amplitude so that
// filtration scale differences between batches do not leak into the
// features. The factor is the largest finite death seen during Fit.
type Scaler struct {
	factor float64
	fitted bool
}

// NewScaler creates an unfitted diagram scaler.
func NewScaler() *Scaler {
	return &Scaler{}
}

// Fit learns the scale factor from a batch of diagrams.
func (s *Scaler) Fit(diagrams []diagram.Diagram) error {
	if len(diagrams) == 0 {
		return core.ErrInsufficientData
	}
	factor := 0.0
	for _, d := range diagrams {
		if m := d.MaxDeath(); m > factor {
			factor = m
		}
	}
	if factor == 0 {
		factor = 1
	}
	s.factor = factor
	s.fitted = true
	return nil
}

// Transform divides every birth and finite death by the fitted factor.
func (s *Scaler) Transform(diagrams []diagram.Diagram) ([]diagram.Diagram, error) {
	if !s.fitted {
		return nil, core.ErrNotFitted
	}
	out := make([]diagram.Diagram, len(diagrams))
	for i, d := range diagrams {
		points := make([]diagram.Point, len(d.Points))
		for j, p := range d.Points {
			scaled := p
			scaled.Birth = p.Birth / s.factor
			if !p.IsEssential() {
				scaled.Death = p.Death / s.factor
			}
			points[j] = scaled
		}
		out[i] = diagram.Diagram{Points: points}
	}
	return out, nil
}

// FitTransform fits the scaler and transforms the same batch.
func (s *Scaler) FitTransform(diagrams []diagram.Diagram) ([]diagram.Diagram, error) {
	if err := s.Fit(diagrams); err != nil {
		return nil, err
	}
	return s.Transform(diagrams)
}

// Factor returns the fitted scale, 0 before Fit.
func (s *Scaler) Factor() float64 {
	if !s.fitted {
		return 0
	}
	return s.factor
}
