// Package pipeline chains named fit/transform stages and runs the
// topological front end that turns raw series into feature matrices.
package pipeline

import (
	"topowave/domain/core"
	"topowave/ports"

	apperrors "topowave/internal/errors"
)

// Pipeline is an ordered chain of transformers that is itself a
// transformer: Fit trains each stage on the output of the previous
// one, Transform replays the fitted chain.
type Pipeline struct {
	name   string
	stages []ports.Transformer
	fitted bool
}

// New builds a pipeline from the given stages.
func New(name string, stages ...ports.Transformer) *Pipeline {
	return &Pipeline{name: name, stages: stages}
}

func (p *Pipeline) Name() string { return p.name }

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Fit trains every stage in order. Each stage fits on the transformed
// output of the stages before it, matching the usual fit-then-transform
// chaining semantics.
func (p *Pipeline) Fit(X [][]float64) error {
	cur := X
	for _, stage := range p.stages {
		if err := stage.Fit(cur); err != nil {
			return apperrors.PipelineError(stage.Name(), err)
		}
		next, err := stage.Transform(cur)
		if err != nil {
			return apperrors.PipelineError(stage.Name(), err)
		}
		cur = next
	}
	p.fitted = true
	return nil
}

// Transform applies the fitted chain to new samples.
func (p *Pipeline) Transform(X [][]float64) ([][]float64, error) {
	if !p.fitted {
		return nil, core.ErrNotFitted
	}
	cur := X
	for _, stage := range p.stages {
		next, err := stage.Transform(cur)
		if err != nil {
			return nil, apperrors.PipelineError(stage.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
