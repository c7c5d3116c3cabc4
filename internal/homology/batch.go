package homology

import (
	"context"

	"topowave/domain/diagram"
	apperrors "topowave/internal/errors"

	"golang.org/x/sync/errgroup"
)

// BatchConfig controls batched diagram computation.
type BatchConfig struct {
	Dimensions    []int
	MaxEdgeLength float64
	Workers       int
	// InfinityValue replaces infinite deaths during post-processing.
	// Zero means derive it from the batch (largest finite death), which
	// makes the result depend on batch composition; callers holding
	// fitted state pass the value learned during training instead.
	InfinityValue float64
}

// ComputeBatch runs the Vietoris-Rips filtration over every cloud with
// a bounded worker pool, then post-processes the results into the
// rectangular batch form.
func ComputeBatch(ctx context.Context, clouds [][][]float64, cfg BatchConfig) ([]diagram.Diagram, error) {
	if len(clouds) == 0 {
		return nil, nil
	}

	maxDim := 0
	for _, d := range cfg.Dimensions {
		if d > maxDim {
			maxDim = d
		}
	}
	vr, err := NewVietorisRips(maxDim, cfg.MaxEdgeLength)
	if err != nil {
		return nil, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	raw := make([]diagram.Diagram, len(clouds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, cloud := range clouds {
		i, cloud := i, cloud
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := vr.Diagram(cloud)
			if err != nil {
				return apperrors.Wrapf(err, "persistence failed for cloud %d", i)
			}
			raw[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	infCap := cfg.InfinityValue
	if infCap == 0 {
		for i := range raw {
			if m := raw[i].MaxDeath(); m > infCap {
				infCap = m
			}
		}
	}

	return PostProcess(raw, cfg.Dimensions, infCap), nil
}
