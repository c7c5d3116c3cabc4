package ports

import (
	"context"

	"topowave/domain/run"
	"topowave/domain/signal"
)

// SignalSource produces the three parallel collections consumed by the
// pipeline: noisy series, clean injected waveforms, and binary labels.
type SignalSource interface {
	// Generate builds a signal set from generator config and a seed
	Generate(ctx context.Context, cfg run.GeneratorConfig, seed int64) (*signal.Set, error)
}
