// Package gw generates the synthetic detector data used by the detection
// pipeline: Gaussian background noise with damped-sinusoid bursts injected
// at a signal-to-noise ratio drawn from a configured range.
package gw

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"topowave/domain/core"
	"topowave/domain/run"
	"topowave/domain/signal"
	"topowave/internal/errors"
	"topowave/ports"

	exprand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Generator implements ports.SignalSource with a seeded RNG.
type Generator struct {
	rngPort ports.RNGPort
}

// NewGenerator creates a generator backed by the given RNG port.
func NewGenerator(rngPort ports.RNGPort) *Generator {
	return &Generator{rngPort: rngPort}
}

// Generate produces three parallel collections: noisy series, the clean
// injected waveforms, and binary labels. Roughly half the series carry a
// burst; the rest are pure noise with an all-zero clean counterpart.
// The same config and seed always produce the same set.
func (g *Generator) Generate(ctx context.Context, cfg run.GeneratorConfig, seed int64) (*signal.Set, error) {
	if cfg.SignalCount <= 0 {
		return nil, errors.GeneratorError("signal count must be positive")
	}
	if cfg.SampleCount <= 0 {
		return nil, errors.GeneratorError("sample count must be positive")
	}
	if cfg.SNRMin > cfg.SNRMax || cfg.SNRMin < 0 {
		return nil, core.ErrInvalidSNRRange
	}
	if cfg.SNRSteps < 1 {
		return nil, errors.GeneratorError("SNR steps must be at least 1")
	}

	rng, err := g.rngPort.SeededStream(ctx, "gw_generator", seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create generator RNG")
	}

	template, err := loadOrSynthesizeTemplate(cfg, rng)
	if err != nil {
		return nil, err
	}
	if len(template) > cfg.SampleCount {
		return nil, fmt.Errorf("%w: template %d samples, series %d",
			core.ErrTemplateTooLong, len(template), cfg.SampleCount)
	}

	snrValues := snrGrid(cfg.SNRMin, cfg.SNRMax, cfg.SNRSteps)

	noise := distuv.Normal{Mu: 0, Sigma: 1, Src: exprand.NewSource(uint64(rng.Int63()))}
	coin := distuv.Bernoulli{P: 0.5, Src: exprand.NewSource(uint64(rng.Int63()))}

	set := &signal.Set{
		ID:     core.DatasetID(core.NewID()),
		Noisy:  make([]signal.Series, cfg.SignalCount),
		Clean:  make([]signal.Series, cfg.SignalCount),
		Labels: make([]signal.Label, cfg.SignalCount),
		Meta:   make([]signal.SeriesMeta, cfg.SignalCount),
		Seed:   seed,
	}

	for i := 0; i < cfg.SignalCount; i++ {
		noisy := make(signal.Series, cfg.SampleCount)
		clean := make(signal.Series, cfg.SampleCount)
		for t := range noisy {
			noisy[t] = noise.Rand()
		}

		label := signal.LabelNoise
		snr := 0.0
		if coin.Rand() == 1 {
			label = signal.LabelEvent
			snr = snrValues[rng.Intn(len(snrValues))]
			offset := 0
			if room := cfg.SampleCount - len(template); room > 0 {
				offset = rng.Intn(room)
			}
			for t, v := range template {
				injected := snr * v
				clean[offset+t] = injected
				noisy[offset+t] += injected
			}
		}

		set.Noisy[i] = noisy
		set.Clean[i] = clean
		set.Labels[i] = label
		set.Meta[i] = signal.SeriesMeta{
			Key:   core.SeriesKey(fmt.Sprintf("series_%04d", i)),
			SNR:   snr,
			Label: label,
		}
	}

	if err := set.Validate(); err != nil {
		return nil, errors.Wrap(err, "generated set failed validation")
	}
	return set, nil
}

// snrGrid returns the discrete SNR values sampled for injections. A
// collapsed range (min == max) yields a single value regardless of steps.
func snrGrid(min, max float64, steps int) []float64 {
	if steps == 1 || min == max {
		return []float64{min}
	}
	grid := make([]float64, steps)
	step := (max - min) / float64(steps-1)
	for i := range grid {
		grid[i] = min + float64(i)*step
	}
	return grid
}

// synthesizeChirp builds a normalized damped-sinusoid burst with linearly
// increasing frequency, the waveform shape of a compact binary inspiral.
// Peak absolute amplitude is 1 so the SNR factor scales it directly.
func synthesizeChirp(samples int, rng *rand.Rand) []float64 {
	if samples < 16 {
		samples = 16
	}

	// Randomize the burst slightly so injections are not identical.
	f0 := 0.05 + 0.02*rng.Float64() // start frequency, cycles per sample
	f1 := 0.15 + 0.05*rng.Float64() // end frequency
	decay := float64(samples) / 4.0 // e-folding time in samples

	wave := make([]float64, samples)
	maxAbs := 0.0
	for t := 0; t < samples; t++ {
		tau := float64(t)
		frac := tau / float64(samples)
		// Phase integrates the swept frequency.
		phase := 2 * math.Pi * (f0*tau + 0.5*(f1-f0)*tau*frac)
		wave[t] = math.Exp(-tau/decay) * math.Sin(phase)
		if a := math.Abs(wave[t]); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs > 0 {
		for t := range wave {
			wave[t] /= maxAbs
		}
	}
	return wave
}
