package gw

import (
	"bufio"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"topowave/domain/run"
	"topowave/internal/errors"
)

// defaultBurstSamples is the injected burst length when no template file
// is supplied; a quarter of the typical 2048-sample series.
const defaultBurstSamples = 512

// loadOrSynthesizeTemplate returns the waveform injected into event
// series: a user-supplied template when configured, otherwise a
// synthesized chirp.
func loadOrSynthesizeTemplate(cfg run.GeneratorConfig, rng *rand.Rand) ([]float64, error) {
	if cfg.TemplatePath == "" {
		samples := defaultBurstSamples
		if samples > cfg.SampleCount {
			samples = cfg.SampleCount
		}
		return synthesizeChirp(samples, rng), nil
	}
	return LoadTemplate(cfg.TemplatePath)
}

// LoadTemplate reads a waveform template from a CSV or newline-delimited
// text file of float samples and normalizes it to unit peak amplitude.
func LoadTemplate(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open template file %s", path)
	}
	defer f.Close()

	var wave []float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, field := range strings.Split(line, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid sample %q in template %s", field, path)
			}
			wave = append(wave, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read template file %s", path)
	}
	if len(wave) == 0 {
		return nil, errors.GeneratorError("template file contains no samples")
	}

	maxAbs := 0.0
	for _, v := range wave {
		if a := math.Abs(v); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return nil, errors.GeneratorError("template waveform is identically zero")
	}
	for i := range wave {
		wave[i] /= maxAbs
	}
	return wave, nil
}
