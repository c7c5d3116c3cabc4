// Package rng implements the seeded random number port. Streams are
// derived deterministically from a name, a stage and a base seed, so a
// run with the same fingerprint and seed reproduces exactly.
package rng

import (
	"context"
	"math/rand"
)

// Adapter implements ports.RNGPort with plain seeded sources.
type Adapter struct{}

// NewAdapter creates the RNG adapter.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// SeededStream creates a deterministic random number generator for a
// named operation.
func (a *Adapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed)), nil
}

// Stream creates a deterministic RNG stream for a specific run/stage
// pair, so generation, splitting and training draw from independent
// sequences.
func (a *Adapter) Stream(ctx context.Context, runID, stageName string, baseSeed int64) (*rand.Rand, error) {
	seed := baseSeed
	if runID != "" {
		seed = int64(hashString(runID)) + seed
	}
	if stageName != "" {
		seed = int64(hashString(stageName)) + seed
	}
	return rand.New(rand.NewSource(seed)), nil
}

// hashString creates a simple hash for deterministic seeding (djb2).
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c)
	}
	return hash
}
