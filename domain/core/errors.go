package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrRunNotFound     = fmt.Errorf("%w: run", ErrNotFound)
	ErrDatasetNotFound = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrSeriesNotFound  = fmt.Errorf("%w: series", ErrNotFound)

	// Validation errors
	ErrSeriesTooShort     = errors.New("series too short for embedding")
	ErrEmptyPointCloud    = errors.New("empty point cloud")
	ErrShapeMismatch      = errors.New("parallel collections have mismatched lengths")
	ErrNotFitted          = errors.New("transformer used before fit")
	ErrInsufficientData   = errors.New("insufficient data for analysis")
	ErrTemplateTooLong    = errors.New("waveform template longer than series")
	ErrInvalidSNRRange    = errors.New("invalid SNR range")
	ErrInvalidHomologyDim = errors.New("unsupported homology dimension")

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
	ErrSeedMismatch     = errors.New("seed mismatch")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewShapeError(what string, want, got int) error {
	return fmt.Errorf("%w: %s expected %d, got %d", ErrShapeMismatch, what, want, got)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrSeriesTooShort) ||
		errors.Is(err, ErrEmptyPointCloud) ||
		errors.Is(err, ErrShapeMismatch) ||
		errors.Is(err, ErrNotFitted) ||
		errors.Is(err, ErrInsufficientData) ||
		errors.Is(err, ErrTemplateTooLong) ||
		errors.Is(err, ErrInvalidSNRRange) ||
		errors.Is(err, ErrInvalidHomologyDim)
}
