package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID     ID
	DatasetID ID
	SeriesKey ID
)

// String conversions for domain IDs
func (id RunID) String() string     { return ID(id).String() }
func (id DatasetID) String() string { return ID(id).String() }
func (id SeriesKey) String() string { return ID(id).String() }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("run ID must be a UUID: %w", err)
	}
	return RunID(s), nil
}

// ParseDatasetID parses a string into DatasetID
func ParseDatasetID(s string) (DatasetID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("dataset ID cannot be empty")
	}
	return DatasetID(s), nil
}

// ParseSeriesKey parses a string into SeriesKey
func ParseSeriesKey(s string) (SeriesKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("series key cannot be empty")
	}
	return SeriesKey(s), nil
}

// Artifact represents any output of the system
type Artifact struct {
	ID        ID           `json:"id"`
	Kind      ArtifactKind `json:"kind"`
	Payload   interface{}  `json:"payload"`
	CreatedAt Timestamp    `json:"created_at"`
}

// ArtifactKind defines types of artifacts
type ArtifactKind string

const (
	// ArtifactDataset captures the generated signal collection for a run.
	ArtifactDataset ArtifactKind = "dataset"
	// ArtifactDiagramBatch captures the post-processed persistence diagrams.
	ArtifactDiagramBatch ArtifactKind = "diagram_batch"
	// ArtifactFeatureMatrix captures the extracted feature matrix.
	ArtifactFeatureMatrix ArtifactKind = "feature_matrix"
	// ArtifactRunManifest captures audit metadata for a detection run.
	ArtifactRunManifest ArtifactKind = "run_manifest"
	ArtifactMetrics     ArtifactKind = "metrics"
)
