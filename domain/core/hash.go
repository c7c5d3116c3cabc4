package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Fingerprint identifies a fully reproducible run: same config + seed
// hash to the same fingerprint.
type Fingerprint Hash

func (f Fingerprint) String() string { return Hash(f).String() }

// Short returns the first 12 hex characters, for logs.
func (f Fingerprint) Short() string {
	s := f.String()
	if len(s) > 12 {
		return s[:12]
	}
	return s
}

// ComputeFingerprint hashes an arbitrary config payload together with a seed.
// The payload is serialized through JSON so map ordering is the caller's
// responsibility; struct configs serialize deterministically.
func ComputeFingerprint(config interface{}, seed int64) (Fingerprint, error) {
	payload, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("fingerprint serialization failed: %w", err)
	}
	data := append(payload, []byte(fmt.Sprintf("|seed=%d", seed))...)
	return Fingerprint(NewHash(data)), nil
}
