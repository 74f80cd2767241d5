package verification

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
)

// Artifact pins the classifier decision thresholds. Scoring is deterministic
// for a fixed artifact file, so results are reproducible across runs and
// deploys.
type Artifact struct {
	Version    int                                 `json:"version"`
	Thresholds map[enums.VerificationCheck]float64 `json:"thresholds"`
}

// DefaultArtifact is used when no artifact file is configured.
func DefaultArtifact() *Artifact {
	return &Artifact{
		Version: 1,
		Thresholds: map[enums.VerificationCheck]float64{
			enums.VerificationCheckPacking:   0.5,
			enums.VerificationCheckExpiry:    0.35,
			enums.VerificationCheckFreshness: 0.5,
		},
	}
}

// LoadArtifact reads the artifact JSON from disk. An empty path falls back to
// the built-in defaults.
func LoadArtifact(path string) (*Artifact, error) {
	if path == "" {
		return DefaultArtifact(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if len(artifact.Thresholds) == 0 {
		return nil, fmt.Errorf("artifact has no thresholds")
	}
	for check, threshold := range artifact.Thresholds {
		if !check.IsValid() {
			return nil, fmt.Errorf("artifact names unknown check %q", check)
		}
		if threshold < 0 || threshold > 1 {
			return nil, fmt.Errorf("threshold for %s out of range: %f", check, threshold)
		}
	}
	return &artifact, nil
}
