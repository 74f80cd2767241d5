package verification

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/freshkart-labs/freshkart-backend/pkg/enums"
)

// ScoreInput carries the raw evidence for one verification run. Any field may
// be absent; the scorer omits the checks it cannot run.
type ScoreInput struct {
	Image           []byte
	ReferenceWeight *float64
	MeasuredWeight  *float64
}

// Scorer maps evidence to categorical check outcomes. Implementations must be
// deterministic for fixed input and a fixed artifact.
type Scorer interface {
	Score(input ScoreInput) map[enums.VerificationCheck]enums.VerificationOutcome
}

// artifactScorer derives a stable per-check activation from the image digest
// and compares it against the artifact thresholds. The packing and expiry
// checks need the image; freshness additionally needs both weights, since an
// out-of-tolerance weight marks the contents as not fresh regardless of the
// image signal.
type artifactScorer struct {
	artifact        *Artifact
	weightTolerance float64
}

// NewScorer builds the artifact-backed scorer. weightTolerancePercent bounds
// how far the measured weight may drift from the reference weight.
func NewScorer(artifact *Artifact, weightTolerancePercent float64) (Scorer, error) {
	if artifact == nil {
		return nil, fmt.Errorf("artifact required")
	}
	if weightTolerancePercent < 0 {
		return nil, fmt.Errorf("weight tolerance must not be negative")
	}
	return &artifactScorer{
		artifact:        artifact,
		weightTolerance: weightTolerancePercent,
	}, nil
}

func (s *artifactScorer) Score(input ScoreInput) map[enums.VerificationCheck]enums.VerificationOutcome {
	results := make(map[enums.VerificationCheck]enums.VerificationOutcome)
	if len(input.Image) == 0 {
		return results
	}

	if activation, ok := s.activation(enums.VerificationCheckPacking, input.Image); ok {
		outcome := enums.VerificationOutcomeUnpacked
		if activation >= s.artifact.Thresholds[enums.VerificationCheckPacking] {
			outcome = enums.VerificationOutcomePacked
		}
		results[enums.VerificationCheckPacking] = outcome
	}

	if activation, ok := s.activation(enums.VerificationCheckExpiry, input.Image); ok {
		outcome := enums.VerificationOutcomeExpired
		if activation >= s.artifact.Thresholds[enums.VerificationCheckExpiry] {
			outcome = enums.VerificationOutcomeValid
		}
		results[enums.VerificationCheckExpiry] = outcome
	}

	if input.ReferenceWeight != nil && input.MeasuredWeight != nil {
		if activation, ok := s.activation(enums.VerificationCheckFreshness, input.Image); ok {
			outcome := enums.VerificationOutcomeNotFresh
			if s.weightWithinTolerance(*input.ReferenceWeight, *input.MeasuredWeight) &&
				activation >= s.artifact.Thresholds[enums.VerificationCheckFreshness] {
				outcome = enums.VerificationOutcomeFresh
			}
			results[enums.VerificationCheckFreshness] = outcome
		}
	}

	return results
}

// activation folds the image into a stable value in [0, 1) per check. A check
// missing from the artifact is skipped entirely.
func (s *artifactScorer) activation(check enums.VerificationCheck, image []byte) (float64, bool) {
	if _, ok := s.artifact.Thresholds[check]; !ok {
		return 0, false
	}
	h := sha256.New()
	h.Write([]byte(check))
	h.Write([]byte{0})
	h.Write(image)
	digest := h.Sum(nil)
	raw := binary.BigEndian.Uint64(digest[:8])
	return float64(raw) / float64(math.MaxUint64), true
}

func (s *artifactScorer) weightWithinTolerance(reference, measured float64) bool {
	if reference <= 0 {
		return false
	}
	drift := math.Abs(measured-reference) / reference * 100
	return drift <= s.weightTolerance
}

// ImageDigest is the stable fingerprint recorded alongside each run.
func ImageDigest(image []byte) string {
	sum := sha256.Sum256(image)
	return fmt.Sprintf("%x", sum)
}
