package enums

import "fmt"

// VerificationCheck names an advisory check run against a packed order.
type VerificationCheck string

const (
	VerificationCheckPacking   VerificationCheck = "packing_status"
	VerificationCheckExpiry    VerificationCheck = "expiry"
	VerificationCheckFreshness VerificationCheck = "freshness"
)

var validVerificationChecks = []VerificationCheck{
	VerificationCheckPacking,
	VerificationCheckExpiry,
	VerificationCheckFreshness,
}

// String implements fmt.Stringer.
func (v VerificationCheck) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VerificationCheck.
func (v VerificationCheck) IsValid() bool {
	for _, candidate := range validVerificationChecks {
		if candidate == v {
			return true
		}
	}
	return false
}

// VerificationOutcome is the categorical result of a single check.
type VerificationOutcome string

const (
	VerificationOutcomePacked   VerificationOutcome = "packed"
	VerificationOutcomeUnpacked VerificationOutcome = "unpacked"
	VerificationOutcomeValid    VerificationOutcome = "valid"
	VerificationOutcomeExpired  VerificationOutcome = "expired"
	VerificationOutcomeFresh    VerificationOutcome = "fresh"
	VerificationOutcomeNotFresh VerificationOutcome = "not_fresh"
)

// outcomesByCheck pins which outcomes each check may produce.
var outcomesByCheck = map[VerificationCheck][]VerificationOutcome{
	VerificationCheckPacking:   {VerificationOutcomePacked, VerificationOutcomeUnpacked},
	VerificationCheckExpiry:    {VerificationOutcomeValid, VerificationOutcomeExpired},
	VerificationCheckFreshness: {VerificationOutcomeFresh, VerificationOutcomeNotFresh},
}

// String implements fmt.Stringer.
func (v VerificationOutcome) String() string {
	return string(v)
}

// IsValidFor reports whether the outcome belongs to the given check.
func (v VerificationOutcome) IsValidFor(check VerificationCheck) bool {
	for _, candidate := range outcomesByCheck[check] {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVerificationCheck converts raw input into a VerificationCheck.
func ParseVerificationCheck(value string) (VerificationCheck, error) {
	for _, candidate := range validVerificationChecks {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid verification check %q", value)
}
