package catalog

import "github.com/agentstation/launchsync/internal/utils/ptr"

// VerifiedField carries a value together with the truth score that backed it.
// A field is verified only when a score is present and exceeds the threshold
// it was applied with.
type VerifiedField[T any] struct {
	Value      T        `json:"value"`
	TruthScore *float64 `json:"truth_score,omitempty"`
	Verified   bool     `json:"verified"`
	Set        bool     `json:"set"`
}

// Raw wraps an unscored value. Raw values are unverified by construction.
func Raw[T any](v T) VerifiedField[T] {
	return VerifiedField[T]{Value: v, Set: true}
}

// Scored wraps a value with its truth score, verified when score > threshold.
func Scored[T any](v T, score, threshold float64) VerifiedField[T] {
	return VerifiedField[T]{
		Value:      v,
		TruthScore: ptr.To(score),
		Verified:   score > threshold,
		Set:        true,
	}
}

// IsSet reports whether the field has ever been assigned.
func (f VerifiedField[T]) IsSet() bool { return f.Set }
