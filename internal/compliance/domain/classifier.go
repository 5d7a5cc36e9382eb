package compliance

import (
	correlation "odcv-analytics/internal/correlation/domain"
	rules "odcv-analytics/internal/rules/domain"
)

// Classify applies a timing profile to one paired transition. Stateless
// and re-entrant: the same pair and profile always yield the same
// verdict, and the pair is never mutated.
//
// Policy: elapsed below the expected delay is premature; within the
// closed band [expected, expected+tolerance] is correct; above it is
// delayed.
func Classify(pair correlation.PairedTransition, profile rules.Profile) Verdict {
	expected := profile.OccupiedToActive
	tolerance := profile.ActiveTolerance
	premature := ViolationPrematureActive
	delayed := ViolationDelayedActive
	if pair.Direction == correlation.DirectionToUnoccupied {
		expected = profile.UnoccupiedToStandby
		tolerance = profile.StandbyTolerance
		premature = ViolationPrematureStandby
		delayed = ViolationDelayedStandby
	}

	verdict := Verdict{Pair: pair, Expected: expected, Tolerance: tolerance}
	switch {
	case pair.Elapsed < expected:
		verdict.Outcome = OutcomePremature
		verdict.Kind = premature
	case pair.Elapsed <= expected+tolerance:
		verdict.Outcome = OutcomeCorrect
	default:
		verdict.Outcome = OutcomeDelayed
		verdict.Kind = delayed
	}
	return verdict
}

// ClassifyAll classifies every paired transition in order.
func ClassifyAll(pairs []correlation.PairedTransition, profile rules.Profile) []Verdict {
	verdicts := make([]Verdict, 0, len(pairs))
	for _, pair := range pairs {
		verdicts = append(verdicts, Classify(pair, profile))
	}
	return verdicts
}

// Violations extracts the violation records from a verdict list.
func Violations(verdicts []Verdict) []Violation {
	var violations []Violation
	for _, verdict := range verdicts {
		if violation, ok := verdict.Violation(); ok {
			violations = append(violations, violation)
		}
	}
	return violations
}
