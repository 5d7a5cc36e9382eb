package compliance

import (
	"time"

	correlation "odcv-analytics/internal/correlation/domain"
)

// Outcome is the compliance result of one paired transition. Exactly
// one outcome holds per pair.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomePremature Outcome = "premature"
	OutcomeDelayed   Outcome = "delayed"
)

// ViolationKind is the typed violation category.
type ViolationKind string

const (
	ViolationPrematureStandby ViolationKind = "premature_standby"
	ViolationPrematureActive  ViolationKind = "premature_active"
	ViolationDelayedStandby   ViolationKind = "delayed_standby"
	ViolationDelayedActive    ViolationKind = "delayed_active"
)

// Verdict is the classification of one paired transition under one
// profile. Kind is empty for correct outcomes.
type Verdict struct {
	Pair      correlation.PairedTransition
	Outcome   Outcome
	Kind      ViolationKind
	Expected  time.Duration
	Tolerance time.Duration
}

// Violation is the record emitted for a failed transition, with enough
// fields to place it on a timeline.
type Violation struct {
	ZoneID     string        `json:"zone_id"`
	Kind       ViolationKind `json:"kind"`
	OccurredAt time.Time     `json:"occurred_at"`
	Elapsed    time.Duration `json:"elapsed"`
	Expected   time.Duration `json:"expected"`
}

// Violation converts a failing verdict into its violation record.
func (v Verdict) Violation() (Violation, bool) {
	if v.Outcome == OutcomeCorrect {
		return Violation{}, false
	}
	return Violation{
		ZoneID:     v.Pair.ZoneID,
		Kind:       v.Kind,
		OccurredAt: v.Pair.ZoneAt,
		Elapsed:    v.Pair.Elapsed,
		Expected:   v.Expected,
	}, true
}
