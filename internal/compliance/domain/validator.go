package compliance

import (
	"time"

	correlation "odcv-analytics/internal/correlation/domain"
	rules "odcv-analytics/internal/rules/domain"
)

// Finding is one validator observation over a zone timeline. Timing
// violations flow through Verdict/Violation; findings carry every other
// category a validator can raise, so new categories compose without
// touching the correlator.
type Finding struct {
	Validator string    `json:"validator"`
	ZoneID    string    `json:"zone_id"`
	Kind      string    `json:"kind"`
	At        time.Time `json:"at"`
	Message   string    `json:"message"`
}

// Validator evaluates one correlated sensor-zone timeline under a
// profile. Implementations must be stateless across calls and must not
// mutate the timeline.
type Validator interface {
	Name() string
	Evaluate(timeline *correlation.Timeline, profile rules.Profile) []Finding
}

// Manager composes validators and merges their findings in
// registration order.
type Manager struct {
	validators []Validator
}

// NewManager builds a manager over the given validators.
func NewManager(validators ...Validator) *Manager {
	return &Manager{validators: validators}
}

// Add appends a validator.
func (m *Manager) Add(validator Validator) {
	m.validators = append(m.validators, validator)
}

// Names lists registered validator names in order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.validators))
	for _, validator := range m.validators {
		names = append(names, validator.Name())
	}
	return names
}

// Evaluate runs every validator over the timeline.
func (m *Manager) Evaluate(timeline *correlation.Timeline, profile rules.Profile) []Finding {
	var findings []Finding
	for _, validator := range m.validators {
		findings = append(findings, validator.Evaluate(timeline, profile)...)
	}
	return findings
}
