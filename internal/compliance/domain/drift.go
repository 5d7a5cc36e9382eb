package compliance

import (
	"fmt"
	"time"

	correlation "odcv-analytics/internal/correlation/domain"
	rules "odcv-analytics/internal/rules/domain"
	telemetry "odcv-analytics/internal/telemetry/domain"
)

const (
	// FindingOccupiedDrift flags a zone that is too rarely active while
	// its sensor reports occupied.
	FindingOccupiedDrift = "occupied_correlation_drift"
	// FindingStandbyDrift flags a zone too rarely in standby while its
	// sensor reports unoccupied.
	FindingStandbyDrift = "standby_correlation_drift"
)

// DriftValidator checks long-run correlation between sensor state and
// zone mode: over enough transitions, the zone should track the sensor
// within a configured drift band. Disabled installations simply do not
// register it.
type DriftValidator struct {
	MaxDriftPercent float64
	MinTransitions  int
}

// NewDriftValidator builds a drift validator with the given band.
func NewDriftValidator(maxDriftPercent float64, minTransitions int) DriftValidator {
	return DriftValidator{MaxDriftPercent: maxDriftPercent, MinTransitions: minTransitions}
}

// Name implements Validator.
func (DriftValidator) Name() string { return "occupancy_drift" }

// Evaluate implements Validator. The profile does not parameterize
// drift; it is accepted to satisfy the shared validator capability.
func (v DriftValidator) Evaluate(timeline *correlation.Timeline, _ rules.Profile) []Finding {
	transitions := len(timeline.Pairs) + len(timeline.Unanswered)
	if transitions < v.MinTransitions {
		return nil
	}

	occupiedTracked, occupiedTotal, standbyTracked, standbyTotal := trackedDurations(timeline)
	floor := 100 - v.MaxDriftPercent

	var findings []Finding
	var at time.Time
	if n := len(timeline.SensorEvents); n > 0 {
		at = timeline.SensorEvents[n-1].At
	}
	if occupiedTotal > 0 {
		ratio := 100 * float64(occupiedTracked) / float64(occupiedTotal)
		if ratio < floor {
			findings = append(findings, Finding{
				Validator: v.Name(),
				ZoneID:    timeline.ZoneID,
				Kind:      FindingOccupiedDrift,
				At:        at,
				Message:   fmt.Sprintf("zone active for %.1f%% of sensor-occupied time, floor %.1f%%", ratio, floor),
			})
		}
	}
	if standbyTotal > 0 {
		ratio := 100 * float64(standbyTracked) / float64(standbyTotal)
		if ratio < floor {
			findings = append(findings, Finding{
				Validator: v.Name(),
				ZoneID:    timeline.ZoneID,
				Kind:      FindingStandbyDrift,
				At:        at,
				Message:   fmt.Sprintf("zone in standby for %.1f%% of sensor-unoccupied time, floor %.1f%%", ratio, floor),
			})
		}
	}
	return findings
}

// trackedDurations integrates the merged streams: how much of the
// sensor-occupied time the zone spent active, and how much of the
// sensor-unoccupied time it spent in standby.
func trackedDurations(timeline *correlation.Timeline) (occupiedTracked, occupiedTotal, standbyTracked, standbyTotal time.Duration) {
	sensors := timeline.SensorEvents
	zones := timeline.ZoneEvents

	var sensorKnown, zoneKnown bool
	var occupied bool
	var mode telemetry.ZoneMode
	var last time.Time

	account := func(until time.Time) {
		if !sensorKnown || !zoneKnown {
			return
		}
		span := until.Sub(last)
		if occupied {
			occupiedTotal += span
			if mode == telemetry.ZoneModeOccupied {
				occupiedTracked += span
			}
		} else {
			standbyTotal += span
			if mode == telemetry.ZoneModeStandby {
				standbyTracked += span
			}
		}
	}

	// Both inputs are sorted; merge them in one linear sweep.
	si, zi := 0, 0
	for si < len(sensors) || zi < len(zones) {
		takeSensor := zi == len(zones) ||
			(si < len(sensors) && !sensors[si].At.After(zones[zi].At))
		if takeSensor {
			account(sensors[si].At)
			last = sensors[si].At
			occupied = sensors[si].Occupied
			sensorKnown = true
			si++
		} else {
			account(zones[zi].At)
			last = zones[zi].At
			mode = zones[zi].Mode
			zoneKnown = true
			zi++
		}
	}
	return occupiedTracked, occupiedTotal, standbyTracked, standbyTotal
}
