package correlation

import (
	"time"

	telemetry "odcv-analytics/internal/telemetry/domain"
)

// PairedTransition joins one sensor transition with the zone transition
// that answered it. Elapsed is never negative: a zone transition is
// only eligible at or after the sensor transition it answers.
type PairedTransition struct {
	ZoneID    string
	SensorAt  time.Time
	ZoneAt    time.Time
	Direction Direction
	Elapsed   time.Duration
}

// UnansweredTransition is a sensor transition superseded by the next
// sensor transition of the same direction, or left open at stream end,
// before any qualifying zone response. Reported as its own outcome,
// never coerced into a compliance verdict.
type UnansweredTransition struct {
	ZoneID    string
	SensorAt  time.Time
	Direction Direction
}

// Timeline is the correlated view of one sensor-zone pair. The event
// slices are retained read-only for time-in-state aggregation and for
// validators that inspect raw streams.
type Timeline struct {
	SensorID     string
	ZoneID       string
	Pairs        []PairedTransition
	Unanswered   []UnansweredTransition
	SensorEvents []telemetry.SensorEvent
	ZoneEvents   []telemetry.ZoneEvent
}

// Correlate merges a sensor's transitions with its mapped zone's
// transitions. Pairing is independent of any timing profile, so a
// timeline can be re-classified under different profiles without
// re-running this walk.
func Correlate(sensorID, zoneID string, sensorEvents []telemetry.SensorEvent, zoneEvents []telemetry.ZoneEvent) *Timeline {
	timeline := &Timeline{
		SensorID:     sensorID,
		ZoneID:       zoneID,
		SensorEvents: sensorEvents,
		ZoneEvents:   zoneEvents,
	}
	sensorTransitions := SensorTransitions(sensorEvents)
	zoneTransitions := ZoneTransitions(zoneEvents)
	timeline.Pairs, timeline.Unanswered = pair(zoneID, sensorTransitions, zoneTransitions)
	return timeline
}

// pair walks both transition lists once. For each sensor transition the
// zone cursor is advanced past responses that can no longer qualify,
// then the first zone transition of the matching direction wins; on
// equal timestamps that is the earliest-indexed one, which the stable
// per-device sort keeps in raw load order. A sensor transition whose
// qualifying response does not arrive before the next sensor transition
// of the same direction is unanswered.
func pair(zoneID string, sensor []SensorTransition, zone []ZoneTransition) ([]PairedTransition, []UnansweredTransition) {
	var pairs []PairedTransition
	var unanswered []UnansweredTransition

	// Deadline per sensor transition: the next sensor transition of the
	// same direction, computed in one backward sweep.
	deadlines := make([]time.Time, len(sensor))
	lastByDirection := make(map[Direction]time.Time, 2)
	for i := len(sensor) - 1; i >= 0; i-- {
		deadlines[i] = lastByDirection[sensor[i].Direction]
		lastByDirection[sensor[i].Direction] = sensor[i].At
	}

	cursor := 0
	for i, st := range sensor {
		for cursor < len(zone) && zone[cursor].At.Before(st.At) {
			cursor++
		}

		matched := false
		for k := cursor; k < len(zone); k++ {
			zt := zone[k]
			if !deadlines[i].IsZero() && !zt.At.Before(deadlines[i]) {
				break
			}
			if zt.Direction != st.Direction {
				continue
			}
			pairs = append(pairs, PairedTransition{
				ZoneID:    zoneID,
				SensorAt:  st.At,
				ZoneAt:    zt.At,
				Direction: st.Direction,
				Elapsed:   zt.At.Sub(st.At),
			})
			cursor = k + 1
			matched = true
			break
		}
		if !matched {
			unanswered = append(unanswered, UnansweredTransition{
				ZoneID:    zoneID,
				SensorAt:  st.At,
				Direction: st.Direction,
			})
		}
	}
	return pairs, unanswered
}
