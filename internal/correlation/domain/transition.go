package correlation

import (
	"time"

	telemetry "odcv-analytics/internal/telemetry/domain"
)

// Direction is the side a transition moves toward, named from the
// sensor's point of view. A sensor going unoccupied expects the zone to
// answer with standby; a sensor going occupied expects active.
type Direction string

const (
	DirectionToUnoccupied Direction = "to_unoccupied"
	DirectionToOccupied   Direction = "to_occupied"
)

// SensorTransition is one occupancy state change.
type SensorTransition struct {
	At        time.Time
	Direction Direction
}

// ZoneTransition is one zone mode change. Index is the position in the
// zone's event stream, kept so equal-timestamp choices stay tied to raw
// load order.
type ZoneTransition struct {
	At        time.Time
	Direction Direction
	Index     int
}

// SensorTransitions extracts state changes from a sorted sensor stream.
// The first event seeds state and is not a transition.
func SensorTransitions(events []telemetry.SensorEvent) []SensorTransition {
	var transitions []SensorTransition
	var occupied bool
	var seeded bool
	for _, event := range events {
		if seeded && event.Occupied != occupied {
			direction := DirectionToUnoccupied
			if event.Occupied {
				direction = DirectionToOccupied
			}
			transitions = append(transitions, SensorTransition{At: event.At, Direction: direction})
		}
		occupied = event.Occupied
		seeded = true
	}
	return transitions
}

// ZoneTransitions extracts mode changes from a sorted zone stream.
func ZoneTransitions(events []telemetry.ZoneEvent) []ZoneTransition {
	var transitions []ZoneTransition
	var mode telemetry.ZoneMode
	var seeded bool
	for i, event := range events {
		if seeded && event.Mode != mode {
			direction := DirectionToUnoccupied
			if event.Mode == telemetry.ZoneModeOccupied {
				direction = DirectionToOccupied
			}
			transitions = append(transitions, ZoneTransition{At: event.At, Direction: direction, Index: i})
		}
		mode = event.Mode
		seeded = true
	}
	return transitions
}
