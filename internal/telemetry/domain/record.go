package telemetry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RawRecord is one row as delivered by ingestion: a device reading
// before it is classified as sensor or zone data.
type RawRecord struct {
	At         time.Time
	DeviceName string
	Value      float64
}

// SensorEvent is an occupancy sensor reading.
type SensorEvent struct {
	SensorID string
	At       time.Time
	Occupied bool
}

// ZoneMode is the control mode reported by a zone.
type ZoneMode string

const (
	ZoneModeOccupied ZoneMode = "Occupied"
	ZoneModeStandby  ZoneMode = "Standby"
)

// ZoneEvent is a zone control mode reading.
type ZoneEvent struct {
	ZoneID string
	At     time.Time
	Mode   ZoneMode
}

// timestampLayouts are the wall-clock formats observed in exported datasets.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.000 -07:00",
	"2006-01-02 15:04:05 -07:00",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO-8601 style timestamp or epoch seconds.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("telemetry: empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	if epoch, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(epoch, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("telemetry: unparseable timestamp %q", value)
}
