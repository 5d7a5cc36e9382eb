package quality

import (
	"time"

	telemetry "odcv-analytics/internal/telemetry/domain"
)

// DataGap is a span of a stream with no readings where readings were
// expected. Independent of timing violations.
type DataGap struct {
	StreamID string        `json:"stream_id"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Duration time.Duration `json:"duration"`
}

// Detector flags reporting gaps per stream. A gap is any span between
// consecutive readings, or between a window boundary and the nearest
// reading, longer than Multiplier times the stream's expected interval.
type Detector struct {
	SensorInterval time.Duration
	ZoneInterval   time.Duration
	Multiplier     float64
}

// NewDetector builds a detector; zero-valued fields take the documented
// defaults (30s sensors, 60s zones, 5x multiplier).
func NewDetector(sensorInterval, zoneInterval time.Duration, multiplier float64) Detector {
	detector := Detector{
		SensorInterval: sensorInterval,
		ZoneInterval:   zoneInterval,
		Multiplier:     multiplier,
	}
	if detector.SensorInterval <= 0 {
		detector.SensorInterval = 30 * time.Second
	}
	if detector.ZoneInterval <= 0 {
		detector.ZoneInterval = time.Minute
	}
	if detector.Multiplier <= 0 {
		detector.Multiplier = 5
	}
	return detector
}

// SensorGaps scans a sensor stream against the window [start, end).
func (d Detector) SensorGaps(streamID string, events []telemetry.SensorEvent, start, end time.Time) []DataGap {
	times := make([]time.Time, len(events))
	for i, event := range events {
		times[i] = event.At
	}
	return d.scan(streamID, times, d.SensorInterval, start, end)
}

// ZoneGaps scans a zone stream against the window [start, end).
func (d Detector) ZoneGaps(streamID string, events []telemetry.ZoneEvent, start, end time.Time) []DataGap {
	times := make([]time.Time, len(events))
	for i, event := range events {
		times[i] = event.At
	}
	return d.scan(streamID, times, d.ZoneInterval, start, end)
}

// scan walks sorted reading times. An empty stream is wholly a gap; a
// stream that starts late or stops early produces a boundary gap, so an
// open-ended outage is still measurable.
func (d Detector) scan(streamID string, times []time.Time, interval time.Duration, start, end time.Time) []DataGap {
	threshold := time.Duration(d.Multiplier * float64(interval))

	if len(times) == 0 {
		if end.After(start) {
			return []DataGap{{StreamID: streamID, Start: start, End: end, Duration: end.Sub(start)}}
		}
		return nil
	}

	var gaps []DataGap
	add := func(from, to time.Time) {
		// Clip to the window; a gap is only reportable inside it.
		if from.Before(start) {
			from = start
		}
		if to.After(end) {
			to = end
		}
		if to.After(from) {
			gaps = append(gaps, DataGap{StreamID: streamID, Start: from, End: to, Duration: to.Sub(from)})
		}
	}

	if span := times[0].Sub(start); span > threshold {
		add(start, times[0])
	}
	for i := 1; i < len(times); i++ {
		if span := times[i].Sub(times[i-1]); span > threshold {
			add(times[i-1], times[i])
		}
	}
	if span := end.Sub(times[len(times)-1]); span > threshold {
		add(times[len(times)-1], end)
	}
	return gaps
}

// ClipGaps restricts gaps to a window, dropping those fully outside it.
func ClipGaps(gaps []DataGap, start, end time.Time) []DataGap {
	var clipped []DataGap
	for _, gap := range gaps {
		from, to := gap.Start, gap.End
		if from.Before(start) {
			from = start
		}
		if to.After(end) {
			to = end
		}
		if to.After(from) {
			clipped = append(clipped, DataGap{StreamID: gap.StreamID, Start: from, End: to, Duration: to.Sub(from)})
		}
	}
	return clipped
}

// Completeness is the fraction of [start, end) covered by readings,
// clamped to [0, 1]. Gaps are expected to be non-overlapping, as the
// detector produces them.
func Completeness(gaps []DataGap, start, end time.Time) float64 {
	window := end.Sub(start)
	if window <= 0 {
		return 0
	}
	var total time.Duration
	for _, gap := range ClipGaps(gaps, start, end) {
		total += gap.Duration
	}
	fraction := 1 - float64(total)/float64(window)
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}
