package analytics

import (
	"time"

	compliance "odcv-analytics/internal/compliance/domain"
	correlation "odcv-analytics/internal/correlation/domain"
	quality "odcv-analytics/internal/quality/domain"
	telemetry "odcv-analytics/internal/telemetry/domain"
)

// ZoneStatistics is the derived per-zone, per-window rollup. Always
// recomputable from raw events plus the chosen profile; never the
// source of truth.
type ZoneStatistics struct {
	ZoneID                  string  `json:"zone_id"`
	Window                  Window  `json:"window"`
	CorrectCount            int     `json:"correct_count"`
	PrematureCount          int     `json:"premature_count"`
	DelayedCount            int     `json:"delayed_count"`
	UnansweredCount         int     `json:"unanswered_count"`
	TotalTransitions        int     `json:"total_transitions"`
	PerformanceScore        float64 `json:"performance_score"`
	OccupancyPercent        float64 `json:"occupancy_percent"`
	StandbyPercent          float64 `json:"standby_percent"`
	DataCompletenessPercent float64 `json:"data_completeness_percent"`
}

// ZoneInputs are the already-computed per-zone artifacts a window
// rollup filters. Aggregation never mutates them, so one zone's inputs
// fan out to any number of windows, concurrently if needed.
type ZoneInputs struct {
	ZoneID     string
	Verdicts   []compliance.Verdict
	Unanswered []correlation.UnansweredTransition
	ZoneEvents []telemetry.ZoneEvent
	SensorGaps []quality.DataGap
	ZoneGaps   []quality.DataGap
}

// ComputeZoneStatistics rolls one zone's classifications and gaps into
// a window. A paired transition counts at its zone transition time; an
// unanswered one at its sensor transition time. A window with no
// transitions scores 0, not NaN.
func ComputeZoneStatistics(in ZoneInputs, window Window) ZoneStatistics {
	stats := ZoneStatistics{ZoneID: in.ZoneID, Window: window}

	for _, verdict := range in.Verdicts {
		if !window.Contains(verdict.Pair.ZoneAt) {
			continue
		}
		switch verdict.Outcome {
		case compliance.OutcomeCorrect:
			stats.CorrectCount++
		case compliance.OutcomePremature:
			stats.PrematureCount++
		case compliance.OutcomeDelayed:
			stats.DelayedCount++
		}
	}
	for _, open := range in.Unanswered {
		if window.Contains(open.SensorAt) {
			stats.UnansweredCount++
		}
	}

	stats.TotalTransitions = stats.CorrectCount + stats.PrematureCount + stats.DelayedCount
	if stats.TotalTransitions > 0 {
		stats.PerformanceScore = float64(stats.CorrectCount) / float64(stats.TotalTransitions)
	}

	occupied, standby := timeInModes(in.ZoneEvents, window)
	if duration := window.Duration(); duration > 0 {
		stats.OccupancyPercent = 100 * float64(occupied) / float64(duration)
		stats.StandbyPercent = 100 * float64(standby) / float64(duration)
	}

	sensorCompleteness := quality.Completeness(in.SensorGaps, window.Start, window.End)
	zoneCompleteness := quality.Completeness(in.ZoneGaps, window.Start, window.End)
	stats.DataCompletenessPercent = 100 * (sensorCompleteness + zoneCompleteness) / 2

	return stats
}

// timeInModes integrates zone mode over the window. Time before the
// first reading is unknown and attributed to neither mode.
func timeInModes(events []telemetry.ZoneEvent, window Window) (occupied, standby time.Duration) {
	var mode telemetry.ZoneMode
	var known bool
	last := window.Start

	accumulate := func(from, to time.Time) {
		if from.Before(window.Start) {
			from = window.Start
		}
		if to.After(window.End) {
			to = window.End
		}
		if !to.After(from) {
			return
		}
		if mode == telemetry.ZoneModeOccupied {
			occupied += to.Sub(from)
		} else {
			standby += to.Sub(from)
		}
	}

	for _, event := range events {
		if known {
			accumulate(last, event.At)
		}
		mode = event.Mode
		known = true
		last = event.At
		if !event.At.Before(window.End) {
			break
		}
	}
	if known && last.Before(window.End) {
		accumulate(last, window.End)
	}
	return occupied, standby
}
