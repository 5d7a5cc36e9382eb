package application

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	analytics "odcv-analytics/internal/analytics/domain"
	compliance "odcv-analytics/internal/compliance/domain"
	correlation "odcv-analytics/internal/correlation/domain"
	masterdata "odcv-analytics/internal/masterdata/domain"
	quality "odcv-analytics/internal/quality/domain"
	rules "odcv-analytics/internal/rules/domain"
	telemetry "odcv-analytics/internal/telemetry/domain"
)

// RunRequest is one analysis invocation: raw records, an optional
// explicit sensor-to-zone mapping, a profile name, and the windows to
// aggregate over. Empty windows default to the named 24h/5d/30d
// lookbacks anchored at the dataset's latest timestamp.
type RunRequest struct {
	Records     []telemetry.RawRecord
	Mapping     map[string]string
	ProfileName string
	Windows     []analytics.Window
}

// ZoneResult is everything the run produced for one sensor-zone pair.
type ZoneResult struct {
	ZoneID     string                             `json:"zone_id"`
	SensorID   string                             `json:"sensor_id"`
	Statistics []analytics.ZoneStatistics         `json:"statistics"`
	Violations []compliance.Violation             `json:"violations"`
	Unanswered []correlation.UnansweredTransition `json:"unanswered"`
	Gaps       []quality.DataGap                  `json:"gaps"`
	Findings   []compliance.Finding               `json:"findings,omitempty"`
}

// RunReport is the output contract of a run: plain serializable
// records, no behavior.
type RunReport struct {
	Profile         string             `json:"profile"`
	Windows         []analytics.Window `json:"windows"`
	Zones           []ZoneResult       `json:"zones"`
	SkippedRecords  int                `json:"skipped_records"`
	UnmappedSensors []string           `json:"unmapped_sensors,omitempty"`
	UnpairedZones   []string           `json:"unpaired_zones,omitempty"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

// Service runs the compliance engine. A run is a pure function of
// (records, mapping, profile, windows); the service itself holds only
// immutable configuration.
type Service struct {
	profiles   *rules.ProfileSet
	catalog    *masterdata.Catalog
	detector   quality.Detector
	validators *compliance.Manager
	logger     *log.Logger
}

// NewService wires the engine.
func NewService(profiles *rules.ProfileSet, catalog *masterdata.Catalog, detector quality.Detector, validators *compliance.Manager, logger *log.Logger) (*Service, error) {
	if profiles == nil {
		return nil, fmt.Errorf("analysis service: nil profile set")
	}
	if catalog == nil {
		return nil, fmt.Errorf("analysis service: nil catalog")
	}
	if validators == nil {
		validators = compliance.NewManager()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		profiles:   profiles,
		catalog:    catalog,
		detector:   detector,
		validators: validators,
		logger:     logger,
	}, nil
}

// Run executes one analysis. Per-device problems are recovered locally
// and reported; a bad profile or a mapping cardinality mismatch aborts
// the run.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunReport, error) {
	profile, err := s.profiles.Get(req.ProfileName)
	if err != nil {
		return nil, err
	}

	part := telemetry.PartitionRecords(req.Records, s.catalog)
	for _, skipped := range part.Skipped {
		s.logger.Printf("analysis: skipping record for %q at %s: %s",
			skipped.Record.DeviceName, skipped.Record.At.Format(time.RFC3339), skipped.Reason)
	}

	mapping, err := s.resolveMapping(req, part)
	if err != nil {
		return nil, err
	}

	windows := req.Windows
	if len(windows) == 0 {
		windows = defaultWindows(req.Records)
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("analysis: no windows and no records to anchor them")
	}
	span := overallSpan(windows)

	report := &RunReport{
		Profile:        profile.Name,
		Windows:        windows,
		SkippedRecords: len(part.Skipped),
		GeneratedAt:    time.Now().UTC(),
	}

	pairedZones := make(map[string]bool)
	var tasks []masterdata.Pair
	for _, pair := range mapping.Pairs() {
		if _, ok := part.Sensors[pair.SensorID]; !ok {
			continue
		}
		pairedZones[pair.ZoneID] = true
		tasks = append(tasks, pair)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ZoneID < tasks[j].ZoneID })
	for _, sensorID := range part.SensorIDs() {
		if _, ok := mapping.ZoneFor(sensorID); !ok {
			report.UnmappedSensors = append(report.UnmappedSensors, sensorID)
		}
	}
	for _, zoneID := range part.ZoneIDs() {
		if !pairedZones[zoneID] {
			report.UnpairedZones = append(report.UnpairedZones, zoneID)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Zones are mutually independent; fan out one task per pair and
	// join. Results land by index so ordering stays deterministic.
	results := make([]ZoneResult, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task masterdata.Pair) {
			defer wg.Done()
			results[i] = s.analyzeZone(task, part, profile, windows, span)
		}(i, task)
	}
	wg.Wait()

	report.Zones = results
	return report, nil
}

// analyzeZone correlates, classifies, and aggregates one sensor-zone
// pair. Reads only its own streams plus the shared immutable profile.
func (s *Service) analyzeZone(pair masterdata.Pair, part *telemetry.Partition, profile rules.Profile, windows []analytics.Window, span analytics.Window) ZoneResult {
	sensorEvents := part.Sensors[pair.SensorID]
	zoneEvents := part.Zones[pair.ZoneID]

	timeline := correlation.Correlate(pair.SensorID, pair.ZoneID, sensorEvents, zoneEvents)
	verdicts := compliance.ClassifyAll(timeline.Pairs, profile)
	findings := s.validators.Evaluate(timeline, profile)

	sensorGaps := s.detector.SensorGaps(pair.SensorID, sensorEvents, span.Start, span.End)
	zoneGaps := s.detector.ZoneGaps(pair.ZoneID, zoneEvents, span.Start, span.End)

	inputs := analytics.ZoneInputs{
		ZoneID:     pair.ZoneID,
		Verdicts:   verdicts,
		Unanswered: timeline.Unanswered,
		ZoneEvents: zoneEvents,
		SensorGaps: sensorGaps,
		ZoneGaps:   zoneGaps,
	}
	stats := make([]analytics.ZoneStatistics, 0, len(windows))
	for _, window := range windows {
		stats = append(stats, analytics.ComputeZoneStatistics(inputs, window))
	}

	return ZoneResult{
		ZoneID:     pair.ZoneID,
		SensorID:   pair.SensorID,
		Statistics: stats,
		Violations: compliance.Violations(verdicts),
		Unanswered: timeline.Unanswered,
		Gaps:       append(append([]quality.DataGap(nil), sensorGaps...), zoneGaps...),
		Findings:   findings,
	}
}

func (s *Service) resolveMapping(req RunRequest, part *telemetry.Partition) (*masterdata.Mapping, error) {
	if len(req.Mapping) > 0 {
		return masterdata.NewMapping(req.Mapping)
	}
	return masterdata.InferMapping(part.SensorIDs(), part.ZoneIDs())
}

// defaultWindows anchors the named lookbacks at the latest record.
func defaultWindows(records []telemetry.RawRecord) []analytics.Window {
	var anchor time.Time
	for _, record := range records {
		if record.At.After(anchor) {
			anchor = record.At
		}
	}
	if anchor.IsZero() {
		return nil
	}
	var windows []analytics.Window
	for _, name := range []string{"24h", "5d", "30d"} {
		if window, err := analytics.NamedWindow(name, anchor); err == nil {
			windows = append(windows, window)
		}
	}
	return windows
}

// overallSpan is the union of the requested windows; gap detection runs
// once over it and each window re-filters the result.
func overallSpan(windows []analytics.Window) analytics.Window {
	span := windows[0]
	for _, window := range windows[1:] {
		if window.Start.Before(span.Start) {
			span.Start = window.Start
		}
		if window.End.After(span.End) {
			span.End = window.End
		}
	}
	span.Name = ""
	return span
}

// SortZoneIDs is a small helper for presentation layers that want the
// report's zone ids.
func (r *RunReport) SortZoneIDs() []string {
	ids := make([]string, 0, len(r.Zones))
	for _, zone := range r.Zones {
		ids = append(ids, zone.ZoneID)
	}
	sort.Strings(ids)
	return ids
}
