package application

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	analytics "odcv-analytics/internal/analytics/domain"
	compliance "odcv-analytics/internal/compliance/domain"
	masterdata "odcv-analytics/internal/masterdata/domain"
	quality "odcv-analytics/internal/quality/domain"
	rules "odcv-analytics/internal/rules/domain"
	telemetry "odcv-analytics/internal/telemetry/domain"
)

var base = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func record(min int, device string, value float64) telemetry.RawRecord {
	return telemetry.RawRecord{At: base.Add(time.Duration(min) * time.Minute), DeviceName: device, Value: value}
}

// One premature standby (8m against 15m expected) and one correct
// activation (5m exactly).
func sampleRecords() []telemetry.RawRecord {
	return []telemetry.RawRecord{
		record(0, "presence-101", 1),
		record(10, "presence-101", 0),
		record(40, "presence-101", 1),
		record(0, "BV101", 0),
		record(18, "BV101", 1),
		record(45, "BV101", 0),
	}
}

func newTestService(t *testing.T, logger *log.Logger) *Service {
	t.Helper()
	profiles, err := rules.NewProfileSet()
	if err != nil {
		t.Fatal(err)
	}
	// Wide intervals keep sparse fixtures from reading as outages.
	detector := quality.NewDetector(time.Hour, time.Hour, 5)
	service, err := NewService(profiles, masterdata.NewCatalog(), detector, nil, logger)
	if err != nil {
		t.Fatal(err)
	}
	return service
}

func testWindow(t *testing.T) analytics.Window {
	t.Helper()
	window, err := analytics.NewWindow(base, base.Add(2*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	return window
}

func TestServiceRun_EndToEnd(t *testing.T) {
	service := newTestService(t, nil)
	report, err := service.Run(context.Background(), RunRequest{
		Records:     sampleRecords(),
		ProfileName: rules.DefaultProfileName,
		Windows:     []analytics.Window{testWindow(t)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.Profile != rules.DefaultProfileName {
		t.Errorf("profile = %s", report.Profile)
	}
	if len(report.Zones) != 1 {
		t.Fatalf("zones = %d, want 1", len(report.Zones))
	}

	zone := report.Zones[0]
	if zone.ZoneID != "BV101" || zone.SensorID != "presence-101" {
		t.Errorf("pairing = %s/%s", zone.SensorID, zone.ZoneID)
	}
	if len(zone.Statistics) != 1 {
		t.Fatalf("statistics = %d, want 1", len(zone.Statistics))
	}
	stats := zone.Statistics[0]
	if stats.CorrectCount != 1 || stats.PrematureCount != 1 || stats.DelayedCount != 0 {
		t.Errorf("counts = %d/%d/%d, want 1/1/0", stats.CorrectCount, stats.PrematureCount, stats.DelayedCount)
	}
	if stats.PerformanceScore != 0.5 {
		t.Errorf("score = %g, want 0.5", stats.PerformanceScore)
	}
	if len(zone.Violations) != 1 || zone.Violations[0].Kind != compliance.ViolationPrematureStandby {
		t.Errorf("violations = %+v", zone.Violations)
	}
}

func TestServiceRun_InvalidProfile(t *testing.T) {
	service := newTestService(t, nil)
	_, err := service.Run(context.Background(), RunRequest{
		Records:     sampleRecords(),
		ProfileName: "aggressive",
	})
	if !errors.Is(err, rules.ErrInvalidProfile) {
		t.Fatalf("err = %v, want ErrInvalidProfile", err)
	}
}

func TestServiceRun_MappingCardinalityMismatch(t *testing.T) {
	service := newTestService(t, nil)
	records := append(sampleRecords(), record(0, "BV102", 0))
	_, err := service.Run(context.Background(), RunRequest{
		Records:     records,
		ProfileName: rules.DefaultProfileName,
		Windows:     []analytics.Window{testWindow(t)},
	})
	if !errors.Is(err, masterdata.ErrMappingCardinalityMismatch) {
		t.Fatalf("err = %v, want ErrMappingCardinalityMismatch", err)
	}
}

func TestServiceRun_ExplicitMappingBypassesInference(t *testing.T) {
	service := newTestService(t, nil)
	records := append(sampleRecords(), record(0, "BV102", 0))
	report, err := service.Run(context.Background(), RunRequest{
		Records:     records,
		Mapping:     map[string]string{"presence-101": "BV101"},
		ProfileName: rules.DefaultProfileName,
		Windows:     []analytics.Window{testWindow(t)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Zones) != 1 {
		t.Fatalf("zones = %d, want 1", len(report.Zones))
	}
	if len(report.UnpairedZones) != 1 || report.UnpairedZones[0] != "BV102" {
		t.Errorf("unpaired zones = %v, want [BV102]", report.UnpairedZones)
	}
}

func TestServiceRun_SkippedRecordsLoggedAndCounted(t *testing.T) {
	var buf bytes.Buffer
	service := newTestService(t, log.New(&buf, "", 0))
	records := append(sampleRecords(),
		record(1, "thermostat-7", 1),
		record(2, "presence-101", 3.5),
	)
	report, err := service.Run(context.Background(), RunRequest{
		Records:     records,
		ProfileName: rules.DefaultProfileName,
		Windows:     []analytics.Window{testWindow(t)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if report.SkippedRecords != 2 {
		t.Errorf("skipped = %d, want 2", report.SkippedRecords)
	}
	if !bytes.Contains(buf.Bytes(), []byte("thermostat-7")) {
		t.Error("skipped device not logged")
	}
}

func TestServiceRun_DefaultWindows(t *testing.T) {
	service := newTestService(t, nil)
	report, err := service.Run(context.Background(), RunRequest{
		Records:     sampleRecords(),
		ProfileName: rules.DefaultProfileName,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Windows) != 3 {
		t.Fatalf("windows = %d, want the three named lookbacks", len(report.Windows))
	}
	names := []string{"24h", "5d", "30d"}
	latest := base.Add(45 * time.Minute)
	for i, window := range report.Windows {
		if window.Name != names[i] {
			t.Errorf("window[%d] = %s, want %s", i, window.Name, names[i])
		}
		if !window.End.Equal(latest) {
			t.Errorf("window %s end = %s, want latest record %s", window.Name, window.End, latest)
		}
	}
}

func TestServiceRun_NoRecordsNoWindows(t *testing.T) {
	service := newTestService(t, nil)
	if _, err := service.Run(context.Background(), RunRequest{ProfileName: rules.DefaultProfileName}); err == nil {
		t.Fatal("empty request must error")
	}
}

func TestServiceRun_CancelledContext(t *testing.T) {
	service := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := service.Run(ctx, RunRequest{
		Records:     sampleRecords(),
		ProfileName: rules.DefaultProfileName,
		Windows:     []analytics.Window{testWindow(t)},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestServiceRun_ManyZonesInParallel(t *testing.T) {
	var records []telemetry.RawRecord
	for _, suffix := range []string{"101", "102", "103", "104"} {
		sensor := "presence-" + suffix
		zone := "BV" + suffix
		records = append(records,
			telemetry.RawRecord{At: base, DeviceName: sensor, Value: 1},
			telemetry.RawRecord{At: base.Add(10 * time.Minute), DeviceName: sensor, Value: 0},
			telemetry.RawRecord{At: base, DeviceName: zone, Value: 0},
			telemetry.RawRecord{At: base.Add(25 * time.Minute), DeviceName: zone, Value: 1},
		)
	}
	service := newTestService(t, nil)
	report, err := service.Run(context.Background(), RunRequest{
		Records:     records,
		ProfileName: rules.DefaultProfileName,
		Windows:     []analytics.Window{testWindow(t)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Zones) != 4 {
		t.Fatalf("zones = %d, want 4", len(report.Zones))
	}
	// Results arrive in deterministic sensor order regardless of the
	// concurrent fan-out.
	for i, suffix := range []string{"101", "102", "103", "104"} {
		if report.Zones[i].ZoneID != "BV"+suffix {
			t.Errorf("zone[%d] = %s, want BV%s", i, report.Zones[i].ZoneID, suffix)
		}
		if report.Zones[i].Statistics[0].CorrectCount != 1 {
			t.Errorf("zone %s correct = %d, want 1 (15m response)", report.Zones[i].ZoneID, report.Zones[i].Statistics[0].CorrectCount)
		}
	}
}
