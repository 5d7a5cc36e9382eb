package apihttp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	application "odcv-analytics/internal/analytics/application"
	masterdata "odcv-analytics/internal/masterdata/domain"
	quality "odcv-analytics/internal/quality/domain"
	rules "odcv-analytics/internal/rules/domain"
	telemetry "odcv-analytics/internal/telemetry/domain"
)

var base = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *application.Service {
	t.Helper()
	profiles, err := rules.NewProfileSet()
	if err != nil {
		t.Fatal(err)
	}
	detector := quality.NewDetector(time.Hour, time.Hour, 5)
	service, err := application.NewService(profiles, masterdata.NewCatalog(), detector, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return service
}

func loadedStore() *DatasetStore {
	store := NewDatasetStore()
	store.Replace("fixture", []telemetry.RawRecord{
		{At: base, DeviceName: "presence-101", Value: 1},
		{At: base.Add(10 * time.Minute), DeviceName: "presence-101", Value: 0},
		{At: base, DeviceName: "BV101", Value: 0},
		{At: base.Add(18 * time.Minute), DeviceName: "BV101", Value: 1},
	})
	return store
}

func TestDatasetHandler_Upload(t *testing.T) {
	store := NewDatasetStore()
	handler := NewDatasetHandler(store)

	body := "time,name,value\n2026-03-10T08:00:00Z,presence-101,1\n2026-03-10T08:00:30Z,presence-101,1\n"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/datasets?name=site-a", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["name"] != "site-a" || resp["records"] != float64(2) {
		t.Errorf("response = %v", resp)
	}
	if name, records, ok := store.Snapshot(); !ok || name != "site-a" || len(records) != 2 {
		t.Errorf("store = %s/%d/%v", name, len(records), ok)
	}
}

func TestDatasetHandler_RejectsEmptyAndBadInput(t *testing.T) {
	handler := NewDatasetHandler(NewDatasetStore())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/datasets", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/datasets", strings.NewReader("time,name,value\n")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty dataset status = %d, want 400", rec.Code)
	}
}

func TestAnalysisHandler_Run(t *testing.T) {
	handler := NewAnalysisHandler(loadedStore(), newTestService(t), nil)

	payload := `{"profile":"default","windows":[{"start":"2026-03-10T08:00:00Z","end":"2026-03-10T10:00:00Z"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analysis/run", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var report application.RunReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Profile != "default" || len(report.Zones) != 1 {
		t.Errorf("report = profile %s, %d zones", report.Profile, len(report.Zones))
	}
	if report.Zones[0].Statistics[0].PrematureCount != 1 {
		t.Errorf("statistics = %+v", report.Zones[0].Statistics[0])
	}
}

func TestAnalysisHandler_ErrorMapping(t *testing.T) {
	service := newTestService(t)

	cases := []struct {
		name    string
		store   *DatasetStore
		payload string
		status  int
	}{
		{"invalid profile", loadedStore(), `{"profile":"aggressive"}`, http.StatusBadRequest},
		{"bad window name", loadedStore(), `{"windows":[{"name":"7d"}]}`, http.StatusBadRequest},
		{"bad json", loadedStore(), `{`, http.StatusBadRequest},
		{"no dataset", NewDatasetStore(), `{}`, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewAnalysisHandler(tc.store, service, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/analysis/run", strings.NewReader(tc.payload)))
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tc.status, rec.Body.String())
			}
		})
	}
}

func TestAnalysisHandler_MappingMismatchIs400(t *testing.T) {
	store := loadedStore()
	_, records, _ := store.Snapshot()
	store.Replace("fixture", append(append([]telemetry.RawRecord(nil), records...),
		telemetry.RawRecord{At: base, DeviceName: "BV102", Value: 0}))

	handler := NewAnalysisHandler(store, newTestService(t), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/analysis/run", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestProfilesHandler(t *testing.T) {
	profiles, err := rules.NewProfileSet(rules.Profile{
		Name:                "strict",
		UnoccupiedToStandby: 15 * time.Minute,
		OccupiedToActive:    5 * time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}
	handler := NewProfilesHandler(profiles)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profiles", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var views []struct {
		Name                       string  `json:"name"`
		UnoccupiedToStandbyMinutes float64 `json:"unoccupied_to_standby_minutes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatal(err)
	}
	if len(views) != 2 || views[0].Name != "default" || views[1].Name != "strict" {
		t.Errorf("views = %+v", views)
	}
	if views[0].UnoccupiedToStandbyMinutes != 15 {
		t.Errorf("default delay = %g, want 15", views[0].UnoccupiedToStandbyMinutes)
	}
}

func TestReportHandler_Formats(t *testing.T) {
	handler := NewReportHandler(loadedStore(), newTestService(t), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/compliance.xlsx", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("xlsx status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("xlsx content type = %s", got)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "compliance-fixture.xlsx") {
		t.Errorf("disposition = %s", rec.Header().Get("Content-Disposition"))
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/compliance.pdf", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("pdf status = %d: %s", rec.Code, rec.Body.String())
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("pdf body missing magic header")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/compliance.csv", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown format status = %d, want 404", rec.Code)
	}
}

func TestImportHandler_NoDatabase(t *testing.T) {
	handler := NewImportHandler(NewDatasetStore(), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/datasets/import",
		strings.NewReader(`{"start":"2026-03-10T00:00:00Z","end":"2026-03-11T00:00:00Z"}`)))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
