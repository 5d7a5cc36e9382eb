package apihttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	application "odcv-analytics/internal/analytics/application"
	analytics "odcv-analytics/internal/analytics/domain"
	masterdata "odcv-analytics/internal/masterdata/domain"
	"odcv-analytics/internal/observability/metrics"
	report "odcv-analytics/internal/report/interfaces"
	rules "odcv-analytics/internal/rules/domain"
	telemetry "odcv-analytics/internal/telemetry/domain"
	csvsource "odcv-analytics/internal/telemetry/infrastructure/csvsource"
)

const timeLayout = time.RFC3339

// DatasetHandler accepts CSV dataset uploads.
type DatasetHandler struct {
	store *DatasetStore
}

// NewDatasetHandler constructs a DatasetHandler.
func NewDatasetHandler(store *DatasetStore) *DatasetHandler {
	return &DatasetHandler{store: store}
}

// ServeHTTP handles POST /api/v1/datasets with a CSV body.
func (h *DatasetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.store == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	records, skipped, err := csvsource.Read(r.Body)
	if err != nil {
		metrics.IncDatasetUpload(metrics.ResultError)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(records) == 0 {
		metrics.IncDatasetUpload(metrics.ResultError)
		http.Error(w, "dataset contains no usable records", http.StatusBadRequest)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload-" + time.Now().UTC().Format("20060102T150405")
	}
	h.store.Replace(name, records)
	metrics.IncDatasetUpload(metrics.ResultSuccess)
	metrics.AddDatasetRecords(len(records))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"name":         name,
		"records":      len(records),
		"skipped_rows": skipped,
	})
}

// windowRequest selects either a named lookback or an explicit range.
type windowRequest struct {
	Name  string `json:"name,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// runRequest is the analysis API payload.
type runRequest struct {
	Profile string            `json:"profile"`
	Windows []windowRequest   `json:"windows,omitempty"`
	Mapping map[string]string `json:"mapping,omitempty"`
}

// AnalysisHandler runs the engine over the stored dataset. The mapping
// argument is the configured fallback used when a request omits one.
type AnalysisHandler struct {
	store   *DatasetStore
	service *application.Service
	mapping map[string]string
}

// NewAnalysisHandler constructs an AnalysisHandler.
func NewAnalysisHandler(store *DatasetStore, service *application.Service, mapping map[string]string) *AnalysisHandler {
	return &AnalysisHandler{store: store, service: service, mapping: mapping}
}

// ServeHTTP handles POST /api/v1/analysis/run.
func (h *AnalysisHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.store == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Profile == "" {
		req.Profile = rules.DefaultProfileName
	}
	if len(req.Mapping) == 0 {
		req.Mapping = h.mapping
	}

	_, records, ok := h.store.Snapshot()
	if !ok {
		http.Error(w, "no dataset loaded", http.StatusConflict)
		return
	}

	windows, err := resolveWindows(req.Windows, latestTimestamp(records))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	result, err := h.service.Run(r.Context(), application.RunRequest{
		Records:     records,
		Mapping:     req.Mapping,
		ProfileName: req.Profile,
		Windows:     windows,
	})
	if err != nil {
		metrics.ObserveAnalysisRun(metrics.ResultError, time.Since(start))
		status := http.StatusInternalServerError
		if errors.Is(err, rules.ErrInvalidProfile) || errors.Is(err, masterdata.ErrMappingCardinalityMismatch) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	metrics.ObserveAnalysisRun(metrics.ResultSuccess, time.Since(start))
	for _, zone := range result.Zones {
		for _, violation := range zone.Violations {
			metrics.AddViolations(string(violation.Kind), 1)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// ProfilesHandler lists the configured timing profiles.
type ProfilesHandler struct {
	profiles *rules.ProfileSet
}

// NewProfilesHandler constructs a ProfilesHandler.
func NewProfilesHandler(profiles *rules.ProfileSet) *ProfilesHandler {
	return &ProfilesHandler{profiles: profiles}
}

// ServeHTTP handles GET /api/v1/profiles.
func (h *ProfilesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.profiles == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	type profileView struct {
		Name                       string  `json:"name"`
		UnoccupiedToStandbyMinutes float64 `json:"unoccupied_to_standby_minutes"`
		OccupiedToActiveMinutes    float64 `json:"occupied_to_active_minutes"`
		StandbyToleranceMinutes    float64 `json:"standby_tolerance_minutes"`
		ActiveToleranceMinutes     float64 `json:"active_tolerance_minutes"`
	}
	views := make([]profileView, 0)
	for _, profile := range h.profiles.All() {
		views = append(views, profileView{
			Name:                       profile.Name,
			UnoccupiedToStandbyMinutes: profile.UnoccupiedToStandby.Minutes(),
			OccupiedToActiveMinutes:    profile.OccupiedToActive.Minutes(),
			StandbyToleranceMinutes:    profile.StandbyTolerance.Minutes(),
			ActiveToleranceMinutes:     profile.ActiveTolerance.Minutes(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

// ReportHandler exports the compliance report for the stored dataset.
type ReportHandler struct {
	store   *DatasetStore
	service *application.Service
	mapping map[string]string
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(store *DatasetStore, service *application.Service, mapping map[string]string) *ReportHandler {
	return &ReportHandler{store: store, service: service, mapping: mapping}
}

// ServeHTTP handles GET /api/v1/reports/compliance.{xlsx,pdf}.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.store == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	var format string
	switch {
	case strings.HasSuffix(r.URL.Path, ".xlsx"):
		format = "xlsx"
	case strings.HasSuffix(r.URL.Path, ".pdf"):
		format = "pdf"
	default:
		http.Error(w, "unsupported report format", http.StatusNotFound)
		return
	}

	profile := r.URL.Query().Get("profile")
	if profile == "" {
		profile = rules.DefaultProfileName
	}
	name, records, ok := h.store.Snapshot()
	if !ok {
		http.Error(w, "no dataset loaded", http.StatusConflict)
		return
	}

	start := time.Now()
	result, err := h.service.Run(r.Context(), application.RunRequest{
		Records:     records,
		Mapping:     h.mapping,
		ProfileName: profile,
	})
	if err != nil {
		metrics.ObserveReportExport(format, metrics.ResultError, time.Since(start))
		status := http.StatusInternalServerError
		if errors.Is(err, rules.ErrInvalidProfile) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	var payload []byte
	var contentType string
	switch format {
	case "xlsx":
		payload, err = report.BuildComplianceXLSX(result)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "pdf":
		payload, err = report.BuildCompliancePDF(result)
		contentType = "application/pdf"
	}
	if err != nil {
		metrics.ObserveReportExport(format, metrics.ResultError, time.Since(start))
		http.Error(w, "report build error", http.StatusInternalServerError)
		return
	}
	metrics.ObserveReportExport(format, metrics.ResultSuccess, time.Since(start))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "compliance-"+name+"."+format))
	_, _ = w.Write(payload)
}

func resolveWindows(requests []windowRequest, anchor time.Time) ([]analytics.Window, error) {
	var windows []analytics.Window
	for _, wr := range requests {
		if wr.Name != "" {
			if anchor.IsZero() {
				return nil, fmt.Errorf("named window %q needs a dataset to anchor on", wr.Name)
			}
			window, err := analytics.NamedWindow(wr.Name, anchor)
			if err != nil {
				return nil, err
			}
			windows = append(windows, window)
			continue
		}
		start, err := time.Parse(timeLayout, wr.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid window start: %w", err)
		}
		end, err := time.Parse(timeLayout, wr.End)
		if err != nil {
			return nil, fmt.Errorf("invalid window end: %w", err)
		}
		window, err := analytics.NewWindow(start, end)
		if err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	return windows, nil
}

func latestTimestamp(records []telemetry.RawRecord) time.Time {
	var anchor time.Time
	for _, record := range records {
		if record.At.After(anchor) {
			anchor = record.At
		}
	}
	return anchor
}
