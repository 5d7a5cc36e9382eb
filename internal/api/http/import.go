package apihttp

import (
	"encoding/json"
	"net/http"
	"time"

	"odcv-analytics/internal/observability/metrics"
	"odcv-analytics/internal/telemetry/infrastructure/postgres"
)

// ImportHandler pulls a dataset out of the raw-record table.
type ImportHandler struct {
	store *DatasetStore
	query *postgres.RecordQuery
}

// NewImportHandler constructs an ImportHandler. The query may be nil when
// no database is configured; the handler then reports 503.
func NewImportHandler(store *DatasetStore, query *postgres.RecordQuery) *ImportHandler {
	return &ImportHandler{store: store, query: query}
}

type importRequest struct {
	Name  string `json:"name"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// ServeHTTP handles POST /api/v1/datasets/import.
func (h *ImportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.store == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	if h.query == nil {
		http.Error(w, "no database configured", http.StatusServiceUnavailable)
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	start, err := time.Parse(timeLayout, req.Start)
	if err != nil {
		http.Error(w, "invalid start timestamp", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(timeLayout, req.End)
	if err != nil {
		http.Error(w, "invalid end timestamp", http.StatusBadRequest)
		return
	}
	if !end.After(start) {
		http.Error(w, "end must be after start", http.StatusBadRequest)
		return
	}

	records, err := h.query.QueryRange(r.Context(), start, end)
	if err != nil {
		metrics.IncDatasetUpload(metrics.ResultError)
		http.Error(w, "record query failed", http.StatusBadGateway)
		return
	}
	if len(records) == 0 {
		metrics.IncDatasetUpload(metrics.ResultError)
		http.Error(w, "no records in range", http.StatusNotFound)
		return
	}

	name := req.Name
	if name == "" {
		name = "import-" + start.UTC().Format("20060102")
	}
	h.store.Replace(name, records)
	metrics.IncDatasetUpload(metrics.ResultSuccess)
	metrics.AddDatasetRecords(len(records))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"name":    name,
		"records": len(records),
	})
}
