package apihttp

import (
	"sync"
	"time"

	telemetry "odcv-analytics/internal/telemetry/domain"
)

// DatasetStore holds the currently loaded dataset for API-driven runs.
// One dataset at a time; a new upload replaces the previous one.
type DatasetStore struct {
	mu       sync.RWMutex
	name     string
	records  []telemetry.RawRecord
	loadedAt time.Time
}

// NewDatasetStore constructs an empty store.
func NewDatasetStore() *DatasetStore {
	return &DatasetStore{}
}

// Replace swaps in a new dataset.
func (s *DatasetStore) Replace(name string, records []telemetry.RawRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	s.records = records
	s.loadedAt = time.Now().UTC()
}

// Snapshot returns the loaded dataset. The returned slice is shared and
// must be treated as read-only; every engine stage already is.
func (s *DatasetStore) Snapshot() (string, []telemetry.RawRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return "", nil, false
	}
	return s.name, s.records, true
}

// LoadedAt tells when the current dataset was loaded.
func (s *DatasetStore) LoadedAt() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt, !s.loadedAt.IsZero()
}
