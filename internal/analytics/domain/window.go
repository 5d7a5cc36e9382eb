package analytics

import (
	"fmt"
	"time"
)

// Window is a half-open analysis range [Start, End).
type Window struct {
	Name  string    `json:"name,omitempty"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow builds an explicit window.
func NewWindow(start, end time.Time) (Window, error) {
	if start.IsZero() || end.IsZero() {
		return Window{}, fmt.Errorf("analytics: zero window boundary")
	}
	if !end.After(start) {
		return Window{}, fmt.Errorf("analytics: window end must be after start")
	}
	return Window{Start: start, End: end}, nil
}

// NamedWindow resolves a named lookback ("24h", "5d", "30d") anchored
// at the dataset's latest timestamp.
func NamedWindow(name string, anchor time.Time) (Window, error) {
	var span time.Duration
	switch name {
	case "24h":
		span = 24 * time.Hour
	case "5d":
		span = 5 * 24 * time.Hour
	case "30d":
		span = 30 * 24 * time.Hour
	default:
		return Window{}, fmt.Errorf("analytics: unknown window %q", name)
	}
	return Window{Name: name, Start: anchor.Add(-span), End: anchor}, nil
}

// Duration returns the window length.
func (w Window) Duration() time.Duration { return w.End.Sub(w.Start) }

// Contains reports whether t falls in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}
