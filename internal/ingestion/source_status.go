package ingestion

import (
	"sort"
	"sync"
	"time"
)

// SourceStatus is the crawl health of one source across runs.
type SourceStatus struct {
	Source              string        `json:"source"`
	Healthy             bool          `json:"healthy"`
	LastCrawl           time.Time     `json:"lastCrawl"`
	LastSuccess         time.Time     `json:"lastSuccess,omitempty"`
	LastError           string        `json:"lastError,omitempty"`
	LastItems           int           `json:"lastItems"`
	TotalItems          int64         `json:"totalItems"`
	TotalErrors         int64         `json:"totalErrors"`
	ConsecutiveFailures int           `json:"consecutiveFailures"`
	AverageLatency      time.Duration `json:"averageLatency"`
}

// StatusTracker records per-source crawl outcomes. It is safe for concurrent use.
type StatusTracker struct {
	mu       sync.RWMutex
	statuses map[string]*SourceStatus
}

// NewStatusTracker creates an empty tracker.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{statuses: make(map[string]*SourceStatus)}
}

// Update records one crawl of source.
func (t *StatusTracker) Update(source string, at time.Time, items int, duration time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.statuses[source]
	if !ok {
		s = &SourceStatus{Source: source}
		t.statuses[source] = s
	}

	s.LastCrawl = at
	s.LastItems = items
	s.TotalItems += int64(items)

	if err != nil {
		s.Healthy = false
		s.LastError = err.Error()
		s.TotalErrors++
		s.ConsecutiveFailures++
	} else {
		s.Healthy = true
		s.LastError = ""
		s.LastSuccess = at
		s.ConsecutiveFailures = 0
	}

	// Simple moving average
	if s.AverageLatency == 0 {
		s.AverageLatency = duration
	} else {
		s.AverageLatency = (s.AverageLatency + duration) / 2
	}
}

// Get returns the status of one source.
func (t *StatusTracker) Get(source string) (SourceStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.statuses[source]
	if !ok {
		return SourceStatus{}, false
	}
	return *s, true
}

// Snapshot returns every recorded status ordered by source id.
func (t *StatusTracker) Snapshot() []SourceStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]SourceStatus, 0, len(t.statuses))
	for _, s := range t.statuses {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}
