// Package monitor keeps request-scoped search metrics: query counts, a
// running latency average, and bounded logs of slow queries and errors.
// State is instance-local and resets only on restart or an explicit Reset.
package monitor

import (
	"sync"
	"time"
	"unicode/utf8"
)

const (
	// SlowQueryThreshold flags queries slower than this.
	SlowQueryThreshold = 1000 * time.Millisecond
	// ringSize bounds the slow-query and error logs.
	ringSize = 10
	// maxQueryLen bounds the stored copy of a query.
	maxQueryLen = 120
)

// SlowQuery is one flagged slow query.
type SlowQuery struct {
	Query    string        `json:"query"`
	Duration time.Duration `json:"duration"`
	At       time.Time     `json:"at"`
}

// ErrorEntry is one recorded search failure.
type ErrorEntry struct {
	Query   string    `json:"query"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Snapshot is a point-in-time copy of the monitor state for the health and
// analytics endpoints.
type Snapshot struct {
	TotalQueries         int64         `json:"totalQueries"`
	AverageExecutionTime time.Duration `json:"averageExecutionTime"`
	ErrorCount           int64         `json:"errorCount"`
	SlowQueries          []SlowQuery   `json:"slowQueries"`
	LastErrors           []ErrorEntry  `json:"lastErrors"`
}

// SearchMonitor is appended to concurrently by every request handler; all
// state is guarded by one mutex. Construct it explicitly and inject it;
// there is no package-level instance.
type SearchMonitor struct {
	mu            sync.Mutex
	totalQueries  int64
	totalDuration time.Duration
	errorCount    int64
	slowQueries   []SlowQuery
	lastErrors    []ErrorEntry
	now           func() time.Time
}

func New() *SearchMonitor {
	return &SearchMonitor{now: time.Now}
}

// RecordQuery records one completed search and flags it when slow.
func (m *SearchMonitor) RecordQuery(query string, took time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalQueries++
	m.totalDuration += took

	if took >= SlowQueryThreshold {
		m.slowQueries = appendBounded(m.slowQueries, SlowQuery{
			Query:    truncate(query),
			Duration: took,
			At:       m.now(),
		})
	}
}

// RecordError records one failed search.
func (m *SearchMonitor) RecordError(query string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.errorCount++
	m.lastErrors = appendBounded(m.lastErrors, ErrorEntry{
		Query:   truncate(query),
		Message: err.Error(),
		At:      m.now(),
	})
}

// Snapshot copies the current state.
func (m *SearchMonitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var avg time.Duration
	if m.totalQueries > 0 {
		avg = m.totalDuration / time.Duration(m.totalQueries)
	}

	snap := Snapshot{
		TotalQueries:         m.totalQueries,
		AverageExecutionTime: avg,
		ErrorCount:           m.errorCount,
		SlowQueries:          make([]SlowQuery, len(m.slowQueries)),
		LastErrors:           make([]ErrorEntry, len(m.lastErrors)),
	}
	copy(snap.SlowQueries, m.slowQueries)
	copy(snap.LastErrors, m.lastErrors)
	return snap
}

// Reset clears all recorded state.
func (m *SearchMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalQueries = 0
	m.totalDuration = 0
	m.errorCount = 0
	m.slowQueries = nil
	m.lastErrors = nil
}

func appendBounded[T any](ring []T, entry T) []T {
	ring = append(ring, entry)
	if len(ring) > ringSize {
		ring = ring[len(ring)-ringSize:]
	}
	return ring
}

// truncate cuts on a rune boundary so a multi-byte query never ends in a
// broken sequence.
func truncate(q string) string {
	if len(q) <= maxQueryLen {
		return q
	}
	cut := maxQueryLen
	for cut > 0 && !utf8.RuneStart(q[cut]) {
		cut--
	}
	return q[:cut]
}
