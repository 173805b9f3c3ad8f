package monitor

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestSearchMonitor_RecordQuery(t *testing.T) {
	m := New()
	m.RecordQuery("alice", 100*time.Millisecond)
	m.RecordQuery("bob", 300*time.Millisecond)

	snap := m.Snapshot()
	if snap.TotalQueries != 2 {
		t.Errorf("TotalQueries = %v, want 2", snap.TotalQueries)
	}
	if snap.AverageExecutionTime != 200*time.Millisecond {
		t.Errorf("AverageExecutionTime = %v, want 200ms", snap.AverageExecutionTime)
	}
	if len(snap.SlowQueries) != 0 {
		t.Errorf("SlowQueries = %v, want none", snap.SlowQueries)
	}
}

func TestSearchMonitor_SlowQueries(t *testing.T) {
	m := New()
	m.RecordQuery("fast", 10*time.Millisecond)
	m.RecordQuery("slow", SlowQueryThreshold)

	snap := m.Snapshot()
	if len(snap.SlowQueries) != 1 {
		t.Fatalf("SlowQueries = %v, want 1", snap.SlowQueries)
	}
	if snap.SlowQueries[0].Query != "slow" {
		t.Errorf("slow query = %v, want slow", snap.SlowQueries[0].Query)
	}
}

func TestSearchMonitor_SlowQueryRingIsBounded(t *testing.T) {
	m := New()
	for i := 0; i < ringSize+5; i++ {
		m.RecordQuery(fmt.Sprintf("slow-%d", i), 2*SlowQueryThreshold)
	}

	snap := m.Snapshot()
	if len(snap.SlowQueries) != ringSize {
		t.Fatalf("SlowQueries = %d entries, want %d", len(snap.SlowQueries), ringSize)
	}
	// Oldest entries are evicted first.
	if snap.SlowQueries[0].Query != "slow-5" {
		t.Errorf("oldest kept = %v, want slow-5", snap.SlowQueries[0].Query)
	}
}

func TestSearchMonitor_RecordError(t *testing.T) {
	m := New()
	m.RecordError("alice", errors.New("backend down"))

	snap := m.Snapshot()
	if snap.ErrorCount != 1 {
		t.Errorf("ErrorCount = %v, want 1", snap.ErrorCount)
	}
	if len(snap.LastErrors) != 1 || snap.LastErrors[0].Message != "backend down" {
		t.Errorf("LastErrors = %v, want one backend down entry", snap.LastErrors)
	}
}

func TestSearchMonitor_TruncatesLongQueries(t *testing.T) {
	m := New()
	long := ""
	for i := 0; i < maxQueryLen+50; i++ {
		long += "a"
	}
	m.RecordError(long, errors.New("x"))

	snap := m.Snapshot()
	if len(snap.LastErrors[0].Query) != maxQueryLen {
		t.Errorf("stored query length = %d, want %d", len(snap.LastErrors[0].Query), maxQueryLen)
	}
}

func TestSearchMonitor_TruncatesOnRuneBoundary(t *testing.T) {
	m := New()
	long := strings.Repeat("ä", maxQueryLen)
	m.RecordError(long, errors.New("x"))

	snap := m.Snapshot()
	got := snap.LastErrors[0].Query
	if len(got) > maxQueryLen {
		t.Errorf("stored query length = %d, want at most %d", len(got), maxQueryLen)
	}
	if !utf8.ValidString(got) {
		t.Errorf("stored query %q is not valid UTF-8", got)
	}
}

func TestSearchMonitor_Reset(t *testing.T) {
	m := New()
	m.RecordQuery("alice", time.Second)
	m.RecordError("bob", errors.New("x"))

	m.Reset()

	snap := m.Snapshot()
	if snap.TotalQueries != 0 || snap.ErrorCount != 0 {
		t.Errorf("Snapshot after Reset = %+v, want zeroed", snap)
	}
	if len(snap.SlowQueries) != 0 || len(snap.LastErrors) != 0 {
		t.Errorf("rings after Reset = %v/%v, want empty", snap.SlowQueries, snap.LastErrors)
	}
}
