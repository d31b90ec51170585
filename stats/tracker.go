// Package stats tracks client-side poll and feed counters for display in
// the dashboard and periodic console output.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Tracker tracks poll outcomes and activity-entry types.
type Tracker struct {
	// counters live in sync.Map + atomic.Uint64 so per-poll increments don't fight over a mutex
	outcomeCounts sync.Map // string -> *atomic.Uint64
	entryCounts   sync.Map // string -> *atomic.Uint64
	start         atomic.Int64
	transitions   atomic.Uint64
}

// NewTracker creates a new stats tracker
func NewTracker() *Tracker {
	t := &Tracker{}
	t.start.Store(time.Now().UnixNano())
	return t
}

// IncrementOutcome increases the count for a poll outcome (ok, not_modified,
// transport, auth, http, decode).
func (t *Tracker) IncrementOutcome(outcome string) {
	incrementCounter(&t.outcomeCounts, outcome)
}

// IncrementEntryType increases the count for an activity entry type
// (success, failure, anything else the agent reports).
func (t *Tracker) IncrementEntryType(entryType string) {
	incrementCounter(&t.entryCounts, entryType)
}

// IncrementTransitions records a connection-state flip.
func (t *Tracker) IncrementTransitions() {
	t.transitions.Add(1)
}

// GetOutcomeCounts returns a copy of poll outcome counts.
func (t *Tracker) GetOutcomeCounts() map[string]uint64 {
	counts := make(map[string]uint64)
	t.outcomeCounts.Range(func(key, value any) bool {
		counts[key.(string)] = value.(*atomic.Uint64).Load()
		return true
	})
	return counts
}

// GetEntryCounts returns a copy of activity entry counts.
func (t *Tracker) GetEntryCounts() map[string]uint64 {
	counts := make(map[string]uint64)
	t.entryCounts.Range(func(key, value any) bool {
		counts[key.(string)] = value.(*atomic.Uint64).Load()
		return true
	})
	return counts
}

// GetTotal returns the total number of polls across all outcomes.
func (t *Tracker) GetTotal() uint64 {
	var total uint64
	t.outcomeCounts.Range(func(_, value any) bool {
		total += value.(*atomic.Uint64).Load()
		return true
	})
	return total
}

// Transitions returns the cumulative number of connection-state flips.
func (t *Tracker) Transitions() uint64 {
	return t.transitions.Load()
}

// GetUptime returns how long the tracker has been running
func (t *Tracker) GetUptime() time.Duration {
	start := t.start.Load()
	return time.Since(time.Unix(0, start))
}

// Reset resets all counters
func (t *Tracker) Reset() {
	t.outcomeCounts.Range(func(key, _ any) bool {
		t.outcomeCounts.Delete(key)
		return true
	})
	t.entryCounts.Range(func(key, _ any) bool {
		t.entryCounts.Delete(key)
		return true
	})
	t.transitions.Store(0)
	t.start.Store(time.Now().UnixNano())
}

// SnapshotLines returns human-readable stats ready for console display.
func (t *Tracker) SnapshotLines() []string {
	lines := make([]string, 0, 2)
	lines = append(lines, formatMapCounts("Polls by outcome", &t.outcomeCounts))
	lines = append(lines, formatMapCounts("Feed entries by type", &t.entryCounts))
	return lines
}

func formatMapCounts(label string, counts *sync.Map) string {
	var builder strings.Builder
	builder.WriteString(label)
	builder.WriteString(": ")
	keys := make([]string, 0, 4)
	values := make(map[string]uint64, 4)
	counts.Range(func(key, value any) bool {
		k := key.(string)
		keys = append(keys, k)
		values[k] = value.(*atomic.Uint64).Load()
		return true
	})
	if len(keys) == 0 {
		builder.WriteString("(none)")
		return builder.String()
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			builder.WriteString(", ")
		}
		fmt.Fprintf(&builder, "%s=%d", k, values[k])
	}
	return builder.String()
}

func incrementCounter(m *sync.Map, key string) {
	if strings.TrimSpace(key) == "" {
		return
	}
	if value, ok := m.Load(key); ok {
		value.(*atomic.Uint64).Add(1)
		return
	}
	counter := &atomic.Uint64{}
	actual, loaded := m.LoadOrStore(key, counter)
	if loaded {
		actual.(*atomic.Uint64).Add(1)
		return
	}
	counter.Add(1)
}
