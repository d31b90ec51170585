// Package snapshot defines the wire model for the agent stats endpoint and
// the structural validation applied to every fetched payload.
package snapshot

import (
	"github.com/zeebo/xxh3"
)

// ProjectStats holds the raw counters reported for a single project. Values
// are authoritative per snapshot; the client never accumulates across polls.
type ProjectStats struct {
	IsRunning    bool     `json:"is_running"`
	SuccessCount int      `json:"success_count"`
	FailedCount  int      `json:"failed_count"`
	FailReasons  []string `json:"fail_reasons"`
	LastRun      string   `json:"last_run"`

	// HasExecuted is reported by newer agents; absent means the agent has no
	// better signal and the project is treated as having executed.
	HasExecuted *bool `json:"has_executed,omitempty"`
}

// Executed reports whether the project has ever run. Missing flags default
// to true, matching the agent's older payloads.
func (p ProjectStats) Executed() bool {
	if p.HasExecuted == nil {
		return true
	}
	return *p.HasExecuted
}

// ActivityEntry is one item of the agent's activity history. The agent's
// ordering is authoritative and is preserved end to end.
type ActivityEntry struct {
	Timestamp string `json:"timestamp"`
	Project   string `json:"project"`
	Message   string `json:"message"`
	Type      string `json:"type"`
}

// Entry types reported by the agent. The field is open-ended; anything else
// is displayed as informational.
const (
	EntrySuccess = "success"
	EntryFailure = "failure"
)

// Key returns a stable hash of the entry, used to recognize entries already
// seen in a previous snapshot. Fields are NUL separated so adjacent fields
// cannot collide by concatenation.
func (e ActivityEntry) Key() uint64 {
	buf := make([]byte, 0, len(e.Timestamp)+len(e.Project)+len(e.Message)+len(e.Type)+4)
	for _, field := range []string{e.Timestamp, e.Project, e.Message, e.Type} {
		buf = append(buf, field...)
		buf = append(buf, 0)
	}
	return xxh3.Hash(buf)
}

// StatsSnapshot is one complete fetch result. It is replaced wholesale on
// every successful poll; fields of a stored snapshot are never mutated.
type StatsSnapshot struct {
	Projects map[string]ProjectStats `json:"projects"`
	History  []ActivityEntry         `json:"history"`
}
