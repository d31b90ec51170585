package snapshot

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Decode parses and validates a stats payload. A payload missing either
// top-level key is malformed, not an empty success: an agent that answers
// 200 with a truncated body must read as a decode failure so stale data
// stays on screen instead of an empty dashboard.
func Decode(body []byte) (*StatsSnapshot, error) {
	var probe map[string]jsoniter.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("malformed stats payload: %w", err)
	}
	if _, ok := probe["projects"]; !ok {
		return nil, fmt.Errorf("stats payload missing %q key", "projects")
	}
	if _, ok := probe["history"]; !ok {
		return nil, fmt.Errorf("stats payload missing %q key", "history")
	}

	var snap StatsSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("malformed stats payload: %w", err)
	}
	if snap.Projects == nil {
		snap.Projects = map[string]ProjectStats{}
	}
	if snap.History == nil {
		snap.History = []ActivityEntry{}
	}
	for name, stats := range snap.Projects {
		if stats.SuccessCount < 0 || stats.FailedCount < 0 {
			return nil, fmt.Errorf("project %q has negative counters (success=%d failed=%d)",
				name, stats.SuccessCount, stats.FailedCount)
		}
	}
	return &snap, nil
}
