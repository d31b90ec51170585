package snapshot

// SeenSet remembers activity-entry keys across snapshot replacements so the
// feed only surfaces entries that were not present in an earlier poll. The
// set is bounded; the oldest keys are evicted in insertion order, which is
// safe because the agent's history itself is bounded by retention.
type SeenSet struct {
	keys  map[uint64]struct{}
	order []uint64
	head  int
	max   int
}

// NewSeenSet creates a set bounded to max keys. Non-positive max falls back
// to a default comfortably larger than any agent history window.
func NewSeenSet(max int) *SeenSet {
	if max <= 0 {
		max = 4096
	}
	return &SeenSet{
		keys:  make(map[uint64]struct{}, max),
		order: make([]uint64, max),
		max:   max,
	}
}

// Mark records a key and reports whether it was already present.
func (s *SeenSet) Mark(key uint64) bool {
	if s == nil {
		return false
	}
	if _, ok := s.keys[key]; ok {
		return true
	}
	if len(s.keys) >= s.max {
		evict := s.order[s.head]
		delete(s.keys, evict)
	}
	s.keys[key] = struct{}{}
	s.order[s.head] = key
	s.head = (s.head + 1) % s.max
	return false
}

// Len returns the number of remembered keys.
func (s *SeenSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// NewEntries returns the history entries of snap that have not been seen
// before, in the agent's order, and marks them seen. The agent reports
// newest-first; callers that append to a chronological feed should walk the
// result backwards.
func NewEntries(snap *StatsSnapshot, seen *SeenSet) []ActivityEntry {
	if snap == nil || seen == nil {
		return nil
	}
	var fresh []ActivityEntry
	for _, entry := range snap.History {
		if seen.Mark(entry.Key()) {
			continue
		}
		fresh = append(fresh, entry)
	}
	return fresh
}
