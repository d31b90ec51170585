package snapshot

import (
	"fmt"
	"testing"
)

func TestEntryKeyDistinguishesFields(t *testing.T) {
	a := ActivityEntry{Timestamp: "t", Project: "ab", Message: "c", Type: "success"}
	b := ActivityEntry{Timestamp: "t", Project: "a", Message: "bc", Type: "success"}
	if a.Key() == b.Key() {
		t.Fatalf("field boundaries must affect the key")
	}
	if a.Key() != a.Key() {
		t.Fatalf("key must be stable")
	}
}

func TestSeenSetMark(t *testing.T) {
	s := NewSeenSet(8)
	if s.Mark(42) {
		t.Fatalf("first mark must report unseen")
	}
	if !s.Mark(42) {
		t.Fatalf("second mark must report seen")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}
}

func TestSeenSetEvictsOldest(t *testing.T) {
	s := NewSeenSet(3)
	for i := uint64(1); i <= 4; i++ {
		s.Mark(i)
	}
	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}
	if s.Mark(1) {
		t.Fatalf("oldest key should have been evicted")
	}
	if !s.Mark(4) {
		t.Fatalf("newest key must still be present")
	}
}

func TestNewEntriesAcrossSnapshots(t *testing.T) {
	entry := func(i int) ActivityEntry {
		return ActivityEntry{
			Timestamp: fmt.Sprintf("2026-08-01 10:00:%02d", i),
			Project:   "alpha",
			Message:   fmt.Sprintf("run %d", i),
			Type:      EntrySuccess,
		}
	}
	seen := NewSeenSet(0)

	first := &StatsSnapshot{History: []ActivityEntry{entry(2), entry(1)}}
	fresh := NewEntries(first, seen)
	if len(fresh) != 2 {
		t.Fatalf("first snapshot: got %d fresh, want 2", len(fresh))
	}

	// overlapping window with one new entry at the head
	second := &StatsSnapshot{History: []ActivityEntry{entry(3), entry(2), entry(1)}}
	fresh = NewEntries(second, seen)
	if len(fresh) != 1 || fresh[0].Message != "run 3" {
		t.Fatalf("second snapshot: fresh = %v", fresh)
	}

	// identical snapshot yields nothing
	if fresh = NewEntries(second, seen); len(fresh) != 0 {
		t.Fatalf("unchanged snapshot: fresh = %v", fresh)
	}
}
