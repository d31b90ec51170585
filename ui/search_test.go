package ui

import (
	"context"
	"testing"
	"time"
)

func TestSearchFilterDebounce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	filter := NewSearchFilter(ctx)
	filter.SetQuery("Alpha", nil)
	time.Sleep(300 * time.Millisecond)
	if got := filter.ActiveQuery(); got != "alpha" {
		t.Fatalf("expected active query 'alpha', got %q", got)
	}
}

func TestMatchQuery(t *testing.T) {
	cases := []struct {
		message string
		query   string
		want    bool
	}{
		{"alpha sync complete", "", true},
		{"alpha sync complete", "alpha", true},
		{"Alpha Sync Complete", "sync", true},
		{"alpha sync complete", "alpga", true}, // one substitution
		{"alpha sync complete", "synk", true},
		{"alpha sync complete", "gamma", false},
		{"beta deploy failed", "deploi", true},
		{"beta deploy failed", "zzzzzz", false},
	}
	for _, tc := range cases {
		if got := MatchQuery(tc.message, tc.query); got != tc.want {
			t.Fatalf("MatchQuery(%q, %q) = %v, want %v", tc.message, tc.query, got, tc.want)
		}
	}
}
