package status

import (
	"testing"

	"agentwatch/snapshot"
)

func boolPtr(b bool) *bool { return &b }

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		stats snapshot.ProjectStats
		want  State
	}{
		{"running", snapshot.ProjectStats{IsRunning: true}, ActiveRunning},
		{"never-executed wins over running flag", snapshot.ProjectStats{IsRunning: true, HasExecuted: boolPtr(false)}, NeverExecuted},
		{"halted by default", snapshot.ProjectStats{}, ProcessHalted},
		{"halted when executed", snapshot.ProjectStats{HasExecuted: boolPtr(true)}, ProcessHalted},
		{"never executed", snapshot.ProjectStats{HasExecuted: boolPtr(false)}, NeverExecuted},
	}
	for _, tc := range cases {
		if got := Classify(tc.stats); got != tc.want {
			t.Fatalf("%s: Classify = %s, want %s", tc.name, got.Label(), tc.want.Label())
		}
	}
}

func TestStateLabels(t *testing.T) {
	if NeverExecuted.Label() != "NEVER EXECUTED" {
		t.Fatalf("NeverExecuted label = %q", NeverExecuted.Label())
	}
	if ActiveRunning.Label() != "ACTIVE RUNNING" {
		t.Fatalf("ActiveRunning label = %q", ActiveRunning.Label())
	}
	if ProcessHalted.Label() != "PROCESS HALTED" {
		t.Fatalf("ProcessHalted label = %q", ProcessHalted.Label())
	}
}

func TestSuccessRate(t *testing.T) {
	cases := []struct {
		success, failed int
		rate            int
		ok              bool
	}{
		{0, 0, 0, false},
		{1, 0, 100, true},
		{0, 1, 0, true},
		{5, 7 - 5, 71, true}, // 5/7 rounds half up to 71
		{1, 2, 33, true},
		{1, 1, 50, true},
		{7, 3, 70, true},
	}
	for _, tc := range cases {
		rate, ok := SuccessRate(tc.success, tc.failed)
		if ok != tc.ok || rate != tc.rate {
			t.Fatalf("SuccessRate(%d, %d) = (%d, %v), want (%d, %v)",
				tc.success, tc.failed, rate, ok, tc.rate, tc.ok)
		}
	}
}

func TestRateTier(t *testing.T) {
	cases := []struct {
		rate int
		want Tier
	}{
		{100, TierGood},
		{70, TierGood},
		{69, TierWarning},
		{40, TierWarning},
		{39, TierCritical},
		{0, TierCritical},
	}
	for _, tc := range cases {
		if got := RateTier(tc.rate); got != tc.want {
			t.Fatalf("RateTier(%d) = %s, want %s", tc.rate, got, tc.want)
		}
	}
}
