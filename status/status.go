// Package status derives display state from raw project counters. All
// functions are pure; nothing here caches or mutates, so every render pass
// classifies fresh against the current snapshot.
package status

import (
	"math"

	"agentwatch/snapshot"
)

// State is the three-valued project classification.
type State int

const (
	// NeverExecuted wins over everything, including a reported running flag:
	// counters alone cannot distinguish "never ran" from "ran, both zero".
	NeverExecuted State = iota
	ActiveRunning
	ProcessHalted
)

// Label returns the display string for the state.
func (s State) Label() string {
	switch s {
	case NeverExecuted:
		return "NEVER EXECUTED"
	case ActiveRunning:
		return "ACTIVE RUNNING"
	case ProcessHalted:
		return "PROCESS HALTED"
	default:
		return "UNKNOWN"
	}
}

// Classify maps raw stats plus the executed flag to a State.
func Classify(stats snapshot.ProjectStats) State {
	if !stats.Executed() {
		return NeverExecuted
	}
	if stats.IsRunning {
		return ActiveRunning
	}
	return ProcessHalted
}

// SuccessRate returns the rounded percentage of successful runs and whether
// it is defined. It is undefined exactly when no runs have completed.
// Round-half-up; the result is in [0,100] by construction for non-negative
// inputs.
func SuccessRate(success, failed int) (int, bool) {
	total := success + failed
	if total == 0 {
		return 0, false
	}
	return int(math.Round(float64(success) / float64(total) * 100)), true
}

// Tier is the severity band a success rate falls into, presentation only.
type Tier int

const (
	TierGood Tier = iota
	TierWarning
	TierCritical
)

func (t Tier) String() string {
	switch t {
	case TierGood:
		return "good"
	case TierWarning:
		return "warning"
	case TierCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// RateTier bands a success rate. Boundary values belong to the higher tier.
func RateTier(rate int) Tier {
	switch {
	case rate >= 70:
		return TierGood
	case rate >= 40:
		return TierWarning
	default:
		return TierCritical
	}
}
