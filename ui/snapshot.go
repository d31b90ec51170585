package ui

import "time"

// Snapshot is a structured UI snapshot built by the main render loop.
// It is immutable once handed to a Surface.
type Snapshot struct {
	GeneratedAt  time.Time
	HeaderLines  []string
	ProjectLines []string
	CounterLines []string
}
