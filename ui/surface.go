package ui

import "io"

// Surface abstracts the dashboard/UI so alternative console renderers can plug in.
// Implementations must be safe for concurrent calls from the poll and render loops.
type Surface interface {
	WaitReady()
	Stop()
	SetStats(lines []string)
	AppendActivity(line string)
	AppendFailure(line string)
	AppendInfo(line string)
	AppendSystem(line string)
	SystemWriter() io.Writer
	SetSnapshot(snapshot Snapshot)
}
