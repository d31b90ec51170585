package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"agentwatch/poller"
	"agentwatch/snapshot"
	"agentwatch/stats"
	"agentwatch/status"
	"agentwatch/ui"

	"github.com/dustin/go-humanize"
)

// Purpose: Build the structured UI snapshot from the poller view and counters.
// Key aspects: Pure over its inputs so the render loop and tests share it.
// Upstream: render loop in main.
// Downstream: buildHeaderLines, buildProjectLines, buildCounterLines.
func buildSnapshot(view poller.View, tracker *stats.Tracker, agentURL string, now time.Time) ui.Snapshot {
	return ui.Snapshot{
		GeneratedAt:  now,
		HeaderLines:  buildHeaderLines(view, agentURL, now),
		ProjectLines: buildProjectLines(view.Snap),
		CounterLines: buildCounterLines(tracker),
	}
}

func buildHeaderLines(view poller.View, agentURL string, now time.Time) []string {
	state := "[red]OFFLINE[-]"
	if view.Conn == poller.StateOnline {
		state = "[green]ONLINE[-]"
	}
	contact := "never"
	if !view.LastSuccess.IsZero() {
		contact = humanize.Time(view.LastSuccess)
	}
	lines := []string{
		fmt.Sprintf("[yellow]Agent[-]: %s  [yellow]State[-]: %s", agentURL, state),
		fmt.Sprintf("[yellow]Last contact[-]: %s  [yellow]Polls[-]: %s  [yellow]Flips[-]: %d",
			contact, humanize.Comma(int64(view.Polls)), view.Transitions),
	}
	if view.Conn == poller.StateOffline && view.LastError != "" {
		lines = append(lines, fmt.Sprintf("[red]Last error[-]: %s", view.LastError))
	}
	return lines
}

// buildProjectLines renders one card line per project, sorted by name. A nil
// stored snapshot means no poll has succeeded yet.
func buildProjectLines(snap *snapshot.StatsSnapshot) []string {
	if snap == nil {
		return []string{"waiting for first poll"}
	}
	if len(snap.Projects) == 0 {
		return []string{"no projects reported"}
	}
	names := make([]string, 0, len(snap.Projects))
	for name := range snap.Projects {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		ps := snap.Projects[name]
		lines = append(lines, formatProjectLine(name, ps))
		if reason := lastFailReason(ps); reason != "" {
			lines = append(lines, fmt.Sprintf("    [red]last failure[-]: %s", reason))
		}
	}
	return lines
}

func lastFailReason(ps snapshot.ProjectStats) string {
	if len(ps.FailReasons) == 0 {
		return ""
	}
	return ps.FailReasons[len(ps.FailReasons)-1]
}

func formatProjectLine(name string, ps snapshot.ProjectStats) string {
	state := status.Classify(ps)
	rateStr := "--%"
	tierStr := ""
	if rate, ok := status.SuccessRate(ps.SuccessCount, ps.FailedCount); ok {
		rateStr = fmt.Sprintf("%d%%", rate)
		tierStr = fmt.Sprintf(" (%s)", status.RateTier(rate))
	}
	return fmt.Sprintf("%-20s %s%s[-]  %s%s  ok %d fail %d  last %s",
		name, stateTag(state), state.Label(), rateStr, tierStr,
		ps.SuccessCount, ps.FailedCount, status.FormatClock(ps.LastRun))
}

func stateTag(s status.State) string {
	switch s {
	case status.ActiveRunning:
		return "[green]"
	case status.ProcessHalted:
		return "[red]"
	default:
		return "[yellow]"
	}
}

func buildCounterLines(tracker *stats.Tracker) []string {
	if tracker == nil {
		return nil
	}
	lines := tracker.SnapshotLines()
	lines = append(lines, fmt.Sprintf("Uptime: %s", formatUptime(tracker.GetUptime())))
	return lines
}

func formatUptime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return strings.TrimSuffix(humanize.RelTime(time.Now().Add(-d), time.Now(), "", ""), " ")
}

// Purpose: Format one activity-feed entry for the event panes.
// Key aspects: Clock-only timestamp keeps the feed narrow; the state tag
// colors failure lines in console mode.
// Upstream: the poller's fresh-entry callback.
// Downstream: Surface append methods.
func formatEntryLine(entry snapshot.ActivityEntry) string {
	clock := status.FormatClock(entry.Timestamp)
	if entry.Project == "" {
		return fmt.Sprintf("%s %s", clock, entry.Message)
	}
	return fmt.Sprintf("%s %s: %s", clock, entry.Project, entry.Message)
}

// Purpose: Route fresh feed entries to the right UI pane.
// Key aspects: Entries arrive newest-first from the agent; they are walked
// backwards so panes append in chronological order.
// Upstream: poller.Options.OnActivity.
// Downstream: Surface append methods.
func makeActivityReporter(surface ui.Surface) func([]snapshot.ActivityEntry) {
	return func(entries []snapshot.ActivityEntry) {
		if surface == nil {
			return
		}
		for i := len(entries) - 1; i >= 0; i-- {
			entry := entries[i]
			line := formatEntryLine(entry)
			switch entry.Type {
			case snapshot.EntrySuccess:
				surface.AppendActivity("[green]" + line + "[-]")
			case snapshot.EntryFailure:
				surface.AppendFailure("[red]" + line + "[-]")
			default:
				surface.AppendInfo(line)
			}
		}
	}
}
