package main

import (
	"bytes"
	"strings"
	"testing"

	"agentwatch/config"
	"agentwatch/ui"
)

func testUIConfig() config.UIConfig {
	return config.UIConfig{
		Mode:      "console",
		RefreshMS: 0, // no background render loop in tests
		PaneLines: config.PaneLinesConfig{Stats: 6, Activity: 3, Failures: 2, System: 2},
	}
}

func TestNewANSIConsoleDisabled(t *testing.T) {
	if c := newANSIConsole(testUIConfig(), false); c != nil {
		t.Fatalf("expected nil surface when rendering is not allowed")
	}
}

func TestRingPaneWraps(t *testing.T) {
	surface := newANSIConsole(testUIConfig(), true)
	c := surface.(*ansiConsole)

	for _, line := range []string{"one", "two", "three", "four"} {
		c.AppendActivity(line)
	}

	got := snapshotPane(&c.activity, make([]string, 3))
	want := []string{"two", "three", "four"}
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %v", len(want), got)
	}
	for i := range want {
		if !strings.Contains(got[i], want[i]) {
			t.Fatalf("pane line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSetSnapshotFoldsIntoStats(t *testing.T) {
	surface := newANSIConsole(testUIConfig(), true)
	c := surface.(*ansiConsole)

	c.SetSnapshot(ui.Snapshot{
		HeaderLines:  []string{"agent online"},
		ProjectLines: []string{"deploy ok"},
		CounterLines: []string{"polls 5"},
	})

	joined := strings.Join(c.stats, "|")
	for _, want := range []string{"agent online", "deploy ok", "polls 5"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("stats pane %q missing %q", joined, want)
		}
	}
}

func TestSetStatsTruncatesAndClears(t *testing.T) {
	cfg := testUIConfig()
	cfg.PaneLines.Stats = 2
	surface := newANSIConsole(cfg, true)
	c := surface.(*ansiConsole)

	c.SetStats([]string{"a", "b", "c"})
	if c.stats[0] != "a" || c.stats[1] != "b" {
		t.Fatalf("stats not truncated to pane size: %v", c.stats)
	}
	c.SetStats([]string{"only"})
	if c.stats[0] != "only" || c.stats[1] != "" {
		t.Fatalf("shorter update should clear stale lines: %v", c.stats)
	}
}

func TestAnsiWriterSplitsLines(t *testing.T) {
	var lines []string
	w := &ansiWriter{append: func(line string) { lines = append(lines, line) }}

	w.Write([]byte("poller: agent online\npartial"))
	if len(lines) != 1 || lines[0] != "poller: agent online" {
		t.Fatalf("unexpected lines %v", lines)
	}
	w.Write([]byte(" rest\r\n"))
	if len(lines) != 2 || lines[1] != "partial rest" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestApplyANSIMarkup(t *testing.T) {
	colored := applyANSIMarkup("[green]ONLINE[-]", true)
	if !strings.Contains(colored, "\x1b[32m") || !strings.Contains(colored, resetANSI) {
		t.Fatalf("color markup not applied: %q", colored)
	}
	stripped := applyANSIMarkup("[green]ONLINE[-]", false)
	if stripped != "ONLINE" {
		t.Fatalf("markup not stripped: %q", stripped)
	}
}

func TestWritePane(t *testing.T) {
	var buf bytes.Buffer
	writePane(&buf, "---- Failures ----", []string{"deploy failed", ""})
	out := buf.String()
	if !strings.HasPrefix(out, "---- Failures ----\n") {
		t.Fatalf("missing pane title: %q", out)
	}
	if !strings.Contains(out, "deploy failed\n") {
		t.Fatalf("missing pane line: %q", out)
	}
}
