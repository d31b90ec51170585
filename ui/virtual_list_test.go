package ui

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

func TestVirtualListDraw(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}

	list := NewVirtualList()
	list.SetRect(0, 0, 40, 2)
	events := []StyledEvent{
		{Timestamp: time.Unix(0, 0), Kind: EventSuccess, Message: "alpha"},
		{Timestamp: time.Unix(1, 0), Kind: EventSystem, Message: "beta"},
	}
	list.SetSnapshot(events, nil)
	list.Draw(screen)

	ch, _, _, _ := screen.GetContent(0, 0)
	if ch == ' ' {
		t.Fatalf("expected rendered content, got blank")
	}
}

func TestVirtualListIndices(t *testing.T) {
	list := NewVirtualList()
	events := []StyledEvent{
		{Kind: EventSuccess, Message: "a"},
		{Kind: EventFailure, Message: "b"},
		{Kind: EventSuccess, Message: "c"},
	}
	list.SetSnapshot(events, []int{1})
	if list.listLen() != 1 {
		t.Fatalf("filtered length = %d, want 1", list.listLen())
	}
	if got := list.eventAt(0); got.Message != "b" {
		t.Fatalf("eventAt(0) = %q, want b", got.Message)
	}
}

func TestVirtualListScrollClamping(t *testing.T) {
	list := NewVirtualList()
	list.visibleRows = 2
	events := make([]StyledEvent, 5)
	list.SetSnapshot(events, nil)
	list.ScrollDown(100)
	if list.scrollOffset != 3 {
		t.Fatalf("offset = %d, want 3", list.scrollOffset)
	}
	list.ScrollUp(100)
	if list.scrollOffset != 0 {
		t.Fatalf("offset = %d, want 0", list.scrollOffset)
	}
}
