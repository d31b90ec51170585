package ratelimit

import (
	"testing"
	"time"
)

func TestCounterUnthrottled(t *testing.T) {
	c := NewCounter(0)
	for i := uint64(1); i <= 3; i++ {
		total, ok := c.Inc()
		if !ok || total != i {
			t.Fatalf("Inc() = (%d, %v), want (%d, true)", total, ok, i)
		}
	}
}

func TestCounterThrottles(t *testing.T) {
	c := NewCounter(time.Hour)
	if _, ok := c.Inc(); !ok {
		t.Fatalf("first increment must log")
	}
	for i := 0; i < 5; i++ {
		if _, ok := c.Inc(); ok {
			t.Fatalf("increment within interval must be throttled")
		}
	}
	if c.Total() != 6 {
		t.Fatalf("total = %d, want 6", c.Total())
	}
}

func TestCounterReset(t *testing.T) {
	c := NewCounter(time.Hour)
	c.Inc()
	c.Inc()
	c.Reset()
	if c.Total() != 0 {
		t.Fatalf("total after reset = %d", c.Total())
	}
	if _, ok := c.Inc(); !ok {
		t.Fatalf("first increment after reset must log")
	}
}

func TestNilCounter(t *testing.T) {
	var c *Counter
	if total, ok := c.Inc(); total != 0 || ok {
		t.Fatalf("nil counter Inc() = (%d, %v)", total, ok)
	}
	if c.Total() != 0 {
		t.Fatalf("nil counter Total() = %d", c.Total())
	}
	c.Reset()
}
