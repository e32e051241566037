package timemath

import (
	"math"
	"testing"
)

func TestElapsed(t *testing.T) {
	tests := []struct {
		name       string
		start, now uint64
		want       uint64
		ok         bool
	}{
		{"normal", 100, 150, 50, true},
		{"same", 100, 100, 0, true},
		{"backwards", 150, 100, 0, false},
		{"large", math.MaxUint64 - 1000, math.MaxUint64, 1000, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Elapsed(tt.start, tt.now)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRemaining(t *testing.T) {
	tests := []struct {
		name          string
		now, deadline uint64
		want          uint64
	}{
		{"before", 100, 150, 50},
		{"at", 100, 100, 0},
		{"past", 150, 100, 0},
		{"max-past", math.MaxUint64, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Remaining(tt.now, tt.deadline); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDeadlineReached(t *testing.T) {
	if DeadlineReached(99, 100) {
		t.Error("99 should not reach 100")
	}
	if !DeadlineReached(100, 100) {
		t.Error("100 should reach 100")
	}
	if !DeadlineReached(101, 100) {
		t.Error("101 should reach 100")
	}
}

func TestAdvance(t *testing.T) {
	if got := Advance(100, 50); got != 150 {
		t.Errorf("got %d, want 150", got)
	}
	if got := Advance(math.MaxUint64-10, 100); got != math.MaxUint64 {
		t.Errorf("got %d, want saturated max", got)
	}
}

func TestAdjustBack(t *testing.T) {
	if got, ok := AdjustBack(100, 50); !ok || got != 50 {
		t.Errorf("got (%d,%v), want (50,true)", got, ok)
	}
	if _, ok := AdjustBack(50, 100); ok {
		t.Error("expected failure when d > base")
	}
}

func TestIdleExceeded(t *testing.T) {
	if exceeded, ok := IdleExceeded(100, 150, 100); !ok || exceeded {
		t.Errorf("expected not-yet-exceeded, got (%v,%v)", exceeded, ok)
	}
	if exceeded, ok := IdleExceeded(100, 200, 100); !ok || !exceeded {
		t.Errorf("expected exceeded at boundary, got (%v,%v)", exceeded, ok)
	}
	if _, ok := IdleExceeded(150, 100, 100); ok {
		t.Error("expected clock-anomaly failure")
	}
}

func TestRemainingIdle(t *testing.T) {
	if got, ok := RemainingIdle(100, 150, 100); !ok || got != 50 {
		t.Errorf("got (%d,%v), want (50,true)", got, ok)
	}
	if got, ok := RemainingIdle(100, 250, 100); !ok || got != 0 {
		t.Errorf("got (%d,%v), want (0,true)", got, ok)
	}
	if _, ok := RemainingIdle(150, 100, 100); ok {
		t.Error("expected clock-anomaly failure")
	}
}
