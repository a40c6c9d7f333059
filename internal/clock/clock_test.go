package clock

import (
	"testing"
	"time"
)

func TestMonotonicNonDecreasing(t *testing.T) {
	clk := NewMonotonic()

	prev := clk.Now()
	for i := 0; i < 10000; i++ {
		now := clk.Now()
		if now < prev {
			t.Fatalf("clock decreased: %f -> %f at sample %d", prev, now, i)
		}
		prev = now
	}
}

func TestMonotonicAdvances(t *testing.T) {
	clk := NewMonotonic()

	start := clk.Now()
	time.Sleep(5 * time.Millisecond)
	elapsed := clk.Now() - start

	if elapsed < 4 {
		t.Errorf("expected at least ~5ms elapsed, got %f", elapsed)
	}
}

func TestManual(t *testing.T) {
	clk := NewManual(1000)

	if got := clk.Now(); got != 1000 {
		t.Fatalf("Now() = %f, want 1000", got)
	}

	clk.Advance(250.5)
	if got := clk.Now(); got != 1250.5 {
		t.Fatalf("Now() = %f, want 1250.5", got)
	}

	// Negative advances are ignored: the clock stays monotone.
	clk.Advance(-100)
	if got := clk.Now(); got != 1250.5 {
		t.Fatalf("Now() after negative advance = %f, want 1250.5", got)
	}
}
