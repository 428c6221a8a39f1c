package deferred

import (
	"math"
	"testing"
	"time"
)

func TestConstantBackoff(t *testing.T) {
	b := Constant(75 * time.Millisecond)
	for attempt := 1; attempt <= 5; attempt++ {
		if d := b.Delay(attempt); d != 75*time.Millisecond {
			t.Errorf("Delay(%d) = %s, want 75ms", attempt, d)
		}
	}
}

func TestLinearBackoff(t *testing.T) {
	b := Linear(10 * time.Millisecond)
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{5, 50 * time.Millisecond},
	}
	for _, tt := range tests {
		if d := b.Delay(tt.attempt); d != tt.want {
			t.Errorf("Delay(%d) = %s, want %s", tt.attempt, d, tt.want)
		}
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := Exponential(10 * time.Millisecond)
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{3, 40 * time.Millisecond},
		{4, 80 * time.Millisecond},
	}
	for _, tt := range tests {
		if d := b.Delay(tt.attempt); d != tt.want {
			t.Errorf("Delay(%d) = %s, want %s", tt.attempt, d, tt.want)
		}
	}

	if d := b.Delay(0); d != 10*time.Millisecond {
		t.Errorf("Delay(0) = %s, want the base delay", d)
	}
	if d := b.Delay(100); d != time.Duration(math.MaxInt64) {
		t.Errorf("Delay(100) = %s, want overflow clamp", d)
	}
}

func TestBackoffMonotonicity(t *testing.T) {
	backoffs := map[string]Backoff{
		"constant":    Constant(time.Millisecond),
		"linear":      Linear(time.Millisecond),
		"exponential": Exponential(time.Millisecond),
		"capped":      WithCap(8*time.Millisecond, Exponential(time.Millisecond)),
	}

	for name, b := range backoffs {
		t.Run(name, func(t *testing.T) {
			prev := time.Duration(-1)
			for attempt := 1; attempt <= 20; attempt++ {
				d := b.Delay(attempt)
				if d < prev {
					t.Errorf("Delay(%d) = %s decreased from %s", attempt, d, prev)
				}
				prev = d
			}
		})
	}
}

func TestWithCap(t *testing.T) {
	b := WithCap(50*time.Millisecond, Exponential(10*time.Millisecond))

	if d := b.Delay(2); d != 20*time.Millisecond {
		t.Errorf("Delay(2) = %s, want uncapped 20ms", d)
	}
	if d := b.Delay(10); d != 50*time.Millisecond {
		t.Errorf("Delay(10) = %s, want capped at 50ms", d)
	}
}

func TestWithJitter(t *testing.T) {
	base := 100 * time.Millisecond
	b := WithJitter(0.2, Constant(base))

	for i := 0; i < 100; i++ {
		d := b.Delay(1)
		if d < 80*time.Millisecond || d > 120*time.Millisecond {
			t.Fatalf("Delay() = %s, want within ±20%% of %s", d, base)
		}
	}

	// A zero factor passes the delay through unchanged.
	if d := WithJitter(0, Constant(base)).Delay(1); d != base {
		t.Errorf("Delay() = %s, want %s", d, base)
	}
}
