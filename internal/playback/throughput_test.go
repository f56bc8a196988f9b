package playback

import (
	"math"
	"testing"
	"time"
)

func TestIntervalMillis(t *testing.T) {
	tests := []struct {
		speed    float64
		expected float64
	}{
		{0, math.Exp(4)},
		{50, math.Exp(3)},
		{100, math.Exp(2)},
		{200, 1},
		{1000, 1},
	}

	for _, tt := range tests {
		if got := IntervalMillis(tt.speed); math.Abs(got-tt.expected) > 1e-9 {
			t.Errorf("IntervalMillis(%v) = %v, want %v", tt.speed, got, tt.expected)
		}
	}
}

func TestBatchSize(t *testing.T) {
	tests := []struct {
		speed    float64
		expected int
	}{
		{0, 18},
		{50, 49},
		{100, 135},
		{500, 1000},
	}

	for _, tt := range tests {
		if got := BatchSize(tt.speed); got != tt.expected {
			t.Errorf("BatchSize(%v) = %d, want %d", tt.speed, got, tt.expected)
		}
	}
}

func TestInterval_Duration(t *testing.T) {
	got := Interval(50)
	if got < 20*time.Millisecond || got > 21*time.Millisecond {
		t.Errorf("Interval(50) = %v, want ~20.09ms", got)
	}
}

func TestThroughput_Monotonic(t *testing.T) {
	prevInterval := IntervalMillis(0)
	prevBatch := BatchSize(0)
	for speed := 0.5; speed <= 100; speed += 0.5 {
		interval := IntervalMillis(speed)
		if interval >= prevInterval {
			t.Fatalf("interval not strictly decreasing at speed %v: %v >= %v", speed, interval, prevInterval)
		}
		batch := BatchSize(speed)
		if batch < prevBatch {
			t.Fatalf("batch size decreased at speed %v: %d < %d", speed, batch, prevBatch)
		}
		prevInterval, prevBatch = interval, batch
	}
}
