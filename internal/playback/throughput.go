package playback

import (
	"math"
	"time"
)

const (
	minIntervalMillis = 1.0
	pointsBudget      = 1000.0
)

// IntervalMillis maps the speed control (0-100) to the emission interval in
// milliseconds: max(1, e^(4 - speed/50)). Speed 50 gives e^3.
func IntervalMillis(speed float64) float64 {
	return math.Max(minIntervalMillis, math.Exp(4-speed/50))
}

// Interval is IntervalMillis as a duration.
func Interval(speed float64) time.Duration {
	return time.Duration(IntervalMillis(speed) * float64(time.Millisecond))
}

// BatchSize is the number of points emitted per qualifying frame:
// max(1, floor(1000 / interval)).
func BatchSize(speed float64) int {
	n := int(math.Floor(pointsBudget / IntervalMillis(speed)))
	if n < 1 {
		return 1
	}
	return n
}
