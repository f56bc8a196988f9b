package session

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/san-kum/xenonsim/internal/continuation"
)

const (
	DefaultPower = 1.0
	DefaultSpeed = 50.0
	MaxSpeed     = 100.0
)

// Knob is a live control value that any goroutine may read or set.
type Knob struct {
	bits atomic.Uint64
}

func (k *Knob) Load() float64   { return math.Float64frombits(k.bits.Load()) }
func (k *Knob) Store(v float64) { k.bits.Store(math.Float64bits(v)) }

// Controls are the user-facing inputs read at request time (power, flux)
// or on every frame (speed).
type Controls struct {
	Power Knob
	Speed Knob
	Phi0  Knob
}

// ParseDuration parses the duration input and validates it.
func ParseDuration(input string) (float64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, fmt.Errorf("%w: enter a simulation time in days", ErrValidation)
	}
	days, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrValidation, input)
	}
	return days, ValidateDuration(days)
}

// ValidateDuration rejects non-finite and non-positive durations.
func ValidateDuration(days float64) error {
	if err := continuation.ValidateDuration(days); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

func validatePower(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: power fraction must be within [0,1], got %v", ErrValidation, p)
	}
	return nil
}

func validateSpeed(s float64) error {
	if math.IsNaN(s) || s < 0 || s > MaxSpeed {
		return fmt.Errorf("%w: speed must be within [0,%v], got %v", ErrValidation, MaxSpeed, s)
	}
	return nil
}

func validatePhi0(phi0 float64) error {
	if math.IsNaN(phi0) || math.IsInf(phi0, 0) || phi0 <= 0 {
		return fmt.Errorf("%w: full-power flux must be a positive number, got %v", ErrValidation, phi0)
	}
	return nil
}

// FormatPercent renders a power fraction the way the power control label
// shows it.
func FormatPercent(fraction float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(fraction*100)))
}
