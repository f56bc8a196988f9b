package series

import (
	"fmt"
	"math"
)

// Column is one variable's values, index-aligned with Dataset.Time.
type Column struct {
	Variable Variable
	Values   []float64
}

// Dataset is an immutable batch of parallel time-indexed arrays. Callers
// must not mutate the slices once the dataset has been handed to a
// scheduler.
type Dataset struct {
	Time    []float64
	Columns []Column
}

// New builds a dataset from a time axis and columns in the given order.
func New(time []float64, columns ...Column) *Dataset {
	return &Dataset{Time: time, Columns: columns}
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Time)
}

// Values returns the column for v, or nil when the dataset does not track it.
func (d *Dataset) Values(v Variable) []float64 {
	for _, c := range d.Columns {
		if c.Variable == v {
			return c.Values
		}
	}
	return nil
}

// Validate checks the dataset invariants: non-empty, every column the
// same length as Time, all values finite, and Time non-decreasing.
func (d *Dataset) Validate() error {
	if d == nil || len(d.Time) == 0 {
		return integrity("time", -1, "empty dataset")
	}
	n := len(d.Time)
	for i, t := range d.Time {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return integrity("time", i, "non-finite value")
		}
		if i > 0 && t < d.Time[i-1] {
			return integrity("time", i, "time decreases")
		}
	}
	seen := make(map[Variable]bool, len(d.Columns))
	for _, c := range d.Columns {
		name := string(c.Variable)
		if seen[c.Variable] {
			return integrity(name, -1, "duplicate column")
		}
		seen[c.Variable] = true
		if len(c.Values) != n {
			return integrity(name, -1, fmt.Sprintf("has %d values, time has %d", len(c.Values), n))
		}
		for i, v := range c.Values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return integrity(name, i, "non-finite value")
			}
		}
	}
	return nil
}

// RequireComplete reports a missing column for any catalogue variable.
func (d *Dataset) RequireComplete() error {
	for _, v := range Variables() {
		if d.Values(v) == nil {
			return integrity(string(v), -1, "missing column")
		}
	}
	return nil
}

// CheckContinuity verifies that the first sample sits at lastTime within tol.
func (d *Dataset) CheckContinuity(lastTime, tol float64) error {
	if d.Len() == 0 {
		return integrity("time", -1, "empty dataset")
	}
	if gap := math.Abs(d.Time[0] - lastTime); gap > tol {
		return fmt.Errorf("%w: time[0]=%g, last time %g", ErrDiscontinuity, d.Time[0], lastTime)
	}
	return nil
}

// At returns the sample at index i as a Point. Untracked concentrations are zero.
func (d *Dataset) At(i int) Point {
	p := Point{Time: d.Time[i]}
	for _, c := range d.Columns {
		switch c.Variable {
		case Iodine:
			p.Iodine = c.Values[i]
		case Xenon:
			p.Xenon = c.Values[i]
		case Promethium:
			p.Promethium = c.Values[i]
		case Samarium:
			p.Samarium = c.Values[i]
		}
	}
	return p
}

// Anchor is the first sample, the continuity anchor of a continuation.
func (d *Dataset) Anchor() Point { return d.At(0) }

// Last is the final sample.
func (d *Dataset) Last() Point { return d.At(len(d.Time) - 1) }

// Window returns the half-open slice [lo, hi) of the time axis and every
// column. The returned slices alias the dataset.
func (d *Dataset) Window(lo, hi int) ([]float64, []Column) {
	cols := make([]Column, len(d.Columns))
	for i, c := range d.Columns {
		cols[i] = Column{Variable: c.Variable, Values: c.Values[lo:hi]}
	}
	return d.Time[lo:hi], cols
}
