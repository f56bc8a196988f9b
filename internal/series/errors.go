package series

import (
	"errors"
	"fmt"
)

var (
	// ErrDataIntegrity indicates a malformed dataset (length mismatch,
	// missing column, non-finite value or decreasing time).
	ErrDataIntegrity = errors.New("series: data integrity violation")

	// ErrDiscontinuity indicates a dataset whose first sample does not
	// line up with the requested continuation time.
	ErrDiscontinuity = errors.New("series: dataset does not continue from last known time")
)

// IntegrityError records which column broke the dataset invariants.
type IntegrityError struct {
	Column string
	Index  int
	Reason string
}

func (e *IntegrityError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("series: %s[%d]: %s", e.Column, e.Index, e.Reason)
	}
	return fmt.Sprintf("series: %s: %s", e.Column, e.Reason)
}

func (e *IntegrityError) Unwrap() error {
	return ErrDataIntegrity
}

func integrity(column string, index int, reason string) error {
	return &IntegrityError{Column: column, Index: index, Reason: reason}
}
