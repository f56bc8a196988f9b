// Package series defines the poison time series exchanged with the solver.
//
// A [Dataset] is one continuation response: a time axis in days plus one
// index-aligned [Column] per tracked [Variable]. A [Point] is the initial
// condition fed into the next continuation request.
//
//   - [Dataset.Validate]: length, finiteness and ordering checks
//   - [Dataset.Anchor]: first sample, the continuity anchor
//   - [Dataset.Last]: final sample, the next last-known point
//   - [Catalogue]: labels, colours and chart panel per variable
//
// # Wire Format
//
// The JSON form is an object of equal-length numeric arrays keyed by
// "time" and the variable names. A null element is rejected, since the
// solver encodes non-finite values as null.
package series
