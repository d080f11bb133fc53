// Package transformer defines the record-level transform contract used by the
// cleaning pipeline and a bounded parallel mapper for row-independent work.
package transformer

import "studentetl/pkg/records"

// Transformer turns one batch of records into another. Implementations must
// not mutate the records they receive; they return new ones. The pipeline
// uses Apply when a stage runs on a single goroutine and the stage's MapFunc
// form with MapRows otherwise.
type Transformer interface {
	Apply([]records.Record) []records.Record
}

// RejectedRow describes a row dropped by a validating transform.
type RejectedRow struct {
	// Index is the 0-based position of the row in the batch handed to the stage.
	Index  int
	Raw    records.Record
	Reason string
	Stage  string
}

// RejectFunc receives rejected rows. It may be called from several
// goroutines when a stage runs in parallel.
type RejectFunc func(RejectedRow)
