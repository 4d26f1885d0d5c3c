package core

import (
	"errors"
	"fmt"
)

var (
	ErrMissingDate      = errors.New("missing date")
	ErrInvalidDate      = errors.New("invalid date")
	ErrUnknownKind      = errors.New("unknown operation kind")
	ErrUnmappedBucket   = errors.New("no bucket for month")
	ErrUnparseableLabel = errors.New("unparseable month label")
	ErrInvalidMonthKey  = errors.New("invalid month key")
	ErrEmptyCategory    = errors.New("empty category")
	ErrNegativeTarget   = errors.New("negative target amount")
	ErrInvalidPeriod    = errors.New("invalid goal period")
	ErrInvalidReference = errors.New("invalid goal reference period")
	ErrInvalidOwner     = errors.New("missing owner id")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// RecordError describes a single record skipped during a batch operation.
type RecordError struct {
	Index  int
	ID     string
	Reason string
	Err    error
}

func (e RecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("record %d (%s): %s", e.Index, e.ID, e.Reason)
	}
	return fmt.Sprintf("record %d: %s", e.Index, e.Reason)
}

func (e RecordError) Unwrap() error {
	return e.Err
}
