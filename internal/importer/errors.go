package importer

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingColumn means the CSV header lacks a column the table needs.
	ErrMissingColumn = errors.New("missing column")

	// ErrShortRecord means a record has fewer fields than the header.
	ErrShortRecord = errors.New("short record")
)

// RowError rejects a single CSV record. It is recoverable: the remaining
// records of the source can still be loaded.
type RowError struct {
	Source string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s line %d: %v", e.Source, e.Line, e.Err)
	}
	return fmt.Sprintf("%s line %d, column %s: %v", e.Source, e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
