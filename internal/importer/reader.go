// Package importer reads CSV sources and casts their text fields into typed
// rows matching a schema.Table.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"ecommerce-loader/internal/schema"
)

const utf8BOM = "\uFEFF"

// Row holds the cast values of one record in table column order.
type Row []any

// Reader yields typed rows from a CSV stream. Columns are located by header
// name, so the CSV column order does not matter and extra columns are ignored.
type Reader struct {
	source schema.Source
	csv    *csv.Reader
	index  []int
	empty  bool
	read   int64
	line   int
}

// NewReader consumes the header row of r and maps it onto the source table.
// A stream without any header yields no rows.
func NewReader(r io.Reader, src schema.Source) (*Reader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	rd := &Reader{source: src, csv: cr}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		rd.empty = true
		return rd, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", src.Name, err)
	}

	positions := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	rd.index = make([]int, len(src.Table.Columns))
	var missing []string
	for i, c := range src.Table.Columns {
		pos, ok := positions[strings.ToLower(c.Header)]
		if !ok {
			missing = append(missing, c.Header)
			continue
		}
		rd.index[i] = pos
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s lacks %s", ErrMissingColumn, src.Name, strings.Join(missing, ", "))
	}
	return rd, nil
}

// Next returns the next cast row. It returns io.EOF once the stream is
// exhausted. A *RowError means only the current record was rejected and
// reading may continue; any other error is fatal for the source.
func (r *Reader) Next() (Row, error) {
	if r.empty {
		return nil, io.EOF
	}

	record, err := r.csv.Read()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			r.read++
			r.line = perr.StartLine
			return nil, &RowError{Source: r.source.Name, Line: perr.StartLine, Err: perr.Err}
		}
		return nil, err
	}
	r.read++
	line, _ := r.csv.FieldPos(0)
	r.line = line

	row := make(Row, len(r.index))
	for i, pos := range r.index {
		col := r.source.Table.Columns[i]
		if pos >= len(record) {
			return nil, &RowError{
				Source: r.source.Name,
				Line:   line,
				Column: col.Header,
				Err:    fmt.Errorf("%w: got %d fields", ErrShortRecord, len(record)),
			}
		}
		v, err := Cast(col.Type, record[pos])
		if err != nil {
			return nil, &RowError{
				Source: r.source.Name,
				Line:   line,
				Column: col.Header,
				Value:  record[pos],
				Err:    err,
			}
		}
		row[i] = v
	}
	return row, nil
}

// Read reports how many data records have been consumed, rejected ones included.
func (r *Reader) Read() int64 { return r.read }

// Line returns the line of the most recently returned record.
func (r *Reader) Line() int { return r.line }
