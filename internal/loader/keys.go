package loader

import (
	"fmt"

	"ecommerce-loader/internal/importer"
	"ecommerce-loader/internal/schema"
)

// keyIndex remembers the primary keys loaded so far, keyed by "table.column".
type keyIndex map[string]map[any]struct{}

func keyName(table, column string) string { return table + "." + column }

// check rejects rows whose primary key is null or repeated and, when
// foreignKeys is set, rows referencing keys that were never loaded.
func (k keyIndex) check(src schema.Source, row importer.Row, line int, foreignKeys bool) error {
	t := src.Table
	if pk := t.PrimaryKey(); pk >= 0 {
		c := t.Columns[pk]
		v := row[pk]
		if v == nil {
			return &importer.RowError{Source: src.Name, Line: line, Column: c.Header, Err: ErrNullKey}
		}
		if _, dup := k[keyName(t.Name, c.Name)][v]; dup {
			return &importer.RowError{Source: src.Name, Line: line, Column: c.Header, Value: fmt.Sprint(v), Err: ErrDuplicateKey}
		}
	}

	if !foreignKeys {
		return nil
	}
	for i, c := range t.Columns {
		if c.References == nil || row[i] == nil {
			continue
		}
		if _, ok := k[keyName(c.References.Table, c.References.Column)][row[i]]; !ok {
			return &importer.RowError{
				Source: src.Name,
				Line:   line,
				Column: c.Header,
				Value:  fmt.Sprint(row[i]),
				Err:    fmt.Errorf("%w in %s.%s", ErrOrphanReference, c.References.Table, c.References.Column),
			}
		}
	}
	return nil
}

func (k keyIndex) add(t schema.Table, row importer.Row) {
	pk := t.PrimaryKey()
	if pk < 0 || row[pk] == nil {
		return
	}
	name := keyName(t.Name, t.Columns[pk].Name)
	set, ok := k[name]
	if !ok {
		set = make(map[any]struct{})
		k[name] = set
	}
	set[row[pk]] = struct{}{}
}
