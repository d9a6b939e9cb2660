// Package schema describes the relations the loader manages and renders
// them as DDL/DML for each supported SQL dialect.
package schema

import (
	"fmt"
	"strings"
)

// Type is the logical column type a raw CSV field is cast to.
type Type int

const (
	Integer Type = iota
	Real
	Boolean
	Date
	Text
)

func (t Type) String() string {
	switch t {
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	case Text:
		return "text"
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Reference points a column at the primary key of another table.
type Reference struct {
	Table  string
	Column string
}

// Column maps one CSV header onto one table column.
type Column struct {
	Name       string
	Header     string
	Type       Type
	PrimaryKey bool
	References *Reference
}

// Table is a fixed relation definition.
type Table struct {
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the index of the primary key column, or -1.
func (t Table) PrimaryKey() int {
	for i, c := range t.Columns {
		if c.PrimaryKey {
			return i
		}
	}
	return -1
}

// Clone returns a copy of t that shares no memory with it.
func (t Table) Clone() Table {
	cols := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		if c.References != nil {
			ref := *c.References
			c.References = &ref
		}
		cols[i] = c
	}
	return Table{Name: t.Name, Columns: cols}
}

// Source binds a CSV file to the table it populates.
type Source struct {
	Name  string
	Path  string
	Table Table
}

// Catalog is the immutable set of sources for one run. Sources are kept in
// load order: referenced tables come before the tables that reference them.
type Catalog struct {
	sources []Source
}

// NewCatalog orders the given sources so every referenced table is loaded
// before its dependents. It fails on unknown references or cycles.
func NewCatalog(sources ...Source) (Catalog, error) {
	byTable := make(map[string]int, len(sources))
	for i, s := range sources {
		if _, dup := byTable[s.Table.Name]; dup {
			return Catalog{}, fmt.Errorf("duplicate table %q in catalog", s.Table.Name)
		}
		byTable[s.Table.Name] = i
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(sources))
	ordered := make([]Source, 0, len(sources))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("reference cycle through table %q", sources[i].Table.Name)
		}
		state[i] = visiting
		for _, c := range sources[i].Table.Columns {
			if c.References == nil {
				continue
			}
			j, ok := byTable[c.References.Table]
			if !ok {
				return fmt.Errorf("table %q references unknown table %q", sources[i].Table.Name, c.References.Table)
			}
			if j == i {
				continue
			}
			if err := visit(j); err != nil {
				return err
			}
		}
		state[i] = done
		src := sources[i]
		src.Table = src.Table.Clone()
		ordered = append(ordered, src)
		return nil
	}

	for i := range sources {
		if err := visit(i); err != nil {
			return Catalog{}, err
		}
	}
	return Catalog{sources: ordered}, nil
}

// Sources returns the sources in load order.
func (c Catalog) Sources() []Source {
	out := make([]Source, len(c.sources))
	for i, s := range c.sources {
		s.Table = s.Table.Clone()
		out[i] = s
	}
	return out
}

// Tables returns the tables in creation order.
func (c Catalog) Tables() []Table {
	out := make([]Table, len(c.sources))
	for i, s := range c.sources {
		out[i] = s.Table.Clone()
	}
	return out
}

// DropOrder returns the tables in the order they must be dropped.
func (c Catalog) DropOrder() []Table {
	tables := c.Tables()
	for i, j := 0, len(tables)-1; i < j; i, j = i+1, j-1 {
		tables[i], tables[j] = tables[j], tables[i]
	}
	return tables
}

// Table looks a table up by name.
func (c Catalog) Table(name string) (Table, bool) {
	for _, s := range c.sources {
		if strings.EqualFold(s.Table.Name, name) {
			return s.Table.Clone(), true
		}
	}
	return Table{}, false
}
