package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the per-backend differences in SQL rendering.
type Dialect struct {
	Name  string
	Types map[Type]string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
	// QuoteIdent quotes an identifier so mixed-case names survive.
	QuoteIdent func(name string) string
	// DropCascade appends CASCADE to DROP TABLE.
	DropCascade bool
	// MaxParams bounds the bind parameters in a single statement; 0 means unbounded.
	MaxParams int
	// NoForeignKeys suppresses FOREIGN KEY clauses. References are then
	// enforced by the loader alone.
	NoForeignKeys bool
}

func questionMark(int) string { return "?" }

func dollar(n int) string { return "$" + strconv.Itoa(n) }

func doubleQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func backtick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

var (
	DuckDB = Dialect{
		Name: "duckdb",
		Types: map[Type]string{
			Integer: "INTEGER",
			Real:    "FLOAT",
			Boolean: "BOOLEAN",
			Date:    "DATE",
			Text:    "VARCHAR",
		},
		Placeholder: questionMark,
		QuoteIdent:  doubleQuote,
		// DuckDB refuses to drop a referenced table in the transaction that
		// dropped its referencing table, which every reload does.
		NoForeignKeys: true,
	}

	SQLite = Dialect{
		Name: "sqlite",
		Types: map[Type]string{
			Integer: "INTEGER",
			Real:    "REAL",
			Boolean: "BOOLEAN",
			Date:    "DATE",
			Text:    "TEXT",
		},
		Placeholder: questionMark,
		QuoteIdent:  doubleQuote,
		MaxParams:   32766,
	}

	Postgres = Dialect{
		Name: "postgres",
		Types: map[Type]string{
			Integer: "INTEGER",
			Real:    "DOUBLE PRECISION",
			Boolean: "BOOLEAN",
			Date:    "DATE",
			Text:    "TEXT",
		},
		Placeholder: dollar,
		QuoteIdent:  doubleQuote,
		DropCascade: true,
		MaxParams:   65535,
	}

	MySQL = Dialect{
		Name: "mysql",
		Types: map[Type]string{
			Integer: "INT",
			Real:    "DOUBLE",
			Boolean: "BOOLEAN",
			Date:    "DATE",
			Text:    "VARCHAR(255)",
		},
		Placeholder: questionMark,
		QuoteIdent:  backtick,
		MaxParams:   65535,
	}

	// Mongo carries BSON type names for collection validators; it renders no SQL.
	Mongo = Dialect{
		Name: "mongo",
		Types: map[Type]string{
			Integer: "int",
			Real:    "double",
			Boolean: "bool",
			Date:    "date",
			Text:    "string",
		},
	}
)

// CreateTable renders CREATE TABLE for t. Foreign key clauses are emitted
// only when foreignKeys is set.
func CreateTable(d Dialect, t Table, foreignKeys bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", d.QuoteIdent(t.Name))

	lines := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		line := fmt.Sprintf("\t%s %s", d.QuoteIdent(c.Name), d.Types[c.Type])
		if c.PrimaryKey {
			line += " PRIMARY KEY"
		}
		lines = append(lines, line)
	}
	if foreignKeys && !d.NoForeignKeys {
		for _, c := range t.Columns {
			if c.References == nil {
				continue
			}
			lines = append(lines, fmt.Sprintf("\tFOREIGN KEY (%s) REFERENCES %s (%s)",
				d.QuoteIdent(c.Name), d.QuoteIdent(c.References.Table), d.QuoteIdent(c.References.Column)))
		}
	}
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n)")
	return b.String()
}

// DropTable renders an idempotent DROP TABLE for t.
func DropTable(d Dialect, t Table) string {
	stmt := "DROP TABLE IF EXISTS " + d.QuoteIdent(t.Name)
	if d.DropCascade {
		stmt += " CASCADE"
	}
	return stmt
}

// Insert renders a multi-row INSERT for t with rows value tuples.
func Insert(d Dialect, t Table, rows int) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = d.QuoteIdent(c.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", d.QuoteIdent(t.Name), strings.Join(cols, ", "))
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for i := range t.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// CountRows renders SELECT COUNT(*) for t.
func CountRows(d Dialect, t Table) string {
	return "SELECT COUNT(*) FROM " + d.QuoteIdent(t.Name)
}

// RowsPerStatement returns how many rows of t fit in a single INSERT under
// the dialect's parameter limit, capped at want.
func RowsPerStatement(d Dialect, t Table, want int) int {
	if d.MaxParams == 0 || len(t.Columns) == 0 {
		return want
	}
	limit := d.MaxParams / len(t.Columns)
	if limit < 1 {
		limit = 1
	}
	if want < limit {
		return want
	}
	return limit
}
