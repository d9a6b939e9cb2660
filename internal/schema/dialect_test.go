package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateTable_DuckDB(t *testing.T) {
	got := CreateTable(DuckDB, platformTable(), true)
	want := "CREATE TABLE IF NOT EXISTS \"cpc\" (\n" +
		"\t\"Plat_Num\" INTEGER PRIMARY KEY,\n" +
		"\t\"Platform\" VARCHAR,\n" +
		"\t\"Average_CPC\" FLOAT\n" +
		")"
	assert.Equal(t, want, got)
}

func TestCreateTable_ForeignKeys(t *testing.T) {
	with := CreateTable(Postgres, eventTable(), true)
	assert.Contains(t, with, `FOREIGN KEY ("Platform_Num") REFERENCES "cpc" ("Plat_Num")`)
	assert.Contains(t, with, `"Purchase" BOOLEAN`)

	without := CreateTable(Postgres, eventTable(), false)
	assert.NotContains(t, without, "FOREIGN KEY")

	assert.NotContains(t, CreateTable(DuckDB, eventTable(), true), "FOREIGN KEY")
}

func TestCreateTable_MySQLQuoting(t *testing.T) {
	got := CreateTable(MySQL, platformTable(), false)
	assert.Contains(t, got, "CREATE TABLE IF NOT EXISTS `cpc`")
	assert.Contains(t, got, "`Platform` VARCHAR(255)")
	assert.Contains(t, got, "`Average_CPC` DOUBLE")
}

func TestDropTable(t *testing.T) {
	assert.Equal(t, `DROP TABLE IF EXISTS "cpc"`, DropTable(DuckDB, platformTable()))
	assert.Equal(t, `DROP TABLE IF EXISTS "cpc" CASCADE`, DropTable(Postgres, platformTable()))
}

func TestInsert_Placeholders(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		rows    int
		want    string
	}{
		{
			name:    "question marks",
			dialect: SQLite,
			rows:    2,
			want:    `INSERT INTO "cpc" ("Plat_Num", "Platform", "Average_CPC") VALUES (?, ?, ?), (?, ?, ?)`,
		},
		{
			name:    "numbered",
			dialect: Postgres,
			rows:    2,
			want:    `INSERT INTO "cpc" ("Plat_Num", "Platform", "Average_CPC") VALUES ($1, $2, $3), ($4, $5, $6)`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Insert(tt.dialect, platformTable(), tt.rows))
		})
	}
}

func TestCountRows(t *testing.T) {
	assert.Equal(t, "SELECT COUNT(*) FROM `cpc`", CountRows(MySQL, platformTable()))
}

func TestRowsPerStatement(t *testing.T) {
	tbl := platformTable()
	assert.Equal(t, 1000, RowsPerStatement(DuckDB, tbl, 1000))
	assert.Equal(t, 1000, RowsPerStatement(SQLite, tbl, 1000))
	assert.Equal(t, 32766/3, RowsPerStatement(SQLite, tbl, 50000))

	tiny := Dialect{MaxParams: 2}
	assert.Equal(t, 1, RowsPerStatement(tiny, tbl, 10))
}
