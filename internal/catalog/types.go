package catalog

import "fmt"

// Constraint and index names follow fixed prefixes so the validator can
// classify whatever it finds in a live database.
const (
	PrimaryKeyPrefix = "PK_"
	ForeignKeyPrefix = "FK_"
	IndexPrefix      = "IX_"
)

type TableDefinition struct {
	Name        string
	Columns     []ColumnDefinition
	Indexes     []IndexDefinition
	ForeignKeys []ForeignKeyDefinition
	PrimaryKey  *PrimaryKeyDefinition
}

type ColumnDefinition struct {
	Name         string
	TableName    string
	DataType     string
	Nullable     bool
	Identity     bool
	DefaultValue *string
}

type PrimaryKeyDefinition struct {
	Name      string
	TableName string
	Columns   []string
}

type IndexDefinition struct {
	Name      string
	TableName string
	Columns   []string
	Unique    bool
}

type ForeignKeyDefinition struct {
	Name              string
	TableName         string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          string
	OnUpdate          string
}

// SeedRows holds baseline rows keyed by table name, inserted right after the
// owning table is created.
type SeedRows map[string][]map[string]any

// HasIdentity reports whether any column of the table is auto-incrementing.
func (t TableDefinition) HasIdentity() bool {
	for _, col := range t.Columns {
		if col.Identity {
			return true
		}
	}
	return false
}

func PrimaryKeyName(table string) string {
	return PrimaryKeyPrefix + table
}

func ForeignKeyName(table, referenced string) string {
	return fmt.Sprintf("%s%s_%s", ForeignKeyPrefix, table, referenced)
}

func IndexName(table, column string) string {
	return fmt.Sprintf("%s%s_%s", IndexPrefix, table, column)
}
