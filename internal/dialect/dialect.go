package dialect

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/schemactl/schemactl/internal/catalog"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Installer, validator and migration code all run against it so tests can
// substitute recording fakes.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// ColumnInfo identifies one live column.
type ColumnInfo struct {
	TableName  string
	ColumnName string
}

// IndexInfo identifies one live index.
type IndexInfo struct {
	TableName string
	IndexName string
}

// ConstraintInfo identifies one live key constraint. ColumnName may be empty
// on engines that only expose constraints per table.
type ConstraintInfo struct {
	TableName      string
	ColumnName     string
	ConstraintName string
}

// Adapter is the per-engine capability surface: it formats DDL for catalog
// definitions, answers capability queries, and inspects a live database.
type Adapter interface {
	Name() string
	QuoteIdentifier(name string) string
	Placeholder(position int) string

	CreateTable(table catalog.TableDefinition) string
	DropTable(name string) string
	// CreatePrimaryKey returns an empty string when the engine can only
	// declare the key inline with CREATE TABLE.
	CreatePrimaryKey(pk catalog.PrimaryKeyDefinition) string
	CreateIndexes(table catalog.TableDefinition) []string
	CreateForeignKeys(table catalog.TableDefinition) []string

	RenameTable(oldName, newName string) string
	AddColumn(column catalog.ColumnDefinition) string
	DropColumn(table, column string) string
	DropIndex(table, index string) string
	// DropConstraint returns an empty string when the engine cannot drop a
	// named constraint in place.
	DropConstraint(table, constraint string) string

	SupportsIdentityInsert() bool
	EnableIdentityInsert(table string) string
	DisableIdentityInsert(table string) string
	// ResyncIdentity returns a statement realigning the table's identity
	// generator with the rows already present, or an empty string when the
	// engine keeps it aligned on explicit-id inserts.
	ResyncIdentity(table catalog.TableDefinition) string
	SupportsUpdateFromJoin() bool

	TableExists(db Querier, name string) (bool, error)
	ListTables(db Querier) ([]string, error)
	ListColumns(db Querier) ([]ColumnInfo, error)
	ListIndexes(db Querier) ([]IndexInfo, error)
	ListConstraints(db Querier) ([]ConstraintInfo, error)
}

// For returns the adapter for a normalized driver name.
func For(driver string) (Adapter, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql":
		return NewPostgres(), nil
	case "sqlite", "sqlite3":
		return NewSQLite(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func quoteAll(adapter Adapter, names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = adapter.QuoteIdentifier(name)
	}
	return quoted
}

func indexDDL(adapter Adapter, table catalog.TableDefinition) []string {
	var stmts []string
	for _, idx := range table.Indexes {
		unique := ""
		if idx.Unique {
			unique = "UNIQUE "
		}
		stmts = append(stmts, fmt.Sprintf(
			"CREATE %sINDEX %s ON %s (%s)",
			unique,
			adapter.QuoteIdentifier(idx.Name),
			adapter.QuoteIdentifier(table.Name),
			strings.Join(quoteAll(adapter, idx.Columns), ", "),
		))
	}
	return stmts
}

func foreignKeyClause(adapter Adapter, fk catalog.ForeignKeyDefinition) string {
	clause := fmt.Sprintf(
		"CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		adapter.QuoteIdentifier(fk.Name),
		strings.Join(quoteAll(adapter, fk.Columns), ", "),
		adapter.QuoteIdentifier(fk.ReferencedTable),
		strings.Join(quoteAll(adapter, fk.ReferencedColumns), ", "),
	)
	if fk.OnDelete != "" && !strings.EqualFold(fk.OnDelete, "NO ACTION") {
		clause += " ON DELETE " + fk.OnDelete
	}
	if fk.OnUpdate != "" && !strings.EqualFold(fk.OnUpdate, "NO ACTION") {
		clause += " ON UPDATE " + fk.OnUpdate
	}
	return clause
}
