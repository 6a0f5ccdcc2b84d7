package dialect

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/schemactl/schemactl/internal/catalog"
)

var constraintNameRe = regexp.MustCompile(`(?i)CONSTRAINT\s+["'\x60\[]?([A-Za-z0-9_]+)`)

// SQLite formats DDL for SQLite and inspects the live schema through
// sqlite_master and PRAGMA table_info. Primary keys and foreign keys can only
// be declared inline with CREATE TABLE, so the standalone constraint methods
// return empty statements and the installer skips them.
type SQLite struct{}

func NewSQLite() *SQLite {
	return &SQLite{}
}

func (s *SQLite) Name() string {
	return "sqlite"
}

func (s *SQLite) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

func (s *SQLite) Placeholder(position int) string {
	return "?"
}

func (s *SQLite) CreateTable(table catalog.TableDefinition) string {
	defs := make([]string, 0, len(table.Columns)+1+len(table.ForeignKeys))
	for _, col := range table.Columns {
		defs = append(defs, s.columnDDL(col))
	}

	if pk := table.PrimaryKey; pk != nil {
		cols := quoteAll(s, pk.Columns)
		if len(pk.Columns) == 1 && s.isIdentity(table, pk.Columns[0]) {
			// Single-column integer key: AUTOINCREMENT keeps rowid-alias
			// assignment aligned with identity semantics.
			cols[0] += " AUTOINCREMENT"
		}
		defs = append(defs, fmt.Sprintf(
			"CONSTRAINT %s PRIMARY KEY (%s)",
			s.QuoteIdentifier(pk.Name),
			strings.Join(cols, ", "),
		))
	}

	for _, fk := range table.ForeignKeys {
		defs = append(defs, foreignKeyClause(s, fk))
	}

	return fmt.Sprintf("CREATE TABLE %s (%s)", s.QuoteIdentifier(table.Name), strings.Join(defs, ", "))
}

func (s *SQLite) isIdentity(table catalog.TableDefinition, column string) bool {
	for _, col := range table.Columns {
		if strings.EqualFold(col.Name, column) {
			return col.Identity
		}
	}
	return false
}

func (s *SQLite) columnDDL(col catalog.ColumnDefinition) string {
	def := fmt.Sprintf("%s %s", s.QuoteIdentifier(col.Name), s.columnType(col.DataType))
	if !col.Nullable {
		def += " NOT NULL"
	}
	if col.DefaultValue != nil {
		def += " DEFAULT " + *col.DefaultValue
	}
	return def
}

// columnType maps the catalog's logical types onto SQLite storage classes.
func (s *SQLite) columnType(dataType string) string {
	base := strings.ToLower(dataType)
	if i := strings.Index(base, "("); i > 0 {
		base = base[:i]
	}
	switch base {
	case "integer", "int", "bigint", "smallint", "boolean", "bool":
		return "INTEGER"
	case "varchar", "char", "text", "uuid", "timestamp", "date", "datetime":
		return "TEXT"
	case "real", "float", "double", "numeric", "decimal":
		return "REAL"
	default:
		return dataType
	}
}

func (s *SQLite) DropTable(name string) string {
	return fmt.Sprintf("DROP TABLE %s", s.QuoteIdentifier(name))
}

func (s *SQLite) CreatePrimaryKey(pk catalog.PrimaryKeyDefinition) string {
	return "" // declared inline by CreateTable
}

func (s *SQLite) CreateIndexes(table catalog.TableDefinition) []string {
	return indexDDL(s, table)
}

func (s *SQLite) CreateForeignKeys(table catalog.TableDefinition) []string {
	return nil // declared inline by CreateTable
}

func (s *SQLite) RenameTable(oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", s.QuoteIdentifier(oldName), s.QuoteIdentifier(newName))
}

func (s *SQLite) AddColumn(column catalog.ColumnDefinition) string {
	stmt := fmt.Sprintf(
		"ALTER TABLE %s ADD COLUMN %s %s",
		s.QuoteIdentifier(column.TableName),
		s.QuoteIdentifier(column.Name),
		s.columnType(column.DataType),
	)
	if !column.Nullable {
		// ADD COLUMN with NOT NULL needs a default on SQLite.
		defaultValue := "''"
		if t := s.columnType(column.DataType); t == "INTEGER" || t == "REAL" {
			defaultValue = "0"
		}
		if column.DefaultValue != nil {
			defaultValue = *column.DefaultValue
		}
		stmt += " NOT NULL DEFAULT " + defaultValue
	} else if column.DefaultValue != nil {
		stmt += " DEFAULT " + *column.DefaultValue
	}
	return stmt
}

func (s *SQLite) DropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", s.QuoteIdentifier(table), s.QuoteIdentifier(column))
}

func (s *SQLite) DropIndex(table, index string) string {
	return fmt.Sprintf("DROP INDEX %s", s.QuoteIdentifier(index))
}

func (s *SQLite) DropConstraint(table, constraint string) string {
	return "" // would need a full table rebuild
}

func (s *SQLite) SupportsIdentityInsert() bool {
	return false
}

func (s *SQLite) EnableIdentityInsert(table string) string {
	return ""
}

func (s *SQLite) DisableIdentityInsert(table string) string {
	return ""
}

// Explicit-id inserts advance sqlite_sequence on their own, so there is
// nothing to realign.
func (s *SQLite) ResyncIdentity(table catalog.TableDefinition) string {
	return ""
}

// Kept false to stay compatible with deployed SQLite versions that predate
// UPDATE ... FROM support.
func (s *SQLite) SupportsUpdateFromJoin() bool {
	return false
}

func (s *SQLite) TableExists(db Querier, name string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND lower(name) = lower(?)`,
		name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return count > 0, nil
}

func (s *SQLite) ListTables(db Querier) ([]string, error) {
	rows, err := db.Query(
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to read table metadata: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (s *SQLite) ListColumns(db Querier) ([]ColumnInfo, error) {
	tables, err := s.ListTables(db)
	if err != nil {
		return nil, err
	}

	var columns []ColumnInfo
	for _, table := range tables {
		cols, err := s.tableColumns(db, table)
		if err != nil {
			return nil, err
		}
		columns = append(columns, cols...)
	}
	return columns, nil
}

func (s *SQLite) tableColumns(db Querier, table string) ([]ColumnInfo, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", s.QuoteIdentifier(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to query columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			cid          int
			name, ctype  string
			notNull, pk  int
			defaultValue any
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defaultValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to read column metadata of %s: %w", table, err)
		}
		columns = append(columns, ColumnInfo{TableName: table, ColumnName: name})
	}
	return columns, rows.Err()
}

func (s *SQLite) ListIndexes(db Querier) ([]IndexInfo, error) {
	rows, err := db.Query(
		`SELECT tbl_name, name FROM sqlite_master
		 WHERE type = 'index' AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query index metadata: %w", err)
	}
	defer rows.Close()

	var indexes []IndexInfo
	for rows.Next() {
		var idx IndexInfo
		if err := rows.Scan(&idx.TableName, &idx.IndexName); err != nil {
			return nil, fmt.Errorf("failed to read index metadata: %w", err)
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

// ListConstraints recovers key constraint names from the stored CREATE TABLE
// text, since SQLite has no constraint listing API.
func (s *SQLite) ListConstraints(db Querier) ([]ConstraintInfo, error) {
	rows, err := db.Query(
		`SELECT name, sql FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND sql IS NOT NULL
		 ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query table definitions: %w", err)
	}
	defer rows.Close()

	var constraints []ConstraintInfo
	for rows.Next() {
		var table, createSQL string
		if err := rows.Scan(&table, &createSQL); err != nil {
			return nil, fmt.Errorf("failed to read table definition: %w", err)
		}
		for _, match := range constraintNameRe.FindAllStringSubmatch(createSQL, -1) {
			constraints = append(constraints, ConstraintInfo{
				TableName:      table,
				ConstraintName: match[1],
			})
		}
	}
	return constraints, rows.Err()
}
