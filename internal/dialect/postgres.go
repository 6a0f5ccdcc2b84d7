package dialect

import (
	"fmt"
	"strings"

	"github.com/schemactl/schemactl/internal/catalog"
)

// Postgres formats DDL for PostgreSQL and inspects the public schema through
// information_schema and the pg_catalog.
type Postgres struct {
	schema string
}

func NewPostgres() *Postgres {
	return &Postgres{schema: "public"}
}

func (p *Postgres) Name() string {
	return "postgres"
}

func (p *Postgres) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

func (p *Postgres) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

func (p *Postgres) CreateTable(table catalog.TableDefinition) string {
	defs := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		defs = append(defs, p.columnDDL(col))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", p.QuoteIdentifier(table.Name), strings.Join(defs, ", "))
}

func (p *Postgres) columnDDL(col catalog.ColumnDefinition) string {
	def := fmt.Sprintf("%s %s", p.QuoteIdentifier(col.Name), col.DataType)
	if col.Identity {
		def += " GENERATED BY DEFAULT AS IDENTITY"
	}
	if !col.Nullable {
		def += " NOT NULL"
	}
	if col.DefaultValue != nil {
		def += " DEFAULT " + *col.DefaultValue
	}
	return def
}

func (p *Postgres) DropTable(name string) string {
	return fmt.Sprintf("DROP TABLE %s", p.QuoteIdentifier(name))
}

func (p *Postgres) CreatePrimaryKey(pk catalog.PrimaryKeyDefinition) string {
	return fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)",
		p.QuoteIdentifier(pk.TableName),
		p.QuoteIdentifier(pk.Name),
		strings.Join(quoteAll(p, pk.Columns), ", "),
	)
}

func (p *Postgres) CreateIndexes(table catalog.TableDefinition) []string {
	return indexDDL(p, table)
}

func (p *Postgres) CreateForeignKeys(table catalog.TableDefinition) []string {
	var stmts []string
	for _, fk := range table.ForeignKeys {
		stmts = append(stmts, fmt.Sprintf(
			"ALTER TABLE %s ADD %s",
			p.QuoteIdentifier(table.Name),
			foreignKeyClause(p, fk),
		))
	}
	return stmts
}

func (p *Postgres) RenameTable(oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME TO %s", p.QuoteIdentifier(oldName), p.QuoteIdentifier(newName))
}

func (p *Postgres) AddColumn(column catalog.ColumnDefinition) string {
	return fmt.Sprintf(
		"ALTER TABLE %s ADD COLUMN %s",
		p.QuoteIdentifier(column.TableName),
		p.columnDDL(column),
	)
}

func (p *Postgres) DropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", p.QuoteIdentifier(table), p.QuoteIdentifier(column))
}

func (p *Postgres) DropIndex(table, index string) string {
	return fmt.Sprintf("DROP INDEX %s", p.QuoteIdentifier(index))
}

func (p *Postgres) DropConstraint(table, constraint string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", p.QuoteIdentifier(table), p.QuoteIdentifier(constraint))
}

// Identity columns use GENERATED BY DEFAULT, so explicit ids in seed rows
// insert without any session toggle.
func (p *Postgres) SupportsIdentityInsert() bool {
	return false
}

func (p *Postgres) EnableIdentityInsert(table string) string {
	return ""
}

func (p *Postgres) DisableIdentityInsert(table string) string {
	return ""
}

// ResyncIdentity moves the identity sequence past the seeded rows, since
// explicit-id inserts leave it untouched and the first application insert
// would otherwise collide.
func (p *Postgres) ResyncIdentity(table catalog.TableDefinition) string {
	for _, col := range table.Columns {
		if col.Identity {
			return fmt.Sprintf(
				"SELECT setval(pg_get_serial_sequence('%s', '%s'), COALESCE((SELECT MAX(%s) FROM %s), 0) + 1, false)",
				p.QuoteIdentifier(table.Name),
				col.Name,
				p.QuoteIdentifier(col.Name),
				p.QuoteIdentifier(table.Name),
			)
		}
	}
	return ""
}

func (p *Postgres) SupportsUpdateFromJoin() bool {
	return true
}

func (p *Postgres) TableExists(db Querier, name string) (bool, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM information_schema.tables
		 WHERE table_schema = $1 AND lower(table_name) = lower($2) AND table_type = 'BASE TABLE'`,
		p.schema, name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", name, err)
	}
	return count > 0, nil
}

func (p *Postgres) ListTables(db Querier) ([]string, error) {
	rows, err := db.Query(
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		 ORDER BY table_name`,
		p.schema,
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

func (p *Postgres) ListColumns(db Querier) ([]ColumnInfo, error) {
	rows, err := db.Query(
		`SELECT c.table_name, c.column_name
		 FROM information_schema.columns c
		 JOIN information_schema.tables t
		   ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		 WHERE c.table_schema = $1 AND t.table_type = 'BASE TABLE'
		 ORDER BY c.table_name, c.ordinal_position`,
		p.schema,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		if err := rows.Scan(&col.TableName, &col.ColumnName); err != nil {
			return nil, fmt.Errorf("failed to read column metadata: %w", err)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (p *Postgres) ListIndexes(db Querier) ([]IndexInfo, error) {
	rows, err := db.Query(
		`SELECT t.relname, i.relname
		 FROM pg_index ix
		 JOIN pg_class t ON t.oid = ix.indrelid
		 JOIN pg_class i ON i.oid = ix.indexrelid
		 JOIN pg_namespace n ON n.oid = t.relnamespace
		 WHERE n.nspname = $1 AND t.relkind = 'r' AND NOT ix.indisprimary
		 ORDER BY i.relname`,
		p.schema,
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

func (p *Postgres) ListConstraints(db Querier) ([]ConstraintInfo, error) {
	rows, err := db.Query(
		`SELECT tc.table_name, kcu.column_name, tc.constraint_name
		 FROM information_schema.table_constraints tc
		 JOIN information_schema.key_column_usage kcu
		   ON tc.constraint_name = kcu.constraint_name
		  AND tc.table_schema = kcu.table_schema
		  AND tc.table_name = kcu.table_name
		 WHERE tc.table_schema = $1
		   AND tc.constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY', 'UNIQUE')
		 ORDER BY tc.table_name, kcu.ordinal_position`,
		p.schema,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query constraint metadata: %w", err)
	}
	defer rows.Close()

	var constraints []ConstraintInfo
	for rows.Next() {
		var c ConstraintInfo
		if err := rows.Scan(&c.TableName, &c.ColumnName, &c.ConstraintName); err != nil {
			return nil, fmt.Errorf("failed to read constraint metadata: %w", err)
		}
		constraints = append(constraints, c)
	}
	return constraints, rows.Err()
}
