package installer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/schemactl/schemactl/internal/catalog"
	"github.com/schemactl/schemactl/internal/dialect"
)

// Seeder inserts whatever baseline rows a freshly created table requires.
// Implementations must be a no-op for tables they know nothing about.
type Seeder interface {
	Seed(tx dialect.Querier, table string) error
}

// NopSeeder seeds nothing.
type NopSeeder struct{}

func (NopSeeder) Seed(dialect.Querier, string) error {
	return nil
}

// FuncSeeder dispatches to a registered function per table name.
type FuncSeeder map[string]func(tx dialect.Querier) error

func (f FuncSeeder) Seed(tx dialect.Querier, table string) error {
	fn, ok := f[table]
	if !ok {
		return nil
	}
	return fn(tx)
}

// RowSeeder inserts literal rows declared in a catalog, one parameterized
// INSERT per row. Column order within a row is made deterministic by sorting
// the keys.
type RowSeeder struct {
	adapter dialect.Adapter
	rows    catalog.SeedRows
}

func NewRowSeeder(adapter dialect.Adapter, rows catalog.SeedRows) *RowSeeder {
	return &RowSeeder{adapter: adapter, rows: rows}
}

func (r *RowSeeder) Seed(tx dialect.Querier, table string) error {
	rows, ok := r.rows[table]
	if !ok {
		return nil
	}

	for _, row := range rows {
		stmt, args := r.insertStatement(table, row)
		if _, err := tx.Exec(stmt, args...); err != nil {
			return fmt.Errorf("failed to insert seed row into %s: %w", table, err)
		}
	}
	return nil
}

func (r *RowSeeder) insertStatement(table string, row map[string]any) (string, []any) {
	columns := make([]string, 0, len(row))
	for name := range row {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, name := range columns {
		quoted[i] = r.adapter.QuoteIdentifier(name)
		placeholders[i] = r.adapter.Placeholder(i + 1)
		args[i] = row[name]
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		r.adapter.QuoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
	return stmt, args
}
