package catalog

import (
	"fmt"
	"strings"
)

// Catalog is an ordered list of table definitions. The order is dependency
// order: a table referenced by a foreign key must appear before every table
// referencing it, so creation can walk forward and removal can walk backward.
type Catalog struct {
	tables []TableDefinition
}

func New(tables ...TableDefinition) *Catalog {
	return &Catalog{tables: tables}
}

// Tables returns the definitions in creation order.
func (c *Catalog) Tables() []TableDefinition {
	return c.tables
}

// Reversed returns the definitions in removal order (dependents first).
func (c *Catalog) Reversed() []TableDefinition {
	reversed := make([]TableDefinition, len(c.tables))
	for i, t := range c.tables {
		reversed[len(c.tables)-1-i] = t
	}
	return reversed
}

func (c *Catalog) Len() int {
	return len(c.tables)
}

func (c *Catalog) TableNames() []string {
	names := make([]string, len(c.tables))
	for i, t := range c.tables {
		names[i] = t.Name
	}
	return names
}

// ColumnKeys returns every column as a "table,column" composite key.
func (c *Catalog) ColumnKeys() []string {
	var keys []string
	for _, t := range c.tables {
		for _, col := range t.Columns {
			keys = append(keys, fmt.Sprintf("%s,%s", t.Name, col.Name))
		}
	}
	return keys
}

func (c *Catalog) IndexNames() []string {
	var names []string
	for _, t := range c.tables {
		for _, idx := range t.Indexes {
			names = append(names, idx.Name)
		}
	}
	return names
}

func (c *Catalog) ForeignKeyNames() []string {
	var names []string
	for _, t := range c.tables {
		for _, fk := range t.ForeignKeys {
			names = append(names, fk.Name)
		}
	}
	return names
}

func (c *Catalog) PrimaryKeyNames() []string {
	var names []string
	for _, t := range c.tables {
		if t.PrimaryKey != nil {
			names = append(names, t.PrimaryKey.Name)
		}
	}
	return names
}

// CheckOrder verifies that the catalog order is topologically valid: every
// foreign key must reference a table defined earlier in the list, or the
// table itself. It also rejects duplicate and unknown table names.
func (c *Catalog) CheckOrder() error {
	seen := make(map[string]bool, len(c.tables))
	all := make(map[string]bool, len(c.tables))
	for _, t := range c.tables {
		all[strings.ToLower(t.Name)] = true
	}

	for _, t := range c.tables {
		name := strings.ToLower(t.Name)
		if seen[name] {
			return fmt.Errorf("duplicate table %s in catalog", t.Name)
		}

		for _, fk := range t.ForeignKeys {
			ref := strings.ToLower(fk.ReferencedTable)
			if !all[ref] {
				return fmt.Errorf("table %s references unknown table %s", t.Name, fk.ReferencedTable)
			}
			if ref == name {
				continue // self reference is always satisfiable
			}
			if !seen[ref] {
				return fmt.Errorf("table %s must be defined after %s, which it references", t.Name, fk.ReferencedTable)
			}
		}

		seen[name] = true
	}

	return nil
}
