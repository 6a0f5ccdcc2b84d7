package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Tables []tableEntry `yaml:"tables"`
}

type tableEntry struct {
	Name           string           `yaml:"name"`
	Columns        []columnEntry    `yaml:"columns"`
	PrimaryKey     []string         `yaml:"primary_key"`
	PrimaryKeyName string           `yaml:"primary_key_name"`
	Indexes        []indexEntry     `yaml:"indexes"`
	ForeignKeys    []fkEntry        `yaml:"foreign_keys"`
	Seed           []map[string]any `yaml:"seed"`
}

type columnEntry struct {
	Name     string  `yaml:"name"`
	Type     string  `yaml:"type"`
	Nullable bool    `yaml:"nullable"`
	Identity bool    `yaml:"identity"`
	Default  *string `yaml:"default"`
}

type indexEntry struct {
	Name    string   `yaml:"name"`
	Columns []string `yaml:"columns"`
	Unique  bool     `yaml:"unique"`
}

type fkEntry struct {
	Name              string   `yaml:"name"`
	Columns           []string `yaml:"columns"`
	ReferencedTable   string   `yaml:"references"`
	ReferencedColumns []string `yaml:"referenced_columns"`
	OnDelete          string   `yaml:"on_delete"`
	OnUpdate          string   `yaml:"on_update"`
}

// LoadFile reads a catalog declaration from a YAML file. Table order in the
// file is taken as the dependency order and checked before returning. Seed
// rows declared per table are returned alongside the catalog.
func LoadFile(path string) (*Catalog, SeedRows, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if len(file.Tables) == 0 {
		return nil, nil, fmt.Errorf("catalog file %s declares no tables", path)
	}

	seeds := make(SeedRows)
	tables := make([]TableDefinition, 0, len(file.Tables))
	for _, entry := range file.Tables {
		table, err := entry.toDefinition()
		if err != nil {
			return nil, nil, err
		}
		tables = append(tables, table)
		if len(entry.Seed) > 0 {
			seeds[table.Name] = entry.Seed
		}
	}

	cat := New(tables...)
	if err := cat.CheckOrder(); err != nil {
		return nil, nil, fmt.Errorf("catalog order invalid: %w", err)
	}

	return cat, seeds, nil
}

func (e tableEntry) toDefinition() (TableDefinition, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return TableDefinition{}, fmt.Errorf("catalog contains a table without a name")
	}
	if len(e.Columns) == 0 {
		return TableDefinition{}, fmt.Errorf("table %s declares no columns", name)
	}

	table := TableDefinition{Name: name}

	for _, col := range e.Columns {
		if strings.TrimSpace(col.Name) == "" || strings.TrimSpace(col.Type) == "" {
			return TableDefinition{}, fmt.Errorf("table %s has a column without name or type", name)
		}
		table.Columns = append(table.Columns, ColumnDefinition{
			Name:         col.Name,
			TableName:    name,
			DataType:     col.Type,
			Nullable:     col.Nullable,
			Identity:     col.Identity,
			DefaultValue: col.Default,
		})
	}

	if len(e.PrimaryKey) > 0 {
		pkName := e.PrimaryKeyName
		if pkName == "" {
			pkName = PrimaryKeyName(name)
		}
		table.PrimaryKey = &PrimaryKeyDefinition{
			Name:      pkName,
			TableName: name,
			Columns:   e.PrimaryKey,
		}
	}

	for _, idx := range e.Indexes {
		if len(idx.Columns) == 0 {
			return TableDefinition{}, fmt.Errorf("table %s has an index without columns", name)
		}
		idxName := idx.Name
		if idxName == "" {
			idxName = IndexName(name, strings.Join(idx.Columns, "_"))
		}
		table.Indexes = append(table.Indexes, IndexDefinition{
			Name:      idxName,
			TableName: name,
			Columns:   idx.Columns,
			Unique:    idx.Unique,
		})
	}

	for _, fk := range e.ForeignKeys {
		if len(fk.Columns) == 0 || fk.ReferencedTable == "" {
			return TableDefinition{}, fmt.Errorf("table %s has an incomplete foreign key", name)
		}
		fkName := fk.Name
		if fkName == "" {
			fkName = ForeignKeyName(name, fk.ReferencedTable)
		}
		referenced := fk.ReferencedColumns
		if len(referenced) == 0 {
			referenced = []string{"id"}
		}
		table.ForeignKeys = append(table.ForeignKeys, ForeignKeyDefinition{
			Name:              fkName,
			TableName:         name,
			Columns:           fk.Columns,
			ReferencedTable:   fk.ReferencedTable,
			ReferencedColumns: referenced,
			OnDelete:          fk.OnDelete,
			OnUpdate:          fk.OnUpdate,
		})
	}

	return table, nil
}
