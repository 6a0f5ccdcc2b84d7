package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemactl/schemactl/internal/catalog"
)

func TestCheckOrderAcceptsDependencyOrder(t *testing.T) {
	cat := catalog.New(
		tableA(),
		tableB(),
	)
	require.NoError(t, cat.CheckOrder())
}

func TestCheckOrderRejectsReferenceBeforeDefinition(t *testing.T) {
	cat := catalog.New(
		tableB(),
		tableA(),
	)
	err := cat.CheckOrder()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table_b")
}

func TestCheckOrderRejectsUnknownReference(t *testing.T) {
	cat := catalog.New(tableB())
	err := cat.CheckOrder()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown table")
}

func TestCheckOrderRejectsDuplicateTables(t *testing.T) {
	cat := catalog.New(tableA(), tableA())
	require.Error(t, cat.CheckOrder())
}

func TestCheckOrderAllowsSelfReference(t *testing.T) {
	table := tableA()
	table.ForeignKeys = []catalog.ForeignKeyDefinition{{
		Name:              catalog.ForeignKeyName("table_a", "table_a"),
		TableName:         "table_a",
		Columns:           []string{"parent_id"},
		ReferencedTable:   "table_a",
		ReferencedColumns: []string{"id"},
	}}
	require.NoError(t, catalog.New(table).CheckOrder())
}

func TestReversedIsExactReverse(t *testing.T) {
	cat := catalog.New(tableA(), tableB())

	forward := cat.TableNames()
	require.Equal(t, []string{"table_a", "table_b"}, forward)

	var reversed []string
	for _, table := range cat.Reversed() {
		reversed = append(reversed, table.Name)
	}
	require.Equal(t, []string{"table_b", "table_a"}, reversed)
}

func TestColumnKeysUseCompositeFormat(t *testing.T) {
	cat := catalog.New(tableA())
	assert.Contains(t, cat.ColumnKeys(), "table_a,id")
}

func TestNameConventions(t *testing.T) {
	assert.Equal(t, "PK_node", catalog.PrimaryKeyName("node"))
	assert.Equal(t, "FK_content_node", catalog.ForeignKeyName("content", "node"))
	assert.Equal(t, "IX_node_parent_id", catalog.IndexName("node", "parent_id"))
}

func TestBuiltinCatalogIsWellFormed(t *testing.T) {
	cat := catalog.Builtin()
	require.NoError(t, cat.CheckOrder())
	require.Greater(t, cat.Len(), 0)

	for _, table := range cat.Tables() {
		require.NotEmpty(t, table.Columns, "table %s has no columns", table.Name)
		for _, col := range table.Columns {
			assert.Equal(t, table.Name, col.TableName)
		}
	}

	// Baseline rows must only reference catalog tables.
	names := make(map[string]bool)
	for _, name := range cat.TableNames() {
		names[name] = true
	}
	for table := range catalog.BuiltinSeeds() {
		assert.True(t, names[table], "seed rows for unknown table %s", table)
	}
}

func tableA() catalog.TableDefinition {
	return catalog.TableDefinition{
		Name: "table_a",
		Columns: []catalog.ColumnDefinition{
			{Name: "id", TableName: "table_a", DataType: "integer", Identity: true},
			{Name: "parent_id", TableName: "table_a", DataType: "integer", Nullable: true},
		},
		PrimaryKey: &catalog.PrimaryKeyDefinition{
			Name:      catalog.PrimaryKeyName("table_a"),
			TableName: "table_a",
			Columns:   []string{"id"},
		},
	}
}

func tableB() catalog.TableDefinition {
	return catalog.TableDefinition{
		Name: "table_b",
		Columns: []catalog.ColumnDefinition{
			{Name: "id", TableName: "table_b", DataType: "integer", Identity: true},
			{Name: "a_id", TableName: "table_b", DataType: "integer"},
		},
		PrimaryKey: &catalog.PrimaryKeyDefinition{
			Name:      catalog.PrimaryKeyName("table_b"),
			TableName: "table_b",
			Columns:   []string{"id"},
		},
		ForeignKeys: []catalog.ForeignKeyDefinition{{
			Name:              catalog.ForeignKeyName("table_b", "table_a"),
			TableName:         "table_b",
			Columns:           []string{"a_id"},
			ReferencedTable:   "table_a",
			ReferencedColumns: []string{"id"},
		}},
	}
}
