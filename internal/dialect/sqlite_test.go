package dialect_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/schemactl/schemactl/internal/catalog"
	"github.com/schemactl/schemactl/internal/dialect"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteCreateTableInlinesKeys(t *testing.T) {
	s := dialect.NewSQLite()

	stmt := s.CreateTable(testTable())
	assert.Equal(t,
		`CREATE TABLE "content" (`+
			`"id" INTEGER NOT NULL, `+
			`"node_id" INTEGER NOT NULL, `+
			`"note" TEXT, `+
			`CONSTRAINT "PK_content" PRIMARY KEY ("id" AUTOINCREMENT), `+
			`CONSTRAINT "FK_content_node" FOREIGN KEY ("node_id") REFERENCES "node" ("id") ON DELETE CASCADE)`,
		stmt,
	)

	// Keys are inlined, so the standalone statements are empty.
	assert.Empty(t, s.CreatePrimaryKey(*testTable().PrimaryKey))
	assert.Empty(t, s.CreateForeignKeys(testTable()))
}

func TestSQLiteAddColumnRequiresDefaultForNotNull(t *testing.T) {
	s := dialect.NewSQLite()

	stmt := s.AddColumn(catalog.ColumnDefinition{Name: "count", TableName: "t", DataType: "integer"})
	assert.Equal(t, `ALTER TABLE "t" ADD COLUMN "count" INTEGER NOT NULL DEFAULT 0`, stmt)

	stmt = s.AddColumn(catalog.ColumnDefinition{Name: "label", TableName: "t", DataType: "varchar(50)"})
	assert.Equal(t, `ALTER TABLE "t" ADD COLUMN "label" TEXT NOT NULL DEFAULT ''`, stmt)

	stmt = s.AddColumn(catalog.ColumnDefinition{Name: "extra", TableName: "t", DataType: "integer", Nullable: true})
	assert.Equal(t, `ALTER TABLE "t" ADD COLUMN "extra" INTEGER`, stmt)
}

func TestSQLiteCapabilities(t *testing.T) {
	s := dialect.NewSQLite()

	assert.False(t, s.SupportsUpdateFromJoin())
	assert.False(t, s.SupportsIdentityInsert())
	assert.Empty(t, s.ResyncIdentity(testTable()))
	assert.Empty(t, s.DropConstraint("t", "FK_t_u"))
	assert.Equal(t, "?", s.Placeholder(1))
}

func TestSQLiteIntrospection(t *testing.T) {
	s := dialect.NewSQLite()
	db := openSQLite(t)

	node := catalog.TableDefinition{
		Name: "node",
		Columns: []catalog.ColumnDefinition{
			{Name: "id", TableName: "node", DataType: "integer", Identity: true},
			{Name: "path", TableName: "node", DataType: "varchar(255)"},
		},
		PrimaryKey: &catalog.PrimaryKeyDefinition{Name: "PK_node", TableName: "node", Columns: []string{"id"}},
		Indexes: []catalog.IndexDefinition{{
			Name: "IX_node_path", TableName: "node", Columns: []string{"path"},
		}},
	}

	_, err := db.Exec(s.CreateTable(node))
	require.NoError(t, err)
	_, err = db.Exec(s.CreateTable(testTable()))
	require.NoError(t, err)
	for _, stmt := range s.CreateIndexes(node) {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}

	exists, err := s.TableExists(db, "node")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = s.TableExists(db, "NODE")
	require.NoError(t, err)
	assert.True(t, exists, "existence check is case-insensitive")
	exists, err = s.TableExists(db, "missing")
	require.NoError(t, err)
	assert.False(t, exists)

	tables, err := s.ListTables(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"content", "node"}, tables)

	columns, err := s.ListColumns(db)
	require.NoError(t, err)
	assert.Contains(t, columns, dialect.ColumnInfo{TableName: "node", ColumnName: "path"})
	assert.Contains(t, columns, dialect.ColumnInfo{TableName: "content", ColumnName: "node_id"})

	indexes, err := s.ListIndexes(db)
	require.NoError(t, err)
	require.Len(t, indexes, 1)
	assert.Equal(t, "IX_node_path", indexes[0].IndexName)

	constraints, err := s.ListConstraints(db)
	require.NoError(t, err)
	var names []string
	for _, c := range constraints {
		names = append(names, c.ConstraintName)
	}
	assert.Contains(t, names, "PK_node")
	assert.Contains(t, names, "PK_content")
	assert.Contains(t, names, "FK_content_node")
}
