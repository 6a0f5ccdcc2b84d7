package validator_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/schemactl/schemactl/internal/catalog"
	"github.com/schemactl/schemactl/internal/dialect"
	"github.com/schemactl/schemactl/internal/installer"
	"github.com/schemactl/schemactl/internal/migration"
	"github.com/schemactl/schemactl/internal/validator"
	"github.com/schemactl/schemactl/pkg/logger"
)

func installBuiltin(t *testing.T) (*sql.DB, dialect.Adapter) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	adapter := dialect.NewSQLite()
	inst := installer.New(adapter, logger.NewSilent())

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, inst.Install(tx, catalog.Builtin()))
	require.NoError(t, tx.Commit())
	return db, adapter
}

func TestValidateCleanInstall(t *testing.T) {
	db, adapter := installBuiltin(t)
	v := validator.New(adapter, logger.NewSilent())

	result, err := v.Validate(db, catalog.Builtin())
	require.NoError(t, err)
	assert.True(t, result.Ok(), "problems: %v", result.Problems)
	assert.Equal(t, catalog.Builtin().Len(), len(result.ValidTables))
	assert.NotEmpty(t, result.ValidColumns)
	assert.NotEmpty(t, result.ValidConstraints)
}

func TestValidateReportsMissingTable(t *testing.T) {
	db, adapter := installBuiltin(t)
	v := validator.New(adapter, logger.NewSilent())

	// A catalog with one extra table the live database never got.
	cat := catalog.Builtin()
	extra := catalog.TableDefinition{
		Name: "audit_log",
		Columns: []catalog.ColumnDefinition{
			{Name: "id", TableName: "audit_log", DataType: "integer", Identity: true},
		},
	}
	cat = catalog.New(append(cat.Tables(), extra)...)

	result, err := v.Validate(db, cat)
	require.NoError(t, err)
	assert.False(t, result.Ok())
	assert.Equal(t, 1, result.CountByKind(validator.KindTable))
	// The missing table also surfaces as a missing column.
	assert.Equal(t, 1, result.CountByKind(validator.KindColumn))
}

func TestValidateReportsUnknownLiveTable(t *testing.T) {
	db, adapter := installBuiltin(t)
	_, err := db.Exec(`CREATE TABLE "scratch" ("id" INTEGER)`)
	require.NoError(t, err)

	v := validator.New(adapter, logger.NewSilent())
	result, err := v.Validate(db, catalog.Builtin())
	require.NoError(t, err)

	assert.Equal(t, 1, result.CountByKind(validator.KindTable))
	problems := result.Problems
	require.NotEmpty(t, problems)
	found := false
	for _, p := range problems {
		if p.Kind == validator.KindTable && p.Name == "scratch" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateReportsExtraColumnWithCompositeKey(t *testing.T) {
	db, adapter := installBuiltin(t)
	_, err := db.Exec(`ALTER TABLE "node" ADD COLUMN "legacy_flag" INTEGER`)
	require.NoError(t, err)

	v := validator.New(adapter, logger.NewSilent())
	result, err := v.Validate(db, catalog.Builtin())
	require.NoError(t, err)

	require.Equal(t, 1, result.CountByKind(validator.KindColumn))
	for _, p := range result.Problems {
		if p.Kind == validator.KindColumn {
			assert.Equal(t, "node,legacy_flag", p.Name)
		}
	}
}

func TestValidateIgnoresHistoryTable(t *testing.T) {
	db, adapter := installBuiltin(t)

	runner := migration.NewRunner(db, adapter, logger.NewSilent())
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, runner.Baseline(tx))
	require.NoError(t, tx.Commit())

	v := validator.New(adapter, logger.NewSilent(), validator.WithIgnoredTables(migration.HistoryTable))
	result, err := v.Validate(db, catalog.Builtin())
	require.NoError(t, err)
	assert.True(t, result.Ok(), "problems: %v", result.Problems)

	// Without the ignore rule the history table shows up as unknown.
	strict := validator.New(adapter, logger.NewSilent())
	result, err = strict.Validate(db, catalog.Builtin())
	require.NoError(t, err)
	assert.False(t, result.Ok())
}

// constraintAdapter feeds Validate a canned constraint inventory so the
// classification rules can be pinned down without a database.
type constraintAdapter struct {
	dialect.Adapter
	constraints []dialect.ConstraintInfo
}

func (c *constraintAdapter) ListTables(db dialect.Querier) ([]string, error) { return nil, nil }
func (c *constraintAdapter) ListColumns(db dialect.Querier) ([]dialect.ColumnInfo, error) {
	return nil, nil
}
func (c *constraintAdapter) ListIndexes(db dialect.Querier) ([]dialect.IndexInfo, error) {
	return nil, nil
}
func (c *constraintAdapter) ListConstraints(db dialect.Querier) ([]dialect.ConstraintInfo, error) {
	return c.constraints, nil
}

func TestValidateClassifiesConstraintsByPrefix(t *testing.T) {
	cat := catalog.New(
		catalog.TableDefinition{
			Name: "node",
			Columns: []catalog.ColumnDefinition{
				{Name: "id", TableName: "node", DataType: "integer", Identity: true},
			},
			PrimaryKey: &catalog.PrimaryKeyDefinition{
				Name: "PK_node", TableName: "node", Columns: []string{"id"},
			},
		},
		catalog.TableDefinition{
			Name: "content",
			Columns: []catalog.ColumnDefinition{
				{Name: "id", TableName: "content", DataType: "integer", Identity: true},
				{Name: "node_id", TableName: "content", DataType: "integer"},
			},
			ForeignKeys: []catalog.ForeignKeyDefinition{{
				Name: "FK_content_node", TableName: "content", Columns: []string{"node_id"},
				ReferencedTable: "node", ReferencedColumns: []string{"id"},
			}},
		},
	)

	adapter := &constraintAdapter{constraints: []dialect.ConstraintInfo{
		{TableName: "node", ConstraintName: "PK_node"},
		{TableName: "content", ConstraintName: "FK_content_node"},
		// Same constraint reported once per column must not double-count.
		{TableName: "content", ColumnName: "node_id", ConstraintName: "FK_content_node"},
		// FK_ prefix but not in the catalog.
		{TableName: "content", ConstraintName: "FK_content_ghost"},
		// Foreign naming convention whose name is embedded in a known key.
		{TableName: "content", ConstraintName: "content_node"},
		// Nothing known contains this.
		{TableName: "content", ConstraintName: "chk_totally_unrelated"},
	}}

	v := validator.New(adapter, logger.NewSilent())
	result, err := v.Validate(nil, cat)
	require.NoError(t, err)

	assert.Contains(t, result.ValidConstraints, "PK_node")
	assert.Contains(t, result.ValidConstraints, "FK_content_node")
	assert.Contains(t, result.ValidConstraints, "content_node")
	assert.Equal(t, 1, result.CountByKind(validator.KindConstraint))
	assert.Equal(t, 1, result.CountByKind(validator.KindUnknown))
}
