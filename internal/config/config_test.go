package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemactl/schemactl/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigAppliesPostgresDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: postgresql
  host: localhost
  database: cms
  username: app
  password: secret
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)

	driver, dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "postgres", driver)
	assert.Equal(t, "host=localhost port=5432 user=app password=secret dbname=cms sslmode=disable", dsn)
}

func TestLoadConfigSQLite(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite3
  path: /tmp/cms.db
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Driver)

	driver, dsn, err := cfg.DSN()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", driver)
	assert.Equal(t, "/tmp/cms.db", dsn)
}

func TestDSNRejectsSQLiteWithoutPath(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	_, _, err = cfg.DSN()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a path")
}

func TestDSNRejectsUnknownDriver(t *testing.T) {
	cfg := &config.Config{Database: config.DatabaseConfig{Driver: "oracle"}}
	_, _, err := cfg.DSN()
	require.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "database: [not a mapping")
	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestNormalizeDriver(t *testing.T) {
	assert.Equal(t, "postgres", config.NormalizeDriver(""))
	assert.Equal(t, "postgres", config.NormalizeDriver("PostgreSQL"))
	assert.Equal(t, "sqlite", config.NormalizeDriver(" sqlite3 "))
	assert.Equal(t, "oracle", config.NormalizeDriver("Oracle"))
}
