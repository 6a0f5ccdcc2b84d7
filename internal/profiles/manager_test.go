package profiles_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemactl/schemactl/internal/config"
	"github.com/schemactl/schemactl/internal/profiles"
)

func postgresConfig() *config.Config {
	return &config.Config{Database: config.DatabaseConfig{
		Driver:   "postgres",
		Host:     "localhost",
		Port:     5432,
		Database: "cms",
		Username: "app",
		SSLMode:  "disable",
	}}
}

func sqliteConfig() *config.Config {
	return &config.Config{Database: config.DatabaseConfig{
		Driver: "sqlite",
		Path:   "/tmp/cms.db",
	}}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	manager := profiles.NewManager(t.TempDir())

	profile, err := manager.Save("staging", postgresConfig())
	require.NoError(t, err)
	assert.Equal(t, "staging", profile.Name)
	assert.Equal(t, "postgres", profile.Driver)
	assert.Equal(t, filepath.Join(manager.Directory(), "staging.yaml"), profile.Path)

	cfg, err := manager.Load("staging")
	require.NoError(t, err)
	assert.Equal(t, "cms", cfg.Database.Database)
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestSaveSanitizesAlias(t *testing.T) {
	manager := profiles.NewManager(t.TempDir())

	profile, err := manager.Save("prod db / east!", postgresConfig())
	require.NoError(t, err)
	assert.Equal(t, "prod_db___east", profile.Name)
}

func TestSaveRejectsNilConfig(t *testing.T) {
	manager := profiles.NewManager(t.TempDir())
	_, err := manager.Save("x", nil)
	require.Error(t, err)
}

func TestListFiltersByDriver(t *testing.T) {
	manager := profiles.NewManager(t.TempDir())

	_, err := manager.Save("pg", postgresConfig())
	require.NoError(t, err)
	_, err = manager.Save("lite", sqliteConfig())
	require.NoError(t, err)

	all, err := manager.List("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pgOnly, err := manager.List("postgresql")
	require.NoError(t, err)
	require.Len(t, pgOnly, 1)
	assert.Equal(t, "pg", pgOnly[0].Name)
}

func TestListMissingDirectoryIsEmpty(t *testing.T) {
	manager := profiles.NewManager(filepath.Join(t.TempDir(), "nothing-here"))
	list, err := manager.List("")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteRemovesProfile(t *testing.T) {
	manager := profiles.NewManager(t.TempDir())

	_, err := manager.Save("gone", sqliteConfig())
	require.NoError(t, err)
	require.NoError(t, manager.Delete("gone"))

	_, err = manager.Load("gone")
	require.Error(t, err)
}

func TestDeleteUnknownProfile(t *testing.T) {
	manager := profiles.NewManager(t.TempDir())
	err := manager.Delete("never-saved")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile not found")
}
