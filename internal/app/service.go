package app

import (
	"fmt"

	"github.com/schemactl/schemactl/internal/catalog"
	"github.com/schemactl/schemactl/internal/config"
	"github.com/schemactl/schemactl/internal/database"
	"github.com/schemactl/schemactl/internal/dialect"
	"github.com/schemactl/schemactl/internal/installer"
	"github.com/schemactl/schemactl/internal/migration"
	"github.com/schemactl/schemactl/internal/migration/steps"
	"github.com/schemactl/schemactl/internal/validator"
	"github.com/schemactl/schemactl/pkg/logger"
	"github.com/schemactl/schemactl/pkg/progress"
)

// Service wires configuration, connections and dialects into the installer,
// validator and migration runner for each CLI command.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

type target struct {
	conn    *database.Connection
	adapter dialect.Adapter
	logger  *logger.Logger
}

func (s *Service) open(configPath string, verbose bool) (*target, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}

	conn, err := database.NewConnection(cfg)
	if err != nil {
		return nil, err
	}

	adapter, err := dialect.For(conn.Driver())
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &target{
		conn:    conn,
		adapter: adapter,
		logger:  logger.NewLogger(verbose),
	}, nil
}

// resolveCatalog loads the catalog file when given, otherwise the builtin
// content schema with its baseline seed rows.
func resolveCatalog(catalogPath string) (*catalog.Catalog, catalog.SeedRows, error) {
	if catalogPath == "" {
		return catalog.Builtin(), catalog.BuiltinSeeds(), nil
	}
	return catalog.LoadFile(catalogPath)
}

// Install creates the schema inside one transaction and, for the builtin
// catalog, baselines the migration history so historical deltas never replay
// on a fresh database.
func (s *Service) Install(configPath, catalogPath string, overwrite, verbose bool) error {
	t, err := s.open(configPath, verbose)
	if err != nil {
		return err
	}
	defer t.conn.Close()

	cat, seeds, err := resolveCatalog(catalogPath)
	if err != nil {
		return err
	}
	if err := cat.CheckOrder(); err != nil {
		return fmt.Errorf("catalog order invalid: %w", err)
	}

	bar := progress.NewBar(int64(cat.Len()), "Installing schema")
	opts := []installer.Option{
		installer.WithSeeder(installer.NewRowSeeder(t.adapter, seeds)),
		installer.WithTableCallback(func(string) { bar.Increment() }),
	}
	if overwrite {
		opts = append(opts, installer.WithOverwrite())
	}
	inst := installer.New(t.adapter, t.logger, opts...)

	tx, err := t.conn.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := inst.Install(tx, cat); err != nil {
		return err
	}

	if catalogPath == "" {
		runner := migration.NewRunner(t.conn.DB, t.adapter, t.logger)
		runner.Register(steps.All()...)
		if err := runner.Baseline(tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit installation: %w", err)
	}

	bar.Finish()
	t.logger.Infof("%d tables installed", cat.Len())
	return nil
}

// Uninstall drops the schema in reverse catalog order. Per-table failures do
// not stop the remaining drops but are escalated after the pass.
func (s *Service) Uninstall(configPath, catalogPath string, verbose bool) error {
	t, err := s.open(configPath, verbose)
	if err != nil {
		return err
	}
	defer t.conn.Close()

	cat, _, err := resolveCatalog(catalogPath)
	if err != nil {
		return err
	}

	inst := installer.New(t.adapter, t.logger)

	tx, err := t.conn.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	outcomes, err := inst.Uninstall(tx, cat)
	if err != nil {
		return err
	}

	if failed := installer.Failed(outcomes); len(failed) > 0 {
		for _, o := range failed {
			t.logger.Errorf("Could not drop %s: %v", o.Table, o.Err)
		}
		return fmt.Errorf("uninstall finished with %d failed drops", len(failed))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit uninstall: %w", err)
	}

	t.logger.Infof("%d tables dropped", len(outcomes))
	return nil
}

// Validate compares the live schema against the catalog and reports every
// mismatch. The migration history table is infrastructure and excluded.
func (s *Service) Validate(configPath, catalogPath string, verbose bool) error {
	t, err := s.open(configPath, verbose)
	if err != nil {
		return err
	}
	defer t.conn.Close()

	cat, _, err := resolveCatalog(catalogPath)
	if err != nil {
		return err
	}

	v := validator.New(t.adapter, t.logger, validator.WithIgnoredTables(migration.HistoryTable))
	result, err := v.Validate(t.conn.DB, cat)
	if err != nil {
		return err
	}

	if !result.Ok() {
		for _, p := range result.Problems {
			t.logger.Warnf("%s mismatch: %s", p.Kind, p.Name)
		}
		return fmt.Errorf("schema validation found %d problems", len(result.Problems))
	}

	t.logger.Info("Schema matches the catalog")
	return nil
}

// Migrate applies every pending step of the builtin upgrade sequence.
func (s *Service) Migrate(configPath string, verbose bool) error {
	t, err := s.open(configPath, verbose)
	if err != nil {
		return err
	}
	defer t.conn.Close()

	runner := migration.NewRunner(t.conn.DB, t.adapter, t.logger)
	runner.Register(steps.All()...)

	pending, err := runner.Pending(t.conn.DB)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		t.logger.Info("Database is up to date")
		return nil
	}

	bar := progress.NewBar(int64(len(pending)), "Applying migrations")
	runner.OnStep(func(string) { bar.Increment() })

	report, err := runner.Run()
	if err != nil {
		return err
	}

	bar.Finish()
	t.logger.Infof("%d migrations applied", report.Applied())
	return nil
}

// Status reports installed tables and pending migrations.
func (s *Service) Status(configPath string, verbose bool) error {
	t, err := s.open(configPath, verbose)
	if err != nil {
		return err
	}
	defer t.conn.Close()

	tables, err := t.adapter.ListTables(t.conn.DB)
	if err != nil {
		return err
	}
	t.logger.Infof("Live tables: %d", len(tables))

	runner := migration.NewRunner(t.conn.DB, t.adapter, t.logger)
	runner.Register(steps.All()...)
	pending, err := runner.Pending(t.conn.DB)
	if err != nil {
		return err
	}

	if len(pending) == 0 {
		t.logger.Info("No pending migrations")
		return nil
	}
	for _, step := range pending {
		t.logger.Infof("Pending migration: %s (%s)", step.Name(), step.Version())
	}
	return nil
}
