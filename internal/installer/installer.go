package installer

import (
	"errors"
	"fmt"

	"github.com/schemactl/schemactl/internal/catalog"
	"github.com/schemactl/schemactl/internal/dialect"
	"github.com/schemactl/schemactl/pkg/logger"
)

// ErrNoTransaction is returned when Install or Uninstall is invoked without
// an open transaction. It is fatal and never retried.
var ErrNoTransaction = errors.New("schema installation requires an open transaction")

// Notice is the message bag passed to lifecycle hooks. Subscribers may append
// messages; the before hook may cancel creation by returning false.
type Notice struct {
	Tables   []string
	Messages []string
}

// Hooks are invoked synchronously around the creation loop. A false return
// from BeforeCreate cancels table creation, but AfterCreate still fires.
type Hooks struct {
	BeforeCreate func(*Notice) bool
	AfterCreate  func(*Notice)
}

// Outcome records the result of one table drop during Uninstall.
type Outcome struct {
	Table string
	Err   error
}

// Installer drives ordered schema creation and removal. All DDL for one call
// runs on the transaction handed in by the caller; the installer never
// commits or rolls back itself.
type Installer struct {
	adapter   dialect.Adapter
	logger    *logger.Logger
	seeder    Seeder
	hooks     Hooks
	overwrite bool
	onTable   func(table string)
}

type Option func(*Installer)

// WithSeeder sets the baseline data seeder invoked after each table creation.
func WithSeeder(s Seeder) Option {
	return func(i *Installer) { i.seeder = s }
}

// WithHooks registers the lifecycle hooks.
func WithHooks(h Hooks) Option {
	return func(i *Installer) { i.hooks = h }
}

// WithOverwrite makes Install drop and recreate tables that already exist.
// Existing data in those tables is lost.
func WithOverwrite() Option {
	return func(i *Installer) { i.overwrite = true }
}

// WithTableCallback registers a callback fired after each table is processed,
// used by the CLI to drive progress reporting.
func WithTableCallback(fn func(table string)) Option {
	return func(i *Installer) { i.onTable = fn }
}

func New(adapter dialect.Adapter, log *logger.Logger, opts ...Option) *Installer {
	inst := &Installer{
		adapter: adapter,
		logger:  log,
		seeder:  NopSeeder{},
	}
	for _, opt := range opts {
		opt(inst)
	}
	return inst
}

// Install creates every table of the catalog in order. Tables that already
// exist are skipped unless overwriting was requested. Any DDL failure is
// fatal: the error propagates and the caller must roll back the transaction.
func (i *Installer) Install(tx dialect.Querier, cat *catalog.Catalog) error {
	if tx == nil {
		return ErrNoTransaction
	}

	notice := &Notice{Tables: cat.TableNames()}

	canceled := false
	if i.hooks.BeforeCreate != nil && !i.hooks.BeforeCreate(notice) {
		canceled = true
		i.logger.Info("Schema creation canceled by hook")
	}

	if !canceled {
		i.logger.Infof("Installing schema (%d tables)", cat.Len())
		for _, table := range cat.Tables() {
			if err := i.installTable(tx, table); err != nil {
				return fmt.Errorf("failed to install table %s: %w", table.Name, err)
			}
			if i.onTable != nil {
				i.onTable(table.Name)
			}
		}
	}

	if i.hooks.AfterCreate != nil {
		i.hooks.AfterCreate(notice)
	}

	return nil
}

func (i *Installer) installTable(tx dialect.Querier, table catalog.TableDefinition) error {
	exists, err := i.adapter.TableExists(tx, table.Name)
	if err != nil {
		return err
	}

	if exists {
		if !i.overwrite {
			i.logger.Debugf("Table %s already exists, skipping", table.Name)
			return nil
		}
		i.logger.Warnf("Table %s already exists, dropping before recreation", table.Name)
		if err := i.exec(tx, i.adapter.DropTable(table.Name)); err != nil {
			return err
		}
	}

	if err := i.exec(tx, i.adapter.CreateTable(table)); err != nil {
		return err
	}

	if pk := table.PrimaryKey; pk != nil {
		if stmt := i.adapter.CreatePrimaryKey(*pk); stmt != "" {
			if err := i.exec(tx, stmt); err != nil {
				return err
			}
		}
	}

	toggleIdentity := table.HasIdentity() && i.adapter.SupportsIdentityInsert()
	if toggleIdentity {
		if err := i.exec(tx, i.adapter.EnableIdentityInsert(table.Name)); err != nil {
			return err
		}
	}

	if err := i.seeder.Seed(tx, table.Name); err != nil {
		return fmt.Errorf("failed to seed table %s: %w", table.Name, err)
	}

	if stmt := i.adapter.ResyncIdentity(table); stmt != "" {
		if err := i.exec(tx, stmt); err != nil {
			return err
		}
	}

	for _, stmt := range i.adapter.CreateIndexes(table) {
		if err := i.exec(tx, stmt); err != nil {
			return err
		}
	}

	for _, stmt := range i.adapter.CreateForeignKeys(table) {
		if err := i.exec(tx, stmt); err != nil {
			return err
		}
	}

	if toggleIdentity {
		if err := i.exec(tx, i.adapter.DisableIdentityInsert(table.Name)); err != nil {
			return err
		}
	}

	return nil
}

// Uninstall drops every catalog table in reverse order, dependents before
// dependencies. Drops are best-effort: a failure is logged, recorded in the
// returned outcomes, and does not stop the remaining drops. The caller
// decides whether any recorded failure should be escalated.
func (i *Installer) Uninstall(tx dialect.Querier, cat *catalog.Catalog) ([]Outcome, error) {
	if tx == nil {
		return nil, ErrNoTransaction
	}

	i.logger.Infof("Uninstalling schema (%d tables)", cat.Len())

	var outcomes []Outcome
	for _, table := range cat.Reversed() {
		exists, err := i.adapter.TableExists(tx, table.Name)
		if err != nil {
			i.logger.Warnf("Failed to check table %s: %v", table.Name, err)
			outcomes = append(outcomes, Outcome{Table: table.Name, Err: err})
			continue
		}
		if !exists {
			i.logger.Debugf("Table %s not present, skipping", table.Name)
			continue
		}

		stmt := i.adapter.DropTable(table.Name)
		i.logger.Debugf("Executing: %s", stmt)
		if _, err := tx.Exec(stmt); err != nil {
			i.logger.Warnf("Failed to drop table %s: %v", table.Name, err)
			outcomes = append(outcomes, Outcome{Table: table.Name, Err: err})
			continue
		}

		outcomes = append(outcomes, Outcome{Table: table.Name})
		if i.onTable != nil {
			i.onTable(table.Name)
		}
	}

	return outcomes, nil
}

func (i *Installer) exec(tx dialect.Querier, stmt string) error {
	i.logger.Debugf("Executing: %s", stmt)
	if _, err := tx.Exec(stmt); err != nil {
		return fmt.Errorf("ddl failed (%s): %w", stmt, err)
	}
	return nil
}

// Failed filters an outcome list down to the failures.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}
