package migration

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/schemactl/schemactl/internal/catalog"
	"github.com/schemactl/schemactl/internal/dialect"
	"github.com/schemactl/schemactl/pkg/logger"
)

// HistoryTable records which steps have been applied to a database. It is
// infrastructure, not part of any user catalog, and the validator ignores it.
const HistoryTable = "schemactl_migration"

// StepResult reports the final state of one step after a run.
type StepResult struct {
	Name    string
	Version string
	State   State
}

// Report collects the per-step results of one migration run. Steps that never
// ran because an earlier step failed stay in StatePending.
type Report struct {
	Steps []StepResult
}

// Applied counts the steps the run actually applied.
func (r *Report) Applied() int {
	count := 0
	for _, s := range r.Steps {
		if s.State == StateApplied {
			count++
		}
	}
	return count
}

// Runner sequences registered steps in version order against one database.
// The whole run executes in a single transaction: any step failure rolls
// everything back, so the recorded version state never advances partially.
type Runner struct {
	db      *sql.DB
	adapter dialect.Adapter
	logger  *logger.Logger
	steps   []Step
	onStep  func(name string)
}

func NewRunner(db *sql.DB, adapter dialect.Adapter, log *logger.Logger) *Runner {
	return &Runner{db: db, adapter: adapter, logger: log}
}

// Register appends steps to the upgrade sequence. Registration order must
// follow version order; Run rejects a misordered sequence.
func (r *Runner) Register(steps ...Step) {
	r.steps = append(r.steps, steps...)
}

// OnStep registers a callback fired after each applied step, used by the CLI
// for progress reporting.
func (r *Runner) OnStep(fn func(name string)) {
	r.onStep = fn
}

// Run applies every registered step that the history table does not list yet.
// A step failure aborts the transaction and surfaces as a fatal error for the
// whole run.
func (r *Runner) Run() (*Report, error) {
	if err := r.checkOrder(); err != nil {
		return nil, err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.ensureHistory(tx); err != nil {
		return nil, err
	}
	applied, err := r.appliedSet(tx)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var pending []Step
	for _, step := range r.steps {
		if applied[strings.ToLower(step.Name())] {
			r.logger.Debugf("Step %s (%s) already applied, skipping", step.Name(), step.Version())
			continue
		}
		pending = append(pending, step)
		report.Steps = append(report.Steps, StepResult{Name: step.Name(), Version: step.Version(), State: StatePending})
	}

	for i, step := range pending {
		result := &report.Steps[i]
		result.State = StateRunning

		r.logger.Infof("Applying migration %s (%s)", step.Name(), step.Version())
		ctx := NewContext(tx, r.adapter, r.logger)

		if err := step.Migrate(ctx); err != nil {
			result.State = StateFailed
			return report, fmt.Errorf("migration %s failed: %w", step.Name(), err)
		}
		if err := ctx.Flush(); err != nil {
			result.State = StateFailed
			return report, fmt.Errorf("migration %s failed: %w", step.Name(), err)
		}
		if err := r.record(tx, step); err != nil {
			result.State = StateFailed
			return report, err
		}

		result.State = StateApplied
		if r.onStep != nil {
			r.onStep(step.Name())
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit migration run: %w", err)
	}
	return report, nil
}

// Baseline records every registered step as applied without running it. Used
// right after a fresh install, where the catalog already reflects the final
// schema and replaying historical deltas would fail.
func (r *Runner) Baseline(tx dialect.Querier) error {
	if tx == nil {
		return fmt.Errorf("baseline requires an open transaction")
	}
	if err := r.ensureHistory(tx); err != nil {
		return err
	}
	applied, err := r.appliedSet(tx)
	if err != nil {
		return err
	}

	for _, step := range r.steps {
		if applied[strings.ToLower(step.Name())] {
			continue
		}
		if err := r.record(tx, step); err != nil {
			return err
		}
	}
	return nil
}

// Pending returns the registered steps the database has not applied yet.
func (r *Runner) Pending(db dialect.Querier) ([]Step, error) {
	exists, err := r.adapter.TableExists(db, HistoryTable)
	if err != nil {
		return nil, err
	}

	applied := make(map[string]bool)
	if exists {
		applied, err = r.appliedSet(db)
		if err != nil {
			return nil, err
		}
	}

	var pending []Step
	for _, step := range r.steps {
		if !applied[strings.ToLower(step.Name())] {
			pending = append(pending, step)
		}
	}
	return pending, nil
}

func (r *Runner) checkOrder() error {
	for i := 1; i < len(r.steps); i++ {
		if compareVersions(r.steps[i-1].Version(), r.steps[i].Version()) > 0 {
			return fmt.Errorf(
				"migration steps out of order: %s (%s) registered before %s (%s)",
				r.steps[i-1].Name(), r.steps[i-1].Version(),
				r.steps[i].Name(), r.steps[i].Version(),
			)
		}
	}
	return nil
}

func (r *Runner) ensureHistory(tx dialect.Querier) error {
	exists, err := r.adapter.TableExists(tx, HistoryTable)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	table := historyTable()
	if _, err := tx.Exec(r.adapter.CreateTable(table)); err != nil {
		return fmt.Errorf("failed to create migration history table: %w", err)
	}
	if stmt := r.adapter.CreatePrimaryKey(*table.PrimaryKey); stmt != "" {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create migration history key: %w", err)
		}
	}
	for _, stmt := range r.adapter.CreateIndexes(table) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to index migration history table: %w", err)
		}
	}
	return nil
}

func (r *Runner) appliedSet(tx dialect.Querier) (map[string]bool, error) {
	rows, err := tx.Query(fmt.Sprintf(
		"SELECT %s FROM %s",
		r.adapter.QuoteIdentifier("step_name"),
		r.adapter.QuoteIdentifier(HistoryTable),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to read migration history: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to read migration history row: %w", err)
		}
		applied[strings.ToLower(name)] = true
	}
	return applied, rows.Err()
}

func (r *Runner) record(tx dialect.Querier, step Step) error {
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s) VALUES (%s, %s, %s)",
		r.adapter.QuoteIdentifier(HistoryTable),
		r.adapter.QuoteIdentifier("step_name"),
		r.adapter.QuoteIdentifier("version"),
		r.adapter.QuoteIdentifier("applied_at"),
		r.adapter.Placeholder(1),
		r.adapter.Placeholder(2),
		r.adapter.Placeholder(3),
	)
	if _, err := tx.Exec(stmt, step.Name(), step.Version(), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", step.Name(), err)
	}
	return nil
}

func historyTable() catalog.TableDefinition {
	return catalog.TableDefinition{
		Name: HistoryTable,
		Columns: []catalog.ColumnDefinition{
			{Name: "id", TableName: HistoryTable, DataType: "integer", Identity: true},
			{Name: "step_name", TableName: HistoryTable, DataType: "varchar(255)"},
			{Name: "version", TableName: HistoryTable, DataType: "varchar(50)"},
			{Name: "applied_at", TableName: HistoryTable, DataType: "timestamp"},
		},
		PrimaryKey: &catalog.PrimaryKeyDefinition{
			Name:      catalog.PrimaryKeyName(HistoryTable),
			TableName: HistoryTable,
			Columns:   []string{"id"},
		},
		Indexes: []catalog.IndexDefinition{
			{
				Name:      catalog.IndexName(HistoryTable, "step_name"),
				TableName: HistoryTable,
				Columns:   []string{"step_name"},
				Unique:    true,
			},
		},
	}
}
