package migration

import (
	"fmt"

	"github.com/schemactl/schemactl/internal/catalog"
	"github.com/schemactl/schemactl/internal/dialect"
	"github.com/schemactl/schemactl/pkg/logger"
)

// Context is the ambient state for a single step execution: the open
// transaction, the dialect capabilities, and the queue of pending SQL.
// Queued statements execute in order when Flush runs and become permanent
// only when the owning transaction commits.
type Context struct {
	tx      dialect.Querier
	adapter dialect.Adapter
	logger  *logger.Logger
	pending []string
}

func NewContext(tx dialect.Querier, adapter dialect.Adapter, log *logger.Logger) *Context {
	return &Context{tx: tx, adapter: adapter, logger: log}
}

// Tx exposes the open transaction for steps that need row-level access,
// such as fetch-and-update backfills.
func (c *Context) Tx() dialect.Querier {
	return c.tx
}

func (c *Context) Adapter() dialect.Adapter {
	return c.adapter
}

func (c *Context) Logger() *logger.Logger {
	return c.logger
}

// Queue appends a raw SQL statement to the pending list.
func (c *Context) Queue(stmt string) {
	if stmt == "" {
		return
	}
	c.pending = append(c.pending, stmt)
}

// Pending returns the statements queued so far.
func (c *Context) Pending() []string {
	return c.pending
}

// Flush executes every queued statement in order and clears the queue. The
// first failure aborts the flush; the remaining statements stay queued so the
// error report reflects where execution stopped.
func (c *Context) Flush() error {
	for len(c.pending) > 0 {
		stmt := c.pending[0]
		c.logger.Debugf("Executing: %s", stmt)
		if _, err := c.tx.Exec(stmt); err != nil {
			return fmt.Errorf("migration statement failed (%s): %w", stmt, err)
		}
		c.pending = c.pending[1:]
	}
	return nil
}

func (c *Context) RenameTable(oldName, newName string) {
	c.Queue(c.adapter.RenameTable(oldName, newName))
}

func (c *Context) AddColumn(column catalog.ColumnDefinition) {
	c.Queue(c.adapter.AddColumn(column))
}

func (c *Context) DropColumn(table, column string) {
	c.Queue(c.adapter.DropColumn(table, column))
}

func (c *Context) DropIndex(table, index string) {
	c.Queue(c.adapter.DropIndex(table, index))
}

// DropKey queues removal of a named key constraint. Engines that cannot drop
// constraints in place return no statement; the omission is logged and the
// constraint is left behind.
func (c *Context) DropKey(table, constraint string) {
	stmt := c.adapter.DropConstraint(table, constraint)
	if stmt == "" {
		c.logger.Debugf("Dialect %s cannot drop constraint %s on %s, leaving it in place", c.adapter.Name(), constraint, table)
		return
	}
	c.Queue(stmt)
}
