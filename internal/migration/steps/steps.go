// Package steps holds the versioned upgrade sequence for the builtin content
// schema. Steps describe historical deltas only: fresh installs already get
// the final shape from the catalog and are baselined past every step here.
package steps

import (
	"fmt"

	"github.com/schemactl/schemactl/internal/catalog"
	"github.com/schemactl/schemactl/internal/migration"
)

// All returns the upgrade sequence in version order.
func All() []migration.Step {
	return []migration.Step{
		AddVersionAuthor{},
		RenameMembershipTable{},
	}
}

// AddVersionAuthor adds content_version.author_id and backfills it from the
// creating user recorded on the content row.
type AddVersionAuthor struct{}

func (AddVersionAuthor) Name() string {
	return "add-version-author"
}

func (AddVersionAuthor) Version() string {
	return "1.1.0"
}

func (AddVersionAuthor) Migrate(ctx *migration.Context) error {
	ctx.AddColumn(catalog.ColumnDefinition{
		Name:      "author_id",
		TableName: "content_version",
		DataType:  "integer",
		Nullable:  true,
	})

	if ctx.Adapter().SupportsUpdateFromJoin() {
		q := ctx.Adapter().QuoteIdentifier
		ctx.Queue(fmt.Sprintf(
			"UPDATE %s SET %s = %s.%s FROM %s WHERE %s.%s = %s.%s",
			q("content_version"), q("author_id"),
			q("content"), q("created_by"),
			q("content"),
			q("content"), q("id"),
			q("content_version"), q("content_id"),
		))
		return nil
	}

	// Constrained engines lack UPDATE ... FROM, so the column must land
	// first and the backfill walks the versions one row at a time.
	if err := ctx.Flush(); err != nil {
		return err
	}
	return backfillAuthorsByRow(ctx)
}

func backfillAuthorsByRow(ctx *migration.Context) error {
	q := ctx.Adapter().QuoteIdentifier

	rows, err := ctx.Tx().Query(fmt.Sprintf(
		"SELECT cv.%s, c.%s FROM %s cv JOIN %s c ON c.%s = cv.%s",
		q("id"), q("created_by"),
		q("content_version"), q("content"),
		q("id"), q("content_id"),
	))
	if err != nil {
		return fmt.Errorf("failed to read content versions: %w", err)
	}
	defer rows.Close()

	type pair struct{ versionID, authorID int64 }
	var pairs []pair
	for rows.Next() {
		var p pair
		if err := rows.Scan(&p.versionID, &p.authorID); err != nil {
			return fmt.Errorf("failed to read content version row: %w", err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	update := fmt.Sprintf(
		"UPDATE %s SET %s = %s WHERE %s = %s",
		q("content_version"), q("author_id"),
		ctx.Adapter().Placeholder(1),
		q("id"),
		ctx.Adapter().Placeholder(2),
	)
	for _, p := range pairs {
		if _, err := ctx.Tx().Exec(update, p.authorID, p.versionID); err != nil {
			return fmt.Errorf("failed to backfill content version %d: %w", p.versionID, err)
		}
	}

	ctx.Logger().Debugf("Backfilled %d content versions row by row", len(pairs))
	return nil
}

// RenameMembershipTable renames the legacy user2group join table to
// user_group_member and retires its old index and key names. Engines that
// cannot drop constraints in place keep the stale key names; the rename
// itself still applies.
type RenameMembershipTable struct{}

func (RenameMembershipTable) Name() string {
	return "rename-membership-table"
}

func (RenameMembershipTable) Version() string {
	return "1.2.0"
}

func (RenameMembershipTable) Migrate(ctx *migration.Context) error {
	ctx.DropIndex("user2group", "IX_user2group_user_id")
	ctx.RenameTable("user2group", "user_group_member")
	ctx.DropKey("user_group_member", "FK_user2group_app_user")
	ctx.DropKey("user_group_member", "FK_user2group_user_group")
	return nil
}
