package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"starhistory/models"
)

// AppendStargazerEvents bulk-appends stargazer events for one repository.
// The events arrive in descending timestamp order during backfill, so the
// whole batch runs in a single all-or-nothing transaction: losing the batch
// on failure is better than a silently truncated log. INSERT OR IGNORE with
// the unique event index keeps retried backfills idempotent.
func (db *DB) AppendStargazerEvents(ctx context.Context, owner, name string, events []models.StargazerEvent) error {
	if owner == "" || name == "" {
		return fmt.Errorf("%w: repository owner and name cannot be empty", ErrInvalidInput)
	}
	if len(events) == 0 {
		return nil
	}

	safeLogInfo("Appending stargazer events",
		zap.String("owner", owner),
		zap.String("name", name),
		zap.Int("count", len(events)))

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO stargazers (owner, name, starred_at, starred_by) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("failed to prepare stargazer insert statement: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		starredAt := event.StarredAt.UTC().Format(time.RFC3339)
		if _, err := stmt.ExecContext(ctx, owner, name, starredAt, event.Login); err != nil {
			return fmt.Errorf("failed to insert stargazer event by %s: %w", event.Login, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", ErrTransactionFailed, err)
	}

	return nil
}

// ComputeGrowthDiffs returns, for every originality-confirmed repository, the
// gap between the latest snapshot total and the stargazer events on file.
// Strict growth (new > old) is required rather than inequality: users
// removing stars can make the event count exceed the snapshot, and shrinkage
// must not be treated as a backfill request.
func (db *DB) ComputeGrowthDiffs(ctx context.Context) ([]models.StarGrowthDiff, error) {
	query := `
		SELECT
			cur.owner AS owner,
			cur.name AS name,
			cur.stargazers AS new_count,
			count(old.starred_by) AS old_count
		FROM
			star_counts cur
			INNER JOIN original_statuses orig ON cur.owner = orig.owner
				AND cur.name = orig.name
				AND orig.original
			LEFT OUTER JOIN stargazers old ON cur.owner = old.owner
				AND cur.name = old.name
		GROUP BY
			cur.owner,
			cur.name,
			cur.stargazers
		HAVING
			cur.stargazers > count(old.starred_by)
	`

	var diffs []models.StarGrowthDiff
	if err := db.conn.SelectContext(ctx, &diffs, query); err != nil {
		return nil, fmt.Errorf("failed to compute growth diffs: %w", err)
	}

	return diffs, nil
}
