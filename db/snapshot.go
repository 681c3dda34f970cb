package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"starhistory/models"
)

// ReplaceAllSnapshots clears the snapshot table and bulk-inserts the given
// rows. The clear and the inserts run inside one transaction so readers never
// observe a half-empty table.
func (db *DB) ReplaceAllSnapshots(ctx context.Context, snapshots []models.RepositorySnapshot) error {
	safeLogInfo("Replacing star count snapshots", zap.Int("count", len(snapshots)))

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM star_counts`); err != nil {
		return fmt.Errorf("failed to clear star counts: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO star_counts (owner, name, stargazers) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert statement: %w", err)
	}
	defer stmt.Close()

	for _, snap := range snapshots {
		if snap.Owner == "" || snap.Name == "" {
			return fmt.Errorf("%w: repository owner and name cannot be empty", ErrInvalidInput)
		}
		if _, err := stmt.ExecContext(ctx, snap.Owner, snap.Name, snap.StargazerCount); err != nil {
			return fmt.Errorf("failed to insert snapshot for %s/%s: %w", snap.Owner, snap.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", ErrTransactionFailed, err)
	}

	return nil
}

// UpsertSnapshot refreshes the snapshot of a single repository. Used by the
// backfill engine when the authoritative total moved while fetching.
func (db *DB) UpsertSnapshot(ctx context.Context, owner, name string, count int64) error {
	if owner == "" || name == "" {
		return fmt.Errorf("%w: repository owner and name cannot be empty", ErrInvalidInput)
	}

	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM star_counts WHERE owner = $1 AND name = $2`, owner, name); err != nil {
		return fmt.Errorf("failed to delete snapshot for %s/%s: %w", owner, name, err)
	}

	if _, err := db.conn.ExecContext(ctx,
		`INSERT INTO star_counts (owner, name, stargazers) VALUES ($1, $2, $3)`,
		owner, name, count); err != nil {
		return fmt.Errorf("failed to insert snapshot for %s/%s: %w", owner, name, err)
	}

	safeLogInfo("Snapshot updated",
		zap.String("owner", owner),
		zap.String("name", name),
		zap.Int64("stargazers", count))
	return nil
}
