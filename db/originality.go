package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"starhistory/models"
)

// KnownOriginalityKeys returns the set of repositories that already have an
// originality flag. The classifier uses it to skip repositories whose
// classification was computed on a previous run.
func (db *DB) KnownOriginalityKeys(ctx context.Context) (map[models.RepoKey]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT owner, name FROM original_statuses`)
	if err != nil {
		return nil, fmt.Errorf("failed to query originality keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[models.RepoKey]struct{})
	for rows.Next() {
		var key models.RepoKey
		if err := rows.Scan(&key.Owner, &key.Name); err != nil {
			return nil, fmt.Errorf("failed to scan originality key: %w", err)
		}
		keys[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read originality keys: %w", err)
	}

	return keys, nil
}

// InsertOriginalityFlag records the classification of a repository. The flag
// is write-once: callers must consult KnownOriginalityKeys first, duplicate
// insertion for a known key is a caller bug.
func (db *DB) InsertOriginalityFlag(ctx context.Context, owner, name string, original bool) error {
	if owner == "" || name == "" {
		return fmt.Errorf("%w: repository owner and name cannot be empty", ErrInvalidInput)
	}

	if _, err := db.conn.ExecContext(ctx,
		`INSERT INTO original_statuses (owner, name, original) VALUES ($1, $2, $3)`,
		owner, name, original); err != nil {
		return fmt.Errorf("failed to insert originality flag for %s/%s: %w", owner, name, err)
	}

	safeLogInfo("Originality flag stored",
		zap.String("owner", owner),
		zap.String("name", name),
		zap.Bool("original", original))
	return nil
}
