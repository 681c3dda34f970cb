package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"starhistory/models"
)

// ReplaceAllLanguages clears the primary language table and bulk-inserts the
// given rows. The table is always derived fresh from the upstream source of
// truth, so replace-all semantics are acceptable here.
func (db *DB) ReplaceAllLanguages(ctx context.Context, languages []models.RepositoryLanguage) error {
	safeLogInfo("Replacing primary languages", zap.Int("count", len(languages)))

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM repository_primary_languages`); err != nil {
		return fmt.Errorf("failed to clear primary languages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO repository_primary_languages (owner, name, primary_language) VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("failed to prepare language insert statement: %w", err)
	}
	defer stmt.Close()

	for _, lang := range languages {
		if lang.Owner == "" || lang.Name == "" {
			return fmt.Errorf("%w: repository owner and name cannot be empty", ErrInvalidInput)
		}
		if _, err := stmt.ExecContext(ctx, lang.Owner, lang.Name, lang.PrimaryLanguage); err != nil {
			return fmt.Errorf("failed to insert language for %s/%s: %w", lang.Owner, lang.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", ErrTransactionFailed, err)
	}

	return nil
}
