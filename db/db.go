// Package db implements the local analytical store: current star counts,
// primary languages, originality flags and the append-only stargazer log.
package db

import (
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"starhistory/logger"
)

// DB represents a database connection
type DB struct {
	conn *sqlx.DB
}

// The schema is intentionally plain because the store is used for analytic
// queries. The unique index makes stargazer re-appends after a retried
// backfill idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS star_counts (
  owner TEXT NOT NULL,
  name TEXT NOT NULL,
  stargazers INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS repository_primary_languages (
  owner TEXT NOT NULL,
  name TEXT NOT NULL,
  primary_language TEXT
);

-- Persisted across runs to save API usage.
CREATE TABLE IF NOT EXISTS original_statuses (
  owner TEXT NOT NULL,
  name TEXT NOT NULL,
  original INTEGER NOT NULL
);

-- Persisted across runs to save API usage.
CREATE TABLE IF NOT EXISTS stargazers (
  owner TEXT NOT NULL,
  name TEXT NOT NULL,
  starred_at TEXT NOT NULL,
  starred_by TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS stargazers_event_key
  ON stargazers (owner, name, starred_by, starred_at);

CREATE VIEW IF NOT EXISTS total_stars_by_language AS
SELECT
  l.primary_language AS primary_language,
  sum(s.stargazers) AS stargazers
FROM
  repository_primary_languages l
  INNER JOIN star_counts s ON l.owner = s.owner AND l.name = s.name
  INNER JOIN original_statuses o ON l.owner = o.owner AND l.name = o.name
WHERE
  o.original
GROUP BY
  l.primary_language
ORDER BY
  stargazers DESC;
`

// safeLogInfo safely logs info messages, falling back to standard log if logger is not initialized
func safeLogInfo(msg string, fields ...zap.Field) {
	if logger.GetLogger() != nil {
		logger.Info(msg, fields...)
	} else {
		log.Printf("%s", msg)
	}
}

// New opens the SQLite database at the given path and ensures the schema exists
func New(path string) (*DB, error) {
	safeLogInfo("Opening database", zap.String("path", path))
	conn, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseConnection, err)
	}

	// Single-writer, single-process discipline: one connection is enough and
	// sidesteps SQLite writer contention.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	safeLogInfo("Database ready", zap.String("path", path))
	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}
