// Package models defines the core data structures used throughout the application.
package models

import "time"

// RepoKey identifies a repository by its owner login and name.
type RepoKey struct {
	Owner string
	Name  string
}

// RepositorySnapshot is the most recently observed total star count for a
// repository. Exactly one row per repository is kept at any time.
type RepositorySnapshot struct {
	Owner          string `db:"owner"`
	Name           string `db:"name"`
	StargazerCount int64  `db:"stargazers"`
}

// RepositoryLanguage is a repository's primary language as reported upstream.
// PrimaryLanguage is nil when GitHub reports none.
type RepositoryLanguage struct {
	Owner           string
	Name            string
	PrimaryLanguage *string
}

// StargazerEvent is one entry of the append-only stargazer log.
type StargazerEvent struct {
	Login     string
	StarredAt time.Time
}

// StarGrowthDiff is the sync engine's work queue item: a repository whose
// latest snapshot total exceeds the number of stargazer events on file.
type StarGrowthDiff struct {
	Owner    string `db:"owner"`
	Name     string `db:"name"`
	NewCount int64  `db:"new_count"`
	OldCount int64  `db:"old_count"`
}

// LanguagePoint is one point of the per-language cumulative star series.
type LanguagePoint struct {
	Date     time.Time
	Language string
	Count    int64
}

// TotalPoint is one point of the aggregate cumulative star series.
type TotalPoint struct {
	Date  time.Time
	Count int64
}
