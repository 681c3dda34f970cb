package db

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"starhistory/models"
)

// setupTestDB opens a fresh in-memory database with the full schema
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// makeEvents generates events with distinct logins, one per hour starting at
// the given day
func makeEvents(day time.Time, n int) []models.StargazerEvent {
	events := make([]models.StargazerEvent, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, models.StargazerEvent{
			Login:     fmt.Sprintf("user-%s-%d", day.Format("0102"), i),
			StarredAt: day.Add(time.Duration(i) * time.Hour),
		})
	}
	return events
}

func snapshotRows(t *testing.T, database *DB) []models.RepositorySnapshot {
	t.Helper()
	var rows []models.RepositorySnapshot
	require.NoError(t, database.conn.Select(&rows, `SELECT owner, name, stargazers FROM star_counts ORDER BY owner, name`))
	return rows
}

func TestReplaceAllSnapshotsIdempotent(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	snapshots := []models.RepositorySnapshot{
		{Owner: "test-owner", Name: "repo-a", StargazerCount: 42},
		{Owner: "test-owner", Name: "repo-b", StargazerCount: 7},
	}

	require.NoError(t, database.ReplaceAllSnapshots(ctx, snapshots))
	first := snapshotRows(t, database)

	require.NoError(t, database.ReplaceAllSnapshots(ctx, snapshots))
	second := snapshotRows(t, database)

	assert.Equal(t, snapshots, first)
	assert.Equal(t, first, second)
}

func TestReplaceAllSnapshotsRejectsEmptyKey(t *testing.T) {
	database := setupTestDB(t)

	err := database.ReplaceAllSnapshots(context.Background(), []models.RepositorySnapshot{
		{Owner: "", Name: "repo", StargazerCount: 1},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	// The failed batch must not leave partial rows behind.
	assert.Empty(t, snapshotRows(t, database))
}

func TestUpsertSnapshot(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.ReplaceAllSnapshots(ctx, []models.RepositorySnapshot{
		{Owner: "test-owner", Name: "test-repo", StargazerCount: 42},
	}))
	require.NoError(t, database.UpsertSnapshot(ctx, "test-owner", "test-repo", 43))

	rows := snapshotRows(t, database)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(43), rows[0].StargazerCount)
}

func TestOriginalityFlagOperations(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	keys, err := database.KnownOriginalityKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, database.InsertOriginalityFlag(ctx, "test-owner", "test-repo", true))
	require.NoError(t, database.InsertOriginalityFlag(ctx, "test-owner", "fork-repo", false))

	keys, err = database.KnownOriginalityKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, models.RepoKey{Owner: "test-owner", Name: "test-repo"})
	assert.Contains(t, keys, models.RepoKey{Owner: "test-owner", Name: "fork-repo"})
}

func TestAppendStargazerEventsRetrySafe(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	events := makeEvents(time.Date(2024, 9, 21, 0, 0, 0, 0, time.UTC), 8)
	require.NoError(t, database.AppendStargazerEvents(ctx, "test-owner", "test-repo", events))

	// A retried backfill may re-append events it already stored.
	require.NoError(t, database.AppendStargazerEvents(ctx, "test-owner", "test-repo", events))

	var count int
	require.NoError(t, database.conn.Get(&count, `SELECT count(*) FROM stargazers`))
	assert.Equal(t, len(events), count)
}

func TestComputeGrowthDiffs(t *testing.T) {
	day := time.Date(2024, 9, 21, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		original bool
		expected []models.StarGrowthDiff
	}{
		{
			name:     "original repository with strict growth",
			original: true,
			expected: []models.StarGrowthDiff{
				{Owner: "test-owner", Name: "test-repo", NewCount: 50, OldCount: 30},
			},
		},
		{
			name:     "non-original repository with the same gap",
			original: false,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database := setupTestDB(t)
			ctx := context.Background()

			require.NoError(t, database.ReplaceAllSnapshots(ctx, []models.RepositorySnapshot{
				{Owner: "test-owner", Name: "test-repo", StargazerCount: 50},
			}))
			require.NoError(t, database.InsertOriginalityFlag(ctx, "test-owner", "test-repo", tt.original))
			require.NoError(t, database.AppendStargazerEvents(ctx, "test-owner", "test-repo", makeEvents(day, 30)))

			diffs, err := database.ComputeGrowthDiffs(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, diffs)
		})
	}
}

func TestComputeGrowthDiffsNoStrictGrowth(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	language := "Rust"
	require.NoError(t, database.ReplaceAllSnapshots(ctx, []models.RepositorySnapshot{
		{Owner: "test-owner", Name: "r", StargazerCount: 10},
	}))
	require.NoError(t, database.ReplaceAllLanguages(ctx, []models.RepositoryLanguage{
		{Owner: "test-owner", Name: "r", PrimaryLanguage: &language},
	}))
	require.NoError(t, database.InsertOriginalityFlag(ctx, "test-owner", "r", true))
	require.NoError(t, database.AppendStargazerEvents(ctx, "test-owner", "r",
		makeEvents(time.Date(2024, 9, 21, 0, 0, 0, 0, time.UTC), 10)))

	// 10 == 10 is not strict growth, so nothing needs backfill. Net unstars
	// (events exceeding the snapshot) must not surface either.
	diffs, err := database.ComputeGrowthDiffs(ctx)
	require.NoError(t, err)
	assert.Empty(t, diffs)
}

func TestCollectTotalHistoryMonotonic(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 9, 21, 0, 0, 0, 0, time.UTC)
	total := 0
	for day := 0; day < 4; day++ {
		events := makeEvents(base.AddDate(0, 0, day), day+1)
		total += len(events)
		require.NoError(t, database.AppendStargazerEvents(ctx, "test-owner", "test-repo", events))
	}

	points, err := database.CollectTotalHistory(ctx)
	require.NoError(t, err)
	require.Len(t, points, total)

	for i := 1; i < len(points); i++ {
		assert.GreaterOrEqual(t, points[i].Count, points[i-1].Count)
		assert.False(t, points[i].Date.Before(points[i-1].Date))
	}
	assert.Equal(t, int64(total), points[len(points)-1].Count)
}

func TestCollectLanguageHistory(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	day1 := time.Date(2024, 9, 21, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	day3 := day1.AddDate(0, 0, 2)
	day4 := day1.AddDate(0, 0, 3)

	repos := []struct {
		name     string
		language string
		stars    int64
		days     map[time.Time]int
	}{
		{"repo1", "Rust", 6, map[time.Time]int{day1: 3, day2: 3}},
		{"repo2", "Rust", 5, map[time.Time]int{day2: 3, day3: 2}},
		{"repo3", "C++", 4, map[time.Time]int{day1: 1, day2: 1, day3: 1, day4: 1}},
	}

	var snapshots []models.RepositorySnapshot
	var languages []models.RepositoryLanguage
	for i := range repos {
		repo := repos[i]
		snapshots = append(snapshots, models.RepositorySnapshot{
			Owner: "test-owner", Name: repo.name, StargazerCount: repo.stars,
		})
		languages = append(languages, models.RepositoryLanguage{
			Owner: "test-owner", Name: repo.name, PrimaryLanguage: &repos[i].language,
		})
	}
	require.NoError(t, database.ReplaceAllSnapshots(ctx, snapshots))
	require.NoError(t, database.ReplaceAllLanguages(ctx, languages))

	for _, repo := range repos {
		require.NoError(t, database.InsertOriginalityFlag(ctx, "test-owner", repo.name, true))
		for day, n := range repo.days {
			require.NoError(t, database.AppendStargazerEvents(ctx, "test-owner", repo.name, makeEvents(day, n)))
		}
	}

	// Rust totals 11 stars and passes the threshold; C++ totals 4 and is
	// filtered out.
	points, err := database.CollectLanguageHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, points, 3)

	for _, point := range points {
		assert.Equal(t, "Rust", point.Language)
	}
	assert.Equal(t, day1, points[0].Date)
	assert.Equal(t, int64(3), points[0].Count)
	assert.Equal(t, day2, points[1].Date)
	assert.Equal(t, int64(9), points[1].Count)
	assert.Equal(t, day3, points[2].Date)
	assert.Equal(t, int64(11), points[2].Count)
}

func TestReplaceAllSnapshotsTransactionFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	database := &DB{conn: sqlx.NewDb(mockDB, "sqlmock")}
	mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	err = database.ReplaceAllSnapshots(context.Background(), []models.RepositorySnapshot{
		{Owner: "test-owner", Name: "test-repo", StargazerCount: 1},
	})
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendStargazerEventsTransactionFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	database := &DB{conn: sqlx.NewDb(mockDB, "sqlmock")}
	mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

	err = database.AppendStargazerEvents(context.Background(), "test-owner", "test-repo",
		makeEvents(time.Date(2024, 9, 21, 0, 0, 0, 0, time.UTC), 1))
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
