// Package syncer sequences the sync pipeline: list starred owned
// repositories, replace the snapshot tables, classify originality, and
// backfill the stargazer log from the growth diff queue.
package syncer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"starhistory/github"
	"starhistory/logger"
	"starhistory/models"
)

const (
	// Page size for backward stargazer pagination.
	stargazersPageSize = 20
	// Number of earliest commits sampled by the originality classifier.
	commitSampleSize = 5
)

// DBInterface abstracts the store operations needed by the syncer
// (for testability)
type DBInterface interface {
	ReplaceAllSnapshots(ctx context.Context, snapshots []models.RepositorySnapshot) error
	UpsertSnapshot(ctx context.Context, owner, name string, count int64) error
	ReplaceAllLanguages(ctx context.Context, languages []models.RepositoryLanguage) error
	KnownOriginalityKeys(ctx context.Context) (map[models.RepoKey]struct{}, error)
	InsertOriginalityFlag(ctx context.Context, owner, name string, original bool) error
	ComputeGrowthDiffs(ctx context.Context) ([]models.StarGrowthDiff, error)
	AppendStargazerEvents(ctx context.Context, owner, name string, events []models.StargazerEvent) error
}

// GitHubClientInterface abstracts the paged query client operations needed by
// the syncer (for testability)
type GitHubClientInterface interface {
	ViewerRepositoryPage(ctx context.Context, after *string) (*github.RepositoryPage, error)
	StargazerPage(ctx context.Context, owner, name string, count int64, before *string) (*github.StargazersPage, error)
	CommitHistoryPage(ctx context.Context, owner, name string, after *string) (*github.CommitPage, error)
}

// Syncer orchestrates one pipeline run.
type Syncer struct {
	db     DBInterface
	client GitHubClientInterface
}

// New creates a new Syncer instance
func New(db DBInterface, client GitHubClientInterface) *Syncer {
	return &Syncer{db: db, client: client}
}

// Run executes one full synchronization pass. Any unrecovered step error
// aborts the run; the next invocation re-derives the work queue from store
// state, so re-runs are cheap and safe.
func (s *Syncer) Run(ctx context.Context) error {
	login, repos, err := s.fetchAllStarredOwnRepositories(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch starred repositories: %w", err)
	}

	logger.Info("Fetched starred repositories",
		zap.String("login", login),
		zap.Int("count", len(repos)))

	snapshots := make([]models.RepositorySnapshot, 0, len(repos))
	languages := make([]models.RepositoryLanguage, 0, len(repos))
	for _, repo := range repos {
		snapshots = append(snapshots, models.RepositorySnapshot{
			Owner:          repo.Owner.Login,
			Name:           repo.Name,
			StargazerCount: repo.StargazerCount,
		})
		var primaryLanguage *string
		if repo.PrimaryLanguage != nil {
			name := repo.PrimaryLanguage.Name
			primaryLanguage = &name
		}
		languages = append(languages, models.RepositoryLanguage{
			Owner:           repo.Owner.Login,
			Name:            repo.Name,
			PrimaryLanguage: primaryLanguage,
		})
	}

	if err := s.db.ReplaceAllSnapshots(ctx, snapshots); err != nil {
		return fmt.Errorf("failed to replace snapshots: %w", err)
	}
	if err := s.db.ReplaceAllLanguages(ctx, languages); err != nil {
		return fmt.Errorf("failed to replace languages: %w", err)
	}

	if err := s.classifyRepositories(ctx, login, repos); err != nil {
		return fmt.Errorf("failed to classify repositories: %w", err)
	}

	if err := s.backfillStargazers(ctx); err != nil {
		return fmt.Errorf("failed to backfill stargazers: %w", err)
	}

	logger.Info("Finished updating the database")
	return nil
}

// fetchAllStarredOwnRepositories pages forward through the viewer's owned
// repositories. The listing is ordered by stargazer count descending, so a
// page containing a zero-star repository means no later entry can contribute
// anything; pagination stops there.
func (s *Syncer) fetchAllStarredOwnRepositories(ctx context.Context) (string, []github.RepoNode, error) {
	var login string
	var repos []github.RepoNode
	var cursor *string

	for {
		page, err := s.client.ViewerRepositoryPage(ctx, cursor)
		if err != nil {
			return "", nil, err
		}
		login = page.Login

		sawZeroStars := false
		for _, node := range page.Nodes {
			if node.StargazerCount == 0 {
				sawZeroStars = true
				break
			}
			repos = append(repos, node)
		}

		if sawZeroStars || !page.HasNextPage {
			return login, repos, nil
		}
		cursor = page.EndCursor
	}
}
