package syncer

import (
	"context"

	"go.uber.org/zap"

	"starhistory/github"
	"starhistory/logger"
	"starhistory/models"
)

// classifyRepositories fills in the originality flag for every fetched
// repository that does not have one yet. The flag is write-once: ownership
// and authorship provenance are assumed stable, so a classification is never
// recomputed.
func (s *Syncer) classifyRepositories(ctx context.Context, login string, repos []github.RepoNode) error {
	known, err := s.db.KnownOriginalityKeys(ctx)
	if err != nil {
		return err
	}

	for _, repo := range repos {
		owner := repo.Owner.Login
		name := repo.Name
		if _, ok := known[models.RepoKey{Owner: owner, Name: name}]; ok {
			continue
		}

		// Self-owned repositories are original by definition; no commit
		// history fetch is needed.
		original := owner == login
		if !original {
			commits, err := s.fetchFirstCommits(ctx, owner, name, commitSampleSize)
			if err != nil {
				return err
			}
			if len(commits) > 0 {
				sameAuthor := 0
				for _, commit := range commits {
					if commit.AuthorLogin() == login {
						sameAuthor++
					}
				}
				original = 2*sameAuthor > len(commits)
			}
		}

		if original {
			logger.Info("Repository classified as original",
				zap.String("owner", owner),
				zap.String("name", name))
		} else {
			logger.Info("Repository classified as not original",
				zap.String("owner", owner),
				zap.String("name", name))
		}

		if err := s.db.InsertOriginalityFlag(ctx, owner, name, original); err != nil {
			return err
		}
	}

	return nil
}

// fetchFirstCommits samples up to limit of the earliest commits on the
// default branch. The API only pages forward with no ascending order option,
// so this walks to the last page, takes its nodes, and tops up from the
// second-to-last page (via the start cursor saved on the prior iteration)
// when the last page alone falls short of the limit.
func (s *Syncer) fetchFirstCommits(ctx context.Context, owner, name string, limit int) ([]github.CommitNode, error) {
	var cursor, previousCursor *string
	var commits []github.CommitNode

	for {
		page, err := s.client.CommitHistoryPage(ctx, owner, name, cursor)
		if err != nil {
			return nil, err
		}

		if page.HasNextPage {
			previousCursor = page.StartCursor
			cursor = page.EndCursor
			continue
		}

		for _, node := range page.Nodes {
			commits = append(commits, node)
			if len(commits) == limit {
				break
			}
		}

		if len(commits) < limit && previousCursor != nil {
			previous, err := s.client.CommitHistoryPage(ctx, owner, name, previousCursor)
			if err != nil {
				return nil, err
			}
			for _, node := range previous.Nodes {
				commits = append(commits, node)
				if len(commits) == limit {
					break
				}
			}
		}

		return commits, nil
	}
}
