package syncer

import (
	"context"

	"go.uber.org/zap"

	"starhistory/logger"
	"starhistory/models"
)

// backfillStargazers fetches exactly the missing slice of the stargazer log
// for each repository surfaced by the growth diff queue.
func (s *Syncer) backfillStargazers(ctx context.Context) error {
	diffs, err := s.db.ComputeGrowthDiffs(ctx)
	if err != nil {
		return err
	}

	for _, diff := range diffs {
		logger.Info("Fetching stargazers",
			zap.String("owner", diff.Owner),
			zap.String("name", diff.Name),
			zap.Int64("old_count", diff.OldCount),
			zap.Int64("new_count", diff.NewCount))

		totalCount, events, err := s.fetchStargazersAfterCount(ctx, diff)
		if err != nil {
			return err
		}

		if err := s.db.AppendStargazerEvents(ctx, diff.Owner, diff.Name, events); err != nil {
			return err
		}

		// Further growth happened while backfilling; record the newer total.
		if totalCount > diff.NewCount {
			if err := s.db.UpsertSnapshot(ctx, diff.Owner, diff.Name, totalCount); err != nil {
				return err
			}
			logger.Info("Total stargazer count has been updated",
				zap.String("owner", diff.Owner),
				zap.String("name", diff.Name),
				zap.Int64("old", diff.NewCount),
				zap.Int64("new", totalCount))
		}
	}

	return nil
}

// fetchStargazersAfterCount paginates backward from the most recent
// stargazer until the accumulated count reaches the authoritative total
// reported by the current page, or no earlier page exists. The total may
// drift across pages while users star and unstar; the latest page's report
// always wins. The +5 request buffer tolerates minor churn between the
// count snapshot and the page fetch.
func (s *Syncer) fetchStargazersAfterCount(ctx context.Context, diff models.StarGrowthDiff) (int64, []models.StargazerEvent, error) {
	var events []models.StargazerEvent
	var cursor *string
	accum := diff.OldCount
	total := diff.NewCount

	for {
		count := total - accum + 5
		if count > stargazersPageSize {
			count = stargazersPageSize
		}

		page, err := s.client.StargazerPage(ctx, diff.Owner, diff.Name, count, cursor)
		if err != nil {
			return 0, nil, err
		}

		total = page.TotalCount

		for _, edge := range page.Edges {
			events = append(events, models.StargazerEvent{
				Login:     edge.Node.Login,
				StarredAt: edge.StarredAt,
			})
			accum++
			if accum == total {
				break
			}
		}

		if !page.HasPreviousPage || accum >= total {
			return total, events, nil
		}
		cursor = page.StartCursor
	}
}
