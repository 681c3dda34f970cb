package db

import (
	"context"
	"fmt"
	"time"

	"starhistory/models"
)

const dateLayout = "2006-01-02"

// CollectLanguageHistory returns the running cumulative stargazer count per
// primary language over calendar days, ordered by date ascending. Only
// languages whose all-time total across original repositories reaches
// minTotalStars are included.
func (db *DB) CollectLanguageHistory(ctx context.Context, minTotalStars int64) ([]models.LanguagePoint, error) {
	query := `
		WITH activities AS (
			SELECT
				l.primary_language AS language,
				strftime('%Y-%m-%d', s.starred_at) AS date,
				count(*) AS count
			FROM
				repository_primary_languages l
				INNER JOIN stargazers s ON l.owner = s.owner
					AND l.name = s.name
			WHERE
				l.primary_language IS NOT NULL
				AND l.primary_language IN (
					SELECT primary_language
					FROM total_stars_by_language
					WHERE stargazers >= $1)
			GROUP BY
				l.primary_language,
				date
		)
		SELECT
			date,
			language,
			sum(count) OVER (PARTITION BY language ORDER BY date ROWS UNBOUNDED PRECEDING) AS accum
		FROM
			activities
		ORDER BY
			date
	`

	rows, err := db.conn.QueryContext(ctx, query, minTotalStars)
	if err != nil {
		return nil, fmt.Errorf("failed to collect language history: %w", err)
	}
	defer rows.Close()

	var points []models.LanguagePoint
	for rows.Next() {
		var dateStr, language string
		var accum int64
		if err := rows.Scan(&dateStr, &language, &accum); err != nil {
			return nil, fmt.Errorf("failed to scan language history row: %w", err)
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse history date %q: %w", dateStr, err)
		}
		points = append(points, models.LanguagePoint{Date: date, Language: language, Count: accum})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read language history: %w", err)
	}

	return points, nil
}

// CollectTotalHistory returns the running cumulative count of all stargazer
// events by calendar day, ordered by date ascending.
func (db *DB) CollectTotalHistory(ctx context.Context) ([]models.TotalPoint, error) {
	query := `
		WITH events AS (
			SELECT strftime('%Y-%m-%d', starred_at) AS date
			FROM stargazers
		)
		SELECT
			date,
			count(*) OVER (ORDER BY date ROWS UNBOUNDED PRECEDING) AS accum
		FROM
			events
		ORDER BY
			date
	`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to collect total history: %w", err)
	}
	defer rows.Close()

	var points []models.TotalPoint
	for rows.Next() {
		var dateStr string
		var accum int64
		if err := rows.Scan(&dateStr, &accum); err != nil {
			return nil, fmt.Errorf("failed to scan total history row: %w", err)
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse history date %q: %w", dateStr, err)
		}
		points = append(points, models.TotalPoint{Date: date, Count: accum})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read total history: %w", err)
	}

	return points, nil
}
