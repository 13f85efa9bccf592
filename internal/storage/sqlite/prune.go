package sqlite

import (
	"context"
	"fmt"
	"log"
	"time"
)

// PruneRawListings deletes raw audit rows scraped before cutoff, always
// retaining at least keep of the most recent rows.
func (s *SQLiteStorage) PruneRawListings(ctx context.Context, cutoff time.Time, keep int) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM raw_listings
		WHERE scraped_at < ?
		  AND id NOT IN (
			SELECT id FROM raw_listings
			ORDER BY scraped_at DESC, id DESC
			LIMIT ?
		  )
	`, cutoff, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune raw listings: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned raw listings: %w", err)
	}
	if deleted > 0 {
		log.Printf("storage: pruned %d raw listings older than %s", deleted, cutoff.Format(time.RFC3339))
	}
	return int(deleted), nil
}

// PruneScrapeLogs deletes scrape log entries created before cutoff,
// retaining at least keepPerSource of the most recent entries per source.
func (s *SQLiteStorage) PruneScrapeLogs(ctx context.Context, cutoff time.Time, keepPerSource int) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM scraping_logs
		WHERE created_at < ?
		  AND id NOT IN (
			SELECT id FROM (
				SELECT id, ROW_NUMBER() OVER (
					PARTITION BY source
					ORDER BY created_at DESC, id DESC
				) AS recency
				FROM scraping_logs
			)
			WHERE recency <= ?
		  )
	`, cutoff, keepPerSource)
	if err != nil {
		return 0, fmt.Errorf("failed to prune scrape logs: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned scrape logs: %w", err)
	}
	if deleted > 0 {
		log.Printf("storage: pruned %d scrape logs older than %s", deleted, cutoff.Format(time.RFC3339))
	}
	return int(deleted), nil
}
