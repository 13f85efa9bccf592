// Package storage defines the persistence contracts for the pricing
// pipeline and provides the versioned model artifact store. Concrete
// record stores live in the sqlite and postgres subpackages.
package storage

import (
	"context"
	"time"

	"github.com/lotwise/lotwise/internal/types"
)

// Trainable-row bounds. Rows qualify for training when the price is
// non-null and falls inside [TrainablePriceMin, TrainablePriceMax).
// The bounds match intake validation.
const (
	TrainablePriceMin = 1000
	TrainablePriceMax = 200000
)

// ScrapeLogEntry records the outcome of one scrape-and-ingest cycle.
type ScrapeLogEntry struct {
	ID              int64     `json:"id,omitempty"`
	Source          string    `json:"source"`
	Status          string    `json:"status"` // "success" or "error"
	ListingsScraped int       `json:"listings_scraped"`
	ListingsStored  int       `json:"listings_stored"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	ExecutionTime   float64   `json:"execution_time"` // seconds
	CreatedAt       time.Time `json:"created_at"`
}

// Statistics summarizes the data store for dashboards and the status command.
type Statistics struct {
	RawListings     int        `json:"raw_listings_count"`
	VehicleListings int        `json:"vehicle_listings_count"`
	TrainingRuns    int        `json:"training_metrics_count"`
	ScrapeLogs      int        `json:"scraping_logs_count"`
	TrainableRows   int        `json:"trainable_rows"`
	EarliestScrape  *time.Time `json:"earliest_scrape,omitempty"`
	LatestScrape    *time.Time `json:"latest_scrape,omitempty"`
}

// Storage is the record store consumed by the deduplication engine and the
// model lifecycle manager.
type Storage interface {
	// StoreRawListings appends raw scraped listings to the audit table.
	// Returns the number of records stored; per-record failures are logged
	// and skipped, never aborting the batch.
	StoreRawListings(ctx context.Context, listings []*types.ListingRecord, source string) (int, error)

	// UpsertListings writes canonical listings, replacing any existing row
	// with the same vehicle identity key (VIN). Listings without a VIN are
	// always inserted. Returns the number of records written.
	UpsertListings(ctx context.Context, listings []*types.CanonicalListing) (int, error)

	// GetListings returns persisted listings, newest first. A limit of 0
	// means no limit.
	GetListings(ctx context.Context, limit int) ([]*types.ListingRecord, error)

	// LoadCandidateRows returns the trainable rows for model training.
	LoadCandidateRows(ctx context.Context) ([]types.TrainingRow, error)

	// CountTrainableRows returns the number of rows LoadCandidateRows
	// would produce.
	CountTrainableRows(ctx context.Context) (int, error)

	// LatestIngestionTime returns the scrape timestamp of the most recently
	// ingested listing, or nil when no data exists.
	LatestIngestionTime(ctx context.Context) (*time.Time, error)

	// AppendMetrics appends one training run's metrics to the append-only
	// history. Metrics records are never mutated or deleted.
	AppendMetrics(ctx context.Context, record *types.ModelMetricsRecord) error

	// LatestModelMetrics returns the most recent metrics record (the
	// incumbent's metrics), or nil when none exist.
	LatestModelMetrics(ctx context.Context) (*types.ModelMetricsRecord, error)

	// BaselineModelMetrics returns the earliest metrics record with a
	// non-null MAE, or nil when none exist.
	BaselineModelMetrics(ctx context.Context) (*types.ModelMetricsRecord, error)

	// RetrainingHistory returns metrics records newest first, at most limit.
	RetrainingHistory(ctx context.Context, limit int) ([]*types.ModelMetricsRecord, error)

	// LogScrape appends one scrape cycle outcome.
	LogScrape(ctx context.Context, entry *ScrapeLogEntry) error

	// PruneRawListings deletes raw audit rows scraped before cutoff,
	// always retaining at least keep of the most recent rows. Returns
	// the number of rows deleted.
	PruneRawListings(ctx context.Context, cutoff time.Time, keep int) (int, error)

	// PruneScrapeLogs deletes scrape log entries created before cutoff,
	// retaining at least keepPerSource of the most recent entries for
	// each source. Returns the number of rows deleted.
	PruneScrapeLogs(ctx context.Context, cutoff time.Time, keepPerSource int) (int, error)

	// GetStatistics summarizes the store.
	GetStatistics(ctx context.Context) (*Statistics, error)

	Close() error
}
