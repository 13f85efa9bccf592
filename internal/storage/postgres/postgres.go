// Package postgres provides the PostgreSQL record store for shared
// deployments. It mirrors the sqlite backend behind the same Storage
// interface, using pgx connection pooling.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lotwise/lotwise/internal/storage"
	"github.com/lotwise/lotwise/internal/types"
)

// PostgresStorage implements the Storage interface using PostgreSQL
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// Config holds PostgreSQL connection configuration
type Config struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	HealthCheck     time.Duration
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            5432,
		Database:        "lotwise",
		User:            "lotwise",
		SSLMode:         "prefer",
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 1 * time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		HealthCheck:     1 * time.Minute,
	}
}

// New creates a new PostgreSQL storage backend with connection pooling
func New(ctx context.Context, cfg *Config) (*PostgresStorage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheck

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection with ping
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Initialize schema
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

// Close closes the connection pool and releases all resources
func (s *PostgresStorage) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// StoreRawListings appends raw scraped listings to the audit table.
func (s *PostgresStorage) StoreRawListings(ctx context.Context, listings []*types.ListingRecord, source string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stored := 0
	for i, listing := range listings {
		if listing == nil {
			log.Printf("storage: skipping nil raw listing at index %d", i)
			continue
		}
		data, err := json.Marshal(listing)
		if err != nil {
			log.Printf("storage: failed to marshal raw listing %d: %v", i, err)
			continue
		}
		scrapedAt := listing.ScrapedAt
		if scrapedAt.IsZero() {
			scrapedAt = time.Now()
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO raw_listings (source, listing_data, scraped_at)
			VALUES ($1, $2, $3)
		`, source, string(data), scrapedAt); err != nil {
			return stored, fmt.Errorf("failed to insert raw listing: %w", err)
		}
		stored++
	}

	if err := tx.Commit(ctx); err != nil {
		return stored, fmt.Errorf("failed to commit raw listings: %w", err)
	}
	return stored, nil
}

// UpsertListings writes canonical listings, keyed on VIN when present.
func (s *PostgresStorage) UpsertListings(ctx context.Context, listings []*types.CanonicalListing) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stored := 0
	for i, listing := range listings {
		if listing == nil {
			log.Printf("storage: skipping nil canonical listing at index %d", i)
			continue
		}
		features, err := json.Marshal(listing.Features)
		if err != nil {
			log.Printf("storage: failed to marshal features for listing %d: %v", i, err)
			continue
		}
		images, err := json.Marshal(listing.ImageURLs)
		if err != nil {
			log.Printf("storage: failed to marshal image urls for listing %d: %v", i, err)
			continue
		}

		var vin *string
		if listing.VIN != "" {
			vin = &listing.VIN
		}
		var mergedAt *time.Time
		if !listing.MergedAt.IsZero() {
			mergedAt = &listing.MergedAt
		}

		// A NULL vin never conflicts, so VIN-less listings always insert.
		if _, err := tx.Exec(ctx, `
			INSERT INTO vehicle_listings (
				vin, make, model, year, price, mileage, body_type,
				fuel_type, transmission, drivetrain, exterior_color,
				interior_color, engine, features, image_urls, location,
				dealer_name, listing_url, source, scraped_at,
				merged_from, merge_timestamp
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
				$13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
			ON CONFLICT (vin) DO UPDATE SET
				make = EXCLUDED.make, model = EXCLUDED.model,
				year = EXCLUDED.year, price = EXCLUDED.price,
				mileage = EXCLUDED.mileage, body_type = EXCLUDED.body_type,
				fuel_type = EXCLUDED.fuel_type,
				transmission = EXCLUDED.transmission,
				drivetrain = EXCLUDED.drivetrain,
				exterior_color = EXCLUDED.exterior_color,
				interior_color = EXCLUDED.interior_color,
				engine = EXCLUDED.engine, features = EXCLUDED.features,
				image_urls = EXCLUDED.image_urls,
				location = EXCLUDED.location,
				dealer_name = EXCLUDED.dealer_name,
				listing_url = EXCLUDED.listing_url,
				source = EXCLUDED.source, scraped_at = EXCLUDED.scraped_at,
				merged_from = EXCLUDED.merged_from,
				merge_timestamp = EXCLUDED.merge_timestamp,
				processed_at = NOW()
		`,
			vin, listing.Make, listing.Model, listing.Year, listing.Price,
			listing.Mileage, listing.BodyType, listing.FuelType,
			listing.Transmission, listing.Drivetrain, listing.ExteriorColor,
			listing.InteriorColor, listing.Engine, string(features),
			string(images), listing.Location, listing.DealerName,
			listing.ListingURL, listing.Source, listing.ScrapedAt,
			listing.MergedFrom, mergedAt,
		); err != nil {
			return stored, fmt.Errorf("failed to upsert listing: %w", err)
		}
		stored++
	}

	if err := tx.Commit(ctx); err != nil {
		return stored, fmt.Errorf("failed to commit listings: %w", err)
	}
	return stored, nil
}

// GetListings returns persisted listings, newest first.
func (s *PostgresStorage) GetListings(ctx context.Context, limit int) ([]*types.ListingRecord, error) {
	query := `
		SELECT vin, make, model, year, price, mileage, body_type, fuel_type,
		       transmission, drivetrain, exterior_color, interior_color,
		       engine, features, image_urls, location, dealer_name,
		       listing_url, source, scraped_at
		FROM vehicle_listings
		ORDER BY scraped_at DESC NULLS LAST
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []*types.ListingRecord
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

func scanListing(rows pgx.Rows) (*types.ListingRecord, error) {
	var listing types.ListingRecord
	var vin, bodyType, fuelType, transmission, drivetrain *string
	var extColor, intColor, engine, location, dealer, url, source *string
	var features, images []byte
	var year *int
	var price, mileage *float64
	var scrapedAt *time.Time

	if err := rows.Scan(
		&vin, &listing.Make, &listing.Model, &year, &price, &mileage,
		&bodyType, &fuelType, &transmission, &drivetrain, &extColor,
		&intColor, &engine, &features, &images, &location, &dealer,
		&url, &source, &scrapedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}

	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&listing.VIN, vin)
	assign(&listing.BodyType, bodyType)
	assign(&listing.FuelType, fuelType)
	assign(&listing.Transmission, transmission)
	assign(&listing.Drivetrain, drivetrain)
	assign(&listing.ExteriorColor, extColor)
	assign(&listing.InteriorColor, intColor)
	assign(&listing.Engine, engine)
	assign(&listing.Location, location)
	assign(&listing.DealerName, dealer)
	assign(&listing.ListingURL, url)
	assign(&listing.Source, source)
	if year != nil {
		listing.Year = *year
	}
	if price != nil {
		listing.Price = *price
	}
	if mileage != nil {
		listing.Mileage = *mileage
	}
	if scrapedAt != nil {
		listing.ScrapedAt = *scrapedAt
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &listing.Features); err != nil {
			log.Printf("storage: malformed features payload: %v", err)
		}
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &listing.ImageURLs); err != nil {
			log.Printf("storage: malformed image_urls payload: %v", err)
		}
	}

	return &listing, nil
}

// LoadCandidateRows returns the trainable rows for model training.
func (s *PostgresStorage) LoadCandidateRows(ctx context.Context) ([]types.TrainingRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT make, model, year, mileage, price
		FROM vehicle_listings
		WHERE price IS NOT NULL AND price >= $1 AND price < $2
	`, storage.TrainablePriceMin, storage.TrainablePriceMax)
	if err != nil {
		return nil, fmt.Errorf("failed to query training rows: %w", err)
	}
	defer rows.Close()

	var out []types.TrainingRow
	for rows.Next() {
		var row types.TrainingRow
		var year *int
		var mileage *float64
		if err := rows.Scan(&row.Make, &row.Model, &year, &mileage, &row.Price); err != nil {
			return nil, fmt.Errorf("failed to scan training row: %w", err)
		}
		if year != nil {
			row.Year = *year
		}
		if mileage != nil {
			row.Mileage = *mileage
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountTrainableRows returns the number of trainable rows.
func (s *PostgresStorage) CountTrainableRows(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM vehicle_listings
		WHERE price IS NOT NULL AND price >= $1 AND price < $2
	`, storage.TrainablePriceMin, storage.TrainablePriceMax).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trainable rows: %w", err)
	}
	return count, nil
}

// LatestIngestionTime returns the most recent scrape timestamp.
func (s *PostgresStorage) LatestIngestionTime(ctx context.Context) (*time.Time, error) {
	var scrapedAt *time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT scraped_at FROM vehicle_listings
		WHERE scraped_at IS NOT NULL
		ORDER BY scraped_at DESC
		LIMIT 1
	`).Scan(&scrapedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest ingestion time: %w", err)
	}
	return scrapedAt, nil
}

// AppendMetrics appends one training run's metrics to the history.
func (s *PostgresStorage) AppendMetrics(ctx context.Context, record *types.ModelMetricsRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid metrics record: %w", err)
	}
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
		record.CreatedAt = createdAt
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO training_metrics (
			mae, rmse, r2, mape, model_version,
			training_samples, training_time, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, record.MAE, record.RMSE, record.R2, record.MAPE, record.ModelVersion,
		record.TrainingSamples, record.TrainingTime, createdAt).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("failed to insert metrics: %w", err)
	}
	return nil
}

// LatestModelMetrics returns the incumbent model's metrics record.
func (s *PostgresStorage) LatestModelMetrics(ctx context.Context) (*types.ModelMetricsRecord, error) {
	record, err := s.queryMetrics(ctx, metricsSelect+`
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`)
	return record, err
}

// BaselineModelMetrics returns the earliest metrics record with a MAE.
func (s *PostgresStorage) BaselineModelMetrics(ctx context.Context) (*types.ModelMetricsRecord, error) {
	record, err := s.queryMetrics(ctx, metricsSelect+`
		WHERE mae IS NOT NULL
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`)
	return record, err
}

// RetrainingHistory returns metrics records newest first.
func (s *PostgresStorage) RetrainingHistory(ctx context.Context, limit int) ([]*types.ModelMetricsRecord, error) {
	query := metricsSelect + `
		ORDER BY created_at DESC, id DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics history: %w", err)
	}
	defer rows.Close()

	var history []*types.ModelMetricsRecord
	for rows.Next() {
		record, err := scanMetrics(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, record)
	}
	return history, rows.Err()
}

const metricsSelect = `
	SELECT id, mae, rmse, r2, mape, model_version,
	       training_samples, training_time, created_at
	FROM training_metrics
`

func (s *PostgresStorage) queryMetrics(ctx context.Context, query string) (*types.ModelMetricsRecord, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanMetrics(rows)
}

func scanMetrics(rows pgx.Rows) (*types.ModelMetricsRecord, error) {
	var record types.ModelMetricsRecord
	var samples *int
	var trainingTime *float64

	if err := rows.Scan(&record.ID, &record.MAE, &record.RMSE, &record.R2,
		&record.MAPE, &record.ModelVersion, &samples, &trainingTime,
		&record.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan metrics: %w", err)
	}
	if samples != nil {
		record.TrainingSamples = *samples
	}
	if trainingTime != nil {
		record.TrainingTime = *trainingTime
	}
	return &record, nil
}

// LogScrape appends one scrape cycle outcome.
func (s *PostgresStorage) LogScrape(ctx context.Context, entry *storage.ScrapeLogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scraping_logs (
			source, status, listings_scraped, listings_stored,
			error_message, execution_time, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.Source, entry.Status, entry.ListingsScraped, entry.ListingsStored,
		entry.ErrorMessage, entry.ExecutionTime, createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert scrape log: %w", err)
	}
	return nil
}

// GetStatistics summarizes the store.
func (s *PostgresStorage) GetStatistics(ctx context.Context) (*storage.Statistics, error) {
	stats := &storage.Statistics{}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM raw_listings", &stats.RawListings},
		{"SELECT COUNT(*) FROM vehicle_listings", &stats.VehicleListings},
		{"SELECT COUNT(*) FROM training_metrics", &stats.TrainingRuns},
		{"SELECT COUNT(*) FROM scraping_logs", &stats.ScrapeLogs},
	}
	for _, c := range counts {
		if err := s.pool.QueryRow(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to gather statistics: %w", err)
		}
	}

	trainable, err := s.CountTrainableRows(ctx)
	if err != nil {
		return nil, err
	}
	stats.TrainableRows = trainable

	err = s.pool.QueryRow(ctx, `
		SELECT MIN(scraped_at), MAX(scraped_at) FROM vehicle_listings
	`).Scan(&stats.EarliestScrape, &stats.LatestScrape)
	if err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("failed to query scrape range: %w", err)
	}

	return stats, nil
}
