package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lotwise/lotwise/internal/storage"
	"github.com/lotwise/lotwise/internal/types"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New creates a new SQLite storage backend
func New(path string) (*SQLiteStorage, error) {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// StoreRawListings appends raw scraped listings to the audit table.
// Per-record marshal failures are logged and skipped so one malformed
// listing never aborts the batch.
func (s *SQLiteStorage) StoreRawListings(ctx context.Context, listings []*types.ListingRecord, source string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

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
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO raw_listings (source, listing_data, scraped_at)
			VALUES (?, ?, ?)
		`, source, string(data), scrapedAt); err != nil {
			return stored, fmt.Errorf("failed to insert raw listing: %w", err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return stored, fmt.Errorf("failed to commit raw listings: %w", err)
	}
	return stored, nil
}

// UpsertListings writes canonical listings. The VIN is the vehicle
// identity key: a listing with a VIN replaces any existing row carrying
// the same VIN, while listings without one are always inserted.
func (s *SQLiteStorage) UpsertListings(ctx context.Context, listings []*types.CanonicalListing) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

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

		var vin sql.NullString
		if listing.VIN != "" {
			vin = sql.NullString{String: listing.VIN, Valid: true}
		}
		var mergedAt sql.NullTime
		if !listing.MergedAt.IsZero() {
			mergedAt = sql.NullTime{Time: listing.MergedAt, Valid: true}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO vehicle_listings (
				vin, make, model, year, price, mileage, body_type,
				fuel_type, transmission, drivetrain, exterior_color,
				interior_color, engine, features, image_urls, location,
				dealer_name, listing_url, source, scraped_at,
				merged_from, merge_timestamp
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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

	if err := tx.Commit(); err != nil {
		return stored, fmt.Errorf("failed to commit listings: %w", err)
	}
	return stored, nil
}

// GetListings returns persisted listings, newest first.
func (s *SQLiteStorage) GetListings(ctx context.Context, limit int) ([]*types.ListingRecord, error) {
	query := `
		SELECT vin, make, model, year, price, mileage, body_type, fuel_type,
		       transmission, drivetrain, exterior_color, interior_color,
		       engine, features, image_urls, location, dealer_name,
		       listing_url, source, scraped_at
		FROM vehicle_listings
		ORDER BY scraped_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// scanListing decodes one vehicle_listings row.
func scanListing(rows *sql.Rows) (*types.ListingRecord, error) {
	var listing types.ListingRecord
	var vin, bodyType, fuelType, transmission, drivetrain sql.NullString
	var extColor, intColor, engine, location, dealer, url, source sql.NullString
	var features, images sql.NullString
	var year sql.NullInt64
	var price, mileage sql.NullFloat64
	var scrapedAt sql.NullTime

	if err := rows.Scan(
		&vin, &listing.Make, &listing.Model, &year, &price, &mileage,
		&bodyType, &fuelType, &transmission, &drivetrain, &extColor,
		&intColor, &engine, &features, &images, &location, &dealer,
		&url, &source, &scrapedAt,
	); err != nil {
		return nil, fmt.Errorf("failed to scan listing: %w", err)
	}

	listing.VIN = vin.String
	listing.BodyType = bodyType.String
	listing.FuelType = fuelType.String
	listing.Transmission = transmission.String
	listing.Drivetrain = drivetrain.String
	listing.ExteriorColor = extColor.String
	listing.InteriorColor = intColor.String
	listing.Engine = engine.String
	listing.Location = location.String
	listing.DealerName = dealer.String
	listing.ListingURL = url.String
	listing.Source = source.String
	if year.Valid {
		listing.Year = int(year.Int64)
	}
	if price.Valid {
		listing.Price = price.Float64
	}
	if mileage.Valid {
		listing.Mileage = mileage.Float64
	}
	if scrapedAt.Valid {
		listing.ScrapedAt = scrapedAt.Time
	}
	if features.Valid && features.String != "" {
		if err := json.Unmarshal([]byte(features.String), &listing.Features); err != nil {
			log.Printf("storage: malformed features payload: %v", err)
		}
	}
	if images.Valid && images.String != "" {
		if err := json.Unmarshal([]byte(images.String), &listing.ImageURLs); err != nil {
			log.Printf("storage: malformed image_urls payload: %v", err)
		}
	}

	return &listing, nil
}

// LoadCandidateRows returns the trainable rows for model training.
func (s *SQLiteStorage) LoadCandidateRows(ctx context.Context) ([]types.TrainingRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT make, model, year, mileage, price
		FROM vehicle_listings
		WHERE price IS NOT NULL AND price >= ? AND price < ?
	`, storage.TrainablePriceMin, storage.TrainablePriceMax)
	if err != nil {
		return nil, fmt.Errorf("failed to query training rows: %w", err)
	}
	defer rows.Close()

	var out []types.TrainingRow
	for rows.Next() {
		var row types.TrainingRow
		var year sql.NullInt64
		var mileage sql.NullFloat64
		if err := rows.Scan(&row.Make, &row.Model, &year, &mileage, &row.Price); err != nil {
			return nil, fmt.Errorf("failed to scan training row: %w", err)
		}
		if year.Valid {
			row.Year = int(year.Int64)
		}
		if mileage.Valid {
			row.Mileage = mileage.Float64
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// CountTrainableRows returns the current count of trainable rows.
func (s *SQLiteStorage) CountTrainableRows(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM vehicle_listings
		WHERE price IS NOT NULL AND price >= ? AND price < ?
	`, storage.TrainablePriceMin, storage.TrainablePriceMax).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trainable rows: %w", err)
	}
	return count, nil
}

// LatestIngestionTime returns the scrape timestamp of the most recently
// ingested listing, or nil when the store is empty.
func (s *SQLiteStorage) LatestIngestionTime(ctx context.Context) (*time.Time, error) {
	var scrapedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT scraped_at FROM vehicle_listings
		WHERE scraped_at IS NOT NULL
		ORDER BY scraped_at DESC
		LIMIT 1
	`).Scan(&scrapedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest ingestion time: %w", err)
	}
	if !scrapedAt.Valid {
		return nil, nil
	}
	return &scrapedAt.Time, nil
}

// LogScrape appends one scrape cycle outcome.
func (s *SQLiteStorage) LogScrape(ctx context.Context, entry *storage.ScrapeLogEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scraping_logs (
			source, status, listings_scraped, listings_stored,
			error_message, execution_time, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.Source, entry.Status, entry.ListingsScraped, entry.ListingsStored,
		entry.ErrorMessage, entry.ExecutionTime, createdAt)
	if err != nil {
		return fmt.Errorf("failed to insert scrape log: %w", err)
	}
	return nil
}

// GetStatistics summarizes the store.
func (s *SQLiteStorage) GetStatistics(ctx context.Context) (*storage.Statistics, error) {
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
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to gather statistics: %w", err)
		}
	}

	trainable, err := s.CountTrainableRows(ctx)
	if err != nil {
		return nil, err
	}
	stats.TrainableRows = trainable

	var earliest, latest sql.NullTime
	err = s.db.QueryRowContext(ctx, `
		SELECT scraped_at FROM vehicle_listings
		WHERE scraped_at IS NOT NULL ORDER BY scraped_at ASC LIMIT 1
	`).Scan(&earliest)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query earliest scrape: %w", err)
	}
	err = s.db.QueryRowContext(ctx, `
		SELECT scraped_at FROM vehicle_listings
		WHERE scraped_at IS NOT NULL ORDER BY scraped_at DESC LIMIT 1
	`).Scan(&latest)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query latest scrape: %w", err)
	}
	if earliest.Valid {
		stats.EarliestScrape = &earliest.Time
	}
	if latest.Valid {
		stats.LatestScrape = &latest.Time
	}

	return stats, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
