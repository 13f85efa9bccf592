// Package ingest turns scraped listing feeds into canonical stored
// records: parse, validate, deduplicate, upsert, and log the cycle.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/time/rate"

	"github.com/lotwise/lotwise/internal/dedup"
	"github.com/lotwise/lotwise/internal/storage"
	"github.com/lotwise/lotwise/internal/types"
)

// Ingestor runs the scrape-to-store pipeline for one feed batch.
type Ingestor struct {
	store  storage.Storage
	engine *dedup.Engine
	rules  ValidationRules

	// warnLimiter throttles per-record rejection logs so a garbage feed
	// cannot flood the log. Suppressed rejections are still counted.
	warnLimiter *rate.Limiter
}

// New creates an ingestor with the default validation rules.
func New(store storage.Storage, engine *dedup.Engine) *Ingestor {
	return &Ingestor{
		store:       store,
		engine:      engine,
		rules:       DefaultValidationRules(),
		warnLimiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 10),
	}
}

// Result summarizes one ingest run.
type Result struct {
	Scraped    int           `json:"scraped"`
	Valid      int           `json:"valid"`
	Rejected   int           `json:"rejected"`
	Canonical  int           `json:"canonical"`
	Duplicates int           `json:"duplicates_merged"`
	Stored     int           `json:"stored"`
	Elapsed    time.Duration `json:"-"`
}

// feed is the accepted JSON envelope. A bare array also parses.
type feed struct {
	Source   string                 `json:"source"`
	Listings []*types.ListingRecord `json:"listings"`
}

// ParseFeed reads a JSON feed: either a bare array of listings or an
// object with a "listings" array and optional "source".
func ParseFeed(r io.Reader) ([]*types.ListingRecord, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read feed: %w", err)
	}

	var listings []*types.ListingRecord
	if err := json.Unmarshal(data, &listings); err == nil {
		return listings, "", nil
	}

	var f feed
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("failed to parse feed: %w", err)
	}
	return f.Listings, f.Source, nil
}

// Run ingests one batch: audits the raw records, validates, runs
// deduplication, and upserts the canonical survivors. The scrape log
// records the outcome either way.
func (i *Ingestor) Run(ctx context.Context, listings []*types.ListingRecord, source string) (*Result, error) {
	start := time.Now()

	result, err := i.run(ctx, listings, source)
	elapsed := time.Since(start)

	entry := &storage.ScrapeLogEntry{
		Source:          source,
		Status:          "success",
		ListingsScraped: len(listings),
		ExecutionTime:   elapsed.Seconds(),
	}
	if err != nil {
		entry.Status = "error"
		entry.ErrorMessage = err.Error()
	} else {
		entry.ListingsStored = result.Stored
	}
	if logErr := i.store.LogScrape(ctx, entry); logErr != nil {
		log.Printf("ingest: failed to write scrape log: %v", logErr)
	}

	if err != nil {
		return nil, err
	}
	result.Elapsed = elapsed
	return result, nil
}

func (i *Ingestor) run(ctx context.Context, listings []*types.ListingRecord, source string) (*Result, error) {
	result := &Result{Scraped: len(listings)}

	if _, err := i.store.StoreRawListings(ctx, listings, source); err != nil {
		return nil, fmt.Errorf("failed to store raw listings: %w", err)
	}

	valid := make([]*types.ListingRecord, 0, len(listings))
	for idx, listing := range listings {
		if err := i.rules.Validate(listing); err != nil {
			result.Rejected++
			if i.warnLimiter.Allow() {
				log.Printf("ingest: rejecting listing %d: %v", idx, err)
			}
			continue
		}
		if listing.Source == "" {
			listing.Source = source
		}
		if listing.ScrapedAt.IsZero() {
			listing.ScrapedAt = time.Now()
		}
		valid = append(valid, listing)
	}
	result.Valid = len(valid)
	if result.Rejected > 0 {
		log.Printf("ingest: rejected %d of %d listings", result.Rejected, len(listings))
	}

	canonical := i.engine.Deduplicate(valid)
	result.Canonical = len(canonical)
	for _, c := range canonical {
		if c.MergedFrom > 1 {
			result.Duplicates += c.MergedFrom - 1
		}
	}

	stored, err := i.store.UpsertListings(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to store canonical listings: %w", err)
	}
	result.Stored = stored

	log.Printf("ingest: %d scraped, %d valid, %d canonical, %d stored",
		result.Scraped, result.Valid, result.Canonical, result.Stored)
	return result, nil
}
