package dedup

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lotwise/lotwise/internal/types"
)

// Engine orchestrates clustering and merge resolution over a batch of
// listings. It is a synchronous, CPU-bound computation over an in-memory
// batch; the only internal concurrency is the bounded score precompute in
// FindCrossBatchDuplicates, which never affects assignment order.
type Engine struct {
	cfg    Config
	scorer *Scorer
}

// New creates a deduplication engine with the given configuration.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dedup config: %w", err)
	}
	return &Engine{
		cfg:    cfg,
		scorer: NewScorer(cfg.PriceTolerance, cfg.MileageTolerance),
	}, nil
}

// Match is one candidate cross-batch duplicate pair. It reports indices
// into the caller's slices plus the similarity score; acting on a match
// (skipping an insert, merging) is up to the caller's persistence logic.
type Match struct {
	NewIndex      int     `json:"new_listing_index"`
	ExistingIndex int     `json:"existing_listing_index"`
	Score         float64 `json:"similarity_score"`
}

// DuplicateStatistics summarizes the duplicate structure of a batch.
type DuplicateStatistics struct {
	TotalListings     int     `json:"total_listings"`
	UniqueListings    int     `json:"unique_listings"`
	DuplicateCount    int     `json:"duplicate_count"`
	DuplicateGroups   int     `json:"duplicate_groups"`
	VINDuplicates     int     `json:"vin_duplicates"`
	TitleDuplicates   int     `json:"title_duplicates"`
	DeduplicationRate float64 `json:"deduplication_rate"` // percent
}

// Deduplicate clusters a batch of listings and merges each cluster into a
// canonical record. Records never assigned to a cluster pass through
// unchanged with MergedFrom = 1. Output preserves input order by the first
// appearance of each vehicle, and the output count is always <= the input
// count; every input record is represented in exactly one output record.
//
// Malformed entries (nil records) are logged and skipped rather than
// aborting the batch.
func (e *Engine) Deduplicate(listings []*types.ListingRecord) []*types.CanonicalListing {
	if len(listings) == 0 {
		return nil
	}

	log.Printf("dedup: starting deduplication of %d listings", len(listings))

	batch := e.normalizeBatch(listings)
	clusters := buildClusters(batch, e.scorer, e.cfg.SimilarityThreshold)

	now := time.Now()
	merged := make(map[int]*types.CanonicalListing, len(clusters))
	member := make(map[int]bool)
	for _, cluster := range clusters {
		merged[cluster[0]] = mergeCluster(cluster, batch, now)
		for _, idx := range cluster {
			member[idx] = true
		}
	}

	out := make([]*types.CanonicalListing, 0, len(batch))
	for i := range batch {
		if canonical, ok := merged[i]; ok {
			out = append(out, canonical)
			continue
		}
		if member[i] {
			continue // represented by its cluster's seed
		}
		out = append(out, &types.CanonicalListing{
			ListingRecord: *batch[i].Record,
			MergedFrom:    1,
		})
	}

	log.Printf("dedup: deduplication complete, %d unique listings (%d clusters)",
		len(out), len(clusters))
	return out
}

// FindCrossBatchDuplicates compares every new listing against every
// existing listing and reports pairs whose similarity exceeds the
// threshold. It is deliberately exhaustive O(n·m) and does not merge;
// callers use the matches to avoid persisting records that duplicate
// already-stored ones.
//
// Pairwise scores are precomputed with a bounded worker group; the
// reporting pass runs serially over the score matrix, so output order is
// deterministic (ascending new index, then existing index).
func (e *Engine) FindCrossBatchDuplicates(ctx context.Context, newListings, existing []*types.ListingRecord) ([]Match, error) {
	if len(newListings) == 0 || len(existing) == 0 {
		return nil, nil
	}

	newBatch := e.normalizeBatch(newListings)
	existingBatch := e.normalizeBatch(existing)

	rows := make([][]float64, len(newBatch))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.MaxParallel)

	for i := range newBatch {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := make([]float64, len(existingBatch))
			for j := range existingBatch {
				row[j] = e.scorer.Score(newBatch[i], existingBatch[j])
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("cross-batch scoring canceled: %w", err)
	}

	var matches []Match
	for i, row := range rows {
		for j, score := range row {
			if score > e.cfg.SimilarityThreshold {
				matches = append(matches, Match{NewIndex: i, ExistingIndex: j, Score: score})
			}
		}
	}
	return matches, nil
}

// Statistics reports the duplicate structure of a batch without merging.
func (e *Engine) Statistics(listings []*types.ListingRecord) DuplicateStatistics {
	stats := DuplicateStatistics{TotalListings: len(listings)}
	if len(listings) == 0 {
		return stats
	}

	batch := e.normalizeBatch(listings)
	clusters := buildClusters(batch, e.scorer, e.cfg.SimilarityThreshold)

	for _, cluster := range clusters {
		stats.DuplicateCount += len(cluster) - 1
	}
	stats.DuplicateGroups = len(clusters)
	stats.UniqueListings = len(batch) - stats.DuplicateCount
	stats.DeduplicationRate = float64(stats.DuplicateCount) / float64(len(batch)) * 100

	// Exact-key duplicate counts, useful for sanity-checking the fuzzy pass.
	vinCounts := make(map[string]int)
	titleCounts := make(map[string]int)
	for _, n := range batch {
		if n.VIN != "" {
			vinCounts[n.VIN]++
		}
		if n.Title != "" {
			titleCounts[n.Title]++
		}
	}
	for _, c := range vinCounts {
		if c > 1 {
			stats.VINDuplicates++
		}
	}
	for _, c := range titleCounts {
		if c > 1 {
			stats.TitleDuplicates++
		}
	}

	return stats
}

// normalizeBatch builds comparison views for a batch, dropping malformed
// entries instead of failing the batch.
func (e *Engine) normalizeBatch(listings []*types.ListingRecord) []*types.NormalizedListing {
	batch := make([]*types.NormalizedListing, 0, len(listings))
	for i, r := range listings {
		if r == nil {
			log.Printf("dedup: skipping nil listing at index %d", i)
			continue
		}
		batch = append(batch, r.Normalized())
	}
	return batch
}
