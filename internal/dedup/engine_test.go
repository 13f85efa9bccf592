package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/lotwise/lotwise/internal/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return e
}

// duplicateTrio returns three listings for the same vehicle whose VINs
// differ by one transposed character, plus an unrelated fourth listing.
func duplicateTrio(now time.Time) []*types.ListingRecord {
	return []*types.ListingRecord{
		{
			VIN: "1HGCM82633A004352", Make: "Honda", Model: "Accord", Year: 2021,
			Price: 24500, DealerName: "Capitol Honda", Location: "Austin, TX",
			Features: []string{"sunroof"}, ScrapedAt: now.Add(-time.Hour),
		},
		{
			VIN: "1HGCM82633A004325", Make: "Honda", Model: "Accord", Year: 2021,
			Price: 24500, Features: []string{"leather"}, ScrapedAt: now.Add(-2 * time.Hour),
		},
		{
			VIN: "1HGCM82633A043052", Make: "Honda", Model: "Accord", Year: 2021,
			Price: 24500, ImageURLs: []string{"x.jpg"}, ScrapedAt: now.Add(-3 * time.Hour),
		},
		{
			VIN: "5YJ3E1EA7KF317000", Make: "Tesla", Model: "Model 3", Year: 2019,
			Price: 31900, Mileage: 22000, ScrapedAt: now.Add(-time.Hour),
		},
	}
}

func TestDeduplicateEndToEnd(t *testing.T) {
	e := newTestEngine(t)
	listings := duplicateTrio(time.Now())

	out := e.Deduplicate(listings)

	if len(out) != 2 {
		t.Fatalf("expected 2 output records, got %d", len(out))
	}

	var mergedCount, standaloneCount int
	for _, c := range out {
		if err := c.Validate(); err != nil {
			t.Errorf("invalid canonical listing: %v", err)
		}
		switch c.MergedFrom {
		case 3:
			mergedCount++
			// Set-valued fields are supersets of every contributing member.
			features := map[string]bool{}
			for _, f := range c.Features {
				features[f] = true
			}
			if !features["sunroof"] || !features["leather"] {
				t.Errorf("merged features missing contributions: %v", c.Features)
			}
			if len(c.ImageURLs) != 1 || c.ImageURLs[0] != "x.jpg" {
				t.Errorf("merged image_urls = %v, want [x.jpg]", c.ImageURLs)
			}
		case 1:
			standaloneCount++
			if c.Make != "Tesla" {
				t.Errorf("standalone record should be the unrelated listing, got %q", c.Make)
			}
		default:
			t.Errorf("unexpected merged_from %d", c.MergedFrom)
		}
	}
	if mergedCount != 1 || standaloneCount != 1 {
		t.Errorf("expected one merged and one standalone record, got %d/%d",
			mergedCount, standaloneCount)
	}
}

func TestDeduplicateCountInvariant(t *testing.T) {
	e := newTestEngine(t)
	listings := duplicateTrio(time.Now())

	out := e.Deduplicate(listings)

	if len(out) > len(listings) {
		t.Errorf("output count %d exceeds input count %d", len(out), len(listings))
	}
	total := 0
	for _, c := range out {
		total += c.MergedFrom
	}
	if total != len(listings) {
		t.Errorf("sum of merged_from = %d, want input count %d", total, len(listings))
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	e := newTestEngine(t)
	first := e.Deduplicate(duplicateTrio(time.Now()))

	again := make([]*types.ListingRecord, len(first))
	for i := range first {
		again[i] = &first[i].ListingRecord
	}
	second := e.Deduplicate(again)

	if len(second) != len(first) {
		t.Errorf("second pass produced further merges: %d -> %d", len(first), len(second))
	}
	for _, c := range second {
		if c.MergedFrom != 1 {
			t.Errorf("second pass should only pass records through, got merged_from %d", c.MergedFrom)
		}
	}
}

func TestDeduplicateEmptyAndNil(t *testing.T) {
	e := newTestEngine(t)

	if out := e.Deduplicate(nil); out != nil {
		t.Errorf("expected nil output for empty input, got %v", out)
	}

	// A nil entry is logged and skipped, never aborts the batch.
	listings := []*types.ListingRecord{
		nil,
		{VIN: "5YJ3E1EA7KF317000", Make: "Tesla", Model: "Model 3", Year: 2019, Price: 31900},
	}
	out := e.Deduplicate(listings)
	if len(out) != 1 {
		t.Fatalf("expected 1 output record, got %d", len(out))
	}
}

func TestFindCrossBatchDuplicates(t *testing.T) {
	e := newTestEngine(t)
	now := time.Now()

	existing := []*types.ListingRecord{
		{VIN: "5YJ3E1EA7KF317000", Make: "Tesla", Model: "Model 3", Year: 2019, Price: 31900, Mileage: 22000},
		{VIN: "1HGCM82633A004352", Make: "Honda", Model: "Accord", Year: 2021, Price: 24500, ScrapedAt: now},
	}
	incoming := []*types.ListingRecord{
		{VIN: "1HGCM82633A004352", Make: "Honda", Model: "Accord", Year: 2021, Price: 24600},
		{VIN: "WBA8E9G55GNT40000", Make: "BMW", Model: "328i", Year: 2016, Price: 18900},
	}

	matches, err := e.FindCrossBatchDuplicates(context.Background(), incoming, existing)
	if err != nil {
		t.Fatalf("FindCrossBatchDuplicates failed: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d: %v", len(matches), matches)
	}
	m := matches[0]
	if m.NewIndex != 0 || m.ExistingIndex != 1 {
		t.Errorf("match indices = (%d, %d), want (0, 1)", m.NewIndex, m.ExistingIndex)
	}
	if m.Score <= e.cfg.SimilarityThreshold || m.Score > 1.0 {
		t.Errorf("match score %f out of expected range", m.Score)
	}
}

func TestFindCrossBatchDuplicatesEmptySides(t *testing.T) {
	e := newTestEngine(t)
	listings := []*types.ListingRecord{{Make: "Honda"}}

	if m, err := e.FindCrossBatchDuplicates(context.Background(), nil, listings); err != nil || m != nil {
		t.Errorf("empty new side: matches=%v err=%v", m, err)
	}
	if m, err := e.FindCrossBatchDuplicates(context.Background(), listings, nil); err != nil || m != nil {
		t.Errorf("empty existing side: matches=%v err=%v", m, err)
	}
}

func TestFindCrossBatchDuplicatesCanceled(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	listings := duplicateTrio(time.Now())
	if _, err := e.FindCrossBatchDuplicates(ctx, listings, listings); err == nil {
		t.Error("expected error from canceled context")
	}
}

func TestStatistics(t *testing.T) {
	e := newTestEngine(t)
	stats := e.Statistics(duplicateTrio(time.Now()))

	if stats.TotalListings != 4 {
		t.Errorf("total_listings = %d, want 4", stats.TotalListings)
	}
	if stats.DuplicateGroups != 1 {
		t.Errorf("duplicate_groups = %d, want 1", stats.DuplicateGroups)
	}
	if stats.DuplicateCount != 2 {
		t.Errorf("duplicate_count = %d, want 2", stats.DuplicateCount)
	}
	if stats.UniqueListings != 2 {
		t.Errorf("unique_listings = %d, want 2", stats.UniqueListings)
	}
	if stats.DeduplicationRate != 50 {
		t.Errorf("deduplication_rate = %f, want 50", stats.DeduplicationRate)
	}
}

func TestStatisticsEmpty(t *testing.T) {
	e := newTestEngine(t)
	stats := e.Statistics(nil)
	if stats.TotalListings != 0 || stats.UniqueListings != 0 || stats.DuplicateCount != 0 {
		t.Errorf("unexpected stats for empty batch: %+v", stats)
	}
}
