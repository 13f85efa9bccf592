package dedup

import (
	"math"
	"testing"
	"time"

	"github.com/lotwise/lotwise/internal/types"
)

func TestQualityScore(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		record types.ListingRecord
		want   float64
	}{
		{
			name:   "empty record",
			record: types.ListingRecord{},
			want:   0,
		},
		{
			name:   "standard VIN",
			record: types.ListingRecord{VIN: "1HGCM82633A004352"},
			want:   3,
		},
		{
			name:   "partial VIN",
			record: types.ListingRecord{VIN: "1HGCM82633A0"},
			want:   1,
		},
		{
			name:   "short VIN scores nothing",
			record: types.ListingRecord{VIN: "1HGCM8"},
			want:   0,
		},
		{
			name:   "price and mileage",
			record: types.ListingRecord{Price: 25000, Mileage: 42000},
			want:   4,
		},
		{
			name:   "feature list capped at one",
			record: types.ListingRecord{Features: make([]string, 25)},
			want:   1,
		},
		{
			name:   "three features",
			record: types.ListingRecord{Features: []string{"a", "b", "c"}},
			want:   0.3,
		},
		{
			name:   "image list capped at one",
			record: types.ListingRecord{ImageURLs: make([]string, 10)},
			want:   1,
		},
		{
			name:   "dealer and location",
			record: types.ListingRecord{DealerName: "Capitol Honda", Location: "Austin"},
			want:   2,
		},
		{
			name:   "fresh scrape bonus",
			record: types.ListingRecord{ScrapedAt: now.Add(-2 * time.Hour)},
			want:   0.5,
		},
		{
			name:   "stale scrape no bonus",
			record: types.ListingRecord{ScrapedAt: now.Add(-48 * time.Hour)},
			want:   0,
		},
		{
			name: "everything",
			record: types.ListingRecord{
				VIN:        "1HGCM82633A004352",
				Price:      25000,
				Mileage:    42000,
				Features:   []string{"a", "b"},
				ImageURLs:  []string{"u1", "u2", "u3"},
				DealerName: "Capitol Honda",
				Location:   "Austin",
				ScrapedAt:  now.Add(-time.Hour),
			},
			want: 3 + 2 + 2 + 0.2 + 0.6 + 1 + 1 + 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := qualityScore(tt.record.Normalized(), now)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("qualityScore() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestBestInClusterTieKeepsFirst(t *testing.T) {
	now := time.Now()
	a := (&types.ListingRecord{Price: 25000}).Normalized()
	b := (&types.ListingRecord{Mileage: 42000}).Normalized()
	batch := []*types.NormalizedListing{a, b}

	// Both score 2; the earlier cluster member wins.
	if best := bestInCluster([]int{0, 1}, batch, now); best != 0 {
		t.Errorf("tie should keep first member, got index %d", best)
	}
	if best := bestInCluster([]int{1, 0}, batch, now); best != 1 {
		t.Errorf("tie should keep first member in cluster order, got index %d", best)
	}
}

func TestBestInClusterPrefersQuality(t *testing.T) {
	now := time.Now()
	sparse := (&types.ListingRecord{Price: 25000}).Normalized()
	rich := (&types.ListingRecord{
		VIN:     "1HGCM82633A004352",
		Price:   25000,
		Mileage: 42000,
	}).Normalized()
	batch := []*types.NormalizedListing{sparse, rich}

	if best := bestInCluster([]int{0, 1}, batch, now); best != 1 {
		t.Errorf("expected richer record at index 1, got %d", best)
	}
}
