package dedup

import (
	"math"
	"time"

	"github.com/lotwise/lotwise/internal/types"
)

// qualityScore rates a listing's completeness and freshness. Higher is
// better. The score orders cluster members when choosing the canonical
// representative; ties keep the record seen first.
//
// Rubric:
//   - standard 17-character VIN: +3; partial VIN longer than 10: +1
//   - positive price: +2
//   - positive mileage: +2
//   - features: +0.1 each, capped at +1
//   - images: +0.2 each, capped at +1
//   - dealer name present: +1
//   - location present: +1
//   - scraped within the last 24 hours: +0.5
func qualityScore(n *types.NormalizedListing, now time.Time) float64 {
	score := 0.0

	switch {
	case len(n.VIN) == 17:
		score += 3
	case len(n.VIN) > 10:
		score += 1
	}

	if n.Price > 0 {
		score += 2
	}
	if n.Mileage > 0 {
		score += 2
	}

	score += math.Min(float64(len(n.Record.Features))*0.1, 1)
	score += math.Min(float64(len(n.Record.ImageURLs))*0.2, 1)

	if n.Dealer != "" {
		score += 1
	}
	if n.Location != "" {
		score += 1
	}

	if !n.Record.ScrapedAt.IsZero() {
		age := now.Sub(n.Record.ScrapedAt)
		if age >= 0 && age < 24*time.Hour {
			score += 0.5
		}
	}

	return score
}

// bestInCluster returns the index (into the batch) of the highest-quality
// member of a cluster. Ties keep the earliest member in cluster order.
func bestInCluster(cluster []int, batch []*types.NormalizedListing, now time.Time) int {
	best := cluster[0]
	bestScore := 0.0
	for _, idx := range cluster {
		if s := qualityScore(batch[idx], now); s > bestScore {
			bestScore = s
			best = idx
		}
	}
	return best
}
