package dedup

import (
	"math"

	"github.com/lotwise/lotwise/internal/types"
)

// similarityWeights is the fixed weighting of the six sub-scores. The
// combined score divides by the full weight sum, so a sub-score that
// evaluates to zero because of missing data still counts against the total.
var similarityWeights = map[string]float64{
	"vin":      0.40,
	"title":    0.20,
	"price":    0.15,
	"mileage":  0.10,
	"dealer":   0.10,
	"location": 0.05,
}

// Scorer computes a weighted multi-field similarity between two normalized
// listings. Scores are symmetric and bounded in [0, 1].
type Scorer struct {
	priceTolerance   float64
	mileageTolerance float64
}

// NewScorer creates a scorer with the given numeric tolerances.
func NewScorer(priceTolerance, mileageTolerance float64) *Scorer {
	return &Scorer{
		priceTolerance:   priceTolerance,
		mileageTolerance: mileageTolerance,
	}
}

// Score returns the combined similarity of two listings in [0, 1].
// A score of 1.0 means every comparable field matches exactly; 0.0 means no
// field is comparable on both sides.
func (s *Scorer) Score(a, b *types.NormalizedListing) float64 {
	scores := map[string]float64{
		"vin":      matchRatio(a.VIN, b.VIN),
		"title":    matchRatio(a.Title, b.Title),
		"price":    numericSimilarity(a.Price, b.Price, s.priceTolerance),
		"mileage":  numericSimilarity(a.Mileage, b.Mileage, s.mileageTolerance),
		"dealer":   matchRatio(a.Dealer, b.Dealer),
		"location": matchRatio(a.Location, b.Location),
	}

	total := 0.0
	totalWeight := 0.0
	for key, weight := range similarityWeights {
		total += scores[key] * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0
	}
	return total / totalWeight
}

// matchRatio is a normalized edit similarity: twice the length of the
// longest common subsequence divided by the sum of the string lengths.
// It is symmetric, 1.0 for identical non-empty strings, and 0.0 when either
// string is empty. Inputs are normalized uppercase ASCII, so the ratio
// operates on bytes.
func matchRatio(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if a == b {
		return 1
	}

	// LCS length via two-row dynamic programming.
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
		for j := range cur {
			cur[j] = 0
		}
	}

	lcs := prev[len(b)]
	return 2 * float64(lcs) / float64(len(a)+len(b))
}

// numericSimilarity maps the relative difference between two positive
// values onto [0, 1]: identical values score 1.0, and the score reaches
// zero once the relative difference hits the tolerance. Missing or zero
// values score 0.
func numericSimilarity(a, b, tolerance float64) float64 {
	if a == 0 || b == 0 {
		return 0
	}
	diff := math.Abs(a-b) / math.Max(a, b)
	return math.Max(0, 1-diff/tolerance)
}
