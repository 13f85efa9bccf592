package dedup

import (
	"github.com/lotwise/lotwise/internal/types"
)

// buildClusters groups listings into duplicate clusters with a single
// greedy pass in input order. Each unassigned record i seeds a candidate
// cluster; every subsequent unassigned record j joins if its similarity to
// the SEED (not to other members) exceeds the threshold. Once a record is
// attached to any cluster it is excluded from all further comparisons.
//
// This is first-match-wins clustering, not transitive closure: if A~B and
// B~C but A is not similar enough to C, C does not join A's cluster. The
// behavior is preserved deliberately for compatibility with historical
// clustering decisions.
//
// Only clusters with at least two members are returned; singletons pass
// through deduplication unchanged.
func buildClusters(batch []*types.NormalizedListing, scorer *Scorer, threshold float64) [][]int {
	assigned := make([]bool, len(batch))
	var clusters [][]int

	for i := range batch {
		if assigned[i] {
			continue
		}

		cluster := []int{i}
		for j := i + 1; j < len(batch); j++ {
			if assigned[j] {
				continue
			}
			if scorer.Score(batch[i], batch[j]) > threshold {
				cluster = append(cluster, j)
			}
		}

		if len(cluster) > 1 {
			for _, idx := range cluster {
				assigned[idx] = true
			}
			clusters = append(clusters, cluster)
		}
	}

	return clusters
}
