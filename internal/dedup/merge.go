package dedup

import (
	"time"

	"github.com/lotwise/lotwise/internal/types"
)

// mergeCluster combines a duplicate cluster into one canonical listing.
//
// The highest-quality member becomes the base record. Set-valued fields
// (features, image URLs) are unioned across the cluster preserving
// first-seen order. For the back-fillable scalar fields, an empty value on
// the base is adopted from the first sibling in cluster order that has one;
// a filled value is never overwritten.
func mergeCluster(cluster []int, batch []*types.NormalizedListing, now time.Time) *types.CanonicalListing {
	best := bestInCluster(cluster, batch, now)

	merged := &types.CanonicalListing{
		ListingRecord: *batch[best].Record,
		MergedFrom:    len(cluster),
		MergedAt:      now,
	}

	// Copy the base's slices so the merge never mutates the input record.
	merged.Features = append([]string(nil), merged.Features...)
	merged.ImageURLs = append([]string(nil), merged.ImageURLs...)

	seenFeature := make(map[string]bool, len(merged.Features))
	for _, f := range merged.Features {
		seenFeature[f] = true
	}
	seenImage := make(map[string]bool, len(merged.ImageURLs))
	for _, u := range merged.ImageURLs {
		seenImage[u] = true
	}

	for _, idx := range cluster {
		if idx == best {
			continue
		}
		sibling := batch[idx].Record

		for _, f := range sibling.Features {
			if !seenFeature[f] {
				seenFeature[f] = true
				merged.Features = append(merged.Features, f)
			}
		}
		for _, u := range sibling.ImageURLs {
			if !seenImage[u] {
				seenImage[u] = true
				merged.ImageURLs = append(merged.ImageURLs, u)
			}
		}

		backfill(&merged.VIN, sibling.VIN)
		backfill(&merged.Engine, sibling.Engine)
		backfill(&merged.Transmission, sibling.Transmission)
		backfill(&merged.Drivetrain, sibling.Drivetrain)
		backfill(&merged.FuelType, sibling.FuelType)
		backfill(&merged.BodyType, sibling.BodyType)
		backfill(&merged.ExteriorColor, sibling.ExteriorColor)
		backfill(&merged.InteriorColor, sibling.InteriorColor)
	}

	return merged
}

// backfill sets *dst to src only when *dst is empty and src is not.
func backfill(dst *string, src string) {
	if *dst == "" && src != "" {
		*dst = src
	}
}
