// Package dedup clusters scraped vehicle listings that describe the same
// physical vehicle and merges each cluster into one canonical record.
//
// # Overview
//
// Listings arrive from multiple scrape sources with no single authoritative
// key: VINs are frequently missing or garbled, prices drift between sites,
// and dealer names are spelled inconsistently. The engine therefore judges
// identity by whole-record similarity rather than by VIN alone.
//
// # Architecture
//
// The engine is a pipeline of four small policies:
//
//  1. Similarity scoring: a weighted combination of six sub-scores
//     (vin, title, price, mileage, dealer, location), each in [0, 1].
//  2. Cluster building: a single greedy pass that groups records scoring
//     above the similarity threshold against the cluster's seed record.
//  3. Quality ranking: a completeness/freshness rubric that picks the best
//     representative of a cluster.
//  4. Merge resolution: the best representative keeps its scalar fields,
//     set-valued fields are unioned, and missing scalars are back-filled
//     from siblings.
//
// Clustering is deliberately greedy and non-transitive: records are tested
// against the cluster's seed, not against other members, and the first
// matching seed wins. This matches historical clustering decisions and must
// not be "fixed" into connected-components clustering without a product
// decision, since it would alter merge outcomes.
//
// # Entry Points
//
//   - Engine.Deduplicate: batch deduplication of a scrape cycle.
//   - Engine.FindCrossBatchDuplicates: report-only matching of new listings
//     against an already-persisted set.
//   - Engine.Statistics: duplicate statistics for a batch.
//   - ValidateVIN: structural VIN validation and decoding.
//
// Both clustering and cross-batch matching are O(n²) in the batch size.
// That is acceptable for the tens of thousands of records a scraping cycle
// produces, but it is a scaling limit; cross-batch scoring is parallelized,
// while the greedy assignment pass stays serial because clustering
// decisions depend on global assignment state.
package dedup
