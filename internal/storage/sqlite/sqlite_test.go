package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotwise/lotwise/internal/types"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testListing(vin string, price float64) *types.CanonicalListing {
	return &types.CanonicalListing{
		ListingRecord: types.ListingRecord{
			VIN:        vin,
			Make:       "Honda",
			Model:      "Civic",
			Year:       2020,
			Price:      price,
			Mileage:    30000,
			Features:   []string{"Sunroof", "Bluetooth"},
			ImageURLs:  []string{"https://img.example.com/1.jpg"},
			DealerName: "Downtown Honda",
			Location:   "Seattle, WA",
			Source:     "test",
			ScrapedAt:  time.Now().UTC().Truncate(time.Second),
		},
		MergedFrom: 1,
	}
}

func TestStoreRawListings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	listings := []*types.ListingRecord{
		{VIN: "1HGCM82633A004352", Make: "Honda", Model: "Accord"},
		nil, // skipped, not fatal
		{Make: "Toyota", Model: "Camry"},
	}

	stored, err := store.StoreRawListings(ctx, listings, "autotrader")
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	stats, err := store.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.RawListings)
}

func TestUpsertListingsReplacesByVIN(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testListing("1HGCM82633A004352", 15000)
	stored, err := store.UpsertListings(ctx, []*types.CanonicalListing{first})
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	// Same VIN replaces rather than duplicates.
	second := testListing("1HGCM82633A004352", 14500)
	second.MergedFrom = 3
	second.MergedAt = time.Now()
	_, err = store.UpsertListings(ctx, []*types.CanonicalListing{second})
	require.NoError(t, err)

	listings, err := store.GetListings(ctx, 0)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, 14500.0, listings[0].Price)
	assert.Equal(t, []string{"Sunroof", "Bluetooth"}, listings[0].Features)
}

func TestUpsertListingsWithoutVIN(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Missing VINs must not collide with each other on the unique index.
	a := testListing("", 10000)
	b := testListing("", 11000)
	stored, err := store.UpsertListings(ctx, []*types.CanonicalListing{a, b})
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	listings, err := store.GetListings(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, listings, 2)
}

func TestGetListingsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	var batch []*types.CanonicalListing
	for i := 0; i < 5; i++ {
		l := testListing("", 10000+float64(i))
		l.ScrapedAt = base.Add(time.Duration(i) * time.Minute)
		batch = append(batch, l)
	}
	_, err := store.UpsertListings(ctx, batch)
	require.NoError(t, err)

	listings, err := store.GetListings(ctx, 2)
	require.NoError(t, err)
	require.Len(t, listings, 2)
	// Newest first.
	assert.Equal(t, 10004.0, listings[0].Price)
	assert.Equal(t, 10003.0, listings[1].Price)
}

func TestTrainableRowBounds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	batch := []*types.CanonicalListing{
		testListing("", 999),    // below minimum
		testListing("", 1000),   // inclusive lower bound
		testListing("", 150000), // in range
		testListing("", 200000), // exclusive upper bound
	}
	_, err := store.UpsertListings(ctx, batch)
	require.NoError(t, err)

	count, err := store.CountTrainableRows(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	rows, err := store.LoadCandidateRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "Honda", row.Make)
		assert.Equal(t, "Civic", row.Model)
		assert.Equal(t, 2020, row.Year)
	}
}

func TestLatestIngestionTime(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ts, err := store.LatestIngestionTime(ctx)
	require.NoError(t, err)
	assert.Nil(t, ts)

	older := testListing("", 12000)
	older.ScrapedAt = time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	newer := testListing("", 13000)
	newer.ScrapedAt = time.Now().UTC().Truncate(time.Second)
	_, err = store.UpsertListings(ctx, []*types.CanonicalListing{older, newer})
	require.NoError(t, err)

	ts, err = store.LatestIngestionTime(ctx)
	require.NoError(t, err)
	require.NotNil(t, ts)
	assert.WithinDuration(t, newer.ScrapedAt, *ts, time.Second)
}

func TestStatistics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertListings(ctx, []*types.CanonicalListing{
		testListing("1HGCM82633A004352", 15000),
		testListing("", 500),
	})
	require.NoError(t, err)

	stats, err := store.GetStatistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.VehicleListings)
	assert.Equal(t, 1, stats.TrainableRows)
	assert.NotNil(t, stats.EarliestScrape)
	assert.NotNil(t, stats.LatestScrape)
}
