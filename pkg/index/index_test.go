package index

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tangtown/tangdesk/pkg/market"
	"github.com/tidwall/gjson"
)

func listing(id string, price float64) market.Listing {
	return market.Listing{
		InternalID: id,
		LauncherID: strings.Repeat("ab", 32),
		OfferID:    "offer-" + id,
		PriceXCH:   price,
	}
}

func TestListingsByIDSortsKeysNumerically(t *testing.T) {
	b := NewListingsByID()
	b.Add(listing("10", 3))
	b.Add(listing("2", 1))
	b.Add(listing("1", 2))

	data, err := json.Marshal(b)
	require.NoError(t, err)

	s := string(data)
	i1, i2, i10 := strings.Index(s, `"1":`), strings.Index(s, `"2":`), strings.Index(s, `"10":`)
	require.True(t, i1 < i2 && i2 < i10, "keys not numeric-ordered: %s", s)
}

func TestListingsByIDKeepsCheapestFirst(t *testing.T) {
	b := NewListingsByID()
	b.Add(listing("7", 5))
	b.Add(listing("7", 2))
	b.Add(listing("7", 9))

	ls := b.Get("7")
	require.Len(t, ls, 3)
	require.Equal(t, 2.0, ls[0].PriceXCH)
	require.Equal(t, []float64{2}, b.BestPrices())
}

func result(listings ...market.Listing) *market.Result {
	return &market.Result{
		Listings:     listings,
		FetchedCount: len(listings),
		FieldUsage:   map[string]int{"xch_price": len(listings)},
	}
}

func TestBuildSnapshotIsDeterministic(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	res := result(listing("3", 1.5), listing("1", 2.5), listing("2", 0.9))

	a, err := json.MarshalIndent(BuildSnapshot("col1", res, nil, market.DefaultStatsConfig(), now), "", "  ")
	require.NoError(t, err)
	b, err := json.MarshalIndent(BuildSnapshot("col1", res, nil, market.DefaultStatsConfig(), now), "", "  ")
	require.NoError(t, err)
	require.True(t, bytes.Equal(a, b), "same input must produce byte-identical snapshots")
}

func TestBuildSnapshotFields(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	usd := 28.5
	res := result(listing("1", 2.0), listing("2", 1.0), listing("2", 4.0))

	snap := BuildSnapshot("col1", res, &usd, market.DefaultStatsConfig(), now)

	require.Equal(t, SchemaVersion, snap.SchemaVersion)
	require.Equal(t, "2026-08-20T12:00:00Z", snap.GeneratedAt)
	require.Equal(t, 2, snap.Count)
	require.Equal(t, 3, snap.Stats.FetchedCount)
	require.Equal(t, 1.0, snap.FloorXCH)
	require.NotNil(t, snap.MarketStats)
	require.Equal(t, 2, snap.MarketStats.Count)
}

func TestSnapshotJSONShape(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	res := result(listing("7", 2.0), listing("7", 1.5))

	data, err := json.Marshal(BuildSnapshot("col1", res, nil, market.DefaultStatsConfig(), now))
	require.NoError(t, err)
	root := gjson.ParseBytes(data)

	// Run diagnostics live under a stats object, not at the top level.
	require.True(t, root.Get("stats").IsObject(), "missing stats object: %s", data)
	require.Equal(t, int64(2), root.Get("stats.fetched_count").Int())
	require.False(t, root.Get("fetched_count").Exists())
	require.False(t, root.Get("duplicate_count").Exists())

	// Each id maps to {best_listing, listings}, cheapest called out.
	entry := root.Get(`listings_by_id.7`)
	require.True(t, entry.IsObject(), "per-id entry must be an object: %s", entry.Raw)
	require.Equal(t, 1.5, entry.Get("best_listing.price_xch").Float())
	require.Len(t, entry.Get("listings").Array(), 2)
	require.Equal(t, 1.5, entry.Get("listings.0.price_xch").Float())
}

func TestWriteRefusesToWipeSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"previous": true}`), 0644))

	snap := BuildSnapshot("col1", &market.Result{FetchedCount: 50}, nil, market.DefaultStatsConfig(), time.Now())
	err := Write(path, snap)
	require.ErrorIs(t, err, ErrNothingMapped)

	// The previous snapshot must be untouched.
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	require.JSONEq(t, `{"previous": true}`, string(data))
}

func TestWriteAllowsGenuinelyEmptyMarket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	snap := BuildSnapshot("col1", &market.Result{}, nil, market.DefaultStatsConfig(), time.Now())
	require.NoError(t, Write(path, snap))
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	res := result(listing("1", 2.0), listing("2", 1.0))

	require.NoError(t, Write(path, BuildSnapshot("col1", res, nil, market.DefaultStatsConfig(), now)))

	// No leftover temp file.
	_, err := os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))

	got, err := Read(path)
	require.NoError(t, err)
	require.Equal(t, "col1", got.CollectionID)
	require.Equal(t, 2, got.ListingsByID.Len())
	require.Equal(t, 1.0, got.ListingsByID.Get("2")[0].PriceXCH)
}

func TestValidateCleanSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	res := result(listing("1", 2.0), listing("2", 1.0), listing("2", 4.0))
	require.NoError(t, Write(path, BuildSnapshot("col1", res, nil, market.DefaultStatsConfig(), time.Now())))

	findings := Validate(path)
	require.False(t, HasErrors(findings), "unexpected findings: %v", findings)
}

func TestValidateCatchesBrokenSnapshots(t *testing.T) {
	entry := func(inner string) string {
		return `{"schema_version": 2, "generated_at": "2026-08-20T12:00:00Z", "collection_id": "c",
		  "count": 1, "floor_xch": 1, "stats": {"fetched_count": 1, "duplicate_count": 0},
		  "market_stats": {"count": 1}, "listings_by_id": ` + inner + `}`
	}

	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"not json", "garbage", "not valid JSON"},
		{"missing byid", `{"schema_version": 2, "generated_at": "2026-08-20T12:00:00Z", "collection_id": "c", "stats": {}}`, "listings_by_id"},
		{
			"missing stats",
			`{"schema_version": 2, "generated_at": "2026-08-20T12:00:00Z", "collection_id": "c",
			  "count": 1, "floor_xch": 1, "market_stats": {"count": 1},
			  "listings_by_id": {"1": {"best_listing": {"id": "1", "price_xch": 1}, "listings": [{"id": "1", "price_xch": 1}]}}}`,
			"non-object stats",
		},
		{
			"non-numeric key",
			entry(`{"abc": {"best_listing": {"id": "abc", "price_xch": 1}, "listings": [{"id": "abc", "price_xch": 1}]}}`),
			"numeric internal id",
		},
		{
			"bare array entry",
			entry(`{"1": [{"id": "1", "price_xch": 1}]}`),
			"not a {best_listing, listings} object",
		},
		{
			"count mismatch",
			`{"schema_version": 2, "generated_at": "2026-08-20T12:00:00Z", "collection_id": "c",
			  "count": 5, "floor_xch": 1, "stats": {"fetched_count": 1, "duplicate_count": 0},
			  "market_stats": {"count": 1},
			  "listings_by_id": {"1": {"best_listing": {"id": "1", "price_xch": 1}, "listings": [{"id": "1", "price_xch": 1}]}}}`,
			"count 5",
		},
		{
			"bad price",
			entry(`{"1": {"best_listing": {"id": "1", "price_xch": 0}, "listings": [{"id": "1", "price_xch": 0}]}}`),
			"non-positive price",
		},
		{
			"best listing mismatch",
			entry(`{"1": {"best_listing": {"id": "1", "price_xch": 9}, "listings": [{"id": "1", "price_xch": 1}]}}`),
			"does not match cheapest listing",
		},
		{
			"bad encoded id",
			entry(`{"1": {"best_listing": {"id": "1", "price_xch": 1, "encoded_id": "bogus"}, "listings": [{"id": "1", "price_xch": 1, "encoded_id": "bogus"}]}}`),
			"malformed encoded_id",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "snapshot.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0644))

			findings := Validate(path)
			require.True(t, HasErrors(findings))
			found := false
			for _, f := range findings {
				if strings.Contains(f.Message, tc.want) {
					found = true
				}
			}
			require.True(t, found, "expected a finding containing %q, got %v", tc.want, findings)
		})
	}
}
