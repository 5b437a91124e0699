// Package index assembles and writes the aggregated market snapshot the
// desktop front-end reads: all live listings grouped per internal id, the
// derived market statistics, and the diagnostic side-channels.
package index

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tangtown/tangdesk/pkg/market"
)

// SchemaVersion is bumped whenever the snapshot layout changes in a way the
// front-end must know about.
const SchemaVersion = 2

// Snapshot is the full aggregated output of one run.
type Snapshot struct {
	SchemaVersion int    `json:"schema_version"`
	GeneratedAt   string `json:"generated_at"`
	CollectionID  string `json:"collection_id"`

	XCHPriceUSD *float64 `json:"xch_price_usd"`

	FloorXCH float64 `json:"floor_xch"`
	// Count is the number of distinct internal ids with at least one listing.
	Count int `json:"count"`

	Stats SnapshotStats `json:"stats"`

	MarketStats *market.MarketStats `json:"market_stats"`

	ListingsByID *ListingsByID `json:"listings_by_id"`

	UnresolvedListings []market.Unresolved `json:"unresolved_listings,omitempty"`
	PriceFieldUsage    map[string]int      `json:"price_field_usage,omitempty"`
}

// SnapshotStats carries the run diagnostics: how much was fetched and how
// much of it was discarded as duplicate.
type SnapshotStats struct {
	FetchedCount   int `json:"fetched_count"`
	DuplicateCount int `json:"duplicate_count"`
}

// BuildSnapshot groups normalized listings per internal id and derives the
// market statistics. The caller stamps now; it is recorded in RFC3339 UTC.
func BuildSnapshot(collectionID string, res *market.Result, usdPerXCH *float64, cfg market.StatsConfig, now time.Time) *Snapshot {
	byID := NewListingsByID()
	for _, l := range res.Listings {
		byID.Add(l)
	}

	stats := market.Compute(byID.BestPrices(), res.Listings, cfg)

	snap := &Snapshot{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   now.UTC().Format(time.RFC3339),
		CollectionID:  collectionID,
		XCHPriceUSD:   usdPerXCH,
		Count:         byID.Len(),
		Stats: SnapshotStats{
			FetchedCount:   res.FetchedCount,
			DuplicateCount: res.DuplicateCount,
		},
		MarketStats:        stats,
		ListingsByID:       byID,
		UnresolvedListings: res.Unresolved,
		PriceFieldUsage:    res.FieldUsage,
	}
	if stats != nil {
		snap.FloorXCH = stats.FloorXCH
	}
	return snap
}

// IDListings is the per-id value in the written snapshot: the cheapest
// listing called out next to the full (price-ascending) list.
type IDListings struct {
	BestListing market.Listing   `json:"best_listing"`
	Listings    []market.Listing `json:"listings"`
}

// ListingsByID groups listings under their internal id. Insertion order is
// irrelevant; serialization always emits ids in numeric order so repeated runs
// over the same data produce byte-identical output.
type ListingsByID struct {
	ids      []string
	listings map[string][]market.Listing
}

func NewListingsByID() *ListingsByID {
	return &ListingsByID{listings: make(map[string][]market.Listing)}
}

// Add appends one listing under its internal id, keeping each id's listings
// sorted by ascending price.
func (b *ListingsByID) Add(l market.Listing) {
	if _, ok := b.listings[l.InternalID]; !ok {
		b.ids = append(b.ids, l.InternalID)
	}
	ls := append(b.listings[l.InternalID], l)
	sort.SliceStable(ls, func(i, j int) bool { return ls[i].PriceXCH < ls[j].PriceXCH })
	b.listings[l.InternalID] = ls
}

// Get returns the listings for one internal id, cheapest first.
func (b *ListingsByID) Get(internalID string) []market.Listing {
	return b.listings[internalID]
}

// Len returns the number of distinct internal ids.
func (b *ListingsByID) Len() int { return len(b.listings) }

// BestPrices returns each id's cheapest listed price.
func (b *ListingsByID) BestPrices() []float64 {
	out := make([]float64, 0, len(b.ids))
	for _, id := range b.ids {
		out = append(out, b.listings[id][0].PriceXCH)
	}
	return out
}

// MarshalJSON emits ids sorted numerically (the internal ids are edition
// numbers; lexical order would interleave "10" between "1" and "2").
func (b *ListingsByID) MarshalJSON() ([]byte, error) {
	ids := append([]string(nil), b.ids...)
	sort.Slice(ids, func(i, j int) bool {
		na, errA := strconv.Atoi(ids[i])
		nb, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return na < nb
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})

	var sb strings.Builder
	sb.WriteByte('{')
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		kb, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		ls := b.listings[id]
		vb, err := json.Marshal(IDListings{BestListing: ls[0], Listings: ls})
		if err != nil {
			return nil, err
		}
		sb.Write(kb)
		sb.WriteByte(':')
		sb.Write(vb)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

// UnmarshalJSON restores the grouping from a snapshot file; used by the
// validator and the dev server.
func (b *ListingsByID) UnmarshalJSON(data []byte) error {
	var m map[string]IDListings
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	b.listings = make(map[string][]market.Listing, len(m))
	b.ids = b.ids[:0]
	for id, v := range m {
		b.listings[id] = v.Listings
		b.ids = append(b.ids, id)
	}
	sort.Strings(b.ids)
	return nil
}
