package market

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// MaxUnresolved caps the diagnostic side-channel so one broken upstream field
// cannot balloon the snapshot.
const MaxUnresolved = 200

// mojoThreshold is the heuristic boundary for prices quoted in mojos (the
// smallest XCH unit): an integer at or above 1e9 is treated as mojos and
// divided by 1e12. Known to misclassify absurdly large whole-XCH prices;
// preserved as-is because upstream gives no schema guarantee either way.
var (
	mojoThreshold = decimal.NewFromInt(1_000_000_000)
	mojoPerXCH    = decimal.NewFromInt(1_000_000_000_000)
)

// priceFields is the ordered list of candidate price locations probed on each
// raw record: a direct XCH-denominated field first, then nested price
// objects, then generic fields.
var priceFields = []string{
	"xch_price",
	"price.xch",
	"price.amount",
	"price",
	"amount",
	"listing_price",
}

// Resolver maps an on-chain launcher id to the front-end's internal id.
type Resolver interface {
	Internal(launcherID string) (string, bool)
}

// Result accumulates the outcome of normalizing one fetch run.
type Result struct {
	Listings       []Listing
	Unresolved     []Unresolved
	FetchedCount   int
	DuplicateCount int
	// FieldUsage counts which candidate field supplied each accepted price.
	FieldUsage map[string]int
}

// Normalizer extracts, normalizes, and deduplicates listings from raw
// marketplace records. It is single-use: feed every fetched record through
// Add, then read the Result.
type Normalizer struct {
	resolver  Resolver
	usdPerXCH *float64

	seen map[string]struct{}
	res  Result
}

// NewNormalizer builds a Normalizer. usdPerXCH may be nil when no spot price
// is available; USD fields then stay null.
func NewNormalizer(resolver Resolver, usdPerXCH *float64) *Normalizer {
	return &Normalizer{
		resolver:  resolver,
		usdPerXCH: usdPerXCH,
		seen:      make(map[string]struct{}),
		res:       Result{FieldUsage: make(map[string]int)},
	}
}

// Add processes one raw record. Records that cannot be resolved or priced are
// routed to the capped unresolved list; duplicates are dropped and counted.
// Nothing is ever silently discarded without accounting.
func (n *Normalizer) Add(raw gjson.Result) {
	n.res.FetchedCount++

	launcher := normalizeLauncherID(firstString(raw, "nft.launcher_id", "launcher_id"))
	encoded := firstString(raw, "nft.encoded_id", "encoded_id", "nft_id")
	offerID := firstString(raw, "offer_id", "id", "trade_id")

	priceRaw, field := probePrice(raw)

	if launcher == "" && encoded == "" {
		n.unresolved(raw, offerID, priceRaw, ReasonMissingIdentifier)
		return
	}

	// Dedupe before anything else so a repeated record never double-counts
	// in the diagnostics either.
	key := launcher + "|" + offerID
	if launcher == "" {
		key = encoded + "|" + offerID
	}
	if _, dup := n.seen[key]; dup {
		n.res.DuplicateCount++
		return
	}
	n.seen[key] = struct{}{}

	if field == "" {
		n.unresolved(raw, offerID, priceRaw, ReasonMissingPrice)
		return
	}

	price, ok := NormalizePrice(priceRaw)
	if !ok || price <= 0 {
		n.unresolved(raw, offerID, priceRaw, ReasonNonPositivePrice)
		return
	}

	internal, ok := n.resolver.Internal(launcher)
	if !ok {
		n.unresolved(raw, offerID, priceRaw, ReasonUnmappedLauncher)
		return
	}

	n.res.FieldUsage[field]++

	l := Listing{
		InternalID: internal,
		LauncherID: launcher,
		EncodedID:  encoded,
		OfferID:    offerID,
		PriceXCH:   price,
		PriceField: field,
		CreatedAt:  firstString(raw, "created_at", "date_found", "timestamp"),
	}
	if n.usdPerXCH != nil {
		usd := price * *n.usdPerXCH
		l.PriceUSD = &usd
	}
	n.res.Listings = append(n.res.Listings, l)
}

// Result returns the accumulated outcome.
func (n *Normalizer) Result() *Result {
	return &n.res
}

func (n *Normalizer) unresolved(raw gjson.Result, offerID string, priceRaw gjson.Result, reason string) {
	if len(n.res.Unresolved) >= MaxUnresolved {
		return
	}
	n.res.Unresolved = append(n.res.Unresolved, Unresolved{
		Reason:   reason,
		Name:     firstString(raw, "nft.name", "name"),
		Edition:  firstString(raw, "nft.edition_number", "edition_number", "edition"),
		OfferID:  offerID,
		RawPrice: priceRaw.Raw,
	})
}

// NormalizePrice converts a raw price value to whole XCH. An integer at or
// above 1e9 is assumed to be mojos and divided by 1e12; everything else is
// taken as already being XCH-denominated.
func NormalizePrice(v gjson.Result) (float64, bool) {
	var d decimal.Decimal
	switch v.Type {
	case gjson.Number:
		var err error
		// Parse from the raw token, not the float64, so large mojo amounts
		// keep full precision.
		d, err = decimal.NewFromString(strings.TrimSpace(v.Raw))
		if err != nil {
			return 0, false
		}
	case gjson.String:
		var err error
		d, err = decimal.NewFromString(strings.TrimSpace(v.Str))
		if err != nil {
			return 0, false
		}
	default:
		return 0, false
	}

	if d.IsInteger() && d.GreaterThanOrEqual(mojoThreshold) {
		d = d.Div(mojoPerXCH)
	}
	return d.InexactFloat64(), true
}

// probePrice tries the candidate price fields in order, returning the first
// present value and the field that supplied it.
func probePrice(raw gjson.Result) (gjson.Result, string) {
	for _, f := range priceFields {
		if v := raw.Get(f); v.Exists() {
			// A nested object at a generic field is not a price; let deeper
			// candidates have their turn first via the ordered list.
			if v.Type == gjson.JSON {
				continue
			}
			return v, f
		}
	}
	return gjson.Result{}, ""
}

func firstString(raw gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := raw.Get(p); v.Exists() {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func normalizeLauncherID(s string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
}
