// Package market turns raw marketplace offer records into normalized listings
// and derives collection-level market statistics (floor, percentiles, depth of
// book, price histograms) from them.
package market

// Listing is one live marketplace offer for a collection NFT, with its price
// normalized to whole XCH. A Listing only lives for the duration of one
// aggregation run.
type Listing struct {
	// InternalID is the edition number the desktop front-end keys icons by.
	InternalID string `json:"id"`
	// LauncherID is the on-chain singleton launcher id (hex, no 0x prefix).
	LauncherID string `json:"launcher_id,omitempty"`
	// EncodedID is the bech32m nft1... form, when the upstream supplied it.
	EncodedID string `json:"encoded_id,omitempty"`
	// OfferID is the raw marketplace record id; part of the dedupe key.
	OfferID string `json:"offer_id,omitempty"`

	PriceXCH float64  `json:"price_xch"`
	PriceUSD *float64 `json:"price_usd"`
	// PriceField records which raw field supplied the price, for observability.
	PriceField string `json:"price_field,omitempty"`

	CreatedAt string `json:"created_at,omitempty"`
}

// Unresolved is a record that could not become a Listing: no resolvable
// identifier, no parseable price, or a non-positive normalized price. It
// carries enough raw hints for manual follow-up.
type Unresolved struct {
	Reason   string `json:"reason"`
	Name     string `json:"name,omitempty"`
	Edition  string `json:"edition,omitempty"`
	OfferID  string `json:"offer_id,omitempty"`
	RawPrice string `json:"raw_price,omitempty"`
}

// Unresolved reason codes.
const (
	ReasonMissingIdentifier = "missing_identifier"
	ReasonUnmappedLauncher  = "unmapped_launcher"
	ReasonMissingPrice      = "missing_price"
	ReasonNonPositivePrice  = "non_positive_price"
)
