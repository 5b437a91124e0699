package index

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/tangtown/tangdesk/internal/utils"
	"github.com/tangtown/tangdesk/pkg/market"
	"github.com/tidwall/gjson"
)

// Finding is one validator observation. Errors mean the snapshot would break
// the front-end; warnings are worth a look but not blocking.
type Finding struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

const (
	LevelError   = "error"
	LevelWarning = "warning"
)

// staleAfter flags snapshots older than this as probably-broken cron runs.
const staleAfter = 24 * time.Hour

// Validate checks a snapshot file on disk the way a release gate would: raw
// JSON first (a typed unmarshal would paper over schema drift), then the
// cross-field invariants. Returns every finding, not just the first.
func Validate(path string) []Finding {
	var findings []Finding
	errf := func(format string, args ...interface{}) {
		findings = append(findings, Finding{LevelError, fmt.Sprintf(format, args...)})
	}
	warnf := func(format string, args ...interface{}) {
		findings = append(findings, Finding{LevelWarning, fmt.Sprintf(format, args...)})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		errf("cannot read snapshot: %v", err)
		return findings
	}
	if !gjson.ValidBytes(data) {
		errf("snapshot is not valid JSON")
		return findings
	}
	root := gjson.ParseBytes(data)

	if v := root.Get("schema_version"); !v.Exists() {
		errf("missing schema_version")
	} else if int(v.Int()) != SchemaVersion {
		warnf("schema_version %d, expected %d", v.Int(), SchemaVersion)
	}

	if v := root.Get("generated_at"); !v.Exists() {
		errf("missing generated_at")
	} else if ts, err := time.Parse(time.RFC3339, v.String()); err != nil {
		errf("generated_at %q is not RFC3339: %v", v.String(), err)
	} else if age := time.Since(ts); age > staleAfter {
		warnf("snapshot is %s old; is the aggregation job still running?", age.Round(time.Hour))
	}

	if root.Get("collection_id").String() == "" {
		errf("missing collection_id")
	}

	if s := root.Get("stats"); !s.Exists() || !s.IsObject() {
		errf("missing or non-object stats")
	} else if f := int(s.Get("fetched_count").Int()); f < 0 {
		errf("stats.fetched_count %d is negative", f)
	}

	byID := root.Get("listings_by_id")
	if !byID.Exists() || !byID.IsObject() {
		errf("missing or non-object listings_by_id")
		return findings
	}

	idCount := 0
	minBest := math.Inf(1)
	byID.ForEach(func(key, entry gjson.Result) bool {
		idCount++
		id := key.String()
		if !utils.IsNumericID(id) {
			errf("listings_by_id key %q is not a numeric internal id", id)
		}
		if !entry.IsObject() {
			errf("id %s: entry is not a {best_listing, listings} object", id)
			return true
		}
		listings := entry.Get("listings")
		if !listings.IsArray() || len(listings.Array()) == 0 {
			errf("id %s: empty listings array", id)
			return true
		}
		prev := 0.0
		for i, l := range listings.Array() {
			price := l.Get("price_xch").Float()
			if price <= 0 {
				errf("id %s listing %d: non-positive price_xch %v", id, i, price)
			}
			if i > 0 && price < prev {
				warnf("id %s: listings not sorted by ascending price", id)
			}
			prev = price
			if lid := l.Get("launcher_id").String(); lid != "" && !utils.IsLauncherID(lid) {
				errf("id %s listing %d: malformed launcher_id %q", id, i, lid)
			}
			if eid := l.Get("encoded_id").String(); eid != "" && !utils.IsEncodedNFTID(eid) {
				errf("id %s listing %d: malformed encoded_id %q", id, i, eid)
			}
			if lid := l.Get("id").String(); lid != id {
				errf("id %s listing %d: listing id %q does not match its key", id, i, lid)
			}
		}
		best := listings.Array()[0].Get("price_xch").Float()
		if declared := entry.Get("best_listing.price_xch").Float(); math.Abs(declared-best) > 1e-9 {
			errf("id %s: best_listing price %v does not match cheapest listing %v", id, declared, best)
		}
		if best < minBest {
			minBest = best
		}
		return true
	})

	if c := int(root.Get("count").Int()); c != idCount {
		errf("count %d does not match %d listings_by_id entries", c, idCount)
	}
	if idCount > 0 {
		if floor := root.Get("floor_xch").Float(); math.Abs(floor-minBest) > 1e-9 {
			errf("floor_xch %v does not match cheapest best price %v", floor, minBest)
		}
		if ms := root.Get("market_stats"); !ms.Exists() || ms.Type == gjson.Null {
			errf("listings present but market_stats is null")
		} else if sc := int(ms.Get("count").Int()); sc != idCount {
			errf("market_stats.count %d does not match %d ids", sc, idCount)
		}
	}

	if n := len(root.Get("unresolved_listings").Array()); n > market.MaxUnresolved {
		errf("unresolved_listings has %d entries, cap is %d", n, market.MaxUnresolved)
	}

	return findings
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Level == LevelError {
			return true
		}
	}
	return false
}
