package market

import (
	"fmt"
	"math"
	"sort"
)

// StatsConfig carries the empirically tuned binning parameters. The defaults
// mirror what the site's charts were built against; they are configuration,
// not constants, so product can adjust them without a code change.
type StatsConfig struct {
	// PercentileRanks to report, in percent.
	PercentileRanks []int
	// DepthMaxPoints caps the depth-of-book curve length.
	DepthMaxPoints int
	// CoarseBins/FineBins are the two linear histogram resolutions.
	CoarseBins int
	FineBins   int
	// NiceSteps is the mantissa sequence for histogram step rounding; each
	// step is one of these times a power of ten.
	NiceSteps []float64
	// FloorMultiples are the upper bounds of the floor-multiple buckets; a
	// final open-ended bucket is added above the last bound.
	FloorMultiples []float64
}

// DefaultStatsConfig returns the tuned defaults.
func DefaultStatsConfig() StatsConfig {
	return StatsConfig{
		PercentileRanks: []int{10, 25, 50, 75, 90},
		DepthMaxPoints:  600,
		CoarseBins:      8,
		FineBins:        16,
		NiceSteps:       []float64{0.25, 0.5, 1, 2, 5, 10},
		FloorMultiples:  []float64{1.1, 1.25, 1.5, 2, 3, 5, 10},
	}
}

// DepthPoint is one point of the cumulative depth-of-book curve.
type DepthPoint struct {
	PriceXCH float64 `json:"price_xch"`
	Count    int     `json:"count"`
	ValueXCH float64 `json:"value_xch"`
}

// HistogramBin is one non-empty linear histogram bin. The final bin's upper
// edge is inclusive; all other upper edges are exclusive.
type HistogramBin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// FloorBucket counts best prices by their multiple of the floor price.
type FloorBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MarketStats is the derived statistics block of a snapshot.
type MarketStats struct {
	FloorXCH        float64            `json:"floor_xch"`
	Count           int                `json:"count"`
	Percentiles     map[string]float64 `json:"percentiles"`
	Depth           []DepthPoint       `json:"depth"`
	HistogramCoarse []HistogramBin     `json:"histogram_coarse"`
	HistogramFine   []HistogramBin     `json:"histogram_fine"`
	FloorMultiples  []FloorBucket      `json:"floor_multiples"`
}

// Compute derives market statistics. bestPrices holds the lowest listed price
// per id; allListings feeds the depth curve (every listing counts toward
// liquidity, not just the best per id). Returns nil when there is nothing to
// compute from.
func Compute(bestPrices []float64, allListings []Listing, cfg StatsConfig) *MarketStats {
	if len(bestPrices) == 0 {
		return nil
	}

	sorted := append([]float64(nil), bestPrices...)
	sort.Float64s(sorted)

	stats := &MarketStats{
		FloorXCH:    sorted[0],
		Count:       len(sorted),
		Percentiles: make(map[string]float64, len(cfg.PercentileRanks)),
	}
	for _, rank := range cfg.PercentileRanks {
		stats.Percentiles[fmt.Sprintf("p%d", rank)] = Percentile(sorted, rank)
	}

	stats.Depth = depthCurve(allListings, cfg.DepthMaxPoints)
	stats.HistogramCoarse = linearHistogram(sorted, cfg.CoarseBins, cfg.NiceSteps)
	stats.HistogramFine = linearHistogram(sorted, cfg.FineBins, cfg.NiceSteps)
	stats.FloorMultiples = floorMultipleBuckets(sorted, cfg.FloorMultiples)

	return stats
}

// Percentile picks the value at index floor(rank/100 * (n-1)) of the
// ascending-sorted input. No interpolation: this matches the site's charts.
func Percentile(sorted []float64, rank int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Floor(float64(rank) / 100 * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// depthCurve builds the cumulative count/value curve over all listings sorted
// ascending by price, downsampled by fixed stride to at most maxPoints while
// always keeping the final (highest-price) point.
func depthCurve(listings []Listing, maxPoints int) []DepthPoint {
	if len(listings) == 0 {
		return nil
	}

	prices := make([]float64, len(listings))
	for i, l := range listings {
		prices[i] = l.PriceXCH
	}
	sort.Float64s(prices)

	full := make([]DepthPoint, len(prices))
	cumValue := 0.0
	for i, p := range prices {
		cumValue += p
		full[i] = DepthPoint{PriceXCH: p, Count: i + 1, ValueXCH: cumValue}
	}

	if maxPoints <= 0 || len(full) <= maxPoints {
		return full
	}
	if maxPoints == 1 {
		return []DepthPoint{full[len(full)-1]}
	}

	// Stride over n-1 interior points so the always-kept final point still
	// fits under the cap.
	stride := (len(full) - 2 + maxPoints - 1) / (maxPoints - 1)
	if stride < 1 {
		stride = 1
	}
	var out []DepthPoint
	for i := 0; i < len(full); i += stride {
		out = append(out, full[i])
	}
	if out[len(out)-1] != full[len(full)-1] {
		out = append(out, full[len(full)-1])
	}
	return out
}

// ComputeNiceStep rounds rawRange/binCount up to the nearest value in the
// steps sequence times a power of ten, so bin edges land on round numbers.
func ComputeNiceStep(rawRange float64, binCount int, steps []float64) float64 {
	if binCount <= 0 {
		binCount = 1
	}
	rawStep := rawRange / float64(binCount)
	if rawStep <= 0 {
		// Degenerate range (all prices equal): one nice unit step.
		return steps[len(steps)/2]
	}

	exp := math.Floor(math.Log10(rawStep))
	// Scan upward from one decade below to absorb float noise around the
	// decade boundary.
	for e := exp - 1; ; e++ {
		scale := math.Pow(10, e)
		for _, s := range steps {
			candidate := s * scale
			if candidate >= rawStep-1e-12 {
				return candidate
			}
		}
	}
}

// linearHistogram bins the sorted prices into a nice-stepped linear histogram
// anchored at floor(min/step)*step. The last bin includes its upper edge;
// empty bins are omitted.
func linearHistogram(sorted []float64, binCount int, steps []float64) []HistogramBin {
	if len(sorted) == 0 {
		return nil
	}
	min, max := sorted[0], sorted[len(sorted)-1]

	step := ComputeNiceStep(max-min, binCount, steps)
	start := math.Floor(min/step) * step
	end := math.Ceil(max/step) * step
	if end <= start {
		end = start + step
	}
	n := int(math.Round((end - start) / step))

	counts := make([]int, n)
	for _, p := range sorted {
		idx := int(math.Floor((p - start) / step))
		if idx >= n {
			idx = n - 1 // final bin's upper edge is inclusive
		}
		if idx < 0 {
			idx = 0
		}
		counts[idx]++
	}

	var bins []HistogramBin
	for i, c := range counts {
		if c == 0 {
			continue
		}
		bins = append(bins, HistogramBin{
			Low:   start + float64(i)*step,
			High:  start + float64(i+1)*step,
			Count: c,
		})
	}
	return bins
}

// floorMultipleBuckets buckets each best price by its multiple of the floor.
// Bounds are half-open ranges plus an open-ended final bucket; empty buckets
// are omitted.
func floorMultipleBuckets(sorted []float64, bounds []float64) []FloorBucket {
	if len(sorted) == 0 || len(bounds) == 0 {
		return nil
	}
	floor := sorted[0]
	if floor <= 0 {
		return nil
	}

	counts := make([]int, len(bounds)+1)
	for _, p := range sorted {
		m := p / floor
		idx := len(bounds) // overflow bucket
		for i, upper := range bounds {
			if m < upper {
				idx = i
				break
			}
		}
		counts[idx]++
	}

	var out []FloorBucket
	lower := 1.0
	for i, upper := range bounds {
		if counts[i] > 0 {
			out = append(out, FloorBucket{
				Label: fmt.Sprintf("%gx-%gx", lower, upper),
				Count: counts[i],
			})
		}
		lower = upper
	}
	if last := counts[len(bounds)]; last > 0 {
		out = append(out, FloorBucket{
			Label: fmt.Sprintf("%gx+", bounds[len(bounds)-1]),
			Count: last,
		})
	}
	return out
}
