package mintgarden

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// DefaultPriceURL is the public XCH spot-price endpoint.
const DefaultPriceURL = "https://api.coingecko.com/api/v3/simple/price?ids=chia&vs_currencies=usd"

// XCHPriceUSD fetches the current XCH/USD spot price. Callers treat failure as
// non-fatal: the aggregated snapshot simply omits USD figures.
func (c *Client) XCHPriceUSD(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	priceURL := c.cfg.PriceURL
	if priceURL == "" {
		priceURL = DefaultPriceURL
	}
	body, err := c.getJSON(priceURL)
	if err != nil {
		return 0, err
	}

	for _, path := range []string{"chia.usd", "usd", "xch.usd"} {
		if v := gjson.Get(body, path); v.Exists() && v.Float() > 0 {
			return v.Float(), nil
		}
	}
	return 0, fmt.Errorf("spot price response has no usable USD value")
}
