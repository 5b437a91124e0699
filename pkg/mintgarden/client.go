// Package mintgarden is the read-only MintGarden API client used by the
// aggregation jobs: cursor-paginated collection walks with retry/backoff, and
// the optional XCH spot-price lookup.
package mintgarden

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tangtown/tangdesk/pkg/launchermap"
	"github.com/tangtown/tangdesk/pkg/whttp"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL  = "https://api.mintgarden.io"
	DefaultPageSize = 100

	// DefaultInterPageDelay throttles page fetches as simple backpressure
	// against the upstream rate limit.
	DefaultInterPageDelay = 150 * time.Millisecond

	defaultMaxAttempts  = 5
	defaultRetryWaitMin = 250 * time.Millisecond
	defaultRetryWaitMax = 5000 * time.Millisecond
)

// Config controls the client. Zero values get the defaults above.
type Config struct {
	BaseURL        string
	PriceURL       string // spot-price endpoint; empty disables USD conversion
	PageSize       int
	InterPageDelay time.Duration

	MaxAttempts  int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Client talks to the MintGarden API. Safe for sequential use; the
// aggregation jobs are single-threaded by design.
type Client struct {
	cfg   Config
	retry *retryablehttp.Client
	sleep func(time.Duration)
}

// NewClient builds a Client with retry-with-backoff semantics: up to
// MaxAttempts tries per request, doubling backoff capped at RetryWaitMax,
// retried only on transient statuses (429/503/504) and network failure.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.InterPageDelay <= 0 {
		cfg.InterPageDelay = DefaultInterPageDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = defaultRetryWaitMin
	}
	if cfg.RetryWaitMax <= 0 {
		cfg.RetryWaitMax = defaultRetryWaitMax
	}

	retryClient := retryablehttp.NewClient()
	retryClient.Logger = log.New(io.Discard, "", 0)
	retryClient.RetryMax = cfg.MaxAttempts - 1
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true, nil
		}
		return false, nil
	}

	return &Client{cfg: cfg, retry: retryClient, sleep: time.Sleep}
}

// getJSON fetches one URL through the retrying client and returns the body.
// A non-200 final status is an error; HTML error pages surface their title.
func (c *Client) getJSON(rawURL string) (string, error) {
	res, err := whttp.SendHTTPRequest(&whttp.WHTTPReq{Method: "GET", URL: rawURL}, c.retry)
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusOK {
		if res.HTTPTitle != "" {
			return "", fmt.Errorf("GET %s: status %d (%s)", rawURL, res.StatusCode, res.HTTPTitle)
		}
		return "", fmt.Errorf("GET %s: status %d", rawURL, res.StatusCode)
	}
	return res.BodyString, nil
}

// CollectionOffers walks every offer page of a collection, invoking visit for
// each raw offer record. Any page failure aborts the walk.
func (c *Client) CollectionOffers(ctx context.Context, collectionID string, visit func(item gjson.Result)) error {
	build := func(cursor string) string {
		u := fmt.Sprintf("%s/collection/%s/offers?size=%d", c.cfg.BaseURL, url.PathEscape(collectionID), c.cfg.PageSize)
		if cursor != "" {
			u += "&cursor=" + url.QueryEscape(cursor)
		}
		return u
	}
	return c.fetchAllPages(ctx, build, func(items []gjson.Result) {
		for _, item := range items {
			visit(item)
		}
	})
}

// CollectionNFTs lists every member of a collection. Satisfies
// launchermap.NFTSource.
func (c *Client) CollectionNFTs(ctx context.Context, collectionID string) ([]launchermap.NFTRef, error) {
	build := func(cursor string) string {
		u := fmt.Sprintf("%s/collection/%s/nfts?size=%d", c.cfg.BaseURL, url.PathEscape(collectionID), c.cfg.PageSize)
		if cursor != "" {
			u += "&cursor=" + url.QueryEscape(cursor)
		}
		return u
	}

	var refs []launchermap.NFTRef
	err := c.fetchAllPages(ctx, build, func(items []gjson.Result) {
		for _, item := range items {
			refs = append(refs, launchermap.NFTRef{
				LauncherID: item.Get("launcher_id").String(),
				EncodedID:  item.Get("encoded_id").String(),
				Name:       item.Get("name").String(),
				Edition:    firstNonEmpty(item, "edition_number", "data.edition_number"),
			})
		}
	})
	if err != nil {
		return nil, err
	}
	return refs, nil
}

// NFTEdition fetches one NFT's edition number. Satisfies
// launchermap.NFTSource.
func (c *Client) NFTEdition(ctx context.Context, launcherID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body, err := c.getJSON(fmt.Sprintf("%s/nft/0x%s", c.cfg.BaseURL, url.PathEscape(launcherID)))
	if err != nil {
		return "", err
	}
	return firstNonEmpty(gjson.Parse(body), "edition_number", "data.edition_number", "metadata_json.series_number"), nil
}

func firstNonEmpty(v gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := v.Get(p).String(); s != "" {
			return s
		}
	}
	return ""
}

var _ launchermap.NFTSource = (*Client)(nil)
