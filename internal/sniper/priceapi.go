package sniper

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"solexec/internal/exchange"
	"solexec/internal/xerr"
)

const (
	priceAPITimeout = 3 * time.Second
	priceCacheTTL   = 5 * time.Second
)

// ExternalPriceClient is the last-resort price lookup of spec §4.6
// (priority "(c)"), wrapping a Jupiter-style price endpoint with its own
// short-TTL cache so the monitor loop doesn't hammer the API every 2s
// tick. Grounded on internal/aggregator's vendor-HTTP-client shape.
type ExternalPriceClient struct {
	baseURL string
	http    *exchange.HTTPClient

	mu    sync.Mutex
	cache map[string]priceCacheEntry
}

type priceCacheEntry struct {
	priceUSD  float64
	expiresAt time.Time
}

// NewExternalPriceClient builds a client against baseURL (a Jupiter-
// style "/price/v2?ids=" endpoint).
func NewExternalPriceClient(baseURL string) *ExternalPriceClient {
	return &ExternalPriceClient{
		baseURL: baseURL,
		http:    exchange.NewHTTPClient(exchange.DefaultHTTPClientConfig()),
		cache:   make(map[string]priceCacheEntry),
	}
}

// Close releases the underlying connection pool.
func (c *ExternalPriceClient) Close() { c.http.Close() }

type priceAPIResponse struct {
	Data map[string]struct {
		Price string `json:"price"`
	} `json:"data"`
}

// FetchPriceUSD returns mint's cached or freshly-fetched USD price.
func (c *ExternalPriceClient) FetchPriceUSD(ctx context.Context, mint string) (float64, error) {
	if cached, ok := c.cachedPrice(mint); ok {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, priceAPITimeout)
	defer cancel()

	q := url.Values{}
	q.Set("ids", mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, xerr.Transientf("sniper_priceapi", err, "building price request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, xerr.Transientf("sniper_priceapi", err, "price request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, xerr.Transientf("sniper_priceapi", nil, "price endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, xerr.Transientf("sniper_priceapi", err, "reading price response")
	}

	var out priceAPIResponse
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(body, &out); err != nil {
		return 0, xerr.New(xerr.ParseMismatch, "sniper_priceapi", "decoding price response", err)
	}

	entry, ok := out.Data[mint]
	if !ok {
		return 0, xerr.New(xerr.ParseMismatch, "sniper_priceapi", "mint not present in price response", nil)
	}

	price, ok := parsePriceString(entry.Price)
	if !ok || price <= 0 {
		return 0, xerr.New(xerr.ParseMismatch, "sniper_priceapi", "malformed price value", nil)
	}

	c.mu.Lock()
	c.cache[mint] = priceCacheEntry{priceUSD: price, expiresAt: time.Now().Add(priceCacheTTL)}
	c.mu.Unlock()

	return price, nil
}

func (c *ExternalPriceClient) cachedPrice(mint string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[mint]
	if !ok || time.Now().After(entry.expiresAt) {
		return 0, false
	}
	return entry.priceUSD, true
}

func parsePriceString(s string) (float64, bool) {
	var intPart, fracPart float64
	var fracDiv float64 = 1
	seenDot := false
	if s == "" {
		return 0, false
	}
	for _, ch := range s {
		switch {
		case ch == '.' && !seenDot:
			seenDot = true
		case ch >= '0' && ch <= '9':
			d := float64(ch - '0')
			if seenDot {
				fracDiv *= 10
				fracPart = fracPart*10 + d
			} else {
				intPart = intPart*10 + d
			}
		default:
			return 0, false
		}
	}
	return intPart + fracPart/fracDiv, true
}
