package raydium

import (
	"context"
	"fmt"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"solexec/internal/exchange"
	"solexec/internal/xerr"
)

// VendorPoolHit is the top liquidity hit returned by the pools API for a
// mint pair (spec §4.3 discovery step (a)). Wire format is
// implementation-defined by the vendor; this is the subset discovery
// needs.
type VendorPoolHit struct {
	PoolAddress   string  `json:"id"`
	MarketAddress string  `json:"marketId"`
	LiquidityUSD  float64 `json:"liquidity"`
	PoolType      string  `json:"type"`
}

type vendorPoolsResponse struct {
	Data []VendorPoolHit `json:"data"`
}

// PoolsAPIClient looks up the best V4 pool for a mint pair. Implemented by
// HTTPPoolsAPIClient against a real vendor; a fake implementation is
// substituted in registry tests.
type PoolsAPIClient interface {
	TopPool(ctx context.Context, mintA, mintB string) (*VendorPoolHit, error)
}

// HTTPPoolsAPIClient queries the vendor's pools-by-mint-pair endpoint,
// filtered to V4/standard pool type, descending liquidity, taking the top
// hit. Reuses the teacher's pooled, timeout-tuned HTTP client
// (internal/exchange.HTTPClient) rather than a bare http.Client.
type HTTPPoolsAPIClient struct {
	baseURL string
	http    *exchange.HTTPClient
}

// NewHTTPPoolsAPIClient builds a client against baseURL (e.g. a Raydium
// pools API mirror).
func NewHTTPPoolsAPIClient(baseURL string) *HTTPPoolsAPIClient {
	return &HTTPPoolsAPIClient{
		baseURL: baseURL,
		http:    exchange.NewHTTPClient(exchange.DefaultHTTPClientConfig()),
	}
}

func (c *HTTPPoolsAPIClient) TopPool(ctx context.Context, mintA, mintB string) (*VendorPoolHit, error) {
	url := fmt.Sprintf("%s/pools/pair?mintA=%s&mintB=%s&poolType=standard&sort=liquidity&order=desc", c.baseURL, mintA, mintB)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, xerr.Transientf("raydium_vendor", err, "building pools API request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, xerr.Transientf("raydium_vendor", err, "pools API request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, xerr.Transientf("raydium_vendor", nil, "pools API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerr.Transientf("raydium_vendor", err, "reading pools API response")
	}

	var parsed vendorPoolsResponse
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(body, &parsed); err != nil {
		return nil, xerr.New(xerr.ParseMismatch, "raydium_vendor", "decoding pools API response", err)
	}
	if len(parsed.Data) == 0 {
		return nil, xerr.New(xerr.Stale, "raydium_vendor", "no pools returned for pair", nil)
	}
	return &parsed.Data[0], nil
}

// Close releases the underlying connection pool.
func (c *HTTPPoolsAPIClient) Close() {
	c.http.Close()
}
