// Package aggregator is the client for the remote swap aggregator named
// by spec §4.7 step 3 / §6 "Aggregator API (last-resort)": the lowest
// rung of the routing ladder, called only after Raydium-direct and the
// Orca sidecar have both fallen through. Grounded the same way as
// internal/orca: the teacher's pooled internal/exchange.HTTPClient for
// transport, json-iterator/go for decoding.
package aggregator

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"

	"solexec/internal/exchange"
	"solexec/internal/xerr"
)

const (
	quoteTimeout = 10 * time.Second
	swapTimeout  = 10 * time.Second
)

// Client talks to one remote aggregator instance.
type Client struct {
	baseURL string
	apiKey  string
	http    *exchange.HTTPClient
}

// New builds an aggregator client. apiKey may be empty; when set it is
// sent as a header on every request (spec §6 "API key via header when
// present").
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    exchange.NewHTTPClient(exchange.DefaultHTTPClientConfig()),
	}
}

// Close releases the underlying connection pool.
func (c *Client) Close() { c.http.Close() }

// QuoteRequest is the GET /quote query (spec §4.7 step 3:
// "onlyDirectRoutes=true, dexes=venue").
type QuoteRequest struct {
	InputMint        string
	OutputMint       string
	Amount           uint64
	Dexes            string
	OnlyDirectRoutes bool
	SlippageBps      int
}

// QuoteResponse is an opaque quote: the caller round-trips Raw to /swap
// unmodified (spec §6 "returns an opaque quote").
type QuoteResponse struct {
	OutAmount string              `json:"outAmount"`
	Raw       jsoniter.RawMessage `json:"-"`
}

// Quote calls GET /quote with a 5-10s timeout.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, quoteTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", strconv.FormatUint(req.Amount, 10))
	if req.Dexes != "" {
		q.Set("dexes", req.Dexes)
	}
	q.Set("onlyDirectRoutes", strconv.FormatBool(req.OnlyDirectRoutes))
	q.Set("slippageBps", strconv.Itoa(req.SlippageBps))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, xerr.Transientf("aggregator", err, "building quote request")
	}
	c.setAuth(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, xerr.Transientf("aggregator", err, "quote request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, xerr.Transientf("aggregator", nil, "quote returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerr.Transientf("aggregator", err, "reading quote response")
	}

	var out QuoteResponse
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(body, &out); err != nil {
		return nil, xerr.New(xerr.ParseMismatch, "aggregator", "decoding quote response", err)
	}
	out.Raw = body
	return &out, nil
}

// SwapRequest is the POST /swap body (spec §6).
type SwapRequest struct {
	QuoteResponse             jsoniter.RawMessage `json:"quoteResponse"`
	UserPublicKey             string              `json:"userPublicKey"`
	WrapAndUnwrapSol          bool                `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool                `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports uint64              `json:"prioritizationFeeLamports"`
}

// SwapResponse is the POST /swap response.
type SwapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}

// Swap calls POST /swap with the quote obtained from Quote, unmodified.
func (c *Client) Swap(ctx context.Context, req SwapRequest) (*SwapResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, swapTimeout)
	defer cancel()

	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(req)
	if err != nil {
		return nil, xerr.New(xerr.ParseMismatch, "aggregator", "encoding swap request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/swap", bytes.NewReader(body))
	if err != nil {
		return nil, xerr.Transientf("aggregator", err, "building swap request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setAuth(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, xerr.Transientf("aggregator", err, "swap request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, xerr.Transientf("aggregator", nil, "swap returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerr.Transientf("aggregator", err, "reading swap response")
	}

	var out SwapResponse
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(respBody, &out); err != nil {
		return nil, xerr.New(xerr.ParseMismatch, "aggregator", "decoding swap response", err)
	}
	return &out, nil
}

func (c *Client) setAuth(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
