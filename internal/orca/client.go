// Package orca is the client for the local Orca Whirlpool sidecar named
// by spec §4.7/§6: a loopback-bound HTTP/JSON process this component
// never starts, only calls. Grounded on the teacher's pooled
// internal/exchange.HTTPClient for transport and json-iterator/go for
// decoding, the same combination every vendor HTTP client in this module
// uses (SPEC_FULL §10/§11).
package orca

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"solexec/internal/exchange"
	"solexec/internal/xerr"
	"solexec/pkg/retry"
)

const buildSwapTimeout = 3 * time.Second

// Client talks to one Orca Whirlpool sidecar instance.
type Client struct {
	baseURL string
	http    *exchange.HTTPClient
}

// New builds a sidecar client against baseURL (e.g. http://127.0.0.1:5003).
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    exchange.NewHTTPClient(exchange.DefaultHTTPClientConfig()),
	}
}

// Close releases the underlying connection pool.
func (c *Client) Close() { c.http.Close() }

// HealthResponse is the sidecar's liveness probe payload.
type HealthResponse struct {
	Service     string `json:"service"`
	Initialized bool   `json:"initialized"`
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PoolState is the sidecar's full pool-state payload for GET
// /pool/{address}. Fields beyond what the router needs are intentionally
// left unmodeled (spec explicitly leaves vendor wire formats
// unspecified beyond the fields a caller needs).
type PoolState struct {
	Address      string  `json:"address"`
	TokenA       string  `json:"tokenA"`
	TokenB       string  `json:"tokenB"`
	Liquidity    string  `json:"liquidity"`
	SqrtPrice    string  `json:"sqrtPrice"`
	TickCurrent  int     `json:"tickCurrentIndex"`
	FeeRate      float64 `json:"feeRate"`
}

// Pool calls GET /pool/{address}.
func (c *Client) Pool(ctx context.Context, address string) (*PoolState, error) {
	var out PoolState
	if err := c.getJSON(ctx, "/pool/"+address, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BuildSwapRequest is the POST /build/swap request body.
type BuildSwapRequest struct {
	WhirlpoolAddress string `json:"whirlpoolAddress"`
	InputMint        string `json:"inputMint"`
	OutputMint       string `json:"outputMint"`
	AmountIn         uint64 `json:"amountIn"`
	SlippageBps      int    `json:"slippageBps"`
	User             string `json:"user"`
}

// BuildSwapResponse is the POST /build/swap response body.
type BuildSwapResponse struct {
	Transaction        string `json:"transaction"`
	EstimatedAmountOut uint64 `json:"estimatedAmountOut"`
}

// BuildSwap calls POST /build/swap with a 3s timeout (spec §4.7 routing
// ladder step 2). Connection errors and non-200 responses are Transient
// so the router's fall-through logic treats them uniformly.
func (c *Client) BuildSwap(ctx context.Context, req BuildSwapRequest) (*BuildSwapResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, buildSwapTimeout)
	defer cancel()

	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(req)
	if err != nil {
		return nil, xerr.New(xerr.ParseMismatch, "orca", "encoding build/swap request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/build/swap", bytes.NewReader(body))
	if err != nil {
		return nil, xerr.Transientf("orca", err, "building build/swap request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, xerr.Transientf("orca", err, "build/swap request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, xerr.Transientf("orca", nil, "build/swap returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerr.Transientf("orca", err, "reading build/swap response")
	}

	var out BuildSwapResponse
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(respBody, &out); err != nil {
		return nil, xerr.New(xerr.ParseMismatch, "orca", "decoding build/swap response", err)
	}
	return &out, nil
}

// sidecarRetryConfig retries a single GET against the local sidecar (spec
// §7 Transient policy), not the body read or decode that follows.
func sidecarRetryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.RetryIf = retry.RetryIfNotContext
	return cfg
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s%s", c.baseURL, path), nil)
	if err != nil {
		return xerr.Transientf("orca", err, "building request for %s", path)
	}

	resp, err := retry.DoWithResult(ctx, func() (*http.Response, error) {
		return c.http.Do(req)
	}, sidecarRetryConfig())
	if err != nil {
		return xerr.Transientf("orca", err, "%s request failed", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return xerr.Transientf("orca", nil, "%s returned status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return xerr.Transientf("orca", err, "reading %s response", path)
	}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(body, out); err != nil {
		return xerr.New(xerr.ParseMismatch, "orca", "decoding "+path+" response", err)
	}
	return nil
}
