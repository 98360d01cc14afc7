// Package jito is the client for the block-builder's tip-floor
// percentile feed (spec §4.4 "periodically poll the block-builder's
// tip-floor percentile feed"). Grounded the same way as internal/orca
// and internal/aggregator: the teacher's pooled internal/exchange.HTTPClient
// for transport, json-iterator/go for decoding (SPEC_FULL §10/§11).
package jito

import (
	"context"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"solexec/internal/exchange"
	"solexec/internal/models"
	"solexec/internal/xerr"
	"solexec/pkg/retry"
)

const fetchTimeout = 5 * time.Second

// tipFloorResponse mirrors the feed's published shape: one object per
// recent window, percentiles in SOL. Only the most recent entry is used.
type tipFloorResponse struct {
	LandedTips25ThPercentile float64 `json:"landed_tips_25th_percentile"`
	LandedTips50ThPercentile float64 `json:"landed_tips_50th_percentile"`
	LandedTips75ThPercentile float64 `json:"landed_tips_75th_percentile"`
	LandedTips95ThPercentile float64 `json:"landed_tips_95th_percentile"`
	LandedTips99ThPercentile float64 `json:"landed_tips_99th_percentile"`
}

const lamportsPerSOL = 1_000_000_000

// TipFloorClient polls one tip-floor feed endpoint.
type TipFloorClient struct {
	baseURL string
	http    *exchange.HTTPClient
}

// NewTipFloorClient builds a client against baseURL.
func NewTipFloorClient(baseURL string) *TipFloorClient {
	return &TipFloorClient{
		baseURL: baseURL,
		http:    exchange.NewHTTPClient(exchange.DefaultHTTPClientConfig()),
	}
}

// Close releases the underlying connection pool.
func (c *TipFloorClient) Close() { c.http.Close() }

// Fetch retrieves the current percentile snapshot, converting the feed's
// SOL-denominated values to lamports.
func (c *TipFloorClient) Fetch(ctx context.Context) (models.TipFloorSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return models.TipFloorSnapshot{}, xerr.Transientf("jito_tipfloor", err, "building request")
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.RetryIf = retry.RetryIfNotContext
	resp, err := retry.DoWithResult(ctx, func() (*http.Response, error) {
		return c.http.Do(req)
	}, retryCfg)
	if err != nil {
		return models.TipFloorSnapshot{}, xerr.Transientf("jito_tipfloor", err, "calling %s", c.baseURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.TipFloorSnapshot{}, xerr.Transientf("jito_tipfloor", err, "reading body")
	}
	if resp.StatusCode != http.StatusOK {
		return models.TipFloorSnapshot{}, xerr.New(xerr.Transient, "jito_tipfloor", "unexpected status "+resp.Status, nil)
	}

	var entries []tipFloorResponse
	if err := jsoniter.Unmarshal(body, &entries); err != nil {
		return models.TipFloorSnapshot{}, xerr.New(xerr.ParseMismatch, "jito_tipfloor", "decoding response", err)
	}
	if len(entries) == 0 {
		return models.TipFloorSnapshot{}, xerr.New(xerr.ParseMismatch, "jito_tipfloor", "empty percentile feed", nil)
	}

	latest := entries[len(entries)-1]
	return models.TipFloorSnapshot{
		P25:       latest.LandedTips25ThPercentile * lamportsPerSOL,
		P50:       latest.LandedTips50ThPercentile * lamportsPerSOL,
		P75:       latest.LandedTips75ThPercentile * lamportsPerSOL,
		P95:       latest.LandedTips95ThPercentile * lamportsPerSOL,
		P99:       latest.LandedTips99ThPercentile * lamportsPerSOL,
		UpdatedAt: time.Now(),
	}, nil
}
