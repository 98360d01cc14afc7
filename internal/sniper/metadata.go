package sniper

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"solexec/internal/exchange"
	"solexec/internal/xerr"
)

const assetFetchTimeout = 5 * time.Second

// DASAssetFetcher implements AssetFetcher over the Digital Asset
// Standard "getAsset" JSON-RPC method served by the same RPC endpoint
// (spec §4.6 "Fetch asset metadata"). Grounded on internal/aggregator's
// vendor-HTTP-client shape: the teacher's pooled
// internal/exchange.HTTPClient for transport, json-iterator/go for
// decoding, everywhere this module talks to an HTTP API.
type DASAssetFetcher struct {
	rpcURL string
	http   *exchange.HTTPClient
}

// NewDASAssetFetcher builds a fetcher against the given RPC URL.
func NewDASAssetFetcher(rpcURL string) *DASAssetFetcher {
	return &DASAssetFetcher{rpcURL: rpcURL, http: exchange.NewHTTPClient(exchange.DefaultHTTPClientConfig())}
}

// Close releases the underlying connection pool.
func (f *DASAssetFetcher) Close() { f.http.Close() }

type dasRequest struct {
	Jsonrpc string    `json:"jsonrpc"`
	ID      int       `json:"id"`
	Method  string    `json:"method"`
	Params  dasParams `json:"params"`
}

type dasParams struct {
	ID string `json:"id"`
}

type dasResponse struct {
	Result *dasAsset `json:"result"`
}

type dasAsset struct {
	Content struct {
		Metadata struct {
			Symbol string `json:"symbol"`
			Name   string `json:"name"`
		} `json:"metadata"`
		Links map[string]string `json:"links"`
	} `json:"content"`
	TokenInfo struct {
		MintAuthority   string `json:"mint_authority"`
		FreezeAuthority string `json:"freeze_authority"`
	} `json:"token_info"`
}

// FetchAsset calls getAsset for mint.
func (f *DASAssetFetcher) FetchAsset(ctx context.Context, mint string) (*AssetInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, assetFetchTimeout)
	defer cancel()

	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(dasRequest{
		Jsonrpc: "2.0", ID: 1, Method: "getAsset", Params: dasParams{ID: mint},
	})
	if err != nil {
		return nil, xerr.New(xerr.ParseMismatch, "sniper_das", "encoding getAsset request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, xerr.Transientf("sniper_das", err, "building getAsset request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, xerr.Transientf("sniper_das", err, "getAsset request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, xerr.Transientf("sniper_das", nil, "getAsset returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerr.Transientf("sniper_das", err, "reading getAsset response")
	}

	var out dasResponse
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(respBody, &out); err != nil {
		return nil, xerr.New(xerr.ParseMismatch, "sniper_das", "decoding getAsset response", err)
	}
	if out.Result == nil {
		return nil, xerr.New(xerr.ParseMismatch, "sniper_das", "getAsset returned no result", nil)
	}

	return &AssetInfo{
		Symbol:          out.Result.Content.Metadata.Symbol,
		Name:            out.Result.Content.Metadata.Name,
		MintAuthority:   out.Result.TokenInfo.MintAuthority,
		FreezeAuthority: out.Result.TokenInfo.FreezeAuthority,
		Socials:         out.Result.Content.Links,
	}, nil
}
