// Package sniper implements the Sniper Detector & Executor (spec §4.6):
// a per-second signature poll over the Raydium and Pump.fun programs,
// signature-to-candidate processing, a graduated/fast mode router with a
// circuit breaker, and a fast-mode position monitor with an auto-sell
// loop. No teacher analogue exists for on-chain launch detection; the
// concurrency shapes are grounded on internal/raydium's registry poll
// loop and internal/arb's bounded fan-out, the dedup-set bound on
// internal/events.Hub's bounded broadcast channel, the execution
// sequencing on internal/arb.Executor.
package sniper

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// TxSummary is the subset of a fetched transaction's metadata the
// detection loop's signature processing needs (spec §4.6 "Fetch the
// full transaction... log messages... post-token balances...
// pre/post balances").
type TxSummary struct {
	Logs           []string
	PreBalances    []uint64
	PostBalances   []uint64
	PostTokenMints []string
}

// SignatureSource is the RPC surface the detection loop needs: recent
// signatures for a program, and a fetched transaction's summary.
// RPCSignatureSource (rpcclient.go) is the production implementation;
// tests substitute a fake.
type SignatureSource interface {
	RecentSignatures(ctx context.Context, program solana.PublicKey, limit int) ([]string, error)
	TransactionSummary(ctx context.Context, signature string) (*TxSummary, error)
}

// AssetInfo is the subset of fetched metadata the safety validator and
// DetectedToken need (spec §4.6 "Fetch asset metadata; flag is_rug").
type AssetInfo struct {
	Symbol          string
	Name            string
	MintAuthority   string // empty means renounced/null
	FreezeAuthority string // empty means absent/null
	Socials         map[string]string
}

// AssetFetcher fetches on-chain/indexer metadata for a mint.
type AssetFetcher interface {
	FetchAsset(ctx context.Context, mint string) (*AssetInfo, error)
}

// BondingCurveSource reads a Pump.fun bonding curve's virtual reserves
// (spec §4.6 price lookup priority "(b)... compute from virtual
// reserves").
type BondingCurveSource interface {
	BondingCurveState(ctx context.Context, mint solana.PublicKey) (virtualSOLReserves, virtualTokenReserves uint64, complete bool, err error)
}

// ExternalPriceFetcher is the last-resort USD price lookup (spec §4.6
// price lookup priority "(c) a short-TTL cached lookup to an external
// price endpoint").
type ExternalPriceFetcher interface {
	FetchPriceUSD(ctx context.Context, mint string) (float64, error)
}
