package models

// whale.go - transient value produced by the whale-swap path (SPEC_FULL
// §12, grounded on spec.md §3's "signatures processed by the whale-swap
// path" dedup set). Shaped like Opportunity: short-lived, broadcast then
// discarded, never persisted.

import "time"

// WhaleSwap reports a large-notional swap observed against an
// already-registered Raydium pool.
type WhaleSwap struct {
	PoolAddress string    `json:"pool_address"`
	CoinMint    string    `json:"coin_mint"`
	PcMint      string    `json:"pc_mint"`
	NotionalSOL float64   `json:"notional_sol"`
	Signature   string    `json:"signature"`
	DetectedAt  time.Time `json:"detected_at"`
}
