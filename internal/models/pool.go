package models

// pool.go - Raydium/Orca state-cache value types (spec.md §3 "Raydium Pool
// State", "Orca Pool Map"). Grounded on the teacher's internal/models/pair.go
// shape (a stable config record plus a mutable runtime record) generalized
// from a CEX trading pair to an on-chain AMM pool.

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// PoolState is one Raydium V4 pool: the account set needed to build a swap
// instruction locally, plus the reserves read off the vault accounts.
// Exclusively owned/mutated by the pool registry (internal/raydium); all
// other components get read-only snapshots (spec §9 "Ownership of cache
// entries").
type PoolState struct {
	PoolAddress solana.PublicKey

	CoinMint    solana.PublicKey
	PcMint      solana.PublicKey
	CoinDecimal uint8
	PcDecimal   uint8

	PoolCoinTokenAccount solana.PublicKey
	PoolPcTokenAccount   solana.PublicKey
	OpenOrders           solana.PublicKey
	TargetOrders         solana.PublicKey
	Market               solana.PublicKey
	SerumProgram         solana.PublicKey

	MarketBids         solana.PublicKey
	MarketAsks         solana.PublicKey
	MarketEventQueue   solana.PublicKey
	MarketBaseVault    solana.PublicKey
	MarketQuoteVault   solana.PublicKey
	MarketVaultSigner  solana.PublicKey

	// TradeFeeNumerator/Denominator is the fee compute_amount_out applies
	// (spec §4.3 "the pool's trade-fee numerator/denominator"). SwapFee is
	// parsed alongside it (spec §6 layout) but unused by the quote formula.
	TradeFeeNumerator   uint64
	TradeFeeDenominator uint64
	SwapFeeNumerator    uint64
	SwapFeeDenominator  uint64

	CoinReserve uint64 // raw token units
	PcReserve   uint64 // raw token units

	LastUpdateSlot uint64
	LastUpdateTime time.Time
}

// IsStale reports whether the reserves are too old to build a transaction
// against (spec §3/§4.3: current_slot - last_update_slot > 50).
func (p *PoolState) IsStale(currentSlot uint64) bool {
	if p.LastUpdateSlot == 0 {
		return true
	}
	if currentSlot < p.LastUpdateSlot {
		return false
	}
	return currentSlot-p.LastUpdateSlot > 50
}

// OrcaPoolEntry is the smaller, advisory Orca Whirlpool cache entry (spec
// §3 "Orca Pool Map"): keyed by unordered mint pair, populated from a
// vendor list filtered by TVL, with a handful of hardcoded bootstrap
// entries (Open Question #2 in DESIGN.md).
type OrcaPoolEntry struct {
	WhirlpoolAddress solana.PublicKey
	MintA            solana.PublicKey
	MintB            solana.PublicKey
	TVLUSD           float64
}

// TipFloorSnapshot is the Jito-style block-builder tip percentile feed
// (spec §3/§4.4), refreshed roughly every 10s.
type TipFloorSnapshot struct {
	P25       float64
	P50       float64
	P75       float64
	P95       float64
	P99       float64
	UpdatedAt time.Time
}

// Percentile returns the snapshot's lamport suggestion for p, one of
// {25, 50, 75, 95, 99}; 0 if p is not a published percentile.
func (t TipFloorSnapshot) Percentile(p float64) float64 {
	switch p {
	case 25:
		return t.P25
	case 50:
		return t.P50
	case 75:
		return t.P75
	case 95:
		return t.P95
	case 99:
		return t.P99
	default:
		return 0
	}
}

// BlockhashEntry is the cached (blockhash, last_valid_block_height) pair
// plus the slot it was observed at (spec §3 "Blockhash Cache Entry").
type BlockhashEntry struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
	ObservedSlot         uint64
	Available            bool
}

// BlocksRemaining returns LastValidBlockHeight - currentSlot, the quantity
// callers must compare against the >= 20 invariant (spec §3).
func (b BlockhashEntry) BlocksRemaining(currentSlot uint64) int64 {
	return int64(b.LastValidBlockHeight) - int64(currentSlot)
}
