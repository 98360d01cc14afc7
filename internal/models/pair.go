package models

// pair.go - the Arbitrage Monitored Pair record (spec §3), the stable
// externally-persisted config row loaded at startup. Shape grounded on the
// teacher's PairConfig (id + symbol + static knobs + local stats columns),
// generalized from a CEX symbol to a mint pair scanned across on-chain
// venues; CreatedAt/UpdatedAt/TradesCount/TotalPnl are kept verbatim since
// the persistence-boundary bookkeeping is unchanged.

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Pair status values, kept from the teacher's PairStatus* constants.
const (
	PairStatusPaused = "paused"
	PairStatusActive = "active"
)

// MonitoredPair is one row of the arb scanner's watch list.
type MonitoredPair struct {
	ID           int       `json:"id" db:"id"`
	InputMint    string    `json:"input_mint" db:"input_mint"`
	OutputMint   string    `json:"output_mint" db:"output_mint"`
	InputSymbol  string    `json:"input_symbol" db:"input_symbol"`
	OutputSymbol string    `json:"output_symbol" db:"output_symbol"`
	// Amount is the input_amount used for every scan quote request, in the
	// input mint's raw (smallest) units.
	Amount      uint64    `json:"amount" db:"amount"`
	Status      string    `json:"status" db:"status"`
	TradesCount int       `json:"trades_count" db:"trades_count"`
	TotalPnl    float64   `json:"total_pnl" db:"total_pnl"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Key returns the unordered pair key used by PoolState discovery/indexing
// (spec §3 invariant (c): "pair index maps (mint_a, mint_b) and its
// reverse to the same pool").
func (p MonitoredPair) Key() PairKey {
	return NewPairKeyFromStrings(p.InputMint, p.OutputMint)
}

// PairKey is a comparable, order-independent key over two mints, usable as
// a map key (mirrors the teacher's PositionKey{Exchange, Symbol} pattern
// in internal/bot/engine.go for O(1) lookups).
type PairKey struct {
	A, B string
}

// NewPairKey builds a PairKey with a stable lexical ordering so (a, b) and
// (b, a) hash identically.
func NewPairKey(mintA, mintB solana.PublicKey) PairKey {
	return NewPairKeyFromStrings(mintA.String(), mintB.String())
}

// NewPairKeyFromStrings is NewPairKey without requiring a parsed pubkey,
// used when loading rows straight out of the store.
func NewPairKeyFromStrings(mintA, mintB string) PairKey {
	if mintA > mintB {
		mintA, mintB = mintB, mintA
	}
	return PairKey{A: mintA, B: mintB}
}
