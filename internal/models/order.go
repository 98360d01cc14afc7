package models

// order.go - HFTPosition and the sniper circuit-breaker counter (spec §3
// "HFT Position", "Sniper Circuit Breaker State"). Adapted from the
// teacher's OrderRecord (a single CEX fill record); a fast-mode snipe has
// no per-part order bookkeeping, but it does have the same
// created/filled/status lifecycle shape, which this type keeps.

import "time"

// HFT position status values (spec §3 lifecycle: "monitoring, selling,
// sold, error").
const (
	HFTStatusMonitoring = "monitoring"
	HFTStatusSelling    = "selling"
	HFTStatusSold       = "sold"
	HFTStatusError      = "error"
)

// HFTPosition is a fast-mode snipe's open position, mutated by the fast
// monitor loop (spec §4.6 "Fast monitor loop") and terminated by auto-sell
// or explicit user action.
type HFTPosition struct {
	Mint           string     `json:"mint" db:"mint"`
	Symbol         string     `json:"symbol" db:"symbol"`
	SolSpent       float64    `json:"sol_spent" db:"sol_spent"`
	TokensReceived uint64     `json:"tokens_received" db:"tokens_received"`
	EntryPriceSOL  float64    `json:"entry_price_sol" db:"entry_price_sol"`
	EntryTime      time.Time  `json:"entry_time" db:"entry_time"`
	Deadline       time.Time  `json:"deadline" db:"deadline"`
	PeakPnlPct     float64    `json:"peak_pnl_pct" db:"peak_pnl_pct"`
	CurrentPnlPct  float64    `json:"current_pnl_pct" db:"current_pnl_pct"`
	Signature      string     `json:"signature" db:"signature"`
	Status         string     `json:"status" db:"status"`
	SoldAt         *time.Time `json:"sold_at,omitempty" db:"sold_at"`
	SellReason     string     `json:"sell_reason,omitempty" db:"sell_reason"`
}

// IsExpired reports whether now has reached the position's deadline (spec
// §4.6 fast monitor loop: "if now >= deadline -> schedule auto-sell with
// reason timeout").
func (p HFTPosition) IsExpired(now time.Time) bool { return !now.Before(p.Deadline) }

// CircuitBreakerState is the sniper's fire counter (spec §3 "Sniper
// Circuit Breaker State"): armed until Count reaches Limit, at which
// point auto_snipe disarms (spec §4.6). DisarmNotified tracks whether the
// user-facing disarm notification has already fired since the breaker
// last disarmed, so a run of blocked attempts against a disarmed breaker
// notifies exactly once (spec §8 "Circuit-breaker monotonicity" law).
type CircuitBreakerState struct {
	Count          int
	Limit          int
	Armed          bool
	DisarmNotified bool
}

// RecordStrike increments Count and disarms once Limit is reached,
// returning whether this call tripped the breaker. On a breaker that is
// already disarmed it returns true without counting. The strike that trips
// it still submits — it was admitted by a prior Armed check — so this
// only flips the breaker off; the disarm notification belongs to the
// (n+1)-th attempt, the first one the breaker actually blocks (spec §8).
func (c *CircuitBreakerState) RecordStrike() (tripped bool) {
	if !c.Armed {
		return true
	}
	c.Count++
	if c.Count >= c.Limit {
		c.Armed = false
		return true
	}
	return false
}

// Rearm resets the counter and re-enables auto_snipe.
func (c *CircuitBreakerState) Rearm(limit int) {
	c.Count = 0
	c.Limit = limit
	c.Armed = true
	c.DisarmNotified = false
}
