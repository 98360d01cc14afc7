package models

// pair_runtime.go - the Arbitrage Opportunity transient value and its two
// legs (spec §3 "Arbitrage Opportunity", §4.5 "Leg 1"/"Leg 2"). Grounded on
// the teacher's PairRuntime/Leg state-machine shape, generalized from a
// long-lived CEX basis position (entered, held, exited over time) to a
// single-scan, single-bundle opportunity (spec: "Short-lived; consumed by
// executor or discarded" — no HOLDING/EXITING states survive here, only
// the two-leg build/strike pipeline).

import "time"

// Opportunity states, mirroring the teacher's StatePaused..StateError
// progression but collapsed to the arb executor's build pipeline.
const (
	OppDetected  = "DETECTED"
	OppBuilding  = "BUILDING"
	OppSubmitted = "SUBMITTED"
	OppSucceeded = "SUCCEEDED"
	OppFailed    = "FAILED"
)

// Opportunity is a transient value produced per scan cycle (spec §3).
type Opportunity struct {
	PairID     int
	BestVenue  string
	WorstVenue string

	BestOut  uint64
	WorstOut uint64

	SpreadPct     float64
	GrossProfitUSD float64
	NetProfitUSD   float64

	InputAmount uint64
	BestQuote   Quote
	WorstQuote  Quote

	State     string
	Legs      []Leg
	Timestamp time.Time
}

// ClearsThreshold reports the strike trigger of spec §4.5: auto_strike on,
// spread clears min_profit_pct, and net profit is positive. auto_strike
// and min_profit_pct are runtime settings, so this only checks the
// opportunity-local half of the condition.
func (o Opportunity) ClearsThreshold(minProfitPct float64) bool {
	return o.SpreadPct >= minProfitPct && o.NetProfitUSD > 0
}

// Quote is one venue's response to a scan-cycle quote request.
type Quote struct {
	Venue        string
	OutputAmount uint64
	Price        float64
	Method       string // raydium_direct, orca_sidecar, aggregator_fallback
}

// Leg is one swap transaction within an arbitrage bundle (spec §4.5,
// "Leg" in the glossary). Renamed from the teacher's CEX Leg{Exchange,
// Side,...} to the on-chain swap shape; Method/TxBase64 replace
// ExchangeOrderID/ExchangePositionID as the "where did this leg actually
// execute" bookkeeping.
type Leg struct {
	Venue         string  `json:"venue"`
	InputMint     string  `json:"input_mint"`
	OutputMint    string  `json:"output_mint"`
	AmountIn      uint64  `json:"amount_in"`
	AmountOut     uint64  `json:"amount_out"`
	Method        string  `json:"method"`
	TxBase64      string  `json:"tx_base64,omitempty"`
	Signature     string  `json:"signature,omitempty"`
	BuildLatencyMs float64 `json:"build_latency_ms"`
}

// StrikeResult is the aggregated outcome of an executor run (spec §4.8
// "Result"), emitted as the strike_result event (spec §6).
type StrikeResult struct {
	PairID      int
	Success     bool
	Leg1Method  string
	Leg2Method  string
	ProfitRaw   int64
	Reason      string
	Legs        []Leg
	Timestamp   time.Time
}
