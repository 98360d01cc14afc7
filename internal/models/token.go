package models

// token.go - DetectedToken, the sniper's detection-loop output (spec
// §4.6 "Persist the detected token and emit the event"). No teacher
// analogue exists (a CEX bot never detects new listings on-chain); shape
// is grounded directly on spec §4.6's field list.

import "time"

// DEX identifiers the sniper's mode router switches on (spec §4.6 "Mode
// routing").
const (
	DexRaydium = "raydium"
	DexPumpFun = "pumpfun"
)

// DetectedToken is one newly-launched mint found by the sniper's
// detection loop.
type DetectedToken struct {
	Mint                string            `json:"mint" db:"mint"`
	Symbol              string            `json:"symbol" db:"symbol"`
	Name                string            `json:"name" db:"name"`
	Dex                 string            `json:"dex" db:"dex"`
	PoolAddress         string            `json:"pool_address,omitempty" db:"pool_address"`
	InitialLiquiditySOL float64           `json:"initial_liquidity_sol" db:"initial_liquidity_sol"`
	IsRug               bool              `json:"is_rug" db:"is_rug"`
	MintAuthority       string            `json:"mint_authority,omitempty" db:"mint_authority"`
	FreezeAuthority     string            `json:"freeze_authority,omitempty" db:"freeze_authority"`
	Socials             map[string]string `json:"socials,omitempty" db:"socials"`
	DetectedAt          time.Time         `json:"detected_at" db:"detected_at"`
}

// HasSocials reports whether any social link was recovered from the
// asset's metadata (spec §4.6 safety validator "socials present if
// required").
func (t DetectedToken) HasSocials() bool { return len(t.Socials) > 0 }
