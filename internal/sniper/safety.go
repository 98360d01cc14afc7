package sniper

import "solexec/internal/models"

// Safety-check rejection reasons (spec §4.6 safety validator), also used
// as SafetyRejectionStat.Reason values (spec §7).
const (
	RejectBlocklisted     = "blocklisted"
	RejectMintAuthority   = "mint_authority_present"
	RejectFreezeAuthority = "freeze_authority_present"
	RejectLowLiquidity    = "low_liquidity"
	RejectNoSocials       = "no_socials"
	RejectScore           = "score_below_threshold"
	RejectAmountCap       = "amount_exceeds_cap"
)

// BlocklistChecker reports whether mint is on the operator-maintained
// blocklist (spec §4.6 "token blocklist" check on both the full and
// minimal safety gates).
type BlocklistChecker func(mint string) bool

// ScoreChecker is the sniper's optional pluggable scoring hook (spec
// §4.6 "optional score check"). No scoring engine exists anywhere in
// this module's ancestry, so this is left as a nil-able dependency the
// full check simply skips when unset (see DESIGN.md Open Question).
type ScoreChecker func(token *models.DetectedToken) (pass bool, err error)

// Validator implements the sniper's two safety gates (spec §4.6): a
// full check run before a graduated-mode buy, and a minimal check run
// before a fast-mode buy, where added latency directly costs edge.
type Validator struct {
	isBlocklisted BlocklistChecker
	scoreCheck    ScoreChecker
}

// NewValidator builds a Validator. scoreCheck may be nil.
func NewValidator(isBlocklisted BlocklistChecker, scoreCheck ScoreChecker) *Validator {
	return &Validator{isBlocklisted: isBlocklisted, scoreCheck: scoreCheck}
}

// FullCheck runs the graduated-mode gate: blocklist, mint authority,
// freeze authority, liquidity floor, socials, and the optional score
// check, in that order (spec §4.6).
func (v *Validator) FullCheck(token *models.DetectedToken, settings models.RuntimeSettings) (ok bool, reason string) {
	if v.isBlocklisted(token.Mint) {
		return false, RejectBlocklisted
	}
	if token.MintAuthority != "" {
		return false, RejectMintAuthority
	}
	if token.FreezeAuthority != "" {
		return false, RejectFreezeAuthority
	}
	if token.InitialLiquiditySOL < settings.MinLiquiditySOL {
		return false, RejectLowLiquidity
	}
	if settings.RequireSocials && !token.HasSocials() {
		return false, RejectNoSocials
	}
	if v.scoreCheck != nil {
		pass, err := v.scoreCheck(token)
		if err != nil || !pass {
			return false, RejectScore
		}
	}
	return true, ""
}

// MinimalCheck runs the fast-mode gate: blocklist, freeze authority, and
// a sanity cap on the buy amount (spec §4.6 "minimal check" — depth and
// socials are skipped, since fast mode trades detection latency for
// safety margin).
func (v *Validator) MinimalCheck(token *models.DetectedToken, buySOL, maxBuySOL float64) (ok bool, reason string) {
	if v.isBlocklisted(token.Mint) {
		return false, RejectBlocklisted
	}
	if token.FreezeAuthority != "" {
		return false, RejectFreezeAuthority
	}
	if buySOL > maxBuySOL {
		return false, RejectAmountCap
	}
	return true, ""
}
