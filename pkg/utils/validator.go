package utils

// validator.go - input validation for venue identifiers, mint addresses,
// and the numeric knobs exposed through the runtime settings store
// (spec §8). Every exported Validate* function returns a descriptive
// error or nil; the Is* wrappers collapse that to a bool for callers
// that only need a predicate (request routing, config defaults).

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidSymbol is returned (wrapped) when a token pair symbol fails
// validation; kept as a sentinel so callers can errors.Is against it.
var ErrInvalidSymbol = errors.New("invalid symbol")

// SupportedVenues lists the execution venues the router knows how to
// build swap instructions for (spec §4.4). Aggregator is a meta-venue:
// the router treats its quote as a black box rather than decoding a
// pool layout itself.
var SupportedVenues = []string{"raydium", "orca", "aggregator"}

// GetSupportedVenues returns a copy of SupportedVenues so callers can't
// mutate the package-level slice.
func GetSupportedVenues() []string {
	out := make([]string, len(SupportedVenues))
	copy(out, SupportedVenues)
	return out
}

var base58Pattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)

// ValidateMint checks that s looks like a base58-encoded Solana public
// key: 32-44 characters, alphabet excludes 0/O/I/l.
func ValidateMint(s string) error {
	if len(s) < 32 || len(s) > 44 {
		return fmt.Errorf("invalid mint %q: must be 32-44 base58 characters", s)
	}
	if !base58Pattern.MatchString(s) {
		return fmt.Errorf("invalid mint %q: not valid base58", s)
	}
	return nil
}

// IsValidMint is the boolean form of ValidateMint.
func IsValidMint(s string) bool { return ValidateMint(s) == nil }

// ValidateVenue checks name against SupportedVenues, case-insensitive.
func ValidateVenue(name string) error {
	if name == "" {
		return errors.New("venue must not be empty")
	}
	lower := strings.ToLower(name)
	for _, v := range SupportedVenues {
		if v == lower {
			return nil
		}
	}
	return fmt.Errorf("unsupported venue %q: must be one of %v", name, SupportedVenues)
}

// IsValidVenue is the boolean form of ValidateVenue.
func IsValidVenue(name string) bool { return ValidateVenue(name) == nil }

// NormalizeVenue lowercases and trims whitespace.
func NormalizeVenue(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9_/-]+$`)

// ValidateSymbol checks a display symbol like "SOL/USDC": 2-24
// characters, letters/digits/hyphen/underscore/slash only.
func ValidateSymbol(symbol string) error {
	if len(symbol) < 2 || len(symbol) > 24 {
		return fmt.Errorf("%w: %q must be 2-24 characters", ErrInvalidSymbol, symbol)
	}
	if !symbolPattern.MatchString(symbol) {
		return fmt.Errorf("%w: %q contains invalid characters", ErrInvalidSymbol, symbol)
	}
	return nil
}

// IsValidSymbol is the boolean form of ValidateSymbol.
func IsValidSymbol(symbol string) bool { return ValidateSymbol(symbol) == nil }

// NormalizeSymbol uppercases symbol and strips separator characters.
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(symbol)
	s = strings.NewReplacer("-", "", "_", "", "/", "").Replace(s)
	return s
}

// quoteCurrencies is checked longest-first so "USDT"/"USDC" win over the
// shorter "BTC"/"ETH" suffix when both could match.
var quoteCurrencies = []string{"USDT", "USDC", "BTC", "ETH", "SOL"}

// ExtractBaseCurrency returns the leading token of a normalized symbol,
// e.g. "BTCUSDT" -> "BTC".
func ExtractBaseCurrency(symbol string) string {
	norm := NormalizeSymbol(symbol)
	for _, q := range quoteCurrencies {
		if strings.HasSuffix(norm, q) && len(norm) > len(q) {
			return norm[:len(norm)-len(q)]
		}
	}
	return norm
}

// ExtractQuoteCurrency returns the trailing token of a normalized
// symbol, e.g. "BTCUSDT" -> "USDT".
func ExtractQuoteCurrency(symbol string) string {
	norm := NormalizeSymbol(symbol)
	for _, q := range quoteCurrencies {
		if strings.HasSuffix(norm, q) && len(norm) > len(q) {
			return q
		}
	}
	return ""
}

// ValidateSpread checks spread is in (0, 100].
func ValidateSpread(spread float64) error {
	if spread <= 0 || spread > 100 {
		return fmt.Errorf("spread %.4f must be in (0, 100]", spread)
	}
	return nil
}

// ValidateVolume checks volume is in (0, 1e9].
func ValidateVolume(volume float64) error {
	if volume <= 0 || volume > 1e9 {
		return fmt.Errorf("volume %.4f must be in (0, 1e9]", volume)
	}
	return nil
}

// ValidateNOrders checks n is in [1, 100].
func ValidateNOrders(n int) error {
	if n < 1 || n > 100 {
		return fmt.Errorf("n_orders %d must be in [1, 100]", n)
	}
	return nil
}

// ValidateStopLoss checks sl is in (0, 100].
func ValidateStopLoss(sl float64) error {
	if sl <= 0 || sl > 100 {
		return fmt.Errorf("stop_loss %.4f must be in (0, 100]", sl)
	}
	return nil
}

// ValidateLeverage checks leverage is in [1, 100].
func ValidateLeverage(leverage int) error {
	if leverage < 1 || leverage > 100 {
		return fmt.Errorf("leverage %d must be in [1, 100]", leverage)
	}
	return nil
}

// ValidatePercentage checks pct is in [0, 100]; unlike ValidateSpread,
// zero is a valid percentage (e.g. a disabled slippage-tolerance knob).
func ValidatePercentage(pct float64) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("percentage %.4f must be in [0, 100]", pct)
	}
	return nil
}

// ValidateSlippageBps checks bps is in [0, 10000] (0-100% in basis
// points), the unit the aggregator and Orca sidecar clients exchange.
func ValidateSlippageBps(bps int) error {
	if bps < 0 || bps > 10000 {
		return fmt.Errorf("slippage_bps %d must be in [0, 10000]", bps)
	}
	return nil
}

// ValidateTipPercentile checks p is one of the percentiles the Jito
// tip-floor stream publishes (spec §4.3).
func ValidateTipPercentile(p float64) error {
	switch p {
	case 25, 50, 50.1, 75, 95, 99:
		return nil
	default:
		return fmt.Errorf("tip_percentile %.2f is not a published percentile", p)
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidateEmail performs a basic shape check: one "@", a user part, and
// a domain with at least one dot.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) || strings.Count(email, "@") != 1 {
		return fmt.Errorf("invalid email %q", email)
	}
	return nil
}

// IsValidEmail is the boolean form of ValidateEmail.
func IsValidEmail(email string) bool { return ValidateEmail(email) == nil }

var apiKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateAPIKey checks a vendor (RPC provider, aggregator) API key:
// alphanumeric plus hyphen/underscore, at least 16 characters.
func ValidateAPIKey(apiKey string) error {
	if len(apiKey) < 16 {
		return errors.New("api key must be at least 16 characters")
	}
	if !apiKeyPattern.MatchString(apiKey) {
		return errors.New("api key contains invalid characters")
	}
	return nil
}

// IsValidAPIKey is the boolean form of ValidateAPIKey.
func IsValidAPIKey(apiKey string) bool { return ValidateAPIKey(apiKey) == nil }

// ValidateAPISecret checks a vendor API secret: at least 16 characters,
// any character set (secrets often contain symbols).
func ValidateAPISecret(secret string) error {
	if len(secret) < 16 {
		return errors.New("api secret must be at least 16 characters")
	}
	return nil
}

// ValidateAPIPassphrase checks an optional vendor passphrase; empty is
// allowed, but an overlong value likely indicates a misconfigured env
// var and is rejected.
func ValidateAPIPassphrase(passphrase string) error {
	if len(passphrase) > 64 {
		return errors.New("api passphrase must be at most 64 characters")
	}
	return nil
}

// RuntimeSettingsValidation mirrors the subset of models.RuntimeSettings
// (spec §8) worth cross-field validation: the hot-reloadable knobs an
// operator can push through the settings store.
type RuntimeSettingsValidation struct {
	MinSpreadPct   float64
	ExitSpreadPct  float64
	MaxSlippageBps int
	MaxPositionSOL float64
	TipPercentile  float64
}

// ValidateRuntimeSettings cross-validates a RuntimeSettingsValidation:
// each field individually, plus the invariant that the entry threshold
// must be at least as wide as the exit threshold (spec §8, avoids an
// immediately-exiting position).
func ValidateRuntimeSettings(cfg RuntimeSettingsValidation) error {
	var errs ValidationErrors
	errs.AddError("min_spread_pct", ValidateSpread(cfg.MinSpreadPct))
	errs.AddError("exit_spread_pct", ValidateSpread(cfg.ExitSpreadPct))
	errs.AddError("max_slippage_bps", ValidateSlippageBps(cfg.MaxSlippageBps))
	errs.AddError("max_position_sol", ValidateVolume(cfg.MaxPositionSOL))
	errs.AddError("tip_percentile", ValidateTipPercentile(cfg.TipPercentile))
	if cfg.MinSpreadPct > 0 && cfg.ExitSpreadPct > 0 && cfg.MinSpreadPct < cfg.ExitSpreadPct {
		errs.Add("min_spread_pct", "entry spread must be >= exit spread")
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ValidationError pairs a field name with a human-readable message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Message) }

// ValidationErrors accumulates ValidationError values from a multi-field
// validation pass (spec §8's settings-update handler returns all
// violations at once rather than failing on the first).
type ValidationErrors []ValidationError

// Add appends a field/message pair.
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// AddError appends err under field if err is non-nil; a no-op otherwise,
// so callers can chain ValidateX calls unconditionally.
func (e *ValidationErrors) AddError(field string, err error) {
	if err == nil {
		return
	}
	e.Add(field, err.Error())
}

// HasErrors reports whether any error has been accumulated.
func (e ValidationErrors) HasErrors() bool { return len(e) > 0 }

// Error joins all accumulated messages into one string.
func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.Error()
	}
	return strings.Join(parts, "; ")
}
