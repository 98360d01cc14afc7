package sniper

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solexec/internal/bundle"
	"solexec/internal/cache"
	"solexec/internal/events"
	"solexec/internal/metrics"
	"solexec/internal/models"
	"solexec/internal/router"
	"solexec/internal/signer"
)

const (
	pollInterval  = time.Second
	sigFetchLimit = 20
	seenCap       = 10_000
	seenTrimTo    = 5_000
	detectTimeout  = 10 * time.Second
	lamportsPerSOL = 1e9

	// minBlocksRemaining mirrors internal/arb.Executor's blockhash
	// freshness guard (spec §4.5 step 2, reused verbatim by §4.6 buys).
	minBlocksRemaining = 20

	// maxFastBuySOL is the fast-mode safety cap on buy size (spec §4.6
	// minimal check "amount cap"); fast mode never scales the buy past
	// this regardless of FastBuySOL misconfiguration.
	maxFastBuySOL = 5.0
)

// SettingsProvider returns the current hot-reloadable settings snapshot
// (mirrors arb.SettingsProvider; kept package-local so sniper doesn't
// import arb for one function type).
type SettingsProvider func() models.RuntimeSettings

// SlotProvider returns the most recently observed slot (mirrors
// arb.SlotProvider; see internal/router's design note on why no single
// component owns "current slot" as a first-class value).
type SlotProvider func() uint64

// TokenStore persists a freshly detected token (spec §4.6 "Persist the
// detected token").
type TokenStore interface {
	SaveDetectedToken(ctx context.Context, token *models.DetectedToken) error
}

// Detector runs the §4.6 detection loop, mode routing, circuit breaker,
// and both execution paths. The fast path hands confirmed positions to
// a Monitor for the auto-sell loop.
type Detector struct {
	sigSource    SignatureSource
	assetFetcher AssetFetcher
	validator    *Validator
	tokenStore   TokenStore

	router    *router.Router
	bundle    *bundle.Executor
	blockhash *cache.BlockhashCache
	tipFloor  *cache.TipFloorCache
	signer    *signer.Signer
	monitor   *Monitor

	hub *events.Hub
	log *zap.Logger

	settings SettingsProvider
	slot     SlotProvider
	feePayer solana.PublicKey

	breakerMu sync.Mutex
	breaker   models.CircuitBreakerState

	seenMu sync.Mutex
	seen   map[string]struct{}
	order  []string

	stop chan struct{}
}

// NewDetector wires a Detector. breakerLimit seeds the initial circuit
// breaker limit; recordStrikeOutcome refreshes the limit from
// settings.CircuitBreakerMax on every successful strike, and only Rearm
// re-arms a tripped breaker.
func NewDetector(
	sigSource SignatureSource,
	assetFetcher AssetFetcher,
	validator *Validator,
	tokenStore TokenStore,
	r *router.Router,
	bundleExec *bundle.Executor,
	blockhash *cache.BlockhashCache,
	tipFloor *cache.TipFloorCache,
	sgn *signer.Signer,
	monitor *Monitor,
	hub *events.Hub,
	log *zap.Logger,
	settings SettingsProvider,
	slot SlotProvider,
	feePayer solana.PublicKey,
	breakerLimit int,
) *Detector {
	return &Detector{
		sigSource: sigSource, assetFetcher: assetFetcher, validator: validator, tokenStore: tokenStore,
		router: r, bundle: bundleExec, blockhash: blockhash, tipFloor: tipFloor, signer: sgn, monitor: monitor,
		hub: hub, log: log, settings: settings, slot: slot, feePayer: feePayer,
		breaker: models.CircuitBreakerState{Limit: breakerLimit, Armed: true},
		seen:    make(map[string]struct{}),
		stop:    make(chan struct{}),
	}
}

// Run polls both monitored DEX programs once per second until ctx is
// done or Stop is called (spec §4.6 "Detection loop").
func (d *Detector) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		case <-ticker.C:
			d.pollOnce(ctx)
		}
	}
}

// Stop terminates Run.
func (d *Detector) Stop() { close(d.stop) }

func (d *Detector) pollOnce(ctx context.Context) {
	settings := d.settings()

	if settings.SniperMode != models.SniperModeHFT {
		d.pollProgram(ctx, RaydiumProgramID, models.DexRaydium)
	}
	if settings.SniperMode != models.SniperModeGraduated {
		d.pollProgram(ctx, PumpFunProgramID, models.DexPumpFun)
	}
}

func (d *Detector) pollProgram(ctx context.Context, program solana.PublicKey, dex string) {
	sigs, err := d.sigSource.RecentSignatures(ctx, program, sigFetchLimit)
	if err != nil {
		d.log.Warn("sniper signature poll failed", zap.String("dex", dex), zap.Error(err))
		return
	}

	for _, sig := range sigs {
		if d.markSeen(sig) {
			continue // spec §7 "Dedup hit: silently return"
		}
		go d.processSignature(context.Background(), sig, dex)
	}
}

// markSeen reports whether sig was already processed, recording it if
// not. The seen set is FIFO-trimmed to seenTrimTo once it exceeds
// seenCap (spec §4.6 "bounded and FIFO-trimmed... when it exceeds ten
// thousand").
func (d *Detector) markSeen(sig string) (alreadySeen bool) {
	d.seenMu.Lock()
	defer d.seenMu.Unlock()

	if _, ok := d.seen[sig]; ok {
		return true
	}
	d.seen[sig] = struct{}{}
	d.order = append(d.order, sig)

	if len(d.order) > seenCap {
		drop := d.order[:len(d.order)-seenTrimTo]
		for _, old := range drop {
			delete(d.seen, old)
		}
		d.order = d.order[len(d.order)-seenTrimTo:]
	}
	return false
}

func (d *Detector) processSignature(ctx context.Context, sig, dex string) {
	ctx, cancel := context.WithTimeout(ctx, detectTimeout)
	defer cancel()

	tx, err := d.sigSource.TransactionSummary(ctx, sig)
	if err != nil {
		d.log.Debug("sniper fetch failed, skipping", zap.String("signature", sig), zap.Error(err))
		return
	}

	if !hasLaunchMarker(tx.Logs, dex) {
		return
	}

	mint := firstNonStableMint(tx.PostTokenMints)
	if mint == "" {
		return
	}

	liquiditySOL := maxPositiveSOLDelta(tx.PreBalances, tx.PostBalances)
	settings := d.settings()
	if liquiditySOL < settings.MinLiquiditySOL {
		return
	}

	asset, err := d.assetFetcher.FetchAsset(ctx, mint)
	if err != nil {
		d.log.Debug("sniper asset metadata fetch failed, skipping", zap.String("mint", mint), zap.Error(err))
		return
	}

	token := &models.DetectedToken{
		Mint: mint, Symbol: asset.Symbol, Name: asset.Name, Dex: dex,
		InitialLiquiditySOL: liquiditySOL,
		IsRug:               asset.MintAuthority != "" || asset.FreezeAuthority != "",
		MintAuthority:       asset.MintAuthority, FreezeAuthority: asset.FreezeAuthority,
		Socials: asset.Socials, DetectedAt: time.Now(),
	}

	if d.tokenStore != nil {
		if err := d.tokenStore.SaveDetectedToken(ctx, token); err != nil {
			d.log.Warn("sniper failed to persist detected token", zap.String("mint", mint), zap.Error(err))
		}
	}
	d.hub.Broadcast(events.NewNewTokenMessage(token))

	if !settings.AutoSnipe {
		return
	}
	d.route(ctx, token, settings)
}

// route implements mode routing (spec §4.6 "Mode routing"): graduated
// skips Pump.fun, hft skips everything but Pump.fun, both routes by DEX.
func (d *Detector) route(ctx context.Context, token *models.DetectedToken, settings models.RuntimeSettings) {
	switch token.Dex {
	case models.DexRaydium:
		if settings.SniperMode == models.SniperModeHFT {
			return
		}
		d.executeGraduated(ctx, token, settings)
	case models.DexPumpFun:
		if settings.SniperMode == models.SniperModeGraduated {
			return
		}
		d.executeFast(ctx, token, settings)
	}
}

// tryStrike checks and records a circuit-breaker attempt before an
// execution path submits a buy. Returns false (no strike attempted) once
// the breaker has disarmed. The disarm notification fires here, on the
// first attempt the breaker actually blocks, not on the strike that
// tripped it (spec §8 "Circuit-breaker monotonicity" law: the strike that
// reaches the limit still submits; the (n+1)-th attempt is the one that
// doesn't, and that's what the user is told about).
func (d *Detector) tryStrike() (proceed bool) {
	d.breakerMu.Lock()
	if d.breaker.Armed {
		d.breakerMu.Unlock()
		return true
	}
	firstBlocked := !d.breaker.DisarmNotified
	d.breaker.DisarmNotified = true
	d.breakerMu.Unlock()

	if firstBlocked {
		d.notify(models.NotificationTypeCircuitBreaker, models.SeverityWarning,
			"sniper circuit breaker tripped, auto-snipe disabled")
	}
	return false
}

// recordStrikeOutcome advances the circuit breaker after a strike
// attempt succeeds (spec §4.6 "Each successful strike increments a
// counter; when the counter meets the configured limit, auto_snipe is
// switched off").
func (d *Detector) recordStrikeOutcome(settings models.RuntimeSettings) {
	d.breakerMu.Lock()
	d.breaker.Limit = settings.CircuitBreakerMax
	tripped := d.breaker.RecordStrike()
	d.breakerMu.Unlock()

	if tripped {
		metrics.CircuitBreakerTrips.Inc()
	}
}

// Rearm resets the circuit breaker (exposed for an operator action;
// SPEC_FULL §11 HTTP control surface).
func (d *Detector) Rearm(limit int) {
	d.breakerMu.Lock()
	d.breaker.Rearm(limit)
	d.breakerMu.Unlock()
}

// executeGraduated runs the full safety check and a hold-oriented buy
// (spec §4.6 "Graduated execution").
func (d *Detector) executeGraduated(ctx context.Context, token *models.DetectedToken, settings models.RuntimeSettings) {
	if ok, reason := d.validator.FullCheck(token, settings); !ok {
		d.rejectSafety(token, reason)
		return
	}
	if !d.tryStrike() {
		return
	}

	currentSlot := d.slot()
	entry, err := d.blockhash.GetFresh(currentSlot, minBlocksRemaining)
	if err != nil {
		d.log.Warn("graduated buy aborted: blockhash not fresh enough", zap.String("mint", token.Mint), zap.Error(err))
		return
	}

	amountIn := uint64(settings.GraduatedBuySOL * lamportsPerSOL)
	result := d.buildAndSubmit(ctx, token, amountIn, settings.DefaultSlippageBps, settings.GraduatedTipPercentile, settings, currentSlot, entry.Blockhash)
	metrics.SniperDetections.WithLabelValues("graduated").Inc()

	if result.Success {
		d.recordStrikeOutcome(settings)
		if settings.NotificationPrefs.StrikeSuccess {
			d.notify(models.NotificationTypeStrikeSuccess, models.SeveritySuccess, token.Symbol+" graduated buy succeeded")
		}
	} else if settings.NotificationPrefs.StrikeFailure {
		d.notify(models.NotificationTypeStrikeFailure, models.SeverityWarning, token.Symbol+" graduated buy failed")
	}
}

// executeFast runs the minimal safety check and registers a monitored
// HFT position on confirmation (spec §4.6 "Fast execution").
func (d *Detector) executeFast(ctx context.Context, token *models.DetectedToken, settings models.RuntimeSettings) {
	if d.monitor.OpenCount() >= settings.MaxConcurrentHFT {
		return
	}
	if ok, reason := d.validator.MinimalCheck(token, settings.FastBuySOL, maxFastBuySOL); !ok {
		d.rejectSafety(token, reason)
		return
	}
	if !d.tryStrike() {
		return
	}

	currentSlot := d.slot()
	entry, err := d.blockhash.GetFresh(currentSlot, minBlocksRemaining)
	if err != nil {
		d.log.Warn("fast buy aborted: blockhash not fresh enough", zap.String("mint", token.Mint), zap.Error(err))
		return
	}

	amountIn := uint64(settings.FastBuySOL * lamportsPerSOL)
	result := d.buildAndSubmit(ctx, token, amountIn, settings.DefaultSlippageBps, settings.FastTipPercentile, settings, currentSlot, entry.Blockhash)
	metrics.SniperDetections.WithLabelValues("fast").Inc()

	if !result.Success {
		if settings.NotificationPrefs.StrikeFailure {
			d.notify(models.NotificationTypeStrikeFailure, models.SeverityWarning, token.Symbol+" fast buy failed")
		}
		return
	}

	d.recordStrikeOutcome(settings)

	entryPrice := 0.0
	if amountIn > 0 && result.TokensOut > 0 {
		entryPrice = float64(amountIn) / float64(result.TokensOut)
	}
	position := &models.HFTPosition{
		Mint: token.Mint, Symbol: token.Symbol, SolSpent: settings.FastBuySOL,
		TokensReceived: result.TokensOut, EntryPriceSOL: entryPrice,
		EntryTime: time.Now(), Deadline: time.Now().Add(time.Duration(settings.MaxHoldSeconds) * time.Second),
		Signature: result.Signature, Status: models.HFTStatusMonitoring,
	}
	d.monitor.Register(ctx, position)

	if settings.NotificationPrefs.StrikeSuccess {
		d.notify(models.NotificationTypeStrikeSuccess, models.SeveritySuccess, token.Symbol+" fast buy succeeded")
	}
}

// strikeOutcome is buildAndSubmit's result, trimmed to what the two
// execution paths need.
type strikeOutcome struct {
	Success   bool
	Signature string
	TokensOut uint64
}

// buildAndSubmit routes a single-leg buy through the router and bundle
// executor: buy `amountIn` lamports of wrapped SOL into token.Mint.
func (d *Detector) buildAndSubmit(ctx context.Context, token *models.DetectedToken, amountIn uint64, slippageBps int, tipPercentile float64, settings models.RuntimeSettings, currentSlot uint64, blockhash solana.Hash) strikeOutcome {
	if d.signer == nil {
		d.log.Error("sniper buy aborted: no signer key available")
		return strikeOutcome{}
	}

	inputMint := wrappedSOLMint
	outputMint := solana.MustPublicKeyFromBase58(token.Mint)
	venue := venueForDex(token.Dex)

	leg := d.router.BuildSwap(ctx, venue, inputMint, outputMint, amountIn, d.signer.PublicKey(), blockhash, slippageBps, currentSlot)
	if leg.Method == router.MethodFailed {
		return strikeOutcome{}
	}

	tipLamports := d.tipFloor.GetOptimalTip(tipPercentile, settings.UserTipFloorLamports)
	result, err := d.bundle.Submit(ctx, []string{leg.TxBase64}, tipLamports, blockhash)
	if err != nil {
		d.log.Error("sniper bundle submission failed", zap.String("mint", token.Mint), zap.Error(err))
		return strikeOutcome{}
	}

	sig := ""
	if len(result.Statuses) > 0 {
		sig = result.Statuses[0].Signature
	}
	return strikeOutcome{Success: result.Success, Signature: sig, TokensOut: leg.EstimatedOutput}
}

func (d *Detector) rejectSafety(token *models.DetectedToken, reason string) {
	if d.settings().NotificationPrefs.SafetyRejection {
		d.notify(models.NotificationTypeSafetyRejection, models.SeverityWarning, token.Symbol+" rejected: "+reason)
	}
}

func (d *Detector) notify(kind, severity, message string) {
	n := &models.Notification{Timestamp: time.Now(), Type: kind, Severity: severity, Message: message}
	d.hub.Broadcast(events.NewNotificationMessage(n))
}

// venueForDex maps a detected token's DEX label onto the router's Venue
// enum; a fast-mode Pump.fun buy has no direct rung and always falls to
// the aggregator.
func venueForDex(dex string) router.Venue {
	if dex == models.DexRaydium {
		return router.Raydium
	}
	return router.Other
}

// hasLaunchMarker implements spec §4.6's signature-acceptance rule:
// Raydium logs must contain "initialize2", Pump.fun logs must contain
// "create".
func hasLaunchMarker(logs []string, dex string) bool {
	marker := "initialize2"
	if dex == models.DexPumpFun {
		marker = "create"
	}
	for _, line := range logs {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

// firstNonStableMint returns the first mint in mints that is neither
// wrapped-SOL nor USDC (spec §4.6 "Extract the new mint").
func firstNonStableMint(mints []string) string {
	for _, m := range mints {
		if m == wrappedSOLMint.String() || m == usdcMint.String() {
			continue
		}
		return m
	}
	return ""
}

// maxPositiveSOLDelta computes the maximum positive per-account balance
// delta across pre/post lamport balances, in SOL (spec §4.6 "maximum
// positive SOL delta across pre/post balances of the accounts").
func maxPositiveSOLDelta(pre, post []uint64) float64 {
	n := len(pre)
	if len(post) < n {
		n = len(post)
	}
	var maxDelta int64
	for i := 0; i < n; i++ {
		delta := int64(post[i]) - int64(pre[i])
		if delta > maxDelta {
			maxDelta = delta
		}
	}
	return float64(maxDelta) / lamportsPerSOL
}
