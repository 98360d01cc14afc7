package sniper

import (
	"context"
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

const monitorInterval = 2 * time.Second

// PositionStore persists HFT position lifecycle changes (spec §4.6
// "register a HFT Position" / "removes the position").
type PositionStore interface {
	SavePosition(ctx context.Context, pos *models.HFTPosition) error
	UpdatePosition(ctx context.Context, pos *models.HFTPosition) error
	DeletePosition(ctx context.Context, mint string) error
}

// Monitor runs the §4.6 fast monitor loop: a 2s tick that advances every
// open HFT position toward its deadline, take-profit, or stop-loss exit,
// and the auto-sell routine that closes a position.
type Monitor struct {
	mu        sync.Mutex
	positions map[string]*models.HFTPosition

	store      PositionStore
	priceCache *cache.PriceCache
	bonding    BondingCurveSource
	extPrice   ExternalPriceFetcher

	router    *router.Router
	bundle    *bundle.Executor
	blockhash *cache.BlockhashCache
	tipFloor  *cache.TipFloorCache
	signer    *signer.Signer

	hub      *events.Hub
	log      *zap.Logger
	settings SettingsProvider
	slot     SlotProvider

	stop chan struct{}
}

// NewMonitor wires a Monitor.
func NewMonitor(
	store PositionStore,
	priceCache *cache.PriceCache,
	bonding BondingCurveSource,
	extPrice ExternalPriceFetcher,
	r *router.Router,
	bundleExec *bundle.Executor,
	blockhash *cache.BlockhashCache,
	tipFloor *cache.TipFloorCache,
	sgn *signer.Signer,
	hub *events.Hub,
	log *zap.Logger,
	settings SettingsProvider,
	slot SlotProvider,
) *Monitor {
	return &Monitor{
		positions: make(map[string]*models.HFTPosition),
		store:     store, priceCache: priceCache, bonding: bonding, extPrice: extPrice,
		router: r, bundle: bundleExec, blockhash: blockhash, tipFloor: tipFloor, signer: sgn,
		hub: hub, log: log, settings: settings, slot: slot,
		stop: make(chan struct{}),
	}
}

// OpenCount returns the number of positions currently tracked (spec
// §4.6 "Enforce a maximum concurrent-position count").
func (m *Monitor) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.positions)
}

// Register adds a freshly-confirmed position to the monitor (spec §4.6
// "register a HFT Position").
func (m *Monitor) Register(ctx context.Context, pos *models.HFTPosition) {
	m.mu.Lock()
	m.positions[pos.Mint] = pos
	m.mu.Unlock()
	metrics.HFTPositions.Set(float64(m.OpenCount()))

	if m.store != nil {
		if err := m.store.SavePosition(ctx, pos); err != nil {
			m.log.Warn("sniper failed to persist HFT position", zap.String("mint", pos.Mint), zap.Error(err))
		}
	}
}

// Run ticks the monitor loop until ctx is done or Stop is called.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// Stop terminates Run.
func (m *Monitor) Stop() { close(m.stop) }

func (m *Monitor) snapshot() []*models.HFTPosition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.HFTPosition, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, p)
	}
	return out
}

func (m *Monitor) tick(ctx context.Context) {
	now := time.Now()
	for _, pos := range m.snapshot() {
		if pos.Status == models.HFTStatusSelling {
			continue
		}

		if pos.IsExpired(now) {
			m.scheduleAutoSell(pos, "timeout")
			continue
		}

		price, ok := m.lookupPrice(ctx, pos.Mint)
		if !ok {
			continue // spec §4.6 "Return 0 when all fail... wait for the next tick"
		}

		pnlPct := 0.0
		if pos.EntryPriceSOL > 0 {
			pnlPct = (price - pos.EntryPriceSOL) / pos.EntryPriceSOL * 100
		}

		m.mu.Lock()
		if pnlPct > pos.PeakPnlPct {
			pos.PeakPnlPct = pnlPct
		}
		pos.CurrentPnlPct = pnlPct
		m.mu.Unlock()

		m.hub.Broadcast(events.NewHFTPositionUpdateMessage(&events.HFTPositionUpdate{
			Mint: pos.Mint, Status: pos.Status, CurrentPnlPct: pos.CurrentPnlPct, PeakPnlPct: pos.PeakPnlPct,
			SecondsRemaining: int(pos.Deadline.Sub(now).Seconds()),
		}))

		settings := m.settings()
		switch {
		case pnlPct >= settings.TakeProfitPct:
			m.scheduleAutoSell(pos, "take_profit")
		case pnlPct <= -settings.StopLossPct:
			m.scheduleAutoSell(pos, "stop_loss")
		}
	}
}

// lookupPrice runs the three-tier priority chain of spec §4.6 "Price
// lookup priority": (a) in-memory cache, (b) Pump.fun bonding curve
// virtual reserves, (c) short-TTL external price endpoint.
func (m *Monitor) lookupPrice(ctx context.Context, mint string) (float64, bool) {
	if price, ok := m.priceCache.Get(mint); ok {
		return price, true
	}

	if m.bonding != nil {
		pk := solana.MustPublicKeyFromBase58(mint)
		virtualSOL, virtualToken, complete, err := m.bonding.BondingCurveState(ctx, pk)
		if err == nil && !complete && virtualToken > 0 {
			return float64(virtualSOL) / float64(virtualToken), true
		}
	}

	if m.extPrice != nil {
		if price, err := m.extPrice.FetchPriceUSD(ctx, mint); err == nil && price > 0 {
			return price, true
		}
	}

	return 0, false
}

// scheduleAutoSell marks pos selling under the lock (spec §4.6 "mark
// position state selling (inside the lock) to prevent double-sell")
// then dispatches the close.
func (m *Monitor) scheduleAutoSell(pos *models.HFTPosition, reason string) {
	m.mu.Lock()
	if pos.Status == models.HFTStatusSelling {
		m.mu.Unlock()
		return
	}
	pos.Status = models.HFTStatusSelling
	m.mu.Unlock()

	go m.autoSell(context.Background(), pos, reason)
}

// autoSell fetches the held balance, computes an aggressive tip, and
// submits a swap back to wrapped SOL (spec §4.6 "Auto-sell fetches the
// current holding balance... submits a swap back to wrapped-SOL").
// Balance is taken as the position's recorded TokensReceived: this
// module tracks exactly one buy per mint with no partial-sell path, so
// the purchase amount is also the exact holding.
func (m *Monitor) autoSell(ctx context.Context, pos *models.HFTPosition, reason string) {
	ctx, cancel := context.WithTimeout(ctx, detectTimeout)
	defer cancel()

	settings := m.settings()
	outcome := m.sellPosition(ctx, pos, settings)

	metrics.AutoSellReason.WithLabelValues(reason).Inc()

	now := time.Now()
	m.mu.Lock()
	delete(m.positions, pos.Mint)
	pos.SoldAt = &now
	pos.SellReason = reason
	if outcome {
		pos.Status = models.HFTStatusSold
	} else {
		pos.Status = models.HFTStatusError
	}
	m.mu.Unlock()
	metrics.HFTPositions.Set(float64(m.OpenCount()))

	if m.store != nil {
		if err := m.store.UpdatePosition(ctx, pos); err != nil {
			m.log.Warn("sniper failed to persist sold position", zap.String("mint", pos.Mint), zap.Error(err))
		}
		if err := m.store.DeletePosition(ctx, pos.Mint); err != nil {
			m.log.Warn("sniper failed to remove open position", zap.String("mint", pos.Mint), zap.Error(err))
		}
	}

	m.hub.Broadcast(events.NewHFTPositionUpdateMessage(&events.HFTPositionUpdate{
		Mint: pos.Mint, Status: pos.Status, Reason: reason,
		CurrentPnlPct: pos.CurrentPnlPct, PeakPnlPct: pos.PeakPnlPct,
	}))

	if settings.NotificationPrefs.AutoSell {
		severity := models.SeveritySuccess
		if !outcome {
			severity = models.SeverityError
		}
		n := &models.Notification{Timestamp: now, Type: models.NotificationTypeAutoSell, Severity: severity,
			Message: pos.Symbol + " auto-sold (" + reason + ")"}
		m.hub.Broadcast(events.NewNotificationMessage(n))
	}
}

func (m *Monitor) sellPosition(ctx context.Context, pos *models.HFTPosition, settings models.RuntimeSettings) bool {
	if m.signer == nil {
		m.log.Error("auto-sell aborted: no signer key available", zap.String("mint", pos.Mint))
		return false
	}

	currentSlot := m.slot()
	entry, err := m.blockhash.GetFresh(currentSlot, minBlocksRemaining)
	if err != nil {
		m.log.Warn("auto-sell aborted: blockhash not fresh enough", zap.String("mint", pos.Mint), zap.Error(err))
		return false
	}

	inputMint := solana.MustPublicKeyFromBase58(pos.Mint)
	leg := m.router.BuildSwap(ctx, router.Other, inputMint, wrappedSOLMint, pos.TokensReceived,
		m.signer.PublicKey(), entry.Blockhash, settings.AutoSellSlippageBps, currentSlot)
	if leg.Method == router.MethodFailed {
		return false
	}

	tipLamports := m.tipFloor.GetOptimalTip(settings.FastTipPercentile, settings.UserTipFloorLamports)
	result, err := m.bundle.Submit(ctx, []string{leg.TxBase64}, tipLamports, entry.Blockhash)
	if err != nil {
		m.log.Error("auto-sell bundle submission failed", zap.String("mint", pos.Mint), zap.Error(err))
		return false
	}
	return result.Success
}
