package whale

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solexec/internal/events"
	"solexec/internal/metrics"
	"solexec/internal/models"
)

const (
	pollInterval  = 2 * time.Second
	sigFetchLimit = 20
	seenCap       = 1_000
	seenTrimTo    = 500
	detectTimeout = 10 * time.Second
	lamportsPerSOL = 1e9
)

// Detector watches large-notional swaps on already-registered Raydium
// pools and emits a notification event; it never executes (SPEC_FULL
// §12, keeping spec.md §1's "we do not specify the trading strategies'
// economic logic" intact). Same dedup-loop shape as internal/sniper's
// Detector, scoped down to spec.md §3's ~1000-entry whale-path set.
type Detector struct {
	sigSource SignatureSource
	pools     PoolSource

	minNotionalSOL float64

	hub *events.Hub
	log *zap.Logger

	seenMu sync.Mutex
	seen   map[string]struct{}
	order  []string

	stop chan struct{}
}

// NewDetector wires a Detector. minNotionalSOL is the SOL-equivalent
// balance-delta floor a transaction must cross to be reported.
func NewDetector(sigSource SignatureSource, pools PoolSource, minNotionalSOL float64, hub *events.Hub, log *zap.Logger) *Detector {
	return &Detector{
		sigSource: sigSource, pools: pools, minNotionalSOL: minNotionalSOL,
		hub: hub, log: log,
		seen: make(map[string]struct{}),
		stop: make(chan struct{}),
	}
}

// Run polls every registered pool's vault accounts once per tick until
// ctx is done or Stop is called.
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
	for _, pool := range d.pools.KnownPools() {
		d.pollVault(ctx, pool, pool.PoolCoinTokenAccount)
		d.pollVault(ctx, pool, pool.PoolPcTokenAccount)
	}
}

func (d *Detector) pollVault(ctx context.Context, pool models.PoolState, vault solana.PublicKey) {
	sigs, err := d.sigSource.RecentSignatures(ctx, vault, sigFetchLimit)
	if err != nil {
		d.log.Debug("whale signature poll failed", zap.String("vault", vault.String()), zap.Error(err))
		return
	}

	for _, sig := range sigs {
		if d.markSeen(sig) {
			continue
		}
		go d.processSignature(context.Background(), sig, pool)
	}
}

// markSeen reports whether sig was already processed, recording it if
// not. Trimmed FIFO once it exceeds seenCap (spec §3 "bounded, ~1000;
// trimmed FIFO").
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

func (d *Detector) processSignature(ctx context.Context, sig string, pool models.PoolState) {
	ctx, cancel := context.WithTimeout(ctx, detectTimeout)
	defer cancel()

	tx, err := d.sigSource.TransactionSummary(ctx, sig)
	if err != nil {
		d.log.Debug("whale fetch failed, skipping", zap.String("signature", sig), zap.Error(err))
		return
	}

	notional := maxAbsSOLDelta(tx.PreBalances, tx.PostBalances)
	if notional < d.minNotionalSOL {
		return
	}

	metrics.WhaleSwapsDetected.Inc()
	swap := &models.WhaleSwap{
		PoolAddress: pool.PoolAddress.String(),
		CoinMint:    pool.CoinMint.String(),
		PcMint:      pool.PcMint.String(),
		NotionalSOL: notional,
		Signature:   sig,
		DetectedAt:  time.Now(),
	}
	d.hub.Broadcast(events.NewWhaleSwapMessage(swap))

	n := &models.Notification{Timestamp: time.Now(), Type: models.NotificationTypeWhaleSwap, Severity: models.SeverityInfo,
		Message: "whale swap detected on a registered pool"}
	d.hub.Broadcast(events.NewNotificationMessage(n))
}

// maxAbsSOLDelta computes the largest-magnitude per-account lamport
// delta across pre/post balances, in SOL. Unlike the sniper's
// maxPositiveSOLDelta (which only cares about new liquidity flowing
// in), a whale swap can be large in either direction.
func maxAbsSOLDelta(pre, post []uint64) float64 {
	n := len(pre)
	if len(post) < n {
		n = len(post)
	}
	var max int64
	for i := 0; i < n; i++ {
		delta := int64(post[i]) - int64(pre[i])
		if delta < 0 {
			delta = -delta
		}
		if delta > max {
			max = delta
		}
	}
	return float64(max) / lamportsPerSOL
}
