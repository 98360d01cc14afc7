package arb

import (
	"context"
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

const minBlocksRemaining = 20

// Executor runs the §4.5 atomic two-leg strike: build Leg 1 and Leg 2
// through the Venue Router, build and sign a tip transaction, and submit
// all three as one ordered bundle.
type Executor struct {
	router    *router.Router
	blockhash *cache.BlockhashCache
	tipFloor  *cache.TipFloorCache
	bundle    *bundle.Executor
	signer    *signer.Signer
	hub       *events.Hub
	log       *zap.Logger
	slot      SlotProvider
}

// NewExecutor wires an Executor. signer may be nil (spec §4.5 step 1
// "verify a signer key is available; abort... otherwise").
func NewExecutor(
	r *router.Router,
	blockhash *cache.BlockhashCache,
	tipFloor *cache.TipFloorCache,
	bundleExec *bundle.Executor,
	sgn *signer.Signer,
	hub *events.Hub,
	log *zap.Logger,
	slot SlotProvider,
) *Executor {
	return &Executor{
		router: r, blockhash: blockhash, tipFloor: tipFloor,
		bundle: bundleExec, signer: sgn, hub: hub, log: log, slot: slot,
	}
}

// venueFromName maps a Quote's venue label back onto the router's closed
// Venue enum (spec §4.7). Any unrecognized label routes through the
// router's aggregator-only rung.
func venueFromName(name string) router.Venue {
	switch name {
	case "raydium":
		return router.Raydium
	case "orca":
		return router.Orca
	default:
		return router.Other
	}
}

// Strike runs the nine-step executor against a qualifying opportunity
// (spec §4.5 "Executor — the atomic two-leg").
func (e *Executor) Strike(ctx context.Context, opp models.Opportunity, settings models.RuntimeSettings, pair models.MonitoredPair) {
	pairLabel := pair.InputSymbol + "/" + pair.OutputSymbol

	// Step 1: signer availability.
	if e.signer == nil {
		e.log.Error("strike aborted: no signer key available", zap.String("pair", pairLabel))
		return
	}

	// Step 2: fresh blockhash with enough runway.
	currentSlot := e.slot()
	entry, err := e.blockhash.GetFresh(currentSlot, minBlocksRemaining)
	if err != nil {
		e.log.Warn("strike aborted: blockhash not fresh enough", zap.String("pair", pairLabel), zap.Error(err))
		return
	}
	blockhash := entry.Blockhash

	inputMint := solana.MustPublicKeyFromBase58(pair.InputMint)
	outputMint := solana.MustPublicKeyFromBase58(pair.OutputMint)
	feePayer := e.signer.PublicKey()

	// Step 3: Leg 1 - buy input token back on the cheap venue.
	leg1Start := time.Now()
	leg1 := e.router.BuildSwap(ctx, venueFromName(opp.WorstVenue), outputMint, inputMint,
		opp.WorstOut, feePayer, blockhash, settings.DefaultSlippageBps, currentSlot)
	leg1Latency := float64(time.Since(leg1Start).Milliseconds())
	if leg1.Method == router.MethodFailed {
		e.log.Warn("strike aborted: leg 1 build failed on all rungs", zap.String("pair", pairLabel))
		return
	}

	// Step 4: Leg 2 - sell leg 1's output on the expensive venue.
	leg2Start := time.Now()
	leg2 := e.router.BuildSwap(ctx, venueFromName(opp.BestVenue), inputMint, outputMint,
		leg1.EstimatedOutput, feePayer, blockhash, settings.DefaultSlippageBps, currentSlot)
	leg2Latency := float64(time.Since(leg2Start).Milliseconds())
	if leg2.Method == router.MethodFailed {
		e.log.Warn("strike aborted: leg 2 build failed on all rungs", zap.String("pair", pairLabel))
		return
	}

	// Step 5: the market may have moved between scan and build.
	profitRaw := int64(leg2.EstimatedOutput) - int64(opp.WorstOut)
	if profitRaw <= 0 {
		e.log.Info("strike aborted: profit evaporated between scan and build",
			zap.String("pair", pairLabel), zap.Int64("profit_raw", profitRaw))
		return
	}

	// Step 6: tip sizing.
	tipLamports := e.tipFloor.GetOptimalTip(settings.FastTipPercentile, settings.UserTipFloorLamports)

	// Steps 7-8: sign and submit the ordered bundle. Signing happens
	// inside bundle.Executor.Submit (spec §4.8).
	legs := []models.Leg{
		{Venue: opp.WorstVenue, InputMint: pair.OutputMint, OutputMint: pair.InputMint,
			AmountIn: opp.WorstOut, AmountOut: leg1.EstimatedOutput, Method: string(leg1.Method),
			TxBase64: leg1.TxBase64, BuildLatencyMs: leg1Latency},
		{Venue: opp.BestVenue, InputMint: pair.InputMint, OutputMint: pair.OutputMint,
			AmountIn: leg1.EstimatedOutput, AmountOut: leg2.EstimatedOutput, Method: string(leg2.Method),
			TxBase64: leg2.TxBase64, BuildLatencyMs: leg2Latency},
	}

	result, err := e.bundle.Submit(ctx, []string{leg1.TxBase64, leg2.TxBase64}, tipLamports, blockhash)
	if err != nil {
		e.log.Error("strike aborted: bundle submission failed", zap.String("pair", pairLabel), zap.Error(err))
		return
	}

	// Step 9: emit the terminal event.
	for i := range result.Statuses {
		if i < len(legs) {
			legs[i].Signature = result.Statuses[i].Signature
		}
	}
	reason := ""
	if !result.Success {
		reason = "relay rejected all transactions"
	}
	strikeResult := models.StrikeResult{
		PairID: pair.ID, Success: result.Success,
		Leg1Method: string(leg1.Method), Leg2Method: string(leg2.Method),
		ProfitRaw: profitRaw, Reason: reason, Legs: legs, Timestamp: time.Now(),
	}
	e.hub.Broadcast(events.NewStrikeResultMessage(&strikeResult))
	metrics.RecordStrike(result.Success)

	if result.Success && settings.NotificationPrefs.StrikeSuccess {
		e.notify(pair.ID, models.NotificationTypeStrikeSuccess, models.SeveritySuccess, pairLabel+" strike succeeded")
	} else if !result.Success && settings.NotificationPrefs.StrikeFailure {
		e.notify(pair.ID, models.NotificationTypeStrikeFailure, models.SeverityWarning, pairLabel+" strike failed")
	}
}

func (e *Executor) notify(pairID int, kind, severity, message string) {
	n := &models.Notification{Timestamp: time.Now(), Type: kind, Severity: severity, PairID: &pairID, Message: message}
	e.hub.Broadcast(events.NewNotificationMessage(n))
}
