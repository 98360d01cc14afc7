// Package router implements the venue-aware swap builder named by spec
// §4.7: a single entry point that tries Raydium direct, then the Orca
// sidecar, then the aggregator, recording which one wins. Grounded on
// §9 Design Notes' explicit guidance ("model it as a tagged enum of
// Raydium | Orca | Other with a single build_swap entry point whose
// body pattern-matches and delegates; avoid dynamic dispatch through a
// base venue abstraction") - implemented here as a closed Venue enum
// with ordered branches rather than an interface hierarchy.
package router

import (
	"context"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solexec/internal/aggregator"
	"solexec/internal/cache"
	"solexec/internal/metrics"
	"solexec/internal/orca"
	"solexec/internal/raydium"
)

// Venue is the closed set of DEX venues the router chooses among.
type Venue int

const (
	Raydium Venue = iota
	Orca
	Other
)

func (v Venue) String() string {
	switch v {
	case Raydium:
		return "raydium"
	case Orca:
		return "orca"
	default:
		return "other"
	}
}

// Method names the path BuildSwap actually used, matching the
// metrics.MethodChosen/BuildLatency label values (spec §4.7).
type Method string

const (
	MethodRaydiumDirect      Method = "raydium_direct"
	MethodOrcaSidecar        Method = "orca_sidecar"
	MethodAggregatorFallback Method = "aggregator_fallback"
	MethodFailed             Method = "failed"
)

// bpsDenominator is the fixed-point base slippage_bps is expressed in.
const bpsDenominator = 10_000

// Router wires the registries/clients each routing-ladder rung needs.
type Router struct {
	registry   *raydium.Registry
	orcaMap    *cache.OrcaPoolMap
	orcaClient *orca.Client
	aggregator *aggregator.Client
	log        *zap.Logger
}

// New builds a Router. Any of orcaClient/aggregatorClient may be nil if
// that rung is unconfigured; the ladder then falls through immediately.
func New(registry *raydium.Registry, orcaMap *cache.OrcaPoolMap, orcaClient *orca.Client, aggregatorClient *aggregator.Client, log *zap.Logger) *Router {
	return &Router{
		registry:   registry,
		orcaMap:    orcaMap,
		orcaClient: orcaClient,
		aggregator: aggregatorClient,
		log:        log,
	}
}

// Result is BuildSwap's return value: the spec's (tx_base64,
// estimated_output, method) triple.
type Result struct {
	TxBase64        string
	EstimatedOutput uint64
	Method          Method
}

// BuildSwap runs the four-step routing ladder (spec §4.7). It is the
// unique point where a build method is chosen; every execution path
// (arb, sniper) must go through it so metrics tagging stays uniform.
// currentSlot is the latest slot observed by the streaming fabric, used
// only to evaluate the Raydium pool's staleness guard.
func (r *Router) BuildSwap(ctx context.Context, venue Venue, inputMint, outputMint solana.PublicKey, amountIn uint64, user solana.PublicKey, blockhash solana.Hash, slippageBps int, currentSlot uint64) Result {
	start := time.Now()
	result := r.buildSwap(ctx, venue, inputMint, outputMint, amountIn, user, blockhash, slippageBps, currentSlot)

	metrics.MethodChosen.WithLabelValues(string(result.Method)).Inc()
	metrics.BuildLatency.WithLabelValues(string(result.Method)).Observe(float64(time.Since(start).Milliseconds()))
	return result
}

func (r *Router) buildSwap(ctx context.Context, venue Venue, inputMint, outputMint solana.PublicKey, amountIn uint64, user solana.PublicKey, blockhash solana.Hash, slippageBps int, currentSlot uint64) Result {
	if venue == Raydium {
		if res, ok := r.tryRaydiumDirect(inputMint, outputMint, amountIn, user, blockhash, slippageBps, currentSlot); ok {
			return res
		}
	}

	if venue == Orca && r.orcaClient != nil {
		if res, ok := r.tryOrcaSidecar(ctx, inputMint, outputMint, amountIn, user, slippageBps); ok {
			return res
		}
	}

	if r.aggregator != nil {
		if res, ok := r.tryAggregator(ctx, venue, inputMint, outputMint, amountIn, user, slippageBps); ok {
			return res
		}
	}

	return Result{Method: MethodFailed}
}

// tryRaydiumDirect is ladder step 1. Falls through (ok=false) on an
// unregistered pair, empty reserves, staleness, or a zero quote.
func (r *Router) tryRaydiumDirect(inputMint, outputMint solana.PublicKey, amountIn uint64, user solana.PublicKey, blockhash solana.Hash, slippageBps int, currentSlot uint64) (Result, bool) {
	if r.registry == nil {
		return Result{}, false
	}

	pool, ok := r.registry.Get(inputMint, outputMint)
	if !ok {
		return Result{}, false
	}
	if !raydium.IsFresh(pool, currentSlot) {
		return Result{}, false
	}

	coinToPC := inputMint.Equals(pool.CoinMint)
	estimated := raydium.ComputeAmountOut(&pool, amountIn, coinToPC)
	if estimated == 0 {
		return Result{}, false
	}

	minOut := estimated * uint64(bpsDenominator-slippageBps) / bpsDenominator

	txBase64, err := raydium.BuildSwapTransaction(&pool, amountIn, minOut, coinToPC, user, blockhash)
	if err != nil {
		r.log.Warn("raydium direct build failed, falling through", zap.Error(err))
		return Result{}, false
	}

	return Result{TxBase64: txBase64, EstimatedOutput: estimated, Method: MethodRaydiumDirect}, true
}

// tryOrcaSidecar is ladder step 2. Falls through on an unmapped pair,
// connection error, or non-200 (orca.Client already classifies both as
// xerr.Transient).
func (r *Router) tryOrcaSidecar(ctx context.Context, inputMint, outputMint solana.PublicKey, amountIn uint64, user solana.PublicKey, slippageBps int) (Result, bool) {
	entry, ok := r.orcaMap.Get(inputMint, outputMint)
	if !ok {
		return Result{}, false
	}

	resp, err := r.orcaClient.BuildSwap(ctx, orca.BuildSwapRequest{
		WhirlpoolAddress: entry.WhirlpoolAddress.String(),
		InputMint:        inputMint.String(),
		OutputMint:       outputMint.String(),
		AmountIn:         amountIn,
		SlippageBps:      slippageBps,
		User:             user.String(),
	})
	if err != nil {
		r.log.Warn("orca sidecar build failed, falling through", zap.Error(err))
		return Result{}, false
	}

	return Result{TxBase64: resp.Transaction, EstimatedOutput: resp.EstimatedAmountOut, Method: MethodOrcaSidecar}, true
}

// tryAggregator is ladder step 3, the last resort: a direct-routes-only
// quote restricted to venue, then one swap-build.
func (r *Router) tryAggregator(ctx context.Context, venue Venue, inputMint, outputMint solana.PublicKey, amountIn uint64, user solana.PublicKey, slippageBps int) (Result, bool) {
	quote, err := r.aggregator.Quote(ctx, aggregator.QuoteRequest{
		InputMint:        inputMint.String(),
		OutputMint:       outputMint.String(),
		Amount:           amountIn,
		Dexes:            venue.String(),
		OnlyDirectRoutes: true,
		SlippageBps:      slippageBps,
	})
	if err != nil {
		r.log.Warn("aggregator quote failed", zap.Error(err))
		return Result{}, false
	}

	swap, err := r.aggregator.Swap(ctx, aggregator.SwapRequest{
		QuoteResponse:           quote.Raw,
		UserPublicKey:           user.String(),
		WrapAndUnwrapSol:        true,
		DynamicComputeUnitLimit: true,
	})
	if err != nil {
		r.log.Warn("aggregator swap build failed", zap.Error(err))
		return Result{}, false
	}

	estimated, _ := strconv.ParseUint(quote.OutAmount, 10, 64)
	return Result{TxBase64: swap.SwapTransaction, EstimatedOutput: estimated, Method: MethodAggregatorFallback}, true
}
