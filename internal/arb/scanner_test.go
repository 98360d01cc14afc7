package arb

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solexec/internal/models"
)

func TestScanner_GrossProfitUSD_Stablecoin(t *testing.T) {
	s := &Scanner{oracle: NewSOLPriceOracle(nil, zap.NewNop())}
	got, ok := s.grossProfitUSD(usdcMint, 2_000_000) // 2 USDC
	if !ok || got != 2.0 {
		t.Errorf("grossProfitUSD(usdc, 2_000_000) = %v, %v; want 2.0, true", got, ok)
	}
}

func TestScanner_GrossProfitUSD_SOLWithNoOraclePrice(t *testing.T) {
	s := &Scanner{oracle: NewSOLPriceOracle(nil, zap.NewNop())}
	if _, ok := s.grossProfitUSD(solMint, 1_000_000_000); ok {
		t.Error("expected SOL conversion to fail with no sampled price yet")
	}
}

func TestScanner_GrossProfitUSD_SOLWithPrice(t *testing.T) {
	s := &Scanner{oracle: NewSOLPriceOracle(nil, zap.NewNop())}
	s.oracle.price.Store(float64(150))
	got, ok := s.grossProfitUSD(solMint, 500_000_000) // 0.5 SOL
	if !ok || got != 75.0 {
		t.Errorf("grossProfitUSD(sol, 0.5 SOL) = %v, %v; want 75.0, true", got, ok)
	}
}

func TestScanner_GrossProfitUSD_UnknownMintIsNonConvertible(t *testing.T) {
	s := &Scanner{oracle: NewSOLPriceOracle(nil, zap.NewNop())}
	other := solana.MustPublicKeyFromBase58("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R")
	if _, ok := s.grossProfitUSD(other, 1_000); ok {
		t.Error("expected an unmodeled output mint to be non-convertible")
	}
}

func TestScanner_FanOut_BoundsConcurrency(t *testing.T) {
	s := &Scanner{}

	var inFlight, maxInFlight int64
	jobs := make([]func(context.Context) venueQuote, 0, 20)
	for i := 0; i < 20; i++ {
		jobs = append(jobs, func(ctx context.Context) venueQuote {
			cur := atomic.AddInt64(&inFlight, 1)
			for {
				old := atomic.LoadInt64(&maxInFlight)
				if cur <= old || atomic.CompareAndSwapInt64(&maxInFlight, old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return venueQuote{ok: true}
		})
	}

	results := s.fanOut(context.Background(), jobs)
	if len(results) != 20 {
		t.Fatalf("len(results) = %d, want 20", len(results))
	}
	if atomic.LoadInt64(&maxInFlight) > maxQuoteFanOut {
		t.Errorf("max in-flight quotes = %d, want <= %d", maxInFlight, maxQuoteFanOut)
	}
}

type fakeRaydiumSource struct {
	pool  models.PoolState
	found bool
}

func (f fakeRaydiumSource) Get(_, _ solana.PublicKey) (models.PoolState, bool) {
	return f.pool, f.found
}

func TestScanner_QuoteRaydium_FreshPool(t *testing.T) {
	coinMint := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	pcMint := usdcMint
	pool := models.PoolState{
		CoinMint: coinMint, PcMint: pcMint,
		CoinReserve: 1_000_000_000_000, PcReserve: 150_000_000_000,
		TradeFeeNumerator: 25, TradeFeeDenominator: 10_000,
		LastUpdateSlot: 95,
	}
	s := &Scanner{
		registry: fakeRaydiumSource{pool: pool, found: true},
		slot:     func() uint64 { return 100 },
	}
	pair := models.MonitoredPair{InputMint: coinMint.String(), OutputMint: pcMint.String(), Amount: 1_000_000_000}

	q := s.quoteRaydium(pair, coinMint, pcMint)
	if !q.ok {
		t.Fatal("expected a fresh pool to yield a valid quote")
	}
	if q.quote.Method != "raydium_direct" || q.quote.OutputAmount == 0 {
		t.Errorf("unexpected quote: %+v", q.quote)
	}
}

func TestScanner_QuoteRaydium_StalePoolRejected(t *testing.T) {
	coinMint := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	pcMint := usdcMint
	pool := models.PoolState{
		CoinMint: coinMint, PcMint: pcMint,
		CoinReserve: 1_000_000_000_000, PcReserve: 150_000_000_000,
		TradeFeeNumerator: 25, TradeFeeDenominator: 10_000,
		LastUpdateSlot: 20,
	}
	s := &Scanner{
		registry: fakeRaydiumSource{pool: pool, found: true},
		slot:     func() uint64 { return 100 },
	}
	pair := models.MonitoredPair{InputMint: coinMint.String(), OutputMint: pcMint.String(), Amount: 1_000_000_000}

	if q := s.quoteRaydium(pair, coinMint, pcMint); q.ok {
		t.Error("expected a stale pool to be rejected")
	}
}
