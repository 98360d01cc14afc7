package arb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solexec/internal/aggregator"
	"solexec/internal/bundle"
	"solexec/internal/cache"
	"solexec/internal/events"
	"solexec/internal/models"
	"solexec/internal/router"
	"solexec/internal/signer"
)

func newTestExecutor(t *testing.T, relayCalls *int64) (*Executor, *cache.BlockhashCache) {
	t.Helper()

	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey() error = %v", err)
	}
	sgn := signer.FromPrivateKey(key)

	// The aggregator stub returns a decodable unsigned transaction whose fee
	// payer is the test signer, so the signer can sign it.
	unsignedTx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(solana.SystemProgramID,
			solana.AccountMetaSlice{{PublicKey: key.PublicKey(), IsSigner: true, IsWritable: true}}, []byte{})},
		solana.Hash{}, solana.TransactionPayer(key.PublicKey()))
	if err != nil {
		t.Fatalf("NewTransaction() error = %v", err)
	}
	unsignedTxBase64, err := unsignedTx.ToBase64()
	if err != nil {
		t.Fatalf("ToBase64() error = %v", err)
	}

	aggSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote":
			json.NewEncoder(w).Encode(map[string]string{"outAmount": "2000000"})
		case "/swap":
			json.NewEncoder(w).Encode(map[string]string{"swapTransaction": unsignedTxBase64})
		}
	}))
	t.Cleanup(aggSrv.Close)
	aggClient := aggregator.New(aggSrv.URL, "")

	relaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(relayCalls, 1)
		var req struct {
			Transactions []string `json:"transactions"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		resp := make([]map[string]interface{}, len(req.Transactions))
		for i := range resp {
			resp[i] = map[string]interface{}{"signature": "sig", "statusCode": 200}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(relaySrv.Close)

	r := router.New(nil, cache.NewOrcaPoolMap(), nil, aggClient, zap.NewNop())
	bundleExec := bundle.New(relaySrv.URL, sgn)
	t.Cleanup(bundleExec.Close)

	blockhashCache := cache.NewBlockhashCache()
	tipFloor := cache.NewTipFloorCache()
	hub := events.NewHub(zap.NewNop())

	exec := NewExecutor(r, blockhashCache, tipFloor, bundleExec, sgn, hub, zap.NewNop(),
		func() uint64 { return 100 })
	return exec, blockhashCache
}

func testPairAndOpportunity() (models.MonitoredPair, models.Opportunity) {
	pair := models.MonitoredPair{
		ID: 1, InputSymbol: "SOL", OutputSymbol: "USDC",
		InputMint:  "So11111111111111111111111111111111111111112",
		OutputMint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Amount:     1_000_000_000,
	}
	opp := models.Opportunity{
		PairID: pair.ID, BestVenue: "orca", WorstVenue: "orca",
		BestOut: 2_000_000, WorstOut: 1_000_000,
		SpreadPct: 1, NetProfitUSD: 1, InputAmount: pair.Amount,
	}
	return pair, opp
}

func TestExecutor_Strike_NoSignerAborts(t *testing.T) {
	var relayCalls int64
	exec, _ := newTestExecutor(t, &relayCalls)
	exec.signer = nil

	pair, opp := testPairAndOpportunity()
	exec.Strike(context.Background(), opp, models.RuntimeSettings{}, pair)

	if relayCalls != 0 {
		t.Error("expected no relay submission when no signer is configured")
	}
}

func TestExecutor_Strike_StaleBlockhashAborts(t *testing.T) {
	var relayCalls int64
	exec, blockhashCache := newTestExecutor(t, &relayCalls)
	blockhashCache.Update(models.BlockhashEntry{Blockhash: solana.Hash{1}, LastValidBlockHeight: 110, ObservedSlot: 100})
	// slot=100, last_valid=110 -> blocks_remaining=10, below the 20 floor.

	pair, opp := testPairAndOpportunity()
	exec.Strike(context.Background(), opp, models.RuntimeSettings{}, pair)

	if relayCalls != 0 {
		t.Error("expected no relay submission when the cached blockhash is too close to expiry")
	}
}

func TestExecutor_Strike_SubmitsBundleOnSuccess(t *testing.T) {
	var relayCalls int64
	exec, blockhashCache := newTestExecutor(t, &relayCalls)
	blockhashCache.Update(models.BlockhashEntry{Blockhash: solana.Hash{1}, LastValidBlockHeight: 200, ObservedSlot: 100})

	pair, opp := testPairAndOpportunity()
	settings := models.RuntimeSettings{DefaultSlippageBps: 50, FastTipPercentile: 95, UserTipFloorLamports: 1000}
	exec.Strike(context.Background(), opp, settings, pair)

	if relayCalls != 1 {
		t.Errorf("relay calls = %d, want 1", relayCalls)
	}
}

func TestVenueFromName(t *testing.T) {
	cases := map[string]router.Venue{"raydium": router.Raydium, "orca": router.Orca, "unknown": router.Other}
	for name, want := range cases {
		if got := venueFromName(name); got != want {
			t.Errorf("venueFromName(%q) = %v, want %v", name, got, want)
		}
	}
}
