package sniper

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
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

type fakeSigSource struct {
	sigs map[solana.PublicKey][]string
	txs  map[string]*TxSummary
}

func (f *fakeSigSource) RecentSignatures(_ context.Context, program solana.PublicKey, _ int) ([]string, error) {
	return f.sigs[program], nil
}

func (f *fakeSigSource) TransactionSummary(_ context.Context, signature string) (*TxSummary, error) {
	tx, ok := f.txs[signature]
	if !ok {
		return nil, errors.New("no such transaction")
	}
	return tx, nil
}

type fakeAssetFetcher struct{ info *AssetInfo }

func (f *fakeAssetFetcher) FetchAsset(context.Context, string) (*AssetInfo, error) { return f.info, nil }

type fakeTokenStore struct{ saved []*models.DetectedToken }

func (f *fakeTokenStore) SaveDetectedToken(_ context.Context, token *models.DetectedToken) error {
	f.saved = append(f.saved, token)
	return nil
}

func newTestDetector(t *testing.T, sigSrc SignatureSource, assetFetcher AssetFetcher, tokenStore TokenStore) *Detector {
	t.Helper()

	aggSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote":
			json.NewEncoder(w).Encode(map[string]string{"outAmount": "500000"})
		case "/swap":
			json.NewEncoder(w).Encode(map[string]string{"swapTransaction": "unsigned-tx"})
		}
	}))
	t.Cleanup(aggSrv.Close)
	aggClient := aggregator.New(aggSrv.URL, "")

	relaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
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

	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey() error = %v", err)
	}
	sgn := signer.FromPrivateKey(key)

	r := router.New(nil, cache.NewOrcaPoolMap(), nil, aggClient, zap.NewNop())
	bundleExec := bundle.New(relaySrv.URL, sgn)
	t.Cleanup(bundleExec.Close)

	blockhashCache := cache.NewBlockhashCache()
	blockhashCache.Update(models.BlockhashEntry{Blockhash: solana.Hash{1}, LastValidBlockHeight: 200, ObservedSlot: 100})
	tipFloor := cache.NewTipFloorCache()
	hub := events.NewHub(zap.NewNop())

	monitor := NewMonitor(nil, cache.NewPriceCache(), nil, nil, r, bundleExec, blockhashCache, tipFloor, sgn, hub, zap.NewNop(),
		func() models.RuntimeSettings { return models.RuntimeSettings{} }, func() uint64 { return 100 })

	validator := NewValidator(func(string) bool { return false }, nil)

	return NewDetector(sigSrc, assetFetcher, validator, tokenStore, r, bundleExec, blockhashCache, tipFloor, sgn, monitor, hub, zap.NewNop(),
		func() models.RuntimeSettings {
			return models.RuntimeSettings{
				SniperMode: models.SniperModeBoth, AutoSnipe: false, MinLiquiditySOL: 1,
				CircuitBreakerMax: 3, DefaultSlippageBps: 50,
			}
		},
		func() uint64 { return 100 }, solana.PublicKey{}, 3)
}

func TestMarkSeen_DedupsAndTrims(t *testing.T) {
	d := newTestDetector(t, &fakeSigSource{}, &fakeAssetFetcher{}, nil)

	if d.markSeen("sig-a") {
		t.Fatal("first sighting should not be reported as already seen")
	}
	if !d.markSeen("sig-a") {
		t.Fatal("second sighting of the same signature should dedup")
	}

	for i := 0; i < seenCap+1; i++ {
		key, err := solana.NewRandomPrivateKey()
		if err != nil {
			t.Fatalf("NewRandomPrivateKey() error = %v", err)
		}
		d.markSeen(key.PublicKey().String())
	}
	if len(d.order) > seenCap {
		t.Errorf("seen set not trimmed: len = %d, want <= %d", len(d.order), seenCap)
	}
}

func TestProcessSignature_AcceptsRaydiumInitialize2(t *testing.T) {
	sigSrc := &fakeSigSource{txs: map[string]*TxSummary{
		"sig1": {
			Logs:           []string{"Program log: ray_log", "Program log: initialize2: ray_log"},
			PreBalances:    []uint64{1_000_000_000, 2_000_000_000},
			PostBalances:   []uint64{1_000_000_000, 4_000_000_000},
			PostTokenMints: []string{"So11111111111111111111111111111111111111112", "newmint111111111111111111111111111111111111"},
		},
	}}
	store := &fakeTokenStore{}
	d := newTestDetector(t, sigSrc, &fakeAssetFetcher{info: &AssetInfo{Symbol: "FOO"}}, store)

	d.processSignature(context.Background(), "sig1", models.DexRaydium)

	if len(store.saved) != 1 {
		t.Fatalf("saved tokens = %d, want 1", len(store.saved))
	}
	if store.saved[0].Mint != "newmint111111111111111111111111111111111111" {
		t.Errorf("detected mint = %q, want the non-SOL mint", store.saved[0].Mint)
	}
	if store.saved[0].InitialLiquiditySOL != 2 {
		t.Errorf("InitialLiquiditySOL = %v, want 2 (max positive delta)", store.saved[0].InitialLiquiditySOL)
	}
}

func TestProcessSignature_RejectsMissingMarker(t *testing.T) {
	sigSrc := &fakeSigSource{txs: map[string]*TxSummary{
		"sig2": {Logs: []string{"Program log: swap"}, PostTokenMints: []string{"newmint2"}},
	}}
	store := &fakeTokenStore{}
	d := newTestDetector(t, sigSrc, &fakeAssetFetcher{info: &AssetInfo{}}, store)

	d.processSignature(context.Background(), "sig2", models.DexRaydium)

	if len(store.saved) != 0 {
		t.Error("expected no token saved without the initialize2 marker")
	}
}

func TestProcessSignature_RejectsLowLiquidity(t *testing.T) {
	sigSrc := &fakeSigSource{txs: map[string]*TxSummary{
		"sig3": {
			Logs:           []string{"initialize2"},
			PreBalances:    []uint64{1_000_000_000},
			PostBalances:   []uint64{1_000_100_000}, // 0.0001 SOL delta, below MinLiquiditySOL=1
			PostTokenMints: []string{"newmint3"},
		},
	}}
	store := &fakeTokenStore{}
	d := newTestDetector(t, sigSrc, &fakeAssetFetcher{info: &AssetInfo{}}, store)

	d.processSignature(context.Background(), "sig3", models.DexRaydium)

	if len(store.saved) != 0 {
		t.Error("expected no token saved below the liquidity floor")
	}
}

func TestCircuitBreaker_TripsAtLimit(t *testing.T) {
	d := newTestDetector(t, &fakeSigSource{}, &fakeAssetFetcher{}, nil)
	settings := models.RuntimeSettings{CircuitBreakerMax: 2}

	d.recordStrikeOutcome(settings) // count=1
	if !d.breaker.Armed {
		t.Fatal("breaker should remain armed before reaching the limit")
	}
	d.recordStrikeOutcome(settings) // count=2, trips
	if d.breaker.Armed {
		t.Fatal("breaker should disarm once the limit is reached")
	}
	if d.tryStrike() {
		t.Error("tryStrike() should refuse once the breaker is disarmed")
	}

	d.Rearm(5)
	if !d.tryStrike() {
		t.Error("tryStrike() should proceed after Rearm")
	}
}

func TestCircuitBreaker_DisarmNotifiesOnlyFirstBlockedAttempt(t *testing.T) {
	// The strike that reaches the limit still submits; the disarm
	// notification belongs to the first attempt the breaker actually
	// blocks, and only that one (spec §8 circuit-breaker-monotonicity law).
	d := newTestDetector(t, &fakeSigSource{}, &fakeAssetFetcher{}, nil)
	settings := models.RuntimeSettings{CircuitBreakerMax: 1}

	d.recordStrikeOutcome(settings) // trips on the first strike (limit=1)
	if d.breaker.Armed {
		t.Fatal("breaker should be disarmed")
	}
	if d.breaker.DisarmNotified {
		t.Fatal("DisarmNotified should still be false: no blocked attempt has happened yet")
	}

	if d.tryStrike() {
		t.Fatal("tryStrike() should refuse once disarmed")
	}
	if !d.breaker.DisarmNotified {
		t.Error("first blocked attempt should set DisarmNotified")
	}

	// further blocked attempts must not re-notify (DisarmNotified stays
	// true, no panic, no double-trip bookkeeping).
	if d.tryStrike() {
		t.Fatal("tryStrike() should keep refusing while disarmed")
	}
	if !d.breaker.DisarmNotified {
		t.Error("DisarmNotified should remain true across repeated blocked attempts")
	}
}

func TestHasLaunchMarker(t *testing.T) {
	if !hasLaunchMarker([]string{"foo", "Program log: initialize2"}, models.DexRaydium) {
		t.Error("expected Raydium initialize2 marker to match")
	}
	if hasLaunchMarker([]string{"foo"}, models.DexRaydium) {
		t.Error("expected no match without the marker")
	}
	if !hasLaunchMarker([]string{"Program log: create"}, models.DexPumpFun) {
		t.Error("expected Pump.fun create marker to match")
	}
}

func TestFirstNonStableMint(t *testing.T) {
	mints := []string{wrappedSOLMint.String(), usdcMint.String(), "realmint"}
	if got := firstNonStableMint(mints); got != "realmint" {
		t.Errorf("firstNonStableMint() = %q, want %q", got, "realmint")
	}
}

func TestMaxPositiveSOLDelta(t *testing.T) {
	pre := []uint64{1_000_000_000, 5_000_000_000}
	post := []uint64{1_000_000_000, 7_000_000_000}
	if got := maxPositiveSOLDelta(pre, post); got != 2 {
		t.Errorf("maxPositiveSOLDelta() = %v, want 2", got)
	}
}
