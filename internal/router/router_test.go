package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solexec/internal/aggregator"
	"solexec/internal/cache"
	"solexec/internal/orca"
)

var (
	testSOL  = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	testUSDC = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	testUser = solana.SystemProgramID
)

func TestBuildSwap_NoRegistryFallsThroughToFailed(t *testing.T) {
	r := New(nil, cache.NewOrcaPoolMap(), nil, nil, zap.NewNop())

	res := r.BuildSwap(context.Background(), Raydium, testSOL, testUSDC, 1_000_000, testUser, solana.Hash{}, 50, 100)
	if res.Method != MethodFailed {
		t.Errorf("Method = %v, want %v", res.Method, MethodFailed)
	}
}

func TestBuildSwap_OrcaUnmappedPairFallsThroughToAggregator(t *testing.T) {
	aggSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.URL.Path {
		case "/quote":
			w.Write([]byte(`{"outAmount":"999"}`))
		case "/swap":
			w.Write([]byte(`{"swapTransaction":"aggtx"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer aggSrv.Close()

	aggClient := aggregator.New(aggSrv.URL, "")
	defer aggClient.Close()

	// an unrelated mint guarantees the bootstrap Orca map has no entry
	unrelatedMint := solana.MustPublicKeyFromBase58("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R")

	r := New(nil, cache.NewOrcaPoolMap(), orca.New("http://127.0.0.1:0"), aggClient, zap.NewNop())

	res := r.BuildSwap(context.Background(), Orca, testSOL, unrelatedMint, 1_000_000, testUser, solana.Hash{}, 50, 100)
	if res.Method != MethodAggregatorFallback {
		t.Errorf("Method = %v, want %v", res.Method, MethodAggregatorFallback)
	}
	if res.TxBase64 != "aggtx" {
		t.Errorf("TxBase64 = %q, want aggtx", res.TxBase64)
	}
}

func TestBuildSwap_AllRungsFailReturnsFailed(t *testing.T) {
	aggSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer aggSrv.Close()

	aggClient := aggregator.New(aggSrv.URL, "")
	defer aggClient.Close()

	r := New(nil, cache.NewOrcaPoolMap(), nil, aggClient, zap.NewNop())

	res := r.BuildSwap(context.Background(), Other, testSOL, testUSDC, 1_000_000, testUser, solana.Hash{}, 50, 100)
	if res.Method != MethodFailed {
		t.Errorf("Method = %v, want %v", res.Method, MethodFailed)
	}
}

func TestVenueString(t *testing.T) {
	cases := map[Venue]string{Raydium: "raydium", Orca: "orca", Other: "other"}
	for v, want := range cases {
		if got := v.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", v, got, want)
		}
	}
}
