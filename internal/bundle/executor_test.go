package bundle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"

	"solexec/internal/signer"
)

func testSignerAndFeePayer(t *testing.T) (*signer.Signer, solana.PublicKey) {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey() error = %v", err)
	}
	s := signer.FromPrivateKey(key)
	return s, s.PublicKey()
}

func buildUnsignedLeg(t *testing.T, feePayer solana.PublicKey, blockhash solana.Hash) string {
	t.Helper()
	ix := solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
		{PublicKey: feePayer, IsSigner: true, IsWritable: true},
	}, []byte{0})

	tx, err := solana.NewTransactionBuilder().
		SetVersion(solana.MessageVersionV0).
		SetFeePayer(feePayer).
		SetRecentBlockHash(blockhash).
		AddInstruction(ix).
		Build()
	if err != nil {
		t.Fatalf("building test leg: %v", err)
	}
	encoded, err := tx.ToBase64()
	if err != nil {
		t.Fatalf("encoding test leg: %v", err)
	}
	return encoded
}

func TestExecutor_Submit_AnyStatus200IsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req relayRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Transactions) != 2 {
			t.Errorf("expected 2 transactions (1 leg + tip), got %d", len(req.Transactions))
		}
		json.NewEncoder(w).Encode([]relayResponseEntry{
			{Signature: "sig1", StatusCode: 200},
			{Signature: "sig2", StatusCode: 500},
		})
	}))
	defer srv.Close()

	sgn, feePayer := testSignerAndFeePayer(t)
	exec := New(srv.URL, sgn)
	defer exec.Close()

	blockhash := solana.Hash{}
	leg := buildUnsignedLeg(t, feePayer, blockhash)

	result, err := exec.Submit(context.Background(), []string{leg}, 1_000_000, blockhash)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !result.Success {
		t.Error("expected Success = true when any entry has status 200")
	}
	if len(result.Statuses) != 2 {
		t.Errorf("Statuses len = %d, want 2", len(result.Statuses))
	}
}

func TestExecutor_Submit_AllNonOKIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]relayResponseEntry{
			{Signature: "sig1", StatusCode: 500},
			{Signature: "sig2", StatusCode: 500},
		})
	}))
	defer srv.Close()

	sgn, feePayer := testSignerAndFeePayer(t)
	exec := New(srv.URL, sgn)
	defer exec.Close()

	blockhash := solana.Hash{}
	leg := buildUnsignedLeg(t, feePayer, blockhash)

	result, err := exec.Submit(context.Background(), []string{leg}, 1_000_000, blockhash)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if result.Success {
		t.Error("expected Success = false when no entry has status 200")
	}
}
