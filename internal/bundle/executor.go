// Package bundle implements the atomic bundle executor shared by the
// arb and sniper executors (spec §4.8): sign an ordered list of
// unsigned legs plus a tip transaction with the server's one key,
// submit them as an ordered bundle to a Jito-family block-builder
// relay, and report per-transaction success. Grounded on the teacher's
// pooled internal/exchange.HTTPClient for the relay POST and
// json-iterator/go for its JSON body, the same combination used by
// every other vendor client in this module.
package bundle

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	jsoniter "github.com/json-iterator/go"

	"solexec/internal/exchange"
	"solexec/internal/metrics"
	"solexec/internal/signer"
	"solexec/internal/xerr"
)

const (
	systemTransferIndex = uint32(2)
	submitTimeout       = 10 * time.Second
)

// Jito's well-known tip accounts (mainnet); any one is an acceptable
// destination for a tip payment.
var jitoTipAccount = solana.MustPublicKeyFromBase58("96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5")

// TxStatus is one transaction's relay submission outcome.
type TxStatus struct {
	Signature  string
	StatusCode int
}

// Result is the bundle's aggregated outcome (spec §4.8 "Result").
type Result struct {
	Statuses []TxStatus
	Success  bool
}

// Executor signs and submits bundles to one relay endpoint.
type Executor struct {
	relayURL string
	http     *exchange.HTTPClient
	signer   *signer.Signer
}

// New builds an Executor against relayURL, using signer for every leg
// and tip transaction.
func New(relayURL string, sgn *signer.Signer) *Executor {
	return &Executor{
		relayURL: relayURL,
		http:     exchange.NewHTTPClient(exchange.DefaultHTTPClientConfig()),
		signer:   sgn,
	}
}

// Close releases the underlying connection pool.
func (e *Executor) Close() { e.http.Close() }

// Submit signs each unsigned leg (already base64-encoded, built by the
// router) plus a tip transaction for tipLamports, then submits the
// ordered bundle to the relay. Bundle order is [legs..., tip] (spec
// §4.5/§4.6 "Submit [signed_leg1, signed_leg2, signed_tip]").
func (e *Executor) Submit(ctx context.Context, legsBase64 []string, tipLamports uint64, blockhash solana.Hash) (Result, error) {
	signedTxs := make([]string, 0, len(legsBase64)+1)

	for _, leg := range legsBase64 {
		signed, err := e.signer.SignBase64(leg)
		if err != nil {
			return Result{}, err
		}
		signedTxs = append(signedTxs, signed)
	}

	tipTx, err := e.buildTipTransaction(tipLamports, blockhash)
	if err != nil {
		return Result{}, err
	}
	if err := e.signer.SignTransaction(tipTx); err != nil {
		return Result{}, err
	}
	tipEncoded, err := tipTx.ToBase64()
	if err != nil {
		return Result{}, xerr.New(xerr.ParseMismatch, "bundle", "encoding tip transaction", err)
	}
	signedTxs = append(signedTxs, tipEncoded)

	start := time.Now()
	result, err := e.submitToRelay(ctx, signedTxs)
	metrics.BundleSubmitLatency.Observe(float64(time.Since(start).Milliseconds()))
	metrics.LegCount.Observe(float64(len(legsBase64)))
	return result, err
}

// buildTipTransaction builds the unsigned tip transfer named by §4.5
// step 6 ("Build a tip transaction for jito_tip * 10^9 lamports"),
// signed in the same step as the legs rather than routed through the
// router (spec §4.8 "not routed through a vendor builder").
func (e *Executor) buildTipTransaction(tipLamports uint64, blockhash solana.Hash) (*solana.Transaction, error) {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], systemTransferIndex)
	binary.LittleEndian.PutUint64(data[4:], tipLamports)

	payer := e.signer.PublicKey()
	accounts := solana.AccountMetaSlice{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: jitoTipAccount, IsSigner: false, IsWritable: true},
	}
	ix := solana.NewInstruction(solana.SystemProgramID, accounts, data)

	tx, err := solana.NewTransactionBuilder().
		SetVersion(solana.MessageVersionV0).
		SetFeePayer(payer).
		SetRecentBlockHash(blockhash).
		AddInstruction(ix).
		Build()
	if err != nil {
		return nil, xerr.New(xerr.ParseMismatch, "bundle", "building tip transaction", err)
	}
	return tx, nil
}

type relayRequest struct {
	Transactions []string `json:"transactions"`
}

type relayResponseEntry struct {
	Signature  string `json:"signature"`
	StatusCode int    `json:"statusCode"`
}

// submitToRelay posts the ordered, signed bundle to the relay (spec §6
// "Block-builder bundle relay": "HTTP/JSON endpoint accepting an
// ordered list of base64-encoded signed transactions; per-transaction
// HTTP 200 is success; non-200 is failure").
func (e *Executor) submitToRelay(ctx context.Context, signedTxs []string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(relayRequest{Transactions: signedTxs})
	if err != nil {
		return Result{}, xerr.New(xerr.ParseMismatch, "bundle", "encoding relay request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.relayURL+"/bundles", bytes.NewReader(body))
	if err != nil {
		return Result{}, xerr.Transientf("bundle", err, "building relay request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.http.Do(req)
	if err != nil {
		return Result{}, xerr.Transientf("bundle", err, "relay request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, xerr.Transientf("bundle", err, "reading relay response")
	}

	var entries []relayResponseEntry
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(respBody, &entries); err != nil {
		return Result{}, xerr.New(xerr.ParseMismatch, "bundle", "decoding relay response", err)
	}

	statuses := make([]TxStatus, len(entries))
	success := false
	for i, entry := range entries {
		statuses[i] = TxStatus{Signature: entry.Signature, StatusCode: entry.StatusCode}
		if entry.StatusCode == http.StatusOK {
			success = true
		}
	}
	return Result{Statuses: statuses, Success: success}, nil
}
