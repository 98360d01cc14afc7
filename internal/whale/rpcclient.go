package whale

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"solexec/internal/xerr"
)

// RPCSignatureSource implements SignatureSource over a plain JSON-RPC
// client, the same pattern as internal/sniper's RPCSignatureSource.
type RPCSignatureSource struct {
	client *rpc.Client
}

// NewRPCSignatureSource wraps an RPC client.
func NewRPCSignatureSource(client *rpc.Client) *RPCSignatureSource {
	return &RPCSignatureSource{client: client}
}

// RecentSignatures fetches the last limit signatures touching account.
func (s *RPCSignatureSource) RecentSignatures(ctx context.Context, account solana.PublicKey, limit int) ([]string, error) {
	lim := limit
	sigs, err := s.client.GetSignaturesForAddressWithOpts(ctx, account, &rpc.GetSignaturesForAddressOpts{
		Limit:      &lim,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, xerr.Transientf("whale_rpc", err, "fetching signatures for %s", account)
	}
	out := make([]string, len(sigs))
	for i, sig := range sigs {
		out[i] = sig.Signature.String()
	}
	return out, nil
}

// TransactionSummary fetches the full transaction and extracts the
// lamport balance deltas the notional-size estimate needs.
func (s *RPCSignatureSource) TransactionSummary(ctx context.Context, signature string) (*TxSummary, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, xerr.New(xerr.ParseMismatch, "whale_rpc", "malformed signature", err)
	}

	maxVersion := uint64(0)
	tx, err := s.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: &maxVersion,
		Commitment:                     rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, xerr.Transientf("whale_rpc", err, "fetching transaction %s", signature)
	}
	if tx == nil || tx.Meta == nil {
		return nil, xerr.New(xerr.ParseMismatch, "whale_rpc", "transaction has no metadata", nil)
	}

	return &TxSummary{
		PreBalances:  tx.Meta.PreBalances,
		PostBalances: tx.Meta.PostBalances,
	}, nil
}
