package sniper

import (
	"context"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"solexec/internal/xerr"
)

// RaydiumProgramID and PumpFunProgramID are the two "monitored DEX
// programs" of spec §4.6's detection loop.
var (
	RaydiumProgramID = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")
	PumpFunProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")
)

// wrappedSOLMint and usdcMint are excluded when scanning post-token
// balances for the new mint (spec §4.6 "neither wrapped-SOL nor USDC").
var (
	wrappedSOLMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	usdcMint       = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
)

// RPCSignatureSource implements SignatureSource over a plain JSON-RPC
// client, the same fallback-RPC surface internal/raydium's
// RPCAccountFetcher uses (spec §6 "RPC URL (fallback only)").
type RPCSignatureSource struct {
	client *rpc.Client
}

// NewRPCSignatureSource wraps an RPC client.
func NewRPCSignatureSource(client *rpc.Client) *RPCSignatureSource {
	return &RPCSignatureSource{client: client}
}

// RecentSignatures fetches the last limit signatures touching program
// (spec §4.6 "fetch the last 20 signatures").
func (s *RPCSignatureSource) RecentSignatures(ctx context.Context, program solana.PublicKey, limit int) ([]string, error) {
	lim := limit
	sigs, err := s.client.GetSignaturesForAddressWithOpts(ctx, program, &rpc.GetSignaturesForAddressOpts{
		Limit:      &lim,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, xerr.Transientf("sniper_rpc", err, "fetching signatures for %s", program)
	}
	out := make([]string, len(sigs))
	for i, sig := range sigs {
		out[i] = sig.Signature.String()
	}
	return out, nil
}

// TransactionSummary fetches the full transaction and extracts the
// fields signature processing needs (spec §4.6 "Fetch the full
// transaction").
func (s *RPCSignatureSource) TransactionSummary(ctx context.Context, signature string) (*TxSummary, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return nil, xerr.New(xerr.ParseMismatch, "sniper_rpc", "malformed signature", err)
	}

	maxVersion := uint64(0)
	tx, err := s.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		MaxSupportedTransactionVersion: &maxVersion,
		Commitment:                     rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, xerr.Transientf("sniper_rpc", err, "fetching transaction %s", signature)
	}
	if tx == nil || tx.Meta == nil {
		return nil, xerr.New(xerr.ParseMismatch, "sniper_rpc", "transaction has no metadata", nil)
	}

	mints := make([]string, 0, len(tx.Meta.PostTokenBalances))
	for _, b := range tx.Meta.PostTokenBalances {
		if b.Mint.IsZero() {
			continue
		}
		mints = append(mints, b.Mint.String())
	}

	return &TxSummary{
		Logs:           tx.Meta.LogMessages,
		PreBalances:    tx.Meta.PreBalances,
		PostBalances:   tx.Meta.PostBalances,
		PostTokenMints: mints,
	}, nil
}

// RPCBondingCurveSource reads a Pump.fun bonding curve account directly
// (spec §4.6 price lookup "(b)... virtual reserves"). Layout is the
// well-known Pump.fun BondingCurve account: an 8-byte Anchor
// discriminator followed by five little-endian u64 fields and a 1-byte
// completion flag, the same fixed-offset decoding style as
// internal/raydium/layout.go.
type RPCBondingCurveSource struct {
	client *rpc.Client
}

// NewRPCBondingCurveSource wraps an RPC client.
func NewRPCBondingCurveSource(client *rpc.Client) *RPCBondingCurveSource {
	return &RPCBondingCurveSource{client: client}
}

const (
	bondingCurveMinSize     = 49
	offVirtualTokenReserves = 8
	offVirtualSOLReserves   = 16
	offComplete             = 48
)

// DeriveBondingCurve derives the PDA holding a mint's bonding-curve
// state.
func DeriveBondingCurve(mint solana.PublicKey) (solana.PublicKey, error) {
	pda, _, err := solana.FindProgramAddress([][]byte{[]byte("bonding-curve"), mint[:]}, PumpFunProgramID)
	if err != nil {
		return solana.PublicKey{}, xerr.New(xerr.ParseMismatch, "sniper_pumpfun", "bonding-curve PDA derivation failed", err)
	}
	return pda, nil
}

// BondingCurveState fetches and decodes the bonding-curve account for
// mint. Falls through with ParseMismatch if the mint has graduated off
// the curve (account closed) or was never a Pump.fun launch.
func (s *RPCBondingCurveSource) BondingCurveState(ctx context.Context, mint solana.PublicKey) (uint64, uint64, bool, error) {
	pda, err := DeriveBondingCurve(mint)
	if err != nil {
		return 0, 0, false, err
	}

	res, err := s.client.GetAccountInfoWithOpts(ctx, pda, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentProcessed,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		return 0, 0, false, xerr.Transientf("sniper_pumpfun", err, "fetching bonding curve for %s", mint)
	}
	if res == nil || res.Value == nil {
		return 0, 0, false, xerr.New(xerr.ParseMismatch, "sniper_pumpfun", "bonding curve account not found", nil)
	}

	data := res.Value.Data.GetBinary()
	if len(data) < bondingCurveMinSize {
		return 0, 0, false, xerr.New(xerr.ParseMismatch, "sniper_pumpfun", "bonding curve account too small", nil)
	}

	virtualToken := binary.LittleEndian.Uint64(data[offVirtualTokenReserves : offVirtualTokenReserves+8])
	virtualSOL := binary.LittleEndian.Uint64(data[offVirtualSOLReserves : offVirtualSOLReserves+8])
	complete := data[offComplete] != 0

	return virtualSOL, virtualToken, complete, nil
}
