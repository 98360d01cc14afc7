package whale

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"solexec/internal/models"
)

// TxSummary is the slice of a fetched transaction the whale path needs:
// enough to compute a notional SOL size, nothing else (spec §9 "we do
// not specify the trading strategies' economic logic" keeps this
// intentionally coarse).
type TxSummary struct {
	PreBalances  []uint64
	PostBalances []uint64
}

// SignatureSource is the RPC surface the whale detector polls, the same
// shape as the sniper detector's SignatureSource (internal/sniper/types.go)
// generalized from "program ID" to "any watched account" since whale
// polls pool vault addresses rather than a DEX program ID.
type SignatureSource interface {
	RecentSignatures(ctx context.Context, account solana.PublicKey, limit int) ([]string, error)
	TransactionSummary(ctx context.Context, signature string) (*TxSummary, error)
}

// PoolSource returns the currently registered pool set (internal/raydium.Registry.KnownPools).
type PoolSource interface {
	KnownPools() []models.PoolState
}
