// Package raydium implements the Raydium V4 pool registry named by spec
// §4.3: fixed-offset account layout parsing, vault-signer PDA derivation,
// quote computation, and unsigned swap-transaction construction. Grounded
// on the fixed-offset parsing style of
// 05ed8034_RovshanMuradov-solana-bot's internal/dex/raydium package and the
// program-ID/account-ordering conventions read off
// f6b9b1e3_P-HOW-solana-swap-decode's instruction decoder, adapted from
// "decode a swap out of a transaction" to "parse a pool account and build
// one".
package raydium

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"solexec/internal/models"
	"solexec/internal/xerr"
)

// ProgramID is the Raydium Liquidity Pool V4 program.
var ProgramID = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")

// AuthorityID is the fixed Raydium V4 pool authority PDA (spec §6).
var AuthorityID = solana.MustPublicKeyFromBase58("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1")

const poolAccountSize = 752

// Pool account byte offsets, spec §6 "Raydium V4 pool account layout".
const (
	offBaseDecimal      = 40
	offQuoteDecimal     = 48
	offTradeFeeNum      = 152
	offTradeFeeDenom    = 160
	offSwapFeeNum       = 184
	offSwapFeeDenom     = 192
	offPoolCoinVault    = 320
	offPoolPcVault      = 352
	offCoinMint         = 384
	offPcMint           = 416
	offOpenOrders       = 480
	offMarket           = 512
	offSerumProgram     = 544
	offTargetOrders     = 576
)

// ParsePoolAccount decodes a raw Raydium V4 pool account into the static
// fields of a PoolState. Reserves, vault-signer, and market sub-account
// fields are filled in separately (ParseMarketAccount, derivePDA,
// fetched vault balances).
func ParsePoolAccount(address solana.PublicKey, data []byte) (*models.PoolState, error) {
	if len(data) < poolAccountSize {
		return nil, xerr.New(xerr.ParseMismatch, "raydium", "pool account too small", nil)
	}

	p := &models.PoolState{
		PoolAddress:         address,
		CoinDecimal:         data[offBaseDecimal],
		PcDecimal:           data[offQuoteDecimal],
		TradeFeeNumerator:   binary.LittleEndian.Uint64(data[offTradeFeeNum : offTradeFeeNum+8]),
		TradeFeeDenominator: binary.LittleEndian.Uint64(data[offTradeFeeDenom : offTradeFeeDenom+8]),
		SwapFeeNumerator:    binary.LittleEndian.Uint64(data[offSwapFeeNum : offSwapFeeNum+8]),
		SwapFeeDenominator:  binary.LittleEndian.Uint64(data[offSwapFeeDenom : offSwapFeeDenom+8]),
		PoolCoinTokenAccount: readPubkey(data, offPoolCoinVault),
		PoolPcTokenAccount:   readPubkey(data, offPoolPcVault),
		CoinMint:             readPubkey(data, offCoinMint),
		PcMint:               readPubkey(data, offPcMint),
		OpenOrders:           readPubkey(data, offOpenOrders),
		Market:               readPubkey(data, offMarket),
		SerumProgram:         readPubkey(data, offSerumProgram),
		TargetOrders:         readPubkey(data, offTargetOrders),
	}
	return p, nil
}

// Market account byte offsets, spec §6 "OpenBook market account layout".
const (
	marketAccountMinSize = offAsks + 32
	offVaultSignerNonce  = 45
	offBaseVault         = 117
	offQuoteVault        = 165
	offEventQueue        = 253
	offBids              = 285
	offAsks              = 317
)

// MarketFields holds the subset of an OpenBook market account parsed for
// the pool registry.
type MarketFields struct {
	VaultSignerNonce uint64
	BaseVault        solana.PublicKey
	QuoteVault       solana.PublicKey
	EventQueue       solana.PublicKey
	Bids             solana.PublicKey
	Asks             solana.PublicKey
}

// ParseMarketAccount decodes the OpenBook market account referenced by a
// pool's Market field.
func ParseMarketAccount(data []byte) (*MarketFields, error) {
	if len(data) < marketAccountMinSize {
		return nil, xerr.New(xerr.ParseMismatch, "raydium", "market account too small", nil)
	}
	return &MarketFields{
		VaultSignerNonce: binary.LittleEndian.Uint64(data[offVaultSignerNonce : offVaultSignerNonce+8]),
		BaseVault:        readPubkey(data, offBaseVault),
		QuoteVault:       readPubkey(data, offQuoteVault),
		EventQueue:       readPubkey(data, offEventQueue),
		Bids:             readPubkey(data, offBids),
		Asks:             readPubkey(data, offAsks),
	}, nil
}

const tokenAccountBalanceOffset = 64

// ParseTokenAccountBalance reads the little-endian u64 balance out of an
// SPL token account (spec §6 "balance is a little-endian u64 at byte
// offset 64").
func ParseTokenAccountBalance(data []byte) (uint64, error) {
	if len(data) < tokenAccountBalanceOffset+8 {
		return 0, xerr.New(xerr.ParseMismatch, "raydium", "token account too small", nil)
	}
	return binary.LittleEndian.Uint64(data[tokenAccountBalanceOffset : tokenAccountBalanceOffset+8]), nil
}

func readPubkey(data []byte, offset int) solana.PublicKey {
	var pk solana.PublicKey
	copy(pk[:], data[offset:offset+32])
	return pk
}
