package raydium

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"solexec/internal/xerr"
)

// DeriveVaultSigner derives the OpenBook market's vault-signer PDA from
// the market pubkey and the nonce stored in the market account (spec §6
// "Market vault-signer derivation", decided per DESIGN.md Open Question
// #1: 8-byte nonce seed primary, 1-byte fallback logged as a warning).
func DeriveVaultSigner(market solana.PublicKey, nonce uint64, log *zap.Logger) (solana.PublicKey, error) {
	var nonceBytes [8]byte
	binary.LittleEndian.PutUint64(nonceBytes[:], nonce)

	pda, _, err := solana.FindProgramAddress([][]byte{market[:], nonceBytes[:]}, OpenBookProgramID)
	if err == nil {
		return pda, nil
	}

	log.Warn("vault-signer PDA derivation failed with 8-byte nonce, trying 1-byte fallback",
		zap.String("market", market.String()),
		zap.Uint64("nonce", nonce),
		zap.Error(err),
	)

	pda, _, err = solana.FindProgramAddress([][]byte{market[:], {byte(nonce)}}, OpenBookProgramID)
	if err != nil {
		return solana.PublicKey{}, xerr.New(xerr.ParseMismatch, "raydium", "vault-signer PDA derivation failed on both nonce encodings", err)
	}
	return pda, nil
}

// OpenBookProgramID is the OpenBook (Serum v3-compatible) market program
// the vault-signer PDA is derived against.
var OpenBookProgramID = solana.MustPublicKeyFromBase58("srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX")
