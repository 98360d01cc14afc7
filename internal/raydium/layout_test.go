package raydium

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func fakePoolAccountBytes() []byte {
	data := make([]byte, poolAccountSize)
	data[offBaseDecimal] = 9
	data[offQuoteDecimal] = 6
	binary.LittleEndian.PutUint64(data[offTradeFeeNum:], 25)
	binary.LittleEndian.PutUint64(data[offTradeFeeDenom:], 10000)
	binary.LittleEndian.PutUint64(data[offSwapFeeNum:], 25)
	binary.LittleEndian.PutUint64(data[offSwapFeeDenom:], 10000)

	coinVault := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	copy(data[offPoolCoinVault:], coinVault[:])
	market := solana.MustPublicKeyFromBase58("9WFFyXbPZGFsogmYsjMyVQNFB5u8qDkmd1V8qbLmkvVP")
	copy(data[offMarket:], market[:])

	return data
}

func TestParsePoolAccount(t *testing.T) {
	data := fakePoolAccountBytes()
	pool, err := ParsePoolAccount(solana.PublicKey{1, 2, 3}, data)
	if err != nil {
		t.Fatalf("ParsePoolAccount() error = %v", err)
	}
	if pool.CoinDecimal != 9 || pool.PcDecimal != 6 {
		t.Errorf("decimals = (%d, %d), want (9, 6)", pool.CoinDecimal, pool.PcDecimal)
	}
	if pool.TradeFeeNumerator != 25 || pool.TradeFeeDenominator != 10000 {
		t.Errorf("trade fee = (%d, %d), want (25, 10000)", pool.TradeFeeNumerator, pool.TradeFeeDenominator)
	}
	wantCoinVault := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	if !pool.PoolCoinTokenAccount.Equals(wantCoinVault) {
		t.Errorf("PoolCoinTokenAccount = %s, want %s", pool.PoolCoinTokenAccount, wantCoinVault)
	}
}

func TestParsePoolAccount_TooSmall(t *testing.T) {
	_, err := ParsePoolAccount(solana.PublicKey{}, make([]byte, 100))
	if err == nil {
		t.Fatal("expected an error for a too-small pool account")
	}
}

func TestParseMarketAccount(t *testing.T) {
	data := make([]byte, marketAccountMinSize)
	binary.LittleEndian.PutUint64(data[offVaultSignerNonce:], 42)
	baseVault := solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
	copy(data[offBaseVault:], baseVault[:])

	market, err := ParseMarketAccount(data)
	if err != nil {
		t.Fatalf("ParseMarketAccount() error = %v", err)
	}
	if market.VaultSignerNonce != 42 {
		t.Errorf("VaultSignerNonce = %d, want 42", market.VaultSignerNonce)
	}
	if !market.BaseVault.Equals(baseVault) {
		t.Errorf("BaseVault = %s, want %s", market.BaseVault, baseVault)
	}
}

func TestParseMarketAccount_TooSmallToReadAsks(t *testing.T) {
	// 325 bytes passes a naive "offAsks (317) is in range" check but is
	// still short of the 32-byte pubkey ParseMarketAccount reads there;
	// this must return an error, not slice out of range.
	_, err := ParseMarketAccount(make([]byte, 325))
	if err == nil {
		t.Fatal("expected an error for a market account too short to hold the asks pubkey")
	}
}

func TestParseTokenAccountBalance(t *testing.T) {
	data := make([]byte, 128)
	binary.LittleEndian.PutUint64(data[tokenAccountBalanceOffset:], 1_500_000)

	balance, err := ParseTokenAccountBalance(data)
	if err != nil {
		t.Fatalf("ParseTokenAccountBalance() error = %v", err)
	}
	if balance != 1_500_000 {
		t.Errorf("balance = %d, want 1500000", balance)
	}
}

func TestParseTokenAccountBalance_TooSmall(t *testing.T) {
	if _, err := ParseTokenAccountBalance(make([]byte, 10)); err == nil {
		t.Fatal("expected an error for a too-small token account")
	}
}
