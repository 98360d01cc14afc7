package raydium

import (
	"encoding/base64"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"solexec/internal/models"
)

const (
	computeUnitLimit = uint32(300_000)
	computeUnitPrice = uint64(10_000) // micro-lamports

	computeBudgetProgramID = "ComputeBudget111111111111111111111111111111"

	setComputeUnitLimitTag = byte(2)
	setComputeUnitPriceTag = byte(3)

	tokenProgramCreateAssociatedIdempotentTag = byte(1)
	tokenProgramCloseAccountTag                = byte(9)
	tokenProgramSyncNativeTag                  = byte(17)
	raydiumSwapBaseInTag                       = byte(9)
)

// wrappedSOLMint is the native mint SPL wraps SOL into for AMM swaps.
var wrappedSOLMint = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")

var computeBudgetProgram = solana.MustPublicKeyFromBase58(computeBudgetProgramID)

// ComputeAmountOut applies the pool's trade fee to amountIn and returns
// the constant-product output for the requested direction (spec §4.3
// "compute_amount_out"). Returns 0 if either reserve or the fee
// denominator is zero.
func ComputeAmountOut(pool *models.PoolState, amountIn uint64, coinToPC bool) uint64 {
	if pool.TradeFeeDenominator == 0 || pool.CoinReserve == 0 || pool.PcReserve == 0 {
		return 0
	}

	amountInAfterFee := (amountIn * (pool.TradeFeeDenominator - pool.TradeFeeNumerator)) / pool.TradeFeeDenominator

	var reserveIn, reserveOut uint64
	if coinToPC {
		reserveIn, reserveOut = pool.CoinReserve, pool.PcReserve
	} else {
		reserveIn, reserveOut = pool.PcReserve, pool.CoinReserve
	}

	// out = (amountInAfterFee * reserveOut) / (reserveIn + amountInAfterFee)
	numerator := amountInAfterFee * reserveOut
	denominator := reserveIn + amountInAfterFee
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// BuildSwapTransaction assembles the unsigned, base64-encoded version-0
// transaction described by spec §4.3's eight construction steps.
func BuildSwapTransaction(
	pool *models.PoolState,
	amountIn, minAmountOut uint64,
	coinToPC bool,
	user solana.PublicKey,
	blockhash solana.Hash,
) (string, error) {
	inputMint, outputMint := pool.PcMint, pool.CoinMint
	if coinToPC {
		inputMint, outputMint = pool.CoinMint, pool.PcMint
	}

	userSourceATA, _, err := solana.FindAssociatedTokenAddress(user, inputMint)
	if err != nil {
		return "", err
	}
	userDestATA, _, err := solana.FindAssociatedTokenAddress(user, outputMint)
	if err != nil {
		return "", err
	}

	var instructions []solana.Instruction
	instructions = append(instructions,
		computeUnitLimitInstruction(computeUnitLimit),
		computeUnitPriceInstruction(computeUnitPrice),
	)

	inputIsWSOL := inputMint.Equals(wrappedSOLMint)
	outputIsWSOL := outputMint.Equals(wrappedSOLMint)

	if inputIsWSOL {
		instructions = append(instructions,
			createAssociatedTokenAccountIdempotentInstruction(user, user, inputMint, userSourceATA),
			systemTransferInstruction(user, userSourceATA, amountIn),
			syncNativeInstruction(userSourceATA),
		)
	}

	instructions = append(instructions,
		createAssociatedTokenAccountIdempotentInstruction(user, user, outputMint, userDestATA),
	)

	instructions = append(instructions, raydiumSwapInstruction(pool, amountIn, minAmountOut, userSourceATA, userDestATA, user))

	if outputIsWSOL {
		instructions = append(instructions, closeAccountInstruction(userDestATA, user, user))
	}
	if inputIsWSOL {
		instructions = append(instructions, closeAccountInstruction(userSourceATA, user, user))
	}

	builder := solana.NewTransactionBuilder().
		SetVersion(solana.MessageVersionV0).
		SetFeePayer(user).
		SetRecentBlockHash(blockhash)
	for _, ix := range instructions {
		builder.AddInstruction(ix)
	}
	built, err := builder.Build()
	if err != nil {
		return "", err
	}

	raw, err := built.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func computeUnitLimitInstruction(units uint32) solana.Instruction {
	data := make([]byte, 5)
	data[0] = setComputeUnitLimitTag
	binary.LittleEndian.PutUint32(data[1:], units)
	return solana.NewInstruction(computeBudgetProgram, solana.AccountMetaSlice{}, data)
}

func computeUnitPriceInstruction(microLamports uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = setComputeUnitPriceTag
	binary.LittleEndian.PutUint64(data[1:], microLamports)
	return solana.NewInstruction(computeBudgetProgram, solana.AccountMetaSlice{}, data)
}

// createAssociatedTokenAccountIdempotentInstruction builds the ATA
// program's CreateIdempotent instruction (tag 1): a no-op if ata already
// exists, matching spec §4.3 step 3/4's "idempotent create" requirement.
func createAssociatedTokenAccountIdempotentInstruction(payer, owner, mint, ata solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		{PublicKey: payer, IsSigner: true, IsWritable: true},
		{PublicKey: ata, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: false, IsWritable: false},
		{PublicKey: mint, IsSigner: false, IsWritable: false},
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
	}
	return solana.NewInstruction(solana.SPLAssociatedTokenAccountProgramID, accounts, []byte{tokenProgramCreateAssociatedIdempotentTag})
}

func systemTransferInstruction(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	data := make([]byte, 12)
	binary.LittleEndian.PutUint32(data[0:4], 2) // system program Transfer instruction index
	binary.LittleEndian.PutUint64(data[4:], lamports)
	accounts := solana.AccountMetaSlice{
		{PublicKey: from, IsSigner: true, IsWritable: true},
		{PublicKey: to, IsSigner: false, IsWritable: true},
	}
	return solana.NewInstruction(solana.SystemProgramID, accounts, data)
}

func syncNativeInstruction(account solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		{PublicKey: account, IsSigner: false, IsWritable: true},
	}
	return solana.NewInstruction(solana.TokenProgramID, accounts, []byte{tokenProgramSyncNativeTag})
}

func closeAccountInstruction(account, destination, owner solana.PublicKey) solana.Instruction {
	accounts := solana.AccountMetaSlice{
		{PublicKey: account, IsSigner: false, IsWritable: true},
		{PublicKey: destination, IsSigner: false, IsWritable: true},
		{PublicKey: owner, IsSigner: true, IsWritable: false},
	}
	return solana.NewInstruction(solana.TokenProgramID, accounts, []byte{tokenProgramCloseAccountTag})
}

// raydiumSwapInstruction builds the 18-account swap-base-in instruction
// in the exact order required by spec §6.
func raydiumSwapInstruction(pool *models.PoolState, amountIn, minAmountOut uint64, userSource, userDest, user solana.PublicKey) solana.Instruction {
	data := make([]byte, 17)
	data[0] = raydiumSwapBaseInTag
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], minAmountOut)

	accounts := solana.AccountMetaSlice{
		{PublicKey: solana.TokenProgramID, IsSigner: false, IsWritable: false},
		{PublicKey: pool.PoolAddress, IsSigner: false, IsWritable: true},
		{PublicKey: AuthorityID, IsSigner: false, IsWritable: false},
		{PublicKey: pool.OpenOrders, IsSigner: false, IsWritable: true},
		{PublicKey: pool.TargetOrders, IsSigner: false, IsWritable: true},
		{PublicKey: pool.PoolCoinTokenAccount, IsSigner: false, IsWritable: true},
		{PublicKey: pool.PoolPcTokenAccount, IsSigner: false, IsWritable: true},
		{PublicKey: pool.SerumProgram, IsSigner: false, IsWritable: false},
		{PublicKey: pool.Market, IsSigner: false, IsWritable: true},
		{PublicKey: pool.MarketBids, IsSigner: false, IsWritable: true},
		{PublicKey: pool.MarketAsks, IsSigner: false, IsWritable: true},
		{PublicKey: pool.MarketEventQueue, IsSigner: false, IsWritable: true},
		{PublicKey: pool.MarketBaseVault, IsSigner: false, IsWritable: true},
		{PublicKey: pool.MarketQuoteVault, IsSigner: false, IsWritable: true},
		{PublicKey: pool.MarketVaultSigner, IsSigner: false, IsWritable: false},
		{PublicKey: userSource, IsSigner: false, IsWritable: true},
		{PublicKey: userDest, IsSigner: false, IsWritable: true},
		{PublicKey: user, IsSigner: true, IsWritable: false},
	}
	return solana.NewInstruction(ProgramID, accounts, data)
}
