package binopt

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Instruction discriminants, in on-chain enum order
const (
	InstructionInitialize uint8 = iota
	InstructionTrade
	InstructionSettle
	InstructionCollect
)

// NewInitializeInstruction creates a market. The market, escrow, and both
// mint accounts are fresh keypairs and must co-sign alongside the
// mint and update authorities.
func NewInitializeInstruction(
	decimals uint8,
	market solana.PublicKey,
	escrowMint solana.PublicKey,
	escrow solana.PublicKey,
	longMint solana.PublicKey,
	shortMint solana.PublicKey,
	mintAuthority solana.PublicKey,
	updateAuthority solana.PublicKey,
) solana.Instruction {
	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(market).WRITE().SIGNER(),
		solana.Meta(escrowMint),
		solana.Meta(escrow).WRITE().SIGNER(),
		solana.Meta(longMint).SIGNER(),
		solana.Meta(shortMint).SIGNER(),
		solana.Meta(mintAuthority).SIGNER(),
		solana.Meta(updateAuthority).SIGNER(),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.SysVarRentPubkey),
	}, []byte{InstructionInitialize, decimals})
}

// NewTradeInstruction crosses a buyer and a seller at complementary prices.
// Collateral moves into the escrow and matching long/short tokens are minted
// to both sides.
func NewTradeInstruction(
	size uint64,
	buyerPrice uint64,
	sellerPrice uint64,
	market solana.PublicKey,
	escrow solana.PublicKey,
	longMint solana.PublicKey,
	shortMint solana.PublicKey,
	buyer solana.PublicKey,
	seller solana.PublicKey,
	buyerCollateral solana.PublicKey,
	sellerCollateral solana.PublicKey,
	buyerLong solana.PublicKey,
	buyerShort solana.PublicKey,
	sellerLong solana.PublicKey,
	sellerShort solana.PublicKey,
	escrowAuthority solana.PublicKey,
) solana.Instruction {
	data := []byte{InstructionTrade}
	data = binary.LittleEndian.AppendUint64(data, size)
	data = binary.LittleEndian.AppendUint64(data, buyerPrice)
	data = binary.LittleEndian.AppendUint64(data, sellerPrice)

	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(market).WRITE(),
		solana.Meta(escrow).WRITE(),
		solana.Meta(longMint).WRITE(),
		solana.Meta(shortMint).WRITE(),
		solana.Meta(buyer).SIGNER(),
		solana.Meta(seller).SIGNER(),
		solana.Meta(buyerCollateral).WRITE(),
		solana.Meta(sellerCollateral).WRITE(),
		solana.Meta(buyerLong).WRITE(),
		solana.Meta(buyerShort).WRITE(),
		solana.Meta(sellerLong).WRITE(),
		solana.Meta(sellerShort).WRITE(),
		solana.Meta(escrowAuthority),
		solana.Meta(solana.TokenProgramID),
	}, data)
}

// NewSettleInstruction declares the winning side. Only the market owner may
// settle, and only once.
func NewSettleInstruction(
	market solana.PublicKey,
	winningMint solana.PublicKey,
	owner solana.PublicKey,
) solana.Instruction {
	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(market).WRITE(),
		solana.Meta(winningMint),
		solana.Meta(owner).SIGNER(),
	}, []byte{InstructionSettle})
}

// NewCollectInstruction redeems a collector's winning tokens for escrow
// collateral after settlement. Both token balances are burned either way.
func NewCollectInstruction(
	market solana.PublicKey,
	collector solana.PublicKey,
	collectorLong solana.PublicKey,
	collectorShort solana.PublicKey,
	collectorCollateral solana.PublicKey,
	longMint solana.PublicKey,
	shortMint solana.PublicKey,
	escrow solana.PublicKey,
	escrowAuthority solana.PublicKey,
) solana.Instruction {
	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(market).WRITE(),
		solana.Meta(collector),
		solana.Meta(collectorLong).WRITE(),
		solana.Meta(collectorShort).WRITE(),
		solana.Meta(collectorCollateral).WRITE(),
		solana.Meta(longMint).WRITE(),
		solana.Meta(shortMint).WRITE(),
		solana.Meta(escrow).WRITE(),
		solana.Meta(escrowAuthority).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}, []byte{InstructionCollect})
}
