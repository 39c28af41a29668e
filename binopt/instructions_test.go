package binopt

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instructionData(t *testing.T, ix solana.Instruction) []byte {
	data, err := ix.Data()
	require.NoError(t, err)
	return data
}

func TestEscrowAuthorityPDA(t *testing.T) {
	longMint := randKey()
	shortMint := randKey()

	derived, bump, err := GetEscrowAuthorityPDA(longMint, shortMint)
	require.NoError(t, err)

	expected, expectedBump, err := solana.FindProgramAddress(
		[][]byte{
			longMint.Bytes(),
			shortMint.Bytes(),
			solana.TokenProgramID.Bytes(),
			ProgramID.Bytes(),
		}, ProgramID)
	require.NoError(t, err)
	assert.Equal(t, expected, derived)
	assert.Equal(t, expectedBump, bump)

	// Swapping the mints derives a different authority.
	swapped, _, err := GetEscrowAuthorityPDA(shortMint, longMint)
	require.NoError(t, err)
	assert.NotEqual(t, derived, swapped)
}

func TestInitializeInstruction(t *testing.T) {
	market := randKey()
	escrow := randKey()
	ix := NewInitializeInstruction(
		2, market, randKey(), escrow, randKey(), randKey(), randKey(), randKey())

	assert.Equal(t, ProgramID, ix.ProgramID())
	assert.Equal(t, []byte{InstructionInitialize, 2}, instructionData(t, ix))

	metas := ix.Accounts()
	require.Len(t, metas, 10)
	// Market and escrow are fresh accounts: both sign and both are written.
	assert.True(t, metas[0].IsSigner && metas[0].IsWritable)
	assert.True(t, metas[2].IsSigner && metas[2].IsWritable)
	// Mints and both authorities sign but are not written here.
	for _, i := range []int{3, 4, 5, 6} {
		assert.True(t, metas[i].IsSigner)
		assert.False(t, metas[i].IsWritable)
	}
	assert.Equal(t, solana.TokenProgramID, metas[7].PublicKey)
	assert.Equal(t, solana.SystemProgramID, metas[8].PublicKey)
	assert.Equal(t, solana.SysVarRentPubkey, metas[9].PublicKey)
}

func TestTradeInstruction(t *testing.T) {
	buyer := randKey()
	seller := randKey()
	ix := NewTradeInstruction(
		100, 35, 65,
		randKey(), randKey(), randKey(), randKey(),
		buyer, seller,
		randKey(), randKey(), randKey(), randKey(), randKey(), randKey(),
		randKey(),
	)

	expected := []byte{InstructionTrade}
	expected = binary.LittleEndian.AppendUint64(expected, 100)
	expected = binary.LittleEndian.AppendUint64(expected, 35)
	expected = binary.LittleEndian.AppendUint64(expected, 65)
	assert.Equal(t, expected, instructionData(t, ix))

	metas := ix.Accounts()
	require.Len(t, metas, 14)
	assert.Equal(t, buyer, metas[4].PublicKey)
	assert.Equal(t, seller, metas[5].PublicKey)
	assert.True(t, metas[4].IsSigner)
	assert.True(t, metas[5].IsSigner)
	// All six token accounts are written.
	for i := 6; i <= 11; i++ {
		assert.True(t, metas[i].IsWritable)
	}
	// The escrow authority is read-only on a trade.
	assert.False(t, metas[12].IsWritable)
	assert.Equal(t, solana.TokenProgramID, metas[13].PublicKey)
}

func TestSettleInstruction(t *testing.T) {
	market := randKey()
	winner := randKey()
	owner := randKey()
	ix := NewSettleInstruction(market, winner, owner)

	assert.Equal(t, []byte{InstructionSettle}, instructionData(t, ix))

	metas := ix.Accounts()
	require.Len(t, metas, 3)
	assert.True(t, metas[0].IsWritable)
	assert.Equal(t, winner, metas[1].PublicKey)
	assert.True(t, metas[2].IsSigner)
}

func TestCollectInstruction(t *testing.T) {
	ix := NewCollectInstruction(
		randKey(), randKey(), randKey(), randKey(), randKey(),
		randKey(), randKey(), randKey(), randKey(),
	)

	assert.Equal(t, []byte{InstructionCollect}, instructionData(t, ix))

	metas := ix.Accounts()
	require.Len(t, metas, 10)
	// The collector itself is read-only; its token accounts are written.
	assert.False(t, metas[1].IsWritable)
	for _, i := range []int{2, 3, 4, 5, 6, 7} {
		assert.True(t, metas[i].IsWritable)
	}
	// Unlike a trade, collect writes through the escrow authority.
	assert.True(t, metas[8].IsWritable)
}
