package spool

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

func TestIncreaseValidatorStakeInstruction(t *testing.T) {
	accounts := make([]solana.PublicKey, 8)
	for i := range accounts {
		accounts[i] = randKey()
	}
	ix := NewIncreaseValidatorStakeInstruction(
		1_000_000,
		7,
		accounts[0],
		accounts[1],
		accounts[2],
		accounts[3],
		accounts[4],
		accounts[5],
		accounts[6],
		accounts[7],
	)

	assert.Equal(t, ProgramID, ix.ProgramID())

	expected := []byte{InstructionIncreaseValidatorStake}
	expected = binary.LittleEndian.AppendUint64(expected, 1_000_000)
	expected = binary.LittleEndian.AppendUint64(expected, 7)
	assert.Equal(t, expected, instructionData(t, ix))

	metas := ix.Accounts()
	require.Len(t, metas, 14)

	// Staker signs, the list and lamport-moving accounts are writable, and
	// the validator stake account is read-only for an increase.
	assert.Equal(t, accounts[1], metas[1].PublicKey)
	assert.True(t, metas[1].IsSigner)
	assert.False(t, metas[1].IsWritable)
	assert.True(t, metas[3].IsWritable)
	assert.True(t, metas[4].IsWritable)
	assert.True(t, metas[5].IsWritable)
	assert.False(t, metas[6].IsWritable)
	assert.Equal(t, solana.StakeProgramID, metas[13].PublicKey)
}

func TestDecreaseValidatorStakeWithReserveInstruction(t *testing.T) {
	ix := NewDecreaseValidatorStakeWithReserveInstruction(
		2_500_000,
		11,
		randKey(),
		randKey(),
		randKey(),
		randKey(),
		randKey(),
		randKey(),
		randKey(),
	)

	expected := []byte{InstructionDecreaseValidatorStakeWithReserve}
	expected = binary.LittleEndian.AppendUint64(expected, 2_500_000)
	expected = binary.LittleEndian.AppendUint64(expected, 11)
	assert.Equal(t, expected, instructionData(t, ix))

	metas := ix.Accounts()
	require.Len(t, metas, 11)
	assert.True(t, metas[1].IsSigner)
	assert.True(t, metas[4].IsWritable) // reserve pays the transient rent
	assert.True(t, metas[5].IsWritable)
	assert.True(t, metas[6].IsWritable)
}

func TestIncreaseAdditionalValidatorStakeInstruction(t *testing.T) {
	ix := NewIncreaseAdditionalValidatorStakeInstruction(
		42,
		3,
		9,
		randKey(), randKey(), randKey(), randKey(),
		randKey(), randKey(), randKey(), randKey(), randKey(),
	)

	expected := []byte{InstructionIncreaseAdditionalValidatorStake}
	expected = binary.LittleEndian.AppendUint64(expected, 42)
	expected = binary.LittleEndian.AppendUint64(expected, 3)
	expected = binary.LittleEndian.AppendUint64(expected, 9)
	assert.Equal(t, expected, instructionData(t, ix))
	assert.Len(t, ix.Accounts(), 14)
}

func TestInitializeInstruction(t *testing.T) {
	epochFee := Fee{Denominator: 100, Numerator: 3}
	withdrawalFee := Fee{Denominator: 1000, Numerator: 2}
	depositFee := Fee{Denominator: 1000, Numerator: 1}

	ix := NewInitializeInstruction(
		epochFee, withdrawalFee, depositFee, 50, 1000,
		randKey(), randKey(), randKey(), randKey(),
		randKey(), randKey(), randKey(), randKey(),
		nil,
	)

	expected := []byte{InstructionInitialize}
	expected = binary.LittleEndian.AppendUint64(expected, 100)
	expected = binary.LittleEndian.AppendUint64(expected, 3)
	expected = binary.LittleEndian.AppendUint64(expected, 1000)
	expected = binary.LittleEndian.AppendUint64(expected, 2)
	expected = binary.LittleEndian.AppendUint64(expected, 1000)
	expected = binary.LittleEndian.AppendUint64(expected, 1)
	expected = append(expected, 50)
	expected = binary.LittleEndian.AppendUint32(expected, 1000)
	assert.Equal(t, expected, instructionData(t, ix))
	assert.Len(t, ix.Accounts(), 9)
}

func TestInitializeInstructionWithDepositAuthority(t *testing.T) {
	authority := randKey()
	ix := NewInitializeInstruction(
		Fee{}, Fee{}, Fee{}, 0, 10,
		randKey(), randKey(), randKey(), randKey(),
		randKey(), randKey(), randKey(), randKey(),
		&authority,
	)

	metas := ix.Accounts()
	require.Len(t, metas, 10)
	assert.Equal(t, authority, metas[9].PublicKey)
	assert.True(t, metas[9].IsSigner)
}

func TestUpdateValidatorListBalanceInstruction(t *testing.T) {
	pairs := []solana.PublicKey{randKey(), randKey(), randKey(), randKey()}
	ix := NewUpdateValidatorListBalanceInstruction(
		10,
		true,
		randKey(),
		randKey(),
		randKey(),
		randKey(),
		pairs,
	)

	expected := []byte{InstructionUpdateValidatorListBalance}
	expected = binary.LittleEndian.AppendUint32(expected, 10)
	expected = append(expected, 1)
	assert.Equal(t, expected, instructionData(t, ix))

	metas := ix.Accounts()
	require.Len(t, metas, 7+len(pairs))
	for i, pair := range pairs {
		assert.Equal(t, pair, metas[7+i].PublicKey)
		assert.True(t, metas[7+i].IsWritable)
	}
}

func TestUpdateStakePoolBalanceInstruction(t *testing.T) {
	pool := randKey()
	ix := NewUpdateStakePoolBalanceInstruction(
		pool, randKey(), randKey(), randKey(), randKey(), randKey())

	assert.Equal(t, []byte{InstructionUpdateStakePoolBalance}, instructionData(t, ix))

	metas := ix.Accounts()
	require.Len(t, metas, 7)
	assert.Equal(t, pool, metas[0].PublicKey)
	assert.True(t, metas[0].IsWritable)
	assert.Equal(t, solana.TokenProgramID, metas[6].PublicKey)
}

func TestCleanupRemovedValidatorEntriesInstruction(t *testing.T) {
	ix := NewCleanupRemovedValidatorEntriesInstruction(randKey(), randKey())

	assert.Equal(t, []byte{InstructionCleanupRemovedValidatorEntries}, instructionData(t, ix))
	require.Len(t, ix.Accounts(), 2)
	assert.True(t, ix.Accounts()[1].IsWritable)
}

func TestDepositSolInstruction(t *testing.T) {
	funding := randKey()
	ix := NewDepositSolInstruction(
		750_000,
		randKey(), randKey(), randKey(), funding,
		randKey(), randKey(), randKey(), randKey(),
		nil,
	)

	expected := []byte{InstructionDepositSol}
	expected = binary.LittleEndian.AppendUint64(expected, 750_000)
	assert.Equal(t, expected, instructionData(t, ix))

	metas := ix.Accounts()
	require.Len(t, metas, 10)
	assert.Equal(t, funding, metas[3].PublicKey)
	assert.True(t, metas[3].IsSigner)
	assert.True(t, metas[3].IsWritable)
}

func TestWithdrawSolInstructionOptionalAuthority(t *testing.T) {
	ix := NewWithdrawSolInstruction(
		1_000,
		randKey(), randKey(), randKey(), randKey(),
		randKey(), randKey(), randKey(), randKey(),
		nil,
	)
	assert.Len(t, ix.Accounts(), 12)

	authority := randKey()
	ix = NewWithdrawSolInstruction(
		1_000,
		randKey(), randKey(), randKey(), randKey(),
		randKey(), randKey(), randKey(), randKey(),
		&authority,
	)

	metas := ix.Accounts()
	require.Len(t, metas, 13)
	assert.Equal(t, authority, metas[12].PublicKey)
	assert.True(t, metas[12].IsSigner)
}

func TestWithdrawStakeInstruction(t *testing.T) {
	ix := NewWithdrawStakeInstruction(
		9_999,
		randKey(), randKey(), randKey(), randKey(), randKey(),
		randKey(), randKey(), randKey(), randKey(), randKey(),
	)

	expected := []byte{InstructionWithdrawStake}
	expected = binary.LittleEndian.AppendUint64(expected, 9_999)
	assert.Equal(t, expected, instructionData(t, ix))

	metas := ix.Accounts()
	require.Len(t, metas, 13)
	assert.True(t, metas[6].IsSigner) // transfer authority over the pool tokens
}

func TestDepositStakeInstruction(t *testing.T) {
	depositStake := randKey()
	ix := NewDepositStakeInstruction(
		randKey(), randKey(), randKey(), randKey(), depositStake,
		randKey(), randKey(), randKey(), randKey(), randKey(), randKey(),
	)

	assert.Equal(t, []byte{InstructionDepositStake}, instructionData(t, ix))

	metas := ix.Accounts()
	require.Len(t, metas, 15)
	assert.Equal(t, depositStake, metas[4].PublicKey)
	assert.True(t, metas[4].IsWritable)
	assert.Equal(t, solana.StakeProgramID, metas[14].PublicKey)
}

func TestLegacyDecreaseValidatorStakeInstruction(t *testing.T) {
	ix := NewDecreaseValidatorStakeInstruction(
		500_000,
		4,
		randKey(), randKey(), randKey(), randKey(), randKey(), randKey(),
	)

	expected := []byte{InstructionDecreaseValidatorStake}
	expected = binary.LittleEndian.AppendUint64(expected, 500_000)
	expected = binary.LittleEndian.AppendUint64(expected, 4)
	assert.Equal(t, expected, instructionData(t, ix))

	// The legacy variant carries no reserve account.
	metas := ix.Accounts()
	require.Len(t, metas, 10)
	assert.True(t, metas[1].IsSigner)
	assert.True(t, metas[4].IsWritable)
	assert.True(t, metas[5].IsWritable)
}

func TestDecreaseAdditionalValidatorStakeInstruction(t *testing.T) {
	ix := NewDecreaseAdditionalValidatorStakeInstruction(
		64,
		5,
		12,
		randKey(), randKey(), randKey(), randKey(),
		randKey(), randKey(), randKey(), randKey(),
	)

	expected := []byte{InstructionDecreaseAdditionalValidatorStake}
	expected = binary.LittleEndian.AppendUint64(expected, 64)
	expected = binary.LittleEndian.AppendUint64(expected, 5)
	expected = binary.LittleEndian.AppendUint64(expected, 12)
	assert.Equal(t, expected, instructionData(t, ix))

	// Unlike the increase variant there is no vote account or stake config.
	assert.Len(t, ix.Accounts(), 12)
}

func TestCreateTokenMetadataInstruction(t *testing.T) {
	ix := NewCreateTokenMetadataInstruction(
		"Pool Token", "POOL", "https://pool.example/meta.json",
		randKey(), randKey(), randKey(), randKey(), randKey(), randKey(),
	)

	expected := []byte{InstructionCreateTokenMetadata}
	for _, s := range []string{"Pool Token", "POOL", "https://pool.example/meta.json"} {
		expected = binary.LittleEndian.AppendUint32(expected, uint32(len(s)))
		expected = append(expected, s...)
	}
	assert.Equal(t, expected, instructionData(t, ix))

	metas := ix.Accounts()
	require.Len(t, metas, 8)
	// The manager signs and the payer funds the new metadata account.
	assert.True(t, metas[1].IsSigner)
	assert.True(t, metas[4].IsSigner && metas[4].IsWritable)
	assert.Equal(t, MetadataProgramID, metas[6].PublicKey)
}

func TestAddValidatorToPoolInstruction(t *testing.T) {
	vote := randKey()
	ix := NewAddValidatorToPoolInstruction(
		0,
		randKey(), randKey(), randKey(), randKey(), randKey(), randKey(), vote,
	)

	expected := []byte{InstructionAddValidatorToPool}
	expected = binary.LittleEndian.AppendUint32(expected, 0)
	assert.Equal(t, expected, instructionData(t, ix))

	metas := ix.Accounts()
	require.Len(t, metas, 13)
	assert.Equal(t, vote, metas[6].PublicKey)
	assert.Equal(t, StakeConfigID, metas[10].PublicKey)
}

func TestRemoveValidatorFromPoolInstruction(t *testing.T) {
	ix := NewRemoveValidatorFromPoolInstruction(
		randKey(), randKey(), randKey(), randKey(), randKey(), randKey())

	assert.Equal(t, []byte{InstructionRemoveValidatorFromPool}, instructionData(t, ix))
	require.Len(t, ix.Accounts(), 8)
	assert.True(t, ix.Accounts()[1].IsSigner)
}
