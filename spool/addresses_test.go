package spool

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithdrawAuthorityPDA(t *testing.T) {
	pool := randKey()

	derived, bump, err := GetWithdrawAuthorityPDA(pool)
	require.NoError(t, err)

	expected, expectedBump, err := solana.FindProgramAddress(
		[][]byte{pool.Bytes(), []byte("withdraw")}, ProgramID)
	require.NoError(t, err)
	assert.Equal(t, expected, derived)
	assert.Equal(t, expectedBump, bump)

	other, _, err := GetWithdrawAuthorityPDA(randKey())
	require.NoError(t, err)
	assert.NotEqual(t, derived, other)
}

func TestDepositAuthorityPDA(t *testing.T) {
	pool := randKey()

	derived, _, err := GetDepositAuthorityPDA(pool)
	require.NoError(t, err)

	expected, _, err := solana.FindProgramAddress(
		[][]byte{pool.Bytes(), []byte("deposit")}, ProgramID)
	require.NoError(t, err)
	assert.Equal(t, expected, derived)

	withdraw, _, err := GetWithdrawAuthorityPDA(pool)
	require.NoError(t, err)
	assert.NotEqual(t, withdraw, derived)
}

func TestValidatorStakePDA(t *testing.T) {
	vote := randKey()
	pool := randKey()

	// Seed zero uses the bare two-seed derivation.
	derived, _, err := GetValidatorStakePDA(vote, pool, 0)
	require.NoError(t, err)

	expected, _, err := solana.FindProgramAddress(
		[][]byte{vote.Bytes(), pool.Bytes()}, ProgramID)
	require.NoError(t, err)
	assert.Equal(t, expected, derived)

	// A non-zero seed appends its little-endian bytes as a third seed.
	seeded, _, err := GetValidatorStakePDA(vote, pool, 7)
	require.NoError(t, err)
	assert.NotEqual(t, derived, seeded)

	expectedSeeded, _, err := solana.FindProgramAddress(
		[][]byte{vote.Bytes(), pool.Bytes(), binary.LittleEndian.AppendUint32(nil, 7)}, ProgramID)
	require.NoError(t, err)
	assert.Equal(t, expectedSeeded, seeded)
}

func TestTransientStakePDA(t *testing.T) {
	vote := randKey()
	pool := randKey()

	derived, _, err := GetTransientStakePDA(vote, pool, 3)
	require.NoError(t, err)

	expected, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("transient"),
			vote.Bytes(),
			pool.Bytes(),
			binary.LittleEndian.AppendUint64(nil, 3),
		}, ProgramID)
	require.NoError(t, err)
	assert.Equal(t, expected, derived)

	next, _, err := GetTransientStakePDA(vote, pool, 4)
	require.NoError(t, err)
	assert.NotEqual(t, derived, next)
}

func TestEphemeralStakePDA(t *testing.T) {
	pool := randKey()

	derived, _, err := GetEphemeralStakePDA(pool, 0)
	require.NoError(t, err)

	expected, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("ephemeral"),
			pool.Bytes(),
			binary.LittleEndian.AppendUint64(nil, 0),
		}, ProgramID)
	require.NoError(t, err)
	assert.Equal(t, expected, derived)
}

func TestTokenMetadataPDA(t *testing.T) {
	mint := randKey()

	derived, _, err := GetTokenMetadataPDA(mint)
	require.NoError(t, err)

	expected, _, err := solana.FindProgramAddress(
		[][]byte{
			[]byte("metadata"),
			MetadataProgramID.Bytes(),
			mint.Bytes(),
		}, MetadataProgramID)
	require.NoError(t, err)
	assert.Equal(t, expected, derived)
}
