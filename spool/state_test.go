package spool

import (
	"bytes"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

type wireMarshaler interface {
	MarshalWithEncoder(encoder *bin.Encoder) error
}

func encodeWire(t *testing.T, m wireMarshaler) []byte {
	buf := new(bytes.Buffer)
	require.NoError(t, m.MarshalWithEncoder(bin.NewBorshEncoder(buf)))
	return buf.Bytes()
}

func samplePool() *StakePool {
	return &StakePool{
		AccountType:           AccountTypeStakePool,
		Manager:               randKey(),
		Staker:                randKey(),
		StakeDepositAuthority: randKey(),
		StakeWithdrawBumpSeed: 253,
		ValidatorList:         randKey(),
		ReserveStake:          randKey(),
		PoolMint:              randKey(),
		ManagerFeeAccount:     randKey(),
		TokenProgramID:        solana.TokenProgramID,
		TotalLamports:         5_000_000_000,
		PoolTokenSupply:       4_900_000_000,
		LastUpdateEpoch:       612,
		Lockup: Lockup{
			UnixTimestamp: 1_700_000_000,
			Epoch:         600,
			Custodian:     randKey(),
		},
		EpochFee:                 Fee{Denominator: 100, Numerator: 3},
		StakeDepositFee:          Fee{Denominator: 1000, Numerator: 1},
		StakeWithdrawalFee:       Fee{Denominator: 1000, Numerator: 2},
		StakeReferralFee:         50,
		SolDepositFee:            Fee{Denominator: 1000, Numerator: 1},
		SolReferralFee:           25,
		SolWithdrawalFee:         Fee{Denominator: 1000, Numerator: 3},
		LastEpochPoolTokenSupply: 4_850_000_000,
		LastEpochTotalLamports:   4_950_000_000,
	}
}

func TestStakePoolRoundTrip(t *testing.T) {
	pool := samplePool()

	parsed, err := ParseStakePool(encodeWire(t, pool))
	require.NoError(t, err)
	assert.Equal(t, pool, parsed)
}

func TestStakePoolRoundTripWithOptionalFields(t *testing.T) {
	pool := samplePool()
	nextEpochFee := Fee{Denominator: 100, Numerator: 4}
	preferredDeposit := randKey()
	preferredWithdraw := randKey()
	nextStakeWithdrawalFee := Fee{Denominator: 1000, Numerator: 5}
	solDepositAuthority := randKey()
	solWithdrawAuthority := randKey()
	nextSolWithdrawalFee := Fee{Denominator: 1000, Numerator: 6}

	pool.NextEpochFee = &nextEpochFee
	pool.PreferredDepositValidator = &preferredDeposit
	pool.PreferredWithdrawValidator = &preferredWithdraw
	pool.NextStakeWithdrawalFee = &nextStakeWithdrawalFee
	pool.SolDepositAuthority = &solDepositAuthority
	pool.SolWithdrawAuthority = &solWithdrawAuthority
	pool.NextSolWithdrawalFee = &nextSolWithdrawalFee

	parsed, err := ParseStakePool(encodeWire(t, pool))
	require.NoError(t, err)
	assert.Equal(t, pool, parsed)
}

func TestParseStakePoolRejectsWrongAccountType(t *testing.T) {
	data := encodeWire(t, samplePool())
	data[0] = uint8(AccountTypeUninitialized)

	_, err := ParseStakePool(data)
	assert.ErrorContains(t, err, "unexpected account type")
}

func TestParseStakePoolTruncated(t *testing.T) {
	data := encodeWire(t, samplePool())

	_, err := ParseStakePool(data[:40])
	assert.Error(t, err)
}

func TestValidatorListRoundTrip(t *testing.T) {
	list := &ValidatorList{
		AccountType:   AccountTypeValidatorList,
		MaxValidators: 100,
		Validators: []ValidatorStakeInfo{
			{
				ActiveStakeLamports:    1_000_000_000,
				TransientStakeLamports: 0,
				LastUpdateEpoch:        612,
				TransientSeedSuffix:    4,
				Status:                 StakeStatusActive,
				VoteAccountAddress:     randKey(),
			},
			{
				ActiveStakeLamports:    0,
				TransientStakeLamports: 500_000_000,
				LastUpdateEpoch:        611,
				TransientSeedSuffix:    9,
				ValidatorSeedSuffix:    2,
				Status:                 StakeStatusDeactivatingTransient,
				VoteAccountAddress:     randKey(),
			},
		},
	}

	parsed, err := ParseValidatorList(encodeWire(t, list))
	require.NoError(t, err)
	assert.Equal(t, list, parsed)
}

func TestParseValidatorListRejectsStakePoolAccount(t *testing.T) {
	_, err := ParseValidatorList(encodeWire(t, samplePool()))
	assert.ErrorContains(t, err, "unexpected account type")
}

func TestValidatorListFind(t *testing.T) {
	wanted := randKey()
	list := &ValidatorList{
		AccountType: AccountTypeValidatorList,
		Validators: []ValidatorStakeInfo{
			{VoteAccountAddress: randKey()},
			{VoteAccountAddress: wanted, ActiveStakeLamports: 42},
			{VoteAccountAddress: randKey()},
		},
	}

	entry := list.Find(wanted)
	require.NotNil(t, entry)
	assert.Equal(t, uint64(42), entry.ActiveStakeLamports)
	assert.Same(t, &list.Validators[1], entry)

	assert.Nil(t, list.Find(randKey()))
}

func TestValidatorStakeInfoWireSize(t *testing.T) {
	entry := &ValidatorStakeInfo{
		ActiveStakeLamports: 1,
		TransientSeedSuffix: 2,
		VoteAccountAddress:  randKey(),
	}
	assert.Len(t, encodeWire(t, entry), ValidatorStakeInfoSize)
}

func TestHasTransientStake(t *testing.T) {
	entry := &ValidatorStakeInfo{}
	assert.False(t, entry.HasTransientStake())

	entry.TransientStakeLamports = 1
	assert.True(t, entry.HasTransientStake())
}

func TestStakeStatusString(t *testing.T) {
	assert.Equal(t, "active", StakeStatusActive.String())
	assert.Equal(t, "deactivating-transient", StakeStatusDeactivatingTransient.String())
	assert.Equal(t, "ready-for-removal", StakeStatusReadyForRemoval.String())
	assert.Equal(t, "unknown(9)", StakeStatus(9).String())
}

func TestFeeString(t *testing.T) {
	assert.Equal(t, "3/100", Fee{Denominator: 100, Numerator: 3}.String())
	assert.Equal(t, "0", Fee{}.String())
}
