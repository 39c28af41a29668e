package spool

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

var (
	// ProgramID is the deployed stake pool program
	ProgramID = solana.MustPublicKeyFromBase58("SPoo1Ku8WFXoNDMHPsrGSTSG1Y47rzgn41SLUNakuHy")

	// MetadataProgramID is the token metadata program targeted by the pool
	// token metadata instructions
	MetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

	// StakeConfigID is the legacy stake config account the stake program still
	// expects in its instruction account lists
	StakeConfigID = solana.MustPublicKeyFromBase58("StakeConfig11111111111111111111111111111111")
)

// GetWithdrawAuthorityPDA returns the pool's withdraw authority, the signer
// for every stake account the pool controls
func GetWithdrawAuthorityPDA(pool solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{
			pool.Bytes(),
			[]byte("withdraw"),
		},
		ProgramID,
	)
}

// GetDepositAuthorityPDA returns the pool's default stake deposit authority
func GetDepositAuthorityPDA(pool solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{
			pool.Bytes(),
			[]byte("deposit"),
		},
		ProgramID,
	)
}

// GetValidatorStakePDA returns the pool's stake account for a vote account.
// A non-zero seed selects a non-default derivation and must match the
// validator_seed_suffix stored in the validator list entry.
func GetValidatorStakePDA(voteAccount, pool solana.PublicKey, seed uint32) (solana.PublicKey, uint8, error) {
	seeds := [][]byte{
		voteAccount.Bytes(),
		pool.Bytes(),
	}
	if seed != 0 {
		seeds = append(seeds, binary.LittleEndian.AppendUint32(nil, seed))
	}
	return solana.FindProgramAddress(seeds, ProgramID)
}

// GetTransientStakePDA returns the transient stake account a rebalance moves
// lamports through for the given vote account and seed suffix
func GetTransientStakePDA(voteAccount, pool solana.PublicKey, seed uint64) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{
			[]byte("transient"),
			voteAccount.Bytes(),
			pool.Bytes(),
			binary.LittleEndian.AppendUint64(nil, seed),
		},
		ProgramID,
	)
}

// GetEphemeralStakePDA returns the scratch stake account used by the
// additional increase/decrease instructions to top up an in-flight transient
func GetEphemeralStakePDA(pool solana.PublicKey, seed uint64) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{
			[]byte("ephemeral"),
			pool.Bytes(),
			binary.LittleEndian.AppendUint64(nil, seed),
		},
		ProgramID,
	)
}

// GetTokenMetadataPDA returns the metadata account for the pool token mint
func GetTokenMetadataPDA(mint solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{
			[]byte("metadata"),
			MetadataProgramID.Bytes(),
			mint.Bytes(),
		},
		MetadataProgramID,
	)
}
