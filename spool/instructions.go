package spool

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Instruction discriminants, in on-chain enum order
const (
	InstructionInitialize uint8 = iota
	InstructionAddValidatorToPool
	InstructionRemoveValidatorFromPool
	InstructionDecreaseValidatorStake
	InstructionIncreaseValidatorStake
	InstructionSetPreferredValidator
	InstructionUpdateValidatorListBalance
	InstructionUpdateStakePoolBalance
	InstructionCleanupRemovedValidatorEntries
	InstructionDepositStake
	InstructionWithdrawStake
	InstructionSetManager
	InstructionSetFee
	InstructionSetStaker
	InstructionDepositSol
	InstructionSetFundingAuthority
	InstructionWithdrawSol
	InstructionCreateTokenMetadata
	InstructionUpdateTokenMetadata
	InstructionIncreaseAdditionalValidatorStake
	InstructionDecreaseAdditionalValidatorStake
	InstructionDecreaseValidatorStakeWithReserve
	InstructionRedelegate
)

func appendFee(data []byte, fee Fee) []byte {
	data = binary.LittleEndian.AppendUint64(data, fee.Denominator)
	return binary.LittleEndian.AppendUint64(data, fee.Numerator)
}

func appendString(data []byte, s string) []byte {
	data = binary.LittleEndian.AppendUint32(data, uint32(len(s)))
	return append(data, s...)
}

// NewInitializeInstruction bootstraps a new pool. A non-nil depositAuthority
// locks stake deposits behind an extra signer.
func NewInitializeInstruction(
	epochFee Fee,
	withdrawalFee Fee,
	depositFee Fee,
	referralFee uint8,
	maxValidators uint32,
	stakePool solana.PublicKey,
	manager solana.PublicKey,
	staker solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	validatorList solana.PublicKey,
	reserveStake solana.PublicKey,
	poolMint solana.PublicKey,
	managerFeeAccount solana.PublicKey,
	depositAuthority *solana.PublicKey,
) solana.Instruction {
	data := []byte{InstructionInitialize}
	data = appendFee(data, epochFee)
	data = appendFee(data, withdrawalFee)
	data = appendFee(data, depositFee)
	data = append(data, referralFee)
	data = binary.LittleEndian.AppendUint32(data, maxValidators)

	accounts := []*solana.AccountMeta{
		solana.Meta(stakePool).WRITE(),
		solana.Meta(manager).SIGNER(),
		solana.Meta(staker),
		solana.Meta(withdrawAuthority),
		solana.Meta(validatorList).WRITE(),
		solana.Meta(reserveStake),
		solana.Meta(poolMint).WRITE(),
		solana.Meta(managerFeeAccount).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}
	if depositAuthority != nil {
		accounts = append(accounts, solana.Meta(*depositAuthority).SIGNER())
	}
	return solana.NewInstruction(ProgramID, accounts, data)
}

// NewAddValidatorToPoolInstruction registers a vote account with the pool and
// creates its validator stake account. A non-zero seed selects a non-default
// stake account derivation.
func NewAddValidatorToPoolInstruction(
	seed uint32,
	stakePool solana.PublicKey,
	staker solana.PublicKey,
	reserveStake solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	validatorList solana.PublicKey,
	validatorStake solana.PublicKey,
	validatorVote solana.PublicKey,
) solana.Instruction {
	data := []byte{InstructionAddValidatorToPool}
	data = binary.LittleEndian.AppendUint32(data, seed)

	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(stakePool).WRITE(),
		solana.Meta(staker).SIGNER(),
		solana.Meta(reserveStake).WRITE(),
		solana.Meta(withdrawAuthority),
		solana.Meta(validatorList).WRITE(),
		solana.Meta(validatorStake).WRITE(),
		solana.Meta(validatorVote),
		solana.Meta(solana.SysVarRentPubkey),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
		solana.Meta(StakeConfigID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.StakeProgramID),
	}, data)
}

// NewRemoveValidatorFromPoolInstruction deregisters a vote account. The entry
// lingers as ready-for-removal until the next cleanup.
func NewRemoveValidatorFromPoolInstruction(
	stakePool solana.PublicKey,
	staker solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	validatorList solana.PublicKey,
	validatorStake solana.PublicKey,
	transientStake solana.PublicKey,
) solana.Instruction {
	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(stakePool).WRITE(),
		solana.Meta(staker).SIGNER(),
		solana.Meta(withdrawAuthority),
		solana.Meta(validatorList).WRITE(),
		solana.Meta(validatorStake).WRITE(),
		solana.Meta(transientStake).WRITE(),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.StakeProgramID),
	}, []byte{InstructionRemoveValidatorFromPool})
}

// NewIncreaseValidatorStakeInstruction moves lamports from the reserve into a
// fresh transient stake account delegated to the validator
func NewIncreaseValidatorStakeInstruction(
	lamports uint64,
	transientStakeSeed uint64,
	stakePool solana.PublicKey,
	staker solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	validatorList solana.PublicKey,
	reserveStake solana.PublicKey,
	transientStake solana.PublicKey,
	validatorStake solana.PublicKey,
	validatorVote solana.PublicKey,
) solana.Instruction {
	data := []byte{InstructionIncreaseValidatorStake}
	data = binary.LittleEndian.AppendUint64(data, lamports)
	data = binary.LittleEndian.AppendUint64(data, transientStakeSeed)

	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(stakePool),
		solana.Meta(staker).SIGNER(),
		solana.Meta(withdrawAuthority),
		solana.Meta(validatorList).WRITE(),
		solana.Meta(reserveStake).WRITE(),
		solana.Meta(transientStake).WRITE(),
		solana.Meta(validatorStake),
		solana.Meta(validatorVote),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarRentPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
		solana.Meta(StakeConfigID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.StakeProgramID),
	}, data)
}

// NewIncreaseAdditionalValidatorStakeInstruction tops up an in-flight
// transient increase through an ephemeral stake account
func NewIncreaseAdditionalValidatorStakeInstruction(
	lamports uint64,
	transientStakeSeed uint64,
	ephemeralStakeSeed uint64,
	stakePool solana.PublicKey,
	staker solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	validatorList solana.PublicKey,
	reserveStake solana.PublicKey,
	ephemeralStake solana.PublicKey,
	transientStake solana.PublicKey,
	validatorStake solana.PublicKey,
	validatorVote solana.PublicKey,
) solana.Instruction {
	data := []byte{InstructionIncreaseAdditionalValidatorStake}
	data = binary.LittleEndian.AppendUint64(data, lamports)
	data = binary.LittleEndian.AppendUint64(data, transientStakeSeed)
	data = binary.LittleEndian.AppendUint64(data, ephemeralStakeSeed)

	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(stakePool),
		solana.Meta(staker).SIGNER(),
		solana.Meta(withdrawAuthority),
		solana.Meta(validatorList).WRITE(),
		solana.Meta(reserveStake).WRITE(),
		solana.Meta(ephemeralStake).WRITE(),
		solana.Meta(transientStake).WRITE(),
		solana.Meta(validatorStake),
		solana.Meta(validatorVote),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
		solana.Meta(StakeConfigID),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.StakeProgramID),
	}, data)
}

// NewDecreaseValidatorStakeInstruction is the legacy decrease that splits
// rent from the validator stake account itself. Kept for completeness; new
// code should prefer the WithReserve variant.
func NewDecreaseValidatorStakeInstruction(
	lamports uint64,
	transientStakeSeed uint64,
	stakePool solana.PublicKey,
	staker solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	validatorList solana.PublicKey,
	validatorStake solana.PublicKey,
	transientStake solana.PublicKey,
) solana.Instruction {
	data := []byte{InstructionDecreaseValidatorStake}
	data = binary.LittleEndian.AppendUint64(data, lamports)
	data = binary.LittleEndian.AppendUint64(data, transientStakeSeed)

	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(stakePool),
		solana.Meta(staker).SIGNER(),
		solana.Meta(withdrawAuthority),
		solana.Meta(validatorList).WRITE(),
		solana.Meta(validatorStake).WRITE(),
		solana.Meta(transientStake).WRITE(),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarRentPubkey),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.StakeProgramID),
	}, data)
}

// NewDecreaseValidatorStakeWithReserveInstruction splits lamports from a
// validator stake account into a transient account, paying the transient rent
// from the reserve
func NewDecreaseValidatorStakeWithReserveInstruction(
	lamports uint64,
	transientStakeSeed uint64,
	stakePool solana.PublicKey,
	staker solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	validatorList solana.PublicKey,
	reserveStake solana.PublicKey,
	validatorStake solana.PublicKey,
	transientStake solana.PublicKey,
) solana.Instruction {
	data := []byte{InstructionDecreaseValidatorStakeWithReserve}
	data = binary.LittleEndian.AppendUint64(data, lamports)
	data = binary.LittleEndian.AppendUint64(data, transientStakeSeed)

	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(stakePool),
		solana.Meta(staker).SIGNER(),
		solana.Meta(withdrawAuthority),
		solana.Meta(validatorList).WRITE(),
		solana.Meta(reserveStake).WRITE(),
		solana.Meta(validatorStake).WRITE(),
		solana.Meta(transientStake).WRITE(),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.StakeProgramID),
	}, data)
}

// NewDecreaseAdditionalValidatorStakeInstruction tops up an in-flight
// transient decrease through an ephemeral stake account
func NewDecreaseAdditionalValidatorStakeInstruction(
	lamports uint64,
	transientStakeSeed uint64,
	ephemeralStakeSeed uint64,
	stakePool solana.PublicKey,
	staker solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	validatorList solana.PublicKey,
	reserveStake solana.PublicKey,
	validatorStake solana.PublicKey,
	ephemeralStake solana.PublicKey,
	transientStake solana.PublicKey,
) solana.Instruction {
	data := []byte{InstructionDecreaseAdditionalValidatorStake}
	data = binary.LittleEndian.AppendUint64(data, lamports)
	data = binary.LittleEndian.AppendUint64(data, transientStakeSeed)
	data = binary.LittleEndian.AppendUint64(data, ephemeralStakeSeed)

	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(stakePool),
		solana.Meta(staker).SIGNER(),
		solana.Meta(withdrawAuthority),
		solana.Meta(validatorList).WRITE(),
		solana.Meta(reserveStake).WRITE(),
		solana.Meta(validatorStake).WRITE(),
		solana.Meta(ephemeralStake).WRITE(),
		solana.Meta(transientStake).WRITE(),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.StakeProgramID),
	}, data)
}

// NewUpdateValidatorListBalanceInstruction merges matured transient stake for
// a window of the validator list starting at startIndex. The pairs slice
// interleaves each validator stake account with its transient account.
func NewUpdateValidatorListBalanceInstruction(
	startIndex uint32,
	noMerge bool,
	stakePool solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	validatorList solana.PublicKey,
	reserveStake solana.PublicKey,
	validatorAndTransientStakePairs []solana.PublicKey,
) solana.Instruction {
	data := []byte{InstructionUpdateValidatorListBalance}
	data = binary.LittleEndian.AppendUint32(data, startIndex)
	if noMerge {
		data = append(data, 1)
	} else {
		data = append(data, 0)
	}

	accounts := []*solana.AccountMeta{
		solana.Meta(stakePool),
		solana.Meta(withdrawAuthority),
		solana.Meta(validatorList).WRITE(),
		solana.Meta(reserveStake).WRITE(),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
		solana.Meta(solana.StakeProgramID),
	}
	for _, pair := range validatorAndTransientStakePairs {
		accounts = append(accounts, solana.Meta(pair).WRITE())
	}
	return solana.NewInstruction(ProgramID, accounts, data)
}

// NewUpdateStakePoolBalanceInstruction recomputes the pool totals and mints
// the epoch fee after the validator list has been brought current
func NewUpdateStakePoolBalanceInstruction(
	stakePool solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	validatorList solana.PublicKey,
	reserveStake solana.PublicKey,
	managerFeeAccount solana.PublicKey,
	poolMint solana.PublicKey,
) solana.Instruction {
	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(stakePool).WRITE(),
		solana.Meta(withdrawAuthority),
		solana.Meta(validatorList).WRITE(),
		solana.Meta(reserveStake),
		solana.Meta(managerFeeAccount).WRITE(),
		solana.Meta(poolMint).WRITE(),
		solana.Meta(solana.TokenProgramID),
	}, []byte{InstructionUpdateStakePoolBalance})
}

// NewCleanupRemovedValidatorEntriesInstruction drops ready-for-removal
// entries from the validator list
func NewCleanupRemovedValidatorEntriesInstruction(
	stakePool solana.PublicKey,
	validatorList solana.PublicKey,
) solana.Instruction {
	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(stakePool),
		solana.Meta(validatorList).WRITE(),
	}, []byte{InstructionCleanupRemovedValidatorEntries})
}

// NewDepositStakeInstruction deposits an active stake account in exchange for
// pool tokens
func NewDepositStakeInstruction(
	stakePool solana.PublicKey,
	validatorList solana.PublicKey,
	depositAuthority solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	depositStake solana.PublicKey,
	validatorStake solana.PublicKey,
	reserveStake solana.PublicKey,
	destinationPoolAccount solana.PublicKey,
	managerFeeAccount solana.PublicKey,
	referralPoolAccount solana.PublicKey,
	poolMint solana.PublicKey,
) solana.Instruction {
	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(stakePool).WRITE(),
		solana.Meta(validatorList).WRITE(),
		solana.Meta(depositAuthority),
		solana.Meta(withdrawAuthority),
		solana.Meta(depositStake).WRITE(),
		solana.Meta(validatorStake).WRITE(),
		solana.Meta(reserveStake).WRITE(),
		solana.Meta(destinationPoolAccount).WRITE(),
		solana.Meta(managerFeeAccount).WRITE(),
		solana.Meta(referralPoolAccount).WRITE(),
		solana.Meta(poolMint).WRITE(),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.StakeProgramID),
	}, []byte{InstructionDepositStake})
}

// NewWithdrawStakeInstruction burns pool tokens and splits active stake from
// a validator into a caller-owned stake account
func NewWithdrawStakeInstruction(
	amount uint64,
	stakePool solana.PublicKey,
	validatorList solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	validatorStake solana.PublicKey,
	destinationStake solana.PublicKey,
	destinationStakeAuthority solana.PublicKey,
	sourceTransferAuthority solana.PublicKey,
	sourcePoolAccount solana.PublicKey,
	managerFeeAccount solana.PublicKey,
	poolMint solana.PublicKey,
) solana.Instruction {
	data := []byte{InstructionWithdrawStake}
	data = binary.LittleEndian.AppendUint64(data, amount)

	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(stakePool).WRITE(),
		solana.Meta(validatorList).WRITE(),
		solana.Meta(withdrawAuthority),
		solana.Meta(validatorStake).WRITE(),
		solana.Meta(destinationStake).WRITE(),
		solana.Meta(destinationStakeAuthority),
		solana.Meta(sourceTransferAuthority).SIGNER(),
		solana.Meta(sourcePoolAccount).WRITE(),
		solana.Meta(managerFeeAccount).WRITE(),
		solana.Meta(poolMint).WRITE(),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.TokenProgramID),
		solana.Meta(solana.StakeProgramID),
	}, data)
}

// NewDepositSolInstruction swaps lamports for pool tokens via the reserve. A
// non-nil depositAuthority must co-sign when the pool restricts SOL deposits.
func NewDepositSolInstruction(
	amount uint64,
	stakePool solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	reserveStake solana.PublicKey,
	fundingAccount solana.PublicKey,
	destinationPoolAccount solana.PublicKey,
	managerFeeAccount solana.PublicKey,
	referralPoolAccount solana.PublicKey,
	poolMint solana.PublicKey,
	depositAuthority *solana.PublicKey,
) solana.Instruction {
	data := []byte{InstructionDepositSol}
	data = binary.LittleEndian.AppendUint64(data, amount)

	accounts := []*solana.AccountMeta{
		solana.Meta(stakePool).WRITE(),
		solana.Meta(withdrawAuthority),
		solana.Meta(reserveStake).WRITE(),
		solana.Meta(fundingAccount).WRITE().SIGNER(),
		solana.Meta(destinationPoolAccount).WRITE(),
		solana.Meta(managerFeeAccount).WRITE(),
		solana.Meta(referralPoolAccount).WRITE(),
		solana.Meta(poolMint).WRITE(),
		solana.Meta(solana.SystemProgramID),
		solana.Meta(solana.TokenProgramID),
	}
	if depositAuthority != nil {
		accounts = append(accounts, solana.Meta(*depositAuthority).SIGNER())
	}
	return solana.NewInstruction(ProgramID, accounts, data)
}

// NewWithdrawSolInstruction burns pool tokens for lamports paid straight from
// the reserve
func NewWithdrawSolInstruction(
	amount uint64,
	stakePool solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	sourceTransferAuthority solana.PublicKey,
	sourcePoolAccount solana.PublicKey,
	reserveStake solana.PublicKey,
	destinationSystemAccount solana.PublicKey,
	managerFeeAccount solana.PublicKey,
	poolMint solana.PublicKey,
	solWithdrawAuthority *solana.PublicKey,
) solana.Instruction {
	data := []byte{InstructionWithdrawSol}
	data = binary.LittleEndian.AppendUint64(data, amount)

	accounts := []*solana.AccountMeta{
		solana.Meta(stakePool).WRITE(),
		solana.Meta(withdrawAuthority),
		solana.Meta(sourceTransferAuthority).SIGNER(),
		solana.Meta(sourcePoolAccount).WRITE(),
		solana.Meta(reserveStake).WRITE(),
		solana.Meta(destinationSystemAccount).WRITE(),
		solana.Meta(managerFeeAccount).WRITE(),
		solana.Meta(poolMint).WRITE(),
		solana.Meta(solana.SysVarClockPubkey),
		solana.Meta(solana.SysVarStakeHistoryPubkey),
		solana.Meta(solana.StakeProgramID),
		solana.Meta(solana.TokenProgramID),
	}
	if solWithdrawAuthority != nil {
		accounts = append(accounts, solana.Meta(*solWithdrawAuthority).SIGNER())
	}
	return solana.NewInstruction(ProgramID, accounts, data)
}

// NewCreateTokenMetadataInstruction creates the metadata account for the pool
// token mint
func NewCreateTokenMetadataInstruction(
	name string,
	symbol string,
	uri string,
	stakePool solana.PublicKey,
	manager solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	poolMint solana.PublicKey,
	payer solana.PublicKey,
	tokenMetadata solana.PublicKey,
) solana.Instruction {
	data := []byte{InstructionCreateTokenMetadata}
	data = appendString(data, name)
	data = appendString(data, symbol)
	data = appendString(data, uri)

	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(stakePool),
		solana.Meta(manager).SIGNER(),
		solana.Meta(withdrawAuthority),
		solana.Meta(poolMint),
		solana.Meta(payer).WRITE().SIGNER(),
		solana.Meta(tokenMetadata).WRITE(),
		solana.Meta(MetadataProgramID),
		solana.Meta(solana.SystemProgramID),
	}, data)
}

// NewUpdateTokenMetadataInstruction rewrites the pool token metadata fields
func NewUpdateTokenMetadataInstruction(
	name string,
	symbol string,
	uri string,
	stakePool solana.PublicKey,
	manager solana.PublicKey,
	withdrawAuthority solana.PublicKey,
	tokenMetadata solana.PublicKey,
) solana.Instruction {
	data := []byte{InstructionUpdateTokenMetadata}
	data = appendString(data, name)
	data = appendString(data, symbol)
	data = appendString(data, uri)

	return solana.NewInstruction(ProgramID, []*solana.AccountMeta{
		solana.Meta(stakePool),
		solana.Meta(manager).SIGNER(),
		solana.Meta(withdrawAuthority),
		solana.Meta(tokenMetadata).WRITE(),
		solana.Meta(MetadataProgramID),
	}, data)
}
