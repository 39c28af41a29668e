package spool

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	// StakeAccountSize is the byte size of a stake program account. It is the
	// input to the rent-exemption query backing every transient account top-up.
	StakeAccountSize = 200

	// ValidatorStakeInfoSize is the packed byte size of one validator list entry
	ValidatorStakeInfoSize = 73

	// MaxValidatorsToUpdate is how many (validator, transient) stake pairs fit
	// into a single UpdateValidatorListBalance transaction
	MaxValidatorsToUpdate = 5
)

// AccountType tags every pool program account so the two layouts cannot be
// confused when an account is fetched by address
type AccountType uint8

const (
	AccountTypeUninitialized AccountType = iota
	AccountTypeStakePool
	AccountTypeValidatorList
)

// StakeStatus is the lifecycle state of a validator list entry
type StakeStatus uint8

const (
	StakeStatusActive StakeStatus = iota
	StakeStatusDeactivatingTransient
	StakeStatusReadyForRemoval
)

func (s StakeStatus) String() string {
	switch s {
	case StakeStatusActive:
		return "active"
	case StakeStatusDeactivatingTransient:
		return "deactivating-transient"
	case StakeStatusReadyForRemoval:
		return "ready-for-removal"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// Fee is a protocol fee expressed as numerator/denominator. The denominator
// precedes the numerator on the wire.
type Fee struct {
	Denominator uint64
	Numerator   uint64
}

func (f *Fee) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	f.Denominator, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	f.Numerator, err = decoder.ReadUint64(bin.LE)
	return err
}

func (f *Fee) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint64(f.Denominator, bin.LE)
	if err != nil {
		return err
	}

	return encoder.WriteUint64(f.Numerator, bin.LE)
}

func (f Fee) String() string {
	if f.Denominator == 0 {
		return "0"
	}
	return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
}

// Lockup mirrors the stake program lockup constraint carried by the pool
type Lockup struct {
	UnixTimestamp int64
	Epoch         uint64
	Custodian     solana.PublicKey
}

func (l *Lockup) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	l.UnixTimestamp, err = decoder.ReadInt64(bin.LE)
	if err != nil {
		return err
	}

	l.Epoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	l.Custodian, err = readPublicKey(decoder)
	return err
}

func (l *Lockup) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteInt64(l.UnixTimestamp, bin.LE)
	if err != nil {
		return err
	}

	err = encoder.WriteUint64(l.Epoch, bin.LE)
	if err != nil {
		return err
	}

	return encoder.WriteBytes(l.Custodian[:], false)
}

// StakePool is the main pool account. Field order matches the on-chain
// layout; optional fields are a 1-byte tag followed by the payload when set.
type StakePool struct {
	AccountType                AccountType
	Manager                    solana.PublicKey
	Staker                     solana.PublicKey
	StakeDepositAuthority      solana.PublicKey
	StakeWithdrawBumpSeed      uint8
	ValidatorList              solana.PublicKey
	ReserveStake               solana.PublicKey
	PoolMint                   solana.PublicKey
	ManagerFeeAccount          solana.PublicKey
	TokenProgramID             solana.PublicKey
	TotalLamports              uint64
	PoolTokenSupply            uint64
	LastUpdateEpoch            uint64
	Lockup                     Lockup
	EpochFee                   Fee
	NextEpochFee               *Fee
	PreferredDepositValidator  *solana.PublicKey
	PreferredWithdrawValidator *solana.PublicKey
	StakeDepositFee            Fee
	StakeWithdrawalFee         Fee
	NextStakeWithdrawalFee     *Fee
	StakeReferralFee           uint8
	SolDepositAuthority        *solana.PublicKey
	SolDepositFee              Fee
	SolReferralFee             uint8
	SolWithdrawAuthority       *solana.PublicKey
	SolWithdrawalFee           Fee
	NextSolWithdrawalFee       *Fee
	LastEpochPoolTokenSupply   uint64
	LastEpochTotalLamports     uint64
}

func (sp *StakePool) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	accountType, err := decoder.ReadUint8()
	if err != nil {
		return err
	}
	sp.AccountType = AccountType(accountType)

	sp.Manager, err = readPublicKey(decoder)
	if err != nil {
		return err
	}

	sp.Staker, err = readPublicKey(decoder)
	if err != nil {
		return err
	}

	sp.StakeDepositAuthority, err = readPublicKey(decoder)
	if err != nil {
		return err
	}

	sp.StakeWithdrawBumpSeed, err = decoder.ReadUint8()
	if err != nil {
		return err
	}

	sp.ValidatorList, err = readPublicKey(decoder)
	if err != nil {
		return err
	}

	sp.ReserveStake, err = readPublicKey(decoder)
	if err != nil {
		return err
	}

	sp.PoolMint, err = readPublicKey(decoder)
	if err != nil {
		return err
	}

	sp.ManagerFeeAccount, err = readPublicKey(decoder)
	if err != nil {
		return err
	}

	sp.TokenProgramID, err = readPublicKey(decoder)
	if err != nil {
		return err
	}

	sp.TotalLamports, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	sp.PoolTokenSupply, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	sp.LastUpdateEpoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	if err = sp.Lockup.UnmarshalWithDecoder(decoder); err != nil {
		return err
	}

	if err = sp.EpochFee.UnmarshalWithDecoder(decoder); err != nil {
		return err
	}

	sp.NextEpochFee, err = readOptionalFee(decoder)
	if err != nil {
		return err
	}

	sp.PreferredDepositValidator, err = readOptionalPublicKey(decoder)
	if err != nil {
		return err
	}

	sp.PreferredWithdrawValidator, err = readOptionalPublicKey(decoder)
	if err != nil {
		return err
	}

	if err = sp.StakeDepositFee.UnmarshalWithDecoder(decoder); err != nil {
		return err
	}

	if err = sp.StakeWithdrawalFee.UnmarshalWithDecoder(decoder); err != nil {
		return err
	}

	sp.NextStakeWithdrawalFee, err = readOptionalFee(decoder)
	if err != nil {
		return err
	}

	sp.StakeReferralFee, err = decoder.ReadUint8()
	if err != nil {
		return err
	}

	sp.SolDepositAuthority, err = readOptionalPublicKey(decoder)
	if err != nil {
		return err
	}

	if err = sp.SolDepositFee.UnmarshalWithDecoder(decoder); err != nil {
		return err
	}

	sp.SolReferralFee, err = decoder.ReadUint8()
	if err != nil {
		return err
	}

	sp.SolWithdrawAuthority, err = readOptionalPublicKey(decoder)
	if err != nil {
		return err
	}

	if err = sp.SolWithdrawalFee.UnmarshalWithDecoder(decoder); err != nil {
		return err
	}

	sp.NextSolWithdrawalFee, err = readOptionalFee(decoder)
	if err != nil {
		return err
	}

	sp.LastEpochPoolTokenSupply, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	sp.LastEpochTotalLamports, err = decoder.ReadUint64(bin.LE)
	return err
}

func (sp *StakePool) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint8(uint8(sp.AccountType))
	if err != nil {
		return err
	}

	for _, key := range []solana.PublicKey{sp.Manager, sp.Staker, sp.StakeDepositAuthority} {
		if err = encoder.WriteBytes(key[:], false); err != nil {
			return err
		}
	}

	if err = encoder.WriteUint8(sp.StakeWithdrawBumpSeed); err != nil {
		return err
	}

	for _, key := range []solana.PublicKey{sp.ValidatorList, sp.ReserveStake, sp.PoolMint, sp.ManagerFeeAccount, sp.TokenProgramID} {
		if err = encoder.WriteBytes(key[:], false); err != nil {
			return err
		}
	}

	for _, v := range []uint64{sp.TotalLamports, sp.PoolTokenSupply, sp.LastUpdateEpoch} {
		if err = encoder.WriteUint64(v, bin.LE); err != nil {
			return err
		}
	}

	if err = sp.Lockup.MarshalWithEncoder(encoder); err != nil {
		return err
	}

	if err = sp.EpochFee.MarshalWithEncoder(encoder); err != nil {
		return err
	}

	if err = writeOptionalFee(encoder, sp.NextEpochFee); err != nil {
		return err
	}

	if err = writeOptionalPublicKey(encoder, sp.PreferredDepositValidator); err != nil {
		return err
	}

	if err = writeOptionalPublicKey(encoder, sp.PreferredWithdrawValidator); err != nil {
		return err
	}

	if err = sp.StakeDepositFee.MarshalWithEncoder(encoder); err != nil {
		return err
	}

	if err = sp.StakeWithdrawalFee.MarshalWithEncoder(encoder); err != nil {
		return err
	}

	if err = writeOptionalFee(encoder, sp.NextStakeWithdrawalFee); err != nil {
		return err
	}

	if err = encoder.WriteUint8(sp.StakeReferralFee); err != nil {
		return err
	}

	if err = writeOptionalPublicKey(encoder, sp.SolDepositAuthority); err != nil {
		return err
	}

	if err = sp.SolDepositFee.MarshalWithEncoder(encoder); err != nil {
		return err
	}

	if err = encoder.WriteUint8(sp.SolReferralFee); err != nil {
		return err
	}

	if err = writeOptionalPublicKey(encoder, sp.SolWithdrawAuthority); err != nil {
		return err
	}

	if err = sp.SolWithdrawalFee.MarshalWithEncoder(encoder); err != nil {
		return err
	}

	if err = writeOptionalFee(encoder, sp.NextSolWithdrawalFee); err != nil {
		return err
	}

	if err = encoder.WriteUint64(sp.LastEpochPoolTokenSupply, bin.LE); err != nil {
		return err
	}

	return encoder.WriteUint64(sp.LastEpochTotalLamports, bin.LE)
}

// ValidatorStakeInfo is one validator list entry, 73 bytes on the wire
type ValidatorStakeInfo struct {
	ActiveStakeLamports    uint64
	TransientStakeLamports uint64
	LastUpdateEpoch        uint64
	TransientSeedSuffix    uint64
	Unused                 uint32
	ValidatorSeedSuffix    uint32 // 0 means the default derivation without a seed
	Status                 StakeStatus
	VoteAccountAddress     solana.PublicKey
}

// HasTransientStake reports whether lamports are in flight for this
// validator, which makes it ineligible for further moves until merged
func (v *ValidatorStakeInfo) HasTransientStake() bool {
	return v.TransientStakeLamports != 0
}

func (v *ValidatorStakeInfo) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	var err error
	v.ActiveStakeLamports, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	v.TransientStakeLamports, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	v.LastUpdateEpoch, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	v.TransientSeedSuffix, err = decoder.ReadUint64(bin.LE)
	if err != nil {
		return err
	}

	v.Unused, err = decoder.ReadUint32(bin.LE)
	if err != nil {
		return err
	}

	v.ValidatorSeedSuffix, err = decoder.ReadUint32(bin.LE)
	if err != nil {
		return err
	}

	status, err := decoder.ReadUint8()
	if err != nil {
		return err
	}
	v.Status = StakeStatus(status)

	v.VoteAccountAddress, err = readPublicKey(decoder)
	return err
}

func (v *ValidatorStakeInfo) MarshalWithEncoder(encoder *bin.Encoder) error {
	for _, val := range []uint64{v.ActiveStakeLamports, v.TransientStakeLamports, v.LastUpdateEpoch, v.TransientSeedSuffix} {
		if err := encoder.WriteUint64(val, bin.LE); err != nil {
			return err
		}
	}

	if err := encoder.WriteUint32(v.Unused, bin.LE); err != nil {
		return err
	}

	if err := encoder.WriteUint32(v.ValidatorSeedSuffix, bin.LE); err != nil {
		return err
	}

	if err := encoder.WriteUint8(uint8(v.Status)); err != nil {
		return err
	}

	return encoder.WriteBytes(v.VoteAccountAddress[:], false)
}

// ValidatorList is the companion account holding one entry per validator
type ValidatorList struct {
	AccountType   AccountType
	MaxValidators uint32
	Validators    []ValidatorStakeInfo
}

// Find returns the entry for the given vote account, or nil if absent
func (vl *ValidatorList) Find(voteAccount solana.PublicKey) *ValidatorStakeInfo {
	for i := range vl.Validators {
		if vl.Validators[i].VoteAccountAddress.Equals(voteAccount) {
			return &vl.Validators[i]
		}
	}
	return nil
}

func (vl *ValidatorList) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	accountType, err := decoder.ReadUint8()
	if err != nil {
		return err
	}
	vl.AccountType = AccountType(accountType)

	vl.MaxValidators, err = decoder.ReadUint32(bin.LE)
	if err != nil {
		return err
	}

	count, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return err
	}

	vl.Validators = make([]ValidatorStakeInfo, count)
	for i := range vl.Validators {
		if err = vl.Validators[i].UnmarshalWithDecoder(decoder); err != nil {
			return fmt.Errorf("failed to decode validator entry %d: %w", i, err)
		}
	}
	return nil
}

func (vl *ValidatorList) MarshalWithEncoder(encoder *bin.Encoder) error {
	err := encoder.WriteUint8(uint8(vl.AccountType))
	if err != nil {
		return err
	}

	if err = encoder.WriteUint32(vl.MaxValidators, bin.LE); err != nil {
		return err
	}

	if err = encoder.WriteUint32(uint32(len(vl.Validators)), bin.LE); err != nil {
		return err
	}

	for i := range vl.Validators {
		if err = vl.Validators[i].MarshalWithEncoder(encoder); err != nil {
			return err
		}
	}
	return nil
}

// ParseStakePool deserializes a stake pool account and validates its type tag
func ParseStakePool(data []byte) (*StakePool, error) {
	pool := new(StakePool)
	if err := pool.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return nil, fmt.Errorf("failed to deserialize stake pool: %w", err)
	}
	if pool.AccountType != AccountTypeStakePool {
		return nil, fmt.Errorf("unexpected account type %d, want stake pool", pool.AccountType)
	}
	return pool, nil
}

// ParseValidatorList deserializes a validator list account and validates its type tag
func ParseValidatorList(data []byte) (*ValidatorList, error) {
	list := new(ValidatorList)
	if err := list.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return nil, fmt.Errorf("failed to deserialize validator list: %w", err)
	}
	if list.AccountType != AccountTypeValidatorList {
		return nil, fmt.Errorf("unexpected account type %d, want validator list", list.AccountType)
	}
	return list, nil
}

func readPublicKey(decoder *bin.Decoder) (solana.PublicKey, error) {
	var key solana.PublicKey
	data, err := decoder.ReadBytes(solana.PublicKeyLength)
	if err != nil {
		return key, err
	}
	copy(key[:], data)
	return key, nil
}

func readOptionalPublicKey(decoder *bin.Decoder) (*solana.PublicKey, error) {
	tag, err := decoder.ReadUint8()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}

	key, err := readPublicKey(decoder)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func readOptionalFee(decoder *bin.Decoder) (*Fee, error) {
	tag, err := decoder.ReadUint8()
	if err != nil {
		return nil, err
	}
	if tag == 0 {
		return nil, nil
	}

	fee := new(Fee)
	if err = fee.UnmarshalWithDecoder(decoder); err != nil {
		return nil, err
	}
	return fee, nil
}

func writeOptionalPublicKey(encoder *bin.Encoder, key *solana.PublicKey) error {
	if key == nil {
		return encoder.WriteUint8(0)
	}
	if err := encoder.WriteUint8(1); err != nil {
		return err
	}
	return encoder.WriteBytes(key[:], false)
}

func writeOptionalFee(encoder *bin.Encoder, fee *Fee) error {
	if fee == nil {
		return encoder.WriteUint8(0)
	}
	if err := encoder.WriteUint8(1); err != nil {
		return err
	}
	return fee.MarshalWithEncoder(encoder)
}
