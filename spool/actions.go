package spool

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
)

// resolveValidator loads the pool and the validator list entry for a vote
// account. Every stake move needs both: the pool for its account addresses
// and the entry for the current seed suffixes.
func (c *Client) resolveValidator(ctx context.Context, voteAccount solana.PublicKey) (*StakePool, *ValidatorStakeInfo, error) {
	pool, err := c.FetchStakePool(ctx)
	if err != nil {
		return nil, nil, err
	}

	list, err := c.FetchValidatorList(ctx, pool.ValidatorList)
	if err != nil {
		return nil, nil, err
	}

	entry := list.Find(voteAccount)
	if entry == nil {
		return nil, nil, fmt.Errorf("validator %s is not in the pool", voteAccount)
	}
	return pool, entry, nil
}

// IncreaseValidatorStake moves lamports from the reserve onto a validator
// through a fresh transient stake account. The transient seed is bumped past
// the recorded suffix so a retired transient address is never reused.
func (c *Client) IncreaseValidatorStake(ctx context.Context, voteAccount solana.PublicKey, lamports uint64) (solana.Signature, error) {
	// 1. Resolve the validator entry
	// ------------------------------
	pool, entry, err := c.resolveValidator(ctx, voteAccount)
	if err != nil {
		return solana.Signature{}, err
	}
	transientStakeSeed := entry.TransientSeedSuffix + 1

	// 2. Derive all required PDAs
	// ---------------------------
	withdrawAuthority, _, err := GetWithdrawAuthorityPDA(c.Pool)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get withdraw authority PDA: %w", err)
	}
	validatorStake, _, err := GetValidatorStakePDA(voteAccount, c.Pool, entry.ValidatorSeedSuffix)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get validator stake PDA: %w", err)
	}
	transientStake, _, err := GetTransientStakePDA(voteAccount, c.Pool, transientStakeSeed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get transient stake PDA: %w", err)
	}

	// 3. Build and send the transaction
	// ---------------------------------
	instruction := NewIncreaseValidatorStakeInstruction(
		lamports,
		transientStakeSeed,
		c.Pool,
		c.Signer.PublicKey(),
		withdrawAuthority,
		pool.ValidatorList,
		pool.ReserveStake,
		transientStake,
		validatorStake,
		voteAccount,
	)
	return c.sendTransaction(ctx, instruction)
}

// IncreaseAdditionalValidatorStake tops up an increase that is still in
// flight. It reuses the current transient seed and stages the lamports
// through an ephemeral stake account chosen by the caller.
func (c *Client) IncreaseAdditionalValidatorStake(ctx context.Context, voteAccount solana.PublicKey, lamports, ephemeralStakeSeed uint64) (solana.Signature, error) {
	// 1. Resolve the validator entry
	// ------------------------------
	pool, entry, err := c.resolveValidator(ctx, voteAccount)
	if err != nil {
		return solana.Signature{}, err
	}
	transientStakeSeed := entry.TransientSeedSuffix

	// 2. Derive all required PDAs
	// ---------------------------
	withdrawAuthority, _, err := GetWithdrawAuthorityPDA(c.Pool)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get withdraw authority PDA: %w", err)
	}
	validatorStake, _, err := GetValidatorStakePDA(voteAccount, c.Pool, entry.ValidatorSeedSuffix)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get validator stake PDA: %w", err)
	}
	transientStake, _, err := GetTransientStakePDA(voteAccount, c.Pool, transientStakeSeed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get transient stake PDA: %w", err)
	}
	ephemeralStake, _, err := GetEphemeralStakePDA(c.Pool, ephemeralStakeSeed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get ephemeral stake PDA: %w", err)
	}

	// 3. Build and send the transaction
	// ---------------------------------
	instruction := NewIncreaseAdditionalValidatorStakeInstruction(
		lamports,
		transientStakeSeed,
		ephemeralStakeSeed,
		c.Pool,
		c.Signer.PublicKey(),
		withdrawAuthority,
		pool.ValidatorList,
		pool.ReserveStake,
		ephemeralStake,
		transientStake,
		validatorStake,
		voteAccount,
	)
	return c.sendTransaction(ctx, instruction)
}

// DecreaseValidatorStake moves lamports off a validator into a fresh
// transient stake account, paying the transient rent from the reserve.
func (c *Client) DecreaseValidatorStake(ctx context.Context, voteAccount solana.PublicKey, lamports uint64) (solana.Signature, error) {
	// 1. Resolve the validator entry
	// ------------------------------
	pool, entry, err := c.resolveValidator(ctx, voteAccount)
	if err != nil {
		return solana.Signature{}, err
	}
	transientStakeSeed := entry.TransientSeedSuffix + 1

	// 2. Derive all required PDAs
	// ---------------------------
	withdrawAuthority, _, err := GetWithdrawAuthorityPDA(c.Pool)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get withdraw authority PDA: %w", err)
	}
	validatorStake, _, err := GetValidatorStakePDA(voteAccount, c.Pool, entry.ValidatorSeedSuffix)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get validator stake PDA: %w", err)
	}
	transientStake, _, err := GetTransientStakePDA(voteAccount, c.Pool, transientStakeSeed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get transient stake PDA: %w", err)
	}

	// 3. Build and send the transaction
	// ---------------------------------
	instruction := NewDecreaseValidatorStakeWithReserveInstruction(
		lamports,
		transientStakeSeed,
		c.Pool,
		c.Signer.PublicKey(),
		withdrawAuthority,
		pool.ValidatorList,
		pool.ReserveStake,
		validatorStake,
		transientStake,
	)
	return c.sendTransaction(ctx, instruction)
}

// DecreaseAdditionalValidatorStake tops up a decrease that is still in
// flight, staging through an ephemeral stake account.
func (c *Client) DecreaseAdditionalValidatorStake(ctx context.Context, voteAccount solana.PublicKey, lamports, ephemeralStakeSeed uint64) (solana.Signature, error) {
	// 1. Resolve the validator entry
	// ------------------------------
	pool, entry, err := c.resolveValidator(ctx, voteAccount)
	if err != nil {
		return solana.Signature{}, err
	}
	transientStakeSeed := entry.TransientSeedSuffix

	// 2. Derive all required PDAs
	// ---------------------------
	withdrawAuthority, _, err := GetWithdrawAuthorityPDA(c.Pool)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get withdraw authority PDA: %w", err)
	}
	validatorStake, _, err := GetValidatorStakePDA(voteAccount, c.Pool, entry.ValidatorSeedSuffix)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get validator stake PDA: %w", err)
	}
	transientStake, _, err := GetTransientStakePDA(voteAccount, c.Pool, transientStakeSeed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get transient stake PDA: %w", err)
	}
	ephemeralStake, _, err := GetEphemeralStakePDA(c.Pool, ephemeralStakeSeed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get ephemeral stake PDA: %w", err)
	}

	// 3. Build and send the transaction
	// ---------------------------------
	instruction := NewDecreaseAdditionalValidatorStakeInstruction(
		lamports,
		transientStakeSeed,
		ephemeralStakeSeed,
		c.Pool,
		c.Signer.PublicKey(),
		withdrawAuthority,
		pool.ValidatorList,
		pool.ReserveStake,
		validatorStake,
		ephemeralStake,
		transientStake,
	)
	return c.sendTransaction(ctx, instruction)
}

// UpdateStakePool brings every validator entry current for the epoch and then
// recomputes the pool totals. List windows go out as separate unconfirmed
// transactions, matching how validators are packed on chain; the balance
// update and cleanup ride together in a final confirmed transaction.
func (c *Client) UpdateStakePool(ctx context.Context, noMerge bool) ([]solana.Signature, error) {
	// 1. Fetch the pool and its validator list
	// ----------------------------------------
	pool, err := c.FetchStakePool(ctx)
	if err != nil {
		return nil, err
	}
	list, err := c.FetchValidatorList(ctx, pool.ValidatorList)
	if err != nil {
		return nil, err
	}

	withdrawAuthority, _, err := GetWithdrawAuthorityPDA(c.Pool)
	if err != nil {
		return nil, fmt.Errorf("failed to get withdraw authority PDA: %w", err)
	}

	// 2. Update the validator list in windows of MaxValidatorsToUpdate
	// ----------------------------------------------------------------
	var signatures []solana.Signature
	for start := 0; start < len(list.Validators); start += MaxValidatorsToUpdate {
		end := start + MaxValidatorsToUpdate
		if end > len(list.Validators) {
			end = len(list.Validators)
		}

		pairs := make([]solana.PublicKey, 0, 2*(end-start))
		for _, entry := range list.Validators[start:end] {
			validatorStake, _, err := GetValidatorStakePDA(entry.VoteAccountAddress, c.Pool, entry.ValidatorSeedSuffix)
			if err != nil {
				return signatures, fmt.Errorf("failed to get validator stake PDA: %w", err)
			}
			transientStake, _, err := GetTransientStakePDA(entry.VoteAccountAddress, c.Pool, entry.TransientSeedSuffix)
			if err != nil {
				return signatures, fmt.Errorf("failed to get transient stake PDA: %w", err)
			}
			pairs = append(pairs, validatorStake, transientStake)
		}

		instruction := NewUpdateValidatorListBalanceInstruction(
			uint32(start),
			noMerge,
			c.Pool,
			withdrawAuthority,
			pool.ValidatorList,
			pool.ReserveStake,
			pairs,
		)
		sig, err := c.sendTransaction(ctx, instruction)
		if err != nil {
			return signatures, fmt.Errorf("failed to update validator list window at %d: %w", start, err)
		}
		signatures = append(signatures, sig)
	}

	// 3. Recompute totals and drop removed entries
	// --------------------------------------------
	balanceInstruction := NewUpdateStakePoolBalanceInstruction(
		c.Pool,
		withdrawAuthority,
		pool.ValidatorList,
		pool.ReserveStake,
		pool.ManagerFeeAccount,
		pool.PoolMint,
	)
	cleanupInstruction := NewCleanupRemovedValidatorEntriesInstruction(c.Pool, pool.ValidatorList)

	sig, err := c.sendTransaction(ctx, balanceInstruction, cleanupInstruction)
	if err != nil {
		return signatures, fmt.Errorf("failed to update stake pool balance: %w", err)
	}
	signatures = append(signatures, sig)

	if err := c.WaitForConfirmation(ctx, sig); err != nil {
		return signatures, err
	}
	return signatures, nil
}

// AddValidator registers a vote account with the pool, creating its validator
// stake account at the default derivation. Signer must be the pool staker.
func (c *Client) AddValidator(ctx context.Context, voteAccount solana.PublicKey) (solana.Signature, error) {
	pool, err := c.FetchStakePool(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	withdrawAuthority, _, err := GetWithdrawAuthorityPDA(c.Pool)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get withdraw authority PDA: %w", err)
	}
	validatorStake, _, err := GetValidatorStakePDA(voteAccount, c.Pool, 0)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get validator stake PDA: %w", err)
	}

	instruction := NewAddValidatorToPoolInstruction(
		0,
		c.Pool,
		c.Signer.PublicKey(),
		pool.ReserveStake,
		withdrawAuthority,
		pool.ValidatorList,
		validatorStake,
		voteAccount,
	)
	return c.sendTransaction(ctx, instruction)
}

// RemoveValidator deregisters a vote account from the pool. The entry is
// dropped from the list at the next cleanup after its stake deactivates.
func (c *Client) RemoveValidator(ctx context.Context, voteAccount solana.PublicKey) (solana.Signature, error) {
	pool, entry, err := c.resolveValidator(ctx, voteAccount)
	if err != nil {
		return solana.Signature{}, err
	}

	withdrawAuthority, _, err := GetWithdrawAuthorityPDA(c.Pool)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get withdraw authority PDA: %w", err)
	}
	validatorStake, _, err := GetValidatorStakePDA(voteAccount, c.Pool, entry.ValidatorSeedSuffix)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get validator stake PDA: %w", err)
	}
	transientStake, _, err := GetTransientStakePDA(voteAccount, c.Pool, entry.TransientSeedSuffix)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get transient stake PDA: %w", err)
	}

	instruction := NewRemoveValidatorFromPoolInstruction(
		c.Pool,
		c.Signer.PublicKey(),
		withdrawAuthority,
		pool.ValidatorList,
		validatorStake,
		transientStake,
	)
	return c.sendTransaction(ctx, instruction)
}

// DepositSol swaps lamports from the signer for pool tokens. The signer's
// associated token account for the pool mint is created on the fly when
// missing.
func (c *Client) DepositSol(ctx context.Context, lamports uint64) (solana.Signature, error) {
	pool, err := c.FetchStakePool(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	withdrawAuthority, _, err := GetWithdrawAuthorityPDA(c.Pool)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get withdraw authority PDA: %w", err)
	}

	var instructions []solana.Instruction
	destination, instructions, err := c.ensureAssociatedTokenAccount(ctx, instructions, c.Signer.PublicKey(), pool.PoolMint)
	if err != nil {
		return solana.Signature{}, err
	}

	instructions = append(instructions, NewDepositSolInstruction(
		lamports,
		c.Pool,
		withdrawAuthority,
		pool.ReserveStake,
		c.Signer.PublicKey(),
		destination,
		pool.ManagerFeeAccount,
		destination,
		pool.PoolMint,
		pool.SolDepositAuthority,
	))
	return c.sendTransaction(ctx, instructions...)
}

// WithdrawSol burns pool tokens from the signer's associated token account
// and pays lamports straight from the reserve.
func (c *Client) WithdrawSol(ctx context.Context, poolTokens uint64) (solana.Signature, error) {
	pool, err := c.FetchStakePool(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	withdrawAuthority, _, err := GetWithdrawAuthorityPDA(c.Pool)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get withdraw authority PDA: %w", err)
	}
	source, _, err := solana.FindAssociatedTokenAddress(c.Signer.PublicKey(), pool.PoolMint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to find associated token address: %w", err)
	}

	instruction := NewWithdrawSolInstruction(
		poolTokens,
		c.Pool,
		withdrawAuthority,
		c.Signer.PublicKey(),
		source,
		pool.ReserveStake,
		c.Signer.PublicKey(),
		pool.ManagerFeeAccount,
		pool.PoolMint,
		pool.SolWithdrawAuthority,
	)
	return c.sendTransaction(ctx, instruction)
}

// CreateTokenMetadata creates the metadata account for the pool token mint.
// Signer must be the pool manager and pays for the account.
func (c *Client) CreateTokenMetadata(ctx context.Context, name, symbol, uri string) (solana.Signature, error) {
	pool, err := c.FetchStakePool(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	withdrawAuthority, _, err := GetWithdrawAuthorityPDA(c.Pool)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get withdraw authority PDA: %w", err)
	}
	tokenMetadata, _, err := GetTokenMetadataPDA(pool.PoolMint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get token metadata PDA: %w", err)
	}

	instruction := NewCreateTokenMetadataInstruction(
		name,
		symbol,
		uri,
		c.Pool,
		c.Signer.PublicKey(),
		withdrawAuthority,
		pool.PoolMint,
		c.Signer.PublicKey(),
		tokenMetadata,
	)
	return c.sendTransaction(ctx, instruction)
}

// UpdateTokenMetadata rewrites the metadata fields of the pool token mint.
// Signer must be the pool manager.
func (c *Client) UpdateTokenMetadata(ctx context.Context, name, symbol, uri string) (solana.Signature, error) {
	pool, err := c.FetchStakePool(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	withdrawAuthority, _, err := GetWithdrawAuthorityPDA(c.Pool)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get withdraw authority PDA: %w", err)
	}
	tokenMetadata, _, err := GetTokenMetadataPDA(pool.PoolMint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get token metadata PDA: %w", err)
	}

	instruction := NewUpdateTokenMetadataInstruction(
		name,
		symbol,
		uri,
		c.Pool,
		c.Signer.PublicKey(),
		withdrawAuthority,
		tokenMetadata,
	)
	return c.sendTransaction(ctx, instruction)
}

// SendSol transfers lamports from the signer to the recipient.
func (c *Client) SendSol(ctx context.Context, recipient solana.PublicKey, amountLamports uint64) (solana.Signature, error) {
	instruction := system.NewTransferInstruction(
		amountLamports,
		c.Signer.PublicKey(),
		recipient,
	).Build()

	return c.sendTransaction(ctx, instruction)
}

// ensureAssociatedTokenAccount resolves the owner's ATA for mint, appending a
// create instruction to instructions when the account does not exist yet.
func (c *Client) ensureAssociatedTokenAccount(ctx context.Context, instructions []solana.Instruction, owner, mint solana.PublicKey) (solana.PublicKey, []solana.Instruction, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, instructions, fmt.Errorf("failed to find associated token address: %w", err)
	}

	resp, err := c.RpcClient.GetAccountInfoWithOpts(ctx, ata, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil && !errors.Is(err, rpc.ErrNotFound) {
		return solana.PublicKey{}, instructions, fmt.Errorf("failed to check token account %s: %w", ata, err)
	}
	if err != nil || resp.Value == nil {
		instructions = append(instructions, associatedtokenaccount.NewCreateInstruction(
			c.Signer.PublicKey(),
			owner,
			mint,
		).Build())
	}
	return ata, instructions, nil
}
