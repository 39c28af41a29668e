package spool

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Client works against a single stake pool.
type Client struct {
	RpcClient *rpc.Client
	Signer    solana.PrivateKey
	Pool      solana.PublicKey
}

// NewClient creates a new Client for the given pool with a specific signer.
func NewClient(rpcEndpoint string, signer solana.PrivateKey, pool solana.PublicKey) (*Client, error) {
	// Create a new RPC client.
	rpcClient := rpc.New(rpcEndpoint)

	return &Client{
		RpcClient: rpcClient,
		Signer:    signer,
		Pool:      pool,
	}, nil
}

// NewReadOnlyClient creates a new client for read-only operations that don't require a signer.
// It uses a dummy keypair internally.
func NewReadOnlyClient(rpcEndpoint string, pool solana.PublicKey) (*Client, error) {
	// Create a new RPC client.
	rpcClient := rpc.New(rpcEndpoint)

	// Create a dummy wallet for read-only operations.
	dummyWallet := solana.NewWallet()

	return &Client{
		RpcClient: rpcClient,
		Signer:    dummyWallet.PrivateKey,
		Pool:      pool,
	}, nil
}

// FetchStakePool fetches and decodes the pool account from the blockchain.
func (c *Client) FetchStakePool(ctx context.Context) (*StakePool, error) {
	resp, err := c.RpcClient.GetAccountInfoWithOpts(ctx, c.Pool, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stake pool account: %w", err)
	}
	if resp.Value == nil {
		return nil, fmt.Errorf("stake pool account %s not found", c.Pool)
	}

	pool, err := ParseStakePool(resp.Value.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("failed to parse stake pool account %s: %w", c.Pool, err)
	}
	return pool, nil
}

// FetchValidatorList fetches and decodes the pool's validator list account.
func (c *Client) FetchValidatorList(ctx context.Context, address solana.PublicKey) (*ValidatorList, error) {
	resp, err := c.RpcClient.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch validator list account: %w", err)
	}
	if resp.Value == nil {
		return nil, fmt.Errorf("validator list account %s not found", address)
	}

	list, err := ParseValidatorList(resp.Value.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("failed to parse validator list account %s: %w", address, err)
	}
	return list, nil
}

// GetBalance retrieves the SOL balance for a given public key.
func (c *Client) GetBalance(ctx context.Context, publicKey solana.PublicKey) (uint64, error) {
	balance, err := c.RpcClient.GetBalance(
		ctx,
		publicKey,
		rpc.CommitmentFinalized,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance.Value, nil
}

// GetTokenBalance retrieves the balance for a specific token mint for a given public key.
func (c *Client) GetTokenBalance(ctx context.Context, owner solana.PublicKey, mint solana.PublicKey) (uint64, error) {
	// Find the associated token address.
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to find associated token address: %w", err)
	}

	// Get the balance of the ATA.
	balance, err := c.RpcClient.GetTokenAccountBalance(
		ctx,
		ata,
		rpc.CommitmentFinalized,
	)
	if err != nil {
		// If the account is not found, it just means the balance is 0.
		// Check for the specific RPC error text.
		if err.Error() == "not found" || strings.Contains(err.Error(), "could not find account") {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get token account balance for ATA %s: %w", ata.String(), err)
	}

	if balance.Value == nil {
		return 0, nil // Account exists but has no value object, treat as 0.
	}

	// The balance is returned as a string, parse it to uint64.
	amount, err := strconv.ParseUint(balance.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token amount string: %w", err)
	}

	return amount, nil
}

// GetStakeRentExemption returns the rent-exempt minimum every stake account
// must carry. Transient accounts created by a rebalance are funded with this
// amount on top of the moved lamports.
func (c *Client) GetStakeRentExemption(ctx context.Context) (uint64, error) {
	lamports, err := c.RpcClient.GetMinimumBalanceForRentExemption(
		ctx,
		StakeAccountSize,
		rpc.CommitmentConfirmed,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to get stake rent exemption: %w", err)
	}
	return lamports, nil
}

// CurrentEpoch returns the cluster's current epoch.
func (c *Client) CurrentEpoch(ctx context.Context) (uint64, error) {
	info, err := c.RpcClient.GetEpochInfo(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("failed to get epoch info: %w", err)
	}
	return info.Epoch, nil
}

// WaitForConfirmation polls the signature status until the transaction
// reaches confirmed commitment, fails on chain, or ctx expires.
func (c *Client) WaitForConfirmation(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("gave up waiting for %s: %w", sig, ctx.Err())
		case <-ticker.C:
			resp, err := c.RpcClient.GetSignatureStatuses(ctx, false, sig)
			if err != nil {
				// Transient RPC failures are retried on the next tick.
				continue
			}
			if resp == nil || len(resp.Value) == 0 || resp.Value[0] == nil {
				continue
			}

			status := resp.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed on chain: %v", sig, status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}
	}
}

// sendTransaction signs the given instructions with the client signer and
// submits them as a single transaction.
func (c *Client) sendTransaction(ctx context.Context, instructions ...solana.Instruction) (solana.Signature, error) {
	latestBlockhash, err := c.RpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		latestBlockhash.Value.Blockhash,
		solana.TransactionPayer(c.Signer.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(
		func(key solana.PublicKey) *solana.PrivateKey {
			if c.Signer.PublicKey().Equals(key) {
				return &c.Signer
			}
			return nil
		},
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := c.RpcClient.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return sig, nil
}
