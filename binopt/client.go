package binopt

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/rpc"
)

// Client works against the binary option program. Unlike a stake pool client
// it is not bound to a single market; every call names its market explicitly.
type Client struct {
	RpcClient *rpc.Client
	Signer    solana.PrivateKey
}

// NewClient creates a new Client with a specific signer. The signer pays fees
// and acts as mint, update, and settle authority for markets it creates.
func NewClient(rpcEndpoint string, signer solana.PrivateKey) (*Client, error) {
	// Create a new RPC client.
	rpcClient := rpc.New(rpcEndpoint)

	return &Client{
		RpcClient: rpcClient,
		Signer:    signer,
	}, nil
}

// GetMarket fetches and decodes a market account from the blockchain.
func (c *Client) GetMarket(ctx context.Context, market solana.PublicKey) (*Market, error) {
	resp, err := c.RpcClient.GetAccountInfoWithOpts(ctx, market, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market account: %w", err)
	}
	if resp.Value == nil {
		return nil, fmt.Errorf("market account %s not found", market)
	}

	state, err := ParseMarket(resp.Value.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("failed to parse market account %s: %w", market, err)
	}
	return state, nil
}

// Initialize creates a new market collateralized by escrowMint. The market,
// escrow, and long/short mint accounts are fresh keypairs that co-sign the
// transaction; the client signer becomes mint and update authority.
func (c *Client) Initialize(ctx context.Context, escrowMint solana.PublicKey, decimals uint8) (solana.PublicKey, solana.Signature, error) {
	// 1. Generate the market accounts
	// -------------------------------
	market := solana.NewWallet()
	escrow := solana.NewWallet()
	longMint := solana.NewWallet()
	shortMint := solana.NewWallet()

	// 2. Build and send the transaction
	// ---------------------------------
	instruction := NewInitializeInstruction(
		decimals,
		market.PublicKey(),
		escrowMint,
		escrow.PublicKey(),
		longMint.PublicKey(),
		shortMint.PublicKey(),
		c.Signer.PublicKey(),
		c.Signer.PublicKey(),
	)

	sig, err := c.sendTransactionWithSigners(ctx, []solana.PrivateKey{
		c.Signer,
		market.PrivateKey,
		escrow.PrivateKey,
		longMint.PrivateKey,
		shortMint.PrivateKey,
	}, instruction)
	if err != nil {
		return solana.PublicKey{}, solana.Signature{}, err
	}
	return market.PublicKey(), sig, nil
}

// Trade crosses a buyer and a seller on a market. Both parties sign and the
// client signer pays fees. Missing buyer or seller token accounts are created
// in the same transaction.
func (c *Client) Trade(ctx context.Context, market solana.PublicKey, buyer, seller solana.PrivateKey, size, buyerPrice, sellerPrice uint64) (solana.Signature, error) {
	// 1. Load the market
	// ------------------
	state, err := c.GetMarket(ctx, market)
	if err != nil {
		return solana.Signature{}, err
	}

	escrowAuthority, _, err := GetEscrowAuthorityPDA(state.LongMint, state.ShortMint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get escrow authority PDA: %w", err)
	}

	// 2. Resolve all six token accounts, creating missing ones in-transaction
	// ------------------------------------------------------------------------
	var instructions []solana.Instruction
	buyerLong, instructions, err := c.ensureAssociatedTokenAccount(ctx, instructions, buyer.PublicKey(), state.LongMint)
	if err != nil {
		return solana.Signature{}, err
	}
	buyerShort, instructions, err := c.ensureAssociatedTokenAccount(ctx, instructions, buyer.PublicKey(), state.ShortMint)
	if err != nil {
		return solana.Signature{}, err
	}
	buyerCollateral, instructions, err := c.ensureAssociatedTokenAccount(ctx, instructions, buyer.PublicKey(), state.EscrowMint)
	if err != nil {
		return solana.Signature{}, err
	}
	sellerLong, instructions, err := c.ensureAssociatedTokenAccount(ctx, instructions, seller.PublicKey(), state.LongMint)
	if err != nil {
		return solana.Signature{}, err
	}
	sellerShort, instructions, err := c.ensureAssociatedTokenAccount(ctx, instructions, seller.PublicKey(), state.ShortMint)
	if err != nil {
		return solana.Signature{}, err
	}
	sellerCollateral, instructions, err := c.ensureAssociatedTokenAccount(ctx, instructions, seller.PublicKey(), state.EscrowMint)
	if err != nil {
		return solana.Signature{}, err
	}

	// 3. Build and send the transaction
	// ---------------------------------
	instructions = append(instructions, NewTradeInstruction(
		size,
		buyerPrice,
		sellerPrice,
		market,
		state.Escrow,
		state.LongMint,
		state.ShortMint,
		buyer.PublicKey(),
		seller.PublicKey(),
		buyerCollateral,
		sellerCollateral,
		buyerLong,
		buyerShort,
		sellerLong,
		sellerShort,
		escrowAuthority,
	))
	return c.sendTransactionWithSigners(ctx, []solana.PrivateKey{c.Signer, buyer, seller}, instructions...)
}

// Settle declares the winning mint for a market. The client signer must be
// the market owner.
func (c *Client) Settle(ctx context.Context, market, winningMint solana.PublicKey) (solana.Signature, error) {
	instruction := NewSettleInstruction(market, winningMint, c.Signer.PublicKey())
	return c.sendTransactionWithSigners(ctx, []solana.PrivateKey{c.Signer}, instruction)
}

// Collect redeems a collector's position after settlement. All three of the
// collector's token accounts must already exist; nothing is created here.
func (c *Client) Collect(ctx context.Context, market, collector solana.PublicKey) (solana.Signature, error) {
	// 1. Load the market
	// ------------------
	state, err := c.GetMarket(ctx, market)
	if err != nil {
		return solana.Signature{}, err
	}

	escrowAuthority, _, err := GetEscrowAuthorityPDA(state.LongMint, state.ShortMint)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get escrow authority PDA: %w", err)
	}

	// 2. Resolve the collector's token accounts
	// -----------------------------------------
	collectorLong, err := c.requireAssociatedTokenAccount(ctx, collector, state.LongMint)
	if err != nil {
		return solana.Signature{}, err
	}
	collectorShort, err := c.requireAssociatedTokenAccount(ctx, collector, state.ShortMint)
	if err != nil {
		return solana.Signature{}, err
	}
	collectorCollateral, err := c.requireAssociatedTokenAccount(ctx, collector, state.EscrowMint)
	if err != nil {
		return solana.Signature{}, err
	}

	// 3. Build and send the transaction
	// ---------------------------------
	instruction := NewCollectInstruction(
		market,
		collector,
		collectorLong,
		collectorShort,
		collectorCollateral,
		state.LongMint,
		state.ShortMint,
		state.Escrow,
		escrowAuthority,
	)
	return c.sendTransactionWithSigners(ctx, []solana.PrivateKey{c.Signer}, instruction)
}

// ensureAssociatedTokenAccount resolves the owner's ATA for mint, appending a
// create instruction to instructions when the account does not exist yet. The
// client signer pays for created accounts.
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

// requireAssociatedTokenAccount resolves the owner's ATA for mint and fails
// when the account does not exist.
func (c *Client) requireAssociatedTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find associated token address: %w", err)
	}

	resp, err := c.RpcClient.GetAccountInfoWithOpts(ctx, ata, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil && !errors.Is(err, rpc.ErrNotFound) {
		return solana.PublicKey{}, fmt.Errorf("failed to check token account %s: %w", ata, err)
	}
	if err != nil || resp.Value == nil {
		return solana.PublicKey{}, fmt.Errorf("%s has no token account for mint %s", owner, mint)
	}
	return ata, nil
}

// sendTransactionWithSigners signs the given instructions with every matching
// signer and submits them as a single transaction. The client signer pays.
func (c *Client) sendTransactionWithSigners(ctx context.Context, signers []solana.PrivateKey, instructions ...solana.Instruction) (solana.Signature, error) {
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
			for i := range signers {
				if signers[i].PublicKey().Equals(key) {
					return &signers[i]
				}
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
