package cmd

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"poolhand/spool"
)

var solAmount float64

var solCmd = &cobra.Command{
	Use:   "sol",
	Short: "Deposit SOL into the pool or redeem pool tokens",
}

var solDepositCmd = &cobra.Command{
	Use:   "deposit",
	Short: "Deposit SOL into the reserve for pool tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newPoolClient()
		if err != nil {
			return err
		}

		sig, err := client.DepositSol(cmd.Context(), solToLamports(solAmount))
		if err != nil {
			return err
		}

		fmt.Printf("Transaction Signature: %s\n", sig)
		return printPoolTokenBalance(cmd.Context(), client, sig)
	},
}

var solWithdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Burn pool tokens for SOL from the reserve",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newPoolClient()
		if err != nil {
			return err
		}

		// The pool mint uses 9 decimals, matching native SOL.
		sig, err := client.WithdrawSol(cmd.Context(), solToLamports(solAmount))
		if err != nil {
			return err
		}

		fmt.Printf("Transaction Signature: %s\n", sig)
		return printPoolTokenBalance(cmd.Context(), client, sig)
	},
}

// printPoolTokenBalance waits for sig to confirm and prints the signer's
// pool token balance.
func printPoolTokenBalance(ctx context.Context, client *spool.Client, sig solana.Signature) error {
	if err := client.WaitForConfirmation(ctx, sig); err != nil {
		return err
	}
	pool, err := client.FetchStakePool(ctx)
	if err != nil {
		return err
	}
	balance, err := client.GetTokenBalance(ctx, client.Signer.PublicKey(), pool.PoolMint)
	if err != nil {
		return err
	}
	fmt.Printf("Pool Token Balance:    %s\n", formatSol(balance))
	return nil
}

func init() {
	solDepositCmd.Flags().Float64Var(&solAmount, "amount", 0, "amount of SOL to deposit")
	solWithdrawCmd.Flags().Float64Var(&solAmount, "amount", 0, "amount of pool tokens to burn")
	solDepositCmd.MarkFlagRequired("amount")
	solWithdrawCmd.MarkFlagRequired("amount")
	solCmd.AddCommand(solDepositCmd, solWithdrawCmd)
	rootCmd.AddCommand(solCmd)
}
