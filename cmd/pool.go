package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"poolhand/spool"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Inspect and maintain the stake pool",
}

var poolStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the pool account and per-validator stake",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newReadOnlyPoolClient()
		if err != nil {
			return err
		}
		return printPoolStatus(cmd.Context(), client)
	},
}

var poolUpdateNoMerge bool

var poolUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Advance the pool balances to the current epoch",
	Long: `Update walks the validator list in chunks, merges matured transient
stake back into the validator accounts, and refreshes the pool totals.
The stake pool program requires this once per epoch before deposits,
withdrawals, or stake moves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newPoolClient()
		if err != nil {
			return err
		}

		sigs, err := client.UpdateStakePool(cmd.Context(), poolUpdateNoMerge)
		if err != nil {
			return err
		}

		fmt.Printf("Pool updated in %d transactions:\n", len(sigs))
		for _, sig := range sigs {
			fmt.Printf("  %s\n", sig)
		}
		return nil
	},
}

func init() {
	poolUpdateCmd.Flags().BoolVar(&poolUpdateNoMerge, "no-merge", false, "skip merging matured transient stake accounts")
	poolCmd.AddCommand(poolStatusCmd, poolUpdateCmd)
	rootCmd.AddCommand(poolCmd)
}

// printPoolStatus renders the pool account, its reserve, and the validator
// list. Shared by 'pool status' and the interactive menu.
func printPoolStatus(ctx context.Context, client *spool.Client) error {
	pool, err := client.FetchStakePool(ctx)
	if err != nil {
		return err
	}

	list, err := client.FetchValidatorList(ctx, pool.ValidatorList)
	if err != nil {
		return err
	}

	reserve, err := client.GetBalance(ctx, pool.ReserveStake)
	if err != nil {
		return err
	}

	epoch, err := client.CurrentEpoch(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\nStake Pool %s\n", client.Pool)
	fmt.Printf("  Manager:           %s\n", pool.Manager)
	fmt.Printf("  Staker:            %s\n", pool.Staker)
	fmt.Printf("  Pool Mint:         %s\n", pool.PoolMint)
	fmt.Printf("  Total Stake:       %s SOL\n", formatSol(pool.TotalLamports))
	fmt.Printf("  Pool Token Supply: %s\n", formatSol(pool.PoolTokenSupply))
	fmt.Printf("  Reserve Balance:   %s SOL\n", formatSol(reserve))
	fmt.Printf("  Epoch Fee:         %s\n", pool.EpochFee)
	fmt.Printf("  Last Update Epoch: %d (current epoch %d)\n", pool.LastUpdateEpoch, epoch)

	if pool.LastUpdateEpoch < epoch {
		fmt.Println(infoStyle.Render("  Pool has not been updated this epoch; balances may be stale."))
	}

	fmt.Printf("\nValidators (%d):\n", len(list.Validators))
	for _, v := range list.Validators {
		fmt.Printf("  %s  active %s SOL", v.VoteAccountAddress, formatSol(v.ActiveStakeLamports))
		if v.TransientStakeLamports > 0 {
			fmt.Printf("  transient %s SOL", formatSol(v.TransientStakeLamports))
		}
		if v.Status != spool.StakeStatusActive {
			fmt.Printf("  [%s]", v.Status)
		}
		fmt.Println()
	}
	return nil
}
