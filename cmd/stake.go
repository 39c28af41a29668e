package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var (
	stakeVote          string
	stakeAmount        float64
	stakeEphemeralSeed uint64
)

var stakeCmd = &cobra.Command{
	Use:   "stake",
	Short: "Move stake between the reserve and pool validators",
}

var stakeIncreaseCmd = &cobra.Command{
	Use:   "increase",
	Short: "Delegate reserve lamports to a validator",
	Long: `Increase moves lamports from the reserve onto a validator through a
transient stake account that merges in after activation. Pass
--ephemeral-seed to top up a validator that already has transient
stake in flight.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newPoolClient()
		if err != nil {
			return err
		}
		vote, err := solana.PublicKeyFromBase58(stakeVote)
		if err != nil {
			return fmt.Errorf("invalid vote account %q: %w", stakeVote, err)
		}

		lamports := solToLamports(stakeAmount)
		var sig solana.Signature
		if cmd.Flags().Changed("ephemeral-seed") {
			sig, err = client.IncreaseAdditionalValidatorStake(cmd.Context(), vote, lamports, stakeEphemeralSeed)
		} else {
			sig, err = client.IncreaseValidatorStake(cmd.Context(), vote, lamports)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Transaction Signature: %s\n", sig)
		return nil
	},
}

var stakeDecreaseCmd = &cobra.Command{
	Use:   "decrease",
	Short: "Move validator stake back to the reserve",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newPoolClient()
		if err != nil {
			return err
		}
		vote, err := solana.PublicKeyFromBase58(stakeVote)
		if err != nil {
			return fmt.Errorf("invalid vote account %q: %w", stakeVote, err)
		}

		lamports := solToLamports(stakeAmount)
		var sig solana.Signature
		if cmd.Flags().Changed("ephemeral-seed") {
			sig, err = client.DecreaseAdditionalValidatorStake(cmd.Context(), vote, lamports, stakeEphemeralSeed)
		} else {
			sig, err = client.DecreaseValidatorStake(cmd.Context(), vote, lamports)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Transaction Signature: %s\n", sig)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{stakeIncreaseCmd, stakeDecreaseCmd} {
		c.Flags().StringVar(&stakeVote, "vote", "", "validator vote account")
		c.Flags().Float64Var(&stakeAmount, "amount", 0, "amount in SOL")
		c.Flags().Uint64Var(&stakeEphemeralSeed, "ephemeral-seed", 0, "seed for an ephemeral stake account when transient stake is already in flight")
		c.MarkFlagRequired("vote")
		c.MarkFlagRequired("amount")
	}
	stakeCmd.AddCommand(stakeIncreaseCmd, stakeDecreaseCmd)
	rootCmd.AddCommand(stakeCmd)
}
