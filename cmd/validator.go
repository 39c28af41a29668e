package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"
)

var validatorVote string

var validatorCmd = &cobra.Command{
	Use:   "validator",
	Short: "Manage the pool's validator set",
}

var validatorAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a validator to the pool",
	Long: `Add creates the pool's stake account on the validator, funded from the
reserve with the minimum delegation plus rent. Requires the staker key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newPoolClient()
		if err != nil {
			return err
		}
		vote, err := solana.PublicKeyFromBase58(validatorVote)
		if err != nil {
			return fmt.Errorf("invalid vote account %q: %w", validatorVote, err)
		}

		sig, err := client.AddValidator(cmd.Context(), vote)
		if err != nil {
			return err
		}

		fmt.Printf("Transaction Signature: %s\n", sig)
		return nil
	},
}

var validatorRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a validator from the pool",
	Long: `Remove marks the validator's entry for removal and deactivates its
stake account. The entry disappears after the stake cools down and the
next pool update cleans it up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newPoolClient()
		if err != nil {
			return err
		}
		vote, err := solana.PublicKeyFromBase58(validatorVote)
		if err != nil {
			return fmt.Errorf("invalid vote account %q: %w", validatorVote, err)
		}

		sig, err := client.RemoveValidator(cmd.Context(), vote)
		if err != nil {
			return err
		}

		fmt.Printf("Transaction Signature: %s\n", sig)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{validatorAddCmd, validatorRemoveCmd} {
		c.Flags().StringVar(&validatorVote, "vote", "", "validator vote account")
		c.MarkFlagRequired("vote")
	}
	validatorCmd.AddCommand(validatorAddCmd, validatorRemoveCmd)
	rootCmd.AddCommand(validatorCmd)
}
