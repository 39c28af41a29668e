package cmd

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"poolhand/spool"
	"poolhand/storage"
	"poolhand/wallet"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Manage stored wallet profiles",
}

var walletCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new wallet profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		db, err := storage.Connect()
		if err != nil {
			return err
		}
		defer db.Close()

		// Refuse to silently overwrite a stored key.
		if _, err := db.GetWallet(name); err == nil {
			return fmt.Errorf("wallet profile %q already exists", name)
		}

		newWallet := solana.NewWallet()
		if err := db.SaveWallet(name, newWallet.PrivateKey); err != nil {
			return err
		}

		fmt.Printf("Created wallet profile %q\n", name)
		fmt.Printf("Address: %s\n", newWallet.PublicKey())
		return nil
	},
}

var walletListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored wallet profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := storage.Connect()
		if err != nil {
			return err
		}
		defer db.Close()

		names, err := db.GetAllWalletNames()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No wallet profiles found. Create one with 'poolhand wallet create <name>'.")
			return nil
		}

		for _, name := range names {
			profile, err := db.GetWallet(name)
			if err != nil {
				return err
			}
			fmt.Printf("%-24s %s\n", name, solana.PrivateKey(profile.PrivateKey).PublicKey())
		}
		return nil
	},
}

var walletShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a profile's address and balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := storage.Connect()
		if err != nil {
			return err
		}
		defer db.Close()

		profile, err := db.GetWallet(args[0])
		if err != nil {
			return err
		}
		address := solana.PrivateKey(profile.PrivateKey).PublicKey()

		client, err := spool.NewReadOnlyClient(GetRpcEndpoint(), solana.PublicKey{})
		if err != nil {
			return err
		}
		balance, err := client.GetBalance(cmd.Context(), address)
		if err != nil {
			return err
		}

		fmt.Printf("Profile: %s\n", profile.Name)
		fmt.Printf("Address: %s\n", address)
		fmt.Printf("Balance: %s SOL\n", formatSol(balance))
		return nil
	},
}

var walletKeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Create or load the default staker keypair file",
	Long: `Keygen manages the keypair at ~/.config/poolhand/staker.json, creating it
on first use. Pass the file to --keypair to sign with it, for example on a
host running the rebalance daemon without stored profiles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		staker, err := wallet.LoadOrCreateWallet()
		if err != nil {
			return err
		}
		fmt.Printf("Address: %s\n", staker.PublicKey())
		return nil
	},
}

func init() {
	walletCmd.AddCommand(walletCreateCmd, walletListCmd, walletShowCmd, walletKeygenCmd)
	rootCmd.AddCommand(walletCmd)
}
