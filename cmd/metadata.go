package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	metadataName   string
	metadataSymbol string
	metadataURI    string
)

var metadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Manage the pool token's Metaplex metadata",
}

var metadataCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the metadata account for the pool mint",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newPoolClient()
		if err != nil {
			return err
		}

		sig, err := client.CreateTokenMetadata(cmd.Context(), metadataName, metadataSymbol, metadataURI)
		if err != nil {
			return err
		}

		fmt.Printf("Transaction Signature: %s\n", sig)
		return nil
	},
}

var metadataUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the pool mint's existing metadata account",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newPoolClient()
		if err != nil {
			return err
		}

		sig, err := client.UpdateTokenMetadata(cmd.Context(), metadataName, metadataSymbol, metadataURI)
		if err != nil {
			return err
		}

		fmt.Printf("Transaction Signature: %s\n", sig)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{metadataCreateCmd, metadataUpdateCmd} {
		c.Flags().StringVar(&metadataName, "name", "", "token name, at most 32 bytes")
		c.Flags().StringVar(&metadataSymbol, "symbol", "", "token symbol, at most 10 bytes")
		c.Flags().StringVar(&metadataURI, "uri", "", "URI of the off-chain token JSON, at most 200 bytes")
		c.MarkFlagRequired("name")
		c.MarkFlagRequired("symbol")
		c.MarkFlagRequired("uri")
	}
	metadataCmd.AddCommand(metadataCreateCmd, metadataUpdateCmd)
	rootCmd.AddCommand(metadataCmd)
}
