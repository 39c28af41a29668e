package cmd

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"poolhand/binopt"
	"poolhand/wallet"
)

var binoptCmd = &cobra.Command{
	Use:   "binopt",
	Short: "Create and trade binary option markets",
	Long: `Binopt manages binary option markets collateralized by a token such as
the pool token. Each market mints paired long and short tokens that the
owner settles one-to-zero by picking the winning side.`,
}

var (
	binoptMarket        string
	binoptEscrowMint    string
	binoptDecimals      uint8
	binoptSize          uint64
	binoptBuyerPrice    uint64
	binoptSellerPrice   uint64
	binoptBuyerKeypair  string
	binoptSellerKeypair string
	binoptSide          string
	binoptCollector     string
)

func newBinoptClient() (*binopt.Client, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	signer, err := resolveSigner(settings)
	if err != nil {
		return nil, err
	}
	return binopt.NewClient(GetRpcEndpoint(), signer)
}

var binoptInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new binary option market",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newBinoptClient()
		if err != nil {
			return err
		}
		escrowMint, err := solana.PublicKeyFromBase58(binoptEscrowMint)
		if err != nil {
			return fmt.Errorf("invalid escrow mint %q: %w", binoptEscrowMint, err)
		}

		market, sig, err := client.Initialize(cmd.Context(), escrowMint, binoptDecimals)
		if err != nil {
			return err
		}

		fmt.Printf("Market: %s\n", market)
		fmt.Printf("Transaction Signature: %s\n", sig)
		return nil
	},
}

var binoptTradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Match a buyer and seller and mint their positions",
	Long: `Trade mints size long tokens to the buyer and size short tokens to the
seller, moving collateral at the given prices into the market escrow.
Both parties sign, so their keypair files are required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newBinoptClient()
		if err != nil {
			return err
		}
		market, err := solana.PublicKeyFromBase58(binoptMarket)
		if err != nil {
			return fmt.Errorf("invalid market address %q: %w", binoptMarket, err)
		}

		buyer, err := wallet.LoadKeypairFile(binoptBuyerKeypair)
		if err != nil {
			return err
		}
		seller, err := wallet.LoadKeypairFile(binoptSellerKeypair)
		if err != nil {
			return err
		}

		sig, err := client.Trade(cmd.Context(), market, buyer.PrivateKey, seller.PrivateKey, binoptSize, binoptBuyerPrice, binoptSellerPrice)
		if err != nil {
			return err
		}

		fmt.Printf("Transaction Signature: %s\n", sig)
		return nil
	},
}

var binoptSettleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Pick the winning side of a market",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newBinoptClient()
		if err != nil {
			return err
		}
		market, err := solana.PublicKeyFromBase58(binoptMarket)
		if err != nil {
			return fmt.Errorf("invalid market address %q: %w", binoptMarket, err)
		}

		state, err := client.GetMarket(cmd.Context(), market)
		if err != nil {
			return err
		}

		var winningMint solana.PublicKey
		switch strings.ToLower(binoptSide) {
		case "long":
			winningMint = state.LongMint
		case "short":
			winningMint = state.ShortMint
		default:
			return fmt.Errorf("invalid side %q: must be long or short", binoptSide)
		}

		sig, err := client.Settle(cmd.Context(), market, winningMint)
		if err != nil {
			return err
		}

		fmt.Printf("Transaction Signature: %s\n", sig)
		return nil
	},
}

var binoptCollectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Redeem winning tokens after settlement",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newBinoptClient()
		if err != nil {
			return err
		}
		market, err := solana.PublicKeyFromBase58(binoptMarket)
		if err != nil {
			return fmt.Errorf("invalid market address %q: %w", binoptMarket, err)
		}

		collector := client.Signer.PublicKey()
		if binoptCollector != "" {
			collector, err = solana.PublicKeyFromBase58(binoptCollector)
			if err != nil {
				return fmt.Errorf("invalid collector address %q: %w", binoptCollector, err)
			}
		}

		sig, err := client.Collect(cmd.Context(), market, collector)
		if err != nil {
			return err
		}

		fmt.Printf("Transaction Signature: %s\n", sig)
		return nil
	},
}

var binoptShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a market account",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Reading a market needs no signer.
		client, err := binopt.NewClient(GetRpcEndpoint(), solana.NewWallet().PrivateKey)
		if err != nil {
			return err
		}
		market, err := solana.PublicKeyFromBase58(binoptMarket)
		if err != nil {
			return fmt.Errorf("invalid market address %q: %w", binoptMarket, err)
		}

		state, err := client.GetMarket(cmd.Context(), market)
		if err != nil {
			return err
		}

		fmt.Printf("Market %s\n", market)
		fmt.Printf("  Decimals:    %d\n", state.Decimals)
		fmt.Printf("  Circulation: %d\n", state.Circulation)
		fmt.Printf("  Settled:     %t\n", state.Settled)
		fmt.Printf("  Escrow Mint: %s\n", state.EscrowMint)
		fmt.Printf("  Escrow:      %s\n", state.Escrow)
		fmt.Printf("  Long Mint:   %s\n", state.LongMint)
		fmt.Printf("  Short Mint:  %s\n", state.ShortMint)
		fmt.Printf("  Owner:       %s\n", state.Owner)
		if state.Settled {
			side := "short"
			if state.WinningSide.Equals(state.LongMint) {
				side = "long"
			}
			fmt.Printf("  Winner:      %s (%s)\n", state.WinningSide, side)
		}
		return nil
	},
}

func init() {
	binoptInitCmd.Flags().StringVar(&binoptEscrowMint, "escrow-mint", "", "mint used as collateral, e.g. the pool token mint")
	binoptInitCmd.Flags().Uint8Var(&binoptDecimals, "decimals", 0, "decimals for the long and short mints")
	binoptInitCmd.MarkFlagRequired("escrow-mint")

	binoptTradeCmd.Flags().StringVar(&binoptMarket, "market", "", "market account address")
	binoptTradeCmd.Flags().Uint64Var(&binoptSize, "size", 0, "number of contracts to mint")
	binoptTradeCmd.Flags().Uint64Var(&binoptBuyerPrice, "buyer-price", 0, "collateral the buyer pays per contract, in base units")
	binoptTradeCmd.Flags().Uint64Var(&binoptSellerPrice, "seller-price", 0, "collateral the seller pays per contract, in base units")
	binoptTradeCmd.Flags().StringVar(&binoptBuyerKeypair, "buyer-keypair", "", "path to the buyer's keygen JSON file")
	binoptTradeCmd.Flags().StringVar(&binoptSellerKeypair, "seller-keypair", "", "path to the seller's keygen JSON file")
	for _, name := range []string{"market", "size", "buyer-price", "seller-price", "buyer-keypair", "seller-keypair"} {
		binoptTradeCmd.MarkFlagRequired(name)
	}

	binoptSettleCmd.Flags().StringVar(&binoptMarket, "market", "", "market account address")
	binoptSettleCmd.Flags().StringVar(&binoptSide, "side", "", "winning side: long or short")
	binoptSettleCmd.MarkFlagRequired("market")
	binoptSettleCmd.MarkFlagRequired("side")

	binoptCollectCmd.Flags().StringVar(&binoptMarket, "market", "", "market account address")
	binoptCollectCmd.Flags().StringVar(&binoptCollector, "collector", "", "holder to redeem for (default: the signer)")
	binoptCollectCmd.MarkFlagRequired("market")

	binoptShowCmd.Flags().StringVar(&binoptMarket, "market", "", "market account address")
	binoptShowCmd.MarkFlagRequired("market")

	binoptCmd.AddCommand(binoptInitCmd, binoptTradeCmd, binoptSettleCmd, binoptCollectCmd, binoptShowCmd)
	rootCmd.AddCommand(binoptCmd)
}
