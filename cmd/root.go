package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	figure "github.com/common-nighthawk/go-figure"
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"poolhand/rebalance"
	"poolhand/spool"
	"poolhand/storage"
)

var rootCmd = &cobra.Command{
	Use:   "poolhand",
	Short: "Poolhand manages and rebalances a Solana stake pool.",
	Long: `An interactive command-line interface for running a stake pool: inspect
the pool, preview and execute rebalances, move SOL, and manage wallet
profiles. Every menu action is also available as a scriptable subcommand.`,
	Run: run,
}

// Execute runs the root command and exits on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "RPC endpoint (default: HELIUS_API_KEY endpoint or public devnet)")
	rootCmd.PersistentFlags().StringVar(&flagPool, "pool", "", "stake pool address")
	rootCmd.PersistentFlags().StringVar(&flagKeypair, "keypair", "", "path to a Solana keygen JSON file to sign with")
	rootCmd.PersistentFlags().StringVar(&flagProfile, "profile", "", "stored wallet profile to sign with")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
}

var errExitRequested = errors.New("exit requested")

// run is the main entry point for the interactive CLI.
func run(cmd *cobra.Command, args []string) {
	GetRpcEndpoint()

	myFigure := figure.NewFigure("POOLHAND", "larry3d", true)
	fmt.Println(titleStyle.Render(myFigure.String()))

	db, err := storage.Connect()
	if err != nil {
		fmt.Println(warningStyle.Render("❌ Could not open wallet storage: " + err.Error()))
		os.Exit(1)
	}

	// The main application loop is wrapped in profile selection.
	for {
		signer, profileName, err := runProfileSelection(db)
		if err != nil {
			// Returned when the user chooses to exit.
			fmt.Println("Exiting Poolhand.")
			os.Exit(0)
		}
		runInteractive(signer, profileName)
	}
}

// runProfileSelection handles the UI for choosing or creating a wallet profile.
func runProfileSelection(db *storage.JSONDB) (solana.PrivateKey, string, error) {
	for {
		names, err := db.GetAllWalletNames()
		if err != nil {
			return nil, "", err
		}

		// First run: there is nothing to select yet.
		if len(names) == 0 {
			fmt.Println(promptStyle.Render("\nNo wallet profiles found yet. Let's create one."))
			if err := runInit(db); err != nil {
				return nil, "", err
			}
			continue
		}

		options := append([]string{}, names...)
		options = append(options, "Create New Profile", "Exit")

		choice := ""
		prompt := &survey.Select{
			Message: "Choose a wallet profile:",
			Options: options,
		}
		if err := survey.AskOne(prompt, &choice); err != nil {
			return nil, "", err
		}

		switch choice {
		case "Exit":
			return nil, "", errExitRequested
		case "Create New Profile":
			if err := runInit(db); err != nil {
				return nil, "", err
			}
		default:
			profile, err := db.GetWallet(choice)
			if err != nil {
				return nil, "", err
			}
			return solana.PrivateKey(profile.PrivateKey), choice, nil
		}
	}
}

// runInit creates and stores a new wallet profile.
func runInit(db *storage.JSONDB) error {
	name := ""
	prompt := &survey.Input{Message: "Profile name:", Default: "default"}
	if err := survey.AskOne(prompt, &name, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	newWallet := solana.NewWallet()
	if err := db.SaveWallet(name, newWallet.PrivateKey); err != nil {
		return fmt.Errorf("could not save wallet profile: %w", err)
	}

	fmt.Println(titleStyle.Render("✅ Wallet profile created!"))
	fmt.Printf("   Profile: %s\n", name)
	fmt.Printf("   Address: %s\n", newWallet.PublicKey())
	fmt.Println(infoStyle.Render("\nFund this address before staking or running the bot."))
	fmt.Println("Press Enter to continue...")
	fmt.Scanln()
	return nil
}

// runInteractive is the main menu loop for one profile.
func runInteractive(signer solana.PrivateKey, profileName string) {
	for {
		fmt.Println("\n---")
		fmt.Println(titleStyle.Render(fmt.Sprintf("Profile: %s", profileName)))
		fmt.Printf("   Address: %s\n", signer.PublicKey())

		menuOptions := []string{
			"Show Pool Status",
			"Preview Rebalance Plan",
			"Run Rebalance Pass",
			"Deposit SOL",
			"Withdraw SOL",
			"Wallet Management",
			"Switch Profile",
		}

		choice := ""
		prompt := &survey.Select{
			Message: "What would you like to do?",
			Options: menuOptions,
			Help:    "Use the arrow keys to navigate and Enter to select.",
		}
		if err := survey.AskOne(prompt, &choice); err != nil {
			return
		}

		switch choice {
		case "Show Pool Status":
			handlePoolStatus()
		case "Preview Rebalance Plan":
			handlePreviewPlan()
		case "Run Rebalance Pass":
			handleRebalancePass(signer)
		case "Deposit SOL":
			handleDepositSol(signer)
		case "Withdraw SOL":
			handleWithdrawSol(signer)
		case "Wallet Management":
			handleWalletManagement(signer)
		case "Switch Profile":
			return
		}
	}
}

// interactiveReadOnlyClient resolves the pool from flags and config and
// returns a client that never signs.
func interactiveReadOnlyClient() (*spool.Client, *Settings, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}
	pool, err := resolvePool(settings)
	if err != nil {
		return nil, nil, err
	}
	client, err := spool.NewReadOnlyClient(GetRpcEndpoint(), pool)
	if err != nil {
		return nil, nil, err
	}
	return client, settings, nil
}

// interactivePoolClient resolves the pool and binds the selected profile's
// key as the signer.
func interactivePoolClient(signer solana.PrivateKey) (*spool.Client, *Settings, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}
	pool, err := resolvePool(settings)
	if err != nil {
		return nil, nil, err
	}
	client, err := spool.NewClient(GetRpcEndpoint(), signer, pool)
	if err != nil {
		return nil, nil, err
	}
	return client, settings, nil
}

func handlePoolStatus() {
	client, _, err := interactiveReadOnlyClient()
	if err != nil {
		fmt.Println(warningStyle.Render("❌ " + err.Error()))
		return
	}

	if err := printPoolStatus(context.Background(), client); err != nil {
		fmt.Println(warningStyle.Render("❌ Could not fetch pool status: " + err.Error()))
	}
}

func handlePreviewPlan() {
	client, settings, err := interactiveReadOnlyClient()
	if err != nil {
		fmt.Println(warningStyle.Render("❌ " + err.Error()))
		return
	}

	logger, err := newLogger()
	if err != nil {
		fmt.Println(warningStyle.Render("❌ " + err.Error()))
		return
	}
	defer logger.Sync()

	if err := printRebalancePlan(context.Background(), client, logger, settings.RetainedReserve); err != nil {
		fmt.Println(warningStyle.Render("❌ Could not compute plan: " + err.Error()))
	}
}

func handleRebalancePass(signer solana.PrivateKey) {
	client, settings, err := interactivePoolClient(signer)
	if err != nil {
		fmt.Println(warningStyle.Render("❌ " + err.Error()))
		return
	}

	confirm := false
	prompt := &survey.Confirm{
		Message: "Run one full rebalance pass now? This signs and sends transactions.",
		Default: false,
	}
	survey.AskOne(prompt, &confirm)
	if !confirm {
		fmt.Println("Canceled.")
		return
	}

	logger, err := newLogger()
	if err != nil {
		fmt.Println(warningStyle.Render("❌ " + err.Error()))
		return
	}
	defer logger.Sync()

	db, err := storage.Connect()
	if err != nil {
		fmt.Println(warningStyle.Render("❌ " + err.Error()))
		return
	}

	bot := &rebalance.Bot{
		Client:   client,
		Logger:   logger,
		Recorder: db,
		Config: rebalance.BotConfig{
			RetainedReserveLamports: solToLamports(settings.RetainedReserve),
		},
	}

	if err := bot.RunPass(context.Background()); err != nil {
		fmt.Println(warningStyle.Render("❌ Rebalance pass failed: " + err.Error()))
		return
	}
	fmt.Println(titleStyle.Render("✅ Rebalance pass complete!"))
}

func handleDepositSol(signer solana.PrivateKey) {
	client, _, err := interactivePoolClient(signer)
	if err != nil {
		fmt.Println(warningStyle.Render("❌ " + err.Error()))
		return
	}

	amountStr := ""
	prompt := &survey.Input{Message: "Enter amount of SOL to deposit:"}
	survey.AskOne(prompt, &amountStr, survey.WithValidator(survey.Required))

	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil || amount <= 0 {
		fmt.Println(warningStyle.Render("❌ Invalid amount."))
		return
	}

	sig, err := client.DepositSol(context.Background(), solToLamports(amount))
	if err != nil {
		fmt.Println(warningStyle.Render("❌ Deposit failed: " + err.Error()))
		return
	}

	fmt.Println(titleStyle.Render("✅ Deposit submitted!"))
	fmt.Printf("   Transaction Signature: %s\n", sig)
}

func handleWithdrawSol(signer solana.PrivateKey) {
	client, _, err := interactivePoolClient(signer)
	if err != nil {
		fmt.Println(warningStyle.Render("❌ " + err.Error()))
		return
	}

	amountStr := ""
	prompt := &survey.Input{Message: "Enter amount of pool tokens to redeem:"}
	survey.AskOne(prompt, &amountStr, survey.WithValidator(survey.Required))

	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil || amount <= 0 {
		fmt.Println(warningStyle.Render("❌ Invalid amount."))
		return
	}

	// The pool mint uses 9 decimals, matching native SOL.
	sig, err := client.WithdrawSol(context.Background(), solToLamports(amount))
	if err != nil {
		fmt.Println(warningStyle.Render("❌ Withdrawal failed: " + err.Error()))
		return
	}

	fmt.Println(titleStyle.Render("✅ Withdrawal submitted!"))
	fmt.Printf("   Transaction Signature: %s\n", sig)
}

// handleWalletManagement shows the wallet submenu for the active profile.
func handleWalletManagement(signer solana.PrivateKey) {
	for {
		choice := ""
		prompt := &survey.Select{
			Message: "Wallet Management:",
			Options: []string{
				"View Address",
				"View Balance",
				"Send SOL",
				"Export Wallet (UNSAFE)",
				"Back to Main Menu",
			},
		}
		if err := survey.AskOne(prompt, &choice); err != nil {
			return
		}

		switch choice {
		case "View Address":
			fmt.Printf("\n   Address: %s\n", signer.PublicKey())
		case "View Balance":
			handleViewBalance(signer)
		case "Send SOL":
			handleSendSol(signer)
		case "Export Wallet (UNSAFE)":
			handleExportWallet(signer)
		case "Back to Main Menu":
			return
		}
	}
}

func handleViewBalance(signer solana.PrivateKey) {
	// Wallet operations never touch the pool account.
	client, err := spool.NewClient(GetRpcEndpoint(), signer, solana.PublicKey{})
	if err != nil {
		fmt.Println(warningStyle.Render("❌ Could not create client: " + err.Error()))
		return
	}

	balance, err := client.GetBalance(context.Background(), signer.PublicKey())
	if err != nil {
		fmt.Println(warningStyle.Render("❌ Could not fetch balance: " + err.Error()))
		return
	}
	fmt.Printf("\n   Balance: %s SOL\n", formatSol(balance))
}

func handleSendSol(signer solana.PrivateKey) {
	recipientStr := ""
	prompt := &survey.Input{Message: "Recipient address:"}
	survey.AskOne(prompt, &recipientStr, survey.WithValidator(survey.Required))

	recipient, err := solana.PublicKeyFromBase58(recipientStr)
	if err != nil {
		fmt.Println(warningStyle.Render("❌ Invalid recipient address."))
		return
	}

	amountStr := ""
	amountPrompt := &survey.Input{Message: "Enter amount of SOL to send:"}
	survey.AskOne(amountPrompt, &amountStr, survey.WithValidator(survey.Required))

	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil || amount <= 0 {
		fmt.Println(warningStyle.Render("❌ Invalid amount."))
		return
	}

	confirm := false
	confirmPrompt := &survey.Confirm{
		Message: fmt.Sprintf("Send %s SOL to %s?", amountStr, recipient),
		Default: false,
	}
	survey.AskOne(confirmPrompt, &confirm)
	if !confirm {
		fmt.Println("Canceled.")
		return
	}

	client, err := spool.NewClient(GetRpcEndpoint(), signer, solana.PublicKey{})
	if err != nil {
		fmt.Println(warningStyle.Render("❌ Could not create client: " + err.Error()))
		return
	}

	sig, err := client.SendSol(context.Background(), recipient, solToLamports(amount))
	if err != nil {
		fmt.Println(warningStyle.Render("❌ Transfer failed: " + err.Error()))
		return
	}

	fmt.Println(titleStyle.Render("✅ Transfer sent!"))
	fmt.Printf("   Transaction Signature: %s\n", sig)
}

func handleExportWallet(signer solana.PrivateKey) {
	fmt.Println(warningStyle.Render("\n⚠️  The private key gives full control over this wallet."))
	fmt.Println(warningStyle.Render("⚠️  Never share it or store it anywhere you do not trust."))

	confirm := false
	prompt := &survey.Confirm{Message: "Show the private key now?", Default: false}
	survey.AskOne(prompt, &confirm)
	if !confirm {
		return
	}

	fmt.Printf("\n   Private Key: %s\n", signer.String())
}
