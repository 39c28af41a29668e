package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"poolhand/spool"
	"poolhand/storage"
	"poolhand/wallet"
)

// Global flags shared by every command. Flags beat the config file, which
// beats the built-in defaults.
var (
	flagURL     string
	flagPool    string
	flagKeypair string
	flagProfile string
	flagConfig  string
	flagVerbose bool
)

var (
	rpcEndpoint         = "https://api.devnet.solana.com"
	endpointInitialized = false
)

// GetRpcEndpoint returns the RPC endpoint to use: the --url flag when given,
// then a Helius endpoint when HELIUS_API_KEY is set, then the public devnet
// endpoint.
func GetRpcEndpoint() string {
	if flagURL != "" {
		return flagURL
	}

	if !endpointInitialized {
		if err := godotenv.Load(); err != nil {
			log.Println("Info: .env file not found, using default public RPC endpoint.")
		}

		if heliusApiKey := os.Getenv("HELIUS_API_KEY"); heliusApiKey != "" {
			rpcEndpoint = fmt.Sprintf("https://devnet.helius-rpc.com/?api-key=%s", heliusApiKey)
			log.Println("Info: Using Helius RPC endpoint.")
		}
		endpointInitialized = true
	}
	return rpcEndpoint
}

// Settings mirrors the optional YAML config file.
type Settings struct {
	Pool            string
	Keypair         string
	RetainedReserve float64
	Interval        time.Duration
	MetricsAddr     string
}

// loadSettings reads poolhand.yaml from the working directory or its config/
// subdirectory, or the file named by --config. A missing file is only an
// error when --config named it explicitly.
func loadSettings() (*Settings, error) {
	v := viper.New()
	if flagConfig != "" {
		v.SetConfigFile(flagConfig)
	} else {
		v.SetConfigName("poolhand")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
	}

	if err := v.ReadInConfig(); err != nil {
		if flagConfig != "" {
			return nil, fmt.Errorf("could not read config file %s: %w", flagConfig, err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}

	return &Settings{
		Pool:            v.GetString("pool"),
		Keypair:         v.GetString("keypair"),
		RetainedReserve: v.GetFloat64("retained_reserve_sol"),
		Interval:        v.GetDuration("interval"),
		MetricsAddr:     v.GetString("metrics_addr"),
	}, nil
}

// resolvePool picks the stake pool address from --pool or the config file.
func resolvePool(settings *Settings) (solana.PublicKey, error) {
	address := flagPool
	if address == "" && settings != nil {
		address = settings.Pool
	}
	if address == "" {
		return solana.PublicKey{}, errors.New("no stake pool configured: pass --pool or set pool in the config file")
	}

	pool, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid stake pool address %q: %w", address, err)
	}
	return pool, nil
}

// resolveSigner picks the signing key: --keypair (or the config file's
// keypair path), then the --profile wallet, then the first stored profile.
func resolveSigner(settings *Settings) (solana.PrivateKey, error) {
	keypairPath := flagKeypair
	if keypairPath == "" && settings != nil {
		keypairPath = settings.Keypair
	}
	if keypairPath != "" {
		w, err := wallet.LoadKeypairFile(keypairPath)
		if err != nil {
			return nil, err
		}
		return w.PrivateKey, nil
	}

	db, err := storage.Connect()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	profile := flagProfile
	if profile == "" {
		names, err := db.GetAllWalletNames()
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return nil, errors.New("no signer configured: pass --keypair or --profile, or create a profile with 'poolhand wallet create'")
		}
		profile = names[0]
	}

	stored, err := db.GetWallet(profile)
	if err != nil {
		return nil, err
	}
	return solana.PrivateKey(stored.PrivateKey), nil
}

// newPoolClient builds a signing client from the flags and config file.
func newPoolClient() (*spool.Client, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	pool, err := resolvePool(settings)
	if err != nil {
		return nil, err
	}
	signer, err := resolveSigner(settings)
	if err != nil {
		return nil, err
	}
	return spool.NewClient(GetRpcEndpoint(), signer, pool)
}

// newReadOnlyPoolClient builds a client for commands that never sign.
func newReadOnlyPoolClient() (*spool.Client, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	pool, err := resolvePool(settings)
	if err != nil {
		return nil, err
	}
	return spool.NewReadOnlyClient(GetRpcEndpoint(), pool)
}

// newLogger builds the CLI logger. --verbose enables debug output.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !flagVerbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func solToLamports(amount float64) uint64 {
	return uint64(amount * float64(solana.LAMPORTS_PER_SOL))
}

func formatSol(lamports uint64) string {
	return fmt.Sprintf("%.9f", float64(lamports)/float64(solana.LAMPORTS_PER_SOL))
}
