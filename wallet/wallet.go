package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gagliardetto/solana-go"
)

const (
	defaultConfigDirName  = ".config"
	poolhandConfigDirName = "poolhand"
	keypairFileName       = "staker.json"
)

// Wallet holds the Solana keypair for the CLI.
type Wallet struct {
	PrivateKey solana.PrivateKey
}

// PublicKey returns the public key of the wallet.
func (w *Wallet) PublicKey() solana.PublicKey {
	return w.PrivateKey.PublicKey()
}

// LoadOrCreateWallet loads the Solana wallet from the default path,
// or creates a new one if it doesn't exist.
func LoadOrCreateWallet() (*Wallet, error) {
	walletPath, err := getWalletPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet path: %w", err)
	}

	// Check if wallet file exists.
	if _, err := os.Stat(walletPath); os.IsNotExist(err) {
		fmt.Println("No existing wallet found. Creating a new one...")
		return createNewWallet(walletPath)
	} else if err != nil {
		return nil, fmt.Errorf("failed to check for wallet file: %w", err)
	}

	fmt.Println("Loading existing wallet from:", walletPath)
	return LoadKeypairFile(walletPath)
}

// createNewWallet generates a new private key and saves it to the specified path.
func createNewWallet(path string) (*Wallet, error) {
	privateKey := solana.NewWallet().PrivateKey
	wallet := &Wallet{PrivateKey: privateKey}

	if err := SaveKeypairFile(wallet, path); err != nil {
		return nil, fmt.Errorf("failed to save new wallet: %w", err)
	}

	fmt.Println("✅ New wallet created and saved successfully.")
	return wallet, nil
}

// LoadKeypairFile loads a private key from a Solana keygen JSON file, the
// byte-array format written by solana-keygen and by SaveKeypairFile.
func LoadKeypairFile(path string) (*Wallet, error) {
	privateKey, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keypair file: %w", err)
	}

	if len(privateKey) != solana.PrivateKeyLength {
		return nil, fmt.Errorf("invalid private key length: expected %d, got %d", solana.PrivateKeyLength, len(privateKey))
	}

	return &Wallet{PrivateKey: privateKey}, nil
}

// SaveKeypairFile saves the wallet's private key in Solana keygen JSON
// format so the standard tooling can read it back.
func SaveKeypairFile(wallet *Wallet, path string) error {
	// Ensure the directory exists.
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create wallet directory: %w", err)
	}

	// solana-keygen stores the key as a JSON array of bytes, not base64.
	values := make([]int, len(wallet.PrivateKey))
	for i, b := range wallet.PrivateKey {
		values[i] = int(b)
	}
	bytes, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}

	if err := os.WriteFile(path, bytes, 0600); err != nil {
		return fmt.Errorf("failed to write wallet file: %w", err)
	}

	return nil
}

// getWalletPath returns the default absolute path for the wallet file.
// e.g., /home/user/.config/poolhand/staker.json
func getWalletPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, defaultConfigDirName, poolhandConfigDirName, keypairFileName), nil
}
