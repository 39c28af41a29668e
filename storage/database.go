package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gagliardetto/solana-go"
)

const (
	walletsFileName = "wallets.json"
	historyFileName = "history.json"
	configDirName   = "config"
)

// JSONDB provides a connection to the JSON-based storage. Wallet profiles and
// the rebalance pass history live in separate files under the config
// directory.
type JSONDB struct {
	walletsPath string
	historyPath string
}

// Connect opens and initializes the JSON-based storage.
func Connect() (*JSONDB, error) {
	dir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("could not get config directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create config directory: %w", err)
	}

	db := &JSONDB{
		walletsPath: filepath.Join(dir, walletsFileName),
		historyPath: filepath.Join(dir, historyFileName),
	}

	// Initialize with an empty wallets file if it doesn't exist.
	if _, err := os.Stat(db.walletsPath); os.IsNotExist(err) {
		file, err := os.Create(db.walletsPath)
		if err != nil {
			return nil, fmt.Errorf("could not create wallets file: %w", err)
		}
		file.Close()
	}

	return db, nil
}

// GetAllWalletNames returns every stored profile name, sorted for stable
// menus.
func (db *JSONDB) GetAllWalletNames() ([]string, error) {
	wallets, err := db.readWallets()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(wallets))
	for name := range wallets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// GetWallet retrieves the named wallet profile from the JSON file.
// It returns an error if no such wallet is stored.
func (db *JSONDB) GetWallet(name string) (*Wallet, error) {
	wallets, err := db.readWallets()
	if err != nil {
		return nil, err
	}

	encoded, ok := wallets[name]
	if !ok {
		return nil, fmt.Errorf("no wallet named %q found", name)
	}

	// Decode the base64 private key string back to bytes.
	privateKeyBytes, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("could not decode private key: %w", err)
	}

	if len(privateKeyBytes) != solana.PrivateKeyLength {
		return nil, fmt.Errorf("invalid private key length in wallets file: expected %d, got %d", solana.PrivateKeyLength, len(privateKeyBytes))
	}

	return &Wallet{
		Name:       name,
		PrivateKey: privateKeyBytes,
	}, nil
}

// SaveWallet stores a wallet under the given profile name, replacing any
// existing profile with that name.
func (db *JSONDB) SaveWallet(name string, privateKey solana.PrivateKey) error {
	wallets, err := db.readWallets()
	if err != nil {
		return err
	}

	// Encode the private key as base64 string for JSON storage.
	wallets[name] = base64.StdEncoding.EncodeToString(privateKey[:])

	data, err := json.Marshal(wallets)
	if err != nil {
		return fmt.Errorf("could not marshal wallet data: %w", err)
	}

	if err := os.WriteFile(db.walletsPath, data, 0644); err != nil {
		return fmt.Errorf("could not write wallets file: %w", err)
	}

	return nil
}

// readWallets loads the profile name to base64 key mapping. A missing or
// empty file is an empty mapping.
func (db *JSONDB) readWallets() (map[string]string, error) {
	data, err := os.ReadFile(db.walletsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("could not read wallets file: %w", err)
	}

	if len(data) == 0 {
		return map[string]string{}, nil
	}

	var wallets map[string]string
	if err := json.Unmarshal(data, &wallets); err != nil {
		return nil, fmt.Errorf("could not parse wallets file: %w", err)
	}
	return wallets, nil
}

// getConfigDir returns the config directory relative to the current working
// directory.
func getConfigDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("could not get current working directory: %w", err)
	}
	return filepath.Join(cwd, configDirName), nil
}

// Close closes the JSON database connection (for interface compatibility).
// Since this is a JSON file implementation, there's no actual connection to close.
func (db *JSONDB) Close() error {
	return nil
}
