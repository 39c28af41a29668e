package storage

// Wallet represents one named wallet profile stored in the JSON file.
// We use a byte slice for the private key as it's the raw format
// for cryptographic operations; the JSON layer stores it as base64.
type Wallet struct {
	Name       string
	PrivateKey []byte
}
