// Package keys provides development wallet key loading and management.
//
// Keys let the CLI act as a wallet: sign connection challenges and produce
// the same CIP-8 payloads a browser wallet would return.
//
// # Key File Format
//
// Keys are stored in ~/.config/cip8-walletauth/keys/ with two files per key:
//
//	<key-name>.skey - Format: "hexseed:ed25519" where hexseed is the 32-byte seed
//	<key-name>.addr - The wallet address, hex or bech32
//
// # Loading Keys
//
// Load a key using the FileKeyProvider:
//
//	provider := &keys.FileKeyProvider{KeyName: "dev"}
//	key, err := provider.GetSigningKey(context.Background())
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Or create one:
//
//	key, err := keys.Generate(dir, "dev", address.Testnet)
package keys

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/anchorageoss/cip8-walletauth/address"
	"github.com/anchorageoss/cip8-walletauth/cip8"
	"github.com/anchorageoss/cip8-walletauth/crypto"
)

const (
	signingKeyExt = ".skey"
	addressExt    = ".addr"
	curveEd25519  = "ed25519"
)

// SigningKey is a development wallet key
type SigningKey struct {
	Name       string
	PrivateKey ed25519.PrivateKey
	Address    string
}

// PublicKey returns the key's Ed25519 public key
func (k *SigningKey) PublicKey() ed25519.PublicKey {
	return k.PrivateKey.Public().(ed25519.PublicKey)
}

// Signer returns a CIP-8 signer bound to the key's address
func (k *SigningKey) Signer() (*cip8.Signer, error) {
	raw, err := address.Decode(k.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to decode address for key %s: %w", k.Name, err)
	}
	return cip8.NewSigner(k.PrivateKey, raw)
}

// Provider supplies a signing key
type Provider interface {
	GetSigningKey(ctx context.Context) (*SigningKey, error)
}

// FileKeyProvider implements Provider by reading from files
type FileKeyProvider struct {
	KeyName string
	// Dir overrides DefaultDir
	Dir string
}

// GetSigningKey loads the key from files
func (f *FileKeyProvider) GetSigningKey(ctx context.Context) (*SigningKey, error) {
	dir := f.Dir
	if dir == "" {
		var err error
		dir, err = DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	return LoadSigningKey(dir, f.KeyName)
}

// DefaultDir returns the default key directory
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "cip8-walletauth", "keys"), nil
}

// LoadSigningKey loads the named key from dir
func LoadSigningKey(dir, keyName string) (*SigningKey, error) {
	if keyName == "" {
		return nil, errors.New("key name is required")
	}

	// Load signing key
	keyBytes, err := os.ReadFile(filepath.Join(dir, keyName+signingKeyExt))
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key file: %w", err)
	}

	// Parse format: "hexseed:curve"
	parts := strings.Split(strings.TrimSpace(string(keyBytes)), ":")
	if len(parts) != 2 {
		return nil, errors.New("invalid signing key format, expected 'hexseed:curve'")
	}

	seedHex, curve := parts[0], parts[1]
	if curve != curveEd25519 {
		return nil, fmt.Errorf("unsupported curve: %s, only ed25519 is supported", curve)
	}

	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode signing key hex: %w", err)
	}

	privateKey, err := crypto.Ed25519FromSeed(seed)
	if err != nil {
		return nil, err
	}

	// Load address
	addrBytes, err := os.ReadFile(filepath.Join(dir, keyName+addressExt))
	if err != nil {
		return nil, fmt.Errorf("failed to read address file: %w", err)
	}
	addr := strings.TrimSpace(string(addrBytes))
	if _, err := address.Decode(addr); err != nil {
		return nil, fmt.Errorf("invalid address in %s%s: %w", keyName, addressExt, err)
	}

	return &SigningKey{
		Name:       keyName,
		PrivateKey: privateKey,
		Address:    addr,
	}, nil
}

// WriteSigningKey stores a key in dir, creating the directory if needed
func WriteSigningKey(dir string, key *SigningKey) error {
	if key == nil || key.Name == "" {
		return errors.New("key name is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	skeyPath := filepath.Join(dir, key.Name+signingKeyExt)
	if _, err := os.Stat(skeyPath); err == nil {
		return fmt.Errorf("key %s already exists", key.Name)
	}

	content := hex.EncodeToString(key.PrivateKey.Seed()) + ":" + curveEd25519 + "\n"
	if err := os.WriteFile(skeyPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write signing key file: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, key.Name+addressExt), []byte(key.Address+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write address file: %w", err)
	}

	return nil
}

// Generate creates a fresh key with an enterprise address on network and stores it in dir
func Generate(dir, keyName string, network address.Network) (*SigningKey, error) {
	pub, priv, err := crypto.GenerateEd25519()
	if err != nil {
		return nil, err
	}

	raw, err := address.Enterprise(pub, network)
	if err != nil {
		return nil, err
	}
	addr, err := address.Encode(raw)
	if err != nil {
		return nil, err
	}

	key := &SigningKey{Name: keyName, PrivateKey: priv, Address: addr}
	if err := WriteSigningKey(dir, key); err != nil {
		return nil, err
	}
	return key, nil
}
