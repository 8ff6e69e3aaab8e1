// Package crypto provides the Ed25519 primitives used by CIP-8 wallet signatures.
//
// This package provides:
//   - Import of raw 32-byte Ed25519 keys through an SPKI/DER wrapper
//   - Pure Ed25519 verification (no pre-hash)
//   - Key generation, from entropy or a fixed seed
//
// # Importing Keys
//
// Wallets publish the raw public key inside a COSE_Key. Wrap and import it:
//
//	pub, err := crypto.ParseEd25519PublicKey(raw)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Verification
//
// Verify an Ed25519 signature over an arbitrary message:
//
//	ok, err := crypto.VerifyEd25519(pub, message, signature)
package crypto

import (
	stdcrypto "crypto"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
)

// Ed25519SPKIPrefix is the DER SubjectPublicKeyInfo header for a 32-byte
// Ed25519 key (OID 1.3.101.112).
var Ed25519SPKIPrefix = mustDecodeHex("302a300506032b6570032100")

// ErrInvalidKeySize is returned when a raw key is not 32 bytes
var ErrInvalidKeySize = errors.New("invalid Ed25519 public key size")

// MarshalEd25519SPKI wraps a raw Ed25519 public key in its SPKI/DER header
func MarshalEd25519SPKI(raw []byte) ([]byte, error) {
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(raw))
	}

	der := make([]byte, 0, len(Ed25519SPKIPrefix)+len(raw))
	der = append(der, Ed25519SPKIPrefix...)
	return append(der, raw...), nil
}

// ParseEd25519PublicKey imports a raw Ed25519 public key via its DER encoding
func ParseEd25519PublicKey(raw []byte) (ed25519.PublicKey, error) {
	der, err := MarshalEd25519SPKI(raw)
	if err != nil {
		return nil, err
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	pub, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("expected Ed25519 public key, got %T", parsed)
	}

	return pub, nil
}

// VerifyEd25519 verifies a pure Ed25519 signature over message
func VerifyEd25519(pub ed25519.PublicKey, message, signature []byte) (bool, error) {
	if len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(pub))
	}

	// Ed25519 hashes internally, so no digest algorithm is selected
	err := ed25519.VerifyWithOptions(pub, message, signature, &ed25519.Options{Hash: stdcrypto.Hash(0)})
	if err != nil {
		return false, nil
	}

	return true, nil
}

// GenerateEd25519 creates a new random Ed25519 key pair
func GenerateEd25519() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate Ed25519 key: %w", err)
	}
	return pub, priv, nil
}

// Ed25519FromSeed derives a private key from a 32-byte seed
func Ed25519FromSeed(seed []byte) (ed25519.PrivateKey, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid Ed25519 seed size: expected %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
