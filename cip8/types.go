// Package cip8 verifies CIP-8 wallet signatures carried in COSE_Sign1 envelopes.
//
// A Cardano wallet answers a connection request with a signed data object:
// a COSE_Sign1 structure over the requested hash and the COSE_Key holding the
// Ed25519 public key that produced the signature. The verifier checks:
//   - the COSE_Sign1 is a well-formed 4-element array
//   - the signed payload equals the expected hash
//   - the protected headers carry an address
//   - the COSE_Key is an OKP key on Ed25519
//   - the signature is valid over the reconstructed Sig_structure
//
// # Verification
//
// Verify is total: malformed or adversarial input yields false, never a panic
// or an error:
//
//	ok := cip8.Verify(cip8.SignedConnectionPayload{
//		Address:   "addr1...",
//		Hash:      "7770bb12...",
//		Signature: "84582aa2...",
//		Key:       "a4010103...",
//	})
//
// Use a Verifier with Check when the reason for a rejection matters:
//
//	v := cip8.NewVerifier(cip8.WithLogger(logger))
//	result, err := v.Check(payload)
//	if err != nil {
//		log.Printf("rejected (%s): %v", cip8.Kind(err), err)
//	}
//
// # Signing
//
// Signer emulates a wallet's signData for development and tests. It produces
// the same untagged COSE_Sign1 and COSE_Key encodings that browser wallets
// return.
package cip8

import (
	"crypto/ed25519"
)

// SignedConnectionPayload is what a wallet returns after approving a
// connection request. All byte fields are hex encoded.
type SignedConnectionPayload struct {
	Address   string `json:"address"`
	Hash      string `json:"hash"`
	Signature string `json:"signature"`
	Key       string `json:"key"`
}

// Result describes a payload that passed verification
type Result struct {
	// Address is the raw value of the protected "address" header, when it is a byte string
	Address []byte
	// Hashed is the unprotected "hashed" flag. It does not alter verification.
	Hashed bool
	// Payload is the signed payload; equal to the expected hash
	Payload []byte
	// Protected is the serialized protected header map as signed
	Protected []byte
	// PublicKey is the Ed25519 key taken from the COSE_Key
	PublicKey ed25519.PublicKey
	// Signature is the raw Ed25519 signature
	Signature []byte
	// SigStructure is the encoded Sig_structure the signature covers
	SigStructure []byte
}
