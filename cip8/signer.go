package cip8

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/veraison/go-cose"
)

// DataSignature is the CIP-30 signData result: hex COSE_Sign1 and COSE_Key
type DataSignature struct {
	Signature string `json:"signature"`
	Key       string `json:"key"`
}

// Connection combines the signature with the address and hash it answers
func (d *DataSignature) Connection(addr string, hash []byte) SignedConnectionPayload {
	return SignedConnectionPayload{
		Address:   addr,
		Hash:      hex.EncodeToString(hash),
		Signature: d.Signature,
		Key:       d.Key,
	}
}

// Signer produces CIP-8 signatures the way browser wallets do
type Signer struct {
	address []byte
	public  ed25519.PublicKey
	signer  cose.Signer
}

// NewSigner creates a signer for the given key and raw address bytes
func NewSigner(priv ed25519.PrivateKey, addr []byte) (*Signer, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid Ed25519 private key size: %d", len(priv))
	}
	if len(addr) == 0 {
		return nil, errors.New("address is required")
	}

	signer, err := cose.NewSigner(cose.AlgorithmEd25519, priv)
	if err != nil {
		return nil, fmt.Errorf("failed to create COSE signer: %w", err)
	}

	return &Signer{
		address: addr,
		public:  priv.Public().(ed25519.PublicKey),
		signer:  signer,
	}, nil
}

// Address returns the raw address placed in the protected headers
func (s *Signer) Address() []byte {
	return s.address
}

// PublicKey returns the signer's public key
func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.public
}

// SignData signs payload, returning an untagged COSE_Sign1 with protected
// headers {1: -8, "address": addr} and unprotected {"hashed": false}
func (s *Signer) SignData(payload []byte) (*DataSignature, error) {
	if payload == nil {
		payload = []byte{}
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(cose.AlgorithmEd25519)
	msg.Headers.Protected[HeaderAddress] = s.address
	msg.Headers.Unprotected[HeaderHashed] = false
	msg.Payload = payload

	if err := msg.Sign(rand.Reader, nil, s.signer); err != nil {
		return nil, fmt.Errorf("failed to sign COSE_Sign1: %w", err)
	}

	tagged, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("failed to encode COSE_Sign1: %w", err)
	}

	key, err := EncodeKeyHex(s.public)
	if err != nil {
		return nil, err
	}

	// Wallets return the untagged form
	return &DataSignature{
		Signature: hex.EncodeToString(UntagSign1(tagged)),
		Key:       key,
	}, nil
}
