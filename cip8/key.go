package cip8

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// COSE_Key labels and values (RFC 8152 section 13)
const (
	KeyLabelKty = 1
	KeyLabelAlg = 3
	KeyLabelCrv = -1
	KeyLabelX   = -2

	KeyTypeOKP     = 1
	CurveEd25519   = 6
	AlgorithmEdDSA = -8
)

// ParseKey decodes a COSE_Key and returns the raw Ed25519 public key bytes
func ParseKey(data []byte) ([]byte, error) {
	var key any
	if err := cbor.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("%w: failed to decode COSE_Key: %v", ErrMalformedEncoding, err)
	}

	kty, ok := intValue(key, KeyLabelKty)
	if !ok || kty != KeyTypeOKP {
		return nil, fmt.Errorf("%w: key type is not OKP", ErrUnsupportedKeyType)
	}

	crv, ok := intValue(key, KeyLabelCrv)
	if !ok {
		return nil, fmt.Errorf("%w: missing curve", ErrUnsupportedKeyType)
	}
	if crv != CurveEd25519 {
		return nil, fmt.Errorf("%w: curve %d is not Ed25519", ErrUnsupportedKeyType, crv)
	}

	x, ok := HeaderValue(key, KeyLabelX)
	if !ok {
		return nil, fmt.Errorf("%w: missing public key", ErrUnsupportedKeyType)
	}
	raw, ok := x.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: public key is %T, expected byte string", ErrUnsupportedKeyType, x)
	}

	return raw, nil
}

// EncodeKey encodes an Ed25519 public key as a COSE_Key
func EncodeKey(pub ed25519.PublicKey) ([]byte, error) {
	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid Ed25519 public key size: %d", len(pub))
	}

	encMode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}

	encoded, err := encMode.Marshal(map[int]any{
		KeyLabelKty: KeyTypeOKP,
		KeyLabelAlg: AlgorithmEdDSA,
		KeyLabelCrv: CurveEd25519,
		KeyLabelX:   []byte(pub),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode COSE_Key: %w", err)
	}
	return encoded, nil
}

// EncodeKeyHex is EncodeKey with hex output
func EncodeKeyHex(pub ed25519.PublicKey) (string, error) {
	encoded, err := EncodeKey(pub)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(encoded), nil
}
