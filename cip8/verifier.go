package cip8

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/anchorageoss/cip8-walletauth/address"
	"github.com/anchorageoss/cip8-walletauth/crypto"
)

// Option configures a Verifier
type Option func(*Verifier)

// WithLogger sets the logger used for rejection diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// WithAddressBinding makes Check compare the protected "address" header with
// the address claimed in the payload. Off by default: only presence of the
// header is required.
func WithAddressBinding(enabled bool) Option {
	return func(v *Verifier) {
		v.bindAddress = enabled
	}
}

// Verifier checks CIP-8 signed connection payloads. It holds no mutable
// state and is safe for concurrent use.
type Verifier struct {
	logger      zerolog.Logger
	bindAddress bool
}

// NewVerifier creates a verifier
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var defaultVerifier = NewVerifier()

// Verify reports whether payload carries a valid CIP-8 signature, using a
// verifier with default options
func Verify(payload SignedConnectionPayload) bool {
	return defaultVerifier.Verify(payload)
}

// Verify reports whether payload carries a valid CIP-8 signature. It never
// panics; every failure is reported as false.
func (v *Verifier) Verify(payload SignedConnectionPayload) (valid bool) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error().Interface("panic", r).Msg("recovered during signature verification")
			valid = false
		}
	}()

	_, err := v.Check(payload)
	return err == nil
}

// Check runs the verification pipeline and returns the decoded result, or an
// error wrapping one of the rejection kinds
func (v *Verifier) Check(payload SignedConnectionPayload) (*Result, error) {
	result, err := v.check(payload)
	if err != nil {
		v.logger.Debug().
			Str("reason", Kind(err)).
			Str("address", payload.Address).
			Err(err).
			Msg("signature rejected")
		return nil, err
	}

	v.logger.Debug().
		Str("address", payload.Address).
		Str("header_address", address.Display(result.Address)).
		Bool("hashed", result.Hashed).
		Msg("signature verified")
	return result, nil
}

func (v *Verifier) check(payload SignedConnectionPayload) (*Result, error) {
	// Step 1: required fields
	switch {
	case payload.Signature == "":
		return nil, fmt.Errorf("%w: signature", ErrMissingField)
	case payload.Key == "":
		return nil, fmt.Errorf("%w: key", ErrMissingField)
	case payload.Hash == "":
		return nil, fmt.Errorf("%w: hash", ErrMissingField)
	}

	// Step 2: decode the COSE_Sign1 envelope
	signatureBytes, err := hex.DecodeString(payload.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: signature is not valid hex: %v", ErrMalformedEncoding, err)
	}
	sign1, err := DecodeSign1(signatureBytes)
	if err != nil {
		return nil, err
	}

	// Step 3: the payload must be exactly the expected hash
	expectedHash, err := hex.DecodeString(payload.Hash)
	if err != nil {
		return nil, fmt.Errorf("%w: hash is not valid hex: %v", ErrMalformedEncoding, err)
	}
	signedPayload, ok := sign1.Payload.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: payload is %T, expected byte string", ErrStructuralMismatch, sign1.Payload)
	}
	if !bytes.Equal(signedPayload, expectedHash) {
		return nil, fmt.Errorf("%w: signed payload %x does not match expected hash %x",
			ErrPayloadMismatch, signedPayload, expectedHash)
	}

	// Step 4: headers
	protectedHeaders, err := DecodeHeaders(sign1.Protected)
	if err != nil {
		return nil, err
	}

	// "hashed" is informational; the Sig_structure is the same either way
	hashed := false
	if h, ok := HeaderValue(sign1.Unprotected, HeaderHashed); ok {
		hashed, _ = h.(bool)
	}

	headerAddress, ok := HeaderValue(protectedHeaders, HeaderAddress)
	if !ok {
		return nil, ErrMissingAddress
	}
	addressBytes, _ := headerAddress.([]byte)

	if v.bindAddress {
		if err := bindAddress(addressBytes, payload.Address); err != nil {
			return nil, err
		}
	}

	// Step 5: COSE_Key
	keyBytes, err := hex.DecodeString(payload.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: key is not valid hex: %v", ErrMalformedEncoding, err)
	}
	rawPublicKey, err := ParseKey(keyBytes)
	if err != nil {
		return nil, err
	}

	// Step 6: rebuild the Sig_structure and verify
	sigStructure, err := SigStructure(sign1.Protected, signedPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}

	signature, ok := sign1.Signature.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: signature is %T, expected byte string", ErrCryptoVerification, sign1.Signature)
	}

	publicKey, err := crypto.ParseEd25519PublicKey(rawPublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoVerification, err)
	}

	valid, err := crypto.VerifyEd25519(publicKey, sigStructure, signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoVerification, err)
	}
	if !valid {
		return nil, fmt.Errorf("%w: signature does not match Sig_structure", ErrCryptoVerification)
	}

	return &Result{
		Address:      addressBytes,
		Hashed:       hashed,
		Payload:      signedPayload,
		Protected:    sign1.Protected,
		PublicKey:    publicKey,
		Signature:    signature,
		SigStructure: sigStructure,
	}, nil
}

func bindAddress(headerAddress []byte, claimed string) error {
	if len(headerAddress) == 0 {
		return fmt.Errorf("%w: header address is not a byte string", ErrAddressMismatch)
	}
	claimedBytes, err := address.Decode(claimed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAddressMismatch, err)
	}
	if !bytes.Equal(headerAddress, claimedBytes) {
		return fmt.Errorf("%w: header %s, claimed %s",
			ErrAddressMismatch, address.Display(headerAddress), claimed)
	}
	return nil
}
