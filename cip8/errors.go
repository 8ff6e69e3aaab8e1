package cip8

import (
	"errors"
)

// Rejection kinds. Check wraps one of these in every error it returns.
var (
	ErrMissingField       = errors.New("missing field")
	ErrMalformedEncoding  = errors.New("malformed encoding")
	ErrStructuralMismatch = errors.New("structural mismatch")
	ErrPayloadMismatch    = errors.New("payload mismatch")
	ErrMissingAddress     = errors.New("missing address header")
	ErrAddressMismatch    = errors.New("address mismatch")
	ErrUnsupportedKeyType = errors.New("unsupported key type")
	ErrCryptoVerification = errors.New("crypto verification failure")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrMissingField, "missing_field"},
	{ErrMalformedEncoding, "malformed_encoding"},
	{ErrStructuralMismatch, "structural_mismatch"},
	{ErrPayloadMismatch, "payload_mismatch"},
	{ErrMissingAddress, "missing_address"},
	{ErrAddressMismatch, "address_mismatch"},
	{ErrUnsupportedKeyType, "unsupported_key_type"},
	{ErrCryptoVerification, "crypto_verification_failure"},
}

// Kind returns a stable label for the rejection kind of err.
// It returns "ok" for nil and "unknown" for errors outside this package.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}

// Kinds lists every rejection label Kind can return, excluding "ok" and "unknown"
func Kinds() []string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.name)
	}
	return names
}
