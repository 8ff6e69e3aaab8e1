package cip8

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

const sigStructureContext = "Signature1"

// Header labels used by CIP-8 wallets
const (
	HeaderAlgorithm = 1
	HeaderAddress   = "address"
	HeaderHashed    = "hashed"
)

// Sign1 is a decoded COSE_Sign1 array
type Sign1 struct {
	Protected   []byte
	Unprotected any
	Payload     any
	Signature   any
}

// DecodeSign1 decodes an untagged COSE_Sign1: [protected, unprotected, payload, signature]
func DecodeSign1(data []byte) (*Sign1, error) {
	var decoded any
	if err := cbor.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to decode COSE_Sign1: %v", ErrMalformedEncoding, err)
	}

	arr, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: COSE_Sign1 is %T, expected array", ErrStructuralMismatch, decoded)
	}
	if len(arr) != 4 {
		return nil, fmt.Errorf("%w: expected 4 elements in COSE_Sign1, got %d", ErrStructuralMismatch, len(arr))
	}

	protected, ok := arr[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: protected headers are %T, expected byte string", ErrStructuralMismatch, arr[0])
	}

	return &Sign1{
		Protected:   protected,
		Unprotected: arr[1],
		Payload:     arr[2],
		Signature:   arr[3],
	}, nil
}

// DecodeHeaders decodes a serialized header map
func DecodeHeaders(data []byte) (any, error) {
	var headers any
	if err := cbor.Unmarshal(data, &headers); err != nil {
		return nil, fmt.Errorf("%w: failed to decode protected headers: %v", ErrMalformedEncoding, err)
	}
	return headers, nil
}

// SigStructure encodes the COSE Sig_structure for a single signer:
// ["Signature1", protected, external_aad, payload] with an empty external_aad.
func SigStructure(protected, payload []byte) ([]byte, error) {
	// nil slices would encode as CBOR null
	if protected == nil {
		protected = []byte{}
	}
	if payload == nil {
		payload = []byte{}
	}

	encoded, err := cbor.Marshal([]any{sigStructureContext, protected, []byte{}, payload})
	if err != nil {
		return nil, fmt.Errorf("failed to encode Sig_structure: %w", err)
	}
	return encoded, nil
}

// UntagSign1 strips the COSE_Sign1 tag (18) when present
func UntagSign1(data []byte) []byte {
	var tag cbor.RawTag
	if err := cbor.Unmarshal(data, &tag); err != nil || tag.Number != cborTagSign1 {
		return data
	}
	return tag.Content
}

const cborTagSign1 = 18
