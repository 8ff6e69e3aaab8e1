// Package address decodes and renders Cardano addresses.
//
// Wallets hand addresses around either as hex-encoded raw bytes (CIP-30) or
// as bech32 strings (addr1..., addr_test1..., stake1...). Both forms decode
// to the same raw bytes:
//
//	raw, err := address.Decode("addr1vxm6f2c6g75w4mwucp8737gk4lysk7fckae3xdt5s9etf5sqx3pvr")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(hex.EncodeToString(raw))
//
// Encode picks the human-readable prefix from the address header byte.
package address

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/blake2b"
)

// Network identifies the Cardano network encoded in an address header
type Network uint8

const (
	Testnet Network = 0
	Mainnet Network = 1
)

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	default:
		return fmt.Sprintf("network(%d)", uint8(n))
	}
}

// Human-readable bech32 prefixes (CIP-5)
const (
	PrefixAddr      = "addr"
	PrefixAddrTest  = "addr_test"
	PrefixStake     = "stake"
	PrefixStakeTest = "stake_test"
)

const maxAddressPayload = 128

var (
	// ErrEmpty is returned for an empty address string
	ErrEmpty = errors.New("empty address")
	// ErrUnknownPrefix is returned for bech32 strings that are not Cardano addresses
	ErrUnknownPrefix = errors.New("unknown address prefix")
)

// Decode returns the raw bytes of a hex or bech32 encoded address
func Decode(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmpty
	}

	if raw, err := hex.DecodeString(s); err == nil {
		if len(raw) == 0 || len(raw) > maxAddressPayload {
			return nil, fmt.Errorf("invalid address length: %d bytes", len(raw))
		}
		return raw, nil
	}

	// Shelley base addresses exceed the 90 character limit of BIP-173
	hrp, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode bech32 address: %w", err)
	}

	switch hrp {
	case PrefixAddr, PrefixAddrTest, PrefixStake, PrefixStakeTest:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrefix, hrp)
	}

	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("failed to convert address bits: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty address payload")
	}

	return raw, nil
}

// Encode renders raw address bytes as bech32
func Encode(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", ErrEmpty
	}

	encoded, err := bech32.EncodeFromBase256(Prefix(raw), raw)
	if err != nil {
		return "", fmt.Errorf("failed to encode bech32 address: %w", err)
	}
	return encoded, nil
}

// Prefix returns the bech32 prefix for raw address bytes
func Prefix(raw []byte) string {
	if len(raw) == 0 {
		return PrefixAddr
	}

	stake := IsStake(raw)
	mainnet := NetworkOf(raw) == Mainnet

	switch {
	case stake && mainnet:
		return PrefixStake
	case stake:
		return PrefixStakeTest
	case mainnet:
		return PrefixAddr
	default:
		return PrefixAddrTest
	}
}

// NetworkOf returns the network id from the low nibble of the header byte
func NetworkOf(raw []byte) Network {
	if len(raw) == 0 {
		return Testnet
	}
	return Network(raw[0] & 0x0f)
}

// IsStake reports whether the header byte denotes a reward address
func IsStake(raw []byte) bool {
	if len(raw) == 0 {
		return false
	}
	t := raw[0] >> 4
	return t == 0x0e || t == 0x0f
}

// Equal reports whether two encoded addresses refer to the same raw bytes
func Equal(a, b string) bool {
	ra, err := Decode(a)
	if err != nil {
		return false
	}
	rb, err := Decode(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ra, rb)
}

// KeyHashSize is the size of a payment or stake key hash (blake2b-224)
const KeyHashSize = 28

// KeyHash returns the blake2b-224 hash of a verification key
func KeyHash(pub []byte) ([]byte, error) {
	h, err := blake2b.New(KeyHashSize, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blake2b hash: %w", err)
	}
	h.Write(pub)
	return h.Sum(nil), nil
}

// Enterprise builds an enterprise address (type 6, no stake part) for a
// payment verification key
func Enterprise(pub []byte, network Network) ([]byte, error) {
	hash, err := KeyHash(pub)
	if err != nil {
		return nil, err
	}
	return append([]byte{0x60 | byte(network&0x0f)}, hash...), nil
}

// Display renders raw bytes as bech32, falling back to hex
func Display(raw []byte) string {
	if s, err := Encode(raw); err == nil {
		return s
	}
	return hex.EncodeToString(raw)
}
