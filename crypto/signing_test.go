package crypto

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 8032 section 7.1, TEST 1
const (
	rfcSeedHex      = "9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60"
	rfcPublicKeyHex = "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a"
	rfcSignatureHex = "e5564300c360ac729086e2cc806e828a84877f1eb8e5d974d873e065224901555fb8821590a33bacc61e39701cf9b46bd25bf5f0595bbe24655141438e7a100b"
)

func decodeHex(t testing.TB, s string) []byte {
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestEd25519SPKIPrefix(t *testing.T) {
	require.Equal(t, "302a300506032b6570032100", hex.EncodeToString(Ed25519SPKIPrefix))
	require.Len(t, Ed25519SPKIPrefix, 12)
}

func TestMarshalEd25519SPKI(t *testing.T) {
	t.Run("prepends header", func(t *testing.T) {
		raw := decodeHex(t, rfcPublicKeyHex)
		der, err := MarshalEd25519SPKI(raw)
		require.NoError(t, err)
		assert.Len(t, der, 44)
		assert.Equal(t, Ed25519SPKIPrefix, der[:12])
		assert.Equal(t, raw, der[12:])
	})

	t.Run("rejects short key", func(t *testing.T) {
		_, err := MarshalEd25519SPKI(make([]byte, 31))
		require.ErrorIs(t, err, ErrInvalidKeySize)
	})

	t.Run("rejects empty key", func(t *testing.T) {
		_, err := MarshalEd25519SPKI(nil)
		require.ErrorIs(t, err, ErrInvalidKeySize)
	})
}

func TestParseEd25519PublicKey(t *testing.T) {
	raw := decodeHex(t, rfcPublicKeyHex)

	pub, err := ParseEd25519PublicKey(raw)
	require.NoError(t, err)
	assert.Equal(t, ed25519.PublicKey(raw), pub)

	_, err = ParseEd25519PublicKey(append(raw, 0x00))
	require.Error(t, err)
}

func TestVerifyEd25519(t *testing.T) {
	pub, err := ParseEd25519PublicKey(decodeHex(t, rfcPublicKeyHex))
	require.NoError(t, err)
	sig := decodeHex(t, rfcSignatureHex)

	t.Run("rfc vector", func(t *testing.T) {
		ok, err := VerifyEd25519(pub, []byte{}, sig)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong message", func(t *testing.T) {
		ok, err := VerifyEd25519(pub, []byte("x"), sig)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("flipped bit", func(t *testing.T) {
		tampered := append([]byte(nil), sig...)
		tampered[10] ^= 0x01
		ok, err := VerifyEd25519(pub, []byte{}, tampered)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("truncated signature", func(t *testing.T) {
		ok, err := VerifyEd25519(pub, []byte{}, sig[:63])
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("bad key size does not panic", func(t *testing.T) {
		ok, err := VerifyEd25519(ed25519.PublicKey{1, 2, 3}, []byte{}, sig)
		require.ErrorIs(t, err, ErrInvalidKeySize)
		assert.False(t, ok)
	})
}

func TestEd25519FromSeed(t *testing.T) {
	priv, err := Ed25519FromSeed(decodeHex(t, rfcSeedHex))
	require.NoError(t, err)
	assert.Equal(t, rfcPublicKeyHex, hex.EncodeToString(priv.Public().(ed25519.PublicKey)))
	assert.Equal(t, rfcSignatureHex, hex.EncodeToString(ed25519.Sign(priv, []byte{})))

	_, err = Ed25519FromSeed([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestGenerateEd25519(t *testing.T) {
	pub, priv, err := GenerateEd25519()
	require.NoError(t, err)

	msg := []byte("hello")
	ok, err := VerifyEd25519(pub, msg, ed25519.Sign(priv, msg))
	require.NoError(t, err)
	assert.True(t, ok)
}

func BenchmarkVerifyEd25519(b *testing.B) {
	pub, priv, _ := GenerateEd25519()
	msg := []byte("benchmark message")
	sig := ed25519.Sign(priv, msg)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = VerifyEd25519(pub, msg, sig)
	}
}
