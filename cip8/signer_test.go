package cip8

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchorageoss/cip8-walletauth/testdata"
)

func fixtureSigner(t *testing.T) (*Signer, testdata.CIP8Vector) {
	t.Helper()
	v := testdata.LoadCIP8Vector()

	seed, err := hex.DecodeString(v.Seed)
	require.NoError(t, err)
	addr, err := hex.DecodeString("61b7a4ab1a47a8eaeddcc04fe8f916afc90b7938b7731335748172b4d2")
	require.NoError(t, err)

	signer, err := NewSigner(ed25519.NewKeyFromSeed(seed), addr)
	require.NoError(t, err)
	return signer, v
}

func TestSignerReproducesWalletVector(t *testing.T) {
	signer, v := fixtureSigner(t)

	hash, err := hex.DecodeString(v.Payload.Hash)
	require.NoError(t, err)

	sig, err := signer.SignData(hash)
	require.NoError(t, err)

	// Ed25519 is deterministic and headers are encoded canonically
	assert.Equal(t, v.Payload.Signature, sig.Signature)
	assert.Equal(t, v.Payload.Key, sig.Key)
	assert.Equal(t, v.PublicKey, hex.EncodeToString(signer.PublicKey()))
}

func TestSignerOutputVerifies(t *testing.T) {
	signer, v := fixtureSigner(t)

	for _, msg := range [][]byte{[]byte("hello"), make([]byte, 32), []byte("a longer payload that exceeds twenty-three bytes")} {
		sig, err := signer.SignData(msg)
		require.NoError(t, err)

		payload := sig.Connection(v.Payload.Address, msg)
		assert.Equal(t, hex.EncodeToString(msg), payload.Hash)
		require.True(t, NewVerifier(WithAddressBinding(true)).Verify(payload), "payload %q", msg)
	}
}

func TestSignerIsUntagged(t *testing.T) {
	signer, _ := fixtureSigner(t)

	sig, err := signer.SignData([]byte("hello"))
	require.NoError(t, err)

	raw, err := hex.DecodeString(sig.Signature)
	require.NoError(t, err)
	// array(4), not tag(18)
	assert.Equal(t, byte(0x84), raw[0])

	decoded, err := DecodeSign1(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), decoded.Payload)
}

func TestNewSignerValidation(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, err = NewSigner(priv, nil)
	require.Error(t, err)

	_, err = NewSigner(priv[:10], []byte{0x61})
	require.Error(t, err)

	signer, err := NewSigner(priv, []byte{0x61})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x61}, signer.Address())
}
