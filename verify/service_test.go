package verify

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anchorageoss/cip8-walletauth/cip8"
	"github.com/anchorageoss/cip8-walletauth/crypto"
	"github.com/anchorageoss/cip8-walletauth/session"
	"github.com/anchorageoss/cip8-walletauth/testdata"
)

// Mock implementations

type mockChallengeStore struct {
	challenge *session.Challenge
	err       error
	consumed  []string
}

func (m *mockChallengeStore) Consume(hash string) (*session.Challenge, error) {
	m.consumed = append(m.consumed, hash)
	return m.challenge, m.err
}

type mockChecker struct {
	result *cip8.Result
	err    error
	calls  int
}

func (m *mockChecker) Check(payload cip8.SignedConnectionPayload) (*cip8.Result, error) {
	m.calls++
	return m.result, m.err
}

type panickingChecker struct{}

func (panickingChecker) Check(cip8.SignedConnectionPayload) (*cip8.Result, error) {
	panic("index out of range")
}

type mockIssuer struct {
	err    error
	issued []string
}

func (m *mockIssuer) Issue(addr string) (string, *session.Claims, error) {
	if m.err != nil {
		return "", nil, m.err
	}
	m.issued = append(m.issued, addr)
	claims := &session.Claims{Address: addr}
	claims.ID = "session-1"
	return "token-for-" + addr, claims, nil
}

func vectorPayload() cip8.SignedConnectionPayload {
	v := testdata.LoadCIP8Vector()
	return cip8.SignedConnectionPayload{
		Address:   v.Payload.Address,
		Hash:      v.Payload.Hash,
		Signature: v.Payload.Signature,
		Key:       v.Payload.Key,
	}
}

func TestNewService(t *testing.T) {
	store := &mockChallengeStore{}
	checker := &mockChecker{}
	issuer := &mockIssuer{}

	service := NewService(store, checker, issuer)

	require.NotNil(t, service)
	require.Equal(t, store, service.challenges)
	require.Equal(t, checker, service.checker)
	require.Equal(t, issuer, service.issuer)
	require.Nil(t, service.metrics)
}

func TestConnect(t *testing.T) {
	payload := vectorPayload()

	t.Run("success", func(t *testing.T) {
		store := &mockChallengeStore{challenge: &session.Challenge{ID: "c1", Hash: payload.Hash}}
		checker := &mockChecker{result: &cip8.Result{Hashed: false}}
		issuer := &mockIssuer{}

		result, err := NewService(store, checker, issuer).Connect(context.Background(), payload)
		require.NoError(t, err)
		require.Equal(t, "token-for-"+payload.Address, result.Token)
		require.Equal(t, "c1", result.Challenge.ID)
		require.Equal(t, []string{payload.Hash}, store.consumed)
		require.Equal(t, []string{payload.Address}, issuer.issued)
	})

	t.Run("unknown challenge", func(t *testing.T) {
		store := &mockChallengeStore{err: session.ErrUnknownChallenge}
		checker := &mockChecker{}

		_, err := NewService(store, checker, &mockIssuer{}).Connect(context.Background(), payload)
		require.ErrorIs(t, err, session.ErrUnknownChallenge)
		require.True(t, IsRejection(err))
		require.Zero(t, checker.calls, "signature must not be checked without a challenge")
	})

	t.Run("challenge bound to another address", func(t *testing.T) {
		store := &mockChallengeStore{challenge: &session.Challenge{
			Address: "addr_test1vzm6f2c6g75w4mwucp8737gk4lysk7fckae3xdt5s9etf5smw9arx",
		}}

		_, err := NewService(store, &mockChecker{}, &mockIssuer{}).Connect(context.Background(), payload)
		require.ErrorIs(t, err, ErrChallengeAddressMismatch)
		require.True(t, IsRejection(err))
	})

	t.Run("challenge bound to same address in hex", func(t *testing.T) {
		store := &mockChallengeStore{challenge: &session.Challenge{
			Address: "61b7a4ab1a47a8eaeddcc04fe8f916afc90b7938b7731335748172b4d2",
		}}

		_, err := NewService(store, &mockChecker{result: &cip8.Result{}}, &mockIssuer{}).Connect(context.Background(), payload)
		require.NoError(t, err)
	})

	t.Run("signature rejected", func(t *testing.T) {
		store := &mockChallengeStore{challenge: &session.Challenge{}}
		checker := &mockChecker{err: fmt.Errorf("%w: bad", cip8.ErrCryptoVerification)}
		issuer := &mockIssuer{}

		_, err := NewService(store, checker, issuer).Connect(context.Background(), payload)
		require.ErrorIs(t, err, ErrSignatureRejected)
		require.ErrorIs(t, err, cip8.ErrCryptoVerification)
		require.True(t, IsRejection(err))
		require.Empty(t, issuer.issued)
	})

	t.Run("issuer failure", func(t *testing.T) {
		store := &mockChallengeStore{challenge: &session.Challenge{}}
		issuer := &mockIssuer{err: errors.New("boom")}

		_, err := NewService(store, &mockChecker{result: &cip8.Result{}}, issuer).Connect(context.Background(), payload)
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to issue session")
		require.False(t, IsRejection(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		store := &mockChallengeStore{challenge: &session.Challenge{}}

		_, err := NewService(store, &mockChecker{}, &mockIssuer{}).Connect(ctx, payload)
		require.ErrorIs(t, err, context.Canceled)
		require.Empty(t, store.consumed)
	})
}

func TestConnectMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	payload := vectorPayload()
	ok := NewService(&mockChallengeStore{challenge: &session.Challenge{}}, &mockChecker{result: &cip8.Result{}}, &mockIssuer{}, WithMetrics(metrics))
	rejected := NewService(&mockChallengeStore{challenge: &session.Challenge{}}, &mockChecker{err: cip8.ErrPayloadMismatch}, &mockIssuer{}, WithMetrics(metrics))
	unknown := NewService(&mockChallengeStore{err: session.ErrUnknownChallenge}, &mockChecker{}, &mockIssuer{}, WithMetrics(metrics))

	_, err = ok.Connect(context.Background(), payload)
	require.NoError(t, err)
	_, err = ok.Connect(context.Background(), payload)
	require.NoError(t, err)
	_, err = rejected.Connect(context.Background(), payload)
	require.Error(t, err)
	_, err = unknown.Connect(context.Background(), payload)
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.verifications.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.verifications.WithLabelValues("payload_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.verifications.WithLabelValues(OutcomeUnknownChallenge)))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.duration))

	metrics.ChallengeIssued()
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.challenges))

	_, err = NewMetrics(reg)
	require.Error(t, err, "registering twice must fail")
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveVerification(OutcomeOK, time.Millisecond)
		m.ChallengeIssued()
	})
}

func TestConnectEndToEnd(t *testing.T) {
	cfg := session.DefaultConfig()
	cfg.Secret = []byte("0123456789abcdef0123456789abcdef")

	store, err := session.NewChallengeStore(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	issuer, err := session.NewIssuer(cfg)
	require.NoError(t, err)

	v := testdata.LoadCIP8Vector()
	seed, err := hex.DecodeString(v.Seed)
	require.NoError(t, err)
	priv, err := crypto.Ed25519FromSeed(seed)
	require.NoError(t, err)
	rawAddr, err := hex.DecodeString("61b7a4ab1a47a8eaeddcc04fe8f916afc90b7938b7731335748172b4d2")
	require.NoError(t, err)
	signer, err := cip8.NewSigner(priv, rawAddr)
	require.NoError(t, err)

	service := NewService(store, cip8.NewVerifier(cip8.WithAddressBinding(true)), issuer)

	challenge, err := store.Issue(v.Payload.Address)
	require.NoError(t, err)
	hash, err := hex.DecodeString(challenge.Hash)
	require.NoError(t, err)
	sig, err := signer.SignData(hash)
	require.NoError(t, err)
	payload := sig.Connection(v.Payload.Address, hash)

	result, err := service.Connect(context.Background(), payload)
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.WithinDuration(t, time.Now().Add(24*time.Hour), result.ExpiresAt(), time.Minute)

	claims, err := issuer.Parse(result.Token)
	require.NoError(t, err)
	require.Equal(t, v.Payload.Address, claims.Address)

	// replaying the same signed payload fails
	_, err = service.Connect(context.Background(), payload)
	require.ErrorIs(t, err, session.ErrUnknownChallenge)
}

func TestInspect(t *testing.T) {
	service := NewService(&mockChallengeStore{}, cip8.NewVerifier(), &mockIssuer{})

	t.Run("valid", func(t *testing.T) {
		v := service.Inspect(vectorPayload())
		require.True(t, v.Valid)
		require.Equal(t, "ok", v.Reason)
		require.Equal(t, "addr1vxm6f2c6g75w4mwucp8737gk4lysk7fckae3xdt5s9etf5sqx3pvr", v.HeaderAddress)
		require.Equal(t, "mainnet", v.Network)
		require.Equal(t, testdata.LoadCIP8Vector().PublicKey, v.PublicKey)
		require.Empty(t, v.Error)
	})

	t.Run("rejected", func(t *testing.T) {
		payload := vectorPayload()
		payload.Hash = "00"
		v := service.Inspect(payload)
		require.False(t, v.Valid)
		require.Equal(t, "payload_mismatch", v.Reason)
		require.NotEmpty(t, v.Error)
		require.Empty(t, v.PublicKey)
	})

	t.Run("checker panic", func(t *testing.T) {
		logs := &bytes.Buffer{}
		service := NewService(&mockChallengeStore{}, panickingChecker{}, &mockIssuer{},
			WithLogger(zerolog.New(logs)))

		var v *Verification
		require.NotPanics(t, func() { v = service.Inspect(vectorPayload()) })
		require.False(t, v.Valid)
		require.Equal(t, "unknown", v.Reason)
		require.Contains(t, v.Error, ErrCheckPanicked.Error())
		require.Contains(t, logs.String(), "index out of range")
	})
}

func TestConnectCheckerPanic(t *testing.T) {
	store := &mockChallengeStore{challenge: &session.Challenge{Hash: "aa"}}
	issuer := &mockIssuer{}
	service := NewService(store, panickingChecker{}, issuer)

	_, err := service.Connect(context.Background(), vectorPayload())
	require.ErrorIs(t, err, ErrSignatureRejected)
	require.ErrorIs(t, err, ErrCheckPanicked)
	require.Empty(t, issuer.issued)
}
