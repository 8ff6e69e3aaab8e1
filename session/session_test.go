package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(t *testing.T, clock *fakeClock) *ChallengeStore {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Domain = "music.example"
	cfg.Now = clock.Now

	store, err := NewChallengeStore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestChallengeIssue(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)

	challenge, err := store.Issue("addr1vxm6f2c6g75w4mwucp8737gk4lysk7fckae3xdt5s9etf5sqx3pvr")
	require.NoError(t, err)

	assert.NotEmpty(t, challenge.ID)
	assert.Contains(t, challenge.Message, "music.example wants you to connect your Cardano wallet.")
	assert.Contains(t, challenge.Message, "Address: addr1vxm6f2c6g75w4mwucp8737gk4lysk7fckae3xdt5s9etf5sqx3pvr")
	assert.Equal(t, clock.Now(), challenge.IssuedAt)
	assert.Equal(t, clock.Now().Add(5*time.Minute), challenge.ExpiresAt)

	digest := sha256.Sum256([]byte(challenge.Message))
	assert.Equal(t, hex.EncodeToString(digest[:]), challenge.Hash)
	assert.Equal(t, 1, store.Pending())

	other, err := store.Issue("")
	require.NoError(t, err)
	assert.NotEqual(t, challenge.Hash, other.Hash)
	assert.NotContains(t, other.Message, "Address:")
}

func TestChallengeConsume(t *testing.T) {
	clock := newFakeClock()
	store := newTestStore(t, clock)

	t.Run("consume once", func(t *testing.T) {
		challenge, err := store.Issue("")
		require.NoError(t, err)

		got, err := store.Consume(challenge.Hash)
		require.NoError(t, err)
		assert.Equal(t, challenge.ID, got.ID)

		_, err = store.Consume(challenge.Hash)
		require.ErrorIs(t, err, ErrUnknownChallenge)
	})

	t.Run("hash is case insensitive", func(t *testing.T) {
		challenge, err := store.Issue("")
		require.NoError(t, err)

		_, err = store.Consume(strings.ToUpper(challenge.Hash))
		require.NoError(t, err)
	})

	t.Run("unknown hash", func(t *testing.T) {
		_, err := store.Consume("00")
		require.ErrorIs(t, err, ErrUnknownChallenge)
	})

	t.Run("expired", func(t *testing.T) {
		challenge, err := store.Issue("")
		require.NoError(t, err)

		clock.Advance(5 * time.Minute)
		_, err = store.Consume(challenge.Hash)
		require.ErrorIs(t, err, ErrUnknownChallenge)
	})
}

func TestChallengeConsumeConcurrent(t *testing.T) {
	store := newTestStore(t, newFakeClock())
	challenge, err := store.Issue("")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Consume(challenge.Hash); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestNewChallengeStoreValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChallengeTTL = 0
	_, err := NewChallengeStore(context.Background(), cfg)
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.MaxChallengeMB = 0
	_, err = NewChallengeStore(context.Background(), cfg)
	require.Error(t, err)
}

func TestChallengeStoreIsBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxChallengeMB = 1
	store, err := NewChallengeStore(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	const issued = 5000
	for i := 0; i < issued; i++ {
		_, err := store.Issue("")
		require.NoError(t, err)
	}

	// Oldest challenges were evicted to stay under the cap
	assert.Less(t, store.Pending(), issued)

	latest, err := store.Issue("")
	require.NoError(t, err)
	_, err = store.Consume(latest.Hash)
	require.NoError(t, err)
}

func newTestIssuer(t *testing.T, clock *fakeClock) *Issuer {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Secret = testSecret
	cfg.Now = clock.Now

	issuer, err := NewIssuer(cfg)
	require.NoError(t, err)
	return issuer
}

func TestIssuerRoundTrip(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(t, clock)

	token, claims, err := issuer.Issue("addr1vxm6f2c6g75w4mwucp8737gk4lysk7fckae3xdt5s9etf5sqx3pvr")
	require.NoError(t, err)
	assert.Equal(t, "addr1vxm6f2c6g75w4mwucp8737gk4lysk7fckae3xdt5s9etf5sqx3pvr", claims.Subject)
	assert.Equal(t, "cip8-walletauth", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, clock.Now().Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, claims.Address, parsed.Address)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestIssuerRejects(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestIssuer(t, clock)

	token, _, err := issuer.Issue("addr_test1vzm6f2c6g75w4mwucp8737gk4lysk7fckae3xdt5s9etf5smw9arx")
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := newFakeClock()
		later.Advance(25 * time.Hour)
		_, err := newTestIssuer(t, later).Parse(token)
		require.Error(t, err)
	})

	t.Run("other secret", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Secret = []byte("ffffffffffffffffffffffffffffffff")
		cfg.Now = clock.Now
		other, err := NewIssuer(cfg)
		require.NoError(t, err)

		_, err = other.Parse(token)
		require.Error(t, err)
	})

	t.Run("other issuer", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Secret = testSecret
		cfg.Issuer = "someone-else"
		cfg.Now = clock.Now
		other, err := NewIssuer(cfg)
		require.NoError(t, err)

		_, err = other.Parse(token)
		require.Error(t, err)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Address: "x"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Parse(unsigned)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := issuer.Parse("not.a.token")
		require.Error(t, err)
	})
}

func TestNewIssuerValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Secret = []byte("short")
	_, err := NewIssuer(cfg)
	require.Error(t, err)

	cfg.Secret = testSecret
	cfg.SessionTTL = 0
	_, err = NewIssuer(cfg)
	require.Error(t, err)

	cfg.SessionTTL = time.Hour
	issuer, err := NewIssuer(cfg)
	require.NoError(t, err)
	_, _, err = issuer.Issue("")
	require.Error(t, err)
}
