// Package session implements the wallet-connect handshake around CIP-8 verification.
//
// A connection starts with a challenge: a short message whose sha256 digest
// is the hash the wallet is asked to sign. Challenges live in a TTL-bounded
// store and can be consumed exactly once. After the signature is verified,
// an Issuer mints a JWT session bound to the wallet address.
//
//	store, err := session.NewChallengeStore(ctx, session.DefaultConfig())
//	challenge, err := store.Issue("addr1...")
//	// wallet signs challenge.Hash ...
//	challenge, err = store.Consume(signed.Hash)
//	token, claims, err := issuer.Issue(signed.Address)
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/google/uuid"
)

var (
	// ErrUnknownChallenge is returned for hashes that were never issued, were
	// already consumed, or have expired
	ErrUnknownChallenge = errors.New("unknown or expired challenge")
)

// Challenge is a pending connection request
type Challenge struct {
	ID        string    `json:"id"`
	Address   string    `json:"address,omitempty"`
	Message   string    `json:"message"`
	Hash      string    `json:"hash"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ChallengeStore issues and consumes single-use challenges
type ChallengeStore struct {
	cache  *bigcache.BigCache
	ttl    time.Duration
	domain string
	now    func() time.Time
}

// NewChallengeStore creates a store whose entries expire after cfg.ChallengeTTL
func NewChallengeStore(ctx context.Context, cfg Config) (*ChallengeStore, error) {
	if cfg.ChallengeTTL <= 0 {
		return nil, errors.New("challenge TTL must be positive")
	}
	if cfg.MaxChallengeMB <= 0 {
		return nil, errors.New("challenge store size must be positive")
	}

	cacheConfig := bigcache.DefaultConfig(cfg.ChallengeTTL)
	cacheConfig.CleanWindow = cfg.ChallengeTTL
	cacheConfig.HardMaxCacheSize = cfg.MaxChallengeMB
	cacheConfig.Verbose = false

	cache, err := bigcache.New(ctx, cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge cache: %w", err)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &ChallengeStore{
		cache:  cache,
		ttl:    cfg.ChallengeTTL,
		domain: cfg.Domain,
		now:    now,
	}, nil
}

// Issue creates a challenge, optionally bound to the address that asked for it
func (s *ChallengeStore) Issue(addr string) (*Challenge, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	issuedAt := s.now().UTC()
	challenge := &Challenge{
		ID:        uuid.NewString(),
		Address:   addr,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(s.ttl),
	}
	challenge.Message = s.message(challenge, hex.EncodeToString(nonce))
	digest := sha256.Sum256([]byte(challenge.Message))
	challenge.Hash = hex.EncodeToString(digest[:])

	entry, err := json.Marshal(challenge)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal challenge: %w", err)
	}
	if err := s.cache.Set(challenge.Hash, entry); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}

	return challenge, nil
}

// Consume removes and returns the challenge for hash. A challenge can be
// consumed once; later calls return ErrUnknownChallenge.
func (s *ChallengeStore) Consume(hash string) (*Challenge, error) {
	hash = strings.ToLower(hash)

	entry, err := s.cache.Get(hash)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, ErrUnknownChallenge
		}
		return nil, fmt.Errorf("failed to read challenge: %w", err)
	}

	// Only the caller whose delete succeeds owns the challenge
	if err := s.cache.Delete(hash); err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, ErrUnknownChallenge
		}
		return nil, fmt.Errorf("failed to delete challenge: %w", err)
	}

	var challenge Challenge
	if err := json.Unmarshal(entry, &challenge); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenge: %w", err)
	}

	// bigcache evicts lazily
	if !s.now().Before(challenge.ExpiresAt) {
		return nil, ErrUnknownChallenge
	}

	return &challenge, nil
}

// Pending returns the number of stored challenges, including expired ones not yet evicted
func (s *ChallengeStore) Pending() int {
	return s.cache.Len()
}

// Close releases the cache
func (s *ChallengeStore) Close() error {
	return s.cache.Close()
}

func (s *ChallengeStore) message(c *Challenge, nonce string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s wants you to connect your Cardano wallet.\n", s.domain))
	if c.Address != "" {
		sb.WriteString(fmt.Sprintf("Address: %s\n", c.Address))
	}
	sb.WriteString(fmt.Sprintf("Nonce: %s\n", nonce))
	sb.WriteString(fmt.Sprintf("Issued At: %s\n", c.IssuedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Expires At: %s", c.ExpiresAt.Format(time.RFC3339)))
	return sb.String()
}
