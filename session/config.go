package session

import (
	"time"
)

// Config holds challenge and session settings
type Config struct {
	// Domain names the relying party in challenge messages
	Domain string
	// Issuer is the JWT "iss" claim
	Issuer string
	// Secret is the HS256 signing key
	Secret []byte
	// ChallengeTTL bounds how long a wallet has to sign a challenge
	ChallengeTTL time.Duration
	// SessionTTL is the lifetime of an issued session token
	SessionTTL time.Duration
	// MaxChallengeMB caps challenge store memory. When full, the oldest
	// pending challenges are evicted.
	MaxChallengeMB int
	// Now overrides the clock, for tests
	Now func() time.Time
}

// DefaultConfig returns defaults; Secret must still be set
func DefaultConfig() Config {
	return Config{
		Domain:         "cip8-walletauth",
		Issuer:         "cip8-walletauth",
		ChallengeTTL:   5 * time.Minute,
		SessionTTL:     24 * time.Hour,
		MaxChallengeMB: 64,
	}
}
