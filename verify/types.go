// Package verify connects wallets: it checks a CIP-8 signed connection
// payload against an issued challenge and mints a session for the address.
//
// The connection flow validates:
//   - the challenge named by the signed hash was issued and not yet used
//   - the challenge was issued to the same address, when it was bound to one
//   - the CIP-8 signature over the hash
//
// # Connection Flow
//
//	svc := verify.NewService(challenges, cip8.NewVerifier(), issuer,
//		verify.WithLogger(logger), verify.WithMetrics(metrics))
//	result, err := svc.Connect(ctx, payload)
//	if errors.Is(err, verify.ErrSignatureRejected) {
//		// respond 401
//	}
//
// # Reporting
//
// Inspect runs the signature check alone and returns a Verification, which
// Formatter renders for the CLI.
package verify

import (
	"errors"
	"time"

	"github.com/anchorageoss/cip8-walletauth/cip8"
	"github.com/anchorageoss/cip8-walletauth/session"
)

var (
	// ErrSignatureRejected is returned when the CIP-8 signature does not verify.
	// The underlying rejection kind is wrapped alongside it.
	ErrSignatureRejected = errors.New("signature verification failed")
	// ErrChallengeAddressMismatch is returned when a challenge bound to one
	// address is answered by another
	ErrChallengeAddressMismatch = errors.New("challenge was issued to a different address")
	// ErrCheckPanicked is returned when the signature checker panics on a
	// malformed payload
	ErrCheckPanicked = errors.New("signature check panicked")
)

// Outcome labels recorded in addition to the cip8 rejection kinds
const (
	OutcomeOK                       = "ok"
	OutcomeUnknownChallenge         = "unknown_challenge"
	OutcomeChallengeAddressMismatch = "challenge_address_mismatch"
	OutcomeSessionError             = "session_error"
)

// ConnectResult is returned by a successful Connect
type ConnectResult struct {
	Token     string
	Claims    *session.Claims
	Challenge *session.Challenge
	Result    *cip8.Result
}

// ExpiresAt returns the session expiry
func (r *ConnectResult) ExpiresAt() time.Time {
	if r.Claims == nil || r.Claims.ExpiresAt == nil {
		return time.Time{}
	}
	return r.Claims.ExpiresAt.Time
}

// Verification is the outcome of checking one payload
type Verification struct {
	Valid         bool          `json:"valid"`
	Reason        string        `json:"reason"`
	Error         string        `json:"error,omitempty"`
	Address       string        `json:"address"`
	Hash          string        `json:"hash"`
	HeaderAddress string        `json:"headerAddress,omitempty"`
	Network       string        `json:"network,omitempty"`
	PublicKey     string        `json:"publicKey,omitempty"`
	Hashed        bool          `json:"hashed"`
	Duration      time.Duration `json:"-"`
}
