package verify

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/anchorageoss/cip8-walletauth/address"
	"github.com/anchorageoss/cip8-walletauth/cip8"
	"github.com/anchorageoss/cip8-walletauth/session"
)

// ChallengeStore hands out each issued challenge once
type ChallengeStore interface {
	Consume(hash string) (*session.Challenge, error)
}

// SignatureChecker verifies CIP-8 signed connection payloads
type SignatureChecker interface {
	Check(payload cip8.SignedConnectionPayload) (*cip8.Result, error)
}

// SessionIssuer mints session tokens for verified addresses
type SessionIssuer interface {
	Issue(addr string) (string, *session.Claims, error)
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the service logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// Service handles wallet connections
type Service struct {
	challenges ChallengeStore
	checker    SignatureChecker
	issuer     SessionIssuer
	metrics    *Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

// NewService creates a new connection service
func NewService(challenges ChallengeStore, checker SignatureChecker, issuer SessionIssuer, opts ...Option) *Service {
	s := &Service{
		challenges: challenges,
		checker:    checker,
		issuer:     issuer,
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect redeems the challenge named by payload.Hash, verifies the wallet
// signature and issues a session for payload.Address
func (s *Service) Connect(ctx context.Context, payload cip8.SignedConnectionPayload) (*ConnectResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := s.now()
	logger := s.logger.With().Str("address", payload.Address).Logger()

	// Step 1: Redeem the challenge. It is gone after this, whatever the outcome.
	challenge, err := s.challenges.Consume(payload.Hash)
	if err != nil {
		s.observe(OutcomeUnknownChallenge, start)
		logger.Info().Err(err).Msg("connection refused: challenge not redeemable")
		return nil, fmt.Errorf("failed to redeem challenge: %w", err)
	}

	if challenge.Address != "" && !address.Equal(challenge.Address, payload.Address) {
		s.observe(OutcomeChallengeAddressMismatch, start)
		logger.Info().Str("challenge_address", challenge.Address).Msg("connection refused: address differs from challenge")
		return nil, ErrChallengeAddressMismatch
	}

	// Step 2: Verify the CIP-8 signature
	result, err := s.check(payload)
	if err != nil {
		s.observe(cip8.Kind(err), start)
		logger.Info().Str("reason", cip8.Kind(err)).Msg("connection refused: signature rejected")
		return nil, fmt.Errorf("%w: %w", ErrSignatureRejected, err)
	}

	// Step 3: Issue the session
	token, claims, err := s.issuer.Issue(payload.Address)
	if err != nil {
		s.observe(OutcomeSessionError, start)
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	s.observe(OutcomeOK, start)
	logger.Info().Str("session_id", claims.ID).Bool("hashed", result.Hashed).Msg("wallet connected")

	return &ConnectResult{
		Token:     token,
		Claims:    claims,
		Challenge: challenge,
		Result:    result,
	}, nil
}

// Inspect verifies payload without touching challenges or sessions
func (s *Service) Inspect(payload cip8.SignedConnectionPayload) *Verification {
	start := s.now()
	result, err := s.check(payload)
	return NewVerification(payload, result, err, s.now().Sub(start))
}

func (s *Service) check(payload cip8.SignedConnectionPayload) (result *cip8.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("address", payload.Address).Msg("signature check panicked")
			result, err = nil, fmt.Errorf("%w: %v", ErrCheckPanicked, r)
		}
	}()
	return s.checker.Check(payload)
}

// NewVerification summarizes the outcome of a signature check
func NewVerification(payload cip8.SignedConnectionPayload, result *cip8.Result, err error, d time.Duration) *Verification {
	v := &Verification{
		Valid:    err == nil,
		Reason:   cip8.Kind(err),
		Address:  payload.Address,
		Hash:     payload.Hash,
		Duration: d,
	}
	if err != nil {
		v.Error = err.Error()
		return v
	}

	if result != nil {
		v.Hashed = result.Hashed
		v.PublicKey = hex.EncodeToString(result.PublicKey)
		if len(result.Address) > 0 {
			v.HeaderAddress = address.Display(result.Address)
			v.Network = address.NetworkOf(result.Address).String()
		}
	}
	return v
}

// IsRejection reports whether err means the wallet failed to prove
// ownership, as opposed to an internal failure
func IsRejection(err error) bool {
	return errors.Is(err, ErrSignatureRejected) ||
		errors.Is(err, ErrChallengeAddressMismatch) ||
		errors.Is(err, session.ErrUnknownChallenge)
}

func (s *Service) observe(outcome string, start time.Time) {
	s.metrics.ObserveVerification(outcome, s.now().Sub(start))
}
