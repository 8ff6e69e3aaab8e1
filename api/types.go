// Package api provides the wire types and a client for the wallet auth service.
//
// The client handles:
// - Requesting a connection challenge
// - Submitting the wallet's CIP-8 signature in exchange for a session token
// - Checking a session token
//
// # Usage
//
// Create a client using NewClient:
//
//	client := api.NewClient("http://localhost:8080", http.DefaultClient)
//
// Run the connection handshake:
//
//	challenge, err := client.RequestChallenge(ctx, &api.ChallengeRequest{Address: addr})
//	if err != nil {
//		log.Fatal(err)
//	}
//	// have the wallet sign challenge.Hash ...
//	session, err := client.Connect(ctx, &api.ConnectRequest{...})
package api

import (
	"fmt"
	"time"

	"github.com/anchorageoss/cip8-walletauth/cip8"
)

// Route paths served by the auth server
const (
	HealthPath    = "/healthz"
	ChallengePath = "/api/auth/challenge"
	ConnectPath   = "/api/auth/connect"
	SessionPath   = "/api/auth/session"
	MetricsPath   = "/metrics"
)

// ChallengeRequest asks for a new connection challenge
type ChallengeRequest struct {
	Address string `json:"address,omitempty"`
}

// ChallengeResponse carries the hash the wallet must sign
type ChallengeResponse struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ConnectRequest is the signed connection payload returned by the wallet
type ConnectRequest = cip8.SignedConnectionPayload

// ConnectResponse is returned once the signature is accepted
type ConnectResponse struct {
	Token     string    `json:"token"`
	Address   string    `json:"address"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionResponse describes a valid session
type SessionResponse struct {
	Address   string    `json:"address"`
	SessionID string    `json:"sessionId"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusError is returned by the client for non-OK responses
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("auth API returned status %d: %s", e.StatusCode, e.Message)
}
