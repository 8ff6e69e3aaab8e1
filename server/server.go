// Package server exposes the wallet connection flow over HTTP.
//
// Routes:
//
//	GET  /healthz             liveness
//	POST /api/auth/challenge  issue a challenge hash for the wallet to sign
//	POST /api/auth/connect    redeem a signed challenge for a session token
//	GET  /api/auth/session    validate a Bearer session token
//	GET  /metrics             Prometheus metrics
//
// Every rejected connection gets the same 401 body so that callers cannot
// learn which check failed; the reason is logged and counted instead.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/anchorageoss/cip8-walletauth/api"
	"github.com/anchorageoss/cip8-walletauth/cip8"
	"github.com/anchorageoss/cip8-walletauth/session"
	"github.com/anchorageoss/cip8-walletauth/verify"
)

// ChallengeIssuer creates connection challenges
type ChallengeIssuer interface {
	Issue(addr string) (*session.Challenge, error)
}

// Connector redeems signed challenges for sessions
type Connector interface {
	Connect(ctx context.Context, payload cip8.SignedConnectionPayload) (*verify.ConnectResult, error)
}

// SessionParser validates session tokens
type SessionParser interface {
	Parse(token string) (*session.Claims, error)
}

// Deps are the components the server routes to
type Deps struct {
	Challenges ChallengeIssuer
	Connector  Connector
	Sessions   SessionParser
	Metrics    *verify.Metrics
	// Gatherer backs /metrics; the route is omitted when nil
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

// Server is the wallet auth HTTP server
type Server struct {
	cfg     Config
	deps    Deps
	logger  zerolog.Logger
	handler http.Handler
}

// New creates a server
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Challenges == nil || deps.Connector == nil || deps.Sessions == nil {
		return nil, errors.New("challenges, connector and sessions are required")
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With().Str("component", "server").Logger(),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(s.logger), bodyLimit(cfg.MaxBodyBytes))

	router.GET(api.HealthPath, s.handleHealth)
	auth := router.Group("/api/auth")
	auth.POST("/challenge", s.handleChallenge)
	auth.POST("/connect", s.handleConnect)
	auth.GET("/session", s.handleSession)
	if deps.Gatherer != nil {
		router.GET(api.MetricsPath, gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
	})
	s.handler = c.Handler(router)

	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on cfg.ListenAddr and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("auth server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("shutting down auth server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
