package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/cip8-walletauth/cip8"
	"github.com/anchorageoss/cip8-walletauth/server"
	"github.com/anchorageoss/cip8-walletauth/session"
	"github.com/anchorageoss/cip8-walletauth/verify"
)

// Environment variables read by serve. Values from --env-file apply to any
// flag not set on the command line or in the real environment.
const (
	envListenAddr     = "CIP8_LISTEN_ADDR"
	envJWTSecret      = "CIP8_JWT_SECRET"
	envSessionTTL     = "CIP8_SESSION_TTL"
	envChallengeTTL   = "CIP8_CHALLENGE_TTL"
	envAllowedOrigins = "CIP8_ALLOWED_ORIGINS"
	envBindAddress    = "CIP8_BIND_ADDRESS"
	envDomain         = "CIP8_DOMAIN"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	sessionDefaults := session.DefaultConfig()
	serverDefaults := server.DefaultConfig()

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the wallet auth HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "Listen address",
				Value:   serverDefaults.ListenAddr,
				Sources: cli.EnvVars(envListenAddr),
			},
			&cli.StringFlag{
				Name:    "jwt-secret",
				Usage:   "HS256 secret for session tokens (at least 32 bytes)",
				Sources: cli.EnvVars(envJWTSecret),
			},
			&cli.DurationFlag{
				Name:    "session-ttl",
				Usage:   "Session token lifetime",
				Value:   sessionDefaults.SessionTTL,
				Sources: cli.EnvVars(envSessionTTL),
			},
			&cli.DurationFlag{
				Name:    "challenge-ttl",
				Usage:   "How long a challenge can be redeemed",
				Value:   sessionDefaults.ChallengeTTL,
				Sources: cli.EnvVars(envChallengeTTL),
			},
			&cli.StringFlag{
				Name:    "allowed-origins",
				Usage:   "Comma-separated CORS origins, or '*'",
				Value:   "*",
				Sources: cli.EnvVars(envAllowedOrigins),
			},
			&cli.BoolFlag{
				Name:    "bind-address",
				Usage:   "Require the signed address header to match the claimed address",
				Sources: cli.EnvVars(envBindAddress),
			},
			&cli.StringFlag{
				Name:    "domain",
				Usage:   "Name shown to wallets in challenge messages",
				Value:   sessionDefaults.Domain,
				Sources: cli.EnvVars(envDomain),
			},
			&cli.StringFlag{
				Name:  "issuer",
				Usage: "JWT issuer claim",
				Value: sessionDefaults.Issuer,
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load settings from a .env file",
			},
		},
		Action: runServeCommand,
	}
}

func runServeCommand(ctx context.Context, cmd *cli.Command) error {
	logger, err := NewLogger(cmd)
	if err != nil {
		return err
	}

	if envFile := cmd.String("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	sessionCfg, serverCfg, bind, err := serveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := session.NewChallengeStore(ctx, sessionCfg)
	if err != nil {
		return err
	}
	defer store.Close()

	issuer, err := session.NewIssuer(sessionCfg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := verify.NewMetrics(registry)
	if err != nil {
		return err
	}

	verifier := cip8.NewVerifier(cip8.WithLogger(logger), cip8.WithAddressBinding(bind))
	service := verify.NewService(store, verifier, issuer,
		verify.WithLogger(logger),
		verify.WithMetrics(metrics),
	)

	srv, err := server.New(serverCfg, server.Deps{
		Challenges: store,
		Connector:  service,
		Sessions:   issuer,
		Metrics:    metrics,
		Gatherer:   registry,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("listen", serverCfg.ListenAddr).
		Str("domain", sessionCfg.Domain).
		Bool("bind_address", bind).
		Dur("challenge_ttl", sessionCfg.ChallengeTTL).
		Dur("session_ttl", sessionCfg.SessionTTL).
		Msg("starting wallet auth server")

	return srv.Run(ctx)
}

// serveConfig resolves settings from flags, then the environment (which
// includes anything loaded from --env-file), then defaults
func serveConfig(cmd *cli.Command) (session.Config, server.Config, bool, error) {
	sessionCfg := session.DefaultConfig()
	serverCfg := server.DefaultConfig()

	secret := flagOrEnv(cmd, "jwt-secret", envJWTSecret)
	if secret == "" {
		return sessionCfg, serverCfg, false, errors.New("--jwt-secret or " + envJWTSecret + " is required")
	}
	sessionCfg.Secret = []byte(secret)
	sessionCfg.Domain = flagOrEnv(cmd, "domain", envDomain)
	sessionCfg.Issuer = cmd.String("issuer")

	var err error
	if sessionCfg.SessionTTL, err = durationFlagOrEnv(cmd, "session-ttl", envSessionTTL); err != nil {
		return sessionCfg, serverCfg, false, err
	}
	if sessionCfg.ChallengeTTL, err = durationFlagOrEnv(cmd, "challenge-ttl", envChallengeTTL); err != nil {
		return sessionCfg, serverCfg, false, err
	}

	serverCfg.ListenAddr = flagOrEnv(cmd, "listen", envListenAddr)
	if serverCfg.AllowedOrigins, err = ParseOrigins(flagOrEnv(cmd, "allowed-origins", envAllowedOrigins)); err != nil {
		return sessionCfg, serverCfg, false, fmt.Errorf("invalid allowed origins: %w", err)
	}

	bind := cmd.Bool("bind-address")
	if v := os.Getenv(envBindAddress); !cmd.IsSet("bind-address") && v != "" {
		if bind, err = strconv.ParseBool(v); err != nil {
			return sessionCfg, serverCfg, false, fmt.Errorf("invalid %s: %w", envBindAddress, err)
		}
	}

	return sessionCfg, serverCfg, bind, nil
}

func flagOrEnv(cmd *cli.Command, name, env string) string {
	if !cmd.IsSet(name) {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return cmd.String(name)
}

func durationFlagOrEnv(cmd *cli.Command, name, env string) (time.Duration, error) {
	if !cmd.IsSet(name) {
		if v := os.Getenv(env); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", env, err)
			}
			return d, nil
		}
	}
	return cmd.Duration(name), nil
}
