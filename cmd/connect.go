package cmd

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/cip8-walletauth/api"
	"github.com/anchorageoss/cip8-walletauth/keys"
)

// ConnectCommand creates the connect command
func ConnectCommand() *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Connect to an auth server with a development key (end-to-end)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "host",
				Usage:    "Auth server URL",
				Required: true,
				Sources:  cli.EnvVars("CIP8_HOST"),
			},
			&cli.StringFlag{
				Name:     "key-name",
				Usage:    "Name of a key created with 'keys generate'",
				Required: true,
			},
			keyDirFlag(),
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "HTTP timeout",
				Value: 30 * time.Second,
			},
		},
		Action: runConnectCommand,
	}
}

func runConnectCommand(ctx context.Context, cmd *cli.Command) error {
	provider := &keys.FileKeyProvider{KeyName: cmd.String("key-name"), Dir: cmd.String("key-dir")}
	key, err := provider.GetSigningKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to load key: %w", err)
	}
	signer, err := key.Signer()
	if err != nil {
		return fmt.Errorf("failed to create signer: %w", err)
	}

	client := api.NewClient(cmd.String("host"), &http.Client{Timeout: cmd.Duration("timeout")})

	// Step 1: Request a challenge bound to our address
	challenge, err := client.RequestChallenge(ctx, &api.ChallengeRequest{Address: key.Address})
	if err != nil {
		return fmt.Errorf("failed to request challenge: %w", err)
	}
	fmt.Fprintf(stderr(cmd), "\n=== STEP 1: Challenge Received ===\n")
	fmt.Fprintf(stderr(cmd), "✓ Hash: %s\n", challenge.Hash)
	fmt.Fprintf(stderr(cmd), "✓ Expires: %s\n", challenge.ExpiresAt.Format(time.RFC3339))

	// Step 2: Sign it the way a wallet would
	hash, err := hex.DecodeString(challenge.Hash)
	if err != nil {
		return fmt.Errorf("server sent invalid challenge hash: %w", err)
	}
	sig, err := signer.SignData(hash)
	if err != nil {
		return fmt.Errorf("failed to sign challenge: %w", err)
	}
	payload := sig.Connection(key.Address, hash)
	fmt.Fprintf(stderr(cmd), "\n=== STEP 2: Challenge Signed ===\n")
	fmt.Fprintf(stderr(cmd), "✓ Signed as %s\n", key.Address)

	// Step 3: Exchange the signature for a session
	connected, err := client.Connect(ctx, &payload)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	fmt.Fprintf(stderr(cmd), "\n=== STEP 3: Session Issued ===\n")
	fmt.Fprintf(stderr(cmd), "✓ Session valid until %s\n", connected.ExpiresAt.Format(time.RFC3339))

	// Step 4: Confirm the server accepts the token
	sess, err := client.Session(ctx, connected.Token)
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	fmt.Fprintf(stderr(cmd), "\n=== STEP 4: Session Confirmed ===\n")
	fmt.Fprintf(stderr(cmd), "✓ Session %s for %s\n", sess.SessionID, sess.Address)

	output, err := json.MarshalIndent(connected, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(stdout(cmd), string(output))
	return nil
}
