package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/cip8-walletauth/cip8"
	"github.com/anchorageoss/cip8-walletauth/verify"
)

// VerifyCommand creates the verify command
func VerifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Verify a CIP-8 signed connection payload",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Path to a JSON payload with address, hash, signature and key",
			},
			&cli.StringFlag{
				Name:  "address",
				Usage: "Wallet address (hex or bech32)",
			},
			&cli.StringFlag{
				Name:  "hash",
				Usage: "Expected signed payload (hex)",
			},
			&cli.StringFlag{
				Name:  "signature",
				Usage: "COSE_Sign1 structure (hex)",
			},
			&cli.StringFlag{
				Name:  "key",
				Usage: "COSE_Key structure (hex)",
			},
			&cli.BoolFlag{
				Name:  "bind-address",
				Usage: "Require the protected address header to match --address",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output JSON format",
			},
		},
		Action: runVerifyCommand,
	}
}

func runVerifyCommand(ctx context.Context, cmd *cli.Command) error {
	logger, err := NewLogger(cmd)
	if err != nil {
		return err
	}

	payload, err := loadPayload(cmd)
	if err != nil {
		return err
	}

	verifier := cip8.NewVerifier(
		cip8.WithLogger(logger),
		cip8.WithAddressBinding(cmd.Bool("bind-address")),
	)

	start := time.Now()
	result, checkErr := verifier.Check(payload)
	verification := verify.NewVerification(payload, result, checkErr, time.Since(start))

	formatter := verify.NewFormatter()
	if cmd.Bool("json") {
		output, err := json.MarshalIndent(formatter.FormatVerificationJSON(verification), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		fmt.Fprintln(stdout(cmd), string(output))
	} else {
		fmt.Fprintf(stderr(cmd), "\n=== CIP-8 SIGNATURE VERIFICATION ===\n")
		fmt.Fprint(stdout(cmd), formatter.FormatVerification(verification, ""))
	}

	if !verification.Valid {
		return errors.New("signature verification failed")
	}
	return nil
}
