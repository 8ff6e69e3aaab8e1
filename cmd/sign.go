package cmd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/cip8-walletauth/address"
	"github.com/anchorageoss/cip8-walletauth/crypto"
	"github.com/anchorageoss/cip8-walletauth/keys"
)

// SignCommand creates the sign command
func SignCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "Sign data like a wallet's signData (development only)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "key-name",
				Usage: "Name of a key created with 'keys generate'",
			},
			keyDirFlag(),
			&cli.StringFlag{
				Name:  "seed",
				Usage: "Ed25519 seed (hex), instead of --key-name",
			},
			&cli.StringFlag{
				Name:  "address",
				Usage: "Address to sign as (hex or bech32); defaults to the key's address",
			},
			&cli.StringFlag{
				Name:  "hash",
				Usage: "Payload to sign (hex)",
			},
			&cli.StringFlag{
				Name:  "message",
				Usage: "Text whose sha256 digest is signed, instead of --hash",
			},
		},
		Action: runSignCommand,
	}
}

func runSignCommand(ctx context.Context, cmd *cli.Command) error {
	payload, err := signPayload(cmd)
	if err != nil {
		return err
	}

	key, err := loadOrDeriveKey(ctx, cmd)
	if err != nil {
		return err
	}

	signer, err := key.Signer()
	if err != nil {
		return fmt.Errorf("failed to create signer: %w", err)
	}

	sig, err := signer.SignData(payload)
	if err != nil {
		return fmt.Errorf("failed to sign: %w", err)
	}

	output, err := json.MarshalIndent(sig.Connection(key.Address, payload), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(stdout(cmd), string(output))

	fmt.Fprintf(stderr(cmd), "\n=== SIGN DATA SUMMARY ===\n")
	fmt.Fprintf(stderr(cmd), "✓ Signed %d bytes as %s\n", len(payload), key.Address)
	fmt.Fprintf(stderr(cmd), "✓ Public key: %s\n", hex.EncodeToString(signer.PublicKey()))
	return nil
}

func signPayload(cmd *cli.Command) ([]byte, error) {
	hashHex, message := cmd.String("hash"), cmd.String("message")
	switch {
	case hashHex != "" && message != "":
		return nil, errors.New("use either --hash or --message, not both")
	case hashHex != "":
		payload, err := hex.DecodeString(hashHex)
		if err != nil {
			return nil, fmt.Errorf("failed to decode hash hex: %w", err)
		}
		if len(payload) == 0 {
			return nil, errors.New("hash is empty")
		}
		return payload, nil
	case message != "":
		digest := sha256.Sum256([]byte(message))
		return digest[:], nil
	default:
		return nil, errors.New("one of --hash or --message is required")
	}
}

// loadOrDeriveKey returns the key named by --key-name, or one built from
// --seed and --address
func loadOrDeriveKey(ctx context.Context, cmd *cli.Command) (*keys.SigningKey, error) {
	seedHex, keyName := cmd.String("seed"), cmd.String("key-name")

	var key *keys.SigningKey
	switch {
	case seedHex != "" && keyName != "":
		return nil, errors.New("use either --seed or --key-name, not both")
	case keyName != "":
		provider := &keys.FileKeyProvider{KeyName: keyName, Dir: cmd.String("key-dir")}
		loaded, err := provider.GetSigningKey(ctx)
		if err != nil {
			return nil, err
		}
		key = loaded
	case seedHex != "":
		seed, err := hex.DecodeString(seedHex)
		if err != nil {
			return nil, fmt.Errorf("failed to decode seed hex: %w", err)
		}
		priv, err := crypto.Ed25519FromSeed(seed)
		if err != nil {
			return nil, err
		}
		key = &keys.SigningKey{Name: "seed", PrivateKey: priv}
	default:
		return nil, errors.New("one of --key-name or --seed is required")
	}

	if addr := cmd.String("address"); addr != "" {
		if _, err := address.Decode(addr); err != nil {
			return nil, fmt.Errorf("invalid address: %w", err)
		}
		key.Address = addr
	}
	if key.Address == "" {
		return nil, errors.New("--address is required with --seed")
	}
	return key, nil
}
