package cmd

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/cip8-walletauth/address"
	"github.com/anchorageoss/cip8-walletauth/cip8"
	"github.com/anchorageoss/cip8-walletauth/keys"
)

// KeysCommand creates the keys command
func KeysCommand() *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "Manage development wallet keys",
		Commands: []*cli.Command{
			generateKeyCommand(),
			showKeyCommand(),
		},
	}
}

func keyDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "key-dir",
		Usage: "Key directory (default ~/.config/cip8-walletauth/keys)",
	}
}

func generateKeyCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate an Ed25519 key with an enterprise address",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "key-name",
				Usage:    "Key name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "network",
				Usage: "Network for the address (mainnet or testnet)",
				Value: "testnet",
			},
			keyDirFlag(),
		},
		Action: runGenerateKeyCommand,
	}
}

func runGenerateKeyCommand(ctx context.Context, cmd *cli.Command) error {
	var network address.Network
	switch cmd.String("network") {
	case "mainnet":
		network = address.Mainnet
	case "testnet":
		network = address.Testnet
	default:
		return fmt.Errorf("unknown network %q, expected mainnet or testnet", cmd.String("network"))
	}

	dir, err := keyDir(cmd)
	if err != nil {
		return err
	}

	key, err := keys.Generate(dir, cmd.String("key-name"), network)
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}

	fmt.Fprintf(stderr(cmd), "✓ Key %s written to %s\n", key.Name, dir)
	fmt.Fprintln(stdout(cmd), key.Address)
	return nil
}

func showKeyCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Show a key's address and public key",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "key-name",
				Usage:    "Key name",
				Required: true,
			},
			keyDirFlag(),
		},
		Action: runShowKeyCommand,
	}
}

func runShowKeyCommand(ctx context.Context, cmd *cli.Command) error {
	provider := &keys.FileKeyProvider{KeyName: cmd.String("key-name"), Dir: cmd.String("key-dir")}
	key, err := provider.GetSigningKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to load key: %w", err)
	}

	pub := key.PublicKey()
	keyHash, err := address.KeyHash(pub)
	if err != nil {
		return err
	}
	coseKey, err := cip8.EncodeKeyHex(pub)
	if err != nil {
		return err
	}
	raw, err := address.Decode(key.Address)
	if err != nil {
		return err
	}

	output, err := json.MarshalIndent(map[string]interface{}{
		"name":      key.Name,
		"address":   address.Display(raw),
		"network":   address.NetworkOf(raw).String(),
		"publicKey": hex.EncodeToString(pub),
		"keyHash":   hex.EncodeToString(keyHash),
		"coseKey":   coseKey,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	fmt.Fprintln(stdout(cmd), string(output))
	return nil
}

func keyDir(cmd *cli.Command) (string, error) {
	if dir := cmd.String("key-dir"); dir != "" {
		return dir, nil
	}
	return keys.DefaultDir()
}
