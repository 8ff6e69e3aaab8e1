package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/cip8-walletauth/cip8"
)

// loadPayload reads a signed connection payload from --file, then applies
// any of --address, --hash, --signature and --key given on the command line
func loadPayload(cmd *cli.Command) (cip8.SignedConnectionPayload, error) {
	var payload cip8.SignedConnectionPayload

	if path := cmd.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return payload, fmt.Errorf("failed to read payload file: %w", err)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return payload, fmt.Errorf("failed to parse payload file: %w", err)
		}
	}

	for name, field := range map[string]*string{
		"address":   &payload.Address,
		"hash":      &payload.Hash,
		"signature": &payload.Signature,
		"key":       &payload.Key,
	} {
		if v := cmd.String(name); v != "" {
			*field = v
		}
	}

	return payload, nil
}
