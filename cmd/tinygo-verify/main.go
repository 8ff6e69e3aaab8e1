// Command tinygo-verify is a dependency-light CIP-8 verifier for constrained
// targets. It reads one signed connection payload as JSON from stdin (or from
// the file named by its only argument) and exits 0 when the signature holds.
//
//	tinygo build -o cip8-verify ./cmd/tinygo-verify
//	./cip8-verify < payload.json
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/anchorageoss/cip8-walletauth/cip8"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	in := stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintf(stdout, "ERROR: %v\n", err)
			return 2
		}
		defer f.Close()
		in = f
	}

	var payload cip8.SignedConnectionPayload
	if err := json.NewDecoder(in).Decode(&payload); err != nil {
		fmt.Fprintf(stdout, "ERROR: invalid payload JSON: %v\n", err)
		return 2
	}

	result, err := cip8.NewVerifier().Check(payload)
	if err != nil {
		fmt.Fprintf(stdout, "REJECTED (%s): %v\n", cip8.Kind(err), err)
		return 1
	}

	fmt.Fprintf(stdout, "VALID: %x signed by %x\n", result.Payload, []byte(result.PublicKey))
	return 0
}
