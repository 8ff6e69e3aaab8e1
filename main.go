package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/cip8-walletauth/cmd"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "cip8-walletauth",
		Usage: "CIP-8 wallet authentication for Cardano music releases",
		Flags: cmd.LoggingFlags(),
		Commands: []*cli.Command{
			cmd.VerifyCommand(),
			cmd.SignCommand(),
			cmd.KeysCommand(),
			cmd.ServeCommand(),
			cmd.ConnectCommand(),
			cmd.MetadataCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
