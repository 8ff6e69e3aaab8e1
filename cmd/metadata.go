package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/anchorageoss/cip8-walletauth/cip60"
	"github.com/anchorageoss/cip8-walletauth/verify"
)

// MetadataCommand creates the metadata command
func MetadataCommand() *cli.Command {
	return &cli.Command{
		Name:  "metadata",
		Usage: "Build and validate CIP-60 music token metadata",
		Commands: []*cli.Command{
			buildMetadataCommand(),
			validateMetadataCommand(),
			cidCommand(),
		},
	}
}

func buildMetadataCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Build label 721 metadata from a release form (YAML or JSON)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "form",
				Usage:    "Path to the release form",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "assets-dir",
				Usage: "Directory that relative file paths in the form are resolved against (default: the form's directory)",
			},
			&cli.StringFlag{
				Name:  "out",
				Usage: "Write the metadata JSON to this file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Skip the human-readable summary",
			},
		},
		Action: runBuildMetadataCommand,
	}
}

func runBuildMetadataCommand(ctx context.Context, cmd *cli.Command) error {
	formPath := cmd.String("form")
	form, err := cip60.LoadForm(formPath)
	if err != nil {
		return err
	}

	assetsDir := cmd.String("assets-dir")
	if assetsDir == "" {
		assetsDir = filepath.Dir(formPath)
	}

	md, err := cip60.Build(form, &cip60.LocalResolver{BaseDir: assetsDir})
	if err != nil {
		return fmt.Errorf("failed to build metadata: %w", err)
	}

	output, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	// The built document must pass the same checks as third-party metadata
	if err := cip60.Validate(output); err != nil {
		return fmt.Errorf("built metadata failed validation: %w", err)
	}

	if out := cmd.String("out"); out != "" {
		if err := os.WriteFile(out, append(output, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write metadata: %w", err)
		}
		fmt.Fprintf(stderr(cmd), "✓ Metadata written to %s\n", out)
	} else {
		fmt.Fprintln(stdout(cmd), string(output))
	}

	if !cmd.Bool("quiet") {
		fmt.Fprintf(stderr(cmd), "\n=== METADATA SUMMARY ===\n")
		fmt.Fprint(stderr(cmd), verify.NewFormatter().FormatMetadata(md))
		fmt.Fprintf(stderr(cmd), "✓ Metadata hash: %s\n", cip60.ComputeHash(output))
	}
	return nil
}

func validateMetadataCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate a label 721 metadata document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Usage:    "Path to the metadata JSON",
				Required: true,
			},
		},
		Action: runValidateMetadataCommand,
	}
}

func runValidateMetadataCommand(ctx context.Context, cmd *cli.Command) error {
	data, err := os.ReadFile(cmd.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	if err := cip60.Validate(data); err != nil {
		return fmt.Errorf("invalid metadata: %w", err)
	}

	md, err := cip60.DecodeMetadata(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(stderr(cmd), "✓ Metadata is valid\n\n")
	fmt.Fprint(stdout(cmd), verify.NewFormatter().FormatMetadata(md))
	return nil
}

func cidCommand() *cli.Command {
	return &cli.Command{
		Name:      "cid",
		Usage:     "Print the ipfs:// URI a file resolves to",
		ArgsUsage: "<file>...",
		Action:    runCIDCommand,
	}
}

func runCIDCommand(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	resolver := &cip60.LocalResolver{}
	for _, path := range cmd.Args().Slice() {
		uri, err := resolver.Resolve(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(stdout(cmd), "%s  %s\n", uri, path)
	}
	return nil
}
