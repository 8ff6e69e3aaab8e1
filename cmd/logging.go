package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

// LoggingFlags are the logging flags shared by every command
func LoggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (trace, debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("CIP8_LOG_LEVEL"),
		},
		&cli.BoolFlag{
			Name:    "log-json",
			Usage:   "Write logs as JSON instead of console text",
			Sources: cli.EnvVars("CIP8_LOG_JSON"),
		},
	}
}

// NewLogger builds the logger selected by the logging flags. Logs go to stderr.
func NewLogger(cmd *cli.Command) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
	}

	var w io.Writer = zerolog.ConsoleWriter{Out: stderr(cmd), TimeFormat: time.Kitchen}
	if cmd.Bool("log-json") {
		w = stderr(cmd)
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

func stdout(cmd *cli.Command) io.Writer {
	return cmd.Root().Writer
}

func stderr(cmd *cli.Command) io.Writer {
	return cmd.Root().ErrWriter
}
