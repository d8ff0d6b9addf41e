package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/lattice/internal/logger"
)

// config holds the config file contents loaded before any command runs.
var config Config

func main() {
	app := &cli.Command{
		Name:  "lattice",
		Usage: "Sequence classification with hidden Markov models and HCRFs",
		Flags: loggingFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			config = LoadConfig()
			applyLoggingConfig(cmd, config)
			log, err := setupLogger(os.Stderr)
			if err != nil {
				return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			classifyCmd(),
			evaluateCmd(),
			decodeCmd(),
			trainCmd(),
			generateCmd(),
			inspectCmd(),
			listModelsCmd(),
			serveCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogger builds the process logger from the logging flags. The pretty
// format falls back to plain output when stderr is not a terminal.
func setupLogger(f *os.File) (logger.Logger, error) {
	level := logLevel
	if debug {
		level = "debug"
	}
	format := logFormat
	if format == logger.FormatPretty && !isTerminal(f) {
		format = logger.FormatPlain
	}
	return logger.Setup(format, level, f)
}
