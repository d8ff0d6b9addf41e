package main

import "github.com/urfave/cli/v3"

var (
	modelPath   string
	modelsPath  string
	sensitivity float64
	noThreshold bool
	logLevel    string
	logFormat   string
	debug       bool
	jsonOutput  bool
)

func commonModelFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "path to a model document (.json, .yaml)",
			Destination: &modelPath,
		},
		&cli.StringFlag{
			Name:        "models-path",
			Aliases:     []string{"path"},
			Usage:       "path to directory containing model documents",
			Destination: &modelsPath,
		},
		&cli.Float64Flag{
			Name:        "sensitivity",
			Usage:       "threshold model sensitivity (0 keeps the document value)",
			Destination: &sensitivity,
		},
		&cli.BoolFlag{
			Name:        "no-threshold",
			Usage:       "ignore the threshold model, never reject",
			Destination: &noThreshold,
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "print results as JSON lines",
			Destination: &jsonOutput,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, plain, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
