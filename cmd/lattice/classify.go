package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/lattice/internal/inference"
	"github.com/samcharles93/lattice/internal/logger"
	"github.com/samcharles93/lattice/pkg/potential"
)

func classifyCmd() *cli.Command {
	var (
		inputFile string
		workers   int
	)

	return &cli.Command{
		Name:      "classify",
		Usage:     "Classify observation sequences",
		ArgsUsage: "[sequence ...]",
		Description: "Sequences come from the arguments, --file, or stdin (one per line).\n" +
			"Symbols are written \"0 1 2\" or \"0,1,2\"; vectors as \"0.1 2; 0.3 1.5\".\n" +
			"With no input and a terminal on stdin, an interactive prompt is started.",
		Flags: append(append(commonModelFlags(), outputFlags()...),
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "read sequences from file (- for stdin)",
				Destination: &inputFile,
			},
			&cli.IntFlag{
				Name:        "workers",
				Aliases:     []string{"j"},
				Usage:       "number of sequences classified in parallel",
				Value:       runtime.NumCPU(),
				Destination: &workers,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyModelConfig(cmd, config)
			applyWorkersConfig(cmd, config, &workers)

			engine, err := loadEngine(ctx)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = engine.Close() }()

			info := engine.Info()
			out := newPrinter(os.Stdout, info, jsonOutput)
			reqs, interactive, err := collectRequests(cmd.Args().Slice(), inputFile, info.Input)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if interactive {
				n := 0
				return interactiveLoop(ctx, info, func(req *inference.Request) error {
					res, err := engine.Classify(ctx, req)
					if err != nil {
						return err
					}
					n++
					return out.classification(n, res)
				})
			}

			results, err := runRequests(ctx, reqs, workers, engine.Classify)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			rejected := 0
			for i, res := range results {
				if res.Rejected {
					rejected++
				}
				if err := out.classification(i+1, res); err != nil {
					return err
				}
			}
			logger.FromContext(ctx).Debug("classified", "model", info.ID, "sequences", len(results), "rejected", rejected)
			return nil
		},
	}
}

// loadEngine resolves the model from the shared flags and builds its engine.
func loadEngine(ctx context.Context) (inference.Engine, error) {
	log := logger.FromContext(ctx)

	path, err := resolveModelPath(modelPath, modelsPath, os.Stdin, os.Stderr)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	loader := inference.Loader{Sensitivity: sensitivity, NoThreshold: noThreshold}
	res, err := loader.Load(path)
	if err != nil {
		return nil, err
	}
	info := res.Engine.Info()
	log.Debug("model loaded",
		"path", path,
		"kind", info.Kind,
		"classes", info.Classes,
		"threshold", info.Threshold,
		"took", time.Since(start),
	)
	return res.Engine, nil
}

// collectRequests gathers sequences from args, a file or stdin. It reports
// interactive=true when there is nothing to read and stdin is a terminal.
func collectRequests(args []string, file string, input inference.Input) (reqs []*inference.Request, interactive bool, err error) {
	if len(args) > 0 {
		reqs = make([]*inference.Request, len(args))
		for i, a := range args {
			if reqs[i], err = parseRequest(a, input); err != nil {
				return nil, false, fmt.Errorf("argument %d: %w", i+1, err)
			}
		}
		return reqs, false, nil
	}

	var r io.Reader = os.Stdin
	switch file = strings.TrimSpace(file); file {
	case "":
		if stdinIsTTY() {
			return nil, true, nil
		}
	case "-":
	default:
		f, err := os.Open(file)
		if err != nil {
			return nil, false, err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	reqs, err = readRequests(r, input)
	if err != nil {
		return nil, false, err
	}
	if len(reqs) == 0 {
		return nil, false, errors.New("no sequences to process")
	}
	return reqs, false, nil
}

// runRequests applies fn to every request with at most workers in flight and
// returns the results in input order.
func runRequests[R any](ctx context.Context, reqs []*inference.Request, workers int, fn func(context.Context, *inference.Request) (R, error)) ([]R, error) {
	results := make([]R, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, req := range reqs {
		g.Go(func() error {
			res, err := fn(gctx, req)
			if err != nil {
				return fmt.Errorf("sequence %d: %w", i+1, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// interactiveLoop reads sequences from the terminal until EOF or /quit.
// Invalid input is reported and the loop continues.
func interactiveLoop(ctx context.Context, info inference.ModelInfo, fn func(*inference.Request) error) error {
	hint := "symbols separated by spaces"
	if info.Input == inference.InputVectors {
		hint = "vectors separated by ';'"
	}
	_, _ = fmt.Fprintf(os.Stderr, "lattice: %s (%d classes). Enter %s, /quit to exit.\n", info.Name, info.Classes, hint)

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := readInteractiveLine("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}
		req, err := parseRequest(line, info.Input)
		if err == nil {
			err = fn(req)
		}
		if err != nil {
			if !errors.Is(err, potential.ErrInvalidArgument) && !errors.Is(err, errSyntax) {
				return err
			}
			_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
}
