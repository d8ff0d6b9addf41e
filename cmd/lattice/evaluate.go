package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/lattice/internal/inference"
	"github.com/samcharles93/lattice/pkg/potential"
)

func evaluateCmd() *cli.Command {
	var (
		inputFile string
		tables    bool
		workers   int
	)

	return &cli.Command{
		Name:      "evaluate",
		Aliases:   []string{"eval"},
		Usage:     "Print per-class log-likelihoods and Viterbi scores",
		ArgsUsage: "[sequence ...]",
		Flags: append(append(commonModelFlags(), outputFlags()...),
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "read sequences from file (- for stdin)",
				Destination: &inputFile,
			},
			&cli.BoolFlag{
				Name:        "tables",
				Usage:       "include forward, backward and posterior tables",
				Destination: &tables,
			},
			&cli.IntFlag{
				Name:        "workers",
				Aliases:     []string{"j"},
				Usage:       "number of sequences evaluated in parallel",
				Value:       runtime.NumCPU(),
				Destination: &workers,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyModelConfig(cmd, config)
			applyWorkersConfig(cmd, config, &workers)
			return runEvaluation(ctx, cmd.Args().Slice(), inputFile, workers, tables, func(p *printer, i int, ev *inference.Evaluation) error {
				return p.evaluation(i, ev)
			})
		},
	}
}

func decodeCmd() *cli.Command {
	var (
		inputFile string
		class     int
		workers   int
	)

	return &cli.Command{
		Name:      "decode",
		Usage:     "Print the most likely state path under each class",
		ArgsUsage: "[sequence ...]",
		Flags: append(append(commonModelFlags(), outputFlags()...),
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "read sequences from file (- for stdin)",
				Destination: &inputFile,
			},
			&cli.IntFlag{
				Name:        "class",
				Usage:       "only decode under this class (-1 for all)",
				Value:       -1,
				Destination: &class,
			},
			&cli.IntFlag{
				Name:        "workers",
				Aliases:     []string{"j"},
				Usage:       "number of sequences decoded in parallel",
				Value:       runtime.NumCPU(),
				Destination: &workers,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyModelConfig(cmd, config)
			applyWorkersConfig(cmd, config, &workers)
			return runEvaluation(ctx, cmd.Args().Slice(), inputFile, workers, false, func(p *printer, i int, ev *inference.Evaluation) error {
				if class >= 0 {
					if class >= len(ev.Classes) {
						return fmt.Errorf("%w: class %d out of range, model has %d classes", potential.ErrClassOutOfRange, class, len(ev.Classes))
					}
					ev = &inference.Evaluation{Classes: ev.Classes[class : class+1], Duration: ev.Duration}
				}
				return p.paths(i, ev)
			})
		},
	}
}

// runEvaluation loads the model, evaluates every input sequence and hands
// each evaluation to emit in input order.
func runEvaluation(ctx context.Context, args []string, inputFile string, workers int, tables bool, emit func(*printer, int, *inference.Evaluation) error) error {
	engine, err := loadEngine(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	defer func() { _ = engine.Close() }()

	info := engine.Info()
	out := newPrinter(os.Stdout, info, jsonOutput)
	reqs, interactive, err := collectRequests(args, inputFile, info.Input)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	if interactive {
		n := 0
		return interactiveLoop(ctx, info, func(req *inference.Request) error {
			req.IncludeTables = tables
			ev, err := engine.Evaluate(ctx, req)
			if err != nil {
				return err
			}
			n++
			return emit(out, n, ev)
		})
	}

	for _, req := range reqs {
		req.IncludeTables = tables
	}
	evs, err := runRequests(ctx, reqs, workers, engine.Evaluate)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	for i, ev := range evs {
		if err := emit(out, i+1, ev); err != nil {
			return cli.Exit(fmt.Sprintf("error: %v", err), 1)
		}
	}
	return nil
}
