package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/lattice/internal/logger"
	"github.com/samcharles93/lattice/internal/modelfile"
	"github.com/samcharles93/lattice/pkg/classifier"
	"github.com/samcharles93/lattice/pkg/hmm"
)

type trainOptions struct {
	data        string
	out         string
	outDir      string
	name        string
	description string
	states      int
	symbols     int
	topology    string
	deep        int
	iterations  int
	tolerance   float64
	pseudoCount float64
	seed        int64
	workers     int
	threshold   bool
	quiet       bool
}

func trainCmd() *cli.Command {
	var opts trainOptions

	return &cli.Command{
		Name:      "train",
		Usage:     "Train an HMM classifier with Baum-Welch from labeled sequences",
		ArgsUsage: "<data>",
		Description: "Each data line is a class label followed by a symbol sequence,\n" +
			"e.g. \"loaded 5 5 2 5 6\". Blank lines and # comments are ignored.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output model document (.json, .yaml)", Destination: &opts.out},
			&cli.StringFlag{Name: "name", Usage: "model name stored in the document", Destination: &opts.name},
			&cli.StringFlag{Name: "description", Usage: "model description stored in the document", Destination: &opts.description},
			&cli.IntFlag{Name: "states", Aliases: []string{"s"}, Usage: "hidden states per class", Value: 3, Destination: &opts.states},
			&cli.IntFlag{Name: "symbols", Usage: "alphabet size (0 infers it from the data)", Destination: &opts.symbols},
			&cli.StringFlag{
				Name:        "topology",
				Usage:       "state topology (ergodic, left-to-right)",
				Value:       classifier.TopologyErgodic,
				Destination: &opts.topology,
			},
			&cli.IntFlag{Name: "deep", Usage: "left-to-right reach (0 means all following states)", Destination: &opts.deep},
			&cli.IntFlag{Name: "iterations", Aliases: []string{"n"}, Usage: "max Baum-Welch iterations", Value: hmm.DefaultMaxIterations, Destination: &opts.iterations},
			&cli.Float64Flag{Name: "tolerance", Usage: "relative log-likelihood change to stop at", Value: hmm.DefaultTolerance, Destination: &opts.tolerance},
			&cli.Float64Flag{Name: "pseudo-count", Usage: "emission smoothing count", Value: 1e-3, Destination: &opts.pseudoCount},
			&cli.Int64Flag{Name: "seed", Usage: "seed for the initial emission matrices", Value: 1, Destination: &opts.seed},
			&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Usage: "classes trained in parallel (0 means all)", Destination: &opts.workers},
			&cli.BoolFlag{Name: "threshold", Usage: "also build a threshold model for rejection", Destination: &opts.threshold},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "hide the progress bar", Destination: &opts.quiet},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyTrainConfig(cmd, config, &opts)
			if cmd.Args().Len() != 1 {
				return cli.Exit("error: train expects exactly one data file", 1)
			}
			opts.data = cmd.Args().First()
			if err := runTrain(ctx, opts); err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			return nil
		},
	}
}

func runTrain(ctx context.Context, opts trainOptions) error {
	log := logger.FromContext(ctx)

	f, err := os.Open(opts.data)
	if err != nil {
		return err
	}
	data, err := readLabeled(f)
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", opts.data, err)
	}
	symbols := max(opts.symbols, data.Symbols())
	if opts.symbols > 0 && opts.symbols < data.Symbols() {
		return fmt.Errorf("--symbols=%d but the data uses symbol %d", opts.symbols, data.Symbols()-1)
	}

	outPath, derived, err := resolveTrainOut(opts.data, opts.out, opts.outDir)
	if err != nil {
		return err
	}
	if derived {
		log.Info("output path derived from data file", "out", outPath)
	}

	log.Info("training",
		"sequences", len(data.Sequences),
		"classes", len(data.Names),
		"states", opts.states,
		"symbols", symbols,
		"topology", opts.topology,
	)

	cfg := classifier.TrainConfig{
		Classes:  len(data.Names),
		States:   opts.states,
		Symbols:  symbols,
		Topology: opts.topology,
		Deep:     opts.deep,
		Seed:     opts.seed,
		BaumWelch: hmm.BaumWelch{
			Tolerance:     opts.tolerance,
			MaxIterations: opts.iterations,
			PseudoCount:   opts.pseudoCount,
		},
		Threshold: opts.threshold,
		Workers:   opts.workers,
	}

	var bar *progressbar.ProgressBar
	if !opts.quiet && isTerminal(os.Stderr) {
		bar = newTrainBar(len(data.Names) * max(opts.iterations, 1))
		cfg.Progress = func(int, int, float64) { _ = bar.Add(1) }
	} else {
		cfg.Progress = func(class, iter int, ll float64) {
			log.Debug("iteration", "class", data.Names[class], "iteration", iter, "log_likelihood", ll)
		}
	}

	start := time.Now()
	trained, err := classifier.Train(ctx, cfg, data.Sequences, data.Labels)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}
	for c, res := range trained.Results {
		log.Info("class trained",
			"class", data.Names[c],
			"iterations", res.Iterations,
			"log_likelihood", res.LogLikelihood,
			"converged", res.Converged,
		)
	}

	accuracy, err := trainingAccuracy(ctx, trained, data, opts.workers)
	if err != nil {
		return err
	}

	doc := modelfile.FromTrained(trained, data.Names, opts.topology, len(data.Sequences))
	doc.Name = strings.TrimSpace(opts.name)
	doc.Description = opts.description
	if err := modelfile.Save(outPath, doc); err != nil {
		return err
	}
	log.Info("model written", "out", outPath, "accuracy", accuracy, "took", time.Since(start))
	return nil
}

// trainingAccuracy classifies the training set with the fitted models and
// returns the fraction labeled correctly.
func trainingAccuracy(ctx context.Context, trained *classifier.Trained, data *labeledData, workers int) (float64, error) {
	clf, err := trained.Classifier()
	if err != nil {
		return 0, err
	}
	decisions, err := clf.DecideBatch(ctx, data.Sequences, workers)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i, d := range decisions {
		if d.Class == data.Labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(decisions)), nil
}

func newTrainBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan]Baum-Welch[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(os.Stderr)
		}),
	)
}
