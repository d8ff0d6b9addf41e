package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/lattice/internal/inference"
	"github.com/samcharles93/lattice/internal/modelfile"
)

func inspectCmd() *cli.Command {
	var (
		format     string
		showParams bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Show a summary of a model document",
		Flags: append(commonModelFlags(),
			&cli.StringFlag{
				Name:        "format",
				Usage:       "output format (summary, json, yaml)",
				Value:       "summary",
				Destination: &format,
			},
			&cli.BoolFlag{Name: "params", Usage: "print the model parameters", Destination: &showParams},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyModelConfig(cmd, config)
			path, err := resolveModelPath(modelPath, modelsPath, os.Stdin, os.Stderr)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			loader := inference.Loader{Sensitivity: sensitivity, NoThreshold: noThreshold}
			res, err := loader.Load(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = res.Engine.Close() }()

			switch strings.ToLower(format) {
			case "json":
				return modelfile.Encode(os.Stdout, res.Document, modelfile.FormatJSON)
			case "yaml", "yml":
				return modelfile.Encode(os.Stdout, res.Document, modelfile.FormatYAML)
			case "summary", "":
				printSummary(os.Stdout, path, res.Engine.Info(), res.Document)
				if showParams {
					printParams(os.Stdout, res.Document)
				}
				return nil
			default:
				return cli.Exit(fmt.Sprintf("error: unknown format %q", format), 1)
			}
		},
	}
}

func printSummary(w io.Writer, path string, info inference.ModelInfo, doc *modelfile.Document) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "file:\t%s\n", path)
	_, _ = fmt.Fprintf(tw, "name:\t%s\n", info.Name)
	_, _ = fmt.Fprintf(tw, "kind:\t%s\n", info.Kind)
	if info.Description != "" {
		_, _ = fmt.Fprintf(tw, "description:\t%s\n", info.Description)
	}
	_, _ = fmt.Fprintf(tw, "input:\t%s\n", info.Input)
	if info.Input == inference.InputVectors {
		_, _ = fmt.Fprintf(tw, "dimensions:\t%d\n", info.Dimensions)
	} else {
		_, _ = fmt.Fprintf(tw, "symbols:\t%d\n", info.Symbols)
	}
	_, _ = fmt.Fprintf(tw, "classes:\t%d\n", info.Classes)
	if info.Threshold {
		_, _ = fmt.Fprintf(tw, "threshold:\tyes (sensitivity %g)\n", info.Sensitivity)
	} else {
		_, _ = fmt.Fprintf(tw, "threshold:\tno\n")
	}
	if t := doc.Training; t != nil {
		_, _ = fmt.Fprintf(tw, "trained on:\t%d sequences", t.Sequences)
		if t.Topology != "" {
			_, _ = fmt.Fprintf(tw, " (%s)", t.Topology)
		}
		_, _ = fmt.Fprintln(tw)
	}
	_ = tw.Flush()

	_, _ = fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "  CLASS\tLABEL\tSTATES\tPRIOR")
	for c := range info.Classes {
		states := 0
		if c < len(info.States) {
			states = info.States[c]
		}
		prior := 0.0
		if c < len(info.Priors) {
			prior = info.Priors[c]
		}
		_, _ = fmt.Fprintf(tw, "  %d\t%s\t%d\t%.4f\n", c, info.Label(c), states, prior)
	}
	_ = tw.Flush()
}

func printParams(w io.Writer, doc *modelfile.Document) {
	for c, m := range doc.Models {
		_, _ = fmt.Fprintf(w, "\nclass %d (%s)\n", c, sampleLabel(doc, c))
		_, _ = fmt.Fprintf(w, "  initial: %s\n", formatRow(m.Initial))
		writeTable(w, "transitions", "s", m.Transitions)
		writeTable(w, "emissions", "s", m.Emissions)
	}
	if th := doc.Threshold; th != nil {
		_, _ = fmt.Fprintf(w, "\nthreshold\n")
		_, _ = fmt.Fprintf(w, "  initial: %s\n", formatRow(th.Initial))
		writeTable(w, "transitions", "s", th.Transitions)
	}
	for c, g := range doc.Gaussian {
		_, _ = fmt.Fprintf(w, "\nclass %d (%s)\n", c, sampleLabel(doc, c))
		_, _ = fmt.Fprintf(w, "  initial: %s\n", formatRow(g.Initial))
		writeTable(w, "transitions", "s", g.Transitions)
		writeTable(w, "means", "s", g.Means)
		writeTable(w, "stddevs", "s", g.StdDevs)
	}
	if doc.HCRF != nil {
		weights, err := doc.Weights()
		if err != nil {
			return
		}
		for c := range weights.Outputs() {
			_, _ = fmt.Fprintf(w, "\nclass %d (%s)\n", c, sampleLabel(doc, c))
			_, _ = fmt.Fprintf(w, "  initial: %s\n", formatRow(weights.Initial(c)))
			writeTable(w, "transitions", "s", weights.Transitions(c))
			writeTable(w, "emissions", "s", weights.Emissions(c))
		}
	}
}
