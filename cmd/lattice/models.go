package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/lattice/internal/logger"
	"github.com/samcharles93/lattice/internal/modelfile"
)

func listModelsCmd() *cli.Command {
	return &cli.Command{
		Name:    "list-models",
		Aliases: []string{"ls", "models"},
		Usage:   "List model documents in the models directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "models-path",
				Aliases:     []string{"path"},
				Usage:       "path to directory containing model documents",
				Destination: &modelsPath,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			if config.ModelsDir != "" && !cmd.IsSet("models-path") {
				modelsPath = config.ModelsDir
			}

			dir := resolveModelsDir(modelsPath)
			if dir == "" {
				return cli.Exit(fmt.Sprintf("error: --models-path is required unless %s is set", envLatticeModelsDir), 1)
			}

			models, err := discoverModels(dir)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if len(models) == 0 {
				log.Info("no models found", "path", dir)
				return nil
			}

			fmt.Printf("Models in %s:\n\n", dir)
			for _, m := range models {
				fmt.Println(describeModel(m))
			}
			fmt.Printf("\n%d model(s) found\n", len(models))
			return nil
		},
	}
}

// describeModel returns one listing line for the document at path. Documents
// that fail to load are still listed with their error.
func describeModel(path string) string {
	name := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Sprintf("  %s", name)
	}
	size := formatModelSize(info.Size())

	doc, err := modelfile.Load(path)
	if err != nil {
		return fmt.Sprintf("  %-40s %8s  (invalid: %v)", name, size, err)
	}
	return fmt.Sprintf("  %-40s %8s  (%s, %d classes)", name, size, doc.Kind, doc.Classes())
}

func formatModelSize(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
