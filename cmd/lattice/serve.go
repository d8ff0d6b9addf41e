package main

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/lattice/internal/api"
	"github.com/samcharles93/lattice/internal/inference"
	"github.com/samcharles93/lattice/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		addr          string
		readTimeout   time.Duration
		workers       int
		storeCapacity int
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the classification REST API",
		Flags: append(commonModelFlags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.IntFlag{
				Name:        "workers",
				Aliases:     []string{"j"},
				Usage:       "sequences of a batch request scored in parallel",
				Value:       runtime.NumCPU(),
				Destination: &workers,
			},
			&cli.IntFlag{
				Name:        "store-capacity",
				Usage:       "classification results kept for GET /v1/classifications/:id",
				Value:       api.DefaultStoreCapacity,
				Destination: &storeCapacity,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, config, &addr)
			applyWorkersConfig(cmd, config, &workers)

			store := api.NewResultStore(storeCapacity)
			loader := inference.Loader{
				Sensitivity: sensitivity,
				NoThreshold: noThreshold,
			}
			provider := api.NewCachedEngineProvider(api.EngineProviderConfig{
				DefaultModelPath: modelPath,
				ModelsPath:       modelsPath,
				Loader:           loader,
			})
			defer func() { _ = provider.Close() }()

			server := api.NewServer(provider, store, log)
			server.SetBatchWorkers(workers)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr, "models", modelsPath, "model", modelPath)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
