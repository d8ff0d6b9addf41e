package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v3"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	path := configPath()
	if path == "" {
		t.Skip("no user config dir")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	writeConfig(t, `
models_dir: /srv/models
sensitivity: 0.5
workers: 3
states: 5
topology: left-to-right
log_level: debug
server_address: 0.0.0.0:9000
`)
	cfg := LoadConfig()
	if cfg.ModelsDir != "/srv/models" {
		t.Fatalf("ModelsDir = %q", cfg.ModelsDir)
	}
	if cfg.Sensitivity == nil || *cfg.Sensitivity != 0.5 {
		t.Fatalf("Sensitivity = %v", cfg.Sensitivity)
	}
	if cfg.Workers == nil || *cfg.Workers != 3 {
		t.Fatalf("Workers = %v", cfg.Workers)
	}
	if cfg.States == nil || *cfg.States != 5 || cfg.Topology != "left-to-right" {
		t.Fatalf("training defaults not loaded: %+v", cfg)
	}
	if cfg.NoThreshold != nil || cfg.Iterations != nil {
		t.Fatalf("unset fields must stay nil: %+v", cfg)
	}
}

func TestLoadConfigMissingOrInvalid(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if cfg := LoadConfig(); cfg.ModelsDir != "" || cfg.Sensitivity != nil {
		t.Fatalf("expected zero config, got %+v", cfg)
	}

	writeConfig(t, "models_dir: [unterminated")
	if cfg := LoadConfig(); cfg.ModelsDir != "" {
		t.Fatalf("expected zero config for invalid yaml, got %+v", cfg)
	}
}

// runWithFlags parses args against flags and calls fn with the parsed command.
func runWithFlags(t *testing.T, flags []cli.Flag, args []string, fn func(*cli.Command)) {
	t.Helper()
	cmd := &cli.Command{
		Name:  "test",
		Flags: flags,
		Action: func(_ context.Context, c *cli.Command) error {
			fn(c)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), append([]string{"test"}, args...)); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestApplyModelConfigRespectsFlags(t *testing.T) {
	prevModels, prevSens := modelsPath, sensitivity
	defer func() { modelsPath, sensitivity = prevModels, prevSens }()

	s := 0.25
	cfg := Config{ModelsDir: "/from/config", Sensitivity: &s}

	runWithFlags(t, commonModelFlags(), []string{"--models-path", "/from/flag"}, func(c *cli.Command) {
		applyModelConfig(c, cfg)
	})
	if modelsPath != "/from/flag" {
		t.Fatalf("explicit flag overridden: modelsPath = %q", modelsPath)
	}
	if sensitivity != 0.25 {
		t.Fatalf("config sensitivity not applied: %v", sensitivity)
	}
}

func TestApplyTrainConfig(t *testing.T) {
	states, iters := 6, 42
	cfg := Config{States: &states, Iterations: &iters, Topology: "left-to-right", TrainOutDir: "/models"}

	var opts trainOptions
	flags := []cli.Flag{
		&cli.IntFlag{Name: "states", Value: 3, Destination: &opts.states},
		&cli.IntFlag{Name: "iterations", Value: 100, Destination: &opts.iterations},
		&cli.StringFlag{Name: "topology", Value: "ergodic", Destination: &opts.topology},
	}
	runWithFlags(t, flags, []string{"--iterations", "7"}, func(c *cli.Command) {
		applyTrainConfig(c, cfg, &opts)
	})
	if opts.states != 6 || opts.topology != "left-to-right" {
		t.Fatalf("config defaults not applied: %+v", opts)
	}
	if opts.iterations != 7 {
		t.Fatalf("explicit --iterations overridden: %d", opts.iterations)
	}
	if opts.outDir != "/models" {
		t.Fatalf("outDir = %q", opts.outDir)
	}
}
