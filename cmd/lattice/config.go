package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the lattice configuration file (~/.config/lattice/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	ModelsDir string `yaml:"models_dir"`

	// Classification defaults
	Sensitivity *float64 `yaml:"sensitivity"`
	NoThreshold *bool    `yaml:"no_threshold"`
	Workers     *int     `yaml:"workers"`

	// Training defaults
	States        *int     `yaml:"states"`
	Topology      string   `yaml:"topology"`
	Iterations    *int     `yaml:"iterations"`
	Tolerance     *float64 `yaml:"tolerance"`
	PseudoCount   *float64 `yaml:"pseudo_count"`
	Seed          *int64   `yaml:"seed"`
	TrainOutDir   string   `yaml:"train_out_dir"`
	LogLevel      string   `yaml:"log_level"`
	LogFormat     string   `yaml:"log_format"`
	ServerAddress string   `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "lattice", "config.yaml")
}

// applyLoggingConfig applies config file defaults to the global logging flags.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyModelConfig applies config file defaults to the shared model flags
// when the corresponding CLI flag was not explicitly set.
func applyModelConfig(c *cli.Command, cfg Config) {
	if cfg.ModelsDir != "" && !c.IsSet("models-path") {
		modelsPath = cfg.ModelsDir
	}
	if cfg.Sensitivity != nil && !c.IsSet("sensitivity") {
		sensitivity = *cfg.Sensitivity
	}
	if cfg.NoThreshold != nil && !c.IsSet("no-threshold") {
		noThreshold = *cfg.NoThreshold
	}
}

// applyWorkersConfig applies the worker count default to a --workers flag.
func applyWorkersConfig(c *cli.Command, cfg Config, workers *int) {
	if cfg.Workers != nil && !c.IsSet("workers") {
		*workers = *cfg.Workers
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	applyModelConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// applyTrainConfig applies config file defaults to train command variables.
func applyTrainConfig(c *cli.Command, cfg Config, opts *trainOptions) {
	if cfg.States != nil && !c.IsSet("states") {
		opts.states = *cfg.States
	}
	if cfg.Topology != "" && !c.IsSet("topology") {
		opts.topology = cfg.Topology
	}
	if cfg.Iterations != nil && !c.IsSet("iterations") {
		opts.iterations = *cfg.Iterations
	}
	if cfg.Tolerance != nil && !c.IsSet("tolerance") {
		opts.tolerance = *cfg.Tolerance
	}
	if cfg.PseudoCount != nil && !c.IsSet("pseudo-count") {
		opts.pseudoCount = *cfg.PseudoCount
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		opts.seed = *cfg.Seed
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		opts.workers = *cfg.Workers
	}
	if cfg.TrainOutDir != "" && opts.outDir == "" {
		opts.outDir = cfg.TrainOutDir
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	cfg, err := readConfig(path)
	if err != nil {
		return Config{}
	}
	return cfg
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
