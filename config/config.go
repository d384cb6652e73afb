package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix of every environment variable, e.g. CLIMATE_DATA_DIR.
const Prefix = "CLIMATE"

type Config struct {
	DataDir        string  `envconfig:"DATA_DIR" default:"data"`
	OutputDir      string  `envconfig:"OUTPUT_DIR" default:"output"`
	DPI            float64 `envconfig:"DPI" default:"300"`
	Workers        int     `envconfig:"WORKERS" default:"1"`
	LogLevel       string  `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string  `envconfig:"LOG_FORMAT" default:"text"`
	ExportMatrices bool    `envconfig:"EXPORT_MATRICES" default:"true"`
	// MetricsFile is relative to OutputDir; empty disables it.
	MetricsFile string `envconfig:"METRICS_FILE" default:"metrics.prom"`
}

var (
	config    *Config
	configErr error
	once      sync.Once
)

// GetConfig returns the process-wide configuration, loaded on first use.
func GetConfig() (*Config, error) {
	once.Do(func() {
		config, configErr = Load()
	})
	return config, configErr
}

// Load reads an optional .env file, then the CLIMATE_* environment. Every key has a default,
// so running with no environment at all is valid.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.DPI <= 0 {
		errs = append(errs, fmt.Errorf("DPI must be positive, got %v", c.DPI))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("WORKERS must be at least 1, got %d", c.Workers))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	if c.DataDir == "" || c.OutputDir == "" {
		errs = append(errs, errors.New("DATA_DIR and OUTPUT_DIR must not be empty"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
