package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/jonboulle/clockwork"
	"github.com/pivolan/climate_charts/config"
	"github.com/pivolan/climate_charts/observability"
	uuid "github.com/satori/go.uuid"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return execute(ctx, cfg, os.Stdout, os.Stderr)
}

// execute runs every pipeline and maps the outcome to an exit code: 0 when all succeeded, 1 otherwise.
func execute(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) int {
	logger, err := observability.NewLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger = logger.With("run_id", uuid.NewV4().String())

	r := &runner{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(),
		clock:   clockwork.NewRealClock(),
	}
	logger.Info("started", "data_dir", cfg.DataDir, "output_dir", cfg.OutputDir, "workers", cfg.Workers)
	if err := run(ctx, r, pipelines(), stdout); err != nil {
		logger.Error("finished with errors", "error", err)
		return 1
	}
	logger.Info("finished")
	return 0
}
