package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"github.com/pivolan/climate_charts/config"
	"github.com/pivolan/climate_charts/dataset"
	"github.com/pivolan/climate_charts/domain/models"
	"github.com/pivolan/climate_charts/export"
	"github.com/pivolan/climate_charts/observability"
	"github.com/pivolan/climate_charts/plot"
	"github.com/pivolan/climate_charts/reshape"
	"golang.org/x/sync/errgroup"
)

const matricesFile = "matrices.xlsx"

// result is what one pipeline produced. Err is set when it failed.
type result struct {
	Pipeline string
	Figure   models.Figure
	Matrix   *models.Matrix
	Rows     int
	Err      error
}

type runner struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
}

// runAll executes every pipeline, at most cfg.Workers at a time. A failing pipeline never stops the others.
func (r *runner) runAll(ctx context.Context, ps []pipeline) []result {
	results := make([]result, len(ps))
	var g errgroup.Group
	g.SetLimit(r.cfg.Workers)
	for i, p := range ps {
		i, p := i, p // per-iteration copies; go.mod targets Go 1.21
		g.Go(func() error {
			results[i] = r.run(ctx, p)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *runner) run(ctx context.Context, p pipeline) result {
	start := r.clock.Now()
	log := r.logger.With("pipeline", p.Name)
	res := result{Pipeline: p.Name}

	fail := func(err error) result {
		r.metrics.PipelineFailures.WithLabelValues(p.Name).Inc()
		log.Error("pipeline failed", "error", err)
		res.Err = fmt.Errorf("%s: %w", p.Name, err)
		return res
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	source := filepath.Join(r.cfg.DataDir, p.Source)
	log.Info("pipeline started", "path", source)

	table, err := dataset.Load(source, p.Options)
	if err != nil {
		return fail(err)
	}
	res.Rows = table.Len()
	r.metrics.RowsLoaded.WithLabelValues(table.Name).Add(float64(table.Len()))

	agg, err := reshape.AggregationByName(p.Aggregation)
	if err != nil {
		return fail(err)
	}
	drawer, matrix, err := p.Build(table, agg, r.cfg.DPI)
	if err != nil {
		return fail(err)
	}
	if matrix != nil && log.Enabled(ctx, slog.LevelDebug) {
		log.Debug("matrix preview", "rows", matrix.Rows.Len(), "cols", matrix.Cols.Len(), "table", "\n"+matrixPreview(matrix, 10))
	}

	data, err := drawer.Draw()
	if err != nil {
		return fail(err)
	}
	out := filepath.Join(r.cfg.OutputDir, p.Output)
	if err := plot.WriteFile(out, data); err != nil {
		return fail(err)
	}

	duration := r.clock.Since(start)
	res.Figure = models.Figure{Name: drawer.Name(), Path: out, Duration: duration}
	if matrix != nil {
		res.Matrix = matrix
		res.Figure.Rows = matrix.Rows.Len()
		res.Figure.Cols = matrix.Cols.Len()
		res.Figure.NullCells = matrix.NullCount()
		r.metrics.NullCells.WithLabelValues(p.Name).Set(float64(res.Figure.NullCells))
	}
	r.metrics.ChartsRendered.WithLabelValues(p.Name).Inc()
	r.metrics.PipelineDuration.WithLabelValues(p.Name).Observe(duration.Seconds())
	log.Info("pipeline finished", "path", out, "rows", res.Rows, "bytes", len(data), "duration", duration)
	return res
}

// run executes all pipelines, writes the side outputs and prints the summary.
// The returned error joins every pipeline and side-output failure.
func run(ctx context.Context, r *runner, ps []pipeline, stdout io.Writer) error {
	results := r.runAll(ctx, ps)

	var errs []error
	var matrices []*models.Matrix
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, res.Err)
			continue
		}
		if res.Matrix != nil {
			matrices = append(matrices, res.Matrix)
		}
	}

	if r.cfg.ExportMatrices && len(matrices) > 0 {
		path := filepath.Join(r.cfg.OutputDir, matricesFile)
		if err := export.WriteMatrices(path, matrices...); err != nil {
			errs = append(errs, fmt.Errorf("export matrices: %w", err))
		} else {
			r.logger.Info("matrices exported", "path", path, "sheets", len(matrices))
		}
	}

	if r.cfg.MetricsFile != "" {
		path := filepath.Join(r.cfg.OutputDir, r.cfg.MetricsFile)
		err := os.MkdirAll(filepath.Dir(path), 0755)
		if err == nil {
			err = r.metrics.WriteFile(path)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	fmt.Fprintln(stdout, summaryTable(results))
	return errors.Join(errs...)
}
