package main

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/pivolan/climate_charts/config"
	"github.com/pivolan/climate_charts/dataset"
	"github.com/pivolan/climate_charts/domain/models"
	"github.com/pivolan/climate_charts/observability"
	"github.com/pivolan/climate_charts/reshape"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const weatherCSV = `"",city,date,month,avg_temp,avg_humidity,precip
1,Chicago,2016-01-01,1,20,70,0.2
2,Chicago,2016-01-02,1,30,60,T
3,Auckland,2016-01-01,1,68,80,NA
4,Auckland,2016-02-01,2,66,75,0
5,Beijing,2016-01-01,1,0,40,1.5
`

const anomalyCSV = `Land-Ocean: Global Means
Year,Jan,Feb,Mar,Apr,May,Jun,Jul,Aug,Sep,Oct,Nov,Dec,J-D,D-N,DJF,MAM,JJA,SON
1880,-.17,-.24,-.08,-.15,-.09,-.20,-.17,-.09,-.14,-.22,-.21,-.17,-.16,***,***,-.11,-.15,-.19
1881,-.19,-.14,.04,.06,.07,-.18,.01,-.03,-.15,-.22,-.18,-.07,-.08,-.09,-.17,.06,-.07,-.18
2025,1.37,1.26,***,***,***,***,***,***,***,***,***,***,***,***,1.30,***,***,***
`

const minnesotaCSV = `site,year,mo,cdd,hdd,precip,min,max
Crookston,1931,11,0,800,1.2,10,40
Crookston,1932,1,0,1500,0.4,-10,20
Crookston,1932,2,0,1400,0.6,-5,25
Bemidji,1931,11,0,850,1.0,8,38
Bemidji,1931,12,0,1200,NA,0,30
`

type fixture struct {
	cfg     *config.Config
	metrics *observability.Metrics
	runner  *runner
}

func newFixture(t *testing.T, files map[string]string) fixture {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		DataDir:        filepath.Join(root, "data"),
		OutputDir:      filepath.Join(root, "output"),
		DPI:            30,
		Workers:        2,
		LogLevel:       "debug",
		LogFormat:      "text",
		ExportMatrices: true,
		MetricsFile:    "metrics.prom",
	}
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, name), []byte(content), 0644))
	}
	logger, err := observability.NewLogger(io.Discard, cfg.LogLevel, cfg.LogFormat)
	require.NoError(t, err)
	metrics := observability.NewMetrics()
	return fixture{
		cfg:     cfg,
		metrics: metrics,
		runner: &runner{
			cfg:     cfg,
			logger:  logger,
			metrics: metrics,
			clock:   clockwork.NewFakeClock(),
		},
	}
}

func allFiles() map[string]string {
	return map[string]string{
		weatherFile:   weatherCSV,
		anomalyFile:   anomalyCSV,
		minnesotaFile: minnesotaCSV,
	}
}

func pngSize(t *testing.T, path string) (int, int) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestRunAllPipelines(t *testing.T) {
	f := newFixture(t, allFiles())
	var stdout bytes.Buffer

	err := run(context.Background(), f.runner, pipelines(), &stdout)
	require.NoError(t, err)

	sizes := map[string][2]int{
		"weather_heatmap.png":       {300, 120},
		"weather_scatter.png":       {270, 180},
		"global_temp_heatmap.png":   {300, 240},
		"minnesota_precip_line.png": {300, 180},
	}
	for name, want := range sizes {
		w, h := pngSize(t, filepath.Join(f.cfg.OutputDir, name))
		assert.Equal(t, want, [2]int{w, h}, name)
	}

	book, err := excelize.OpenFile(filepath.Join(f.cfg.OutputDir, matricesFile))
	require.NoError(t, err)
	defer book.Close()
	assert.Equal(t, []string{"weather_heatmap", "global_temp_heatmap"}, book.GetSheetList())
	chicagoJan, err := book.GetCellValue("weather_heatmap", "B4")
	require.NoError(t, err)
	assert.Equal(t, "25", chicagoJan)

	assert.Equal(t, 10.0, testutil.ToFloat64(f.metrics.RowsLoaded.WithLabelValues("weather_data")))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.RowsLoaded.WithLabelValues("global_temp")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ChartsRendered.WithLabelValues("minnesota_precip_line")))
	// 3 cities x 12 months, 4 filled (Auckland Feb included)
	assert.Equal(t, 32.0, testutil.ToFloat64(f.metrics.NullCells.WithLabelValues("weather_heatmap")))

	prom, err := os.ReadFile(filepath.Join(f.cfg.OutputDir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `climate_charts_charts_rendered_total{chart="weather_scatter"} 1`)

	out := stdout.String()
	for _, p := range pipelines() {
		assert.Contains(t, out, p.Name)
	}
	assert.NotContains(t, out, "failed")
}

func TestRunIsDeterministic(t *testing.T) {
	first := newFixture(t, allFiles())
	second := newFixture(t, allFiles())
	require.NoError(t, run(context.Background(), first.runner, pipelines(), io.Discard))
	require.NoError(t, run(context.Background(), second.runner, pipelines(), io.Discard))

	for _, p := range pipelines() {
		a, err := os.ReadFile(filepath.Join(first.cfg.OutputDir, p.Output))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(second.cfg.OutputDir, p.Output))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(a, b), p.Output)
	}
}

func TestRunFailuresAreIndependent(t *testing.T) {
	files := allFiles()
	delete(files, anomalyFile)
	files[minnesotaFile] = "site,year,mo,precip\nCrookston,1931,13,1.2\n"
	f := newFixture(t, files)

	// a previous good render must survive the failed run
	require.NoError(t, os.MkdirAll(f.cfg.OutputDir, 0755))
	stale := filepath.Join(f.cfg.OutputDir, "global_temp_heatmap.png")
	require.NoError(t, os.WriteFile(stale, []byte("previous"), 0644))

	var stdout bytes.Buffer
	err := run(context.Background(), f.runner, pipelines(), &stdout)
	require.Error(t, err)

	assert.True(t, errors.Is(err, dataset.ErrFileNotFound))
	var pe *dataset.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "date", pe.Column)
	assert.True(t, errors.Is(err, dataset.ErrInvalidValue))
	assert.Contains(t, err.Error(), "global_temp_heatmap: ")
	assert.Contains(t, err.Error(), "minnesota_precip_line: ")

	assert.FileExists(t, filepath.Join(f.cfg.OutputDir, "weather_heatmap.png"))
	assert.FileExists(t, filepath.Join(f.cfg.OutputDir, "weather_scatter.png"))
	assert.NoFileExists(t, filepath.Join(f.cfg.OutputDir, "minnesota_precip_line.png"))
	old, readErr := os.ReadFile(stale)
	require.NoError(t, readErr)
	assert.Equal(t, "previous", string(old))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PipelineFailures.WithLabelValues("global_temp_heatmap")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PipelineFailures.WithLabelValues("minnesota_precip_line")))
	assert.Equal(t, 2, strings.Count(stdout.String(), "failed"))
}

func TestRunMinnesotaIsolatedMonth(t *testing.T) {
	files := allFiles()
	// Crookston 1932-01 stands alone between the missing 1931-12 and 1932-02
	files[minnesotaFile] = `site,year,mo,cdd,hdd,precip,min,max
Crookston,1931,11,0,800,1.2,10,40
Crookston,1932,1,0,1500,0.4,-10,20
Crookston,1932,3,0,1100,0.9,0,35
Crookston,1932,4,0,600,1.4,20,50
Bemidji,1931,11,0,850,1.0,8,38
Bemidji,1931,12,0,1200,0.3,0,30
`
	f := newFixture(t, files)

	require.NoError(t, run(context.Background(), f.runner, pipelines(), io.Discard))
	w, h := pngSize(t, filepath.Join(f.cfg.OutputDir, "minnesota_precip_line.png"))
	assert.Equal(t, [2]int{300, 180}, [2]int{w, h})
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ChartsRendered.WithLabelValues("minnesota_precip_line")))
}

func TestRunEmptyResult(t *testing.T) {
	files := allFiles()
	files[weatherFile] = "city,month,avg_temp,avg_humidity,precip\nChicago,1,NA,NA,0\n"
	f := newFixture(t, files)

	err := run(context.Background(), f.runner, pipelines(), io.Discard)
	require.Error(t, err)
	assert.True(t, errors.Is(err, reshape.ErrEmptyResult))
	var ee *reshape.EmptyResultError
	require.True(t, errors.As(err, &ee))

	assert.FileExists(t, filepath.Join(f.cfg.OutputDir, "global_temp_heatmap.png"))
	assert.NoFileExists(t, filepath.Join(f.cfg.OutputDir, "weather_heatmap.png"))
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t, allFiles())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, f.runner, pipelines(), io.Discard)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.NoFileExists(t, filepath.Join(f.cfg.OutputDir, matricesFile))
}

func TestMatrixPreview(t *testing.T) {
	m := models.NewMatrix("anomaly", models.NewAxis("year", []string{"1880", "1881", "1882"}), models.MonthAxis("month", true))
	m.Set(0, 0, models.NewCell(-0.17))

	preview := matrixPreview(m, 2)
	assert.Contains(t, preview, "-0.17")
	assert.Contains(t, strings.ToLower(preview), "jan")
	assert.Contains(t, strings.ToLower(preview), "+1 rows")
	assert.NotContains(t, preview, "1882")
}
