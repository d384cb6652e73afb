package plot

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/pivolan/climate_charts/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

func TestCalculateGridStep(t *testing.T) {
	tests := []struct {
		span float64
		want float64
	}{
		{0, 0},
		{-4, 0},
		{3, 1},
		{60, 20},
		{0.5, 0.1},
		{1500, 500},
		{9000, 2000},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, calculateGridStep(tt.span), 1e-12, "span %v", tt.span)
	}
}

func TestColorbarTicks(t *testing.T) {
	ticks, step := colorbarTicks(-1.5, 1.5)
	assert.Equal(t, 1.0, step)
	assert.Equal(t, []float64{-1, 0, 1}, ticks)

	ticks, _ = colorbarTicks(5, 5)
	assert.Equal(t, []float64{5}, ticks)

	assert.Equal(t, "-1", formatTick(-1, 1))
	assert.Equal(t, "0.3", formatTick(0.30000000000000004, 0.1))
	assert.Equal(t, "0.0", formatTick(-1e-9, 0.1))
}

func TestCoolwarm(t *testing.T) {
	assert.Equal(t, coolwarmStops[0], Coolwarm(0))
	assert.Equal(t, coolwarmStops[0], Coolwarm(-3))
	assert.Equal(t, coolwarmStops[2], Coolwarm(0.5))
	assert.Equal(t, coolwarmStops[4], Coolwarm(1))
	assert.Equal(t, coolwarmStops[4], Coolwarm(7))

	assert.Equal(t, lightText, textColorFor(Coolwarm(0)))
	assert.Equal(t, darkText, textColorFor(Coolwarm(0.5)))
	assert.Equal(t, lightText, textColorFor(Coolwarm(1)))
}

func TestHueColorCycles(t *testing.T) {
	assert.Equal(t, drawing.Color{R: 76, G: 114, B: 176, A: 255}, HueColor(0))
	assert.Equal(t, HueColor(1), HueColor(11))
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func smallMatrix() *models.Matrix {
	m := models.NewMatrix("weather", models.NewAxis("city", []string{"Auckland", "Chicago"}), models.MonthAxis("month", false))
	m.Set(0, 0, models.NewCell(68))
	m.Set(0, 1, models.NewCell(66.4))
	m.Set(1, 0, models.NewCell(25))
	return m
}

func TestHeatmapDraw(t *testing.T) {
	style := HeatmapStyle{
		Size:          Size{Width: 10, Height: 4, DPI: 40},
		Title:         "Average monthly temperature by city",
		XLabel:        "Month",
		YLabel:        "City",
		ColorbarLabel: "Average temperature",
		Annotate:      true,
	}
	drawer := NewHeatmap("weather_heatmap", smallMatrix(), style)
	assert.Equal(t, "weather_heatmap", drawer.Name())

	first, err := drawer.Draw()
	require.NoError(t, err)
	w, h := decodeSize(t, first)
	assert.Equal(t, 400, w)
	assert.Equal(t, 160, h)

	second, err := drawer.Draw()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second), "rendering must be deterministic")
}

func TestHeatmapFixedRangeAllowsNullMatrix(t *testing.T) {
	m := models.NewMatrix("anomaly", models.NewAxis("year", []string{"2025"}), models.MonthAxis("month", true))
	style := HeatmapStyle{Size: Size{Width: 10, Height: 8, DPI: 30}, XLabelRotation: 45}

	_, err := NewHeatmap("g", m, style).Draw()
	assert.True(t, errors.Is(err, ErrNoData))

	style.FixedRange, style.VMin, style.VMax = true, -1.5, 1.5
	data, err := NewHeatmap("g", m, style).Draw()
	require.NoError(t, err)
	w, h := decodeSize(t, data)
	assert.Equal(t, 300, w)
	assert.Equal(t, 240, h)
}

func TestHeatmapDoesNotFit(t *testing.T) {
	keys := make([]string, 500)
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}
	wide := models.NewMatrix("wide", models.NewAxis("city", []string{"Auckland"}), models.NewAxis("day", keys))
	wide.Set(0, 0, models.NewCell(1))

	tests := []struct {
		name string
		m    *models.Matrix
		size Size
	}{
		// margins exceed the canvas, leaving an inverted plot box
		{name: "inverted", m: smallMatrix(), size: Size{Width: 0.5, Height: 0.5, DPI: 20}},
		{name: "more columns than pixels", m: wide, size: Size{Width: 10, Height: 4, DPI: 40}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewHeatmap("tiny", tt.m, HeatmapStyle{Size: tt.size, Title: "t", XLabel: "x", YLabel: "y"}).Draw()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "do not fit")
		})
	}
}

func scatterSet() models.ScatterSet {
	return models.ScatterSet{
		Hues: []string{"Chicago", "Auckland"},
		Points: []models.ScatterPoint{
			{X: 70, Y: 20, Hue: "Chicago", Size: 0.2},
			{X: 60, Y: 30, Hue: "Chicago", Trace: true},
			{X: 80, Y: 68, Hue: "Auckland", SizeMissing: true},
			{X: 75, Y: 66, Hue: "Auckland", Size: 1.1},
		},
	}
}

func TestScatterSizing(t *testing.T) {
	s := NewScatter("s", scatterSet(), ScatterStyle{}).(*scatter)
	assert.Equal(t, 20.0, s.area(0, 0, 1))
	assert.Equal(t, 160.0, s.area(0.5, 0, 1))
	assert.Equal(t, 300.0, s.area(4, 0, 1))
	assert.Equal(t, 20.0, s.area(1, 0, 0))
	assert.Equal(t, 160.0, s.area(2, 1, 3))

	// dots span the whole data range while the legend stops at the 95th percentile
	lo, hi := s.sizeSpan()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.1, hi)
	assert.Equal(t, 300.0, s.area(1.1, lo, hi))
	assert.InDelta(t, 0.965, s.sizeCap(), 1e-9)
	assert.Less(t, s.sizeCap(), hi)

	assert.Equal(t, []float64{0, 0.3, 0.6, 0.9}, legendSizes(0.9))
	assert.Equal(t, []float64{0}, legendSizes(0))
	assert.Equal(t, []float64{0, 0.01}, legendSizes(0.01))
}

func TestScatterDraw(t *testing.T) {
	drawer := NewScatter("weather_scatter", scatterSet(), ScatterStyle{
		Size:      Size{Width: 9, Height: 6, DPI: 60},
		Title:     "Daily weather",
		XLabel:    "Average relative humidity (%)",
		YLabel:    "Average temperature (°F)",
		HueTitle:  "City",
		SizeTitle: "Precipitation",
	})
	first, err := drawer.Draw()
	require.NoError(t, err)
	w, h := decodeSize(t, first)
	assert.Equal(t, 540, w)
	assert.Equal(t, 360, h)

	second, err := drawer.Draw()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))

	_, err = NewScatter("empty", models.ScatterSet{}, ScatterStyle{Size: Size{9, 6, 60}}).Draw()
	assert.True(t, errors.Is(err, ErrNoData))
}

func monthly(year, month int, v float64, valid bool) models.Point {
	p := models.Point{Date: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)}
	if valid {
		p.Value = models.NewCell(v)
	}
	return p
}

func TestLineDraw(t *testing.T) {
	coll := models.SeriesCollection{
		Keys: []string{"Bemidji", "Crookston"},
		Series: map[string]models.Series{
			"Bemidji": {Key: "Bemidji", Points: []models.Point{
				monthly(1931, 11, 1.5, true), monthly(1931, 12, 0, false), monthly(1932, 1, 0, true),
			}},
			"Crookston": {Key: "Crookston", Points: []models.Point{
				monthly(1931, 11, 1.2, true), monthly(1932, 1, 0.4, true), monthly(1932, 2, 0.6, true),
			}},
		},
	}
	drawer := NewLine("minnesota_precip_line", coll, LineStyle{
		Size:        Size{Width: 10, Height: 6, DPI: 40},
		Title:       "Monthly precipitation",
		XLabel:      "Year",
		YLabel:      "Precipitation (inches)",
		LegendTitle: "Site",
	})
	first, err := drawer.Draw()
	require.NoError(t, err)
	w, h := decodeSize(t, first)
	assert.Equal(t, 400, w)
	assert.Equal(t, 240, h)

	second, err := drawer.Draw()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))
}

func TestLineDrawAllNull(t *testing.T) {
	coll := models.SeriesCollection{
		Keys:   []string{"A"},
		Series: map[string]models.Series{"A": {Key: "A", Points: []models.Point{monthly(1931, 1, 0, false)}}},
	}
	_, err := NewLine("l", coll, LineStyle{Size: Size{10, 6, 40}}).Draw()
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestYearTicks(t *testing.T) {
	tests := []struct {
		name        string
		first, last time.Time
		labels      []string
	}{
		{
			name:   "ten full years",
			first:  time.Date(1927, 1, 1, 0, 0, 0, 0, time.UTC),
			last:   time.Date(1936, 12, 1, 0, 0, 0, 0, time.UTC),
			labels: []string{"1927", "1928", "1929", "1930", "1931", "1932", "1933", "1934", "1935", "1936"},
		},
		{
			name:   "one january inside",
			first:  time.Date(1931, 11, 1, 0, 0, 0, 0, time.UTC),
			last:   time.Date(1932, 2, 1, 0, 0, 0, 0, time.UTC),
			labels: []string{"1932"},
		},
		{
			name:   "no january inside",
			first:  time.Date(1931, 3, 1, 0, 0, 0, 0, time.UTC),
			last:   time.Date(1931, 11, 1, 0, 0, 0, 0, time.UTC),
			labels: []string{"1931"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yr := newYearRange(tt.first, tt.last)
			assert.Equal(t, chart.TimeToFloat64(tt.first), yr.GetMin())
			assert.Equal(t, chart.TimeToFloat64(tt.last), yr.GetMax())
			assert.Greater(t, yr.GetDelta(), 0.0)

			ticks := yr.GetTicks(nil, chart.Style{}, nil)
			var labels []string
			for _, tk := range ticks {
				labels = append(labels, tk.Label)
				assert.GreaterOrEqual(t, tk.Value, yr.GetMin())
				assert.LessOrEqual(t, tk.Value, yr.GetMax())
			}
			assert.Equal(t, tt.labels, labels)
		})
	}

	t.Run("long span is thinned", func(t *testing.T) {
		ticks := yearTicks(time.Date(1880, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
		assert.LessOrEqual(t, len(ticks), 12)
		assert.Equal(t, "1881", ticks[0].Label)
	})
}

func monthlySeries(key string, from time.Time, months int) models.Series {
	s := models.Series{Key: key}
	for i := 0; i < months; i++ {
		s.Points = append(s.Points, models.Point{Date: from.AddDate(0, i, 0), Value: models.NewCell(float64(i%7) / 3)})
	}
	return s
}

func TestLineDrawSpans(t *testing.T) {
	tests := []struct {
		name   string
		from   time.Time
		months int
	}{
		{name: "november to february", from: time.Date(1931, 11, 1, 0, 0, 0, 0, time.UTC), months: 4},
		{name: "within one year", from: time.Date(1931, 2, 1, 0, 0, 0, 0, time.UTC), months: 6},
		{name: "ten years", from: time.Date(1927, 1, 1, 0, 0, 0, 0, time.UTC), months: 120},
		{name: "single month", from: time.Date(1931, 12, 1, 0, 0, 0, 0, time.UTC), months: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coll := models.SeriesCollection{
				Keys:   []string{"Crookston"},
				Series: map[string]models.Series{"Crookston": monthlySeries("Crookston", tt.from, tt.months)},
			}
			data, err := NewLine("l", coll, LineStyle{Size: Size{10, 6, 40}, Title: "t", LegendTitle: "Site"}).Draw()
			require.NoError(t, err)
			w, h := decodeSize(t, data)
			assert.Equal(t, 400, w)
			assert.Equal(t, 240, h)
		})
	}
}

func TestLineDrawIsolatedMonth(t *testing.T) {
	// 1932-03 sits alone between two gaps and is drawn as a dot
	coll := models.SeriesCollection{
		Keys: []string{"Bemidji"},
		Series: map[string]models.Series{"Bemidji": {Key: "Bemidji", Points: []models.Point{
			monthly(1932, 1, 0.5, true), monthly(1932, 2, 0, false), monthly(1932, 3, 1.1, true),
			monthly(1932, 4, 0, false), monthly(1932, 5, 0.7, true), monthly(1932, 6, 0.9, true),
		}}},
	}
	require.Len(t, coll.Series["Bemidji"].Segments(), 3)

	drawer := NewLine("l", coll, LineStyle{Size: Size{10, 6, 40}, LegendTitle: "Site"})
	first, err := drawer.Draw()
	require.NoError(t, err)
	second, err := drawer.Draw()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "chart.png")

	require.NoError(t, WriteFile(path, []byte("first")))
	require.NoError(t, WriteFile(path, []byte("second")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteFileFailureKeepsDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "chart.png")
	require.NoError(t, os.Mkdir(target, 0755))

	err := WriteFile(target, []byte("png"))
	require.Error(t, err)

	info, statErr := os.Stat(target)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
