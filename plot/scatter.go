package plot

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/pivolan/climate_charts/domain/models"
	"github.com/pivolan/climate_charts/reshape"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ScatterStyle configures a hue/size scatter plot.
type ScatterStyle struct {
	Size      Size
	Title     string
	XLabel    string
	YLabel    string
	HueTitle  string
	SizeTitle string
	// Dot areas in points squared; defaults 20 and 300.
	MinArea float64
	MaxArea float64
	// SizeQuantile caps the size scale; default 0.95.
	SizeQuantile float64
	// Alpha of the dots; default 0.65.
	Alpha float64
}

type scatter struct {
	name  string
	set   models.ScatterSet
	style ScatterStyle
}

func NewScatter(name string, set models.ScatterSet, style ScatterStyle) Drawer {
	if style.MinArea == 0 && style.MaxArea == 0 {
		style.MinArea, style.MaxArea = 20, 300
	}
	if style.SizeQuantile == 0 {
		style.SizeQuantile = 0.95
	}
	if style.Alpha == 0 {
		style.Alpha = 0.65
	}
	return &scatter{name: name, set: set, style: style}
}

func (s *scatter) Name() string {
	return s.name
}

// sizeCap is the SizeQuantile of all sizes, trace and missing counted as 0. It scales the size legend.
func (s *scatter) sizeCap() float64 {
	sizes := make([]float64, len(s.set.Points))
	for i, p := range s.set.Points {
		sizes[i] = p.Size
	}
	sort.Float64s(sizes)
	return reshape.Quantile(sizes, s.style.SizeQuantile)
}

// sizeSpan is the smallest and largest size in the data; dots are scaled over it.
func (s *scatter) sizeSpan() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range s.set.Points {
		lo, hi = math.Min(lo, p.Size), math.Max(hi, p.Size)
	}
	return lo, hi
}

// area maps a size onto [MinArea, MaxArea] linearly over [lo, hi], clamping outside values.
func (s *scatter) area(v, lo, hi float64) float64 {
	if hi <= lo {
		return s.style.MinArea
	}
	t := math.Max(0, math.Min(1, (v-lo)/(hi-lo)))
	return s.style.MinArea + t*(s.style.MaxArea-s.style.MinArea)
}

// legendSizes are 4 evenly spaced values over [0, limit], rounded to 2 decimals, deduplicated.
func legendSizes(limit float64) []float64 {
	var out []float64
	for i := 0; i < 4; i++ {
		v := math.Round(limit*float64(i)/3*100) / 100
		if len(out) == 0 || out[len(out)-1] != v {
			out = append(out, v)
		}
	}
	return out
}

func (s *scatter) Draw() ([]byte, error) {
	if len(s.set.Points) == 0 {
		return nil, fmt.Errorf("scatter %s: %w", s.name, ErrNoData)
	}
	dpi := s.style.Size.DPI
	mc, err := measureCanvas(dpi)
	if err != nil {
		return nil, fmt.Errorf("scatter %s: %w", s.name, err)
	}
	base := mc.base
	radius := func(area float64) float64 { return math.Sqrt(area/math.Pi) * dpi / 72 }
	alpha := uint8(math.Round(s.style.Alpha * 255))
	limit := s.sizeCap()
	sizeLo, sizeHi := s.sizeSpan()

	hues := legend{Title: s.style.HueTitle}
	var series []chart.Series
	xmin, xmax := math.Inf(1), math.Inf(-1)
	ymin, ymax := math.Inf(1), math.Inf(-1)
	for i, hue := range s.set.Hues {
		color := HueColor(i)
		points := s.set.ByHue(hue)
		xs := make([]float64, len(points))
		ys := make([]float64, len(points))
		radii := make([]float64, len(points))
		for k, p := range points {
			xs[k], ys[k] = p.X, p.Y
			radii[k] = radius(s.area(p.Size, sizeLo, sizeHi))
			xmin, xmax = math.Min(xmin, p.X), math.Max(xmax, p.X)
			ymin, ymax = math.Min(ymin, p.Y), math.Max(ymax, p.Y)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    hue,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotColor:    color.WithAlpha(alpha),
				DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
					return radii[index]
				},
			},
		})
		hues.Entries = append(hues.Entries, legendEntry{
			Label:  hue,
			Color:  color.WithAlpha(230),
			Edge:   drawing.ColorBlack,
			Radius: mc.pxf(4),
		})
	}

	sizes := legend{Title: s.style.SizeTitle}
	for _, v := range legendSizes(limit) {
		sizes.Entries = append(sizes.Entries, legendEntry{
			Label:  strconv.FormatFloat(v, 'g', -1, 64),
			Color:  drawing.Color{R: 128, G: 128, B: 128, A: 153},
			Edge:   drawing.ColorBlack,
			Radius: radius(s.area(v, 0, limit)),
		})
	}

	hueLay, sizeLay := hues.layout(mc), sizes.layout(mc)
	gap := mc.px(8)
	right := gap + max(hueLay.width, sizeLay.width) + mc.px(6)

	xlo, xhi := paddedRange(xmin, xmax, 0.05)
	ylo, yhi := paddedRange(ymin, ymax, 0.05)
	w, h := s.style.Size.Pixels()

	graph := chart.Chart{
		Title:      s.style.Title,
		TitleStyle: chart.Style{FontSize: titlePt},
		Width:      w,
		Height:     h,
		DPI:        dpi,
		Font:       base.Font,
		Background: chart.Style{
			Padding:   chart.Box{Top: mc.px(30), Left: mc.px(8), Right: right, Bottom: mc.px(8)},
			FillColor: drawing.ColorWhite,
		},
		XAxis: chart.XAxis{
			Name:           s.style.XLabel,
			NameStyle:      chart.Style{FontSize: labelPt},
			Style:          chart.Style{FontSize: tickPt},
			Range:          &chart.ContinuousRange{Min: xlo, Max: xhi},
			ValueFormatter: numberFormatter,
		},
		YAxis: chart.YAxis{
			Name:           s.style.YLabel,
			NameStyle:      chart.Style{FontSize: labelPt},
			Style:          chart.Style{FontSize: tickPt},
			Range:          &chart.ContinuousRange{Min: ylo, Max: yhi},
			ValueFormatter: numberFormatter,
		},
		Series: series,
		Elements: []chart.Renderable{
			func(r chart.Renderer, box chart.Box, _ chart.Style) {
				c := wrap(r, dpi, base)
				hues.draw(c, box.Right+gap, box.Top)
				sizes.draw(c, box.Right+gap, box.Bottom-sizeLay.height)
			},
		},
	}
	return renderChart(s.name, graph)
}

func numberFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'g', 6, 64)
	}
	return ""
}
