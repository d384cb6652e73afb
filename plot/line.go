package plot

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/pivolan/climate_charts/domain/models"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// LineStyle configures a multi-series time line chart.
type LineStyle struct {
	Size        Size
	Title       string
	XLabel      string
	YLabel      string
	LegendTitle string
	// LineWidth in points; default 1.5.
	LineWidth float64
}

type line struct {
	name  string
	coll  models.SeriesCollection
	style LineStyle
}

func NewLine(name string, coll models.SeriesCollection, style LineStyle) Drawer {
	if style.LineWidth == 0 {
		style.LineWidth = 1.5
	}
	return &line{name: name, coll: coll, style: style}
}

func (l *line) Name() string {
	return l.name
}

func (l *line) Draw() ([]byte, error) {
	dpi := l.style.Size.DPI
	mc, err := measureCanvas(dpi)
	if err != nil {
		return nil, fmt.Errorf("line %s: %w", l.name, err)
	}
	base := mc.base

	entries := legend{Title: l.style.LegendTitle}
	var series []chart.Series
	var first, last time.Time
	ymin, ymax := math.Inf(1), math.Inf(-1)
	for i, key := range l.coll.Keys {
		color := HueColor(i)
		segments := l.coll.Series[key].Segments()
		if len(segments) == 0 {
			continue
		}
		for _, seg := range segments {
			ts := chart.TimeSeries{
				Name: key,
				Style: chart.Style{
					StrokeColor: color,
					StrokeWidth: mc.pxf(l.style.LineWidth),
				},
			}
			// a lone month has no neighbour to connect to, so it is drawn as a dot
			if len(seg) == 1 {
				ts.Style.DotColor = color
				ts.Style.DotWidth = mc.pxf(l.style.LineWidth)
			}
			for _, p := range seg {
				ts.XValues = append(ts.XValues, p.Date)
				ts.YValues = append(ts.YValues, p.Value.Value)
				if first.IsZero() || p.Date.Before(first) {
					first = p.Date
				}
				if p.Date.After(last) {
					last = p.Date
				}
				ymin, ymax = math.Min(ymin, p.Value.Value), math.Max(ymax, p.Value.Value)
			}
			series = append(series, ts)
		}
		entries.Entries = append(entries.Entries, legendEntry{Label: key, Color: color, Line: true})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("line %s: %w", l.name, ErrNoData)
	}
	if !last.After(first) {
		first, last = first.AddDate(0, -1, 0), last.AddDate(0, 1, 0)
	}

	lay := entries.layout(mc)
	gap := mc.px(8)
	ylo, yhi := paddedRange(ymin, ymax, 0.05)
	w, h := l.style.Size.Pixels()

	graph := chart.Chart{
		Title:      l.style.Title,
		TitleStyle: chart.Style{FontSize: titlePt},
		Width:      w,
		Height:     h,
		DPI:        dpi,
		Font:       base.Font,
		Background: chart.Style{
			Padding:   chart.Box{Top: mc.px(30), Left: mc.px(8), Right: gap + lay.width + mc.px(6), Bottom: mc.px(8)},
			FillColor: drawing.ColorWhite,
		},
		XAxis: chart.XAxis{
			Name:           l.style.XLabel,
			NameStyle:      chart.Style{FontSize: labelPt},
			Style:          chart.Style{FontSize: tickPt},
			Range:          newYearRange(first, last),
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006"),
		},
		YAxis: chart.YAxis{
			Name:           l.style.YLabel,
			NameStyle:      chart.Style{FontSize: labelPt},
			Style:          chart.Style{FontSize: tickPt},
			Range:          &chart.ContinuousRange{Min: ylo, Max: yhi},
			ValueFormatter: numberFormatter,
		},
		Series: series,
		Elements: []chart.Renderable{
			func(r chart.Renderer, box chart.Box, _ chart.Style) {
				entries.draw(wrap(r, dpi, base), box.Right+gap, box.Top)
			},
		},
	}
	return renderChart(l.name, graph)
}

// yearRange spans exactly [first, last] and supplies its own year ticks. Setting XAxis.Ticks
// instead would make go-chart shrink the range to the outermost tick.
type yearRange struct {
	*chart.ContinuousRange
	first, last time.Time
}

func newYearRange(first, last time.Time) yearRange {
	return yearRange{
		ContinuousRange: &chart.ContinuousRange{Min: chart.TimeToFloat64(first), Max: chart.TimeToFloat64(last)},
		first:           first,
		last:            last,
	}
}

func (yr yearRange) GetTicks(chart.Renderer, chart.Style, chart.ValueFormatter) []chart.Tick {
	return yearTicks(yr.first, yr.last)
}

// yearTicks marks every January 1st inside [first, last], stepping so at most 12 labels remain.
// Without a January in the span, the first point carries its year.
func yearTicks(first, last time.Time) []chart.Tick {
	start := first.Year()
	if time.Date(start, 1, 1, 0, 0, 0, 0, time.UTC).Before(first) {
		start++
	}
	years := last.Year() - start + 1
	if years <= 0 {
		return []chart.Tick{{Value: chart.TimeToFloat64(first), Label: strconv.Itoa(first.Year())}}
	}
	step := (years + 11) / 12
	var ticks []chart.Tick
	for y := start; y <= last.Year(); y += step {
		t := time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
		ticks = append(ticks, chart.Tick{Value: chart.TimeToFloat64(t), Label: strconv.Itoa(y)})
	}
	return ticks
}

func renderChart(name string, graph chart.Chart) ([]byte, error) {
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("error rendering %s: %w", name, err)
	}
	return buffer.Bytes(), nil
}
