package plot

import (
	"bytes"
	"fmt"
	"math"
	"sync"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Font sizes in points.
const (
	titlePt  = 12.0
	labelPt  = 10.0
	tickPt   = 9.0
	legendPt = 9.0
	annotPt  = 7.5
)

var (
	fontOnce  sync.Once
	fontStyle chart.Style
	fontErr   error
)

// baseStyle carries the bundled Roboto font. go-chart lazily parses it without a lock,
// so it is loaded once here before any concurrent render.
func baseStyle() (chart.Style, error) {
	fontOnce.Do(func() {
		f, err := chart.GetDefaultFont()
		if err != nil {
			fontErr = fmt.Errorf("load font: %w", err)
			return
		}
		fontStyle = chart.Style{Font: f}
	})
	return fontStyle, fontErr
}

// canvas wraps a go-chart renderer with point-based text and shape helpers.
type canvas struct {
	r      chart.Renderer
	dpi    float64
	base   chart.Style
	width  int
	height int
}

func newCanvas(size Size) (*canvas, error) {
	w, h := size.Pixels()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid figure size %vx%v in at %v dpi", size.Width, size.Height, size.DPI)
	}
	base, err := baseStyle()
	if err != nil {
		return nil, err
	}
	r, err := chart.PNG(w, h)
	if err != nil {
		return nil, err
	}
	r.SetDPI(size.DPI)
	c := &canvas{r: r, dpi: size.DPI, base: base, width: w, height: h}
	c.fillRect(chart.Box{Right: w, Bottom: h}, drawing.ColorWhite)
	return c, nil
}

// measureCanvas is a 1x1 canvas used only to size text before the real one exists.
func measureCanvas(dpi float64) (*canvas, error) {
	return newCanvas(Size{Width: 1 / dpi, Height: 1 / dpi, DPI: dpi})
}

// wrap reuses an existing renderer, e.g. inside a chart element.
func wrap(r chart.Renderer, dpi float64, base chart.Style) *canvas {
	return &canvas{r: r, dpi: dpi, base: base}
}

func (c *canvas) px(points float64) int {
	return int(math.Round(points * c.dpi / 72))
}

func (c *canvas) pxf(points float64) float64 {
	return points * c.dpi / 72
}

func (c *canvas) textStyle(size float64, color drawing.Color) chart.Style {
	return chart.Style{Font: c.base.Font, FontSize: size, FontColor: color}
}

func (c *canvas) measure(text string, size float64) chart.Box {
	if text == "" {
		return chart.Box{}
	}
	return chart.Draw.MeasureText(c.r, text, c.textStyle(size, darkText))
}

// textAt draws text centred on (cx, cy), rotated clockwise by degrees.
func (c *canvas) textAt(text string, cx, cy int, size float64, color drawing.Color, degrees float64) {
	if text == "" {
		return
	}
	b := c.measure(text, size)
	// baseline origin relative to the centre, in the text's own frame
	ox, oy := -float64(b.Width())/2, float64(b.Height())/2
	theta := chart.DegreesToRadians(degrees)
	x := float64(cx) + ox*math.Cos(theta) - oy*math.Sin(theta)
	y := float64(cy) + ox*math.Sin(theta) + oy*math.Cos(theta)

	style := c.textStyle(size, color)
	style.TextRotationDegrees = degrees
	chart.Draw.Text(c.r, text, int(math.Round(x)), int(math.Round(y)), style)
}

// textLeft draws text starting at x, vertically centred on cy.
func (c *canvas) textLeft(text string, x, cy int, size float64, color drawing.Color) {
	b := c.measure(text, size)
	c.textAt(text, x+b.Width()/2, cy, size, color, 0)
}

// textRight draws text ending at x, vertically centred on cy.
func (c *canvas) textRight(text string, x, cy int, size float64, color drawing.Color) {
	b := c.measure(text, size)
	c.textAt(text, x-b.Width()/2, cy, size, color, 0)
}

func (c *canvas) fillRect(b chart.Box, fill drawing.Color) {
	c.r.SetFillColor(fill)
	c.r.MoveTo(b.Left, b.Top)
	c.r.LineTo(b.Right, b.Top)
	c.r.LineTo(b.Right, b.Bottom)
	c.r.LineTo(b.Left, b.Bottom)
	c.r.Close()
	c.r.Fill()
	c.r.ResetStyle()
}

func (c *canvas) strokeRect(b chart.Box, stroke drawing.Color, width float64) {
	c.r.SetStrokeColor(stroke)
	c.r.SetStrokeWidth(width)
	c.r.MoveTo(b.Left, b.Top)
	c.r.LineTo(b.Right, b.Top)
	c.r.LineTo(b.Right, b.Bottom)
	c.r.LineTo(b.Left, b.Bottom)
	c.r.Close()
	c.r.Stroke()
	c.r.ResetStyle()
}

func (c *canvas) line(x0, y0, x1, y1 int, stroke drawing.Color, width float64) {
	c.r.SetStrokeColor(stroke)
	c.r.SetStrokeWidth(width)
	c.r.MoveTo(x0, y0)
	c.r.LineTo(x1, y1)
	c.r.Stroke()
	c.r.ResetStyle()
}

func (c *canvas) circle(cx, cy int, radius float64, fill, stroke drawing.Color, width float64) {
	c.r.SetFillColor(fill)
	c.r.SetStrokeColor(stroke)
	c.r.SetStrokeWidth(width)
	c.r.Circle(radius, cx, cy)
	c.r.FillStroke()
	c.r.ResetStyle()
}

func (c *canvas) png() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.r.Save(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
