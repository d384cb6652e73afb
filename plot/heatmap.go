package plot

import (
	"fmt"
	"math"

	"github.com/pivolan/climate_charts/domain/models"
	"github.com/wcharczuk/go-chart/v2"
)

// HeatmapStyle configures a matrix heatmap.
type HeatmapStyle struct {
	Size          Size
	Title         string
	XLabel        string
	YLabel        string
	ColorbarLabel string
	// Annotate prints each valid cell with Format ("%.1f" when empty).
	Annotate bool
	Format   string
	// FixedRange pins the colour scale to [VMin, VMax] instead of the data range.
	FixedRange bool
	VMin       float64
	VMax       float64
	// XLabelRotation rotates column labels, counter-clockwise in degrees.
	XLabelRotation float64
}

type heatmap struct {
	name  string
	m     *models.Matrix
	style HeatmapStyle
}

func NewHeatmap(name string, m *models.Matrix, style HeatmapStyle) Drawer {
	if style.Format == "" {
		style.Format = "%.1f"
	}
	return &heatmap{name: name, m: m, style: style}
}

func (h *heatmap) Name() string {
	return h.name
}

func (h *heatmap) scale() (lo, hi float64, err error) {
	if h.style.FixedRange {
		if h.style.VMax <= h.style.VMin {
			return 0, 0, fmt.Errorf("heatmap %s: invalid range %v..%v", h.name, h.style.VMin, h.style.VMax)
		}
		return h.style.VMin, h.style.VMax, nil
	}
	lo, hi, ok := h.m.Range()
	if !ok {
		return 0, 0, fmt.Errorf("heatmap %s: %w", h.name, ErrNoData)
	}
	return lo, hi, nil
}

func (h *heatmap) Draw() ([]byte, error) {
	m := h.m
	if m == nil || m.Rows.Len() == 0 || m.Cols.Len() == 0 {
		return nil, fmt.Errorf("heatmap %s: %w", h.name, ErrNoData)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	lo, hi, err := h.scale()
	if err != nil {
		return nil, err
	}
	c, err := newCanvas(h.style.Size)
	if err != nil {
		return nil, fmt.Errorf("heatmap %s: %w", h.name, err)
	}

	rows, cols := m.Rows.Len(), m.Cols.Len()
	pad := c.px(6)
	tickGap := c.px(3)
	xRot := -h.style.XLabelRotation

	titleH := c.measure(h.style.Title, titlePt).Height()
	rowLabelW := 0
	for i := 0; i < rows; i++ {
		rowLabelW = max(rowLabelW, c.measure(m.Rows.Label(i), tickPt).Width())
	}
	colLabelH := 0
	for j := 0; j < cols; j++ {
		style := c.textStyle(tickPt, darkText)
		style.TextRotationDegrees = xRot
		colLabelH = max(colLabelH, chart.Draw.MeasureText(c.r, m.Cols.Label(j), style).Height())
		c.r.ResetStyle()
	}
	yLabelH := c.measure(h.style.YLabel, labelPt).Height()
	xLabelH := c.measure(h.style.XLabel, labelPt).Height()

	ticks, step := colorbarTicks(lo, hi)
	tickLabelW := 0
	for _, v := range ticks {
		tickLabelW = max(tickLabelW, c.measure(formatTick(v, step), tickPt).Width())
	}
	cbLabelH := c.measure(h.style.ColorbarLabel, labelPt).Height()
	cbGap, cbW := c.px(14), c.px(10)

	area := chart.Box{
		Top:    pad + titleH + pad,
		Left:   pad + yLabelH + pad + rowLabelW + tickGap,
		Right:  c.width - (cbGap + cbW + tickGap + tickLabelW + pad + cbLabelH + pad),
		Bottom: c.height - (tickGap + colLabelH + pad + xLabelH + pad),
	}
	// Box.Width and Box.Height are absolute, so an inverted box must be caught on the raw edges
	if area.Right-area.Left < cols || area.Bottom-area.Top < rows {
		return nil, fmt.Errorf("heatmap %s: %dx%d cells do not fit in %dx%d px", h.name, rows, cols, c.width, c.height)
	}

	norm := func(v float64) float64 { return (v - lo) / (hi - lo) }
	if hi == lo {
		norm = func(float64) float64 { return 0.5 }
	}
	xAt := func(j int) int { return area.Left + j*area.Width()/cols }
	yAt := func(i int) int { return area.Top + i*area.Height()/rows }

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			cell := m.At(i, j)
			if !cell.Valid {
				continue
			}
			box := chart.Box{Top: yAt(i), Left: xAt(j), Right: xAt(j + 1), Bottom: yAt(i + 1)}
			fill := Coolwarm(norm(cell.Value))
			c.fillRect(box, fill)
			if h.style.Annotate {
				cx, cy := box.Center()
				c.textAt(fmt.Sprintf(h.style.Format, cell.Value), cx, cy, annotPt, textColorFor(fill), 0)
			}
		}
	}

	// Row labels, thinned when they would overlap.
	labelH := c.measure("0", tickPt).Height()
	every := 1
	cellH := float64(area.Height()) / float64(rows)
	for float64(every)*cellH < float64(labelH)*1.4 {
		every++
	}
	for i := 0; i < rows; i += every {
		c.textRight(m.Rows.Label(i), area.Left-tickGap, (yAt(i)+yAt(i+1))/2, tickPt, darkText)
	}
	for j := 0; j < cols; j++ {
		cx := (xAt(j) + xAt(j+1)) / 2
		c.textAt(m.Cols.Label(j), cx, area.Bottom+tickGap+colLabelH/2, tickPt, darkText, xRot)
	}

	cx, cy := area.Center()
	c.textAt(h.style.Title, cx, pad+titleH/2, titlePt, darkText, 0)
	c.textAt(h.style.XLabel, cx, c.height-pad-xLabelH/2, labelPt, darkText, 0)
	c.textAt(h.style.YLabel, pad+yLabelH/2, cy, labelPt, darkText, 270)

	h.drawColorbar(c, area, cbGap, cbW, lo, hi, ticks, step, tickLabelW, cbLabelH)
	return c.png()
}

func (h *heatmap) drawColorbar(c *canvas, area chart.Box, gap, width int, lo, hi float64, ticks []float64, step float64, tickLabelW, labelH int) {
	bar := chart.Box{Top: area.Top, Left: area.Right + gap, Right: area.Right + gap + width, Bottom: area.Bottom}
	height := bar.Height()
	for y := bar.Top; y < bar.Bottom; y++ {
		t := (float64(bar.Bottom-y) - 0.5) / float64(height)
		c.fillRect(chart.Box{Top: y, Left: bar.Left, Right: bar.Right, Bottom: y + 1}, Coolwarm(t))
	}

	tickLen := c.px(3)
	for _, v := range ticks {
		y := bar.Bottom
		if hi > lo {
			y = bar.Bottom - int(math.Round((v-lo)/(hi-lo)*float64(height)))
		}
		c.line(bar.Right, y, bar.Right+tickLen, y, darkText, c.pxf(0.8))
		c.textLeft(formatTick(v, step), bar.Right+tickLen+c.px(1), y, tickPt, darkText)
	}

	_, cy := bar.Center()
	lx := bar.Right + tickLen + c.px(1) + tickLabelW + c.px(6) + labelH/2
	c.textAt(h.style.ColorbarLabel, lx, cy, labelPt, darkText, 270)
}
