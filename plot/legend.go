package plot

import (
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

type legendEntry struct {
	Label string
	Color drawing.Color
	Edge  drawing.Color
	// Radius is the marker radius in pixels. Line entries draw a short stroke instead.
	Radius float64
	Line   bool
}

type legend struct {
	Title   string
	Entries []legendEntry
}

type legendLayout struct {
	pad, gap, swatch int
	titleH           int
	rowH             []int
	width, height    int
}

func (l legend) layout(c *canvas) legendLayout {
	lay := legendLayout{pad: c.px(4), gap: c.px(3), swatch: c.px(16)}
	titleBox := c.measure(l.Title, labelPt)
	lay.titleH = titleBox.Height()
	contentW := titleBox.Width()
	for _, e := range l.Entries {
		lay.swatch = max(lay.swatch, int(2*e.Radius)+c.px(2))
	}
	textH := c.measure("Ag", legendPt).Height()
	lay.height = lay.pad + lay.titleH
	for _, e := range l.Entries {
		b := c.measure(e.Label, legendPt)
		contentW = max(contentW, lay.swatch+c.px(5)+b.Width())
		h := max(textH, int(2*e.Radius))
		lay.rowH = append(lay.rowH, h)
		lay.height += lay.gap + h
	}
	lay.height += lay.pad
	lay.width = lay.pad + contentW + lay.pad
	return lay
}

// draw places the legend with its top-left corner at (left, top).
func (l legend) draw(c *canvas, left, top int) {
	lay := l.layout(c)
	frame := chart.Box{Top: top, Left: left, Right: left + lay.width, Bottom: top + lay.height}
	c.fillRect(frame, drawing.ColorWhite)
	c.strokeRect(frame, frameGrey, c.pxf(0.8))

	c.textAt(l.Title, left+lay.width/2, top+lay.pad+lay.titleH/2, labelPt, darkText, 0)
	y := top + lay.pad + lay.titleH
	for i, e := range l.Entries {
		y += lay.gap
		cy := y + lay.rowH[i]/2
		sx := left + lay.pad + lay.swatch/2
		if e.Line {
			c.line(left+lay.pad, cy, left+lay.pad+lay.swatch, cy, e.Color, c.pxf(1.5))
		} else {
			c.circle(sx, cy, e.Radius, e.Color, e.Edge, c.pxf(0.5))
		}
		c.textLeft(e.Label, left+lay.pad+lay.swatch+c.px(5), cy, legendPt, darkText)
		y += lay.rowH[i]
	}
}
