package plot

import (
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// coolwarm anchors, blue through neutral grey to red.
var coolwarmStops = []drawing.Color{
	{R: 59, G: 76, B: 192, A: 255},
	{R: 124, G: 159, B: 249, A: 255},
	{R: 221, G: 220, B: 220, A: 255},
	{R: 244, G: 154, B: 123, A: 255},
	{R: 180, G: 4, B: 38, A: 255},
}

// Coolwarm maps t in [0, 1] onto the diverging palette. Values outside are clamped.
func Coolwarm(t float64) drawing.Color {
	if math.IsNaN(t) || t <= 0 {
		return coolwarmStops[0]
	}
	if t >= 1 {
		return coolwarmStops[len(coolwarmStops)-1]
	}
	pos := t * float64(len(coolwarmStops)-1)
	i := int(math.Floor(pos))
	frac := pos - float64(i)
	a, b := coolwarmStops[i], coolwarmStops[i+1]
	return drawing.Color{
		R: lerp(a.R, b.R, frac),
		G: lerp(a.G, b.G, frac),
		B: lerp(a.B, b.B, frac),
		A: 255,
	}
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// seaborn "deep"
var categorical = []drawing.Color{
	{R: 76, G: 114, B: 176, A: 255},
	{R: 221, G: 132, B: 82, A: 255},
	{R: 85, G: 168, B: 104, A: 255},
	{R: 196, G: 78, B: 82, A: 255},
	{R: 129, G: 114, B: 179, A: 255},
	{R: 147, G: 120, B: 96, A: 255},
	{R: 218, G: 139, B: 195, A: 255},
	{R: 140, G: 140, B: 140, A: 255},
	{R: 204, G: 185, B: 116, A: 255},
	{R: 100, G: 181, B: 205, A: 255},
}

// HueColor returns the i-th categorical colour, cycling after ten.
func HueColor(i int) drawing.Color {
	return categorical[i%len(categorical)]
}

var (
	darkText  = drawing.Color{R: 38, G: 38, B: 38, A: 255}
	lightText = drawing.ColorWhite
	frameGrey = drawing.Color{R: 204, G: 204, B: 204, A: 255}
)

// textColorFor picks dark text on light cells and white text on dark ones.
func textColorFor(bg drawing.Color) drawing.Color {
	if relativeLuminance(bg) > 0.408 {
		return darkText
	}
	return lightText
}

func relativeLuminance(c drawing.Color) float64 {
	channel := func(v uint8) float64 {
		f := float64(v) / 255
		if f <= 0.03928 {
			return f / 12.92
		}
		return math.Pow((f+0.055)/1.055, 2.4)
	}
	return 0.2126*channel(c.R) + 0.7152*channel(c.G) + 0.0722*channel(c.B)
}
