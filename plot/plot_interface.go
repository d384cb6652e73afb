package plot

import (
	"errors"
	"math"
)

// Drawer renders one chart to PNG bytes.
type Drawer interface {
	Name() string
	Draw() ([]byte, error)
}

var ErrNoData = errors.New("nothing to draw")

// Size is a figure size in inches at a given resolution.
type Size struct {
	Width  float64
	Height float64
	DPI    float64
}

// Pixels returns the image dimensions.
func (s Size) Pixels() (width, height int) {
	return int(math.Round(s.Width * s.DPI)), int(math.Round(s.Height * s.DPI))
}
