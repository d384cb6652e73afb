package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Cell is one matrix value. Valid=false means no contributing rows (or a null source value).
type Cell struct {
	Value float64
	Valid bool
}

// NullCell is the explicit "no data" cell.
var NullCell = Cell{}

// NewCell returns a valid cell, or a null one when v is NaN or infinite.
func NewCell(v float64) Cell {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NullCell
	}
	return Cell{Value: v, Valid: true}
}

// Axis is an ordered list of categorical keys with their display labels.
type Axis struct {
	Name   string
	Keys   []string
	Labels []string
}

// NewAxis builds an axis whose labels equal its keys.
func NewAxis(name string, keys []string) Axis {
	labels := make([]string, len(keys))
	copy(labels, keys)
	return Axis{Name: name, Keys: keys, Labels: labels}
}

var monthAbbrev = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthAxis is the fixed calendar axis with keys "1".."12".
// Labels are month abbreviations when abbrev is set, otherwise the numbers themselves.
func MonthAxis(name string, abbrev bool) Axis {
	keys := make([]string, 12)
	labels := make([]string, 12)
	for i := 0; i < 12; i++ {
		keys[i] = strconv.Itoa(i + 1)
		labels[i] = keys[i]
		if abbrev {
			labels[i] = monthAbbrev[i]
		}
	}
	return Axis{Name: name, Keys: keys, Labels: labels}
}

// MonthNumber maps a month abbreviation or full name (any case) to 1..12.
func MonthNumber(name string) (int, bool) {
	if len(name) < 3 {
		return 0, false
	}
	prefix := name[:3]
	for i, m := range monthAbbrev {
		if strings.EqualFold(prefix, m) {
			return i + 1, true
		}
	}
	return 0, false
}

func (a Axis) Len() int {
	return len(a.Keys)
}

// Index returns the position of key on the axis.
func (a Axis) Index(key string) (int, bool) {
	for i, k := range a.Keys {
		if k == key {
			return i, true
		}
	}
	return -1, false
}

// Label returns the display label at i, falling back to the key.
func (a Axis) Label(i int) string {
	if i < len(a.Labels) && a.Labels[i] != "" {
		return a.Labels[i]
	}
	return a.Keys[i]
}

// Matrix is a dense Rows x Cols grid. Every (row, col) pair has exactly one cell.
type Matrix struct {
	Name  string
	Rows  Axis
	Cols  Axis
	Cells [][]Cell
}

// NewMatrix allocates a matrix with every cell null.
func NewMatrix(name string, rows, cols Axis) *Matrix {
	cells := make([][]Cell, rows.Len())
	for i := range cells {
		cells[i] = make([]Cell, cols.Len())
	}
	return &Matrix{Name: name, Rows: rows, Cols: cols, Cells: cells}
}

func (m *Matrix) At(row, col int) Cell {
	return m.Cells[row][col]
}

func (m *Matrix) Set(row, col int, c Cell) {
	m.Cells[row][col] = c
}

// Range returns the min and max of the valid cells; ok is false when every cell is null.
func (m *Matrix) Range() (min, max float64, ok bool) {
	for _, row := range m.Cells {
		for _, c := range row {
			if !c.Valid {
				continue
			}
			if !ok {
				min, max, ok = c.Value, c.Value, true
				continue
			}
			if c.Value < min {
				min = c.Value
			}
			if c.Value > max {
				max = c.Value
			}
		}
	}
	return min, max, ok
}

func (m *Matrix) NullCount() int {
	n := 0
	for _, row := range m.Cells {
		for _, c := range row {
			if !c.Valid {
				n++
			}
		}
	}
	return n
}

// Validate checks the shape invariant and that no NaN leaked into a valid cell.
func (m *Matrix) Validate() error {
	if len(m.Cells) != m.Rows.Len() {
		return fmt.Errorf("matrix %s: %d rows, axis has %d", m.Name, len(m.Cells), m.Rows.Len())
	}
	for i, row := range m.Cells {
		if len(row) != m.Cols.Len() {
			return fmt.Errorf("matrix %s: row %s has %d cells, axis has %d", m.Name, m.Rows.Keys[i], len(row), m.Cols.Len())
		}
		for j, c := range row {
			if c.Valid && (math.IsNaN(c.Value) || math.IsInf(c.Value, 0)) {
				return fmt.Errorf("matrix %s: non-finite value at %s x %s", m.Name, m.Rows.Keys[i], m.Cols.Keys[j])
			}
		}
	}
	return nil
}

// ScatterPoint is one observation of the scatter chart.
type ScatterPoint struct {
	X, Y float64
	Hue  string
	Size float64
	// Trace marks a size recorded as "too small to measure"; SizeMissing marks no record at all.
	// Both are plotted with Size == 0.
	Trace       bool
	SizeMissing bool
}

// ScatterSet holds the points and the hue order (first appearance).
type ScatterSet struct {
	Points []ScatterPoint
	Hues   []string
}

// ByHue returns the points of one hue in input order.
func (s ScatterSet) ByHue(hue string) []ScatterPoint {
	var out []ScatterPoint
	for _, p := range s.Points {
		if p.Hue == hue {
			out = append(out, p)
		}
	}
	return out
}

// Point is one dated value of a series.
type Point struct {
	Date  time.Time
	Value Cell
}

// Series is a date-ordered sequence of points.
type Series struct {
	Key    string
	Points []Point
}

// Segments splits the series into runs of consecutive valid monthly points.
// A null point or a skipped month ends the current run.
func (s Series) Segments() [][]Point {
	var segments [][]Point
	var current []Point
	for _, p := range s.Points {
		if !p.Value.Valid {
			if len(current) > 0 {
				segments = append(segments, current)
				current = nil
			}
			continue
		}
		if len(current) > 0 {
			prev := current[len(current)-1].Date
			if p.Date.After(prev.AddDate(0, 1, 0)) {
				segments = append(segments, current)
				current = nil
			}
		}
		current = append(current, p)
	}
	if len(current) > 0 {
		segments = append(segments, current)
	}
	return segments
}

// SeriesCollection maps a categorical key to its series. Keys are kept sorted.
type SeriesCollection struct {
	Keys   []string
	Series map[string]Series
}

// Figure describes one rendered chart.
type Figure struct {
	Name      string
	Path      string
	Rows      int
	Cols      int
	NullCells int
	Duration  time.Duration
}
