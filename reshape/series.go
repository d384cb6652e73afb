package reshape

import (
	"fmt"

	"github.com/pivolan/climate_charts/dataset"
	"github.com/pivolan/climate_charts/domain/models"
)

// ScatterPoints keeps one point per record with non-null x and y. Hues are ordered by first
// appearance. A null or trace size is plotted as 0 but flagged on the point.
func ScatterPoints(t *dataset.Table, xCol, yCol, hueCol, sizeCol string) (models.ScatterSet, error) {
	var set models.ScatterSet
	if err := requireColumns("scatter", t, xCol, yCol, hueCol, sizeCol); err != nil {
		return set, err
	}

	seen := make(map[string]bool)
	for _, rec := range t.Records {
		x, y, hue := rec[xCol], rec[yCol], rec[hueCol]
		if x.Null || y.Null || hue.Null {
			continue
		}
		if x.Kind != dataset.KindNumber || y.Kind != dataset.KindNumber {
			return set, fmt.Errorf("scatter: %w: %s/%s", ErrNotNumeric, xCol, yCol)
		}
		p := models.ScatterPoint{X: x.Num, Y: y.Num, Hue: hue.Key()}
		switch size := rec[sizeCol]; {
		case size.Null:
			p.SizeMissing = true
		case size.Trace:
			p.Trace = true
		case size.Kind != dataset.KindNumber:
			return set, fmt.Errorf("scatter: %w: %s", ErrNotNumeric, sizeCol)
		default:
			p.Size = size.Num
		}
		if !seen[p.Hue] {
			seen[p.Hue] = true
			set.Hues = append(set.Hues, p.Hue)
		}
		set.Points = append(set.Points, p)
	}
	if len(set.Points) == 0 {
		return set, &EmptyResultError{Op: "scatter", Detail: fmt.Sprintf("no rows with both %s and %s", xCol, yCol)}
	}
	return set, nil
}

// BuildSeries aggregates valueCol per (keyCol, dateCol) and returns one date-sorted series per key.
func BuildSeries(t *dataset.Table, keyCol, dateCol, valueCol string, agg AggFunc) (models.SeriesCollection, error) {
	coll := models.SeriesCollection{Series: make(map[string]models.Series)}
	long, err := GroupBy(t, []string{keyCol, dateCol}, valueCol, agg)
	if err != nil {
		return coll, err
	}

	valid := 0
	for _, rec := range long.Records {
		d := rec[dateCol]
		if d.Kind != dataset.KindDate {
			return coll, fmt.Errorf("series: %w: %s is not a date column", dataset.ErrInvalidValue, dateCol)
		}
		key := rec[keyCol].Key()
		s, ok := coll.Series[key]
		if !ok {
			s = models.Series{Key: key}
			coll.Keys = append(coll.Keys, key)
		}
		cell := models.NullCell
		if v := rec[valueCol]; !v.Null {
			cell = models.NewCell(v.Num)
			valid++
		}
		s.Points = append(s.Points, models.Point{Date: d.Time, Value: cell})
		coll.Series[key] = s
	}
	if valid == 0 {
		return coll, &EmptyResultError{Op: "series", Detail: fmt.Sprintf("every %s value is null", valueCol)}
	}
	return coll, nil
}
