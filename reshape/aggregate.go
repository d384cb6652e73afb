package reshape

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// AggFunc reduces the non-null values of a group. ok=false means the group has no value.
type AggFunc func(values []float64) (float64, bool)

func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

func Sum(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum, true
}

func Min(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	m := values[0]
	for _, v := range values[1:] {
		m = math.Min(m, v)
	}
	return m, true
}

func Max(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	m := values[0]
	for _, v := range values[1:] {
		m = math.Max(m, v)
	}
	return m, true
}

// Count is never null: an empty group counts 0.
func Count(values []float64) (float64, bool) {
	return float64(len(values)), true
}

func Median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Quantile(sorted, 0.5), true
}

// Quantile returns the p-quantile of sorted values using linear interpolation between closest ranks.
func Quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := p * float64(len(sorted)-1)
	floor := math.Floor(pos)
	ceil := math.Ceil(pos)
	if floor == ceil {
		return sorted[int(pos)]
	}
	lower := sorted[int(floor)]
	upper := sorted[int(ceil)]
	return lower + (pos-floor)*(upper-lower)
}

var ErrUnknownAggregation = errors.New("unknown aggregation")

// AggregationByName resolves "mean", "sum", "min", "max", "count" or "median". Empty means mean.
func AggregationByName(name string) (AggFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "mean", "avg":
		return Mean, nil
	case "sum":
		return Sum, nil
	case "min":
		return Min, nil
	case "max":
		return Max, nil
	case "count":
		return Count, nil
	case "median":
		return Median, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAggregation, name)
}
