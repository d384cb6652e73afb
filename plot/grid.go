package plot

import (
	"math"
	"strconv"
)

// calculateGridStep picks a round tick step (1, 2 or 5 times a power of ten) for a span.
func calculateGridStep(span float64) float64 {
	if span <= 0 {
		return 0
	}
	if span < 1e-10 {
		return 1e-10
	}

	magnitude := math.Pow(10, math.Floor(math.Log10(span)))
	normalized := span / magnitude

	var step float64
	switch {
	case normalized <= 1:
		step = 0.2
	case normalized <= 2:
		step = 0.5
	case normalized <= 5:
		step = 1.0
	default:
		step = 2.0
	}

	finalStep := step * magnitude
	if finalStep >= 1000 {
		return math.Round(finalStep/100) * 100
	}
	if finalStep >= 100 {
		return math.Round(finalStep/10) * 10
	}
	return finalStep
}

// colorbarTicks returns the round values inside [lo, hi].
func colorbarTicks(lo, hi float64) (ticks []float64, step float64) {
	if hi <= lo {
		return []float64{lo}, 0
	}
	step = calculateGridStep(hi - lo)
	start := math.Ceil(lo/step) * step
	for i := 0; ; i++ {
		v := start + float64(i)*step
		if v > hi+step*1e-9 {
			break
		}
		ticks = append(ticks, v)
	}
	return ticks, step
}

func formatTick(v, step float64) string {
	decimals := 0
	if step > 0 && step < 1 {
		decimals = int(math.Ceil(-math.Log10(step) - 1e-9))
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == 0 {
		return strconv.FormatFloat(0, 'f', decimals, 64)
	}
	return s
}

// paddedRange widens [lo, hi] by frac of the span, or by one unit when the span is zero.
func paddedRange(lo, hi, frac float64) (float64, float64) {
	if hi <= lo {
		return lo - 1, hi + 1
	}
	pad := (hi - lo) * frac
	return lo - pad, hi + pad
}
