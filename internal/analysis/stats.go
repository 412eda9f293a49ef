package analysis

import (
	"math"
	"sort"
)

// Stats is the descriptive-statistics summary used throughout the
// analysis. A Count of 0 means "no data": every other field is exactly 0
// by convention, never NaN. Callers must check Count before reading the
// rest; a zero mean is otherwise ambiguous.
type Stats struct {
	Mean   float64
	Median float64
	Stdev  float64
	Min    float64
	Max    float64
	Count  int
}

// Summarize computes Stats over the given values. It never fails: an
// empty slice yields the zero Stats.
func Summarize(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	min, max := values[0], values[0]
	sum := 0.0
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(len(values))

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var median float64
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		median = sorted[mid]
	}

	// Sample standard deviation; a single sample has no spread.
	stdev := 0.0
	if len(values) > 1 {
		ss := 0.0
		for _, v := range values {
			d := v - mean
			ss += d * d
		}
		stdev = math.Sqrt(ss / float64(len(values)-1))
	}

	return Stats{
		Mean:   mean,
		Median: median,
		Stdev:  stdev,
		Min:    min,
		Max:    max,
		Count:  len(values),
	}
}
