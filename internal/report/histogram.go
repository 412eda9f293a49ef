package report

import (
	"fmt"
	"strings"
)

// Default histogram geometry.
const (
	DefaultBins  = 10
	DefaultWidth = 50
)

// Histogram renders values as an ASCII bar chart with the given number of
// bins and a maximum bar width in characters.
func Histogram(values []float64, bins, width int) string {
	if len(values) == 0 {
		return "No data"
	}
	if bins <= 0 {
		bins = DefaultBins
	}
	if width <= 0 {
		width = DefaultWidth
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if min == max {
		return fmt.Sprintf("All values equal: %.2f", min)
	}

	binWidth := (max - min) / float64(bins)
	counts := make([]int, bins)
	for _, v := range values {
		idx := int((v - min) / binWidth)
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	var lines []string
	for i, count := range counts {
		binStart := min + float64(i)*binWidth
		binEnd := binStart + binWidth
		barLen := 0
		if maxCount > 0 {
			barLen = int(float64(count) / float64(maxCount) * float64(width))
		}
		bar := strings.Repeat("█", barLen)
		lines = append(lines, fmt.Sprintf("  %8.2f - %8.2f | %s (%d)", binStart, binEnd, bar, count))
	}
	return strings.Join(lines, "\n")
}
