package analysis

import (
	"math"
	"reflect"
	"testing"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   Stats
	}{
		{
			name:   "Empty input yields zero stats",
			values: nil,
			want:   Stats{},
		},
		{
			name:   "Empty slice yields zero stats",
			values: []float64{},
			want:   Stats{},
		},
		{
			name:   "Single value has zero stdev",
			values: []float64{42},
			want:   Stats{Mean: 42, Median: 42, Stdev: 0, Min: 42, Max: 42, Count: 1},
		},
		{
			name:   "Even count averages the two middle values",
			values: []float64{4, 1, 3, 2},
			want: Stats{
				Mean:   2.5,
				Median: 2.5,
				Stdev:  math.Sqrt((2.25 + 0.25 + 0.25 + 2.25) / 3),
				Min:    1,
				Max:    4,
				Count:  4,
			},
		},
		{
			name:   "Odd count takes the middle value",
			values: []float64{10, 30, 20},
			want: Stats{
				Mean:   20,
				Median: 20,
				Stdev:  10,
				Min:    10,
				Max:    30,
				Count:  3,
			},
		},
		{
			name:   "All equal values",
			values: []float64{5, 5, 5, 5},
			want:   Stats{Mean: 5, Median: 5, Stdev: 0, Min: 5, Max: 5, Count: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.values)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSummarizeNeverNaN(t *testing.T) {
	inputs := [][]float64{nil, {}, {0}, {1}, {-1, 1}, {0, 0, 0}}
	for _, values := range inputs {
		got := Summarize(values)
		for name, f := range map[string]float64{
			"mean": got.Mean, "median": got.Median, "stdev": got.Stdev,
			"min": got.Min, "max": got.Max,
		} {
			if math.IsNaN(f) {
				t.Errorf("Summarize(%v) produced NaN %s", values, name)
			}
		}
	}
}

func TestSummarizeBounds(t *testing.T) {
	inputs := [][]float64{
		{1, 2, 3, 4, 5},
		{100, 0.5, 77.7},
		{-10, 10, 0},
		{3.14},
	}
	for _, values := range inputs {
		got := Summarize(values)
		if got.Mean < got.Min || got.Mean > got.Max {
			t.Errorf("Summarize(%v): mean %v outside [%v, %v]", values, got.Mean, got.Min, got.Max)
		}
		if got.Median < got.Min || got.Median > got.Max {
			t.Errorf("Summarize(%v): median %v outside [%v, %v]", values, got.Median, got.Min, got.Max)
		}
	}
}

func TestSummarizeOrderInsensitive(t *testing.T) {
	a := Summarize([]float64{3, 1, 2, 5, 4})
	b := Summarize([]float64{5, 4, 3, 2, 1})
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Summarize() order sensitive: %+v != %+v", a, b)
	}
}
