// Package stats holds the column statistics behind normalization, cleanup and
// quality checks. Inputs are numeric values already extracted from one column;
// nothing is cached between calls.
package stats

import (
	"math"
	"sort"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
)

// Mean returns the arithmetic mean, or NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance is the population variance around mean (denominator n).
func Variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	acc := 0.0
	for _, v := range values {
		d := v - mean
		acc += d * d
	}
	return acc / float64(len(values))
}

// StdDev is the population standard deviation.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values, Mean(values)))
}

// Sorted returns an ascending copy of values.
func Sorted(values []float64) []float64 {
	cp := make([]float64, len(values))
	copy(cp, values)
	sort.Float64s(cp)
	return cp
}

// Median returns the element at floor(n/2) of the ascending sort. For even n
// that is the upper of the two middle values, not their average.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	s := Sorted(values)
	return s[len(s)/2]
}

// Quartiles returns nearest-rank Q1 and Q3: sorted[floor(n*0.25)] and
// sorted[floor(n*0.75)], no interpolation.
func Quartiles(values []float64) (q1, q3 float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	s := Sorted(values)
	n := float64(len(s))
	return s[int(math.Floor(n*0.25))], s[int(math.Floor(n*0.75))]
}

// MinMax returns the smallest and largest value.
func MinMax(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Rank is the fraction of values less than or equal to x.
func Rank(values []float64, x float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	n := 0
	for _, v := range values {
		if v <= x {
			n++
		}
	}
	return float64(n) / float64(len(values))
}

// Summary bundles the statistics of one column.
type Summary struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
	Median float64
	Q1     float64
	Q3     float64
}

// IQR is the interquartile range Q3 - Q1.
func (s Summary) IQR() float64 { return s.Q3 - s.Q1 }

// Summarize computes every statistic of values. Sums run in input order so the
// mean matches a straight left-to-right accumulation. The zero Summary is
// returned for empty input.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Sorted(values)
	n := len(s)
	mean := Mean(values)
	return Summary{
		Count:  n,
		Mean:   mean,
		Std:    math.Sqrt(Variance(values, mean)),
		Min:    s[0],
		Max:    s[n-1],
		Median: s[n/2],
		Q1:     s[int(math.Floor(float64(n)*0.25))],
		Q3:     s[int(math.Floor(float64(n)*0.75))],
	}
}

// ColumnValues collects the numeric values of column across data, skipping
// rows where the column is absent, null, a string or NaN.
func ColumnValues(data []dataset.Record, column string) []float64 {
	out := make([]float64, 0, len(data))
	for _, r := range data {
		f, ok := r.Get(column).Float()
		if !ok || math.IsNaN(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}
