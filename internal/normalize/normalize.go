// Package normalize rescales the numeric columns of a dataset with one of four
// per-column transforms. It is synchronous and never mutates its input.
package normalize

import (
	"math"
	"math/big"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/stats"
)

// Precision is the number of decimals kept on every transformed value.
const Precision = 6

// Info describes a method for help text and reports.
type Info struct {
	Method      dataset.Method
	Label       string
	Description string
	Formula     string
}

var infos = map[dataset.Method]Info{
	dataset.MethodZScore: {
		Method: dataset.MethodZScore, Label: "Z-Score",
		Description: "Standardizes data to have mean=0 and std=1",
		Formula:     "(x - μ) / σ",
	},
	dataset.MethodMinMax: {
		Method: dataset.MethodMinMax, Label: "Min-Max",
		Description: "Scales data to range [0, 1]",
		Formula:     "(x - min) / (max - min)",
	},
	dataset.MethodRobust: {
		Method: dataset.MethodRobust, Label: "Robust (IQR)",
		Description: "Uses median and IQR for outlier resistance",
		Formula:     "(x - median) / IQR",
	},
	dataset.MethodQuantile: {
		Method: dataset.MethodQuantile, Label: "Quantile",
		Description: "Maps each value to its empirical rank",
		Formula:     "rank(x) / n",
	},
}

// Describe returns the label and formula of m. Unknown methods yield a zero Info.
func Describe(m dataset.Method) Info { return infos[m] }

// Normalize applies method to every numeric column of data and returns new
// records. Numeric columns come from record 0 (dataset.NumericColumns). Each
// column's statistics are computed once from all of its numeric values, then
// every numeric cell is rewritten and rounded to Precision decimals. Cells
// that are not numeric keep their original value. Empty input is returned
// as is.
func Normalize(data []dataset.Record, method dataset.Method) []dataset.Record {
	if len(data) == 0 {
		return data
	}
	out := dataset.CloneRecords(data)
	for _, col := range dataset.NumericColumns(data) {
		values := stats.ColumnValues(data, col)
		if len(values) == 0 {
			continue
		}
		f := transformer(method, values)
		if f == nil {
			return dataset.CloneRecords(data)
		}
		for i, r := range data {
			x, ok := r.Get(col).Float()
			if !ok || math.IsNaN(x) {
				continue
			}
			out[i][col] = dataset.Num(Round(f(x)))
		}
	}
	return out
}

// NormalizeDataset normalizes ds.Data and flags the result as normalized with
// method. Empty datasets come back unchanged and unflagged.
func NormalizeDataset(ds dataset.Dataset, method dataset.Method) dataset.Dataset {
	if len(ds.Data) == 0 {
		return ds
	}
	return ds.MarkNormalized(method, Normalize(ds.Data, method))
}

// transformer builds the per-value function of method for one column. The
// zero-spread cases of zscore, minmax and robust map to 0; quantile has no such
// case, so a constant column ranks every value at 1.
func transformer(method dataset.Method, values []float64) func(float64) float64 {
	switch method {
	case dataset.MethodZScore:
		mean := stats.Mean(values)
		std := math.Sqrt(stats.Variance(values, mean))
		return func(x float64) float64 {
			if std == 0 {
				return 0
			}
			return (x - mean) / std
		}
	case dataset.MethodMinMax:
		lo, hi := stats.MinMax(values)
		return func(x float64) float64 {
			if hi == lo {
				return 0
			}
			return (x - lo) / (hi - lo)
		}
	case dataset.MethodRobust:
		median := stats.Median(values)
		q1, q3 := stats.Quartiles(values)
		iqr := q3 - q1
		return func(x float64) float64 {
			if iqr == 0 {
				return 0
			}
			return (x - median) / iqr
		}
	case dataset.MethodQuantile:
		return func(x float64) float64 { return stats.Rank(values, x) }
	}
	return nil
}

// Round keeps Precision decimals the way toFixed does: the nearest decimal
// to the exact binary value, with exact ties going away from zero. Negative
// zero is folded into zero.
func Round(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(Precision), nil)
	r := new(big.Rat).SetFloat64(math.Abs(x))
	r.Mul(r, new(big.Rat).SetInt(scale))

	n, rem := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	// rem/denom >= 1/2
	if rem.Lsh(rem, 1).Cmp(r.Denom()) >= 0 {
		n.Add(n, big.NewInt(1))
	}
	if n.Sign() == 0 {
		return 0
	}
	out, _ := new(big.Rat).SetFrac(n, scale).Float64()
	if x < 0 {
		return -out
	}
	return out
}
