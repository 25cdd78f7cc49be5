package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/stats"
)

func column(data []dataset.Record, col string) []float64 {
	out := make([]float64, 0, len(data))
	for _, r := range data {
		f, _ := r.Get(col).Float()
		out = append(out, f)
	}
	return out
}

func records(col string, values ...float64) []dataset.Record {
	out := make([]dataset.Record, len(values))
	for i, v := range values {
		out[i] = dataset.Record{col: dataset.Num(v)}
	}
	return out
}

func TestZScoreHasZeroMeanUnitStd(t *testing.T) {
	data := records("x", 3, 7, 7, 19, 24, 1, 12)
	got := column(Normalize(data, dataset.MethodZScore), "x")

	assert.InDelta(t, 0, stats.Mean(got), 1e-5)
	assert.InDelta(t, 1, stats.StdDev(got), 1e-5)
}

func TestMinMaxBounds(t *testing.T) {
	data := records("x", 40, 10, 25, 70, 55)
	got := column(Normalize(data, dataset.MethodMinMax), "x")

	for _, v := range got {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.Equal(t, 0.0, got[1], "minimum maps to 0")
	assert.Equal(t, 1.0, got[3], "maximum maps to 1")
	assert.Equal(t, 0.25, got[2])
}

func TestRobustUsesUpperMedianAndNearestRankIQR(t *testing.T) {
	// sorted: 1 2 3 4 -> median 3, Q1 2, Q3 4, IQR 2
	data := records("x", 1, 2, 3, 4)
	got := column(Normalize(data, dataset.MethodRobust), "x")
	assert.Equal(t, []float64{-1, -0.5, 0, 0.5}, got)
}

func TestQuantileRanks(t *testing.T) {
	data := records("x", 30, 10, 20, 20)
	got := column(Normalize(data, dataset.MethodQuantile), "x")
	assert.Equal(t, []float64{1, 0.25, 0.75, 0.75}, got)
}

func TestConstantColumn(t *testing.T) {
	data := records("x", 5, 5, 5)
	for _, m := range []dataset.Method{dataset.MethodZScore, dataset.MethodMinMax, dataset.MethodRobust} {
		t.Run(string(m), func(t *testing.T) {
			assert.Equal(t, []float64{0, 0, 0}, column(Normalize(data, m), "x"))
		})
	}
	t.Run("quantile ranks every value at 1", func(t *testing.T) {
		assert.Equal(t, []float64{1, 1, 1}, column(Normalize(data, dataset.MethodQuantile), "x"))
	})
}

func TestRoundsToSixDecimals(t *testing.T) {
	data := records("x", 0, 1, 2)
	got := column(Normalize(data, dataset.MethodQuantile), "x")
	assert.Equal(t, []float64{0.333333, 0.666667, 1}, got)

	assert.Equal(t, 0.0, Round(-1e-9))
	assert.False(t, math.Signbit(Round(-1e-9)))
	assert.Equal(t, -0.5, Round(-0.4999996))
}

func TestRoundMatchesToFixed(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		// stored just below the tie
		{5e-7, 0},
		{0.1234565, 0.123456},
		{1.0000015, 1.000001},
		// 2^-7 is an exact tie at six decimals
		{0.0078125, 0.007813},
		{-0.0078125, -0.007813},
		{0.1234564, 0.123456},
		{2.5, 2.5},
		{-3.0000004, -3},
		{123456.7891236, 123456.789124},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.in), "Round(%v)", tt.in)
	}
	assert.True(t, math.IsNaN(Round(math.NaN())))
	assert.True(t, math.IsInf(Round(math.Inf(-1)), -1))
}

func TestEmptyInputReturnedUnchanged(t *testing.T) {
	assert.Empty(t, Normalize([]dataset.Record{}, dataset.MethodZScore))
	assert.Nil(t, Normalize(nil, dataset.MethodZScore))

	ds := dataset.Dataset{ID: "d", Type: dataset.TypeCore}
	out := NormalizeDataset(ds, dataset.MethodMinMax)
	assert.False(t, out.Normalized)
	assert.Empty(t, out.NormalizationMethod)
}

func TestSchemaComesFromFirstRecordOnly(t *testing.T) {
	data := []dataset.Record{
		{"a": dataset.Num(1), "b": dataset.Str("x")},
		{"a": dataset.Num(3), "b": dataset.Num(10)},
		{"a": dataset.Num(5), "b": dataset.Num(20)},
	}
	out := Normalize(data, dataset.MethodMinMax)

	assert.Equal(t, []float64{0, 0.5, 1}, column(out, "a"))
	// b is a string in record 0, so it is never normalized
	b, _ := out[1].Get("b").Float()
	assert.Equal(t, 10.0, b)
	s, ok := out[0].Get("b").Text()
	require.True(t, ok)
	assert.Equal(t, "x", s)
}

func TestNonNumericCellsKeepTheirValue(t *testing.T) {
	data := []dataset.Record{
		{"depth": dataset.Num(100), "well": dataset.Str("A-1")},
		{"depth": dataset.Null(), "well": dataset.Str("A-2")},
		{"depth": dataset.Num(300), "well": dataset.Str("A-3")},
	}
	out := Normalize(data, dataset.MethodMinMax)

	assert.True(t, out[1].Get("depth").IsNull())
	assert.Equal(t, []float64{0, 0, 1}, column(out, "depth"))
	w, _ := out[2].Get("well").Text()
	assert.Equal(t, "A-3", w)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	data := records("x", 1, 2, 3)
	_ = Normalize(data, dataset.MethodZScore)
	assert.Equal(t, []float64{1, 2, 3}, column(data, "x"))
}

func TestNormalizeDatasetFlags(t *testing.T) {
	ds := dataset.Dataset{ID: "p1", Name: "prod.csv", Type: dataset.TypeProduction, Data: records("pressure", 2000, 2200, 1800)}
	out := NormalizeDataset(ds, dataset.MethodZScore)

	assert.True(t, out.Normalized)
	assert.Equal(t, dataset.MethodZScore, out.NormalizationMethod)
	assert.False(t, ds.Normalized)
	assert.Equal(t, []float64{0, 1.224745, -1.224745}, column(out.Data, "pressure"))
}

func TestDescribe(t *testing.T) {
	for _, m := range dataset.Methods {
		info := Describe(m)
		assert.Equal(t, m, info.Method)
		assert.NotEmpty(t, info.Formula)
	}
	assert.Equal(t, "(x - μ) / σ", Describe(dataset.MethodZScore).Formula)
}
