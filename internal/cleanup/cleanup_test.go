package cleanup

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
)

func TestCleanDatasetImputesMedian(t *testing.T) {
	ds := dataset.Dataset{ID: "c", Type: dataset.TypeCore, Data: []dataset.Record{
		{"porosity": dataset.Num(0.1), "note": dataset.Str("a")},
		{"porosity": dataset.Null(), "note": dataset.Str("")},
		{"porosity": dataset.Num(0.3)},
		{"porosity": dataset.Num(math.NaN())},
		{"porosity": dataset.Num(0.2)},
	}}

	out, rep := CleanDataset(ds)

	// valid values 0.1 0.3 0.2 -> sorted index 1
	require.Contains(t, rep.Fills, "porosity")
	assert.Equal(t, 0.2, rep.Fills["porosity"].Median)
	assert.InDelta(t, 0.2, rep.Fills["porosity"].Mean, 1e-12)
	require.Len(t, rep.Imputations, 2)
	assert.Equal(t, Imputation{Column: "porosity", Row: 1, Value: 0.2}, rep.Imputations[0])
	assert.Equal(t, 3, rep.Imputations[1].Row)

	for i, r := range out.Data {
		f, ok := r.Get("porosity").Float()
		require.True(t, ok, "row %d", i)
		assert.False(t, math.IsNaN(f))
	}
	// empty strings are left for the quality report
	s, _ := out.Data[1].Get("note").Text()
	assert.Equal(t, "", s)

	assert.True(t, ds.Data[1].Get("porosity").IsNull(), "input must not change")
}

func TestCleanDatasetSkipsColumnsWithoutValues(t *testing.T) {
	ds := dataset.Dataset{Data: []dataset.Record{
		{"x": dataset.Num(math.NaN())},
		{"x": dataset.Null()},
	}}
	out, rep := CleanDataset(ds)
	assert.Empty(t, rep.Fills)
	assert.Empty(t, rep.Imputations)
	assert.True(t, out.Data[1].Get("x").IsNull())
}

func TestCleanDatasetEmpty(t *testing.T) {
	out, rep := CleanDataset(dataset.Dataset{ID: "e"})
	assert.Empty(t, out.Data)
	assert.Empty(t, rep.Imputations)
}

func TestDeduplicateIgnoresIDAndKeepsFirst(t *testing.T) {
	ds := dataset.Dataset{Data: []dataset.Record{
		{"id": dataset.Str("1"), "depth": dataset.Num(10), "well": dataset.Str("A")},
		{"id": dataset.Str("2"), "depth": dataset.Num(20), "well": dataset.Str("A")},
		{"id": dataset.Str("3"), "well": dataset.Str("A"), "depth": dataset.Num(10)},
		{"id": dataset.Str("4"), "depth": dataset.Num(30)},
	}}

	out := DeduplicateDataset(ds)
	require.Len(t, out.Data, 3)
	assert.Equal(t, "1", out.Data[0].Get("id").String())
	assert.Equal(t, "2", out.Data[1].Get("id").String())
	assert.Equal(t, "4", out.Data[2].Get("id").String())

	again := DeduplicateDataset(out)
	assert.Equal(t, out.Data, again.Data)
	assert.Len(t, ds.Data, 4)
}

func TestSignature(t *testing.T) {
	a := dataset.Record{"id": dataset.Num(1), "b": dataset.Num(2), "a": dataset.Str("x")}
	b := dataset.Record{"a": dataset.Str("x"), "b": dataset.Num(2), "id": dataset.Num(9)}
	assert.Equal(t, Signature(a), Signature(b))
	assert.Equal(t, `[["a","x"],["b",2]]`, Signature(a))

	c := dataset.Record{"a": dataset.Str("2")}
	d := dataset.Record{"a": dataset.Num(2)}
	assert.NotEqual(t, Signature(c), Signature(d))
}
