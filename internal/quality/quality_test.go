package quality

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/errs"
)

func TestAssessEmpty(t *testing.T) {
	r := Assess(nil)
	assert.Equal(t, 0.0, r.Score)
	assert.NotNil(t, r.Issues)
	assert.Empty(t, r.Issues)
}

func TestAssessCleanDataScoresFull(t *testing.T) {
	data := []dataset.Record{
		{"id": dataset.Str("a"), "depth": dataset.Num(1)},
		{"id": dataset.Str("b"), "depth": dataset.Num(2)},
	}
	r := Assess(data)
	assert.Equal(t, 100.0, r.Score)
	assert.Empty(t, r.Issues)
}

func TestAssessMissingAndDuplicates(t *testing.T) {
	data := []dataset.Record{
		{"id": dataset.Num(1), "depth": dataset.Num(1000), "well": dataset.Str("")},
		{"id": dataset.Num(1), "depth": dataset.Null(), "well": dataset.Str("A")},
		{"id": dataset.Num(2), "depth": dataset.Num(1020), "well": dataset.Str("A")},
		{"id": dataset.Num(3), "depth": dataset.Num(1030), "well": dataset.Str("A")},
	}
	r := Assess(data)
	// 2 of 12 cells missing -> 16.67% * 0.5; 1 of 4 ids repeated -> 25% * 2
	assert.InDelta(t, 100-8.333333-50, r.Score, 1e-5)
	assert.Equal(t, []string{"16.7% missing values", "1 duplicate records"}, r.Issues)
}

func TestAssessSkipsDuplicatesWithoutLeadingID(t *testing.T) {
	data := []dataset.Record{
		{"id": dataset.Num(0), "x": dataset.Num(1)},
		{"id": dataset.Num(0), "x": dataset.Num(2)},
	}
	assert.Equal(t, 100.0, Assess(data).Score)
}

func TestAssessClampsAtZero(t *testing.T) {
	data := []dataset.Record{
		{"id": dataset.Str("x"), "a": dataset.Null()},
		{"id": dataset.Str("x"), "a": dataset.Null()},
		{"id": dataset.Str("x"), "a": dataset.Null()},
	}
	assert.Equal(t, 0.0, Assess(data).Score)
}

func TestAssessScoreFallsAsCellsGoMissing(t *testing.T) {
	base := func() []dataset.Record {
		out := make([]dataset.Record, 10)
		for i := range out {
			out[i] = dataset.Record{"a": dataset.Num(float64(i)), "b": dataset.Str("x")}
		}
		return out
	}
	prev := Assess(base()).Score
	data := base()
	for i := range data {
		data[i]["b"] = dataset.Str("")
		cur := Assess(data).Score
		assert.Less(t, cur, prev, "row %d", i)
		prev = cur
	}
}

func TestDetectOutliers(t *testing.T) {
	data := make([]dataset.Record, 0, 21)
	for i := 0; i < 20; i++ {
		data = append(data, dataset.Record{"p": dataset.Num(100), "name": dataset.Str("w")})
	}
	data = append(data, dataset.Record{"p": dataset.Num(10000), "name": dataset.Str("w")})

	o := DetectOutliers(data)
	assert.Equal(t, Outliers{"p": 1}, o)
	assert.Equal(t, 1, o.Total())
	assert.Empty(t, DetectOutliers(nil))
}

func TestValidateDataset(t *testing.T) {
	v := ValidateDataset(dataset.Dataset{})
	assert.False(t, v.Valid)
	assert.Equal(t, []string{"Dataset is empty"}, v.Messages)

	ds := dataset.Dataset{Data: []dataset.Record{
		{"id": dataset.Str("1"), "depth": dataset.Num(10), "gr": dataset.Num(50)},
		{"id": dataset.Str("2"), "depth": dataset.Num(10), "gr": dataset.Num(50)},
		{"id": dataset.Str("3"), "gr": dataset.Num(60)},
	}}
	v = ValidateDataset(ds)
	assert.False(t, v.Valid)
	assert.Equal(t, 1, v.MissingValues)
	assert.Equal(t, 0, v.OutOfRangeValues)
	assert.Equal(t, 1, v.DuplicateRecords)
	assert.Equal(t, []string{"Found 1 missing values", "Found 1 potential duplicate records"}, v.Messages)

	// duplicates alone keep the dataset valid
	ds.Data = ds.Data[:2]
	v = ValidateDataset(ds)
	assert.True(t, v.Valid)
	assert.Equal(t, 1, v.DuplicateRecords)
}

func TestValidateUnified(t *testing.T) {
	v := ValidateUnified(nil)
	assert.False(t, v.Valid)
	assert.Equal(t, []string{"Unified model is empty"}, v.Messages)

	recs := []dataset.UnifiedRecord{
		{ID: "a_0", Timestamp: "2024-01-01T00:00:00Z", Depth: 1000, Source: "a", DataType: dataset.TypeLogs},
		{ID: "a_1", Timestamp: "2024-01-01T00:00:00Z", Depth: 0, Source: "a", DataType: dataset.TypeLogs},
		{ID: "a_2", Depth: 10, Source: "a", DataType: dataset.TypeLogs},
	}
	v = ValidateUnified(recs)
	assert.False(t, v.Valid)
	assert.Equal(t, 2, v.IncompleteRecords)
	assert.Equal(t, []string{"Found 2 incomplete records"}, v.Messages)

	assert.True(t, ValidateUnified(recs[:1]).Valid)
}

func TestGate(t *testing.T) {
	require.NoError(t, Gate(Report{Score: 10}, 0))
	require.NoError(t, Gate(Report{Score: 80}, 80))
	err := Gate(Report{Score: 79.9}, 80)
	assert.True(t, errors.Is(err, errs.ErrQualityBelowThreshold))
}
