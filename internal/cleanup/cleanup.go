// Package cleanup imputes missing numeric cells and drops duplicate rows.
// Functions return new datasets and leave their input alone.
package cleanup

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/stats"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Fill holds the statistics computed for one column before imputation.
type Fill struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Imputation records one substituted cell.
type Imputation struct {
	Column string  `json:"column"`
	Row    int     `json:"row"`
	Value  float64 `json:"value"`
}

// Report describes what CleanDataset changed.
type Report struct {
	Fills       map[string]Fill `json:"fills"`
	Imputations []Imputation    `json:"imputations"`
}

// CleanDataset replaces null, absent and NaN cells of every numeric column
// (first-record schema) with the column median. Columns without a single valid
// value are skipped. Empty strings are not treated as missing here.
func CleanDataset(ds dataset.Dataset) (dataset.Dataset, Report) {
	rep := Report{Fills: map[string]Fill{}, Imputations: []Imputation{}}
	if len(ds.Data) == 0 {
		return ds, rep
	}
	cols := dataset.NumericColumns(ds.Data)
	for _, col := range cols {
		values := stats.ColumnValues(ds.Data, col)
		if len(values) == 0 {
			continue
		}
		rep.Fills[col] = Fill{Mean: stats.Mean(values), Median: stats.Median(values)}
	}

	out := dataset.CloneRecords(ds.Data)
	for i, r := range out {
		for _, col := range cols {
			fill, ok := rep.Fills[col]
			if !ok {
				continue
			}
			if v := r.Get(col); v.IsNull() || v.IsNaN() {
				r[col] = dataset.Num(fill.Median)
				rep.Imputations = append(rep.Imputations, Imputation{Column: col, Row: i, Value: fill.Median})
			}
		}
	}
	return ds.WithData(out), rep
}

// DeduplicateDataset keeps the first record of each Signature, preserving row
// order. Applying it twice gives the same result as applying it once.
func DeduplicateDataset(ds dataset.Dataset) dataset.Dataset {
	if len(ds.Data) == 0 {
		return ds
	}
	seen := make(map[string]struct{}, len(ds.Data))
	out := make([]dataset.Record, 0, len(ds.Data))
	for _, r := range ds.Data {
		sig := Signature(r)
		if _, ok := seen[sig]; ok {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, r.Clone())
	}
	return ds.WithData(out)
}

// Signature is the canonical JSON of r's [key, value] pairs sorted by key,
// with the id column left out. NaN encodes as null, like any JSON encoder.
func Signature(r dataset.Record) string {
	keys := r.Keys()
	pairs := make([][2]interface{}, 0, len(keys))
	for _, k := range keys {
		if k == "id" {
			continue
		}
		pairs = append(pairs, [2]interface{}{k, r[k]})
	}
	b, err := json.Marshal(pairs)
	if err != nil {
		return ""
	}
	return string(b)
}
