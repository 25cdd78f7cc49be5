// Package quality grades datasets. Every check is a pure pass over the records
// and is recomputed on each call.
package quality

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/petroloom-cli/internal/cleanup"
	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/errs"
	"github.com/KaramelBytes/petroloom-cli/internal/stats"
)

const (
	missingWeight   = 0.5
	duplicateWeight = 2.0
	// missing percentages at or below this are not reported as an issue
	missingIssuePct = 5.0
	// |x - mean| beyond this many population standard deviations is an outlier
	outlierSigmas = 3.0
)

// Report is the 0..100 quality score and the human readable issues behind it.
type Report struct {
	Score  float64  `json:"score"`
	Issues []string `json:"issues"`
}

// Assess scores data. It starts at 100 and subtracts half the missing-cell
// percentage and twice the duplicate-id percentage, clamping at 0. Missing
// cells are nulls and empty strings among each record's own keys, measured
// against rows times the column count of record 0. Duplicate ids are only
// looked for when record 0 carries an id.
func Assess(data []dataset.Record) Report {
	if len(data) == 0 {
		return Report{Score: 0, Issues: []string{}}
	}
	totalCells := len(data) * len(data[0])
	missing := 0
	for _, r := range data {
		for _, v := range r {
			if v.IsEmpty() {
				missing++
			}
		}
	}

	duplicates := 0
	if truthy(data[0].Get("id")) {
		seen := make(map[string]struct{}, len(data))
		for _, r := range data {
			seen[idKey(r.Get("id"))] = struct{}{}
		}
		duplicates = len(data) - len(seen)
	}

	missingPct := 0.0
	if totalCells > 0 {
		missingPct = float64(missing) / float64(totalCells) * 100
	}
	duplicatePct := float64(duplicates) / float64(len(data)) * 100

	score := 100.0
	score -= missingPct * missingWeight
	score -= duplicatePct * duplicateWeight

	issues := []string{}
	if missingPct > missingIssuePct {
		issues = append(issues, fmt.Sprintf("%.1f%% missing values", missingPct))
	}
	if duplicates > 0 {
		issues = append(issues, fmt.Sprintf("%d duplicate records", duplicates))
	}
	return Report{Score: math.Max(0, score), Issues: issues}
}

func truthy(v dataset.Value) bool {
	if f, ok := v.Float(); ok {
		return f != 0 && !math.IsNaN(f)
	}
	s, ok := v.Text()
	return ok && s != ""
}

// idKey separates "1" from 1 and folds every NaN into one key.
func idKey(v dataset.Value) string {
	switch {
	case v.IsNaN():
		return "n:NaN"
	case v.IsNumber():
		return "n:" + v.String()
	case v.IsString():
		return "s:" + v.String()
	default:
		return "null"
	}
}

// Outliers maps each numeric column (first-record schema) to the number of
// values lying more than three population standard deviations from its mean.
type Outliers map[string]int

// Total sums the per-column counts.
func (o Outliers) Total() int {
	n := 0
	for _, c := range o {
		n += c
	}
	return n
}

// DetectOutliers counts 3-sigma outliers per numeric column. It does not
// influence Assess.
func DetectOutliers(data []dataset.Record) Outliers {
	out := Outliers{}
	for _, col := range dataset.NumericColumns(data) {
		values := stats.ColumnValues(data, col)
		if len(values) == 0 {
			continue
		}
		mean := stats.Mean(values)
		limit := outlierSigmas * math.Sqrt(stats.Variance(values, mean))
		n := 0
		for _, v := range values {
			if math.Abs(v-mean) > limit {
				n++
			}
		}
		out[col] = n
	}
	return out
}

// Validation is the outcome of ValidateDataset or ValidateUnified.
type Validation struct {
	Valid             bool     `json:"valid"`
	MissingValues     int      `json:"missing_values"`
	OutOfRangeValues  int      `json:"out_of_range_values"`
	DuplicateRecords  int      `json:"duplicate_records"`
	IncompleteRecords int      `json:"incomplete_records"`
	Messages          []string `json:"messages"`
}

// ValidateDataset checks numeric completeness, 3-sigma outliers and duplicate
// rows. Duplicates are reported but do not invalidate the dataset.
func ValidateDataset(ds dataset.Dataset) Validation {
	v := Validation{Valid: true, Messages: []string{}}
	if len(ds.Data) == 0 {
		v.Valid = false
		v.Messages = append(v.Messages, "Dataset is empty")
		return v
	}

	cols := dataset.NumericColumns(ds.Data)
	for _, r := range ds.Data {
		for _, col := range cols {
			if x := r.Get(col); x.IsNull() || x.IsNaN() {
				v.MissingValues++
			}
		}
	}
	if v.MissingValues > 0 {
		v.Messages = append(v.Messages, fmt.Sprintf("Found %d missing values", v.MissingValues))
	}

	v.OutOfRangeValues = DetectOutliers(ds.Data).Total()
	if v.OutOfRangeValues > 0 {
		v.Messages = append(v.Messages, fmt.Sprintf("Found %d potential outliers", v.OutOfRangeValues))
	}

	seen := make(map[string]struct{}, len(ds.Data))
	for _, r := range ds.Data {
		sig := cleanup.Signature(r)
		if _, dup := seen[sig]; dup {
			v.DuplicateRecords++
			continue
		}
		seen[sig] = struct{}{}
	}
	if v.DuplicateRecords > 0 {
		v.Messages = append(v.Messages, fmt.Sprintf("Found %d potential duplicate records", v.DuplicateRecords))
	}

	v.Valid = v.MissingValues == 0 && v.OutOfRangeValues == 0
	return v
}

// ValidateUnified flags records lacking a timestamp, source or data type, or
// sitting at depth 0.
func ValidateUnified(records []dataset.UnifiedRecord) Validation {
	v := Validation{Valid: true, Messages: []string{}}
	if len(records) == 0 {
		v.Valid = false
		v.Messages = append(v.Messages, "Unified model is empty")
		return v
	}
	for _, r := range records {
		if r.Timestamp == "" || r.Depth == 0 || math.IsNaN(r.Depth) || r.Source == "" || r.DataType == "" {
			v.IncompleteRecords++
		}
	}
	if v.IncompleteRecords > 0 {
		v.Valid = false
		v.Messages = append(v.Messages, fmt.Sprintf("Found %d incomplete records", v.IncompleteRecords))
	}
	return v
}

// Gate fails with errs.ErrQualityBelowThreshold when r scores below minScore.
// A minScore of 0 or less never fails.
func Gate(r Report, minScore float64) error {
	if minScore <= 0 || r.Score >= minScore {
		return nil
	}
	return fmt.Errorf("%w: score %.1f < %.1f", errs.ErrQualityBelowThreshold, r.Score, minScore)
}
