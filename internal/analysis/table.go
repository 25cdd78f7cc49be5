package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/quality"
	"github.com/KaramelBytes/petroloom-cli/internal/stats"
)

// Column kinds reported by Preview.
const (
	KindNumeric     = "numeric"
	KindDatetime    = "datetime"
	KindCategorical = "categorical"
	KindText        = "text"
	KindUnknown     = "unknown"
)

// Options controls the preview of a dataset.
type Options struct {
	// MaxRows limits rows profiled per column; 0 means unlimited. Quality
	// scoring always covers every row.
	MaxRows int
	// SampleRows determines how many leading rows to include in the report.
	SampleRows int
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset previews.
func DefaultOptions() Options {
	return Options{
		MaxRows:          100000,
		SampleRows:       5,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Report is a markdown-friendly profile of one dataset.
type Report struct {
	Name       string             `json:"name"`
	Type       dataset.Type       `json:"type"`
	Normalized bool               `json:"normalized"`
	Method     dataset.Method     `json:"normalization_method,omitempty"`
	Rows       int                `json:"rows"`
	Processed  int                `json:"processed"`
	Cols       []ColumnSummary    `json:"columns"`
	Samples    [][]string         `json:"samples,omitempty"`
	Quality    quality.Report     `json:"quality"`
	Validation quality.Validation `json:"validation"`
	Warnings   []string           `json:"warnings,omitempty"`
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique,omitempty"`
	// Numeric stats
	Min    float64 `json:"min,omitempty"`
	Max    float64 `json:"max,omitempty"`
	Mean   float64 `json:"mean,omitempty"`
	Median float64 `json:"median,omitempty"`
	Std    float64 `json:"std,omitempty"`
	// Outliers (robust Z via MAD)
	OutliersCount    int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
	// Categorical top values
	TopValues    []CategoryCount `json:"top_values,omitempty"`
	ExampleTexts []string        `json:"examples,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Preview profiles ds column by column and attaches its quality report.
func Preview(ds dataset.Dataset, opt Options) *Report {
	rep := &Report{
		Name:       ds.Name,
		Type:       ds.Type,
		Normalized: ds.Normalized,
		Method:     ds.NormalizationMethod,
		Rows:       len(ds.Data),
		Quality:    quality.Assess(ds.Data),
		Validation: quality.ValidateDataset(ds),
	}
	rows := ds.Data
	if opt.MaxRows > 0 && len(rows) > opt.MaxRows {
		rows = rows[:opt.MaxRows]
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", opt.MaxRows, len(ds.Data)))
	}
	rep.Processed = len(rows)

	cols := columnOrder(rows)
	for _, name := range cols {
		rep.Cols = append(rep.Cols, summarizeColumn(rows, name, opt))
	}

	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 5
	}
	for i := 0; i < len(rows) && i < sampleRows; i++ {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = rows[i].Get(c).String()
		}
		rep.Samples = append(rep.Samples, row)
	}
	if len(rows) > 0 && len(dataset.NumericColumns(rows)) == 0 {
		rep.Warnings = append(rep.Warnings, "first record has no numeric columns; normalization will leave every value unchanged")
	}
	return rep
}

// columnOrder lists the keys of the first record, then keys first seen in
// later records, each group sorted.
func columnOrder(rows []dataset.Record) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rows {
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}

func summarizeColumn(rows []dataset.Record, name string, opt Options) ColumnSummary {
	s := ColumnSummary{Name: name}
	var nums []float64
	var dtCnt, txtCnt int
	cats := map[string]int{}
	var exText []string
	for _, r := range rows {
		v := r.Get(name)
		if v.IsEmpty() || v.IsNaN() {
			s.Missing++
			continue
		}
		s.NonNull++
		if f, ok := v.Float(); ok {
			nums = append(nums, f)
			continue
		}
		t, _ := v.Text()
		if _, ok := parseTimeMaybe(t); ok {
			dtCnt++
			continue
		}
		txtCnt++
		if len(cats) <= 10000 && len(t) <= 64 {
			cats[t]++
		}
		if len(exText) < 3 {
			exText = append(exText, t)
		}
	}

	numCnt := len(nums)
	switch {
	case numCnt >= dtCnt && numCnt >= txtCnt && numCnt > 0:
		s.Kind = KindNumeric
		sum := stats.Summarize(nums)
		s.Min, s.Max, s.Mean, s.Median, s.Std = sum.Min, sum.Max, sum.Mean, sum.Median, sum.Std
		if opt.Outliers && numCnt >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			s.OutlierThreshold = thr
			median, mad := medianMAD(nums)
			if mad > 0 {
				for _, v := range nums {
					az := math.Abs(0.6745 * (v - median) / mad)
					if az > thr {
						s.OutliersCount++
					}
					if az > s.OutliersMaxAbsZ {
						s.OutliersMaxAbsZ = az
					}
				}
			}
		}
	case dtCnt >= txtCnt && dtCnt > 0:
		s.Kind = KindDatetime
	case txtCnt > 0 && len(cats) < txtCnt:
		// repeated labels such as formation or well names
		s.Kind = KindCategorical
		tops := make([]CategoryCount, 0, len(cats))
		for k, v := range cats {
			tops = append(tops, CategoryCount{Value: k, Count: v})
		}
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].Count == tops[j].Count {
				return tops[i].Value < tops[j].Value
			}
			return tops[i].Count > tops[j].Count
		})
		if len(tops) > 8 {
			tops = tops[:8]
		}
		s.TopValues = tops
		s.Unique = len(cats)
	case txtCnt > 0:
		s.Kind = KindText
		s.ExampleTexts = exText
	default:
		s.Kind = KindUnknown
	}
	return s
}

func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("Dataset: %s\n", r.Name))
	}
	if r.Type != "" {
		b.WriteString(fmt.Sprintf("Type: %s\n", r.Type))
	}
	if r.Normalized {
		b.WriteString(fmt.Sprintf("Normalized: yes (%s)\n", r.Method))
	} else {
		b.WriteString("Normalized: no\n")
	}
	if r.Processed < r.Rows {
		b.WriteString(fmt.Sprintf("Rows: ~%d (processed %d)\n", r.Rows, r.Processed))
	} else {
		b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[DATA QUALITY]\n")
	b.WriteString(fmt.Sprintf("Score: %.1f/100\n", r.Quality.Score))
	for _, is := range r.Quality.Issues {
		b.WriteString(fmt.Sprintf("- %s\n", is))
	}
	for _, m := range r.Validation.Messages {
		b.WriteString(fmt.Sprintf("- %s\n", m))
	}

	b.WriteString("\n[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case KindNumeric:
			b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, median %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Median, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case KindCategorical:
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case KindText:
			if len(c.ExampleTexts) > 0 {
				b.WriteString("; e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeVal(safeName(c.Name)))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := stats.Sorted(vals)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
