// Package integrate maps normalized datasets of any type onto the unified
// record schema and unions the results.
package integrate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/errs"
)

// Engine transforms datasets. The zero value is not usable; call New.
type Engine struct {
	now func() time.Time
	log logrus.FieldLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for records without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets where skipped datasets are reported.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now, log: logrus.StandardLogger()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// SafeNumber coerces v the way a lenient numeric cast would: numbers pass
// through, strings are trimmed and parsed as plain decimals, and anything
// else gives 0. Non-finite results also give 0 so that one odd cell cannot
// make the unified collection unexportable.
func SafeNumber(v dataset.Value) float64 {
	if f, ok := v.Float(); ok {
		return finite(f)
	}
	s, ok := v.Text()
	if !ok {
		return 0
	}
	s = strings.TrimSpace(s)
	if s == "" || !plainDecimal(s) {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// plainDecimal rejects the spellings ParseFloat accepts beyond ordinary
// decimal notation: inf, nan, hex floats and digit underscores.
func plainDecimal(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.' || r == '+' || r == '-' || r == 'e' || r == 'E':
		default:
			return false
		}
	}
	return true
}

// Transform builds one unified record per row of a normalized dataset. A
// dataset that is not normalized, or has no rows, yields nothing.
func (e *Engine) Transform(ds dataset.Dataset) ([]dataset.UnifiedRecord, error) {
	if !ds.Normalized || len(ds.Data) == 0 {
		return []dataset.UnifiedRecord{}, nil
	}
	mappings, ok := FieldMap[ds.Type]
	if !ok {
		return nil, fmt.Errorf("transform %s: %w: %q", ds.Name, errs.ErrUnsupportedType, ds.Type)
	}
	fallback := e.now().UTC().Format(time.RFC3339)
	out := make([]dataset.UnifiedRecord, 0, len(ds.Data))
	for i, r := range ds.Data {
		u := dataset.UnifiedRecord{
			ID:        fmt.Sprintf("%s_%d", ds.ID, i),
			Timestamp: timestamp(r.Get("timestamp"), fallback),
			Depth:     SafeNumber(r.Get("depth")),
			Source:    ds.Name,
			DataType:  ds.Type,
		}
		for _, m := range mappings {
			set(&u, m.Field, m.resolve(r))
		}
		out = append(out, u)
	}
	return out, nil
}

func timestamp(v dataset.Value, fallback string) string {
	if f, ok := v.Float(); ok {
		if f == 0 || math.IsNaN(f) {
			return fallback
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if s, ok := v.Text(); ok && s != "" {
		return s
	}
	return fallback
}

// Failure is a dataset the union had to skip.
type Failure struct {
	DatasetID   string `json:"dataset_id"`
	DatasetName string `json:"dataset_name"`
	Err         error  `json:"-"`
}

func (f Failure) Error() string { return fmt.Sprintf("%s: %v", f.DatasetName, f.Err) }

// Result is the outcome of one Union run.
type Result struct {
	Records []dataset.UnifiedRecord
	// Sources are the ids of datasets that contributed records.
	Sources []string
	// Skipped are the ids of datasets that were not normalized.
	Skipped  []string
	Failures []Failure
	// Normalized counts every normalized input, failed or empty ones included.
	Normalized int
}

// Summary is the integration dashboard: datasets used, records produced and
// distinct data types among them.
type Summary struct {
	NormalizedDatasets int `json:"normalized_datasets"`
	Records            int `json:"records"`
	DataTypes          int `json:"data_types"`
}

func (r Result) Summary() Summary {
	types := map[dataset.Type]struct{}{}
	for _, rec := range r.Records {
		types[rec.DataType] = struct{}{}
	}
	return Summary{
		NormalizedDatasets: r.Normalized,
		Records:            len(r.Records),
		DataTypes:          len(types),
	}
}

// Union transforms every normalized dataset in order and concatenates the
// records. A dataset whose transform errors or panics is logged, listed in
// Failures and skipped; the rest still run.
func (e *Engine) Union(datasets []dataset.Dataset) Result {
	res := Result{Records: []dataset.UnifiedRecord{}}
	for _, ds := range datasets {
		if !ds.Normalized {
			res.Skipped = append(res.Skipped, ds.ID)
			continue
		}
		res.Normalized++
		recs, err := e.safeTransform(ds)
		if err != nil {
			e.log.WithFields(logrus.Fields{
				"dataset_id":   ds.ID,
				"dataset_name": ds.Name,
			}).WithError(err).Error("transform failed, dataset skipped")
			res.Failures = append(res.Failures, Failure{DatasetID: ds.ID, DatasetName: ds.Name, Err: err})
			continue
		}
		if len(recs) == 0 {
			continue
		}
		res.Records = append(res.Records, recs...)
		res.Sources = append(res.Sources, ds.ID)
	}
	return res
}

func (e *Engine) safeTransform(ds dataset.Dataset) (recs []dataset.UnifiedRecord, err error) {
	defer func() {
		if p := recover(); p != nil {
			recs, err = nil, fmt.Errorf("transform %s: panic: %v", ds.Name, p)
		}
	}()
	return e.Transform(ds)
}
