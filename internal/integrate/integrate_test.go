package integrate

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/errs"
	"github.com/KaramelBytes/petroloom-cli/internal/export"
	"github.com/KaramelBytes/petroloom-cli/internal/normalize"
)

var fixed = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func engine(t *testing.T) (*Engine, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	return New(WithClock(func() time.Time { return fixed }), WithLogger(logger)), hook
}

func TestSafeNumber(t *testing.T) {
	tests := []struct {
		in   dataset.Value
		want float64
	}{
		{dataset.Num(1.5), 1.5},
		{dataset.Num(math.NaN()), 0},
		{dataset.Str(" 42 "), 42},
		{dataset.Str("1e3"), 1000},
		{dataset.Str(""), 0},
		{dataset.Str("abc"), 0},
		{dataset.Null(), 0},
		{dataset.Str("-.5"), -0.5},
		{dataset.Str("inf"), 0},
		{dataset.Str("Infinity"), 0},
		{dataset.Str("-Inf"), 0},
		{dataset.Str("NaN"), 0},
		{dataset.Str("0x1p4"), 0},
		{dataset.Str("0x10"), 0},
		{dataset.Str("1_000"), 0},
		{dataset.Str("1e400"), 0},
		{dataset.Num(math.Inf(1)), 0},
		{dataset.Num(math.Inf(-1)), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeNumber(tt.in), tt.in.String())
	}
}

func TestUnionWithNonFiniteTextStillExports(t *testing.T) {
	e, _ := engine(t)
	ds := dataset.Dataset{
		ID: "l1", Name: "well-9", Type: dataset.TypeLogs, Normalized: true,
		Data: []dataset.Record{
			{"depth": dataset.Num(2100), "porosity": dataset.Str("inf"), "resistivity_norm": dataset.Str("Infinity")},
		},
	}
	res := e.Union([]dataset.Dataset{ds})
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, 0.0, rec.Porosity)
	assert.Equal(t, 0.0, rec.Pressure)

	var buf bytes.Buffer
	require.NoError(t, export.Export(context.Background(), &buf, res.Records, export.FormatJSON))
	assert.Contains(t, buf.String(), `"well-9"`)
}

func TestTransformRequiresNormalized(t *testing.T) {
	e, _ := engine(t)
	recs, err := e.Transform(dataset.Dataset{Type: dataset.TypeCore, Data: []dataset.Record{{"depth": dataset.Num(1)}}})
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = e.Transform(dataset.Dataset{Type: dataset.TypeCore, Normalized: true})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestTransformCoreIsComplete(t *testing.T) {
	e, _ := engine(t)
	ds := dataset.Dataset{
		ID: "c1", Name: "plugs", Type: dataset.TypeCore, Normalized: true,
		Data: []dataset.Record{
			{"depth": dataset.Num(1500), "porosity": dataset.Num(0.21), "permeability_norm": dataset.Num(0.7), "saturation": dataset.Str("0.4")},
			{"depth": dataset.Str("1510"), "porosity_norm": dataset.Num(0), "porosity": dataset.Num(0.18), "timestamp": dataset.Str("2023-05-01")},
		},
	}
	recs, err := e.Transform(ds)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, dataset.UnifiedRecord{
		ID: "c1_0", Timestamp: "2024-03-01T12:00:00Z", Depth: 1500,
		Porosity: 0.21, Permeability: 0.7, Saturation: 0.4,
		Source: "plugs", DataType: dataset.TypeCore,
	}, recs[0])

	// a zero normalized value falls through to the raw column
	assert.Equal(t, 0.18, recs[1].Porosity)
	assert.Equal(t, 1510.0, recs[1].Depth)
	assert.Equal(t, "2023-05-01", recs[1].Timestamp)
	assert.Zero(t, recs[1].Pressure)
	assert.Zero(t, recs[1].Temperature)
}

func TestTransformPerTypeMapping(t *testing.T) {
	e, _ := engine(t)
	row := dataset.Record{
		"depth":            dataset.Num(10),
		"porosity":         dataset.Num(0.2),
		"resistivity_norm": dataset.Num(0.3),
		"amplitude_norm":   dataset.Num(0.4),
		"velocity_norm":    dataset.Num(0.5),
		"pressure":         dataset.Num(0.6),
		"oil_rate_norm":    dataset.Num(0.7),
	}
	tests := []struct {
		typ  dataset.Type
		want dataset.UnifiedRecord
	}{
		{dataset.TypeLogs, dataset.UnifiedRecord{Porosity: 0.2, Pressure: 0.3}},
		{dataset.TypeSeismic, dataset.UnifiedRecord{Pressure: 0.4, Temperature: 0.5}},
		{dataset.TypeProduction, dataset.UnifiedRecord{Pressure: 0.6, Temperature: 0.7}},
		{dataset.TypeCore, dataset.UnifiedRecord{Porosity: 0.2}},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			recs, err := e.Transform(dataset.Dataset{ID: "d", Name: "n", Type: tt.typ, Normalized: true, Data: []dataset.Record{row}})
			require.NoError(t, err)
			got := recs[0]
			assert.Equal(t, tt.want.Pressure, got.Pressure)
			assert.Equal(t, tt.want.Temperature, got.Temperature)
			assert.Equal(t, tt.want.Porosity, got.Porosity)
			assert.Equal(t, tt.want.Permeability, got.Permeability)
			assert.Equal(t, tt.want.Saturation, got.Saturation)
		})
	}
}

func TestTransformUnknownType(t *testing.T) {
	e, _ := engine(t)
	_, err := e.Transform(dataset.Dataset{Name: "x", Type: "gravity", Normalized: true, Data: []dataset.Record{{}}})
	assert.True(t, errors.Is(err, errs.ErrUnsupportedType))
}

func TestProductionScenario(t *testing.T) {
	e, _ := engine(t)
	ds := dataset.Dataset{ID: "p", Name: "prod.csv", Type: dataset.TypeProduction, Data: []dataset.Record{
		{"depth": dataset.Num(1000), "pressure": dataset.Num(2000)},
		{"depth": dataset.Num(1010), "pressure": dataset.Num(2200)},
		{"depth": dataset.Num(1020), "pressure": dataset.Num(1800)},
	}}
	res := e.Union([]dataset.Dataset{normalize.NormalizeDataset(ds, dataset.MethodZScore)})

	require.Len(t, res.Records, 3)
	// depth is normalized too, so the first row sits at -1.224745
	assert.Equal(t, -1.224745, res.Records[0].Depth)
	// pressure at the mean normalizes to 0, so nothing non-zero is found
	assert.Equal(t, 0.0, res.Records[0].Pressure)
	assert.Equal(t, 1.224745, res.Records[1].Pressure)
	assert.Equal(t, -1.224745, res.Records[2].Pressure)
	for _, r := range res.Records {
		assert.Equal(t, "2024-03-01T12:00:00Z", r.Timestamp)
		assert.Equal(t, dataset.TypeProduction, r.DataType)
	}
	assert.Equal(t, Summary{NormalizedDatasets: 1, Records: 3, DataTypes: 1}, res.Summary())
}

func TestUnionSkipsAndReports(t *testing.T) {
	e, hook := engine(t)
	good := dataset.Dataset{ID: "a", Name: "a", Type: dataset.TypeLogs, Normalized: true, Data: []dataset.Record{{"depth": dataset.Num(1)}}}
	raw := dataset.Dataset{ID: "b", Name: "b", Type: dataset.TypeCore, Data: []dataset.Record{{"depth": dataset.Num(2)}}}
	bad := dataset.Dataset{ID: "c", Name: "c", Type: "gravity", Normalized: true, Data: []dataset.Record{{"depth": dataset.Num(3)}}}
	core := dataset.Dataset{ID: "d", Name: "d", Type: dataset.TypeCore, Normalized: true, Data: []dataset.Record{{"depth": dataset.Num(4)}, {"depth": dataset.Num(5)}}}

	res := e.Union([]dataset.Dataset{good, raw, bad, core})

	require.Len(t, res.Records, 3)
	assert.Equal(t, []string{"a_0", "d_0", "d_1"}, []string{res.Records[0].ID, res.Records[1].ID, res.Records[2].ID})
	assert.Equal(t, []string{"a", "d"}, res.Sources)
	assert.Equal(t, []string{"b"}, res.Skipped)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "c", res.Failures[0].DatasetID)
	assert.True(t, errors.Is(res.Failures[0].Err, errs.ErrUnsupportedType))

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "c", entry.Data["dataset_id"])

	assert.Equal(t, Summary{NormalizedDatasets: 3, Records: 3, DataTypes: 2}, res.Summary())
}

func TestUnionEmpty(t *testing.T) {
	e, _ := engine(t)
	res := e.Union(nil)
	assert.NotNil(t, res.Records)
	assert.Empty(t, res.Records)
	assert.Equal(t, Summary{}, res.Summary())
}
