package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.DatasetNormalized("zscore")
	r.DatasetNormalized("zscore")
	r.DatasetNormalized("minmax")
	r.IntegrationFailed()
	r.RecordsUnified(12)
	r.RecordsUnified(-1)
	r.QualityScore("core.csv", 87.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.datasetsNormalized.WithLabelValues("zscore")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.datasetsNormalized.WithLabelValues("minmax")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.integrationFailures))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.recordsUnified))
	assert.Equal(t, 87.5, testutil.ToFloat64(r.qualityScore.WithLabelValues("core.csv")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.DatasetNormalized("zscore")
		r.IntegrationFailed()
		r.RecordsUnified(3)
		r.QualityScore("x", 1)
		r.ObserveStage("normalize", time.Now())
	})
	assert.NoError(t, r.WriteTextfile("/nonexistent/metrics.prom"))
	assert.Nil(t, r.Registry())
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.RecordsUnified(5)
	r.ObserveStage("integrate", time.Now().Add(-time.Second))

	path := filepath.Join(t.TempDir(), "petroloom.prom")
	require.NoError(t, r.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.True(t, strings.Contains(out, "petroloom_records_unified_total 5"))
	assert.True(t, strings.Contains(out, `petroloom_stage_duration_seconds_count{stage="integrate"} 1`))
}
