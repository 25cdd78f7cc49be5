// Package metrics keeps pipeline counters on a private prometheus registry.
// A CLI run has no scrape endpoint, so the registry is dumped to a textfile
// (node_exporter format) at the end of the command when configured.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "petroloom"

// Recorder is safe for concurrent use. A nil *Recorder ignores every call.
type Recorder struct {
	registry *prometheus.Registry

	datasetsNormalized  *prometheus.CounterVec
	integrationFailures prometheus.Counter
	recordsUnified      prometheus.Counter
	stageDuration       *prometheus.HistogramVec
	qualityScore        *prometheus.GaugeVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		datasetsNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datasets_normalized_total",
			Help:      "Datasets normalized, by method.",
		}, []string{"method"}),
		integrationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integration_failures_total",
			Help:      "Datasets skipped by integration because their transform failed.",
		}),
		recordsUnified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_unified_total",
			Help:      "Unified records produced by integration.",
		}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
		qualityScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_quality_score",
			Help:      "Last quality score computed for a dataset.",
		}, []string{"dataset"}),
	}
	r.registry.MustRegister(
		r.datasetsNormalized,
		r.integrationFailures,
		r.recordsUnified,
		r.stageDuration,
		r.qualityScore,
	)
	return r
}

// Registry exposes the underlying registry for tests and custom exporters.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) DatasetNormalized(method string) {
	if r == nil {
		return
	}
	r.datasetsNormalized.WithLabelValues(method).Inc()
}

func (r *Recorder) IntegrationFailed() {
	if r == nil {
		return
	}
	r.integrationFailures.Inc()
}

func (r *Recorder) RecordsUnified(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.recordsUnified.Add(float64(n))
}

func (r *Recorder) QualityScore(dataset string, score float64) {
	if r == nil {
		return
	}
	r.qualityScore.WithLabelValues(dataset).Set(score)
}

// ObserveStage records the time since start under stage. Use with defer:
//
//	defer rec.ObserveStage("normalize", time.Now())
func (r *Recorder) ObserveStage(stage string, start time.Time) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes every metric in text exposition format to path. The
// file is written to a temp name and renamed into place.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
