// Package pipeline runs the core transforms over batches of datasets with
// bounded parallelism, progress events, metrics and a quality gate.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/KaramelBytes/petroloom-cli/internal/cleanup"
	"github.com/KaramelBytes/petroloom-cli/internal/dataset"
	"github.com/KaramelBytes/petroloom-cli/internal/errs"
	"github.com/KaramelBytes/petroloom-cli/internal/export"
	"github.com/KaramelBytes/petroloom-cli/internal/integrate"
	"github.com/KaramelBytes/petroloom-cli/internal/metrics"
	"github.com/KaramelBytes/petroloom-cli/internal/normalize"
	"github.com/KaramelBytes/petroloom-cli/internal/notify"
	"github.com/KaramelBytes/petroloom-cli/internal/quality"
)

const DefaultWorkers = 4

type Runner struct {
	notifier notify.Notifier
	log      logrus.FieldLogger
	metrics  *metrics.Recorder
	engine   *integrate.Engine
	workers  int
	minScore float64
	force    bool
}

type Option func(*Runner)

func WithNotifier(n notify.Notifier) Option {
	return func(r *Runner) {
		if n != nil {
			r.notifier = n
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics attaches a recorder; nil disables metrics.
func WithMetrics(m *metrics.Recorder) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithEngine(e *integrate.Engine) Option {
	return func(r *Runner) {
		if e != nil {
			r.engine = e
		}
	}
}

// WithWorkers bounds how many datasets are processed at once. Values below 1
// fall back to DefaultWorkers.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithMinQuality refuses to normalize datasets scoring below score.
func WithMinQuality(score float64) Option {
	return func(r *Runner) { r.minScore = score }
}

// WithForce bypasses the quality gate.
func WithForce(force bool) Option {
	return func(r *Runner) { r.force = force }
}

func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		notifier: notify.Nop{},
		log:      logrus.StandardLogger(),
		workers:  DefaultWorkers,
	}
	for _, o := range opts {
		o(r)
	}
	if r.engine == nil {
		r.engine = integrate.New(integrate.WithLogger(r.log))
	}
	return r
}

// each runs fn for indexes 0..n-1 on the worker pool. Once ctx is done no new
// work starts and ctx.Err() is returned.
func (r *Runner) each(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	p := pool.New().WithMaxGoroutines(r.workers).WithContext(ctx)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(ctx, i)
		})
	}
	err := p.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Normalize applies method to every dataset, in parallel, and returns the
// results in input order. Datasets refused by the quality gate come back
// unchanged and are reported as error events.
func (r *Runner) Normalize(ctx context.Context, datasets []dataset.Dataset, method dataset.Method) ([]dataset.Dataset, error) {
	if _, err := dataset.ParseMethod(string(method)); err != nil {
		return nil, err
	}
	defer r.metrics.ObserveStage("normalize", time.Now())

	total := len(datasets)
	r.notifier.Notify(notify.NormalizationStarted(total))

	out := make([]dataset.Dataset, total)
	var done, normalized int64
	err := r.each(ctx, total, func(ctx context.Context, i int) error {
		ds := datasets[i]
		r.notifier.Notify(notify.Processing(int(atomic.LoadInt64(&done)*100/int64(total)), ds.Name))
		log := r.log.WithFields(logrus.Fields{"dataset_id": ds.ID, "dataset_name": ds.Name, "method": method})

		rep := quality.Assess(ds.Data)
		r.metrics.QualityScore(ds.Name, rep.Score)
		if !r.force {
			if err := quality.Gate(rep, r.minScore); err != nil {
				log.WithError(err).Warn("quality gate refused dataset")
				r.notifier.Notify(notify.Error("Quality Gate", err, ds.Name))
				out[i] = ds
				atomic.AddInt64(&done, 1)
				return nil
			}
		}

		res := normalize.NormalizeDataset(ds, method)
		out[i] = res
		atomic.AddInt64(&done, 1)
		if !res.Normalized {
			log.Debug("dataset has no rows, left as is")
			return nil
		}
		atomic.AddInt64(&normalized, 1)
		r.metrics.DatasetNormalized(string(method))
		log.WithField("records", len(res.Data)).Debug("dataset normalized")
		r.notifier.Notify(notify.DatasetNormalized(ds.Name, string(method)))
		return nil
	})
	if err != nil {
		r.notifier.Notify(notify.Error("Normalization", err, ""))
		return nil, fmt.Errorf("normalize: %w", err)
	}
	r.notifier.Notify(notify.NormalizationComplete(int(normalized)))
	return out, nil
}

// Integrate unions the normalized datasets. Per-dataset failures are reported
// as events and counted; they do not fail the run.
func (r *Runner) Integrate(ctx context.Context, datasets []dataset.Dataset) (integrate.Result, error) {
	if err := ctx.Err(); err != nil {
		return integrate.Result{}, err
	}
	defer r.metrics.ObserveStage("integrate", time.Now())

	n := 0
	for _, ds := range datasets {
		if ds.Normalized {
			n++
		}
	}
	if n == 0 {
		return integrate.Result{}, fmt.Errorf("integrate: %w: no normalized datasets", errs.ErrNotNormalized)
	}
	r.notifier.Notify(notify.IntegrationStarted(n))

	res := r.engine.Union(datasets)
	for _, f := range res.Failures {
		r.metrics.IntegrationFailed()
		r.notifier.Notify(notify.Error("Integration", f.Err, f.DatasetName))
	}
	r.metrics.RecordsUnified(len(res.Records))
	r.log.WithFields(logrus.Fields{
		"records":  len(res.Records),
		"sources":  len(res.Sources),
		"skipped":  len(res.Skipped),
		"failures": len(res.Failures),
	}).Info("integration finished")
	r.notifier.Notify(notify.IntegrationComplete(len(res.Records)))
	return res, nil
}

// CleanResult is the outcome of cleaning one dataset.
type CleanResult struct {
	Dataset dataset.Dataset
	Report  cleanup.Report
	// Removed is the number of duplicate rows dropped.
	Removed int
}

// Clean imputes missing numeric cells of every dataset and, when dedupe is
// set, drops duplicate rows afterwards.
func (r *Runner) Clean(ctx context.Context, datasets []dataset.Dataset, dedupe bool) ([]CleanResult, error) {
	defer r.metrics.ObserveStage("clean", time.Now())
	out := make([]CleanResult, len(datasets))
	err := r.each(ctx, len(datasets), func(_ context.Context, i int) error {
		cleaned, rep := cleanup.CleanDataset(datasets[i])
		res := CleanResult{Dataset: cleaned, Report: rep}
		if dedupe {
			before := len(cleaned.Data)
			res.Dataset = cleanup.DeduplicateDataset(cleaned)
			res.Removed = before - len(res.Dataset.Data)
		}
		r.log.WithFields(logrus.Fields{
			"dataset_id":  datasets[i].ID,
			"imputations": len(rep.Imputations),
			"removed":     res.Removed,
		}).Debug("dataset cleaned")
		out[i] = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	return out, nil
}

// Export writes records to w and announces it as name.
func (r *Runner) Export(ctx context.Context, w io.Writer, name string, records []dataset.UnifiedRecord, f export.Format) error {
	defer r.metrics.ObserveStage("export", time.Now())
	r.notifier.Notify(notify.ExportStarted(string(f)))
	if err := export.Export(ctx, w, records, f); err != nil {
		r.notifier.Notify(notify.Error("Export", err, ""))
		return err
	}
	r.notifier.Notify(notify.ExportComplete(name))
	return nil
}

// ExportFile is Export to an atomically written file.
func (r *Runner) ExportFile(ctx context.Context, path string, records []dataset.UnifiedRecord, f export.Format) error {
	defer r.metrics.ObserveStage("export", time.Now())
	r.notifier.Notify(notify.ExportStarted(string(f)))
	if err := export.WriteFile(ctx, path, records, f); err != nil {
		r.notifier.Notify(notify.Error("Export", err, ""))
		return err
	}
	r.notifier.Notify(notify.ExportComplete(path))
	return nil
}
