// Package metrics exposes task run results as Prometheus metrics.
//
// Metrics (namespace configurable, default "retainer"):
//   - files_total: files handled, by task, action and outcome
//   - bytes_total: bytes deleted or moved, by task and action
//   - dirs_pruned_total: empty directories removed, by task
//   - runs_total: finished runs, by task and status
//   - run_duration_seconds: run duration histogram, by task
//   - last_run_timestamp_seconds: unix time of the last finished run, by task
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/raoulx24/retainer/internal/retention"
)

// File outcomes.
const (
	OutcomeDeleted = "deleted"
	OutcomeMoved   = "moved"
	OutcomeLocked  = "skipped_locked"
	OutcomeYoung   = "skipped_young"
	OutcomeOther   = "skipped_other"
	OutcomeFailed  = "failed"
)

// Collector owns a private registry so tests and multiple daemons in one
// process never collide on the global one.
type Collector struct {
	registry *prometheus.Registry

	files       *prometheus.CounterVec
	bytes       *prometheus.CounterVec
	dirsPruned  *prometheus.CounterVec
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	lastRun     *prometheus.GaugeVec
}

// NewCollector creates and registers all metrics. A nil registry gets a
// fresh one.
func NewCollector(namespace string, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		files: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_total",
				Help:      "Files handled by retention tasks",
			},
			[]string{"task", "action", "outcome"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_total",
				Help:      "Bytes deleted or moved by retention tasks",
			},
			[]string{"task", "action"},
		),
		dirsPruned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dirs_pruned_total",
				Help:      "Empty directories removed",
			},
			[]string{"task"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Finished task runs",
			},
			[]string{"task", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of task runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10), // 10ms to ~44min
			},
			[]string{"task"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the task last finished",
			},
			[]string{"task"},
		),
	}

	registry.MustRegister(
		c.files,
		c.bytes,
		c.dirsPruned,
		c.runs,
		c.runDuration,
		c.lastRun,
	)

	return c
}

// RecordRun folds one finished run into the metrics. r may be nil when the
// run failed before the engine produced a report.
func (c *Collector) RecordRun(task, action, status string, started, finished time.Time, r *retention.Report) {
	c.runs.WithLabelValues(task, status).Inc()
	c.runDuration.WithLabelValues(task).Observe(finished.Sub(started).Seconds())
	c.lastRun.WithLabelValues(task).Set(float64(finished.Unix()))

	if r == nil {
		return
	}

	add := func(outcome string, n int) {
		if n > 0 {
			c.files.WithLabelValues(task, action, outcome).Add(float64(n))
		}
	}
	add(OutcomeDeleted, r.FilesDeleted)
	add(OutcomeMoved, r.FilesMoved)
	add(OutcomeLocked, r.SkippedLocked)
	add(OutcomeYoung, r.SkippedYoung)
	add(OutcomeOther, r.SkippedOther)
	add(OutcomeFailed, len(r.Failures))

	if b := r.BytesDeleted + r.BytesMoved; b > 0 {
		c.bytes.WithLabelValues(task, action).Add(float64(b))
	}
	if r.DirsPruned > 0 {
		c.dirsPruned.WithLabelValues(task).Add(float64(r.DirsPruned))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(
		c.registry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
			ErrorHandling:     promhttp.ContinueOnError,
		},
	)
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
