// Package worker executes retention tasks pulled from the mailbox.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raoulx24/retainer/internal/config"
	"github.com/raoulx24/retainer/internal/fs"
	"github.com/raoulx24/retainer/internal/journal"
	"github.com/raoulx24/retainer/internal/logging"
	"github.com/raoulx24/retainer/internal/mailbox"
	"github.com/raoulx24/retainer/internal/metrics"
	"github.com/raoulx24/retainer/internal/retention"
)

// ErrUnknownTask is returned for task names missing from the config.
var ErrUnknownTask = errors.New("unknown task")

// Journal records finished runs.
type Journal interface {
	Record(ctx context.Context, r journal.Run) error
}

// Worker runs tasks one at a time, so two runs never walk the same tree
// concurrently.
type Worker struct {
	mu      sync.RWMutex
	tasks   map[string]config.TaskConfig
	fs      fs.FS
	log     logging.Logger
	mb      *mailbox.Mailbox[string, Job]
	metrics *metrics.Collector
	journal Journal
	now     func() time.Time
}

// Option configures a Worker.
type Option func(*Worker)

// WithMetrics records every run in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(w *Worker) { w.metrics = c }
}

// WithJournal records every run in j.
func WithJournal(j Journal) Option {
	return func(w *Worker) { w.journal = j }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) { w.now = now }
}

// New creates a worker for tasks reading jobs from mb.
func New(tasks []config.TaskConfig, log logging.Logger, mb *mailbox.Mailbox[string, Job], filesystem fs.FS, opts ...Option) *Worker {
	log.Debug("creating worker")
	if filesystem == nil {
		filesystem = fs.New()
	}
	w := &Worker{
		fs:  filesystem,
		log: log.With("component", "worker"),
		mb:  mb,
		now: time.Now,
	}
	for _, o := range opts {
		o(w)
	}
	w.UpdateConfig(tasks)
	return w
}

// UpdateConfig hot-reloads the task set. A run in progress finishes with
// the config it started with.
func (w *Worker) UpdateConfig(tasks []config.TaskConfig) {
	m := make(map[string]config.TaskConfig, len(tasks))
	for _, t := range tasks {
		m[t.Name] = t
	}
	w.mu.Lock()
	w.tasks = m
	w.mu.Unlock()
	w.log.Debug("worker config updated", "tasks", len(m))
}

// Submit queues a run of task. A pending run of the same task is replaced.
func (w *Worker) Submit(task, trigger string) error {
	if _, ok := w.task(task); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTask, task)
	}
	w.mb.Put(task, Job{Task: task, Trigger: trigger, Queued: w.now()})
	return nil
}

// Start runs the worker loop until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("starting worker")
	for {
		job, ok := w.mb.Take(ctx)
		if !ok {
			w.log.Info("worker stopped")
			return
		}
		if err := w.Handle(ctx, job); err != nil {
			w.log.Error("task run failed", "task", job.Task, "error", err)
		}
	}
}

// Handle runs one job.
func (w *Worker) Handle(ctx context.Context, job Job) error {
	res, err := w.RunTask(ctx, job.Task, job.Trigger)
	if err != nil {
		return err
	}
	return res.Err
}

// RunTask runs the named task now and records the result. The returned
// error covers problems that kept the run from starting; failures during
// the run are in Result.
func (w *Worker) RunTask(ctx context.Context, name, trigger string) (*Result, error) {
	t, ok := w.task(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, name)
	}

	res := &Result{
		ID:      uuid.NewString(),
		Task:    t.Name,
		Action:  t.Action,
		Trigger: trigger,
		Started: w.now(),
	}
	log := w.log.With("task", t.Name, "run", res.ID)
	log.Info("task run started", "action", t.Action, "trigger", trigger)

	res.Report, res.Err = w.execute(ctx, t)
	res.Finished = w.now()

	switch {
	case res.Err != nil:
		res.Status = StatusFailed
	case res.Report.Err() != nil:
		res.Status = StatusPartial
		res.Err = res.Report.Err()
	default:
		res.Status = StatusOK
	}

	w.record(ctx, res)

	attrs := []any{"status", res.Status, "duration", res.Finished.Sub(res.Started)}
	if r := res.Report; r != nil {
		attrs = append(attrs,
			"deleted", r.FilesDeleted,
			"moved", r.FilesMoved,
			"pruned", r.DirsPruned,
			"locked", r.SkippedLocked,
			"failures", len(r.Failures),
		)
	}
	if res.Status == StatusOK {
		log.Info("task run finished", attrs...)
	} else {
		log.Warn("task run finished", append(attrs, "error", res.Err)...)
	}
	return res, nil
}

func (w *Worker) execute(ctx context.Context, t config.TaskConfig) (*retention.Report, error) {
	scope, err := retention.ParseScope(t.Scope)
	if err != nil {
		return nil, err
	}

	engine, err := retention.New(w.fs, w.log).
		WithClock(w.now).
		WithOptions(retention.Options{
			Include:        t.Include,
			FollowSymlinks: t.FollowSymlinks,
			Overwrite:      t.OverwriteEnabled(),
			SeedSource:     t.SeedSource,
		})
	if err != nil {
		return nil, err
	}

	switch t.Action {
	case config.ActionDelete:
		return engine.DeleteExpired(ctx, t.Source, t.Policy(), scope, t.PruneEmptyDirs)
	case config.ActionMigrate:
		return engine.Migrate(ctx, t.Source, t.Target, scope, t.Policy())
	case config.ActionEvict:
		maxBytes, err := t.MaxBytes()
		if err != nil {
			return nil, err
		}
		return engine.Evict(ctx, t.Source, maxBytes, scope, t.PruneEmptyDirs)
	default:
		return nil, fmt.Errorf("unknown action %q", t.Action)
	}
}

func (w *Worker) record(ctx context.Context, res *Result) {
	if w.metrics != nil {
		w.metrics.RecordRun(res.Task, res.Action, res.Status, res.Started, res.Finished, res.Report)
	}
	if w.journal == nil {
		return
	}

	run := journal.Run{
		ID:       res.ID,
		Task:     res.Task,
		Action:   res.Action,
		Trigger:  res.Trigger,
		Status:   res.Status,
		Started:  res.Started,
		Finished: res.Finished,
	}
	if r := res.Report; r != nil {
		run.FilesDeleted = r.FilesDeleted
		run.FilesMoved = r.FilesMoved
		run.BytesDeleted = r.BytesDeleted
		run.BytesMoved = r.BytesMoved
		run.DirsPruned = r.DirsPruned
		run.Skipped = r.SkippedLocked + r.SkippedOther
		for _, f := range r.Failures {
			run.Failures = append(run.Failures, journal.Failure{Path: f.Path, Op: f.Op, Error: f.Err.Error()})
		}
	}
	if res.Status == StatusFailed && res.Err != nil {
		run.Error = res.Err.Error()
	}

	// a cancelled run is still journaled
	if err := w.journal.Record(context.WithoutCancel(ctx), run); err != nil {
		w.log.Error("journaling run failed", "task", res.Task, "run", res.ID, "error", err)
	}
}

func (w *Worker) task(name string) (config.TaskConfig, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	t, ok := w.tasks[name]
	return t, ok
}
