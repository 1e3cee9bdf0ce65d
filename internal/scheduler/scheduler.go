// Package scheduler fires tasks on their cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/retainer/internal/config"
	"github.com/raoulx24/retainer/internal/logging"
)

// Scheduler keeps one cron entry per scheduled task and calls fire with the
// task name when it is due. fire must not block; the daemon hands it
// straight to the mailbox.
type Scheduler struct {
	mu      sync.Mutex
	cron    *cron.Cron
	fire    func(task string)
	log     logging.Logger
	entries map[string]entry
	running bool
}

type entry struct {
	id   cron.EntryID
	spec string
}

// New creates a stopped scheduler.
func New(fire func(task string), log logging.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		fire:    fire,
		log:     log.With("component", "scheduler"),
		entries: make(map[string]entry),
	}
}

// Update syncs the cron entries with tasks. Unchanged schedules keep their
// entry so a reload does not shift their next run; tasks without a cron
// expression are manual only.
func (s *Scheduler) Update(tasks []config.TaskConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]string, len(tasks))
	for _, t := range tasks {
		if t.Cron != "" {
			want[t.Name] = t.Cron
		}
	}

	for name, e := range s.entries {
		if spec, ok := want[name]; ok && spec == e.spec {
			continue
		}
		s.cron.Remove(e.id)
		delete(s.entries, name)
		s.log.Debug("schedule removed", "task", name, "cron", e.spec)
	}

	for name, spec := range want {
		if _, ok := s.entries[name]; ok {
			continue
		}
		task := name
		id, err := s.cron.AddFunc(spec, func() {
			s.log.Debug("task due", "task", task)
			s.fire(task)
		})
		if err != nil {
			return fmt.Errorf("scheduling task %q with %q: %w", name, spec, err)
		}
		s.entries[name] = entry{id: id, spec: spec}
		s.log.Info("task scheduled", "task", name, "cron", spec)
	}

	return nil
}

// Start runs the cron loop until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.cron.Start()
	s.running = true
	s.mu.Unlock()

	s.log.Info("scheduler started", "tasks", s.Len())

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// Stop halts the cron loop and waits for in-flight fire calls.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.log.Info("scheduler stopped")
}

// Next reports when task runs next. False for unscheduled tasks or before
// Start.
func (s *Scheduler) Next(task string) (time.Time, bool) {
	s.mu.Lock()
	e, ok := s.entries[task]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}

	next := s.cron.Entry(e.id).Next
	return next, !next.IsZero()
}

// Len is the number of scheduled tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
