package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/retainer/internal/config"
	"github.com/raoulx24/retainer/internal/logging"
)

type recorder struct {
	mu    sync.Mutex
	fired []string
}

func (r *recorder) fire(task string) {
	r.mu.Lock()
	r.fired = append(r.fired, task)
	r.mu.Unlock()
}

func (r *recorder) count(task string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.fired {
		if f == task {
			n++
		}
	}
	return n
}

func TestUpdate(t *testing.T) {
	s := New(func(string) {}, logging.Discard())

	require.NoError(t, s.Update([]config.TaskConfig{
		{Name: "a", Cron: "0 3 * * *"},
		{Name: "b", Cron: "*/5 * * * *"},
		{Name: "manual"},
	}))
	assert.Equal(t, 2, s.Len())
	idA := s.entries["a"].id
	idB := s.entries["b"].id

	require.NoError(t, s.Update([]config.TaskConfig{
		{Name: "a", Cron: "0 3 * * *"},
		{Name: "b", Cron: "0 4 * * *"},
	}))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, idA, s.entries["a"].id, "unchanged schedule keeps its entry")
	assert.NotEqual(t, idB, s.entries["b"].id)

	require.NoError(t, s.Update(nil))
	assert.Zero(t, s.Len())
	assert.Empty(t, s.cron.Entries())
}

func TestUpdate_BadSpec(t *testing.T) {
	s := New(func(string) {}, logging.Discard())
	assert.Error(t, s.Update([]config.TaskConfig{{Name: "a", Cron: "whenever"}}))
}

func TestNext(t *testing.T) {
	s := New(func(string) {}, logging.Discard())
	require.NoError(t, s.Update([]config.TaskConfig{{Name: "a", Cron: "0 3 * * *"}}))

	_, ok := s.Next("a")
	assert.False(t, ok, "no next run before Start")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	require.Eventually(t, func() bool {
		_, ok := s.Next("a")
		return ok
	}, time.Second, 10*time.Millisecond)

	next, _ := s.Next("a")
	assert.Equal(t, 3, next.Hour())
	assert.True(t, next.After(time.Now()))

	_, ok = s.Next("missing")
	assert.False(t, ok)
}

func TestStart_Fires(t *testing.T) {
	rec := &recorder{}
	s := New(rec.fire, logging.Discard())
	require.NoError(t, s.Update([]config.TaskConfig{{Name: "tick", Cron: "@every 1s"}}))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	require.Eventually(t, func() bool { return rec.count("tick") >= 1 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return !s.running
	}, time.Second, 10*time.Millisecond)
}
