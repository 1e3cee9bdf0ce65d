package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/retainer/internal/config"
	"github.com/raoulx24/retainer/internal/journal"
	"github.com/raoulx24/retainer/internal/logging"
	"github.com/raoulx24/retainer/internal/mailbox"
	"github.com/raoulx24/retainer/internal/metrics"
	"github.com/raoulx24/retainer/internal/policy"
	"github.com/raoulx24/retainer/internal/retention"
)

type memJournal struct {
	mu   sync.Mutex
	runs []journal.Run
}

func (j *memJournal) Record(_ context.Context, r journal.Run) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs = append(j.runs, r)
	return nil
}

func (j *memJournal) all() []journal.Run {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]journal.Run(nil), j.runs...)
}

type harness struct {
	w   *Worker
	mb  *mailbox.Mailbox[string, Job]
	j   *memJournal
	reg *prometheus.Registry
}

// Files written by the test are created now; the worker clock runs two
// days ahead so a one day policy finds them expired.
func newHarness(t *testing.T, tasks []config.TaskConfig) *harness {
	t.Helper()
	h := &harness{
		mb:  mailbox.New[string, Job](),
		j:   &memJournal{},
		reg: prometheus.NewRegistry(),
	}
	later := time.Now().Add(48 * time.Hour)
	h.w = New(tasks, logging.Discard(), h.mb, nil,
		WithJournal(h.j),
		WithMetrics(metrics.NewCollector("retainer", h.reg)),
		WithClock(func() time.Time { return later }),
	)
	return h
}

func write(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
}

var oneDay = policy.Policy{Unit: policy.Day, Magnitude: 1}

func TestRunTask_Delete(t *testing.T) {
	src := filepath.Join(t.TempDir(), "spool")
	write(t, filepath.Join(src, "a.log"))
	write(t, filepath.Join(src, "sub", "b.log"))

	h := newHarness(t, []config.TaskConfig{{
		Name: "tmp", Action: config.ActionDelete, Source: src, Scope: "all",
		Age: &oneDay, PruneEmptyDirs: true,
	}})

	res, err := h.w.RunTask(context.Background(), "tmp", TriggerManual)
	require.NoError(t, err)
	require.NoError(t, res.Err)

	assert.Equal(t, StatusOK, res.Status)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 2, res.Report.FilesDeleted)
	assert.NoDirExists(t, src)

	runs := h.j.all()
	require.Len(t, runs, 1)
	assert.Equal(t, res.ID, runs[0].ID)
	assert.Equal(t, "tmp", runs[0].Task)
	assert.Equal(t, TriggerManual, runs[0].Trigger)
	assert.Equal(t, StatusOK, runs[0].Status)
	assert.Equal(t, 2, runs[0].FilesDeleted)
	assert.Equal(t, int64(8), runs[0].BytesDeleted)

	n, err := testutil.GatherAndCount(h.reg, "retainer_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunTask_Migrate(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "in")
	dst := filepath.Join(root, "out")
	write(t, filepath.Join(src, "x", "a.dat"))

	h := newHarness(t, []config.TaskConfig{{
		Name: "archive", Action: config.ActionMigrate, Source: src, Target: dst, Scope: "all",
		Age: &oneDay,
	}})

	res, err := h.w.RunTask(context.Background(), "archive", TriggerCron)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 1, res.Report.FilesMoved)
	assert.FileExists(t, filepath.Join(dst, "x", "a.dat"))
	assert.NoFileExists(t, filepath.Join(src, "x", "a.dat"))
}

func TestRunTask_Evict(t *testing.T) {
	src := filepath.Join(t.TempDir(), "cache")
	write(t, filepath.Join(src, "a"))
	write(t, filepath.Join(src, "b"))

	h := newHarness(t, []config.TaskConfig{{
		Name: "cache", Action: config.ActionEvict, Source: src, Scope: "all", MaxSize: "4B",
	}})

	res, err := h.w.RunTask(context.Background(), "cache", TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, 1, res.Report.FilesDeleted)
}

func TestRunTask_Failed(t *testing.T) {
	src := filepath.Join(t.TempDir(), "in")
	write(t, filepath.Join(src, "a"))

	h := newHarness(t, []config.TaskConfig{{
		Name: "loop", Action: config.ActionMigrate, Source: src, Target: filepath.Join(src, "nested"), Scope: "all",
	}})

	res, err := h.w.RunTask(context.Background(), "loop", TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.True(t, errors.Is(res.Err, retention.ErrTargetInsideSource))

	runs := h.j.all()
	require.Len(t, runs, 1)
	assert.Equal(t, StatusFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}

func TestRunTask_Unknown(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.w.RunTask(context.Background(), "nope", TriggerManual)
	assert.ErrorIs(t, err, ErrUnknownTask)
	assert.ErrorIs(t, h.w.Submit("nope", TriggerManual), ErrUnknownTask)
	assert.Empty(t, h.j.all())
}

func TestUpdateConfig(t *testing.T) {
	h := newHarness(t, []config.TaskConfig{{Name: "a", Action: config.ActionDelete, Source: t.TempDir(), Scope: "all"}})

	require.NoError(t, h.w.Submit("a", TriggerManual))

	h.w.UpdateConfig([]config.TaskConfig{{Name: "b", Action: config.ActionDelete, Source: t.TempDir(), Scope: "all"}})
	assert.ErrorIs(t, h.w.Submit("a", TriggerManual), ErrUnknownTask)
	assert.NoError(t, h.w.Submit("b", TriggerManual))
}

func TestStart_ProcessesSubmittedJobs(t *testing.T) {
	src := filepath.Join(t.TempDir(), "spool")
	write(t, filepath.Join(src, "a"))

	h := newHarness(t, []config.TaskConfig{{
		Name: "tmp", Action: config.ActionDelete, Source: src, Scope: "this", Age: &oneDay,
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.w.Start(ctx)
		close(done)
	}()

	require.NoError(t, h.w.Submit("tmp", TriggerCron))
	require.Eventually(t, func() bool { return len(h.j.all()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.NoFileExists(t, filepath.Join(src, "a"))

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
