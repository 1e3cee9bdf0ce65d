package retention

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/retainer/internal/policy"
)

var thirtyDays = policy.Policy{Unit: policy.Day, Magnitude: 30}

func TestDeleteExpired_ScenarioA_TopLevelExpiredFileAndPrune(t *testing.T) {
	f := newFixture(t)
	src := f.mkdir("src")
	a := f.file("src/a.txt", "a", 40*day)

	report, err := f.e.DeleteExpired(context.Background(), src, thirtyDays, ThisDirectoryOnly, true)
	require.NoError(t, err)

	assert.False(t, exists(a))
	assert.False(t, exists(src), "empty root is pruned")
	assert.Equal(t, 1, report.FilesDeleted)
	assert.Equal(t, int64(1), report.BytesDeleted)
	assert.Equal(t, 1, report.DirsPruned)
	assert.Empty(t, report.Failures)
}

func TestDeleteExpired_ScenarioA_WithoutPruneKeepsRoot(t *testing.T) {
	f := newFixture(t)
	src := f.mkdir("src")
	f.file("src/a.txt", "a", 40*day)

	_, err := f.e.DeleteExpired(context.Background(), src, thirtyDays, ThisDirectoryOnly, false)
	require.NoError(t, err)
	assert.True(t, exists(src))
}

func TestDeleteExpired_ScenarioB_YoungFileKeepsItsDirectory(t *testing.T) {
	f := newFixture(t)
	src := f.mkdir("src")
	b := f.file("src/sub/b.txt", "b", 5*day)

	report, err := f.e.DeleteExpired(context.Background(), src, thirtyDays, AllDescendants, true)
	require.NoError(t, err)

	assert.True(t, exists(b))
	assert.True(t, exists(f.path("src/sub")))
	assert.True(t, exists(src))
	assert.Equal(t, 0, report.FilesDeleted)
	assert.Equal(t, 1, report.SkippedYoung)
	assert.Equal(t, 0, report.DirsPruned)
}

func TestDeleteExpired_OnlyExpiredFilesAreRemoved(t *testing.T) {
	f := newFixture(t)
	src := f.mkdir("src")
	old := []string{
		f.file("src/old1", "x", 31*day),
		f.file("src/deep/old2", "x", 365*day),
	}
	young := []string{
		f.file("src/young1", "x", 29*day),
		f.file("src/deep/young2", "x", time.Hour),
	}

	_, err := f.e.DeleteExpired(context.Background(), src, thirtyDays, AllDescendants, true)
	require.NoError(t, err)

	for _, p := range old {
		assert.False(t, exists(p), p)
	}
	for _, p := range young {
		assert.True(t, exists(p), p)
	}
}

func TestDeleteExpired_ThisDirectoryOnlyLeavesChildren(t *testing.T) {
	f := newFixture(t)
	src := f.mkdir("src")
	top := f.file("src/top", "x", 40*day)
	nested := f.file("src/sub/nested", "x", 40*day)

	_, err := f.e.DeleteExpired(context.Background(), src, thirtyDays, ThisDirectoryOnly, true)
	require.NoError(t, err)

	assert.False(t, exists(top))
	assert.True(t, exists(nested))
	assert.True(t, exists(src), "root still has a subdirectory")
}

func TestDeleteExpired_PrunesBottomUp(t *testing.T) {
	f := newFixture(t)
	src := f.mkdir("src")
	f.file("src/a/b/c/old.log", "x", 40*day)
	f.mkdir("src/a/empty")
	keep := f.file("src/k/young.log", "x", day)

	report, err := f.e.DeleteExpired(context.Background(), src, thirtyDays, AllDescendants, true)
	require.NoError(t, err)

	assert.False(t, exists(f.path("src/a")), "whole chain collapses once its leaves are gone")
	assert.True(t, exists(keep))
	assert.True(t, exists(f.path("src/k")))
	assert.True(t, exists(src))
	// a/b/c, a/b, a/empty, a
	assert.Equal(t, 4, report.DirsPruned)
}

func TestDeleteExpired_Idempotent(t *testing.T) {
	f := newFixture(t)
	src := f.mkdir("src")
	f.file("src/old", "x", 40*day)
	f.file("src/sub/old", "x", 40*day)
	f.file("src/sub/young", "x", day)
	locked := f.file("src/locked", "x", 40*day)
	f.fs.locked[locked] = true

	first, err := f.e.DeleteExpired(context.Background(), src, thirtyDays, AllDescendants, true)
	require.NoError(t, err)
	assert.True(t, first.Changed())

	second, err := f.e.DeleteExpired(context.Background(), src, thirtyDays, AllDescendants, true)
	require.NoError(t, err)
	assert.False(t, second.Changed())
	assert.Equal(t, 0, second.FilesDeleted)
	assert.Equal(t, 0, second.DirsPruned)
}

func TestDeleteExpired_LockedFilesStay(t *testing.T) {
	f := newFixture(t)
	src := f.mkdir("src")
	locked := f.file("src/sub/held.db", "payload", 400*day)
	f.fs.locked[locked] = true

	report, err := f.e.DeleteExpired(context.Background(), src, thirtyDays, AllDescendants, true)
	require.NoError(t, err)

	assert.Equal(t, "payload", read(t, locked))
	assert.True(t, exists(f.path("src/sub")), "directory with a locked file is not empty")
	assert.Equal(t, 1, report.SkippedLocked)
	assert.Equal(t, 0, report.FilesDeleted)
}

func TestDeleteExpired_MissingRootIsNoop(t *testing.T) {
	f := newFixture(t)
	report, err := f.e.DeleteExpired(context.Background(), f.path("nope"), thirtyDays, AllDescendants, true)
	require.NoError(t, err)
	assert.False(t, report.Changed())
}

func TestDeleteExpired_IncludePatterns(t *testing.T) {
	f := newFixture(t)
	src := f.mkdir("src")
	logFile := f.file("src/app/old.log", "x", 40*day)
	gz := f.file("src/app/old.log.gz", "x", 40*day)
	f.withOptions(Options{Include: []string{"*.log"}})

	_, err := f.e.DeleteExpired(context.Background(), src, thirtyDays, AllDescendants, true)
	require.NoError(t, err)

	assert.False(t, exists(logFile))
	assert.True(t, exists(gz))
}

func TestDeleteExpired_SymlinkCycle(t *testing.T) {
	f := newFixture(t)
	src := f.mkdir("src")
	old := f.file("src/sub/old", "x", 40*day)
	require.NoError(t, os.Symlink(src, filepath.Join(src, "sub", "loop")))

	t.Run("links are not followed by default", func(t *testing.T) {
		report, err := f.e.DeleteExpired(context.Background(), src, thirtyDays, AllDescendants, true)
		require.NoError(t, err)
		assert.False(t, exists(old))
		assert.Equal(t, 1, report.SkippedOther)
		assert.True(t, exists(f.path("src/sub/loop")))
	})

	t.Run("followed links do not loop", func(t *testing.T) {
		again := f.file("src/sub/old2", "x", 40*day)
		f.withOptions(Options{FollowSymlinks: true})

		_, err := f.e.DeleteExpired(context.Background(), src, thirtyDays, AllDescendants, true)
		require.NoError(t, err)
		assert.False(t, exists(again))
		assert.True(t, exists(f.path("src/sub/loop")), "the link itself is never pruned")
	})
}

func TestDeleteExpired_CancelledContext(t *testing.T) {
	f := newFixture(t)
	src := f.mkdir("src")
	old := f.file("src/old", "x", 40*day)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.e.DeleteExpired(ctx, src, thirtyDays, AllDescendants, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, exists(old))
}

func TestDeleteExpired_UsesOneCutoffForTheWholeWalk(t *testing.T) {
	f := newFixture(t)
	src := f.mkdir("src")
	p := f.file("src/edge", "x", 30*day+time.Second)

	calls := 0
	base := f.now
	f.e = f.e.WithClock(func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Hour)
	})

	_, err := f.e.DeleteExpired(context.Background(), src, thirtyDays, AllDescendants, false)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.False(t, exists(p))
}
