package retention

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/retainer/internal/fs"
)

func TestCopy(t *testing.T) {
	ctx := context.Background()

	t.Run("creates missing parents and keeps source", func(t *testing.T) {
		f := newFixture(t)
		src := f.file("in/a.txt", "a", 0)
		dst := f.path("out/deep/er/a.txt")

		require.NoError(t, f.e.Copy(ctx, src, dst, false, false))
		assert.Equal(t, "a", read(t, dst))
		assert.True(t, exists(src))
	})

	t.Run("deleteSource removes the source after copying", func(t *testing.T) {
		f := newFixture(t)
		src := f.file("in/a.txt", "a", 0)
		dst := f.path("out/a.txt")

		require.NoError(t, f.e.Copy(ctx, src, dst, true, false))
		assert.Equal(t, "a", read(t, dst))
		assert.False(t, exists(src))
	})

	t.Run("existing target without overwrite is a conflict", func(t *testing.T) {
		f := newFixture(t)
		src := f.file("in/a.txt", "new", 0)
		dst := f.file("out/a.txt", "old", 0)

		err := f.e.Copy(ctx, src, dst, true, false)
		assert.ErrorIs(t, err, fs.ErrOverwriteConflict)
		assert.Equal(t, "old", read(t, dst))
		assert.Equal(t, "new", read(t, src))
	})

	t.Run("existing target with overwrite is replaced", func(t *testing.T) {
		f := newFixture(t)
		src := f.file("in/a.txt", "new", 0)
		dst := f.file("out/a.txt", "old", 0)

		require.NoError(t, f.e.Copy(ctx, src, dst, true, true))
		assert.Equal(t, "new", read(t, dst))
		assert.False(t, exists(src))
	})

	t.Run("missing source", func(t *testing.T) {
		f := newFixture(t)
		err := f.e.Copy(ctx, f.path("nope"), f.path("out"), false, true)
		assert.ErrorIs(t, err, fs.ErrNotFound)
	})

	t.Run("locked source", func(t *testing.T) {
		f := newFixture(t)
		src := f.file("in/a.txt", "a", 0)
		f.fs.locked[src] = true

		err := f.e.Copy(ctx, src, f.path("out/a.txt"), true, true)
		assert.ErrorIs(t, err, fs.ErrLocked)
		assert.True(t, exists(src))
		assert.False(t, exists(f.path("out/a.txt")))
	})

	t.Run("copy onto itself is refused", func(t *testing.T) {
		f := newFixture(t)
		src := f.file("in/a.txt", "a", 0)

		err := f.e.Copy(ctx, src, src, true, true)
		require.Error(t, err)
		assert.Equal(t, "a", read(t, src))
	})

	t.Run("directories are refused", func(t *testing.T) {
		f := newFixture(t)
		dir := f.mkdir("in")
		assert.Error(t, f.e.Copy(ctx, dir, f.path("out"), false, true))
	})
}
