package retention

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/raoulx24/retainer/internal/fs"
)

// Copy copies the file src to dst, creating dst's missing parent
// directories. An existing dst is replaced only when overwrite is set;
// otherwise fs.ErrOverwriteConflict is returned and nothing is touched.
// src must pass the accessibility probe (fs.ErrLocked otherwise). With
// deleteSource, src is removed once the copy has fully succeeded.
func (e *Engine) Copy(ctx context.Context, src, dst string, deleteSource, overwrite bool) error {
	info, err := e.fs.Stat(src)
	if err != nil {
		if fs.IsNotExist(err) {
			return fmt.Errorf("%s: %w", src, fs.ErrNotFound)
		}
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	if e.samePath(src, dst) {
		return fmt.Errorf("%s and %s are the same file", src, dst)
	}

	if !e.fs.Accessible(src) {
		return fmt.Errorf("%s: %w", src, fs.ErrLocked)
	}

	if _, err := e.fs.Lstat(dst); err == nil {
		if !overwrite {
			return fmt.Errorf("%s: %w", dst, fs.ErrOverwriteConflict)
		}
	} else if !fs.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", dst, err)
	}

	if err := e.fs.MkdirAll(filepath.Dir(dst)); err != nil {
		return fmt.Errorf("creating parent of %s: %w", dst, err)
	}

	if err := e.fs.CopyFile(ctx, src, dst); err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}

	if deleteSource {
		if err := e.fs.Remove(src); err != nil && !fs.IsNotExist(err) {
			return fmt.Errorf("removing source %s: %w", src, err)
		}
	}

	e.log.Debug("copied file", "src", src, "dst", dst, "size", info.Size, "deleteSource", deleteSource)
	return nil
}

// Move is Copy with deleteSource set and the engine's overwrite option.
func (e *Engine) Move(ctx context.Context, src, dst string) error {
	return e.Copy(ctx, src, dst, true, e.opts.Overwrite)
}

// samePath reports whether a and b resolve to the same file. A missing b
// cannot be a.
func (e *Engine) samePath(a, b string) bool {
	ra, err := e.fs.RealPath(a)
	if err != nil {
		return false
	}
	rb, err := e.fs.RealPath(b)
	if err != nil {
		return false
	}
	return ra == rb
}
