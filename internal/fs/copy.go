package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// copyWithRetry copies src over dst through a temporary file in dst's
// directory, so dst is either the previous content or the full new content.
// It aborts if the source file changes mid-copy.

func copyWithRetry(ctx context.Context, f FS, src, dst string) error {
	orig, err := f.Stat(src)
	if err != nil {
		return err
	}

	return retry(ctx, "copy", func() error {
		now, err := f.Stat(src)
		if err != nil {
			return err
		}

		if sourceChanged(orig, now) {
			return errSourceChanged
		}

		return copyOnce(ctx, f, src, dst, orig)
	})
}

func sourceChanged(orig, now FileInfo) bool {
	if now.Inode != 0 && orig.Inode != 0 && now.Inode != orig.Inode {
		return true
	}
	if now.MTime.After(orig.MTime) {
		return true
	}
	if now.Size != orig.Size {
		return true
	}
	return false
}

func copyOnce(ctx context.Context, f FS, src, dst string, orig FileInfo) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	now, err := f.Stat(src)
	if err != nil {
		return err
	}
	if sourceChanged(orig, now) {
		return errSourceChanged
	}

	if err = os.Chmod(tmpName, orig.Mode.Perm()); err != nil {
		return err
	}
	if err = os.Chtimes(tmpName, orig.MTime, orig.MTime); err != nil {
		return err
	}

	if err = ctx.Err(); err != nil {
		return err
	}
	return os.Rename(tmpName, dst)
}
