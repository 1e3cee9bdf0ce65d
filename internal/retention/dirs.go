package retention

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/raoulx24/retainer/internal/fs"
	"github.com/raoulx24/retainer/internal/policy"
)

// Clear removes everything inside root and keeps root itself. A missing
// root is created.
func (e *Engine) Clear(ctx context.Context, root string) (*Report, error) {
	w := e.newWalk(root, policy.Immediate())

	infos, err := e.fs.ReadDir(root)
	if err != nil {
		if fs.IsNotExist(err) {
			return w.report, w.mkdir(root)
		}
		return w.report, fmt.Errorf("listing %s: %w", root, err)
	}

	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return w.report, err
		}
		if err := e.fs.RemoveAll(info.Path); err != nil {
			w.report.fail(info.Path, "clear", err)
			continue
		}
		if info.IsDir() {
			w.report.DirsPruned++
		} else {
			w.report.FilesDeleted++
			w.report.BytesDeleted += info.Size
		}
	}
	return w.report, nil
}

// MoveDir renames the directory src to dst. A missing src is a no-op and an
// existing dst is an fs.ErrOverwriteConflict. When src and dst live on
// different filesystems the tree is migrated file by file instead. Files that
// fail to move are reported in the returned error, and locked files left in
// src make it wrap fs.ErrLocked; in both cases src is kept.
func (e *Engine) MoveDir(ctx context.Context, src, dst string) error {
	info, err := e.fs.Stat(src)
	if err != nil {
		if fs.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}

	if _, err := e.fs.Lstat(dst); err == nil {
		return fmt.Errorf("%s: %w", dst, fs.ErrOverwriteConflict)
	} else if !fs.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", dst, err)
	}

	if err := e.fs.MkdirAll(filepath.Dir(dst)); err != nil {
		return fmt.Errorf("creating parent of %s: %w", dst, err)
	}

	err = e.fs.Rename(ctx, src, dst)
	if err == nil {
		e.log.Debug("moved directory", "src", src, "dst", dst)
		return nil
	}
	if !fs.IsCrossDevice(err) {
		return fmt.Errorf("moving %s to %s: %w", src, dst, err)
	}

	e.log.Info("rename crosses filesystems, migrating instead", "src", src, "dst", dst)

	mover, err := e.WithOptions(Options{FollowSymlinks: e.opts.FollowSymlinks})
	if err != nil {
		return err
	}
	report, err := mover.Migrate(ctx, src, dst, AllDescendants, policy.Immediate())
	if err != nil {
		return err
	}
	if report.SkippedLocked > 0 {
		return errors.Join(report.Err(),
			fmt.Errorf("%d files left in %s: %w", report.SkippedLocked, src, fs.ErrLocked))
	}
	return report.Err()
}
