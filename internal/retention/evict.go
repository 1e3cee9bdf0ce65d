package retention

import (
	"context"
	"fmt"

	"github.com/raoulx24/retainer/internal/entry"
	"github.com/raoulx24/retainer/internal/fs"
	"github.com/raoulx24/retainer/internal/policy"
)

// Evict deletes the oldest accessible candidate files under root until their
// total size is at most maxBytes. Locked files count towards the total but
// are never deleted, so the limit may remain exceeded. With pruneEmptyDirs,
// directories left empty are removed bottom-up afterwards.
func (e *Engine) Evict(ctx context.Context, root string, maxBytes int64, scope Scope, pruneEmptyDirs bool) (*Report, error) {
	w := e.newWalk(root, policy.Immediate())

	files, err := e.List(ctx, root, scope)
	if err != nil {
		return w.report, err
	}

	total := entry.TotalSize(files)
	e.log.Debug("evicting", "root", root, "total", total, "max", maxBytes, "files", len(files))

	for _, f := range files {
		if total <= maxBytes {
			break
		}
		if err := ctx.Err(); err != nil {
			return w.report, err
		}
		if !e.fs.Accessible(f.Path) {
			w.report.SkippedLocked++
			continue
		}
		if err := e.fs.Remove(f.Path); err != nil {
			if fs.IsNotExist(err) {
				total -= f.Size
			} else {
				w.report.fail(f.Path, "delete", err)
			}
			continue
		}
		total -= f.Size
		w.report.FilesDeleted++
		w.report.BytesDeleted += f.Size
	}

	if pruneEmptyDirs && w.report.FilesDeleted > 0 {
		if err := w.pruneTree(ctx, root, scope, true); err != nil {
			return w.report, err
		}
	}

	if total > maxBytes {
		e.log.Warn("size limit still exceeded after eviction",
			"root", root,
			"total", total,
			"max", maxBytes,
			"locked", w.report.SkippedLocked,
		)
	}
	return w.report, nil
}

// pruneTree removes empty directories below dir, deepest first, then dir.
func (w *walk) pruneTree(ctx context.Context, dir string, scope Scope, prunable bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !w.enter(dir) {
		return nil
	}
	if scope == AllDescendants {
		d, err := entry.Read(w.e.fs, dir, w.e.opts.FollowSymlinks)
		if err != nil {
			if fs.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("listing %s: %w", dir, err)
		}
		for _, sub := range d.Dirs {
			if err := w.pruneTree(ctx, sub.Path, scope, !sub.Link); err != nil {
				if err := w.subtreeFailed(ctx, sub.Path, "prune", err); err != nil {
					return err
				}
			}
		}
	}
	if prunable {
		w.pruneIfEmpty(dir)
	}
	return nil
}
