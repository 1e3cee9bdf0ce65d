package retention

import (
	"context"
	"fmt"

	"github.com/raoulx24/retainer/internal/fs"
	"github.com/raoulx24/retainer/internal/policy"
)

// DeleteExpired removes files under root created before the policy cutoff
// that pass the accessibility probe. With AllDescendants it recurses into
// child directories first; with pruneEmptyDirs every visited directory left
// empty afterwards, root included, is removed. A missing root is a no-op.
//
// Locked files are skipped and not retried within the call, so running it
// twice with the same arguments changes nothing the second time.
func (e *Engine) DeleteExpired(ctx context.Context, root string, p policy.Policy, scope Scope, pruneEmptyDirs bool) (*Report, error) {
	w := e.newWalk(root, p)

	if _, err := e.fs.Stat(root); err != nil {
		if fs.IsNotExist(err) {
			e.log.Debug("root does not exist, nothing to delete", "root", root)
			return w.report, nil
		}
		return w.report, fmt.Errorf("stat %s: %w", root, err)
	}

	e.log.Debug("deleting expired files",
		"root", root,
		"policy", p.String(),
		"cutoff", p.Cutoff(w.now),
		"scope", scope.String(),
		"prune", pruneEmptyDirs,
	)

	err := w.deleteLevel(ctx, root, scope, pruneEmptyDirs, true)
	return w.report, err
}

func (w *walk) deleteLevel(ctx context.Context, dir string, scope Scope, prune, prunable bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !w.enter(dir) {
		return nil
	}

	d, err := w.read(dir)
	if err != nil {
		if fs.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("listing %s: %w", dir, err)
	}

	for _, f := range d.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !w.candidate(f) {
			continue
		}
		if !w.expired(f) {
			w.report.SkippedYoung++
			continue
		}
		if !w.e.fs.Accessible(f.Path) {
			w.report.SkippedLocked++
			w.e.log.Debug("file is locked, skipping", "path", f.Path)
			continue
		}
		if err := w.e.fs.Remove(f.Path); err != nil {
			if !fs.IsNotExist(err) {
				w.report.fail(f.Path, "delete", err)
			}
			continue
		}
		w.report.FilesDeleted++
		w.report.BytesDeleted += f.Size
		w.e.log.Debug("deleted expired file", "path", f.Path, "created", f.Created)
	}

	if scope == AllDescendants {
		for _, sub := range d.Dirs {
			if err := w.deleteLevel(ctx, sub.Path, scope, prune, !sub.Link); err != nil {
				if err := w.subtreeFailed(ctx, sub.Path, "walk", err); err != nil {
					return err
				}
			}
		}
	}

	if prune && prunable {
		w.pruneIfEmpty(dir)
	}
	return nil
}
