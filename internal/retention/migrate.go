package retention

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/raoulx24/retainer/internal/fs"
	"github.com/raoulx24/retainer/internal/policy"
)

// ErrTargetInsideSource is returned when a migration target lies within the
// source tree, which would make the walk chase its own output.
var ErrTargetInsideSource = errors.New("target lies inside source")

// Migrate moves eligible files from sourceRoot into the same relative paths
// under targetRoot. Every directory the walk visits gets a mirrored (possibly
// empty) directory under targetRoot, whether or not any of its files moved.
// Source directories left empty are removed, except a source root that the
// call itself created because Options.SeedSource was set.
//
// With the zero-second policy every file is eligible regardless of age;
// otherwise only expired files are. Locked files always stay in place and are
// picked up by a later call.
func (e *Engine) Migrate(ctx context.Context, sourceRoot, targetRoot string, scope Scope, p policy.Policy) (*Report, error) {
	w := e.newWalk(sourceRoot, p)

	seeded := false
	if _, err := e.fs.Stat(sourceRoot); err != nil {
		if !fs.IsNotExist(err) {
			return w.report, fmt.Errorf("stat %s: %w", sourceRoot, err)
		}
		if !e.opts.SeedSource {
			e.log.Debug("source does not exist, nothing to migrate", "source", sourceRoot)
			return w.report, nil
		}
		if err := w.mkdir(sourceRoot); err != nil {
			return w.report, fmt.Errorf("creating source %s: %w", sourceRoot, err)
		}
		seeded = true
	}

	if e.within(targetRoot, sourceRoot) {
		return w.report, fmt.Errorf("%s in %s: %w", targetRoot, sourceRoot, ErrTargetInsideSource)
	}

	e.log.Debug("migrating",
		"source", sourceRoot,
		"target", targetRoot,
		"policy", p.String(),
		"scope", scope.String(),
		"overwrite", e.opts.Overwrite,
	)

	// a freshly seeded source is kept even though it is empty
	err := w.migrateLevel(ctx, sourceRoot, targetRoot, scope, !seeded)
	return w.report, err
}

func (w *walk) migrateLevel(ctx context.Context, src, dst string, scope Scope, prunable bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !w.enter(src) {
		return nil
	}

	d, err := w.read(src)
	if err != nil {
		if fs.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("listing %s: %w", src, err)
	}

	if err := w.mkdir(dst); err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	for _, f := range d.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !w.candidate(f) {
			continue
		}
		if !w.policy.Unfiltered() && !w.expired(f) {
			w.report.SkippedYoung++
			continue
		}

		target := filepath.Join(dst, f.Name)
		if err := w.e.Move(ctx, f.Path, target); err != nil {
			switch {
			case errors.Is(err, fs.ErrLocked):
				w.report.SkippedLocked++
				w.e.log.Debug("file is locked, leaving in place", "path", f.Path)
			case errors.Is(err, fs.ErrNotFound):
				// removed by someone else since the listing
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				w.report.fail(f.Path, "move", err)
				w.e.log.Warn("move failed", "path", f.Path, "target", target, "error", err)
			}
			continue
		}
		w.report.FilesMoved++
		w.report.BytesMoved += f.Size
	}

	for _, sub := range d.Dirs {
		target := filepath.Join(dst, sub.Name)
		if err := w.mkdir(target); err != nil {
			if err := w.subtreeFailed(ctx, sub.Path, "mirror", err); err != nil {
				return err
			}
			continue
		}
		if scope == AllDescendants {
			if err := w.migrateLevel(ctx, sub.Path, target, scope, !sub.Link); err != nil {
				if err := w.subtreeFailed(ctx, sub.Path, "walk", err); err != nil {
					return err
				}
			}
		}
	}

	if prunable {
		w.pruneIfEmpty(src)
	}
	return nil
}

// within reports whether path equals root or lies below it, comparing
// absolute cleaned paths. Symlinks in a not-yet-existing path are not
// resolved.
func (e *Engine) within(path, root string) bool {
	abs := func(p string) string {
		if r, err := e.fs.RealPath(p); err == nil {
			return r
		}
		if a, err := filepath.Abs(p); err == nil {
			return a
		}
		return filepath.Clean(p)
	}
	p, r := abs(path), abs(root)
	if p == r {
		return true
	}
	return strings.HasPrefix(p, r+string(filepath.Separator))
}
