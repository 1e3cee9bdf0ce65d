package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raoulx24/retainer/internal/entry"
	"github.com/raoulx24/retainer/internal/fs"
	"github.com/raoulx24/retainer/internal/policy"
)

// walk carries the state of one engine call down the recursion.
type walk struct {
	e       *Engine
	root    string
	policy  policy.Policy
	now     time.Time
	report  *Report
	visited map[string]struct{}
}

func (e *Engine) newWalk(root string, p policy.Policy) *walk {
	return &walk{
		e:       e,
		root:    root,
		policy:  p,
		now:     e.now(),
		report:  &Report{},
		visited: make(map[string]struct{}),
	}
}

// enter records dir as visited by real path. It returns false when dir was
// already visited through another path, which only happens with symlink
// cycles.
func (w *walk) enter(dir string) bool {
	resolved, err := w.e.fs.RealPath(dir)
	if err != nil {
		resolved = dir
	}
	if _, seen := w.visited[resolved]; seen {
		w.e.log.Warn("directory already visited, skipping", "path", dir, "real", resolved)
		return false
	}
	w.visited[resolved] = struct{}{}
	return true
}

// read lists dir once for this level.
func (w *walk) read(dir string) (entry.Dir, error) {
	d, err := entry.Read(w.e.fs, dir, w.e.opts.FollowSymlinks)
	if err != nil {
		return entry.Dir{}, err
	}
	w.report.SkippedOther += d.Skipped
	return d, nil
}

func (w *walk) candidate(f entry.File) bool {
	return w.e.match.matches(w.root, f.Path)
}

func (w *walk) expired(f entry.File) bool {
	return w.policy.IsExpired(f.Created, w.now)
}

// mkdir creates dir when it does not exist yet.
func (w *walk) mkdir(dir string) error {
	if info, err := w.e.fs.Stat(dir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", dir)
		}
		return nil
	}
	if err := w.e.fs.MkdirAll(dir); err != nil {
		return err
	}
	w.report.DirsCreated++
	return nil
}

// pruneIfEmpty re-lists dir after its children were processed and removes
// it when nothing is left. Remove refuses non-empty directories, so a file
// appearing between the listing and the removal only costs a failure entry.
func (w *walk) pruneIfEmpty(dir string) {
	infos, err := w.e.fs.ReadDir(dir)
	if err != nil {
		if !fs.IsNotExist(err) {
			w.report.fail(dir, "prune", err)
		}
		return
	}
	if len(infos) > 0 {
		return
	}
	if err := w.e.fs.Remove(dir); err != nil {
		if !fs.IsNotExist(err) {
			w.report.fail(dir, "prune", err)
		}
		return
	}
	w.report.DirsPruned++
	w.e.log.Debug("pruned empty directory", "path", dir)
}

// subtreeFailed records a failed child walk. Cancellation is passed up
// instead so the whole call stops.
func (w *walk) subtreeFailed(ctx context.Context, dir, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	w.report.fail(dir, op, err)
	w.e.log.Warn("subtree failed", "path", dir, "op", op, "error", err)
	return nil
}
