package retention

import (
	"context"
	"fmt"

	"github.com/raoulx24/retainer/internal/entry"
	"github.com/raoulx24/retainer/internal/fs"
	"github.com/raoulx24/retainer/internal/policy"
)

// List returns the candidate files under root, oldest first. A missing root
// yields no files.
func (e *Engine) List(ctx context.Context, root string, scope Scope) ([]entry.File, error) {
	w := e.newWalk(root, policy.Immediate())

	var files []entry.File
	var collect func(dir string) error
	collect = func(dir string) error {
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
			if w.candidate(f) {
				files = append(files, f)
			}
		}
		if scope == AllDescendants {
			for _, sub := range d.Dirs {
				if err := collect(sub.Path); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := collect(root); err != nil {
		return nil, err
	}

	entry.SortFiles(files)
	return files, nil
}
