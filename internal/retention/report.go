package retention

import (
	"errors"
	"fmt"
)

// Failure is a per-entry error collected during a walk.
type Failure struct {
	Path string
	Op   string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Op, f.Path, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report summarizes what a walk did.
type Report struct {
	FilesDeleted  int
	FilesMoved    int
	BytesDeleted  int64
	BytesMoved    int64
	DirsPruned    int
	DirsCreated   int
	SkippedLocked int
	SkippedYoung  int
	// SkippedOther counts children that are neither regular files nor
	// directories, including symlinks that were not followed.
	SkippedOther int

	Failures []Failure
}

func (r *Report) fail(path, op string, err error) {
	r.Failures = append(r.Failures, Failure{Path: path, Op: op, Err: err})
}

// Err joins every recorded failure, or returns nil when there were none.
func (r *Report) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Changed reports whether the walk modified the filesystem.
func (r *Report) Changed() bool {
	return r.FilesDeleted+r.FilesMoved+r.DirsPruned+r.DirsCreated > 0
}
