// Package retention implements the age-based retention and migration engine.
//
// The engine walks a directory tree one level at a time: files first, then
// child directories, then the directory itself. Files are deleted or moved
// when they are older than a policy cutoff and pass the accessibility probe;
// directories left with no children are pruned bottom-up. Every walk reads
// the clock once, so a single invocation works against one cutoff.
//
// Per-file failures are collected in a Report and never stop the walk.
// Failures to list or mirror a whole subtree are recorded by the parent, which
// carries on with the remaining siblings; at the walk root they are returned
// as the call's error.
package retention

import (
	"fmt"
	"strings"
	"time"

	"github.com/raoulx24/retainer/internal/fs"
	"github.com/raoulx24/retainer/internal/logging"
)

// Scope controls whether a walk descends into child directories.
type Scope int

const (
	ThisDirectoryOnly Scope = iota
	AllDescendants
)

func (s Scope) String() string {
	if s == AllDescendants {
		return "all"
	}
	return "this"
}

// ParseScope accepts "this" (or "top", "shallow") and "all" (or "recursive").
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "this", "top", "shallow", "this-directory":
		return ThisDirectoryOnly, nil
	case "", "all", "recursive", "all-descendants":
		return AllDescendants, nil
	default:
		return ThisDirectoryOnly, fmt.Errorf("unknown scope %q", s)
	}
}

// Options tune how the engine treats candidates.
type Options struct {
	// Include restricts candidates to files whose slash-separated path,
	// relative to the walk root, matches one of these doublestar patterns.
	// Patterns without a slash also match the base name. Empty means all.
	Include []string
	// FollowSymlinks resolves symlinks and treats them as their target.
	// Visited directories are tracked by real path to break cycles.
	FollowSymlinks bool
	// Overwrite lets migration replace existing files in the target tree.
	Overwrite bool
	// SeedSource makes Migrate create a missing source root instead of
	// treating it as a no-op.
	SeedSource bool
}

// Engine runs retention walks against an fs.FS.
type Engine struct {
	fs    fs.FS
	log   logging.Logger
	now   func() time.Time
	opts  Options
	match *matcher
}

// New creates an engine using the OS filesystem when filesystem is nil.
// Migration overwrites existing targets unless WithOptions says otherwise.
func New(filesystem fs.FS, log logging.Logger) *Engine {
	if filesystem == nil {
		filesystem = fs.New()
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Engine{
		fs:    filesystem,
		log:   log.With("component", "retention"),
		now:   time.Now,
		opts:  Options{Overwrite: true},
		match: &matcher{},
	}
}

// WithOptions returns a copy of the engine using opts.
func (e *Engine) WithOptions(opts Options) (*Engine, error) {
	m, err := newMatcher(opts.Include)
	if err != nil {
		return nil, err
	}
	c := *e
	c.opts = opts
	c.match = m
	return &c, nil
}

// WithClock returns a copy of the engine reading the current time from now.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	c := *e
	c.now = now
	return &c
}

// Options returns the options in effect.
func (e *Engine) Options() Options {
	return e.opts
}
