// Package watcher monitors the config file and reports when it changed.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/raoulx24/retainer/internal/config"
	"github.com/raoulx24/retainer/internal/fsprobe"
	"github.com/raoulx24/retainer/internal/logging"
)

// Watcher observes one file and calls onChange once the file has changed
// and stopped growing.
type Watcher struct {
	mu sync.RWMutex

	path      string
	interval  time.Duration
	mode      string
	debounce  time.Duration
	stability time.Duration

	log logging.Logger

	last fingerprint

	onChange func()
}

// fingerprint identifies one version of the watched file.
type fingerprint struct {
	modTime time.Time
	size    int64
}

// New creates a watcher for path. The current state of the file is the
// baseline, so starting the watcher does not fire onChange by itself.
func New(path string, cfg config.ReloadConfig, log logging.Logger, onChange func()) *Watcher {
	w := &Watcher{
		path:      path,
		interval:  cfg.PollInterval,
		mode:      cfg.Method,
		debounce:  cfg.DebounceWindow,
		stability: cfg.StabilityWindow,
		log:       log.With("component", "watcher", "path", path),
		onChange:  onChange,
	}
	if fp, err := w.stat(); err == nil {
		w.last = fp
	}
	return w
}

// Start chooses the correct watching strategy based on config and blocks
// until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.RLock()
	mode := w.mode
	dir := filepath.Dir(w.path)
	w.mu.RUnlock()

	switch mode {
	case "fsnotify":
		return w.StartFsNotify(ctx)

	case "poll":
		w.StartPolling(ctx)
		return nil

	case "auto":
		res := fsprobe.Probe(dir)
		if res.FsnotifySupported {
			return w.StartFsNotify(ctx)
		}
		w.log.Warn("fsnotify disabled, polling instead", "reason", res.Reason)
		w.StartPolling(ctx)
		return nil

	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}
