package watcher

import (
	"os"
	"time"
)

// detect calls onChange if the file differs from the last version seen and
// is stable. An unstable file is left for the next event or poll.
func (w *Watcher) detect() {
	fp, err := w.stat()
	if err != nil {
		w.log.Debug("cannot stat watched file", "error", err)
		return
	}

	w.mu.RLock()
	unchanged := fp == w.last
	w.mu.RUnlock()
	if unchanged {
		return
	}

	if !w.isStable(fp) {
		w.log.Debug("file still changing, waiting")
		return
	}

	w.mu.Lock()
	w.last = fp
	w.mu.Unlock()

	w.log.Info("watched file changed")
	w.onChange()
}

func (w *Watcher) stat() (fingerprint, error) {
	w.mu.RLock()
	path := w.path
	w.mu.RUnlock()

	info, err := os.Stat(path)
	if err != nil {
		return fingerprint{}, err
	}
	return fingerprint{modTime: info.ModTime(), size: info.Size()}, nil
}

// isStable waits one stability window and reports whether the file is
// still the version fp describes.
func (w *Watcher) isStable(fp fingerprint) bool {
	w.mu.RLock()
	stability := w.stability
	w.mu.RUnlock()

	time.Sleep(stability)

	again, err := w.stat()
	if err != nil {
		return false
	}
	return again == fp
}
