package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// StartFsNotify reloads the config when fsnotify reports a change to it.
// The parent directory is watched because editors and config management
// usually replace the file by rename, which drops a watch on the file itself.
func (w *Watcher) StartFsNotify(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	w.mu.RLock()
	dir := filepath.Dir(w.path)
	name := filepath.Base(w.path)
	quietFor := w.debounce
	w.mu.RUnlock()

	if err := fsw.Add(dir); err != nil {
		return err
	}
	w.log.Info("watching with fsnotify", "dir", dir)

	// a save usually arrives as several events; reload once the config file
	// has been quiet for the debounce window
	quiet := time.NewTimer(quietFor)
	quiet.Stop()
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-quiet.C:
			w.reloadSafely()

		case ev, ok := <-fsw.Events:
			if !ok {
				w.log.Error("fsnotify event channel closed")
				return nil
			}
			if filepath.Base(ev.Name) != name || ev.Op == fsnotify.Chmod {
				continue
			}
			w.log.Debug("config file event", "op", ev.Op)
			quiet.Reset(quietFor)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("fsnotify error", "error", err)
		}
	}
}

// reloadSafely runs detect and keeps the watch alive if a reload panics.
func (w *Watcher) reloadSafely() {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("config reload panicked", "panic", r)
		}
	}()
	w.detect()
}
