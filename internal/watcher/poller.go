package watcher

import (
	"context"
	"time"
)

// StartPolling stats the config file every poll interval and reloads it when
// its size or modification time moved. Used where fsnotify is unavailable,
// such as network mounts and some container volumes.
func (w *Watcher) StartPolling(ctx context.Context) {
	w.mu.RLock()
	every := w.interval
	w.mu.RUnlock()

	w.log.Info("watching by polling", "interval", every)

	tick := time.NewTicker(every)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			w.reloadSafely()
		}
	}
}
