package watcher

import (
	"github.com/raoulx24/retainer/internal/config"
)

// UpdateConfig updates the watch settings for hot-reload. The stability
// window applies at once; the rest is read the next time Start is called.
func (w *Watcher) UpdateConfig(cfg config.ReloadConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.interval = cfg.PollInterval
	w.mode = cfg.Method
	w.debounce = cfg.DebounceWindow
	w.stability = cfg.StabilityWindow
}
