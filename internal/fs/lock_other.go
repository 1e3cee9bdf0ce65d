//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly && !windows

package fs

import "os"

// No lock query available; a successful open is the best we can do.
func accessible(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	st, err := f.Stat()
	return err == nil && !st.IsDir()
}
