//go:build !linux && !darwin && !windows

package fs

import (
	"os"
	"time"
)

// No portable birth time here; the modification time is the closest proxy.
func createdAt(_ string, info os.FileInfo, _ bool) time.Time {
	return info.ModTime()
}
