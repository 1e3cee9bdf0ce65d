//go:build windows

package fs

import (
	"os"
	"syscall"
	"time"
)

func createdAt(_ string, info os.FileInfo, _ bool) time.Time {
	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(0, attrs.CreationTime.Nanoseconds())
}
