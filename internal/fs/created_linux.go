//go:build linux

package fs

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// createdAt asks statx for the birth time. Filesystems that do not record it
// (or kernels older than 4.11) fall back to the modification time.
func createdAt(path string, info os.FileInfo, follow bool) time.Time {
	flags := unix.AT_STATX_SYNC_AS_STAT
	if !follow {
		flags |= unix.AT_SYMLINK_NOFOLLOW
	}

	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, flags, unix.STATX_BTIME, &stx); err != nil {
		return info.ModTime()
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return info.ModTime()
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
}
