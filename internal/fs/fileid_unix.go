//go:build unix

package fs

import (
	"os"
	"syscall"
)

// fileID extracts device and inode numbers from syscall.Stat_t.
// They identify a file across renames and detect source changes during copy.
func fileID(info os.FileInfo) (uint64, uint64) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0
	}
	return uint64(st.Dev), uint64(st.Ino)
}
