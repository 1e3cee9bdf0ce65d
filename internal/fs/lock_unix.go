//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package fs

import (
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// accessible opens path read-only and checks that nobody else holds a lock on
// it: a POSIX record lock (queried with F_GETLK, which never takes one) or a
// BSD flock (probed with a non-blocking exclusive flock, released at once).
// The answer is stale as soon as it is returned; callers still handle failure
// at the point of action.
func accessible(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil || st.IsDir() {
		return false
	}

	fd := int(f.Fd())

	probe := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: io.SeekStart,
		Start:  0,
		Len:    0,
	}
	if err := unix.FcntlFlock(uintptr(fd), unix.F_GETLK, &probe); err != nil {
		return false
	}
	if probe.Type != unix.F_UNLCK {
		return false
	}

	if err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return false
	}
	_ = unix.Flock(fd, unix.LOCK_UN)
	return true
}
