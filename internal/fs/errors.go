package fs

import (
	"errors"
	"os"
	"syscall"
)

var (
	// ErrNotFound reports a missing source path.
	ErrNotFound = errors.New("not found")
	// ErrLocked reports a file that failed the accessibility probe.
	ErrLocked = errors.New("file is locked")
	// ErrOverwriteConflict reports an existing target when overwriting is disallowed.
	ErrOverwriteConflict = errors.New("target exists and overwrite is disabled")

	errSourceChanged = errors.New("source changed during copy")
)

// IsNotExist matches both os.ErrNotExist and ErrNotFound.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, ErrNotFound)
}

// isTransient decides whether an operation should retry or fail immediately.
func isTransient(err error) bool {
	if errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.EINTR) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	// extend here for network filesystem specific errors if needed
	return false
}
