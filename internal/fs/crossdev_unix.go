//go:build !windows

package fs

import (
	"errors"
	"syscall"
)

// IsCrossDevice reports a rename that failed because source and target are on
// different filesystems.
func IsCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
