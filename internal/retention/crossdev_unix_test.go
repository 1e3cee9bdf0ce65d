//go:build !windows

package retention

import "syscall"

var errCrossDevice error = syscall.EXDEV
