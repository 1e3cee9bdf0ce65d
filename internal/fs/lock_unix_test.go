//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestAccessible_FlockHeldElsewhere(t *testing.T) {
	file := filepath.Join(t.TempDir(), "held.log")
	writeFile(t, file, "busy")

	holder, err := os.Open(file)
	require.NoError(t, err)
	defer holder.Close()

	require.NoError(t, unix.Flock(int(holder.Fd()), unix.LOCK_EX|unix.LOCK_NB))
	assert.False(t, accessible(file))

	require.NoError(t, unix.Flock(int(holder.Fd()), unix.LOCK_UN))
	assert.True(t, accessible(file))
}
