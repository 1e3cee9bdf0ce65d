// Package fs defines the filesystem abstraction used by retainer.
// It provides the FS interface and the FileInfo type shared across the system.
package fs

import (
	"context"
	"os"
	"time"
)

// FileInfo is a snapshot of a single directory entry.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	Mode    os.FileMode
	MTime   time.Time
	Created time.Time
	Device  uint64
	Inode   uint64
}

func (fi FileInfo) IsDir() bool { return fi.Mode.IsDir() }

func (fi FileInfo) IsSymlink() bool { return fi.Mode&os.ModeSymlink != 0 }

// FS is the set of primitives the retention engine consumes.
type FS interface {
	// Stat follows symlinks, Lstat does not.
	Stat(path string) (FileInfo, error)
	Lstat(path string) (FileInfo, error)
	// ReadDir lists the direct children of path without following symlinks.
	ReadDir(path string) ([]FileInfo, error)
	RealPath(path string) (string, error)
	// Accessible reports whether path can currently be opened exclusively.
	// Any failure, including a missing file, yields false.
	Accessible(path string) bool
	CopyFile(ctx context.Context, src, dst string) error
	Rename(ctx context.Context, oldPath, newPath string) error
	MkdirAll(path string) error
	// Remove deletes a file or an empty directory.
	Remove(path string) error
	RemoveAll(path string) error
}
