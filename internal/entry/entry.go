// Package entry models the files and directories a retention walk visits.
package entry

import (
	"time"

	"github.com/raoulx24/retainer/internal/fs"
)

// File describes a single file found by directory enumeration.
type File struct {
	Path    string
	Name    string
	Size    int64
	Created time.Time
	ModTime time.Time
}

// Dir describes a directory and, once read, its direct children ordered
// oldest first.
type Dir struct {
	Path    string
	Name    string
	Created time.Time
	// Link is set when the directory was reached through a symlink.
	Link bool

	Files []File
	Dirs  []Dir
	// Skipped counts children that are neither regular files nor
	// directories: unfollowed or dangling symlinks, sockets, devices.
	Skipped int
}

// Empty reports whether the directory had no children when it was read.
func (d Dir) Empty() bool {
	return len(d.Files) == 0 && len(d.Dirs) == 0 && d.Skipped == 0
}

// FileFromInfo constructs a File from an fs.FileInfo.
func FileFromInfo(info fs.FileInfo) File {
	return File{
		Path:    info.Path,
		Name:    info.Name,
		Size:    info.Size,
		Created: info.Created,
		ModTime: info.MTime,
	}
}

// DirFromInfo constructs an unread Dir from an fs.FileInfo.
func DirFromInfo(info fs.FileInfo) Dir {
	return Dir{
		Path:    info.Path,
		Name:    info.Name,
		Created: info.Created,
	}
}
