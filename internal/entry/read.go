package entry

import (
	"path/filepath"

	"github.com/raoulx24/retainer/internal/fs"
)

// Read enumerates the direct children of path once. Symlinks are counted in
// Skipped unless follow is set, in which case they are classified by their
// target. Children are sorted oldest first.
func Read(fsys fs.FS, path string, follow bool) (Dir, error) {
	self, err := fsys.Stat(path)
	if err != nil {
		return Dir{}, err
	}

	d := DirFromInfo(self)
	d.Path = path
	d.Name = filepath.Base(path)

	infos, err := fsys.ReadDir(path)
	if err != nil {
		return Dir{}, err
	}

	for _, info := range infos {
		link := info.IsSymlink()
		if link {
			if !follow {
				d.Skipped++
				continue
			}
			target, err := fsys.Stat(info.Path)
			if err != nil {
				d.Skipped++
				continue
			}
			target.Path = info.Path
			target.Name = info.Name
			info = target
		}

		switch {
		case info.IsDir():
			child := DirFromInfo(info)
			child.Link = link
			d.Dirs = append(d.Dirs, child)
		case info.Mode.IsRegular():
			d.Files = append(d.Files, FileFromInfo(info))
		default:
			// sockets, devices and pipes are never retention candidates
			d.Skipped++
		}
	}

	SortFiles(d.Files)
	SortDirs(d.Dirs)
	return d, nil
}
