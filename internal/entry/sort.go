package entry

import "sort"

// SortFiles orders files by creation time, oldest first. Equal timestamps
// keep their enumeration order.
func SortFiles(files []File) {
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Created.Before(files[j].Created)
	})
}

// SortDirs orders directories by creation time, oldest first.
func SortDirs(dirs []Dir) {
	sort.SliceStable(dirs, func(i, j int) bool {
		return dirs[i].Created.Before(dirs[j].Created)
	})
}

// TotalSize sums the sizes of files.
func TotalSize(files []File) int64 {
	var n int64
	for _, f := range files {
		n += f.Size
	}
	return n
}
