//go:build windows

package fs

import "golang.org/x/sys/windows"

// accessible opens path with a zero share mode; the open fails with a sharing
// violation while any other handle is open on the file.
func accessible(path string) bool {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false
	}

	h, err := windows.CreateFile(
		p,
		windows.GENERIC_READ,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return false
	}
	_ = windows.CloseHandle(h)
	return true
}
