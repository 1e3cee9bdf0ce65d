package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// OSFS is the concrete implementation of FS backed by the local OS filesystem.
// Platform-specific details (creation time, file ids, locking) live in
// build-tagged files.
type OSFS struct{}

func New() *OSFS {
	return &OSFS{}
}

func (o *OSFS) Stat(path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return fromOS(path, st, true), nil
}

func (o *OSFS) Lstat(path string) (FileInfo, error) {
	st, err := os.Lstat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return fromOS(path, st, false), nil
}

func (o *OSFS) ReadDir(path string) ([]FileInfo, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	out := make([]FileInfo, 0, len(entries))
	for _, ent := range entries {
		full := filepath.Join(path, ent.Name())
		st, err := ent.Info()
		if err != nil {
			// removed between listing and stat
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		out = append(out, fromOS(full, st, false))
	}
	return out, nil
}

func (o *OSFS) RealPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

func (o *OSFS) Accessible(path string) bool {
	return accessible(path)
}

func (o *OSFS) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (o *OSFS) Remove(path string) error {
	return os.Remove(path)
}

func (o *OSFS) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (o *OSFS) CopyFile(ctx context.Context, src, dst string) error {
	return copyWithRetry(ctx, o, src, dst)
}

func (o *OSFS) Rename(ctx context.Context, oldPath, newPath string) error {
	return renameWithRetry(ctx, oldPath, newPath)
}

func fromOS(path string, st os.FileInfo, follow bool) FileInfo {
	dev, ino := fileID(st)
	return FileInfo{
		Path:    path,
		Name:    st.Name(),
		Size:    st.Size(),
		Mode:    st.Mode(),
		MTime:   st.ModTime(),
		Created: createdAt(path, st, follow),
		Device:  dev,
		Inode:   ino,
	}
}
