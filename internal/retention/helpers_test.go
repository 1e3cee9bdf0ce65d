package retention

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/raoulx24/retainer/internal/fs"
)

// fakeFS is the OS filesystem with pinned creation times, simulated locks
// and injectable copy and rename failures.
type fakeFS struct {
	*fs.OSFS
	created   map[string]time.Time
	locked    map[string]bool
	copyErrs  map[string]error
	renameErr error
}

func newFakeFS() *fakeFS {
	return &fakeFS{
		OSFS:     fs.New(),
		created:  map[string]time.Time{},
		locked:   map[string]bool{},
		copyErrs: map[string]error{},
	}
}

func (f *fakeFS) patch(info fs.FileInfo) fs.FileInfo {
	if t, ok := f.created[info.Path]; ok {
		info.Created = t
	}
	return info
}

func (f *fakeFS) Stat(path string) (fs.FileInfo, error) {
	info, err := f.OSFS.Stat(path)
	return f.patch(info), err
}

func (f *fakeFS) Lstat(path string) (fs.FileInfo, error) {
	info, err := f.OSFS.Lstat(path)
	return f.patch(info), err
}

func (f *fakeFS) ReadDir(path string) ([]fs.FileInfo, error) {
	infos, err := f.OSFS.ReadDir(path)
	for i := range infos {
		infos[i] = f.patch(infos[i])
	}
	return infos, err
}

func (f *fakeFS) Accessible(path string) bool {
	if f.locked[path] {
		return false
	}
	return f.OSFS.Accessible(path)
}

func (f *fakeFS) Rename(ctx context.Context, src, dst string) error {
	if f.renameErr != nil {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: f.renameErr}
	}
	return f.OSFS.Rename(ctx, src, dst)
}

func (f *fakeFS) CopyFile(ctx context.Context, src, dst string) error {
	if err := f.copyErrs[src]; err != nil {
		return err
	}
	return f.OSFS.CopyFile(ctx, src, dst)
}

// fixture is a temp tree plus an engine pinned to a fixed clock.
type fixture struct {
	t   *testing.T
	dir string
	fs  *fakeFS
	now time.Time
	e   *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		t:   t,
		dir: t.TempDir(),
		fs:  newFakeFS(),
		now: time.Now().Add(time.Minute),
	}
	f.e = New(f.fs, nil).WithClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) path(rel string) string {
	return filepath.Join(f.dir, filepath.FromSlash(rel))
}

// file writes rel with content and pins its creation time to age before now.
func (f *fixture) file(rel, content string, age time.Duration) string {
	f.t.Helper()
	p := f.path(rel)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(f.t, os.WriteFile(p, []byte(content), 0o644))
	f.fs.created[p] = f.now.Add(-age)
	return p
}

func (f *fixture) mkdir(rel string) string {
	f.t.Helper()
	p := f.path(rel)
	require.NoError(f.t, os.MkdirAll(p, 0o755))
	return p
}

func (f *fixture) withOptions(opts Options) {
	f.t.Helper()
	e, err := f.e.WithOptions(opts)
	require.NoError(f.t, err)
	f.e = e
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

const day = 24 * time.Hour
