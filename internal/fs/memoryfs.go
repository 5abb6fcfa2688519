package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryFS is a pure in-memory filesystem for tests.
type MemoryFS struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]struct{}
	seq   int
}

func NewMemoryFS() *MemoryFS {
	f := &MemoryFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]struct{}),
	}
	f.dirs["/"] = struct{}{}
	f.dirs["."] = struct{}{}
	return f
}

// normalize paths
func clean(p string) string {
	if p == "" {
		return "."
	}
	return filepath.ToSlash(filepath.Clean(p))
}

func (f *MemoryFS) ensureDirExists(p string) error {
	p = clean(p)
	if _, ok := f.dirs[p]; !ok {
		return fs.ErrNotExist
	}
	return nil
}

// FS Interface Implementation

func (f *MemoryFS) ReadFile(p string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.files[clean(p)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

func (f *MemoryFS) WriteFile(p string, data []byte, perm os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = clean(p)
	dir := path.Dir(p)
	if err := f.ensureDirExists(dir); err != nil {
		return fmt.Errorf("write: dir %q does not exist: %w", dir, err)
	}
	if _, ok := f.dirs[p]; ok {
		return fmt.Errorf("write: %q is a directory", p)
	}
	f.files[p] = append([]byte(nil), data...)
	return nil
}

func (f *MemoryFS) MkdirAll(p string, perm os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = clean(p)
	cur := ""
	if strings.HasPrefix(p, "/") {
		cur = "/"
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." {
			continue
		}
		cur = path.Join(cur, seg)
		if _, ok := f.files[cur]; ok {
			return fmt.Errorf("mkdir: %q is a file", cur)
		}
		f.dirs[cur] = struct{}{}
	}
	return nil
}

func (f *MemoryFS) Remove(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = clean(p)
	if _, ok := f.files[p]; ok {
		delete(f.files, p)
		return nil
	}
	if _, ok := f.dirs[p]; ok {
		if f.hasChildren(p) {
			return fmt.Errorf("remove %q: directory not empty", p)
		}
		delete(f.dirs, p)
		return nil
	}
	return &fs.PathError{Op: "remove", Path: p, Err: fs.ErrNotExist}
}

// RemoveAll removes p and everything below it. A missing path is not an error.
func (f *MemoryFS) RemoveAll(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = clean(p)
	prefix := p + "/"
	delete(f.files, p)
	delete(f.dirs, p)
	for fp := range f.files {
		if strings.HasPrefix(fp, prefix) {
			delete(f.files, fp)
		}
	}
	for dp := range f.dirs {
		if strings.HasPrefix(dp, prefix) {
			delete(f.dirs, dp)
		}
	}
	return nil
}

func (f *MemoryFS) hasChildren(p string) bool {
	prefix := p + "/"
	for fp := range f.files {
		if strings.HasPrefix(fp, prefix) {
			return true
		}
	}
	for dp := range f.dirs {
		if strings.HasPrefix(dp, prefix) {
			return true
		}
	}
	return false
}

func (f *MemoryFS) Rename(oldp, newp string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	oldp, newp = clean(oldp), clean(newp)

	// file rename
	if data, ok := f.files[oldp]; ok {
		if f.ensureDirExists(path.Dir(newp)) != nil {
			return &fs.PathError{Op: "rename", Path: newp, Err: fs.ErrNotExist}
		}
		delete(f.files, oldp)
		f.files[newp] = data
		return nil
	}

	// dir rename moves the whole subtree
	if _, ok := f.dirs[oldp]; ok {
		prefix := oldp + "/"
		for fp, data := range f.files {
			if strings.HasPrefix(fp, prefix) {
				delete(f.files, fp)
				f.files[newp+"/"+strings.TrimPrefix(fp, prefix)] = data
			}
		}
		for dp := range f.dirs {
			if strings.HasPrefix(dp, prefix) {
				delete(f.dirs, dp)
				f.dirs[newp+"/"+strings.TrimPrefix(dp, prefix)] = struct{}{}
			}
		}
		delete(f.dirs, oldp)
		f.dirs[newp] = struct{}{}
		return nil
	}

	return &fs.PathError{Op: "rename", Path: oldp, Err: fs.ErrNotExist}
}

func (f *MemoryFS) Stat(p string) (os.FileInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p = clean(p)
	if data, ok := f.files[p]; ok {
		return &fakeInfo{name: path.Base(p), size: int64(len(data)), dir: false}, nil
	}
	if _, ok := f.dirs[p]; ok {
		return &fakeInfo{name: path.Base(p), dir: true}, nil
	}
	return nil, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
}

// ReadDir lists direct children sorted by name, like os.ReadDir.
func (f *MemoryFS) ReadDir(p string) ([]os.DirEntry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p = clean(p)
	if _, ok := f.dirs[p]; !ok {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: fs.ErrNotExist}
	}

	prefix := p + "/"
	switch p {
	case ".":
		prefix = ""
	case "/":
		prefix = "/"
	}

	seen := map[string]bool{}
	var out []os.DirEntry

	// dirs first
	for dp := range f.dirs {
		if dp == "." || dp == "/" || !strings.HasPrefix(dp, prefix) || strings.HasPrefix(dp, "/") != strings.HasPrefix(prefix, "/") {
			continue
		}
		name := strings.Split(strings.TrimPrefix(dp, prefix), "/")[0]
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, fakeDirEntry{name: name, isDir: true})
		}
	}

	// then files
	for fp := range f.files {
		if !strings.HasPrefix(fp, prefix) || strings.HasPrefix(fp, "/") != strings.HasPrefix(prefix, "/") {
			continue
		}
		rest := strings.TrimPrefix(fp, prefix)
		name := strings.Split(rest, "/")[0]
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, fakeDirEntry{name: name, isDir: strings.Contains(rest, "/")})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (f *MemoryFS) CreateTempFile(dir, pattern string) (io.WriteCloser, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ensureDirExists(clean(dir)); err != nil {
		return nil, "", err
	}

	f.seq++
	tmpName := path.Join(clean(dir), strings.Replace(pattern, "*", fmt.Sprintf("%d", f.seq), 1))
	buf := &bytes.Buffer{}

	wc := &memWriteCloser{
		buf: buf,
		onClose: func() {
			f.mu.Lock()
			f.files[clean(tmpName)] = buf.Bytes()
			f.mu.Unlock()
		},
	}
	return wc, tmpName, nil
}

type memWriteCloser struct {
	buf     *bytes.Buffer
	onClose func()
}

func (m *memWriteCloser) Write(p []byte) (int, error) { return m.buf.Write(p) }
func (m *memWriteCloser) Close() error {
	if m.onClose != nil {
		m.onClose()
	}
	return nil
}

func (f *MemoryFS) IsNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }
func (f *MemoryFS) IsDir(p string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.dirs[clean(p)]
	return ok
}
func (f *MemoryFS) Exists(p string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p = clean(p)
	_, f1 := f.files[p]
	_, d1 := f.dirs[p]
	return f1 || d1
}

// Helpers

type fakeInfo struct {
	name string
	size int64
	dir  bool
}

func (f *fakeInfo) Name() string { return f.name }
func (f *fakeInfo) Size() int64  { return f.size }
func (f *fakeInfo) Mode() fs.FileMode {
	if f.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}
func (f *fakeInfo) ModTime() time.Time { return time.Time{} }
func (f *fakeInfo) IsDir() bool        { return f.dir }
func (f *fakeInfo) Sys() interface{}   { return nil }

type fakeDirEntry struct {
	name  string
	isDir bool
}

func (d fakeDirEntry) Name() string { return d.name }
func (d fakeDirEntry) IsDir() bool  { return d.isDir }
func (d fakeDirEntry) Type() fs.FileMode {
	if d.isDir {
		return fs.ModeDir
	}
	return 0
}
func (d fakeDirEntry) Info() (os.FileInfo, error) { return &fakeInfo{name: d.name, dir: d.isDir}, nil }
