package fs

import (
	"errors"
	"io"
	"os"

	"golang.org/x/exp/mmap"
)

// MmapThreshold is the file size from which OSFS.ReadFile maps the file instead of reading it.
var MmapThreshold int64 = 4 << 20

// OSFS implements FS on the host filesystem.
type OSFS struct {
	Ops Ops
}

func NewOSFS() *OSFS {
	return &OSFS{Ops: DefaultOps()}
}

func (r *OSFS) Stat(path string) (os.FileInfo, error) { return r.Ops.Stat(path) }

// ReadFile reads small files directly and large regular files through a memory map.
func (r *OSFS) ReadFile(path string) ([]byte, error) {
	if fi, err := r.Ops.Stat(path); err == nil && fi.Mode().IsRegular() && fi.Size() >= MmapThreshold {
		return r.Ops.ReadMapped(path)
	}
	return r.Ops.ReadFile(path)
}

func (r *OSFS) ReadDir(path string) ([]os.DirEntry, error) { return r.Ops.ReadDir(path) }

func (r *OSFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return r.Ops.WriteFile(path, data, perm)
}

func (r *OSFS) MkdirAll(path string, perm os.FileMode) error { return r.Ops.MkdirAll(path, perm) }
func (r *OSFS) Remove(path string) error                     { return r.Ops.Remove(path) }
func (r *OSFS) RemoveAll(path string) error                  { return r.Ops.RemoveAll(path) }
func (r *OSFS) Rename(oldPath, newPath string) error         { return r.Ops.Rename(oldPath, newPath) }
func (r *OSFS) IsNotExist(err error) bool                    { return r.Ops.IsNotExist(err) }

// CreateTempFile returns a writer whose Close flushes the file to disk before closing it.
func (r *OSFS) CreateTempFile(dir, pattern string) (io.WriteCloser, string, error) {
	f, err := r.Ops.CreateTemp(dir, pattern)
	if err != nil {
		return nil, "", err
	}
	return &syncCloser{File: f}, f.Name(), nil
}

func (r *OSFS) IsDir(path string) bool {
	fi, err := r.Ops.Stat(path)
	return err == nil && fi.IsDir()
}

func (r *OSFS) Exists(path string) bool {
	_, err := r.Ops.Stat(path)
	return err == nil
}

type syncCloser struct {
	*os.File
}

func (s *syncCloser) Close() error {
	if err := s.File.Sync(); err != nil {
		s.File.Close()
		return err
	}
	return s.File.Close()
}

func mmapReadFile(path string) ([]byte, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	if reader.Len() == 0 {
		return []byte{}, nil
	}
	data := make([]byte, reader.Len())
	if _, err := reader.ReadAt(data, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return data, nil
}
