package fs

import (
	"io"
	"os"
)

// Reader is the read side of the filesystem: workspace walks and config lookups.
type Reader interface {
	ReadFile(path string) ([]byte, error)
	ReadDir(path string) ([]os.DirEntry, error)
	Stat(path string) (os.FileInfo, error)
	IsNotExist(err error) bool
	Exists(path string) bool
	IsDir(path string) bool
}

// Writer mutates the tree. CreateTempFile plus Rename is how files are replaced atomically.
type Writer interface {
	WriteFile(path string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	Remove(path string) error
	RemoveAll(path string) error
	Rename(oldPath, newPath string) error
	CreateTempFile(dir, pattern string) (io.WriteCloser, string, error)
}

// FS is implemented by OSFS and MemoryFS.
type FS interface {
	Reader
	Writer
}
