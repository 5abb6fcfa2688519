package fs

import "os"

// Ops are the primitive calls OSFS is built on. Tests swap single fields on
// an OSFS instance to inject failures.
type Ops struct {
	ReadFile   func(string) ([]byte, error)
	ReadMapped func(string) ([]byte, error)
	WriteFile  func(string, []byte, os.FileMode) error
	Stat       func(string) (os.FileInfo, error)
	ReadDir    func(string) ([]os.DirEntry, error)
	Remove     func(string) error
	RemoveAll  func(string) error
	Rename     func(string, string) error
	CreateTemp func(string, string) (*os.File, error)
	MkdirAll   func(string, os.FileMode) error
	IsNotExist func(error) bool
}

// DefaultOps maps every operation to package os; large reads go through mmap.
func DefaultOps() Ops {
	return Ops{
		ReadFile:   os.ReadFile,
		ReadMapped: mmapReadFile,
		WriteFile:  os.WriteFile,
		Stat:       os.Stat,
		ReadDir:    os.ReadDir,
		Remove:     os.Remove,
		RemoveAll:  os.RemoveAll,
		Rename:     os.Rename,
		CreateTemp: os.CreateTemp,
		MkdirAll:   os.MkdirAll,
		IsNotExist: os.IsNotExist,
	}
}
