package util

import (
	"encoding/json"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/fs"
)

// WriteJSON writes a JSON document atomically.
func WriteJSON(fsys fs.FS, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode json", goerr.V("path", path))
	}
	return WriteFileAtomic(fsys, path, data)
}

// WriteFileAtomic writes data to a temp file in the same directory and renames it over path.
// A failure at any step leaves the previous file untouched.
func WriteFileAtomic(fsys fs.FS, path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, tmpPath, err := fsys.CreateTempFile(dir, "tmp-*")
	if err != nil {
		return core.NewIOError("create temp", dir, err)
	}
	defer fsys.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return core.NewIOError("write", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		return core.NewIOError("close", tmpPath, err)
	}

	if err := fsys.Rename(tmpPath, path); err != nil {
		return core.NewIOError("rename", path, err)
	}
	return nil
}

// ReadJSON reads a JSON file and unmarshals it into v.
// Read failures are I/O errors; decode failures are reported as corruption.
func ReadJSON(fsys fs.Reader, path string, v any) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return core.NewIOError("read", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return goerr.Wrap(core.ErrCorrupt, "failed to decode json", goerr.V("path", path), goerr.V("cause", err.Error()))
	}
	return nil
}

// SortedKeys returns the keys of a map sorted alphabetically.
func SortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WorkerCount returns the number of workers for concurrent operations.
// A positive configured value wins over the CPU count.
func WorkerCount(configured int) int {
	if configured > 0 {
		return configured
	}
	return runtime.NumCPU()
}

// Parallel runs fn concurrently for each item in inputs, limited by workerLimit.
// The first error by input order is returned.
func Parallel[T any](inputs []T, workerLimit int, fn func(int, T) error) error {
	if len(inputs) == 0 {
		return nil
	}
	if workerLimit < 1 {
		workerLimit = 1
	}

	sem := make(chan struct{}, workerLimit)
	errs := make([]error, len(inputs))
	var wg sync.WaitGroup

	for i, in := range inputs {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, x T) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = fn(i, x)
		}(i, in)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
