package core

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrNotFound is returned when a snapshot id does not resolve.
	ErrNotFound = goerr.New("snapshot not found")
	// ErrAlreadyInitialized signals that the metadata directory exists. It is benign.
	ErrAlreadyInitialized = goerr.New("workspace already initialized")
	// ErrNotInitialized is returned when no metadata directory or store file is present.
	ErrNotInitialized = goerr.New("workspace is not initialized")
	// ErrNoParent is returned by revert when the active snapshot is the root and no target was given.
	ErrNoParent = goerr.New("active snapshot has no parent")
	// ErrIO marks filesystem failures during capture, store I/O or workspace replace.
	ErrIO = goerr.New("i/o failure")
	// ErrRender marks a missing or failing diagram renderer.
	ErrRender = goerr.New("diagram rendering failed")
	// ErrCorrupt is returned when the persisted store violates history invariants.
	ErrCorrupt = goerr.New("store is corrupt")
	// ErrReservedTag is returned when a user tag uses the prefix of automatic safety snapshots.
	ErrReservedTag = goerr.New("tag prefix is reserved for safety snapshots")
)

// IOError records a failed filesystem operation. It matches ErrIO with errors.Is
// and unwraps to the underlying error.
type IOError struct {
	Op   string
	Path string
	Err  error
}

// NewIOError returns nil when err is nil.
func NewIOError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }
