package store

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/keshon/ckpt/internal/config"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/fs"
	"github.com/keshon/ckpt/internal/logging"
	"github.com/keshon/ckpt/internal/util"
)

// Capturer produces the current file set of the workspace.
type Capturer interface {
	Capture(ctx context.Context) (core.Fileset, error)
}

// Store is the snapshot history of one workspace, persisted as a single JSON document.
// Every mutation is a full read-modify-write ending in one atomic file replace.
type Store struct {
	fs      fs.FS
	layout  config.Layout
	capture Capturer
	now     func() time.Time
	newID   func() string
	mu      sync.Mutex
}

// Options allows dependency injection; zero fields fall back to defaults.
type Options struct {
	FS    fs.FS
	Clock func() time.Time
	IDs   func() string
}

func New(layout config.Layout, capture Capturer, opts *Options) *Store {
	s := &Store{
		fs:      fs.NewOSFS(),
		layout:  layout,
		capture: capture,
		now:     time.Now,
		newID:   core.NewID,
	}
	if opts != nil {
		if opts.FS != nil {
			s.fs = opts.FS
		}
		if opts.Clock != nil {
			s.now = opts.Clock
		}
		if opts.IDs != nil {
			s.newID = opts.IDs
		}
	}
	return s
}

func (s *Store) Layout() config.Layout { return s.layout }

// Initialized reports whether the metadata directory exists.
func (s *Store) Initialized() bool {
	return s.fs.Exists(s.layout.MetaDir())
}

// Init captures the workspace and records it as the root snapshot.
// An existing metadata directory yields core.ErrAlreadyInitialized and no changes.
func (s *Store) Init(ctx context.Context) (*core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Initialized() {
		return nil, goerr.Wrap(core.ErrAlreadyInitialized, "metadata directory exists", goerr.V("path", s.layout.MetaDir()))
	}

	files, err := s.capture.Capture(ctx)
	if err != nil {
		return nil, err
	}

	root := &core.Snapshot{
		ID:        core.RootID,
		Timestamp: s.now(),
		Tag:       core.RootTag,
		Files:     files,
	}
	doc, err := NewDocument(root)
	if err != nil {
		return nil, err
	}

	// a failed init leaves no metadata directory
	if err := s.fs.MkdirAll(s.layout.MetaDir(), 0o755); err != nil {
		return nil, s.discardMeta(ctx, core.NewIOError("mkdir", s.layout.MetaDir(), err))
	}
	if err := s.save(doc); err != nil {
		return nil, s.discardMeta(ctx, err)
	}

	logging.From(ctx).Debug("store initialized", "files", len(files))
	return root, nil
}

// discardMeta removes the metadata directory created by a failed Init.
func (s *Store) discardMeta(ctx context.Context, cause error) error {
	if err := s.fs.RemoveAll(s.layout.MetaDir()); err != nil {
		logging.From(ctx).Error("failed to remove metadata directory", "path", s.layout.MetaDir(), "error", err)
		return goerr.Wrap(cause, "init failed and metadata directory left behind",
			goerr.V("path", s.layout.MetaDir()), goerr.V("cleanup_error", err.Error()))
	}
	return cause
}

// Create captures the workspace as a child of the active snapshot and activates it.
func (s *Store) Create(ctx context.Context, tag string) (*core.Snapshot, error) {
	if core.IsSafetyTag(tag) {
		return nil, goerr.Wrap(core.ErrReservedTag, "invalid tag", goerr.V("tag", tag))
	}
	var created *core.Snapshot
	err := s.Update(ctx, func(doc *Document) error {
		files, err := s.capture.Capture(ctx)
		if err != nil {
			return err
		}
		snap := &core.Snapshot{
			ID:        s.newID(),
			Timestamp: s.now(),
			Parent:    doc.ActiveID(),
			Tag:       tag,
			Files:     files,
		}
		if err := doc.Append(snap); err != nil {
			return err
		}
		created = snap
		return doc.SetActive(snap.ID)
	})
	if err != nil {
		return nil, err
	}

	logging.From(ctx).Debug("snapshot created", "id", created.ID, "parent", created.Parent, "files", len(created.Files))
	return created, nil
}

// Get returns the snapshot with the given id or unique id prefix.
func (s *Store) Get(ctx context.Context, id string) (*core.Snapshot, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Resolve(id)
}

// SetActive moves the active pointer without touching the workspace.
func (s *Store) SetActive(ctx context.Context, id string) error {
	return s.Update(ctx, func(doc *Document) error {
		target, err := doc.Resolve(id)
		if err != nil {
			return err
		}
		return doc.SetActive(target.ID)
	})
}

// List returns all snapshots in creation order.
func (s *Store) List(ctx context.Context) ([]*core.Snapshot, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Snapshots(), nil
}

func (s *Store) Active(ctx context.Context) (*core.Snapshot, error) {
	doc, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Active(), nil
}

// Load reads and validates the persisted document.
func (s *Store) Load(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := s.layout.StorePath()
	if !s.Initialized() || !s.fs.Exists(path) {
		return nil, goerr.Wrap(core.ErrNotInitialized, "store not found", goerr.V("path", path))
	}

	var doc Document
	if err := util.ReadJSON(s.fs, path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Update loads the document, applies fn and persists the result.
// When fn fails nothing is written.
func (s *Store) Update(ctx context.Context, fn func(*Document) error) error {
	return s.Locked(ctx, func(doc *Document, save func() error) error {
		if err := fn(doc); err != nil {
			return err
		}
		return save()
	})
}

// Locked loads the document and runs fn with the store lock held. fn persists
// doc by calling save, possibly more than once; nothing is written otherwise.
func (s *Store) Locked(ctx context.Context, fn func(doc *Document, save func() error) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	return fn(doc, func() error { return s.save(doc) })
}

func (s *Store) save(doc *Document) error {
	return util.WriteJSON(s.fs, s.layout.StorePath(), doc)
}
