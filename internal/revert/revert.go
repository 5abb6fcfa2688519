package revert

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/logging"
	"github.com/keshon/ckpt/internal/store"
)

// Workspace is the part of the working tree the engine needs.
type Workspace interface {
	Capture(ctx context.Context) (core.Fileset, error)
	Replace(ctx context.Context, files core.Fileset) error
}

// Result describes a completed revert.
type Result struct {
	Safety *core.Snapshot
	Target *core.Snapshot
}

// Engine reverts the workspace to an earlier snapshot, saving the current
// state as a safety snapshot first.
type Engine struct {
	store *store.Store
	ws    Workspace
	now   func() time.Time
	newID func() string
}

type Options struct {
	Clock func() time.Time
	IDs   func() string
}

func New(st *store.Store, ws Workspace, opts *Options) *Engine {
	e := &Engine{store: st, ws: ws, now: time.Now, newID: core.NewID}
	if opts != nil {
		if opts.Clock != nil {
			e.now = opts.Clock
		}
		if opts.IDs != nil {
			e.newID = opts.IDs
		}
	}
	return e
}

// Revert replaces the workspace with the files of targetID (or the parent of the
// active snapshot when targetID is empty) and makes it active. The pre-revert
// workspace is appended as a child of the previous active snapshot tagged
// "REV:<target>". Both changes reach disk in a single store write, and the
// store stays locked from the first read until that write.
func (e *Engine) Revert(ctx context.Context, targetID string) (*Result, error) {
	var res *Result
	err := e.store.Locked(ctx, func(doc *store.Document, save func() error) error {
		var err error
		res, err = e.revert(ctx, doc, targetID, save)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Engine) revert(ctx context.Context, doc *store.Document, targetID string, save func() error) (*Result, error) {
	logger := logging.From(ctx)
	active := doc.Active()

	if targetID == "" {
		if active.IsRoot() || active.Parent == "" {
			return nil, goerr.Wrap(core.ErrNoParent, "already at root, nothing to revert")
		}
		targetID = active.Parent
	}
	target, err := doc.Resolve(targetID)
	if err != nil {
		return nil, err
	}

	current, err := e.ws.Capture(ctx)
	if err != nil {
		return nil, err
	}
	safety := &core.Snapshot{
		ID:        e.newID(),
		Timestamp: e.now(),
		Parent:    active.ID,
		Tag:       core.SafetyTag(target.ID),
		Files:     current,
	}
	if err := doc.Append(safety); err != nil {
		return nil, err
	}
	logger.Debug("safety snapshot prepared", "id", safety.ID, "target", target.ID, "files", len(current))

	if err := e.ws.Replace(ctx, target.Files); err != nil {
		return nil, e.rollback(ctx, safety, err, save)
	}
	if err := doc.SetActive(target.ID); err != nil {
		return nil, err
	}

	if err := save(); err != nil {
		// the workspace already holds the target; keep the pre-revert work reachable on disk
		logger.Warn("failed to persist revert, restoring previous workspace", "error", err)
		if rbErr := e.ws.Replace(context.WithoutCancel(ctx), safety.Files); rbErr != nil {
			return nil, goerr.Wrap(err, "revert not persisted and workspace restore failed", goerr.V("restore_error", rbErr.Error()))
		}
		return nil, err
	}

	logger.Debug("workspace reverted", "target", target.ID, "safety", safety.ID)
	return &Result{Safety: safety, Target: target}, nil
}

// rollback restores the pre-revert files after a failed replace. If that fails
// too, the safety snapshot alone is persisted with the active pointer unchanged.
func (e *Engine) rollback(ctx context.Context, safety *core.Snapshot, cause error, save func() error) error {
	logger := logging.From(ctx)
	ctx = context.WithoutCancel(ctx)

	rbErr := e.ws.Replace(ctx, safety.Files)
	if rbErr == nil {
		logger.Warn("revert failed, workspace restored", "error", cause)
		return cause
	}

	logger.Error("revert failed and workspace restore failed, persisting safety snapshot", "error", cause, "restore_error", rbErr)
	if err := save(); err != nil {
		return goerr.Wrap(cause, "workspace restore failed and safety snapshot not saved",
			goerr.V("restore_error", rbErr.Error()), goerr.V("save_error", err.Error()))
	}
	return goerr.Wrap(cause, "workspace restore failed; pre-revert state saved",
		goerr.V("safety", safety.ID), goerr.V("restore_error", rbErr.Error()))
}
