package repo

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/keshon/ckpt/internal/config"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/fs"
	"github.com/keshon/ckpt/internal/graph"
	"github.com/keshon/ckpt/internal/logging"
	"github.com/keshon/ckpt/internal/revert"
	"github.com/keshon/ckpt/internal/store"
	"github.com/keshon/ckpt/internal/verify"
	"github.com/keshon/ckpt/internal/workspace"
)

// Repository wires one workspace to its snapshot store, revert engine and graph publisher.
type Repository struct {
	Root      string
	Layout    config.Layout
	Config    config.Config
	FS        fs.FS
	Workspace *workspace.Workspace
	Store     *store.Store
	Engine    *revert.Engine
	Publisher *graph.Publisher

	progress io.Writer
}

// Options allows dependency injection; zero fields fall back to defaults.
type Options struct {
	FS       fs.FS
	Renderer graph.Renderer
	// Progress receives spinners for long captures and restores.
	Progress io.Writer
	// Configure adjusts the loaded config, e.g. from command line flags.
	Configure func(*config.Config)
}

// Open prepares a repository rooted at root. The workspace does not need to be initialized.
func Open(ctx context.Context, root string, opts *Options) (*Repository, error) {
	if opts == nil {
		opts = &Options{}
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = fs.NewOSFS()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve workspace", goerr.V("root", root))
	}

	cfg, err := config.Load(fsys, abs)
	if err != nil {
		return nil, err
	}
	if opts.Configure != nil {
		opts.Configure(&cfg)
	}

	layout := config.Layout{Root: abs}
	ws := workspace.New(fsys, abs,
		workspace.WithIgnoreFiles(cfg.IgnoreFiles...),
		workspace.WithWorkers(cfg.Workers),
		workspace.WithProgress(opts.Progress),
	)
	st := store.New(layout, ws, &store.Options{FS: fsys})

	r := &Repository{
		Root:      abs,
		Layout:    layout,
		Config:    cfg,
		FS:        fsys,
		Workspace: ws,
		Store:     st,
		Engine:    revert.New(st, ws, nil),
		Publisher: graph.NewPublisher(layout, cfg.Render, &graph.PublisherOptions{FS: fsys, Renderer: opts.Renderer}),
		progress:  opts.Progress,
	}
	logging.From(ctx).Debug("repository opened", "root", abs, "workers", cfg.Workers, "render", cfg.Render.Enabled)
	return r, nil
}

type InitResult struct {
	Root             *core.Snapshot
	GitignoreUpdated bool
	RenderErr        error
}

// Init records the root snapshot, then makes sure the root .gitignore lists the
// metadata directory. The root capture never sees that edit.
func (r *Repository) Init(ctx context.Context) (*InitResult, error) {
	root, err := r.Store.Init(ctx)
	if err != nil {
		return nil, err
	}
	res := &InitResult{Root: root}

	if r.Config.Gitignore {
		updated, err := r.ensureGitignore()
		if err != nil {
			return nil, err
		}
		res.GitignoreUpdated = updated
	}

	res.RenderErr = r.publish(ctx)
	return res, nil
}

func (r *Repository) ensureGitignore() (bool, error) {
	path := filepath.Join(r.Root, config.GitignoreFile)
	entry := config.MetaDir

	data, err := r.FS.ReadFile(path)
	if err != nil && !r.FS.IsNotExist(err) {
		return false, core.NewIOError("read", path, err)
	}
	if hasIgnoreEntry(data, entry) {
		return false, nil
	}

	var buf bytes.Buffer
	buf.Write(data)
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString(entry + "\n")
	if err := r.FS.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return false, core.NewIOError("write", path, err)
	}
	return true, nil
}

func hasIgnoreEntry(data []byte, entry string) bool {
	for _, line := range strings.Split(string(data), "\n") {
		switch strings.TrimSpace(line) {
		case entry, entry + "/", "/" + entry, "/" + entry + "/":
			return true
		}
	}
	return false
}

type SnapResult struct {
	Snapshot  *core.Snapshot
	RenderErr error
}

func (r *Repository) Snap(ctx context.Context, tag string) (*SnapResult, error) {
	snap, err := r.Store.Create(ctx, tag)
	if err != nil {
		return nil, err
	}
	return &SnapResult{Snapshot: snap, RenderErr: r.publish(ctx)}, nil
}

type RevertResult struct {
	Safety    *core.Snapshot
	Target    *core.Snapshot
	RenderErr error
}

func (r *Repository) Revert(ctx context.Context, targetID string) (*RevertResult, error) {
	res, err := r.Engine.Revert(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return &RevertResult{Safety: res.Safety, Target: res.Target, RenderErr: r.publish(ctx)}, nil
}

// Describe returns the Mermaid description of the current history.
func (r *Repository) Describe(ctx context.Context) (string, error) {
	snaps, err := r.Store.List(ctx)
	if err != nil {
		return "", err
	}
	return graph.Describe(snaps), nil
}

// Show regenerates the description and the image and returns the image path.
// Unlike the mutating operations, a render failure is the result here.
func (r *Repository) Show(ctx context.Context) (string, error) {
	snaps, err := r.Store.List(ctx)
	if err != nil {
		return "", err
	}
	if err := r.Publisher.RenderImage(ctx, snaps); err != nil {
		return "", err
	}
	return r.Layout.ImagePath(), nil
}

type LogResult struct {
	Snapshots []*core.Snapshot
	ActiveID  string
}

// Log lists snapshots newest first.
func (r *Repository) Log(ctx context.Context) (*LogResult, error) {
	doc, err := r.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	snaps := doc.Snapshots()
	for i, j := 0, len(snaps)-1; i < j; i, j = i+1, j-1 {
		snaps[i], snaps[j] = snaps[j], snaps[i]
	}
	return &LogResult{Snapshots: snaps, ActiveID: doc.ActiveID()}, nil
}

type StatusResult struct {
	Active  *core.Snapshot
	Changes []core.Change
}

// Clean reports whether the workspace matches the active snapshot.
func (s *StatusResult) Clean() bool { return len(s.Changes) == 0 }

// Status compares the workspace on disk with the active snapshot.
func (r *Repository) Status(ctx context.Context) (*StatusResult, error) {
	active, err := r.Store.Active(ctx)
	if err != nil {
		return nil, err
	}
	current, err := r.Workspace.Capture(ctx)
	if err != nil {
		return nil, err
	}
	if current.Digest() == active.Files.Digest() {
		return &StatusResult{Active: active}, nil
	}
	return &StatusResult{Active: active, Changes: current.Diff(active.Files)}, nil
}

type VerifyResult struct {
	*verify.Report
	// GraphStale is set when graph.mmd is missing or does not describe the current history.
	GraphStale bool
}

// Verify loads and checks the stored history. A document that fails to load
// is returned as the error (core.ErrCorrupt).
func (r *Repository) Verify(ctx context.Context) (*VerifyResult, error) {
	doc, err := r.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	rep, err := verify.Check(ctx, doc, r.progress)
	if err != nil {
		return nil, err
	}

	res := &VerifyResult{Report: rep}
	current, err := r.FS.ReadFile(r.Layout.GraphPath())
	switch {
	case err != nil && !r.FS.IsNotExist(err):
		return nil, core.NewIOError("read", r.Layout.GraphPath(), err)
	case err != nil:
		res.GraphStale = true
	default:
		res.GraphStale = !bytes.Equal(current, []byte(graph.Describe(doc.Snapshots())))
	}
	logging.From(ctx).Debug("history verified", "snapshots", rep.Snapshots, "issues", len(rep.Issues), "graphStale", res.GraphStale)
	return res, nil
}

// publish refreshes the graph files. Failures are reported, never fatal.
func (r *Repository) publish(ctx context.Context) error {
	snaps, err := r.Store.List(ctx)
	if err != nil {
		return err
	}
	if err := r.Publisher.Publish(ctx, snaps); err != nil {
		logging.From(ctx).Warn("graph not updated", "error", err)
		return err
	}
	return nil
}
