package workspace

import (
	"context"
	"io"
	"path"
	"path/filepath"

	"github.com/keshon/ckpt/internal/config"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/fs"
	"github.com/keshon/ckpt/internal/logging"
	"github.com/keshon/ckpt/internal/progress"
	"github.com/keshon/ckpt/internal/util"
)

// Workspace is the directory tree being checkpointed.
type Workspace struct {
	fsys        fs.FS
	root        string
	ignoreFiles []string
	workers     int
	progressOut io.Writer
}

type Option func(*Workspace)

// WithIgnoreFiles sets the rule file names to honor.
func WithIgnoreFiles(names ...string) Option {
	return func(w *Workspace) { w.ignoreFiles = names }
}

// WithWorkers bounds the number of concurrent file reads and writes.
func WithWorkers(n int) Option {
	return func(w *Workspace) { w.workers = n }
}

// WithProgress draws a spinner on out during capture and replace.
func WithProgress(out io.Writer) Option {
	return func(w *Workspace) { w.progressOut = out }
}

func New(fsys fs.FS, root string, opts ...Option) *Workspace {
	w := &Workspace{
		fsys:        fsys,
		root:        root,
		ignoreFiles: config.Default().IgnoreFiles,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workspace) Root() string { return w.root }

func (w *Workspace) abs(rel string) string {
	return filepath.Join(w.root, filepath.FromSlash(rel))
}

// Capture reads every non-ignored regular file of the workspace.
// Any read failure fails the whole capture; no partial set is returned.
func (w *Workspace) Capture(ctx context.Context) (core.Fileset, error) {
	matcher, err := ResolveIgnore(ctx, w.fsys, w.root, w.ignoreFiles)
	if err != nil {
		return nil, err
	}

	paths, err := w.list(ctx, matcher)
	if err != nil {
		return nil, err
	}

	tracker := progress.New(w.progressOut, len(paths), "Capturing workspace")
	files := make(core.Fileset, len(paths))
	err = util.Parallel(paths, util.WorkerCount(w.workers), func(i int, rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := w.fsys.ReadFile(w.abs(rel))
		if err != nil {
			return core.NewIOError("read", rel, err)
		}
		files[i] = core.FileEntry{Path: rel, Content: data}
		tracker.Increment()
		return nil
	})
	tracker.Finish()
	if err != nil {
		return nil, err
	}

	files, err = files.Normalize()
	if err != nil {
		return nil, err
	}
	logging.From(ctx).Debug("workspace captured", "root", w.root, "files", len(files), "bytes", files.Size())
	return files, nil
}

// list returns the slash paths of every capturable file.
func (w *Workspace) list(ctx context.Context, matcher *Matcher) ([]string, error) {
	var out []string

	var visit func(rel string) error
	visit = func(rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		abs := w.abs(rel)
		entries, err := w.fsys.ReadDir(abs)
		if err != nil {
			return core.NewIOError("readdir", abs, err)
		}
		for _, e := range entries {
			child := path.Join(rel, e.Name())
			switch {
			case e.IsDir():
				if rel == "" && e.Name() == config.MetaDir {
					continue
				}
				if matcher.Match(child, true) {
					continue
				}
				if err := visit(child); err != nil {
					return err
				}
			case e.Type().IsRegular():
				if matcher.Match(child, false) {
					continue
				}
				out = append(out, child)
			default:
				// symlinks, sockets, devices
			}
		}
		return nil
	}

	if err := visit(""); err != nil {
		return nil, err
	}
	return out, nil
}
