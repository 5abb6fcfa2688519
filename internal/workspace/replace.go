package workspace

import (
	"context"
	"path/filepath"

	"github.com/keshon/ckpt/internal/config"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/logging"
	"github.com/keshon/ckpt/internal/progress"
	"github.com/keshon/ckpt/internal/util"
)

// Clear removes every top-level entry of the workspace except the metadata
// directory. Ignored files are removed as well.
func (w *Workspace) Clear(ctx context.Context) error {
	entries, err := w.fsys.ReadDir(w.root)
	if err != nil {
		return core.NewIOError("readdir", w.root, err)
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.Name() == config.MetaDir {
			continue
		}
		p := filepath.Join(w.root, e.Name())
		if err := w.fsys.RemoveAll(p); err != nil {
			return core.NewIOError("remove", p, err)
		}
	}
	return nil
}

// Replace makes the workspace hold exactly files: Clear, then write each entry,
// creating intermediate directories.
func (w *Workspace) Replace(ctx context.Context, files core.Fileset) error {
	logger := logging.From(ctx)
	if err := w.Clear(ctx); err != nil {
		return err
	}

	tracker := progress.New(w.progressOut, len(files), "Restoring workspace")
	err := util.Parallel(files, util.WorkerCount(w.workers), func(_ int, e core.FileEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := core.CleanPath(e.Path)
		if err != nil {
			return err
		}
		dst := w.abs(rel)
		if err := w.fsys.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return core.NewIOError("mkdir", filepath.Dir(dst), err)
		}
		if err := w.fsys.WriteFile(dst, e.Content, 0o644); err != nil {
			return core.NewIOError("write", rel, err)
		}
		tracker.Increment()
		return nil
	})
	tracker.Finish()
	if err != nil {
		return err
	}

	logger.Debug("workspace replaced", "root", w.root, "files", len(files))
	return nil
}
