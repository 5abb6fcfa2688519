package middleware_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"

	"github.com/keshon/ckpt/internal/command"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/fs"
	"github.com/keshon/ckpt/internal/logging"
	"github.com/keshon/ckpt/internal/middleware"
)

type rootRecorder struct{ root string }

func (r *rootRecorder) Name() string      { return "rec" }
func (r *rootRecorder) Aliases() []string { return nil }
func (r *rootRecorder) Usage() string     { return "rec" }
func (r *rootRecorder) Brief() string     { return "" }
func (r *rootRecorder) Help() string      { return "" }
func (r *rootRecorder) Flags() []cli.Flag { return nil }
func (r *rootRecorder) Run(ctx *command.Context) error {
	r.root = ctx.Root
	return nil
}

func TestWorkspaceCheckWalksUp(t *testing.T) {
	mem := fs.NewMemoryFS()
	root := filepath.FromSlash("/work/project")
	gt.NoError(t, mem.MkdirAll(filepath.Join(root, ".ckpt"), 0o755))
	gt.NoError(t, mem.MkdirAll(filepath.Join(root, "src", "pkg"), 0o755))

	rec := &rootRecorder{}
	cmd := command.ApplyMiddlewares(rec, middleware.WithWorkspaceCheck())
	err := cmd.Run(&command.Context{
		Context: context.Background(),
		Dir:     filepath.Join(root, "src", "pkg"),
		Env:     &command.Env{FS: mem},
	})
	gt.NoError(t, err)
	gt.Equal(t, rec.root, root)
}

func TestWorkspaceCheckNotInitialized(t *testing.T) {
	rec := &rootRecorder{}
	cmd := command.ApplyMiddlewares(rec, middleware.WithWorkspaceCheck())
	err := cmd.Run(&command.Context{
		Context: context.Background(),
		Dir:     t.TempDir(),
	})
	gt.True(t, errors.Is(err, core.ErrNotInitialized))
	gt.Equal(t, rec.root, "")
}

func TestDebugArgsPrint(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), logging.New("debug", &buf))

	cmd := command.ApplyMiddlewares(&rootRecorder{}, middleware.WithDebugArgsPrint())
	gt.NoError(t, cmd.Run(&command.Context{Context: ctx, Args: []string{"abc"}}))
	gt.S(t, buf.String()).Contains("run command")
	gt.S(t, buf.String()).Contains("abc")
}
