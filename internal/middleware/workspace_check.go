package middleware

import (
	"github.com/keshon/ckpt/internal/command"
	"github.com/keshon/ckpt/internal/config"
	"github.com/keshon/ckpt/internal/fs"
)

// WithWorkspaceCheck resolves the workspace root by walking up from --dir and
// fails with core.ErrNotInitialized when no .ckpt directory is found.
func WithWorkspaceCheck() command.Middleware {
	return func(_ command.Command, next command.RunFunc) command.RunFunc {
		return func(ctx *command.Context) error {
			var fsys fs.Reader = fs.NewOSFS()
			if ctx.Env != nil && ctx.Env.FS != nil {
				fsys = ctx.Env.FS
			}
			root, err := config.ResolveWorkspaceRoot(fsys, ctx.Dir)
			if err != nil {
				return err
			}
			ctx.Root = root
			ctx.Logger().Debug("workspace resolved", "root", root)
			return next(ctx)
		}
	}
}
