package middleware

import (
	"github.com/keshon/ckpt/internal/command"
)

// WithDebugArgsPrint logs the command name and its arguments at debug level.
func WithDebugArgsPrint() command.Middleware {
	return func(cmd command.Command, next command.RunFunc) command.RunFunc {
		return func(ctx *command.Context) error {
			ctx.Logger().Debug("run command", "name", cmd.Name(), "args", ctx.Args, "dir", ctx.Dir)
			return next(ctx)
		}
	}
}
