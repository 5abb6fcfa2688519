package command

// RunFunc is the body of a command.
type RunFunc func(ctx *Context) error

// Middleware decorates next, the run function of cmd.
type Middleware func(cmd Command, next RunFunc) RunFunc

type wrapped struct {
	Command
	run RunFunc
}

func (w *wrapped) Run(ctx *Context) error { return w.run(ctx) }

// ApplyMiddlewares wraps cmd. The first middleware sits closest to the command,
// the last one runs first.
func ApplyMiddlewares(cmd Command, mws ...Middleware) Command {
	if len(mws) == 0 {
		return cmd
	}
	run := cmd.Run
	for _, mw := range mws {
		run = mw(cmd, run)
	}
	return &wrapped{Command: cmd, run: run}
}
