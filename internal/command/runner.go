package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/keshon/ckpt/internal/config"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/fs"
	"github.com/keshon/ckpt/internal/graph"
	"github.com/keshon/ckpt/internal/logging"
	"github.com/keshon/ckpt/internal/repo"
)

// Env carries the dependencies commands use to open a repository.
type Env struct {
	FS       fs.FS
	Renderer graph.Renderer
	// Open shows a rendered image; nil uses the system viewer.
	Open func(path string) error
}

// OpenRepository opens the workspace at Root (or Dir when no root was resolved).
func (c *Context) OpenRepository(configure func(*config.Config)) (*repo.Repository, error) {
	root := c.Root
	if root == "" {
		root = c.Dir
	}
	opts := &repo.Options{Configure: configure}
	if c.Env != nil {
		opts.FS = c.Env.FS
		opts.Renderer = c.Env.Renderer
	}
	if !c.Quiet && isTerminal(c.Err) {
		opts.Progress = c.Err
	}
	return repo.Open(c.Context, root, opts)
}

// OpenImage shows path with the configured viewer.
func (c *Context) OpenImage(path string) error {
	if c.Env != nil && c.Env.Open != nil {
		return c.Env.Open(path)
	}
	return graph.Open(path)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// App builds the urfave/cli command tree from the registry and runs it.
type App struct {
	Name    string
	Usage   string
	Version string
	Out     io.Writer
	Err     io.Writer
	Env     Env
}

// Root returns a fresh command tree; flags are rebuilt on every call.
func (a *App) Root() *cli.Command {
	root := &cli.Command{
		Name:      a.Name,
		Usage:     a.Usage,
		Version:   a.Version,
		Writer:    a.Out,
		ErrWriter: a.Err,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"C"},
				Usage:   "workspace directory",
				Value:   ".",
				Sources: cli.EnvVars("CKPT_WORKSPACE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Value:   logging.DefaultLevel,
				Sources: cli.EnvVars("CKPT_LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "suppress normal output",
			},
		},
	}
	for _, cmd := range AllCommands() {
		root.Commands = append(root.Commands, a.bind(cmd))
	}
	return root
}

func (a *App) bind(cmd Command) *cli.Command {
	return &cli.Command{
		Name:        cmd.Name(),
		Aliases:     cmd.Aliases(),
		Usage:       cmd.Brief(),
		UsageText:   a.Name + " " + cmd.Usage(),
		Description: cmd.Help(),
		Flags:       cmd.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.New(c.String("log-level"), a.Err)
			ctx = logging.With(ctx, logger)
			return cmd.Run(&Context{
				Context: ctx,
				Args:    c.Args().Slice(),
				Cmd:     c,
				Out:     a.Out,
				Err:     a.Err,
				Dir:     c.String("dir"),
				Quiet:   c.Bool("quiet"),
				Env:     &a.Env,
			})
		},
	}
}

// Run executes args (including the program name) and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if a.Out == nil {
		a.Out = os.Stdout
	}
	if a.Err == nil {
		a.Err = os.Stderr
	}
	if err := a.Root().Run(ctx, args); err != nil {
		fmt.Fprintf(a.Err, "Error: %v\n", err)
		if hint := Hint(err); hint != "" {
			fmt.Fprintln(a.Err, hint)
		}
		return 1
	}
	return 0
}

// Hint suggests a next step for well-known failures.
func Hint(err error) string {
	switch {
	case errors.Is(err, core.ErrNotInitialized):
		return "Run `ckpt init` to start tracking this directory."
	case errors.Is(err, core.ErrNoParent):
		return "Already at root, nothing to revert."
	case errors.Is(err, core.ErrNotFound):
		return "Use `ckpt log` to list snapshot ids."
	case errors.Is(err, core.ErrCorrupt):
		return "The store file .ckpt/db.json failed validation; restore it from a backup."
	case errors.Is(err, core.ErrRender):
		return graph.Remediation
	case errors.Is(err, core.ErrReservedTag):
		return "Tags starting with REV: mark safety snapshots; pick another tag."
	}
	return ""
}
