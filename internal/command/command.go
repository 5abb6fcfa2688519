package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/keshon/ckpt/internal/logging"
)

// Command represents a cli command
type Command interface {
	Name() string
	Aliases() []string
	Usage() string
	Brief() string
	Help() string
	Flags() []cli.Flag
	Run(ctx *Context) error
}

// Context represents a cli context
type Context struct {
	context.Context
	Args []string
	Cmd  *cli.Command
	Out  io.Writer
	Err  io.Writer
	// Dir is the directory given with --dir; Root is the resolved workspace root.
	Dir   string
	Root  string
	Quiet bool
	Env   *Env
}

// Printf writes user-facing output unless --quiet was given.
func (c *Context) Printf(format string, args ...any) {
	if c.Quiet {
		return
	}
	fmt.Fprintf(c.Out, format, args...)
}

// Warnf always writes to the error stream.
func (c *Context) Warnf(format string, args ...any) {
	fmt.Fprintf(c.Err, format, args...)
}

func (c *Context) Logger() *slog.Logger {
	return logging.From(c.Context)
}

// ReportRender warns about a graph refresh failure without failing the command.
func (c *Context) ReportRender(err error) {
	if err == nil {
		return
	}
	c.Warnf("warning: diagram not updated: %v\n", err)
}
