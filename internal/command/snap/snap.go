package snap

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/keshon/ckpt/internal/command"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "snap" }
func (c *Command) Aliases() []string { return []string{"snapshot"} }
func (c *Command) Usage() string     { return "snap [-t <tag>]" }
func (c *Command) Brief() string     { return "Take a snapshot of the current workspace" }
func (c *Command) Help() string {
	return `Capture the workspace as a new snapshot.

The new snapshot's parent is the active snapshot, and it becomes active itself.

Options:
  -t, --tag <tag>   Optional label shown in log and diagram. The REV: prefix
                    is reserved for safety snapshots.

Examples:
  ckpt snap
  ckpt snap -t "before refactor"`
}

func (c *Command) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "tag",
			Aliases: []string{"t"},
			Usage:   "optional tag",
		},
	}
}

func (c *Command) Run(ctx *command.Context) error {
	tag := strings.TrimSpace(ctx.Cmd.String("tag"))

	r, err := ctx.OpenRepository(nil)
	if err != nil {
		return err
	}
	res, err := r.Snap(ctx.Context, tag)
	if err != nil {
		return err
	}

	ctx.ReportRender(res.RenderErr)
	ctx.Printf("Snapshot %s created (parent %s).\n", core.ShortID(res.Snapshot.ID), core.ShortID(res.Snapshot.Parent))
	return nil
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithWorkspaceCheck(),
			middleware.WithDebugArgsPrint(),
		),
	)
}
