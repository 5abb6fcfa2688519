package revert

import (
	"github.com/urfave/cli/v3"

	"github.com/keshon/ckpt/internal/command"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "revert" }
func (c *Command) Aliases() []string { return nil }
func (c *Command) Usage() string     { return "revert [<id>]" }
func (c *Command) Brief() string     { return "Revert the workspace to a snapshot (or the parent of the active one)" }
func (c *Command) Help() string {
	return `Replace the workspace with the files of a snapshot.

Before anything is touched the current workspace is saved as a safety snapshot
tagged REV:<target>, so a revert can itself be reverted. Everything at the top
level except .ckpt is removed, ignored files included.

<id> may be a full id, a unique prefix or "$" for the root. Without <id> the
parent of the active snapshot is used.

Examples:
  ckpt revert
  ckpt revert 3f2a9c1b
  ckpt revert '$'`
}

func (c *Command) Flags() []cli.Flag { return nil }

func (c *Command) Run(ctx *command.Context) error {
	target := ""
	if len(ctx.Args) > 0 {
		target = ctx.Args[0]
	}

	r, err := ctx.OpenRepository(nil)
	if err != nil {
		return err
	}
	res, err := r.Revert(ctx.Context, target)
	if err != nil {
		return err
	}

	ctx.ReportRender(res.RenderErr)
	ctx.Printf("Workspace reverted to %s (previous state saved as %s).\n", core.ShortID(res.Target.ID), core.ShortID(res.Safety.ID))
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
