package status

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/keshon/ckpt/internal/command"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "status" }
func (c *Command) Aliases() []string { return []string{"st"} }
func (c *Command) Usage() string     { return "status" }
func (c *Command) Brief() string     { return "Show changes since the active snapshot" }
func (c *Command) Help() string {
	return `Compare the workspace with the active snapshot.

Lists added (A), modified (M) and deleted (D) paths. Ignored files are not
considered.`
}

func (c *Command) Flags() []cli.Flag { return nil }

func (c *Command) Run(ctx *command.Context) error {
	r, err := ctx.OpenRepository(nil)
	if err != nil {
		return err
	}
	res, err := r.Status(ctx.Context)
	if err != nil {
		return err
	}

	label := core.ShortID(res.Active.ID)
	if res.Active.Tag != "" {
		label += " (" + res.Active.Tag + ")"
	}
	fmt.Fprintf(ctx.Out, "Active snapshot: %s\n", label)

	if res.Clean() {
		fmt.Fprintln(ctx.Out, "Workspace clean.")
		return nil
	}
	fmt.Fprintln(ctx.Out, "Changes:")
	for _, ch := range res.Changes {
		fmt.Fprintf(ctx.Out, "  %s %s\n", kindMarker(ch.Kind), ch.Path)
	}
	return nil
}

func kindMarker(k core.ChangeKind) string {
	switch k {
	case core.Added:
		return "A"
	case core.Deleted:
		return "D"
	default:
		return "M"
	}
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
