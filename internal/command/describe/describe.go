package describe

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/keshon/ckpt/internal/command"
	"github.com/keshon/ckpt/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "describe" }
func (c *Command) Aliases() []string { return []string{"mmd"} }
func (c *Command) Usage() string     { return "describe" }
func (c *Command) Brief() string     { return "Print the Mermaid description of the snapshot graph" }
func (c *Command) Help() string {
	return `Print the snapshot graph as a Mermaid flowchart.

Pipe it into any Mermaid renderer, e.g.:
  ckpt describe | mmdc -i - -o graph.png`
}

func (c *Command) Flags() []cli.Flag { return nil }

func (c *Command) Run(ctx *command.Context) error {
	r, err := ctx.OpenRepository(nil)
	if err != nil {
		return err
	}
	desc, err := r.Describe(ctx.Context)
	if err != nil {
		return err
	}
	// printed even with --quiet: the description is the result
	fmt.Fprintln(ctx.Out, desc)
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
