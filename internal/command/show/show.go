package show

import (
	"github.com/urfave/cli/v3"

	"github.com/keshon/ckpt/internal/command"
	"github.com/keshon/ckpt/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "show" }
func (c *Command) Aliases() []string { return []string{"graph"} }
func (c *Command) Usage() string     { return "show [--open]" }
func (c *Command) Brief() string     { return "Rebuild the snapshot diagram" }
func (c *Command) Help() string {
	return `Regenerate .ckpt/graph.mmd and render .ckpt/graph.svg with the Mermaid CLI.

The renderer is looked up in this order: render.command from .ckpt/config.yaml,
./node_modules/.bin/mmdc, mmdc on PATH, bun x mmdc, npx @mermaid-js/mermaid-cli.
Rendering runs even when render.enabled is false.

Options:
      --open   Open the image in the default viewer.`
}

func (c *Command) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "open",
			Usage: "open the rendered diagram",
		},
	}
}

func (c *Command) Run(ctx *command.Context) error {
	r, err := ctx.OpenRepository(nil)
	if err != nil {
		return err
	}
	path, err := r.Show(ctx.Context)
	if err != nil {
		return err
	}
	ctx.Printf("Diagram written to %s\n", path)

	if ctx.Cmd.Bool("open") {
		ctx.Printf("Opening diagram...\n")
		return ctx.OpenImage(path)
	}
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
