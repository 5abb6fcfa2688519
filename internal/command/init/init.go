package initcmd

import (
	"errors"

	"github.com/urfave/cli/v3"

	"github.com/keshon/ckpt/internal/command"
	"github.com/keshon/ckpt/internal/config"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "init" }
func (c *Command) Aliases() []string { return []string{"initialize"} }
func (c *Command) Usage() string     { return "init [--no-gitignore]" }
func (c *Command) Brief() string     { return "Create .ckpt and the root snapshot" }
func (c *Command) Help() string {
	return `Start tracking the workspace directory.

Captures every non-ignored file as the root snapshot "$", makes it active and
writes .ckpt/db.json. Afterwards .ckpt is added to the root .gitignore and the
snapshot diagram is generated. Running init again changes nothing.

Options:
      --no-gitignore   Leave .gitignore untouched.

Examples:
  ckpt init
  ckpt -C ./project init --no-gitignore`
}

func (c *Command) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "no-gitignore",
			Usage: "do not add .ckpt to .gitignore",
		},
	}
}

func (c *Command) Run(ctx *command.Context) error {
	noGitignore := ctx.Cmd.Bool("no-gitignore")

	r, err := ctx.OpenRepository(func(cfg *config.Config) {
		if noGitignore {
			cfg.Gitignore = false
		}
	})
	if err != nil {
		return err
	}

	res, err := r.Init(ctx.Context)
	if errors.Is(err, core.ErrAlreadyInitialized) {
		ctx.Printf(".ckpt already exists - nothing to do.\n")
		return nil
	}
	if err != nil {
		return err
	}

	if res.GitignoreUpdated {
		ctx.Printf("Added %s to %s\n", config.MetaDir, config.GitignoreFile)
	}
	ctx.ReportRender(res.RenderErr)
	ctx.Printf("Initialized ckpt repository with root snapshot %q (%d files).\n", core.RootID, len(res.Root.Files))
	return nil
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithDebugArgsPrint(),
		),
	)
}
