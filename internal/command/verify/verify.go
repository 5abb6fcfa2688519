package verify

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/keshon/ckpt/internal/command"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "verify" }
func (c *Command) Aliases() []string { return []string{"fsck"} }
func (c *Command) Usage() string     { return "verify" }
func (c *Command) Brief() string     { return "Check the stored snapshot history" }
func (c *Command) Help() string {
	return `Load .ckpt/db.json and check every snapshot.

Reports broken parent chains, safety snapshots pointing at unknown targets and
a graph.mmd that no longer matches the history (fix with ckpt show).
Exits non-zero when the history has problems.`
}

func (c *Command) Flags() []cli.Flag { return nil }

func (c *Command) Run(ctx *command.Context) error {
	r, err := ctx.OpenRepository(nil)
	if err != nil {
		return err
	}
	res, err := r.Verify(ctx.Context)
	if err != nil {
		return err
	}

	ctx.Printf("%d snapshots, %d files, %d bytes\n", res.Snapshots, res.Files, res.Bytes)
	if res.Duplicates > 0 {
		ctx.Printf("%d snapshots are identical to their parent\n", res.Duplicates)
	}
	if res.GraphStale {
		ctx.Warnf("warning: %s is out of date, run `ckpt show`\n", r.Layout.GraphPath())
	}
	for _, issue := range res.Issues {
		fmt.Fprintf(ctx.Err, "  %s: %s\n", core.ShortID(issue.Snapshot), issue.Message)
	}
	if !res.OK() {
		return goerr.Wrap(core.ErrCorrupt, "history check failed", goerr.V("issues", len(res.Issues)))
	}
	ctx.Printf("History OK.\n")
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
