package log

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/keshon/ckpt/internal/command"
	"github.com/keshon/ckpt/internal/core"
	"github.com/keshon/ckpt/internal/middleware"
)

const timeFormat = "2006-01-02 15:04:05"

type Command struct{}

func (c *Command) Name() string      { return "log" }
func (c *Command) Aliases() []string { return []string{"history"} }
func (c *Command) Usage() string     { return "log [--oneline] [-n <count>]" }
func (c *Command) Brief() string     { return "List snapshots, newest first" }
func (c *Command) Help() string {
	return `List all snapshots, newest first. The active snapshot is marked with *.

Options:
      --oneline       One line per snapshot.
  -n, --max <count>   Show at most <count> snapshots.

Examples:
  ckpt log
  ckpt log --oneline -n 5`
}

func (c *Command) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "oneline",
			Usage: "compact output",
		},
		&cli.IntFlag{
			Name:    "max",
			Aliases: []string{"n"},
			Usage:   "limit the number of snapshots",
		},
	}
}

func (c *Command) Run(ctx *command.Context) error {
	oneline := ctx.Cmd.Bool("oneline")
	limit := int(ctx.Cmd.Int("max"))

	r, err := ctx.OpenRepository(nil)
	if err != nil {
		return err
	}
	res, err := r.Log(ctx.Context)
	if err != nil {
		return err
	}

	snaps := res.Snapshots
	if limit > 0 && limit < len(snaps) {
		snaps = snaps[:limit]
	}

	// listing is the result, so it ignores --quiet
	for _, s := range snaps {
		marker := " "
		if s.ID == res.ActiveID {
			marker = "*"
		}
		if oneline {
			fmt.Fprintf(ctx.Out, "%s %s %s %s\n", marker, core.ShortID(s.ID), s.Timestamp.Local().Format(timeFormat), s.Tag)
			continue
		}
		fmt.Fprintln(ctx.Out, formatEntry(marker, s))
	}
	return nil
}

func formatEntry(marker string, s *core.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s snapshot %s\n", marker, s.ID)
	if !s.IsRoot() {
		fmt.Fprintf(&b, "  Parent: %s\n", s.Parent)
	}
	fmt.Fprintf(&b, "  Date:   %s\n", s.Timestamp.Local().Format(timeFormat))
	if s.Tag != "" {
		fmt.Fprintf(&b, "  Tag:    %s\n", s.Tag)
	}
	fmt.Fprintf(&b, "  Files:  %d (%d bytes)\n", len(s.Files), s.Files.Size())
	return b.String()
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
