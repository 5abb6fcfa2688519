package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/keshon/ckpt/internal/command"
	_ "github.com/keshon/ckpt/internal/command/describe"
	_ "github.com/keshon/ckpt/internal/command/init"
	_ "github.com/keshon/ckpt/internal/command/log"
	_ "github.com/keshon/ckpt/internal/command/revert"
	_ "github.com/keshon/ckpt/internal/command/show"
	_ "github.com/keshon/ckpt/internal/command/snap"
	_ "github.com/keshon/ckpt/internal/command/status"
	_ "github.com/keshon/ckpt/internal/command/verify"
)

var version = "dev"

func newApp() *command.App {
	return &command.App{
		Name:    "ckpt",
		Usage:   "local workspace checkpoints",
		Version: version,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := newApp().Run(ctx, os.Args)
	stop()
	os.Exit(code)
}
