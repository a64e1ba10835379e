// Package main is the entry point for the hdlbuild build scheduler.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/hdlbuild/cmd/hdlbuild/commands"
	"go.trai.ch/hdlbuild/internal/app"
	"go.trai.ch/hdlbuild/internal/core/domain"
	_ "go.trai.ch/hdlbuild/internal/wiring"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitInterrupted = 130
)

// ComponentProvider is a function that returns the application components.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr, resolveComponents))
}

func resolveComponents(ctx context.Context) (*app.Components, func(), error) {
	c, _, err := graft.ExecuteFor[*app.Components](ctx)
	return c, func() {}, err
}

func run(ctx context.Context, args []string, stderr io.Writer, provider ComponentProvider) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, cleanup, err := provider(ctx)
	if err != nil {
		// No logger yet.
		_, _ = fmt.Fprintf(stderr, "hdlbuild: %v\n", err)
		return exitFailure
	}
	defer cleanup()

	cli := commands.New(components.App)
	cli.SetArgs(args)
	cli.SetOutput(os.Stdout, stderr)

	err = cli.Execute(ctx)
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrBuildHasErrors):
		// The records are already on stdout.
		return exitFailure
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		components.Logger.Warn("interrupted, the session was saved")
		return exitInterrupted
	default:
		components.Logger.Error(err)
		return exitFailure
	}
}
