package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/desertthunder/spotifly/internal/formatter"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp(runner).Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotAuthenticated), errors.Is(err, shared.ErrUnauthorized):
			logger.Error("not signed in to Spotify", "error", err)
			fmt.Fprintln(os.Stderr, formatter.Muted("Run `spotifly auth login` to sign in."))
			os.Exit(1)
		case errors.Is(err, shared.ErrNotImplemented):
			logger.Warn("not implemented")
			os.Exit(0)
		case errors.Is(err, context.Canceled):
			os.Exit(130)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "spotifly",
		Usage:    "Browse, edit and sync a Spotify library from the terminal",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   r.before,
		Commands: r.register(),
	}
}
