package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotifly/internal/formatter"
	"github.com/desertthunder/spotifly/internal/shared"
	"github.com/desertthunder/spotifly/internal/tasks"
	"github.com/desertthunder/spotifly/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// TUI launches the interactive playlist browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("as"))
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("%w: tui needs an interactive terminal", shared.ErrInvalidArgument)
	}

	logFile := &lumberjack.Logger{
		Filename:   cmd.String("log-file"),
		MaxSize:    5, // MB
		MaxBackups: 2,
		MaxAge:     14, // days
	}
	defer logFile.Close()
	r.logger.SetOutput(logFile)

	engine, err := r.engine(ctx)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, r.svc, r.store, engine, tasks.BulkExportOpts{
		Format:    format,
		OutputDir: cmd.String("output"),
		RateLimit: r.config.API.RequestsPerSecond,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
