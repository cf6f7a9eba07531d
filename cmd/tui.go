package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tastebud/internal/shared"
	"github.com/desertthunder/tastebud/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, shared.ParseLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	s, err := r.newSession()
	if err != nil {
		return err
	}
	r.logger.Info("session started", "session", s.ID, "backend", r.config.Backend.BaseURL)

	model := ui.NewModel(ctx, ui.Options{Session: s, Logger: shared.WithLogger(r.logger, "component", "ui")})

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if r.config.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}

	if _, err := tea.NewProgram(model, opts...).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
