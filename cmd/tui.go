package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ptt/internal/shared"
	"github.com/desertthunder/ptt/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive video browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.UI.LogFile
	if logPath == "" {
		logPath = "./tmp/ptt-tui.log"
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	notices := ui.NewStatusNotifier(16)
	tracker, err := r.tracker(notices)
	if err != nil {
		return err
	}
	sel, err := r.selector()
	if err != nil {
		return err
	}
	store, err := r.categoryStore()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Deps{
		API:        r.service,
		Tracker:    tracker,
		Creators:   sel,
		Categories: store,
		Notices:    notices,
		Open:       r.open,
		PageSize:   r.config.UI.PageSize,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
