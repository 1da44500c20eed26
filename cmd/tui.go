package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/moviex/internal/locale"
	"github.com/desertthunder/moviex/internal/shared"
	"github.com/desertthunder/moviex/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive movie browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join(shared.ExpandHome(r.config.Session.Dir), "tui.log")
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.logger = fileLogger

	movies, err := r.movieService()
	if err != nil {
		return err
	}

	opts := ui.Opts{
		Movies:       movies,
		Switcher:     locale.NewSwitcher(r.localeFrom(cmd)),
		Debounce:     r.config.Feed.Debounce(),
		PrefetchRows: r.config.Feed.PrefetchRows,
		ImageBase:    r.config.TMDB.ImageBaseURL,
		Logger:       fileLogger,
	}
	if accounts, err := r.accountService(); err != nil {
		fileLogger.Warn("accounts unavailable", "error", err)
	} else {
		opts.Accounts = accounts
	}

	model := ui.NewModel(ctx, opts)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen(), tea.WithMouseCellMotion())
	model.SetSender(p.Send)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
