package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/xbr/internal/repositories"
	"github.com/desertthunder/xbr/internal/shared"
	"github.com/desertthunder/xbr/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for browsing snapshot history.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join(os.TempDir(), "xbr-tui.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(shared.NewLogger(logFile))

	repo := repositories.NewSnapshotRepository(db)
	model := ui.NewModel(ctx, repo, cmd.String("gamertag"))
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
