package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/services"
	"github.com/desertthunder/ytsubs/internal/shared"
	"github.com/desertthunder/ytsubs/internal/tasks"
	"github.com/desertthunder/ytsubs/internal/ui"
)

// TUI launches the interactive channel manager.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	if _, err := r.sessionToken(); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(r.config.UI.LogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	shared.SetLogLevel(fileLogger, shared.ParseLogLevel(r.config.Log.Level))
	r.SetLogger(fileLogger)

	closeStore := r.useStore()
	defer closeStore()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := make(chan tasks.ProgressUpdate, 50)
	list := r.engine.NewList(progress)
	defer list.Close()
	queue := r.engine.NewQueue(progress, func(ctx context.Context) error {
		list.Refetch(ctx)
		return nil
	})

	opts := ui.Opts{
		Queue:     queue,
		List:      list,
		Progress:  progress,
		PageSize:  r.config.UI.PageSize,
		SortOrder: models.ParseSortOrder(r.config.UI.SortOrder),
	}
	if url := r.config.Backend.EventsURL(); url != "" && !cmd.Bool("no-events") {
		opts.Stream = services.NewEventStream(url, shared.CurrentToken(r.tokens), fileLogger)
		go opts.Stream.Run(ctx)
	}

	model := ui.NewModel(ctx, opts)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if queue.HasPendingChanges() {
		r.writePlain("Discarded %d unsaved addition(s) and %d removal(s)\n",
			len(queue.PendingAdditions()), len(queue.DeletedChannels()))
	}
	return nil
}
