package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytsubs/internal/formatter"
	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/shared"
	"github.com/desertthunder/ytsubs/internal/tasks"
)

// progressPrinter starts a goroutine printing updates and returns the channel plus a func that
// closes it and waits for the printer to drain.
func (r *Runner) progressPrinter(prefix string) (chan tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.CommitChanges, tasks.ExportChannels:
				r.writePlain("\n%s %s\n", prefix, update.Message)
			default:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()
	return progressCh, func() {
		close(progressCh)
		<-done
	}
}

// ChannelsList prints one page of tracked channels.
func (r *Runner) ChannelsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	if _, err := r.sessionToken(); err != nil {
		return err
	}

	closeStore := r.useStore()
	defer closeStore()

	params := tasks.ListParams{
		Page:      cmd.Int("page"),
		PageSize:  cmd.Int("page-size"),
		Search:    cmd.String("search"),
		SortOrder: models.ParseSortOrder(r.config.UI.SortOrder),
		SubFolder: cmd.String("sub-folder"),
	}
	if params.PageSize == 0 {
		params.PageSize = r.config.UI.PageSize
	}
	if s := cmd.String("sort"); s != "" {
		if s != string(models.SortAsc) && s != string(models.SortDesc) {
			return fmt.Errorf("%w: --sort must be asc or desc", shared.ErrInvalidFlag)
		}
		params.SortOrder = models.ParseSortOrder(s)
	}

	list := r.engine.NewList(nil)
	defer list.Close()

	r.logger.Info("listing channels", "page", params.Page, "search", params.Search, "sort", params.SortOrder)
	state := list.SetParams(ctx, params)
	if state.Error != "" {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, state.Error)
	}

	if cmd.Bool("json") {
		return r.writeJSON(state, true)
	}

	if len(state.Channels) == 0 {
		return r.writePlain("No channels found\n")
	}
	r.writePlain("%s\n", formatter.ChannelTable(state.Channels, nil))
	return r.writePlain("Page %d/%d · %d channels\n", list.Params().Page, max(1, state.TotalPages), state.Total)
}

// ChannelsApply queues additions and removals and commits them in one batched write.
func (r *Runner) ChannelsApply(ctx context.Context, cmd *cli.Command) error {
	adds := cmd.StringSlice("add")
	removes := cmd.StringSlice("remove")
	asJSON := cmd.Bool("json")

	closeStore := r.useStore()
	defer closeStore()

	var progressCh chan tasks.ProgressUpdate
	wait := func() {}
	if !asJSON {
		progressCh, wait = r.progressPrinter("💾")
		r.writePlain("Applying %d addition(s) and %d removal(s)...\n\n", len(adds), len(removes))
	}

	result, err := r.engine.Apply(ctx, progressCh, adds, removes)
	wait()
	if err != nil {
		return err
	}

	if asJSON {
		if err := r.writeJSON(result, true); err != nil {
			return err
		}
	} else {
		r.writePlainHeader("Apply Results")
		for _, res := range result.Removes {
			r.writeInputResult("-", res)
		}
		for _, res := range result.Adds {
			r.writeInputResult("+", res)
		}
		r.writePlain("\nAccepted: %d/%d\n", result.Succeeded(), len(result.Adds)+len(result.Removes))
		r.writePlain("Commit: %s\n", result.Save.Message)
	}

	if !result.Save.Success && !result.Delta.Empty() {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, result.Save.Message)
	}
	return nil
}

func (r *Runner) writeInputResult(sign string, res tasks.InputResult) {
	target := res.URL
	if target == "" {
		target = res.Input
	}
	if res.Result.Success {
		r.writePlain("  ✓ %s %s\n", sign, target)
		return
	}
	r.writePlain("  ✗ %s %s: %s\n", sign, target, res.Result.Message)
}

// ChannelsExport fetches every tracked channel and writes it in the requested format.
func (r *Runner) ChannelsExport(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.sessionToken(); err != nil {
		return err
	}

	closeStore := r.useStore()
	defer closeStore()

	opts := tasks.ExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		PageSize:   cmd.Int("page-size"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  r.config.Backend.RequestsPerSecond,
		Source:     r.config.Backend.BaseURL,
	}

	r.logger.Info("starting export", "format", opts.Format, "output", opts.OutputDir, "workers", opts.NumWorkers)
	r.writePlain("Exporting channels as %s...\n\n", opts.Format)

	progressCh, wait := r.progressPrinter("✓")
	result, err := r.engine.ExportChannels(ctx, progressCh, opts)
	wait()
	if err != nil {
		return err
	}

	m := result.Manifest
	r.writePlain("\n")
	r.writePlainHeader("Export Complete")
	r.writePlain("Channels: %d/%d\n", m.Exported, m.Total)
	r.writePlain("Pages: %d ok, %d failed\n", m.PagesOK, len(m.PagesFailed))
	for _, f := range m.Files {
		r.writePlain("  %s\n", f)
	}
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	return nil
}

// SettingsGet prints a channel's download settings.
func (r *Runner) SettingsGet(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	token, err := r.sessionToken()
	if err != nil {
		return err
	}

	settings, err := r.api.GetChannelSettings(ctx, token, cmd.String("id"))
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return r.writeJSON(settings, true)
}

// SettingsSet updates a channel's download settings. Flags that are not set keep the stored value.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	token, err := r.sessionToken()
	if err != nil {
		return err
	}
	id := cmd.String("id")

	current, err := r.api.GetChannelSettings(ctx, token, id)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	next := *current
	changed := false
	if cmd.IsSet("sub-folder") {
		v := cmd.String("sub-folder")
		next.SubFolder = &v
		changed = true
	}
	if cmd.IsSet("quality") {
		v := cmd.String("quality")
		next.VideoQuality = &v
		changed = true
	}
	if cmd.IsSet("min-duration") {
		v := cmd.Int("min-duration")
		next.MinDuration = &v
		changed = true
	}
	if cmd.IsSet("max-duration") {
		v := cmd.Int("max-duration")
		next.MaxDuration = &v
		changed = true
	}
	if cmd.IsSet("title-filter") {
		v := cmd.String("title-filter")
		next.TitleFilterRegex = &v
		changed = true
	}
	if !changed {
		return fmt.Errorf("%w: set at least one of --sub-folder, --quality, --min-duration, --max-duration, --title-filter", shared.ErrMissingArgument)
	}
	if next.MinDuration != nil && next.MaxDuration != nil && *next.MaxDuration > 0 && *next.MinDuration > *next.MaxDuration {
		return fmt.Errorf("%w: --min-duration exceeds --max-duration", shared.ErrInvalidFlag)
	}

	r.logger.Info("updating channel settings", "id", id)
	stored, err := r.api.UpdateChannelSettings(ctx, token, id, next)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ Settings updated for %s\n", id)
	return r.writeJSON(stored, true)
}
