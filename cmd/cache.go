package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytsubs/internal/formatter"
	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/repositories"
	"github.com/desertthunder/ytsubs/internal/shared"
)

// CacheList prints channels cached by earlier listings, optionally filtered by uploader or URL.
//
// Reads only the local database; no session is needed.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cache := repositories.NewChannelCache(repositories.NewChannelCacheRepository(db))
	cached, err := cache.Search(cmd.String("search"))
	if err != nil {
		return err
	}
	if len(cached) == 0 {
		return r.writePlain("No cached channels\n")
	}

	channels := make([]models.Channel, len(cached))
	newest := time.Time{}
	for i, c := range cached {
		channels[i] = c.Channel()
		if c.SeenAt().After(newest) {
			newest = c.SeenAt()
		}
	}

	r.writePlain("%s\n", formatter.ChannelTable(channels, nil))
	return r.writePlain("%s cached channels, last seen %s\n", humanize.Comma(int64(len(channels))), humanize.Time(newest))
}

// History prints the local journal of batched commits, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	commits, err := repositories.NewCommitLog(repositories.NewCommitRepository(db)).Recent(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		type entry struct {
			Sequence  int                 `json:"sequence"`
			CreatedAt time.Time           `json:"created_at"`
			BaseURL   string              `json:"base_url"`
			Message   string              `json:"message"`
			Delta     models.ChannelDelta `json:"delta"`
		}
		out := make([]entry, len(commits))
		for i, c := range commits {
			out[i] = entry{c.Sequence(), c.CreatedAt(), c.BaseURL(), c.Message(), c.Delta()}
		}
		return r.writeJSON(out, true)
	}

	return formatter.WriteCommitHistory(r.output, commits, time.Now())
}

// DownloadsTrigger starts downloads for every channel, or for the given video URLs only.
func (r *Runner) DownloadsTrigger(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAPI(); err != nil {
		return err
	}
	token, err := r.sessionToken()
	if err != nil {
		return err
	}

	var job *models.DownloadJob
	if urls := cmd.StringSlice("url"); len(urls) > 0 {
		r.logger.Info("triggering specific downloads", "count", len(urls))
		job, err = r.api.TriggerSpecificDownloads(ctx, token, urls)
	} else {
		r.logger.Info("triggering channel downloads")
		job, err = r.api.TriggerChannelDownloads(ctx, token)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	r.writePlain("✓ Download job started\n")
	if job.JobID != "" {
		r.writePlain("Job: %s\n", job.JobID)
	}
	if job.Status != "" {
		r.writePlain("Status: %s\n", job.Status)
	}
	return nil
}
