package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/ytsubs/internal/formatter"
	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/shared"
)

// ExportOpts contains configuration for a full channel export.
type ExportOpts struct {
	Format     string  // json, csv, markdown, txt
	OutputDir  string  // defaults to channels_export_{epoch}
	PageSize   int     // channels per request (default: 50)
	NumWorkers int     // concurrent page fetchers (default: 4, max: 10)
	RateLimit  float64 // requests per second (default: 5)
	Source     string  // recorded in the export metadata
}

// ExportResult summarizes an export run.
type ExportResult struct {
	Export       *models.ChannelExport
	Manifest     *formatter.ExportManifest
	ManifestPath string
}

type pageResult struct {
	page     int
	channels []models.Channel
	err      error
}

// ExportChannels fetches every page of the directory with a rate-limited worker pool and writes it in the requested format.
//
// Pages that fail are recorded in the manifest; the export still succeeds if page one loads.
func (e *ChannelEngine) ExportChannels(ctx context.Context, progress chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if e.dir == nil {
		return nil, fmt.Errorf("%w: channel directory not initialized", shared.ErrServiceUnavailable)
	}
	token := shared.CurrentToken(e.tokens)
	if token == "" {
		return nil, fmt.Errorf("%w: run `ytsubs auth login` first", shared.ErrNotAuthenticated)
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("channels_export_%d", time.Now().Unix())
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	switch opts.Format {
	case "":
		opts.Format = "json"
	case "json", "csv", "markdown", "md", "txt":
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, opts.Format)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	query := func(page int) models.ChannelQuery {
		return models.ChannelQuery{Page: page, PageSize: opts.PageSize, SortOrder: models.SortAsc}
	}

	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}
	first, err := e.dir.ListChannels(ctx, token, query(1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch first page: %w", shared.ErrAPIRequest, err)
	}
	totalPages := max(first.TotalPages, 1)
	sendProgress(progress, fetchPageUpdate(1, totalPages))

	pages := make([][]models.Channel, totalPages+1)
	pages[1] = first.Channels

	manifest := &formatter.ExportManifest{
		Format:      opts.Format,
		ExportedAt:  time.Now().UTC(),
		Total:       first.Total,
		PagesOK:     1,
		PagesFailed: []formatter.PageFailure{},
	}

	if totalPages > 1 {
		jobs := make(chan int, totalPages-1)
		results := make(chan pageResult, totalPages-1)

		var wg sync.WaitGroup
		for i := 0; i < opts.NumWorkers; i++ {
			wg.Add(1)
			go e.pageWorker(ctx, &wg, limiter, token, query, jobs, results)
		}

		for page := 2; page <= totalPages; page++ {
			jobs <- page
		}
		close(jobs)

		go func() {
			wg.Wait()
			close(results)
		}()

		for res := range results {
			if res.err != nil {
				manifest.PagesFailed = append(manifest.PagesFailed, formatter.PageFailure{Page: res.page, Error: res.err.Error()})
				sendProgress(progress, fetchPageFailedUpdate(res.page, totalPages, res.err))
				continue
			}
			pages[res.page] = res.channels
			manifest.PagesOK++
			sendProgress(progress, fetchPageUpdate(res.page, totalPages))
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	var channels []models.Channel
	for _, p := range pages {
		channels = mergeChannels(channels, p)
	}

	export := &models.ChannelExport{
		Source:     opts.Source,
		ExportedAt: manifest.ExportedAt,
		Total:      first.Total,
		Channels:   channels,
	}

	files, err := writeExport(export, opts)
	if err != nil {
		return nil, err
	}
	manifest.Exported = len(channels)
	manifest.Files = files
	sendProgress(progress, exportWrittenUpdate(files))

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteExportManifest(manifest, manifestPath); err != nil {
		return &ExportResult{Export: export, Manifest: manifest}, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}

	e.logger.Info("exported channels", "channels", len(channels), "pages_failed", len(manifest.PagesFailed), "dir", opts.OutputDir)
	return &ExportResult{Export: export, Manifest: manifest, ManifestPath: manifestPath}, nil
}

// pageWorker fetches pages from the jobs channel, waiting on the shared limiter before each request.
func (e *ChannelEngine) pageWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	token string,
	query func(int) models.ChannelQuery,
	jobs <-chan int,
	results chan<- pageResult,
) {
	defer wg.Done()

	for page := range jobs {
		if err := limiter.Wait(ctx); err != nil {
			results <- pageResult{page: page, err: err}
			continue
		}

		res, err := e.dir.ListChannels(ctx, token, query(page))
		if err != nil {
			results <- pageResult{page: page, err: err}
			continue
		}
		results <- pageResult{page: page, channels: res.Channels}
	}
}

func writeExport(export *models.ChannelExport, opts ExportOpts) ([]string, error) {
	switch opts.Format {
	case "csv":
		res, err := formatter.WriteCSVExport(export, filepath.Join(opts.OutputDir, "channels"))
		if err != nil {
			return nil, fmt.Errorf("CSV export failed: %w", err)
		}
		return []string{res.ChannelsFile, res.MetadataFile}, nil
	case "markdown", "md":
		res, err := formatter.WriteMarkdownExport(export, opts.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("markdown export failed: %w", err)
		}
		return res.Files, nil
	case "txt":
		path, err := formatter.WriteTextExport(export, filepath.Join(opts.OutputDir, "channels.txt"))
		if err != nil {
			return nil, fmt.Errorf("text export failed: %w", err)
		}
		return []string{path}, nil
	case "json":
		path, err := formatter.WriteJSONExport(export, filepath.Join(opts.OutputDir, "channels.json"))
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, opts.Format)
	}
}
