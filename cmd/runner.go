package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/ytsubs/internal/repositories"
	"github.com/desertthunder/ytsubs/internal/services"
	"github.com/desertthunder/ytsubs/internal/shared"
	"github.com/desertthunder/ytsubs/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	tokens     oauth2.TokenSource
	engine     *tasks.ChannelEngine
	store      *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Tokens     oauth2.TokenSource // defaults to the session saved at Config.Session.Path
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Tokens == nil {
		opts.Tokens = shared.SessionTokenSource(opts.Config.Session.Path)
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		tokens:     opts.Tokens,
	}
	r.engine = r.newEngine(nil, nil)
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, channelsCommand, downloadsCommand, historyCommand,
		cacheCommand, apiCommand, serveCommand, tuiCommand, openCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and everything it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if r.api != nil {
		r.api.SetLogger(l)
	}
	r.engine = r.newEngine(nil, nil)
}

// SetTokens swaps the session after a login or import.
func (r *Runner) SetTokens(ts oauth2.TokenSource) {
	r.tokens = ts
	r.engine.SetTokens(ts)
}

func (r *Runner) newEngine(recorder tasks.CommitRecorder, cacher tasks.ChannelCacher) *tasks.ChannelEngine {
	var dir services.Directory
	baseURL := r.config.Backend.BaseURL
	if r.api != nil {
		dir = r.api
		baseURL = r.api.BaseURL()
	}
	return tasks.NewChannelEngine(tasks.EngineOpts{
		Directory:   dir,
		Tokens:      r.tokens,
		Logger:      r.logger,
		Recorder:    recorder,
		Cacher:      cacher,
		BaseURL:     baseURL,
		ListTimeout: r.config.Backend.Timeout(),
	})
}

// useStore opens the local database and rebuilds the engine with the commit journal and channel cache.
//
// A database that cannot be opened is logged and skipped; the returned func closes whatever was opened.
func (r *Runner) useStore() func() {
	if r.store != nil {
		return func() {}
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		r.logger.Warn("local database unavailable, commits will not be journaled", "error", err)
		return func() {}
	}
	r.store = db

	commits := repositories.NewCommitLog(repositories.NewCommitRepository(db))
	cache := repositories.NewChannelCache(repositories.NewChannelCacheRepository(db))
	r.engine = r.newEngine(commits, cache)

	return func() {
		r.engine = r.newEngine(nil, nil)
		r.store = nil
		if err := db.Close(); err != nil {
			r.logger.Warn("failed to close database", "error", err)
		}
	}
}

// sessionToken returns the current session token or [shared.ErrNotAuthenticated].
func (r *Runner) sessionToken() (string, error) {
	if tok := shared.CurrentToken(r.tokens); tok != "" {
		return tok, nil
	}
	return "", fmt.Errorf("%w: run 'ytsubs auth login' or 'ytsubs auth import' first", shared.ErrNotAuthenticated)
}

func (r *Runner) requireAPI() error {
	if r.api == nil {
		return fmt.Errorf("%w: backend client not initialized", shared.ErrServiceUnavailable)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writeRaw(body []byte, asJSON bool, data any, pretty bool) error {
	if asJSON {
		return r.writeJSON(data, pretty)
	}
	if _, err := r.output.Write(append(body, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
