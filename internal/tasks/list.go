package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/ytsubs/internal/channelurl"
	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/services"
	"github.com/desertthunder/ytsubs/internal/shared"
)

const (
	MsgListTimeout = "Channel sync timed out. Please try again."
	MsgListFailed  = "Failed to load channels"

	DefaultPageSize    = 16
	DefaultListTimeout = 15 * time.Second
)

// ChannelCacher receives every page the list accessor loads and every removal the queue commits.
//
// Caching is best effort: errors are logged and otherwise ignored.
type ChannelCacher interface {
	CacheChannels(channels []models.Channel) error
	EvictChannels(urls []string) error
}

// ListParams is the tuple that selects a view of the remote channel list.
type ListParams struct {
	Page      int
	PageSize  int
	Search    string
	SortOrder models.SortOrder
	SubFolder string
	Append    bool // accumulate pages after the first instead of replacing them
}

func (p ListParams) normalized() ListParams {
	p.Page = max(p.Page, 1)
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.SortOrder == "" {
		p.SortOrder = models.SortAsc
	}
	return p
}

func (p ListParams) query() models.ChannelQuery {
	return models.ChannelQuery{
		Page:      p.Page,
		PageSize:  p.PageSize,
		Search:    p.Search,
		SortOrder: p.SortOrder,
		SubFolder: p.SubFolder,
	}
}

// filterKey identifies the accumulated result set in append mode. Page is deliberately absent.
func (p ListParams) filterKey(token string) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d", token, p.Search, p.SortOrder, p.SubFolder, p.PageSize)
}

// ListState is what the list accessor currently exposes.
type ListState struct {
	Channels   []models.Channel `json:"channels"`
	Total      int              `json:"total"`
	TotalPages int              `json:"totalPages"`
	SubFolders []string         `json:"subFolders"`
	Loading    bool             `json:"loading"`
	Error      string           `json:"error,omitempty"`
}

func emptyListState() ListState {
	return ListState{Channels: []models.Channel{}, SubFolders: []string{}}
}

func (s ListState) clone() ListState {
	s.Channels = append([]models.Channel{}, s.Channels...)
	s.SubFolders = append([]string{}, s.SubFolders...)
	return s
}

// ListOpts configures a [ChannelList].
type ListOpts struct {
	Directory services.Directory
	Tokens    oauth2.TokenSource
	Timeout   time.Duration // per request, defaults to [DefaultListTimeout]
	Logger    *log.Logger
	Cacher    ChannelCacher // optional
	Progress  chan<- ProgressUpdate
}

// ChannelList is a paginated, stale-safe read view over the remote channel directory.
//
// Each fetch captures a generation number; a response is applied only if its generation is still current
// and the list has not been closed.
type ChannelList struct {
	dir      services.Directory
	timeout  time.Duration
	logger   *log.Logger
	cacher   ChannelCacher
	progress chan<- ProgressUpdate

	mu         sync.Mutex
	tokens     oauth2.TokenSource
	params     ListParams
	hasParams  bool
	lastToken  string
	filter     string
	generation uint64
	closed     bool
	state      ListState
}

// NewChannelList creates a list accessor. Nothing is fetched until [ChannelList.SetParams] is called.
func NewChannelList(opts ListOpts) *ChannelList {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultListTimeout
	}
	return &ChannelList{
		dir:      opts.Directory,
		tokens:   opts.Tokens,
		timeout:  timeout,
		logger:   shared.WithLogger(logger, "component", "list"),
		cacher:   opts.Cacher,
		progress: opts.Progress,
		state:    emptyListState(),
	}
}

// SetTokens swaps the session. The next SetParams call refetches even with unchanged params.
func (l *ChannelList) SetTokens(ts oauth2.TokenSource) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tokens = ts
}

// SetParams selects a new view and fetches it. An unchanged tuple returns the current state without a request.
func (l *ChannelList) SetParams(ctx context.Context, p ListParams) ListState {
	p = p.normalized()

	l.mu.Lock()
	ts := l.tokens
	l.mu.Unlock()
	token := shared.CurrentToken(ts)

	l.mu.Lock()
	if l.hasParams && l.params == p && l.lastToken == token {
		defer l.mu.Unlock()
		return l.state.clone()
	}
	l.params = p
	l.hasParams = true
	l.mu.Unlock()

	return l.fetch(ctx, token)
}

// Refetch re-runs the current tuple.
func (l *ChannelList) Refetch(ctx context.Context) ListState {
	l.mu.Lock()
	ts := l.tokens
	if !l.hasParams {
		l.params = ListParams{}.normalized()
		l.hasParams = true
	}
	l.mu.Unlock()

	return l.fetch(ctx, shared.CurrentToken(ts))
}

// Params returns the current tuple.
func (l *ChannelList) Params() ListParams {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.hasParams {
		return ListParams{}.normalized()
	}
	return l.params
}

// State returns a copy of the current state.
func (l *ChannelList) State() ListState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}

// Close stops the list from applying any response still in flight.
func (l *ChannelList) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	l.generation++
}

func (l *ChannelList) fetch(ctx context.Context, token string) ListState {
	l.mu.Lock()
	if l.closed {
		defer l.mu.Unlock()
		return l.state.clone()
	}
	l.generation++
	gen := l.generation
	p := l.params
	l.lastToken = token

	if token == "" {
		l.state = emptyListState()
		l.filter = ""
		defer l.mu.Unlock()
		return l.state.clone()
	}

	key := p.filterKey(token)
	replace := !p.Append || p.Page <= 1 || key != l.filter
	// Outside append mode the previous rows stay visible until the response replaces them.
	if p.Append && key != l.filter {
		l.state = emptyListState()
	}
	l.filter = key
	l.state.Loading = true
	l.mu.Unlock()

	sendProgress(l.progress, fetchPageUpdate(p.Page, max(p.Page, l.State().TotalPages)))

	reqCtx, cancel := context.WithTimeout(ctx, l.timeout)
	page, err := l.dir.ListChannels(reqCtx, token, p.query())
	timedOut := errors.Is(reqCtx.Err(), context.DeadlineExceeded)
	cancel()

	if err == nil && l.cacher != nil {
		if cacheErr := l.cacher.CacheChannels(page.Channels); cacheErr != nil {
			l.logger.Debug("failed to cache channels", "error", cacheErr)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed || gen != l.generation {
		l.logger.Debug("discarding stale channel page", "page", p.Page, "generation", gen)
		return l.state.clone()
	}
	l.state.Loading = false

	if err != nil {
		l.logger.Warn("failed to load channels", "page", p.Page, "error", err)
		l.state.Error = listFailure(err, timedOut)
		if replace {
			l.state.Channels = []models.Channel{}
			l.state.Total = 0
			l.state.TotalPages = 0
			l.state.SubFolders = []string{}
		}
		return l.state.clone()
	}

	l.state.Error = ""
	if replace {
		l.state.Channels = append([]models.Channel{}, page.Channels...)
	} else {
		l.state.Channels = mergeChannels(l.state.Channels, page.Channels)
	}
	l.state.Total = page.Total
	l.state.TotalPages = page.TotalPages
	l.state.SubFolders = channelurl.NormalizeSubFolderKeys(page.SubFolders)
	return l.state.clone()
}

// mergeChannels appends next to prev, skipping channels already present by id or URL.
func mergeChannels(prev, next []models.Channel) []models.Channel {
	seen := make(map[string]bool, len(prev)+len(next))
	merged := make([]models.Channel, 0, len(prev)+len(next))
	for _, ch := range append(append([]models.Channel{}, prev...), next...) {
		if seen[ch.Key()] {
			continue
		}
		seen[ch.Key()] = true
		merged = append(merged, ch)
	}
	return merged
}

func listFailure(err error, timedOut bool) string {
	if timedOut || errors.Is(err, shared.ErrTimeout) {
		return MsgListTimeout
	}
	if apiErr, ok := services.AsAPIError(err); ok && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return MsgListFailed
}
