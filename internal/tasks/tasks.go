package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/ytsubs/internal/channelurl"
	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/services"
	"github.com/desertthunder/ytsubs/internal/shared"
)

// InputResult pairs a user-supplied channel reference with the queue's answer.
type InputResult struct {
	Input  string                 `json:"input"`
	URL    string                 `json:"url,omitempty"`
	Result models.OperationResult `json:"result"`
}

// ApplyResult contains every per-input outcome of [ChannelEngine.Apply] and the final commit result.
type ApplyResult struct {
	Adds    []InputResult          `json:"adds"`
	Removes []InputResult          `json:"removes"`
	Delta   models.ChannelDelta    `json:"delta"`
	Save    models.OperationResult `json:"save"`
}

// Succeeded counts successful per-input results.
func (r *ApplyResult) Succeeded() int {
	n := 0
	for _, res := range append(append([]InputResult{}, r.Adds...), r.Removes...) {
		if res.Result.Success {
			n++
		}
	}
	return n
}

// EngineOpts contains dependencies for a [ChannelEngine].
type EngineOpts struct {
	Directory   services.Directory
	Tokens      oauth2.TokenSource
	Logger      *log.Logger
	Recorder    CommitRecorder
	Cacher      ChannelCacher
	BaseURL     string
	ListTimeout time.Duration
}

// ChannelEngine wires the directory, session, and persistence hooks into queues and list views.
type ChannelEngine struct {
	dir         services.Directory
	tokens      oauth2.TokenSource
	logger      *log.Logger
	recorder    CommitRecorder
	cacher      ChannelCacher
	baseURL     string
	listTimeout time.Duration
}

// NewChannelEngine creates a new ChannelEngine with the provided dependencies.
func NewChannelEngine(opts EngineOpts) *ChannelEngine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &ChannelEngine{
		dir:         opts.Directory,
		tokens:      opts.Tokens,
		logger:      opts.Logger,
		recorder:    opts.Recorder,
		cacher:      opts.Cacher,
		baseURL:     opts.BaseURL,
		listTimeout: opts.ListTimeout,
	}
}

// SetTokens replaces the session used by queues and lists created afterwards.
func (e *ChannelEngine) SetTokens(ts oauth2.TokenSource) { e.tokens = ts }

// NewQueue creates a mutation queue bound to this engine's session, recorder and cache.
func (e *ChannelEngine) NewQueue(progress chan<- ProgressUpdate, onRefresh func(ctx context.Context) error) *MutationQueue {
	return NewMutationQueue(QueueOpts{
		Directory: e.dir,
		Tokens:    e.tokens,
		OnRefresh: onRefresh,
		Logger:    e.logger,
		Recorder:  e.recorder,
		Cacher:    e.cacher,
		BaseURL:   e.baseURL,
		Progress:  progress,
	})
}

// NewList creates a list accessor bound to this engine's session and cache.
func (e *ChannelEngine) NewList(progress chan<- ProgressUpdate) *ChannelList {
	return NewChannelList(ListOpts{
		Directory: e.dir,
		Tokens:    e.tokens,
		Timeout:   e.listTimeout,
		Logger:    e.logger,
		Cacher:    e.cacher,
		Progress:  progress,
	})
}

// Apply queues every addition and removal, then commits them in one batched write.
//
// Removals are normalized the same way additions are. Inputs that fail are reported per input and do not stop the batch.
func (e *ChannelEngine) Apply(ctx context.Context, progress chan<- ProgressUpdate, adds, removes []string) (*ApplyResult, error) {
	if e.dir == nil {
		return nil, fmt.Errorf("%w: channel directory not initialized", shared.ErrServiceUnavailable)
	}
	if shared.CurrentToken(e.tokens) == "" {
		return nil, fmt.Errorf("%w: run `ytsubs auth login` first", shared.ErrNotAuthenticated)
	}
	if len(adds) == 0 && len(removes) == 0 {
		return nil, fmt.Errorf("%w: nothing to add or remove", shared.ErrMissingArgument)
	}

	queue := e.NewQueue(progress, nil)
	result := &ApplyResult{
		Adds:    make([]InputResult, 0, len(adds)),
		Removes: make([]InputResult, 0, len(removes)),
	}

	for _, input := range removes {
		url, ok := channelurl.Normalize(input)
		if !ok {
			result.Removes = append(result.Removes, InputResult{Input: input, Result: models.Fail(MsgInvalidChannel)})
			continue
		}
		queue.QueueForDeletion(models.Channel{URL: url})
		result.Removes = append(result.Removes, InputResult{Input: input, URL: url, Result: models.Ok("")})
	}

	for _, input := range adds {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		res := queue.AddChannel(ctx, input)
		url, _ := channelurl.Normalize(input)
		result.Adds = append(result.Adds, InputResult{Input: input, URL: url, Result: res})
		e.logger.Debug("apply add", "input", input, "success", res.Success, "message", res.Message)
	}

	snap := queue.Snapshot()
	result.Delta = models.ChannelDelta{Add: []models.ChannelRef{}, Remove: snap.DeletedChannels}
	for _, ch := range snap.PendingAdditions {
		result.Delta.Add = append(result.Delta.Add, ch.Ref())
	}

	result.Save = queue.SaveChanges(ctx)
	return result, nil
}
