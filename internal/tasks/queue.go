package tasks

import (
	"context"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/ytsubs/internal/channelurl"
	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/services"
	"github.com/desertthunder/ytsubs/internal/shared"
)

// Messages returned in [models.OperationResult] by the mutation queue.
const (
	MsgAuthRequired     = "Authentication required"
	MsgInvalidChannel   = "Invalid channel URL or handle. Please double-check the format."
	MsgAlreadyPending   = "Channel already added and pending save"
	MsgRestored         = "Channel restored from pending removal"
	MsgAlreadyExists    = "Channel already exists"
	MsgAddFailed        = "Failed to add channel. Please try again."
	MsgNotFoundByName   = "Channel not found. Please check the URL or channel name and try again."
	MsgNotFound         = "Channel not found. Please check the URL and try again."
	MsgAuthIssue        = "Authentication issue. Please check your cookies configuration."
	MsgNothingToSave    = "No pending changes to save"
	MsgSaved            = "Channels updated successfully"
	MsgSaveFailed       = "Failed to save channels. Please try again."
	MsgRemovedWhileAdd  = "Channel was marked for removal while it was being added"
	existenceCheckLimit = 16
)

// CommitRecorder journals successful commits. Implementations must be safe for concurrent use.
type CommitRecorder interface {
	RecordCommit(baseURL string, delta models.ChannelDelta, message string) error
}

// QueueOpts configures a [MutationQueue].
type QueueOpts struct {
	Directory services.Directory
	Tokens    oauth2.TokenSource              // nil means no session
	OnRefresh func(ctx context.Context) error // called after undo and after a successful save
	Logger    *log.Logger
	Recorder  CommitRecorder        // optional
	Cacher    ChannelCacher         // optional, evicts committed removals
	BaseURL   string                // recorded alongside each commit
	Progress  chan<- ProgressUpdate // optional, never blocks
}

// QueueSnapshot is a point-in-time copy of the queue's state.
type QueueSnapshot struct {
	PendingAdditions  []models.Channel `json:"pendingAdditions"`
	DeletedChannels   []string         `json:"deletedChannels"`
	HasPendingChanges bool             `json:"hasPendingChanges"`
	IsAddingChannel   bool             `json:"isAddingChannel"`
	IsSaving          bool             `json:"isSaving"`
}

// MutationQueue holds pending channel additions and deletion markers until they are committed in one batched write.
//
// A canonical URL is never both a pending addition and a deletion marker, and each appears at most once.
// Operations report failures through [models.OperationResult]; they never return errors or panic.
// All methods are safe for concurrent use. Network calls are made without holding the lock.
type MutationQueue struct {
	dir       services.Directory
	tokens    oauth2.TokenSource
	onRefresh func(ctx context.Context) error
	logger    *log.Logger
	recorder  CommitRecorder
	cacher    ChannelCacher
	baseURL   string
	progress  chan<- ProgressUpdate

	mu      sync.Mutex
	pending *urlSet[models.Channel]
	deleted *urlSet[struct{}]
	adding  int
	saving  int
}

// NewMutationQueue creates an empty queue.
func NewMutationQueue(opts QueueOpts) *MutationQueue {
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &MutationQueue{
		dir:       opts.Directory,
		tokens:    opts.Tokens,
		onRefresh: opts.OnRefresh,
		logger:    shared.WithLogger(logger, "component", "queue"),
		recorder:  opts.Recorder,
		cacher:    opts.Cacher,
		baseURL:   opts.BaseURL,
		progress:  opts.Progress,
		pending:   newURLSet[models.Channel](),
		deleted:   newURLSet[struct{}](),
	}
}

// SetTokens swaps the session used by subsequent operations.
func (q *MutationQueue) SetTokens(ts oauth2.TokenSource) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tokens = ts
}

func (q *MutationQueue) token() string {
	q.mu.Lock()
	ts := q.tokens
	q.mu.Unlock()
	return shared.CurrentToken(ts)
}

// AddChannel normalizes input and, when it names a channel not yet tracked, queues it as a pending addition.
//
// A URL carrying a deletion marker is restored without touching the network.
func (q *MutationQueue) AddChannel(ctx context.Context, input string) models.OperationResult {
	token := q.token()
	if token == "" {
		return models.Fail(MsgAuthRequired)
	}

	url, ok := channelurl.Normalize(input)
	if !ok {
		return models.Fail(MsgInvalidChannel)
	}

	q.mu.Lock()
	if q.pending.Has(url) {
		q.mu.Unlock()
		return models.Fail(MsgAlreadyPending)
	}
	if q.deleted.Remove(url) {
		q.mu.Unlock()
		q.logger.Info("restored channel", "url", url)
		return models.Ok(MsgRestored)
	}
	q.adding++
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.adding--
		q.mu.Unlock()
	}()

	sendProgress(q.progress, checkExistingUpdate(url))
	exists, err := q.channelExists(ctx, token, url)
	if err != nil {
		q.logger.Warn("existence check failed", "url", url, "error", err)
		return addFailure(err)
	}
	if exists {
		return models.Fail(MsgAlreadyExists)
	}

	sendProgress(q.progress, fetchInfoUpdate(url))
	resp, err := q.dir.AddChannelInfo(ctx, token, url)
	if err != nil {
		q.logger.Warn("channel info request failed", "url", url, "error", err)
		return addFailure(err)
	}
	if !resp.OK() {
		return models.Fail(MsgAddFailed)
	}

	ch := resp.ChannelInfo.ToChannel(url)

	// A removal queued while the add was in flight is the later intent and wins.
	q.mu.Lock()
	if q.deleted.Has(url) {
		q.mu.Unlock()
		q.logger.Info("dropped add for channel marked during lookup", "url", url)
		return models.Fail(MsgRemovedWhileAdd)
	}
	if !q.pending.Put(url, ch) {
		q.mu.Unlock()
		return models.Fail(MsgAlreadyPending)
	}
	q.mu.Unlock()

	q.logger.Info("queued channel", "url", url, "uploader", ch.Uploader)
	sendProgress(q.progress, queuedUpdate(ch))
	return models.Ok("")
}

// channelExists searches the directory for url and reports an exact match among committed channels.
func (q *MutationQueue) channelExists(ctx context.Context, token, url string) (bool, error) {
	page, err := q.dir.ListChannels(ctx, token, models.ChannelQuery{Page: 1, PageSize: existenceCheckLimit, Search: url})
	if err != nil {
		return false, err
	}
	for _, ch := range page.Channels {
		if ch.URL == url {
			return true, nil
		}
	}
	return false, nil
}

// addFailure classifies an error from the existence check or add-info call.
func addFailure(err error) models.OperationResult {
	apiErr, ok := services.AsAPIError(err)
	if !ok {
		return models.Fail(MsgAddFailed)
	}
	switch apiErr.StatusCode {
	case http.StatusServiceUnavailable:
		return models.Fail(MsgNotFoundByName)
	case http.StatusNotFound:
		return models.Fail(MsgNotFound)
	case http.StatusForbidden:
		return models.Fail(MsgAuthIssue)
	}
	return models.Fail(bodyMessage(apiErr, MsgAddFailed))
}

func bodyMessage(apiErr *services.APIError, fallback string) string {
	switch {
	case apiErr.Message != "":
		return apiErr.Message
	case apiErr.Detail != "":
		return apiErr.Detail
	default:
		return fallback
	}
}

// QueueForDeletion drops a pending addition for the channel's URL, or marks a committed channel for removal.
// Marking an already marked URL is a no-op.
func (q *MutationQueue) QueueForDeletion(ch models.Channel) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.pending.Remove(ch.URL) {
		return
	}
	q.deleted.Put(ch.URL, struct{}{})
}

// UndoChanges discards every pending change and calls the refresh callback once.
func (q *MutationQueue) UndoChanges(ctx context.Context) {
	q.mu.Lock()
	q.pending.Clear()
	q.deleted.Clear()
	q.mu.Unlock()

	if q.onRefresh != nil {
		if err := q.onRefresh(ctx); err != nil {
			q.logger.Warn("refresh after undo failed", "error", err)
		}
	}
}

// SaveChanges commits every pending change in a single batched write.
//
// On failure the queue is left exactly as it was.
func (q *MutationQueue) SaveChanges(ctx context.Context) models.OperationResult {
	token := q.token()
	if token == "" {
		return models.Fail(MsgAuthRequired)
	}

	q.mu.Lock()
	if q.pending.Len() == 0 && q.deleted.Len() == 0 {
		q.mu.Unlock()
		return models.Fail(MsgNothingToSave)
	}
	delta := q.deltaLocked()
	q.saving++
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.saving--
		q.mu.Unlock()
	}()

	sendProgress(q.progress, commitUpdate(delta))
	if err := q.dir.UpdateChannels(ctx, token, delta); err != nil {
		q.logger.Error("commit failed", "add", len(delta.Add), "remove", len(delta.Remove), "error", err)
		if apiErr, ok := services.AsAPIError(err); ok {
			return models.Fail(bodyMessage(apiErr, MsgSaveFailed))
		}
		return models.Fail(MsgSaveFailed)
	}

	// Changes queued while the write was in flight stay pending.
	q.mu.Lock()
	for _, ref := range delta.Add {
		q.pending.Remove(ref.URL)
	}
	for _, url := range delta.Remove {
		q.deleted.Remove(url)
	}
	q.mu.Unlock()

	q.logger.Info("committed channel changes", "add", len(delta.Add), "remove", len(delta.Remove))

	if q.recorder != nil {
		if err := q.recorder.RecordCommit(q.baseURL, delta, MsgSaved); err != nil {
			q.logger.Warn("failed to journal commit", "error", err)
		}
	}
	if q.cacher != nil && len(delta.Remove) > 0 {
		if err := q.cacher.EvictChannels(delta.Remove); err != nil {
			q.logger.Warn("failed to evict removed channels from cache", "error", err)
		}
	}

	sendProgress(q.progress, refreshUpdate())
	if q.onRefresh != nil {
		if err := q.onRefresh(ctx); err != nil {
			q.logger.Warn("refresh after save failed", "error", err)
		}
	}
	return models.Ok(MsgSaved)
}

func (q *MutationQueue) deltaLocked() models.ChannelDelta {
	delta := models.ChannelDelta{
		Add:    make([]models.ChannelRef, 0, q.pending.Len()),
		Remove: q.deleted.Keys(),
	}
	for _, ch := range q.pending.Values() {
		delta.Add = append(delta.Add, ch.Ref())
	}
	return delta
}

// PendingAdditions returns a copy of the queued additions in insertion order.
func (q *MutationQueue) PendingAdditions() []models.Channel {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Values()
}

// DeletedChannels returns a copy of the deletion markers in insertion order.
func (q *MutationQueue) DeletedChannels() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.deleted.Keys()
}

// HasPendingChanges reports whether anything is waiting to be saved.
func (q *MutationQueue) HasPendingChanges() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len() > 0 || q.deleted.Len() > 0
}

// IsAddingChannel reports whether any add is waiting on the network.
func (q *MutationQueue) IsAddingChannel() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.adding > 0
}

// IsSaving reports whether a commit is in flight.
func (q *MutationQueue) IsSaving() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.saving > 0
}

// IsPendingAddition reports whether url is queued for addition.
func (q *MutationQueue) IsPendingAddition(url string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Has(url)
}

// IsMarkedForDeletion reports whether url carries a deletion marker.
func (q *MutationQueue) IsMarkedForDeletion(url string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.deleted.Has(url)
}

// Snapshot copies the full queue state.
func (q *MutationQueue) Snapshot() QueueSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueSnapshot{
		PendingAdditions:  q.pending.Values(),
		DeletedChannels:   q.deleted.Keys(),
		HasPendingChanges: q.pending.Len() > 0 || q.deleted.Len() > 0,
		IsAddingChannel:   q.adding > 0,
		IsSaving:          q.saving > 0,
	}
}
