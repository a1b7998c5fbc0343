package tasks

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/oauth2"

	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/services"
)

// fakeDirectory is an in-memory [services.Directory] that records every call.
type fakeDirectory struct {
	mu sync.Mutex

	channels []models.Channel
	infos    map[string]*services.ChannelInfoResponse

	listErr   error
	infoErr   error
	updateErr error

	// block, when set, is received from before each call returns
	block chan struct{}

	listCalls   []models.ChannelQuery
	infoCalls   []string
	updateCalls []models.ChannelDelta
}

func newFakeDirectory(channels ...models.Channel) *fakeDirectory {
	return &fakeDirectory{channels: channels, infos: map[string]*services.ChannelInfoResponse{}}
}

func (f *fakeDirectory) wait(ctx context.Context) error {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeDirectory) ListChannels(ctx context.Context, token string, q models.ChannelQuery) (*models.ChannelPage, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, q)
	err := f.listErr
	all := append([]models.Channel{}, f.channels...)
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	matched := []models.Channel{}
	for _, ch := range all {
		if q.Search == "" || strings.Contains(ch.URL, q.Search) || strings.Contains(ch.Uploader, q.Search) {
			matched = append(matched, ch)
		}
	}

	size := q.PageSize
	if size <= 0 {
		size = 16
	}
	page := max(q.Page, 1)
	start := min((page-1)*size, len(matched))
	end := min(start+size, len(matched))
	totalPages := (len(matched) + size - 1) / size

	return &models.ChannelPage{
		Channels:   matched[start:end],
		Total:      len(matched),
		TotalPages: totalPages,
	}, nil
}

func (f *fakeDirectory) AddChannelInfo(ctx context.Context, token, url string) (*services.ChannelInfoResponse, error) {
	f.mu.Lock()
	f.infoCalls = append(f.infoCalls, url)
	err := f.infoErr
	resp, ok := f.infos[url]
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return &services.ChannelInfoResponse{Status: "error"}, nil
	}
	return resp, nil
}

func (f *fakeDirectory) UpdateChannels(ctx context.Context, token string, delta models.ChannelDelta) error {
	f.mu.Lock()
	f.updateCalls = append(f.updateCalls, delta)
	err := f.updateErr
	f.mu.Unlock()

	if err := f.wait(ctx); err != nil {
		return err
	}
	return err
}

func (f *fakeDirectory) resolve(url, uploader, channelID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infos[url] = &services.ChannelInfoResponse{
		Status:      "success",
		ChannelInfo: &models.ChannelInfo{URL: url, Uploader: uploader, ChannelID: channelID},
	}
}

func (f *fakeDirectory) calls() (list, info, update int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listCalls), len(f.infoCalls), len(f.updateCalls)
}

func staticTokens(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
}

// refreshCounter counts refresh callback invocations.
type refreshCounter struct {
	mu sync.Mutex
	n  int
}

func (r *refreshCounter) refresh(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
	return nil
}

func (r *refreshCounter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// memoryRecorder is an in-memory [CommitRecorder].
type memoryRecorder struct {
	mu     sync.Mutex
	deltas []models.ChannelDelta
}

func (m *memoryRecorder) RecordCommit(_ string, delta models.ChannelDelta, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deltas = append(m.deltas, delta)
	return nil
}
