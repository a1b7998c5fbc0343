package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/shared"
)

// channelListBody tolerates both list shapes the backend has shipped:
// channels as a bare array or as {rows, count, totalPages}.
type channelListBody struct {
	Channels   json.RawMessage `json:"channels"`
	Total      *int            `json:"total"`
	TotalPages *int            `json:"totalPages"`
	SubFolders []*string       `json:"subFolders"`
	Subfolders []*string       `json:"subfolders"`
}

type channelRows struct {
	Rows       []models.Channel `json:"rows"`
	Count      *int             `json:"count"`
	TotalPages *int             `json:"totalPages"`
}

func (b channelListBody) page() (*models.ChannelPage, error) {
	page := &models.ChannelPage{Channels: []models.Channel{}}

	var rows channelRows
	if len(b.Channels) > 0 && string(b.Channels) != "null" {
		switch b.Channels[0] {
		case '[':
			if err := json.Unmarshal(b.Channels, &page.Channels); err != nil {
				return nil, err
			}
		case '{':
			if err := json.Unmarshal(b.Channels, &rows); err != nil {
				return nil, err
			}
			if rows.Rows != nil {
				page.Channels = rows.Rows
			}
		}
	}

	switch {
	case b.Total != nil:
		page.Total = *b.Total
	case rows.Count != nil:
		page.Total = *rows.Count
	}

	switch {
	case b.TotalPages != nil:
		page.TotalPages = *b.TotalPages
	case rows.TotalPages != nil:
		page.TotalPages = *rows.TotalPages
	}

	page.SubFolders = b.SubFolders
	if page.SubFolders == nil {
		page.SubFolders = b.Subfolders
	}
	return page, nil
}

// ListChannels calls GET /getchannels.
func (a *APIService) ListChannels(ctx context.Context, token string, q models.ChannelQuery) (*models.ChannelPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(max(q.Page, 1)))
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	if q.Search != "" {
		params.Set("search", q.Search)
	}
	if q.SortOrder != "" {
		params.Set("sortOrder", string(q.SortOrder))
	}
	if q.SubFolder != "" {
		params.Set("subFolder", q.SubFolder)
	}

	var body channelListBody
	if err := a.doJSON(ctx, http.MethodGet, "/getchannels?"+params.Encode(), token, nil, &body); err != nil {
		return nil, err
	}

	page, err := body.page()
	if err != nil {
		return nil, fmt.Errorf("%w: malformed channel list: %v", shared.ErrAPIRequest, err)
	}
	return page, nil
}

// AddChannelInfo calls POST /addchannelinfo.
func (a *APIService) AddChannelInfo(ctx context.Context, token, channelURL string) (*ChannelInfoResponse, error) {
	var resp ChannelInfoResponse
	in := map[string]string{"url": channelURL}
	if err := a.doJSON(ctx, http.MethodPost, "/addchannelinfo", token, in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateChannels calls POST /updatechannels with the batched delta.
func (a *APIService) UpdateChannels(ctx context.Context, token string, delta models.ChannelDelta) error {
	if delta.Add == nil {
		delta.Add = []models.ChannelRef{}
	}
	if delta.Remove == nil {
		delta.Remove = []string{}
	}

	var resp struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := a.doJSON(ctx, http.MethodPost, "/updatechannels", token, delta, &resp); err != nil {
		return err
	}
	if resp.Status != "" && resp.Status != "success" {
		return &APIError{StatusCode: http.StatusOK, Message: resp.Message}
	}
	return nil
}

// GetChannelSettings calls GET /api/channels/{id}/settings.
func (a *APIService) GetChannelSettings(ctx context.Context, token, channelID string) (*models.ChannelSettings, error) {
	var settings models.ChannelSettings
	path := "/api/channels/" + url.PathEscape(channelID) + "/settings"
	if err := a.doJSON(ctx, http.MethodGet, path, token, nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateChannelSettings calls PUT /api/channels/{id}/settings and returns the stored settings.
//
// The backend rejects sub-folder changes while downloads are running with 409.
func (a *APIService) UpdateChannelSettings(ctx context.Context, token, channelID string, settings models.ChannelSettings) (*models.ChannelSettings, error) {
	var resp struct {
		Success  bool                    `json:"success"`
		Settings *models.ChannelSettings `json:"settings"`
	}
	path := "/api/channels/" + url.PathEscape(channelID) + "/settings"
	if err := a.doJSON(ctx, http.MethodPut, path, token, settings, &resp); err != nil {
		return nil, err
	}
	if resp.Settings == nil {
		return &settings, nil
	}
	return resp.Settings, nil
}

// TriggerChannelDownloads calls POST /triggerchanneldownloads.
func (a *APIService) TriggerChannelDownloads(ctx context.Context, token string) (*models.DownloadJob, error) {
	var job models.DownloadJob
	if err := a.doJSON(ctx, http.MethodPost, "/triggerchanneldownloads", token, struct{}{}, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// TriggerSpecificDownloads calls POST /triggerspecificdownloads for individual video URLs.
func (a *APIService) TriggerSpecificDownloads(ctx context.Context, token string, urls []string) (*models.DownloadJob, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: at least one URL is required", shared.ErrMissingArgument)
	}

	var job models.DownloadJob
	in := map[string][]string{"urls": urls}
	if err := a.doJSON(ctx, http.MethodPost, "/triggerspecificdownloads", token, in, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Login exchanges credentials for a session token via POST /auth/login.
func (a *APIService) Login(ctx context.Context, username, password string) (*shared.Session, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", shared.ErrMissingCredentials)
	}

	var resp struct {
		Token    string `json:"token"`
		Expires  string `json:"expires"`
		Username string `json:"username"`
	}
	in := map[string]string{"username": username, "password": password}
	if err := a.doJSON(ctx, http.MethodPost, "/auth/login", "", in, &resp); err != nil {
		if apiErr, ok := AsAPIError(err); ok && apiErr.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", shared.ErrInvalidCredentials, err)
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: backend returned no token", shared.ErrAuthFailed)
	}

	var expiry time.Time
	if resp.Expires != "" {
		if t, err := time.Parse(time.RFC3339, resp.Expires); err == nil {
			expiry = t
		}
	}
	if resp.Username == "" {
		resp.Username = username
	}
	return &shared.Session{
		Username: resp.Username,
		Token:    &oauth2.Token{AccessToken: resp.Token, TokenType: shared.SessionHeader, Expiry: expiry},
	}, nil
}

// Health calls GET /api/health.
func (a *APIService) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := a.doJSON(ctx, http.MethodGet, "/api/health", "", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "healthy" {
		return fmt.Errorf("%w: backend reports %q", shared.ErrServiceUnavailable, resp.Status)
	}
	return nil
}
