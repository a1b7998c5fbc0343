package services

import (
	"context"

	"github.com/desertthunder/ytsubs/internal/models"
)

// Directory is the remote channel directory the mutation queue and list view read and write.
//
// Every call takes the session token explicitly; callers decide whether a session exists.
type Directory interface {
	// ListChannels returns one page of tracked channels.
	ListChannels(ctx context.Context, token string, q models.ChannelQuery) (*models.ChannelPage, error)

	// AddChannelInfo asks the backend to resolve metadata for a canonical channel URL.
	// A nil error with a non-success status still means the channel cannot be added.
	AddChannelInfo(ctx context.Context, token, url string) (*ChannelInfoResponse, error)

	// UpdateChannels applies a batched add/remove delta in one write.
	UpdateChannels(ctx context.Context, token string, delta models.ChannelDelta) error
}

// ChannelInfoResponse is the body of POST /addchannelinfo.
type ChannelInfoResponse struct {
	Status      string              `json:"status"`
	ChannelInfo *models.ChannelInfo `json:"channelInfo"`
	Message     string              `json:"message,omitempty"`
}

// OK reports whether the backend resolved the channel.
func (r *ChannelInfoResponse) OK() bool {
	return r != nil && r.Status == "success" && r.ChannelInfo != nil
}

var _ Directory = (*APIService)(nil)
