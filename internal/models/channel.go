package models

import (
	"strings"
	"time"
)

// SortOrder orders the remote channel list by uploader name.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder accepts "asc" or "desc" in any case, defaulting to ascending.
func ParseSortOrder(s string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(s), string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}

// Toggle returns the opposite order.
func (o SortOrder) Toggle() SortOrder {
	if o == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// Channel is a tracked channel. The canonical URL is its identity.
//
// Optional settings are pointers so an absent value survives a round trip as absent.
type Channel struct {
	URL                     string  `json:"url"`
	Uploader                string  `json:"uploader"`
	ChannelID               string  `json:"channel_id"`
	Description             string  `json:"description,omitempty"`
	AutoDownloadEnabledTabs *string `json:"auto_download_enabled_tabs,omitempty"`
	AvailableTabs           *string `json:"available_tabs,omitempty"`
	SubFolder               *string `json:"sub_folder,omitempty"`
	VideoQuality            *string `json:"video_quality,omitempty"`
	MinDuration             *int    `json:"min_duration,omitempty"`
	MaxDuration             *int    `json:"max_duration,omitempty"`
	TitleFilterRegex        *string `json:"title_filter_regex,omitempty"`
	DefaultRating           *string `json:"default_rating,omitempty"`
}

// Key identifies a channel for de-duplication, preferring the remote channel id.
func (c Channel) Key() string {
	if c.ChannelID != "" {
		return c.ChannelID
	}
	return c.URL
}

// Ref returns the commit reference for this channel.
func (c Channel) Ref() ChannelRef {
	return ChannelRef{URL: c.URL, ChannelID: c.ChannelID}
}

// ChannelInfo is the metadata the backend resolves for a channel URL before it is tracked.
type ChannelInfo struct {
	ID                      string  `json:"id,omitempty"`
	Title                   string  `json:"title,omitempty"`
	URL                     string  `json:"url,omitempty"`
	Uploader                string  `json:"uploader,omitempty"`
	ChannelID               string  `json:"channel_id,omitempty"`
	Description             string  `json:"description,omitempty"`
	AutoDownloadEnabledTabs *string `json:"auto_download_enabled_tabs,omitempty"`
	AvailableTabs           *string `json:"available_tabs,omitempty"`
	SubFolder               *string `json:"sub_folder,omitempty"`
	VideoQuality            *string `json:"video_quality,omitempty"`
	MinDuration             *int    `json:"min_duration,omitempty"`
	MaxDuration             *int    `json:"max_duration,omitempty"`
	TitleFilterRegex        *string `json:"title_filter_regex,omitempty"`
	DefaultRating           *string `json:"default_rating,omitempty"`
}

// ToChannel builds the pending record for canonicalURL.
//
// uploader falls back to title, then to the URL; channel_id falls back to id.
func (i ChannelInfo) ToChannel(canonicalURL string) Channel {
	uploader := i.Uploader
	if uploader == "" {
		uploader = i.Title
	}
	if uploader == "" {
		uploader = canonicalURL
	}
	channelID := i.ChannelID
	if channelID == "" {
		channelID = i.ID
	}

	return Channel{
		URL:                     canonicalURL,
		Uploader:                uploader,
		ChannelID:               channelID,
		Description:             i.Description,
		AutoDownloadEnabledTabs: i.AutoDownloadEnabledTabs,
		AvailableTabs:           i.AvailableTabs,
		SubFolder:               i.SubFolder,
		VideoQuality:            i.VideoQuality,
		MinDuration:             i.MinDuration,
		MaxDuration:             i.MaxDuration,
		TitleFilterRegex:        i.TitleFilterRegex,
		DefaultRating:           i.DefaultRating,
	}
}

// ChannelPage is one page of the remote channel list.
type ChannelPage struct {
	Channels   []Channel `json:"channels"`
	Total      int       `json:"total"`
	TotalPages int       `json:"totalPages"`
	SubFolders []*string `json:"subFolders"`
}

// ChannelQuery selects a page of the remote channel list.
type ChannelQuery struct {
	Page      int
	PageSize  int
	Search    string
	SortOrder SortOrder
	SubFolder string
}

// ChannelRef is one entry of the add side of a commit.
type ChannelRef struct {
	URL       string `json:"url"`
	ChannelID string `json:"channel_id"`
}

// ChannelDelta is the batched commit body. Both sides always serialize as arrays.
type ChannelDelta struct {
	Add    []ChannelRef `json:"add"`
	Remove []string     `json:"remove"`
}

// Empty reports whether the delta carries no changes.
func (d ChannelDelta) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// ChannelSettings are the per-channel download settings editable through the backend.
type ChannelSettings struct {
	SubFolder        *string `json:"sub_folder"`
	VideoQuality     *string `json:"video_quality"`
	MinDuration      *int    `json:"min_duration"`
	MaxDuration      *int    `json:"max_duration"`
	TitleFilterRegex *string `json:"title_filter_regex"`
}

// OperationResult is the outcome of a queue operation. Queue operations report failure here, never by error.
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Ok returns a successful result with an optional message.
func Ok(message string) OperationResult {
	return OperationResult{Success: true, Message: message}
}

// Fail returns a failed result.
func Fail(message string) OperationResult {
	return OperationResult{Success: false, Message: message}
}

// DownloadJob is the backend's acknowledgement of a download trigger.
type DownloadJob struct {
	Status string `json:"status"`
	JobID  string `json:"jobId"`
}

// ChannelExport is a full snapshot of the remote channel list.
type ChannelExport struct {
	Source     string    `json:"source"`
	ExportedAt time.Time `json:"exported_at"`
	Total      int       `json:"total"`
	Channels   []Channel `json:"channels"`
}
