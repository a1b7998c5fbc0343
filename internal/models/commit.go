package models

import (
	"fmt"
	"strings"
	"time"
)

// Commit records one successful batched write against a backend.
type Commit struct {
	entity
	baseURL string
	added   []ChannelRef
	removed []string
	message string
}

// NewCommit creates a journal entry for delta as accepted by the backend at baseURL.
func NewCommit(sequence int, baseURL string, delta ChannelDelta, message string) *Commit {
	added := append([]ChannelRef{}, delta.Add...)
	removed := append([]string{}, delta.Remove...)
	return &Commit{
		entity:  newEntity(sequence),
		baseURL: baseURL,
		added:   added,
		removed: removed,
		message: message,
	}
}

func (c *Commit) BaseURL() string { return c.baseURL }
func (c *Commit) Added() []ChannelRef { return c.added }
func (c *Commit) Removed() []string { return c.removed }
func (c *Commit) Message() string { return c.message }
func (c *Commit) Delta() ChannelDelta { return ChannelDelta{Add: c.added, Remove: c.removed} }
func (c *Commit) SetMessage(msg string) { c.message = msg }

// Summary renders the commit as "+N -M".
func (c *Commit) Summary() string {
	return fmt.Sprintf("+%d -%d", len(c.added), len(c.removed))
}

func (c *Commit) Validate() error {
	if strings.TrimSpace(c.baseURL) == "" {
		return fmt.Errorf("commit base URL is required")
	}
	if len(c.added) == 0 && len(c.removed) == 0 {
		return fmt.Errorf("commit must add or remove at least one channel")
	}
	for _, ref := range c.added {
		if ref.URL == "" {
			return fmt.Errorf("commit addition is missing a URL")
		}
	}
	return nil
}

// CachedChannel is the last copy of a channel row seen in a list response.
type CachedChannel struct {
	entity
	channel Channel
}

// NewCachedChannel wraps ch for persistence.
func NewCachedChannel(sequence int, ch Channel) *CachedChannel {
	return &CachedChannel{entity: newEntity(sequence), channel: ch}
}

func (c *CachedChannel) Channel() Channel { return c.channel }
func (c *CachedChannel) URL() string { return c.channel.URL }
func (c *CachedChannel) SetChannel(ch Channel) { c.channel = ch }

// SeenAt is when the channel was last refreshed from the backend.
func (c *CachedChannel) SeenAt() time.Time { return c.updatedAt }

func (c *CachedChannel) Validate() error {
	if strings.TrimSpace(c.channel.URL) == "" {
		return fmt.Errorf("cached channel URL is required")
	}
	return nil
}
