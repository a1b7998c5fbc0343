package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/ytsubs/internal/channelurl"
	"github.com/desertthunder/ytsubs/internal/models"
)

var _ list.Item = channelItem{}

// itemMark is the queue state shown next to a channel.
type itemMark int

const (
	markNone itemMark = iota
	markPending
	markDeleted
)

// channelItem wraps [models.Channel] to implement [list.Item].
type channelItem struct {
	channel models.Channel
	mark    itemMark
}

func (i channelItem) FilterValue() string { return i.channel.Uploader + " " + i.channel.URL }

func (i channelItem) Title() string {
	name := i.channel.Uploader
	if name == "" {
		name = i.channel.URL
	}
	switch i.mark {
	case markPending:
		return styles.added.Render("+ " + name)
	case markDeleted:
		return styles.removed.Render("- " + name)
	}
	return name
}

func (i channelItem) Description() string {
	parts := []string{i.channel.URL}
	if !channelurl.IsExplicitlyNoSubfolder(i.channel.SubFolder) {
		parts = append(parts, channelurl.SubFolderLabel(i.channel.SubFolder))
	}
	if i.channel.VideoQuality != nil && *i.channel.VideoQuality != "" {
		parts = append(parts, *i.channel.VideoQuality)
	}
	return strings.Join(parts, " • ")
}

// channelItems lists pending additions first, then the fetched page with deletion marks applied.
func channelItems(pending, page []models.Channel, deleted func(url string) bool) []list.Item {
	items := make([]list.Item, 0, len(pending)+len(page))
	for _, ch := range pending {
		items = append(items, channelItem{channel: ch, mark: markPending})
	}
	for _, ch := range page {
		mark := markNone
		if deleted(ch.URL) {
			mark = markDeleted
		}
		items = append(items, channelItem{channel: ch, mark: mark})
	}
	return items
}
