package tasks

import (
	"fmt"

	"github.com/desertthunder/ytsubs/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	CheckExisting Phase = iota
	FetchChannelInfo
	QueueChannel
	CommitChanges
	RefreshList
	FetchPage
	ExportChannels
)

func (p Phase) String() string {
	switch p {
	case CheckExisting:
		return "check_existing"
	case FetchChannelInfo:
		return "fetch_channel_info"
	case QueueChannel:
		return "queue_channel"
	case CommitChanges:
		return "commit_changes"
	case RefreshList:
		return "refresh_list"
	case FetchPage:
		return "fetch_page"
	case ExportChannels:
		return "export_channels"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func checkExistingUpdate(url string) ProgressUpdate {
	return ProgressUpdate{Phase: CheckExisting, Step: 1, Total: 3, Message: fmt.Sprintf("Checking whether %s is already tracked...", url)}
}

func fetchInfoUpdate(url string) ProgressUpdate {
	return ProgressUpdate{Phase: FetchChannelInfo, Step: 2, Total: 3, Message: fmt.Sprintf("Resolving channel info for %s...", url)}
}

func queuedUpdate(ch models.Channel) ProgressUpdate {
	return ProgressUpdate{Phase: QueueChannel, Step: 3, Total: 3, Message: fmt.Sprintf("Queued %s (%s)", ch.Uploader, ch.URL), Data: ch}
}

func commitUpdate(delta models.ChannelDelta) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CommitChanges,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Saving %d addition(s) and %d removal(s)...", len(delta.Add), len(delta.Remove)),
		Data:    delta,
	}
}

func refreshUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: RefreshList, Step: 2, Total: 2, Message: "Refreshing channel list..."}
}

func fetchPageUpdate(page, total int) ProgressUpdate {
	return ProgressUpdate{Phase: FetchPage, Step: page, Total: total, Message: fmt.Sprintf("[%d/%d] Fetching channel page...", page, total)}
}

func fetchPageFailedUpdate(page, total int, err error) ProgressUpdate {
	return ProgressUpdate{Phase: FetchPage, Step: page, Total: total, Message: fmt.Sprintf("[%d/%d] ✗ page failed: %v", page, total, err)}
}

func exportWrittenUpdate(files []string) ProgressUpdate {
	return ProgressUpdate{Phase: ExportChannels, Step: 1, Total: 1, Message: fmt.Sprintf("✓ wrote %d file(s)", len(files)), Data: files}
}
