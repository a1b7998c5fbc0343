package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/ytsubs/internal/models"
	"github.com/desertthunder/ytsubs/internal/services"
	"github.com/desertthunder/ytsubs/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BrowseView ViewState = iota
	AddView
	SearchView
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusErr
)

// Opts wires a [Model] to its queue, list and optional live sources.
type Opts struct {
	Queue    *tasks.MutationQueue
	List     *tasks.ChannelList
	Stream   *services.EventStream       // optional; ChannelsUpdated events trigger a refetch
	Progress <-chan tasks.ProgressUpdate // optional; the channel the queue and list report on

	PageSize  int
	SortOrder models.SortOrder
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	queue    *tasks.MutationQueue
	channels *tasks.ChannelList
	progress <-chan tasks.ProgressUpdate

	events      chan struct{}
	unsubscribe func()

	width  int
	height int
	list   list.Model
	input  textinput.Model
	params tasks.ListParams
	state  tasks.ListState

	status     string
	statusKind statusKind
	busy       string

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Opts) *Model {
	m := &Model{
		ctx:      ctx,
		view:     BrowseView,
		queue:    opts.Queue,
		channels: opts.List,
		progress: opts.Progress,
		params:   tasks.ListParams{Page: 1, PageSize: opts.PageSize, SortOrder: opts.SortOrder},
		help:     help.New(),
		keys:     newKeyMap(),
	}

	if m.params.SortOrder == "" {
		m.params.SortOrder = models.SortAsc
	}

	m.list = list.New(nil, list.NewDefaultDelegate(), 0, 0)
	m.list.Title = "Channels"
	m.list.SetFilteringEnabled(false)
	m.list.SetShowHelp(false)
	m.list.DisableQuitKeybindings()

	m.input = textinput.New()
	m.input.CharLimit = 256

	if opts.Stream != nil {
		m.events = make(chan struct{}, 1)
		m.unsubscribe = opts.Stream.Subscribe(services.ChannelsUpdated, func(services.Event) {
			select {
			case m.events <- struct{}{}:
			default:
			}
		})
	}
	return m
}

// Close detaches the model from the event stream.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Init fetches the first page and starts listening for progress and backend events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(m.params), m.waitForProgress(), m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		m.input.Width = max(20, msg.Width-20)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case AddView, SearchView:
			return m.handleInputKeys(msg)
		default:
			return m.handleBrowseKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgListLoaded:
		state := msg.data.(tasks.ListState)
		if state.Loading {
			return m, nil
		}
		m.state = state
		if state.Error != "" {
			m.setStatus(statusErr, state.Error)
		}
		return m, m.rebuild()

	case MsgAddDone:
		m.busy = ""
		res := msg.data.(models.OperationResult)
		if res.Success {
			m.setStatus(statusOK, firstNonEmpty(res.Message, "Channel queued"))
		} else {
			m.setStatus(statusErr, res.Message)
		}
		return m, m.rebuild()

	case MsgToggleDone:
		res := msg.data.(models.OperationResult)
		if res.Success {
			m.setStatus(statusInfo, res.Message)
		} else {
			m.setStatus(statusErr, res.Message)
		}
		return m, m.rebuild()

	case MsgUndoDone:
		m.busy = ""
		m.state = msg.data.(tasks.ListState)
		m.setStatus(statusInfo, "Changes discarded")
		return m, m.rebuild()

	case MsgSaveDone:
		m.busy = ""
		data := msg.data.(struct {
			result models.OperationResult
			state  tasks.ListState
		})
		if data.result.Success {
			m.setStatus(statusOK, data.result.Message)
			m.state = data.state
		} else {
			m.setStatus(statusErr, data.result.Message)
		}
		return m, m.rebuild()

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		if m.busy != "" && update.Message != "" {
			m.busy = update.Message
		}
		return m, m.waitForProgress()

	case MsgChannelsUpdated:
		return m, tea.Batch(m.refetch(), m.waitForEvent())
	}
	return m, nil
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.add):
		if m.queue.IsAddingChannel() {
			return m, nil
		}
		m.openInput(AddView, "@handle or channel URL", "")
		return m, textinput.Blink

	case key.Matches(msg, m.keys.search):
		m.openInput(SearchView, "search channels", m.params.Search)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.toggle):
		item, ok := m.list.SelectedItem().(channelItem)
		if !ok {
			return m, nil
		}
		return m, m.toggle(item)

	case key.Matches(msg, m.keys.undo):
		if !m.queue.HasPendingChanges() {
			return m, nil
		}
		m.busy = "Discarding changes..."
		return m, m.undo()

	case key.Matches(msg, m.keys.save):
		if m.queue.IsSaving() {
			return m, nil
		}
		m.busy = "Saving changes..."
		return m, m.save()

	case key.Matches(msg, m.keys.next):
		if m.params.Page >= m.state.TotalPages {
			return m, nil
		}
		m.params.Page++
		return m, m.fetch(m.params)

	case key.Matches(msg, m.keys.prev):
		if m.params.Page <= 1 {
			return m, nil
		}
		m.params.Page--
		return m, m.fetch(m.params)

	case key.Matches(msg, m.keys.sort):
		m.params.SortOrder = m.params.SortOrder.Toggle()
		m.params.Page = 1
		return m, m.fetch(m.params)

	case key.Matches(msg, m.keys.refresh):
		return m, m.refetch()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.closeInput()
		return m, nil

	case key.Matches(msg, m.keys.submit):
		value := strings.TrimSpace(m.input.Value())
		view := m.view
		m.closeInput()

		if view == SearchView {
			m.params.Search = value
			m.params.Page = 1
			return m, m.fetch(m.params)
		}
		if value == "" {
			return m, nil
		}
		m.busy = "Adding " + value + "..."
		return m, m.add(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) openInput(view ViewState, placeholder, value string) {
	m.view = view
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func (m *Model) closeInput() {
	m.view = BrowseView
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}

// rebuild redraws the list from the queue and the last fetched page.
func (m *Model) rebuild() tea.Cmd {
	items := channelItems(m.queue.PendingAdditions(), m.state.Channels, m.queue.IsMarkedForDeletion)
	return m.list.SetItems(items)
}

func (m *Model) fetch(p tasks.ListParams) tea.Cmd {
	return func() tea.Msg {
		return listLoadedMsg(m.channels.SetParams(m.ctx, p))
	}
}

func (m *Model) refetch() tea.Cmd {
	return func() tea.Msg {
		return listLoadedMsg(m.channels.Refetch(m.ctx))
	}
}

func (m *Model) add(input string) tea.Cmd {
	return func() tea.Msg {
		return addDoneMsg(m.queue.AddChannel(m.ctx, input))
	}
}

// toggle marks a channel for deletion, drops a pending addition, or restores a marked channel.
func (m *Model) toggle(item channelItem) tea.Cmd {
	ch := item.channel
	if item.mark == markDeleted {
		return func() tea.Msg {
			return toggleDoneMsg(m.queue.AddChannel(m.ctx, ch.URL))
		}
	}
	return func() tea.Msg {
		m.queue.QueueForDeletion(ch)
		if item.mark == markPending {
			return toggleDoneMsg(models.Ok("Removed pending " + ch.URL))
		}
		return toggleDoneMsg(models.Ok("Marked " + ch.URL + " for deletion"))
	}
}

func (m *Model) undo() tea.Cmd {
	return func() tea.Msg {
		m.queue.UndoChanges(m.ctx)
		return undoDoneMsg(m.channels.State())
	}
}

func (m *Model) save() tea.Cmd {
	return func() tea.Msg {
		res := m.queue.SaveChanges(m.ctx)
		return saveDoneMsg(res, m.channels.State())
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	if m.progress == nil {
		return nil
	}
	return func() tea.Msg {
		update, ok := <-m.progress
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-m.events:
			return channelsUpdatedMsg()
		case <-m.ctx.Done():
			return nil
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.list.View())
	b.WriteString("\n")
	b.WriteString(m.renderSummary())
	b.WriteString("\n")

	switch m.view {
	case AddView:
		b.WriteString("Add: " + m.input.View() + "\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.cancel}))
	case SearchView:
		b.WriteString("Search: " + m.input.View() + "\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.submit, m.keys.cancel}))
	default:
		b.WriteString(m.renderStatus() + "\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{
			m.keys.add, m.keys.toggle, m.keys.undo, m.keys.save,
			m.keys.search, m.keys.next, m.keys.prev, m.keys.sort, m.keys.refresh, m.keys.quit,
		}))
	}
	return b.String()
}

func (m *Model) renderSummary() string {
	pending := len(m.queue.PendingAdditions())
	deleted := len(m.queue.DeletedChannels())

	parts := []string{fmt.Sprintf("page %d/%d", m.params.Page, max(1, m.state.TotalPages))}
	parts = append(parts, fmt.Sprintf("%d channels", m.state.Total))
	if m.params.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", m.params.Search))
	}
	parts = append(parts, "sort "+string(m.params.SortOrder))
	if pending > 0 {
		parts = append(parts, styles.added.Render(fmt.Sprintf("+%d", pending)))
	}
	if deleted > 0 {
		parts = append(parts, styles.removed.Render(fmt.Sprintf("-%d", deleted)))
	}
	return styles.help.Render(strings.Join(parts, " · "))
}

func (m *Model) renderStatus() string {
	if m.busy != "" {
		return styles.warn.Render(m.busy)
	}
	switch m.statusKind {
	case statusOK:
		return styles.ok.Render(m.status)
	case statusErr:
		return styles.err.Render(m.status)
	}
	return m.status
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
