// Package ui implements an interactive channel manager using bubbletea's Elm architecture.
//
// A single [BrowseView] lists the current page of tracked channels with pending additions on top,
// shown with a leading "+", and channels marked for deletion struck through with a leading "-".
// [AddView] and [SearchView] reuse one text input for a channel handle or URL and a search term.
//
// The [Model] drives a tasks.MutationQueue and a tasks.ChannelList. Queue and list calls run inside
// tea.Cmd functions and come back through the Msg union type, so the event loop never blocks on the network.
// When built with a services.EventStream, a ChannelsUpdated broadcast triggers a refetch of the current page.
//
// Key bindings: a add, d delete/restore, u undo, s save, / search, n/p page, o sort, r refresh, q quit.
package ui
