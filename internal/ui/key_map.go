package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	add     key.Binding
	toggle  key.Binding
	undo    key.Binding
	save    key.Binding
	search  key.Binding
	next    key.Binding
	prev    key.Binding
	sort    key.Binding
	refresh key.Binding
	submit  key.Binding
	cancel  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		toggle:  key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete/restore")),
		undo:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo")),
		save:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		next:    key.NewBinding(key.WithKeys("n", "pgdown"), key.WithHelp("n", "next page")),
		prev:    key.NewBinding(key.WithKeys("p", "pgup"), key.WithHelp("p", "prev page")),
		sort:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.add, k.toggle, k.undo, k.save, k.search, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.next, k.prev},
		{k.add, k.toggle, k.undo, k.save},
		{k.search, k.sort, k.refresh, k.quit},
	}
}
