package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	next     key.Binding
	prev     key.Binding
	upload   key.Binding
	chat     key.Binding
	stats    key.Binding
	submit   key.Binding
	up       key.Binding
	down     key.Binding
	pageUp   key.Binding
	pageDown key.Binding
	copy     key.Binding
	refresh  key.Binding
	quit     key.Binding
	forceQ   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		upload:   key.NewBinding(key.WithKeys("alt+1"), key.WithHelp("alt+1", "upload")),
		chat:     key.NewBinding(key.WithKeys("alt+2"), key.WithHelp("alt+2", "chat")),
		stats:    key.NewBinding(key.WithKeys("alt+3"), key.WithHelp("alt+3", "stats")),
		submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		up:       key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "prev suggestion")),
		down:     key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "next suggestion")),
		pageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		pageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		copy:     key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy answer")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		quit:     key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		forceQ:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.next, k.forceQ}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.next, k.prev, k.upload, k.chat, k.stats},
		{k.submit, k.up, k.down, k.pageUp, k.pageDown, k.copy},
		{k.refresh, k.quit, k.forceQ},
	}
}
