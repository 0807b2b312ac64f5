package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Refresh  key.Binding
	Cancel   key.Binding
	AutoPoll key.Binding
	Quit     key.Binding
	Choose   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Cancel:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cancel")),
		AutoPoll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto-refresh")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
		Choose:   key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1-3", "choose action")),
	}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Choose, k.Refresh, k.Cancel, k.AutoPoll, k.Quit}
}
