package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	enter   key.Binding
	back    key.Binding
	focus   key.Binding
	next    key.Binding
	prev    key.Binding
	locale  key.Binding
	login   key.Binding
	signUp  key.Binding
	logout  key.Binding
	refresh key.Binding
	open    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		focus:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		next:    key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next field")),
		prev:    key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "previous field")),
		locale:  key.NewBinding(key.WithKeys("L", "ctrl+l"), key.WithHelp("L", "language")),
		login:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "login")),
		signUp:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sign up")),
		logout:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "logout")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "retry")),
		open:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in browser")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.focus, k.locale, k.refresh, k.open},
		{k.login, k.signUp, k.logout, k.quit},
	}
}
