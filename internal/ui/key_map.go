package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up       key.Binding
	down     key.Binding
	enter    key.Binding
	tab      key.Binding
	back     key.Binding
	yes      key.Binding
	no       key.Binding
	create   key.Binding
	session  key.Binding
	copy     key.Binding
	vote     key.Binding
	matches  key.Binding
	settings key.Binding
	friends  key.Binding
	refresh  key.Binding
	toggle   key.Binding
	google   key.Binding
	logout   key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		tab:      key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:      key.NewBinding(key.WithKeys("y", "right", "l"), key.WithHelp("y/→", "yes")),
		no:       key.NewBinding(key.WithKeys("n", "left", "h"), key.WithHelp("n/←", "no")),
		create:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "create room")),
		session:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new session")),
		copy:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy link")),
		vote:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "start voting")),
		matches:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "matches")),
		settings: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "settings")),
		friends:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "friends")),
		refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		toggle:   key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "sign in/sign up")),
		google:   key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "continue with Google")),
		logout:   key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "logout")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.create, k.session, k.settings, k.friends},
		{k.yes, k.no, k.logout, k.quit},
	}
}
