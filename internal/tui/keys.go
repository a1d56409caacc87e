package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	Back      key.Binding
	Up        key.Binding
	Down      key.Binding
	SwitchTab key.Binding
	CycleView key.Binding
	Approve   key.Binding
	Reject    key.Binding
	Refresh   key.Binding
	Submit    key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("^C", "quit"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "down"),
	),
	SwitchTab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "tasks/confirmations"),
	),
	CycleView: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("⇧tab", "view"),
	),
	Approve: key.NewBinding(
		key.WithKeys("ctrl+a"),
		key.WithHelp("^A", "approve"),
	),
	Reject: key.NewBinding(
		key.WithKeys("ctrl+x"),
		key.WithHelp("^X", "reject"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("^R", "refresh"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run command / details"),
	),
}
