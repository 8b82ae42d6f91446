package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the TUI.
type KeyMap struct {
	// Navigation
	Next     key.Binding
	Prev     key.Binding
	Increase key.Binding
	Decrease key.Binding

	// Actions
	Submit  key.Binding
	NewLine key.Binding
	Quit    key.Binding
}

// DefaultKeyMap provides the default key bindings for the TUI.
var DefaultKeyMap = KeyMap{
	Next: key.NewBinding(
		key.WithKeys(KeyTab, KeyDown),
		key.WithHelp("tab/↓", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys(KeyShiftTab, KeyUp),
		key.WithHelp("shift+tab/↑", "previous field"),
	),
	Increase: key.NewBinding(
		key.WithKeys(KeyRight, "l"),
		key.WithHelp("→/l", "increase"),
	),
	Decrease: key.NewBinding(
		key.WithKeys(KeyLeft, "h"),
		key.WithHelp("←/h", "decrease"),
	),
	Submit: key.NewBinding(
		key.WithKeys(KeyEnter),
		key.WithHelp("enter", "submit"),
	),
	NewLine: key.NewBinding(
		key.WithKeys("shift+enter", KeyCtrlJ),
		key.WithHelp("shift+enter", "new line"),
	),
	Quit: key.NewBinding(
		key.WithKeys(KeyCtrlC),
		key.WithHelp("ctrl+c", "exit"),
	),
}
