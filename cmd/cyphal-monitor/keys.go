// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the monitor's key bindings.
type KeyMap struct {
	Pause key.Binding // Freeze the display; records are still counted.
	Quit  key.Binding
}

// ShortHelp implements help.KeyMap.
func (keys KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{keys.Pause, keys.Quit}
}

// FullHelp implements help.KeyMap.
func (keys KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{keys.ShortHelp()}
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Pause: key.NewBinding(
		key.WithKeys("p", " "),
		key.WithHelp("p", "pause"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}
