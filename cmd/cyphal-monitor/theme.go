// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/charmbracelet/lipgloss"

// Theme is the monitor's color palette. ANSI 256-color codes for broad
// terminal compatibility.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color

	// Arming states.
	Disarmed lipgloss.Color
	Prearmed lipgloss.Color
	Armed    lipgloss.Color

	// Output bars.
	BarFill  lipgloss.Color
	BarEmpty lipgloss.Color

	ErrorText lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText:       lipgloss.Color("252"),
	FaintText:        lipgloss.Color("243"),
	HeaderForeground: lipgloss.Color("39"),
	BorderColor:      lipgloss.Color("240"),
	Disarmed:         lipgloss.Color("245"),
	Prearmed:         lipgloss.Color("214"),
	Armed:            lipgloss.Color("196"),
	BarFill:          lipgloss.Color("42"),
	BarEmpty:         lipgloss.Color("236"),
	ErrorText:        lipgloss.Color("203"),
}
