// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/cyphal-bridge/lib/bus"
)

// recordMsg carries one record read from the tap.
type recordMsg struct {
	message bus.Message
}

// streamClosedMsg reports that the tap stream ended.
type streamClosedMsg struct {
	err error
}

const (
	defaultBarWidth = 40
	minBarWidth     = 10

	// labelWidth is the space taken by " 0 " before and " +1.000" after
	// each bar.
	labelWidth = 12
)

// Model is the monitor's bubbletea model.
type Model struct {
	source string
	keys   KeyMap
	help   help.Model
	theme  Theme
	width  int

	armed       bus.ActuatorArmed
	haveArmed   bool
	outputs     bus.OutputControl
	haveOutputs bool
	counts      map[bus.Topic]uint64

	paused   bool
	closed   bool
	closeErr error
}

// NewModel returns a model showing records from source.
func NewModel(source string, theme Theme) Model {
	return Model{
		source: source,
		keys:   DefaultKeyMap,
		help:   help.New(),
		theme:  theme,
		counts: make(map[bus.Topic]uint64),
	}
}

// Init implements tea.Model. Records arrive through Program.Send.
func (model Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.help.Width = message.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit
		case key.Matches(message, model.keys.Pause):
			model.paused = !model.paused
		}

	case recordMsg:
		model.counts[message.message.Topic]++
		if model.paused {
			return model, nil
		}
		switch value := message.message.Value.(type) {
		case bus.ActuatorArmed:
			model.armed = value
			model.haveArmed = true
		case bus.OutputControl:
			model.outputs = value
			model.haveOutputs = true
		}

	case streamClosedMsg:
		model.closed = true
		model.closeErr = message.err
	}
	return model, nil
}

// View implements tea.Model.
func (model Model) View() string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(model.theme.HeaderForeground).
		Render("cyphal-monitor")
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	var builder strings.Builder
	builder.WriteString(header + faint.Render("  "+model.source) + "\n\n")
	builder.WriteString(model.renderArmed() + "\n\n")
	builder.WriteString(model.renderOutputs())
	builder.WriteString("\n")

	status := fmt.Sprintf("outputs %d  armed %d",
		model.counts[bus.TopicOutputControlMC], model.counts[bus.TopicActuatorArmed])
	if model.paused {
		status += "  [paused]"
	}
	builder.WriteString(faint.Render(status) + "\n")

	if model.closed {
		text := "stream closed"
		if model.closeErr != nil {
			text += ": " + model.closeErr.Error()
		}
		builder.WriteString(lipgloss.NewStyle().Foreground(model.theme.ErrorText).Render(text) + "\n")
	}

	builder.WriteString(model.help.View(model.keys))
	return builder.String()
}

func (model Model) renderArmed() string {
	if !model.haveArmed {
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("waiting for arming state")
	}
	label, color := "DISARMED", model.theme.Disarmed
	switch {
	case model.armed.Armed:
		label, color = "ARMED", model.theme.Armed
	case model.armed.Prearmed:
		label, color = "PREARMED", model.theme.Prearmed
	}
	badge := lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(model.theme.BorderColor).
		Padding(0, 1).
		Render(label)
	since := lipgloss.NewStyle().
		Foreground(model.theme.FaintText).
		Render("since " + model.armed.Timestamp.Format("15:04:05.000"))
	return lipgloss.JoinHorizontal(lipgloss.Center, badge, " ", since)
}

func (model Model) renderOutputs() string {
	if !model.haveOutputs {
		return lipgloss.NewStyle().Foreground(model.theme.FaintText).Render("waiting for outputs") + "\n"
	}
	width := defaultBarWidth
	if model.width > 0 {
		width = max(min(model.width-labelWidth, defaultBarWidth), minBarWidth)
	}
	fill := lipgloss.NewStyle().Foreground(model.theme.BarFill)
	empty := lipgloss.NewStyle().Foreground(model.theme.BarEmpty)
	text := lipgloss.NewStyle().Foreground(model.theme.NormalText)

	var builder strings.Builder
	for channel, value := range model.outputs.Value {
		filled := barFill(value, width)
		builder.WriteString(text.Render(fmt.Sprintf("%2d ", channel)))
		builder.WriteString(fill.Render(strings.Repeat("█", filled)))
		builder.WriteString(empty.Render(strings.Repeat("░", width-filled)))
		builder.WriteString(text.Render(fmt.Sprintf(" %+.3f", value)) + "\n")
	}
	return builder.String()
}

// barFill maps an output in [-1, 1] onto [0, width] cells. Values
// outside the range pin to the ends; NaN draws nothing.
func barFill(value float32, width int) int {
	if math.IsNaN(float64(value)) {
		return 0
	}
	filled := int(math.Round(float64(value+1) / 2 * float64(width)))
	return max(0, min(filled, width))
}
