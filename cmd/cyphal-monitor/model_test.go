// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/cyphal-bridge/lib/bus"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func update(t *testing.T, model Model, message tea.Msg) Model {
	t.Helper()
	next, _ := model.Update(message)
	updated, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return updated
}

func TestBarFill(t *testing.T) {
	cases := []struct {
		value float32
		want  int
	}{
		{-1, 0},
		{0, 20},
		{1, 40},
		{-0.5, 10},
		{3, 40},
		{-3, 0},
		{float32(math.NaN()), 0},
	}
	for _, tc := range cases {
		if got := barFill(tc.value, 40); got != tc.want {
			t.Errorf("barFill(%v, 40) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestModelTracksRecords(t *testing.T) {
	model := NewModel("/run/tap.sock", DefaultTheme)
	if view := model.View(); !strings.Contains(view, "waiting for arming state") {
		t.Errorf("initial view missing waiting text:\n%s", view)
	}

	model = update(t, model, recordMsg{message: bus.Message{
		Topic: bus.TopicActuatorArmed, Generation: 1,
		Value: bus.ActuatorArmed{Timestamp: epoch, Armed: true, Prearmed: true},
	}})
	outputs := bus.OutputControl{Timestamp: epoch}
	outputs.Value[3] = 0.25
	model = update(t, model, recordMsg{message: bus.Message{
		Topic: bus.TopicOutputControlMC, Generation: 1, Value: outputs,
	}})

	view := model.View()
	for _, want := range []string{"ARMED", "+0.250", "outputs 1  armed 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModelPauseFreezesDisplay(t *testing.T) {
	model := NewModel("tap", DefaultTheme)
	model = update(t, model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if !model.paused {
		t.Fatal("p did not pause")
	}

	model = update(t, model, recordMsg{message: bus.Message{
		Topic: bus.TopicActuatorArmed, Generation: 1, Value: bus.ActuatorArmed{Prearmed: true},
	}})
	if model.haveArmed {
		t.Error("paused model applied a record")
	}
	if model.counts[bus.TopicActuatorArmed] != 1 {
		t.Errorf("paused model did not count the record")
	}
}

func TestModelQuit(t *testing.T) {
	model := NewModel("tap", DefaultTheme)
	_, command := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if command == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := command().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestModelShowsStreamClosed(t *testing.T) {
	model := NewModel("tap", DefaultTheme)
	model = update(t, model, streamClosedMsg{err: io.EOF})
	if view := model.View(); !strings.Contains(view, "stream closed: EOF") {
		t.Errorf("view missing close notice:\n%s", view)
	}
}

type sliceSource struct {
	messages []bus.Message
	err      error
}

func (s *sliceSource) Next() (bus.Message, error) {
	if len(s.messages) == 0 {
		return bus.Message{}, s.err
	}
	message := s.messages[0]
	s.messages = s.messages[1:]
	return message, nil
}

func TestPrintRecords(t *testing.T) {
	source := &sliceSource{
		messages: []bus.Message{
			{Topic: bus.TopicActuatorArmed, Generation: 1, Value: bus.ActuatorArmed{Timestamp: epoch, Prearmed: true}},
			{Topic: "custom", Generation: 4, Value: map[string]any{"rpm": uint64(1200)}},
		},
		err: io.EOF,
	}
	var output strings.Builder
	if err := printRecords(&output, source); err != nil {
		t.Fatalf("printRecords: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("printed %d lines, want 2:\n%s", len(lines), output.String())
	}
	if lines[0] != "actuator_armed #1 12:00:00.000 armed=false prearmed=true" {
		t.Errorf("armed line = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "custom #4 {") || !strings.Contains(lines[1], "1200") {
		t.Errorf("custom line = %q", lines[1])
	}
}

func TestPrintRecordsReturnsStreamErrors(t *testing.T) {
	failure := errors.New("connection reset")
	if err := printRecords(io.Discard, &sliceSource{err: failure}); !errors.Is(err, failure) {
		t.Errorf("printRecords error = %v, want %v", err, failure)
	}
}
