// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"testing"
	"time"

	"github.com/bureau-foundation/cyphal-bridge/lib/testutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestLatestBeforePublish(t *testing.T) {
	b := New()
	if _, _, ok := Latest[ActuatorArmed](b, TopicActuatorArmed); ok {
		t.Fatal("Latest reported a value before any publish")
	}
	if got := b.Generation(TopicActuatorArmed); got != 0 {
		t.Fatalf("Generation() = %d, want 0", got)
	}
}

func TestPublishUpdatesLatestAndGeneration(t *testing.T) {
	b := New()
	publication := NewPublication[ActuatorArmed](b, TopicActuatorArmed)

	publication.Publish(ActuatorArmed{Timestamp: epoch, Prearmed: true})
	publication.Publish(ActuatorArmed{Timestamp: epoch.Add(time.Millisecond), Armed: true, Prearmed: true})

	value, generation, ok := Latest[ActuatorArmed](b, TopicActuatorArmed)
	if !ok {
		t.Fatal("Latest reported no value")
	}
	if generation != 2 {
		t.Errorf("generation = %d, want 2", generation)
	}
	if !value.Armed || !value.Prearmed {
		t.Errorf("latest = %+v, want armed and prearmed", value)
	}
}

func TestLatestWrongType(t *testing.T) {
	b := New()
	NewPublication[OutputControl](b, TopicOutputControlMC).Publish(OutputControl{})
	if _, _, ok := Latest[ActuatorArmed](b, TopicOutputControlMC); ok {
		t.Fatal("Latest returned ok for a mismatched type")
	}
}

func TestSubscribeReceivesInOrder(t *testing.T) {
	b := New()
	subscription := Subscribe[OutputControl](b, TopicOutputControlMC, 4)
	defer subscription.Close()

	publication := NewPublication[OutputControl](b, TopicOutputControlMC)
	for i := 0; i < 3; i++ {
		publication.Publish(OutputControl{Timestamp: epoch.Add(time.Duration(i) * time.Millisecond)})
	}

	for i := 0; i < 3; i++ {
		record := testutil.RequireReceive(t, subscription.C, time.Second, "record %d", i)
		want := epoch.Add(time.Duration(i) * time.Millisecond)
		if !record.Timestamp.Equal(want) {
			t.Errorf("record %d timestamp = %v, want %v", i, record.Timestamp, want)
		}
	}
}

func TestSubscribeDropsOldestWhenFull(t *testing.T) {
	b := New()
	subscription := Subscribe[OutputControl](b, TopicOutputControlMC, 2)
	defer subscription.Close()

	publication := NewPublication[OutputControl](b, TopicOutputControlMC)
	for i := 0; i < 5; i++ {
		var record OutputControl
		record.Value[0] = float32(i)
		publication.Publish(record)
	}

	if got := subscription.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
	first := testutil.RequireReceive(t, subscription.C, time.Second, "first buffered")
	second := testutil.RequireReceive(t, subscription.C, time.Second, "second buffered")
	if first.Value[0] != 3 || second.Value[0] != 4 {
		t.Errorf("buffered = %v, %v, want the two newest (3, 4)", first.Value[0], second.Value[0])
	}
}

func TestSubscriptionClose(t *testing.T) {
	b := New()
	subscription := Subscribe[ActuatorArmed](b, TopicActuatorArmed, 1)
	subscription.Close()
	subscription.Close()

	NewPublication[ActuatorArmed](b, TopicActuatorArmed).Publish(ActuatorArmed{Armed: true})

	select {
	case record := <-subscription.C:
		t.Fatalf("closed subscription received %+v", record)
	default:
	}
}

func TestSubscribeAll(t *testing.T) {
	b := New()
	all := b.SubscribeAll(8)
	defer all.Close()

	NewPublication[OutputControl](b, TopicOutputControlMC).Publish(OutputControl{})
	NewPublication[ActuatorArmed](b, TopicActuatorArmed).Publish(ActuatorArmed{Prearmed: true})

	first := testutil.RequireReceive(t, all.C, time.Second, "first message")
	second := testutil.RequireReceive(t, all.C, time.Second, "second message")
	if first.Topic != TopicOutputControlMC || second.Topic != TopicActuatorArmed {
		t.Errorf("topics = %s, %s", first.Topic, second.Topic)
	}
	if first.Generation != 1 || second.Generation != 1 {
		t.Errorf("generations = %d, %d, want 1, 1", first.Generation, second.Generation)
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	original := Message{
		Topic:      TopicActuatorArmed,
		Generation: 7,
		Value:      ActuatorArmed{Timestamp: epoch.Add(1500 * time.Microsecond), Prearmed: true},
	}

	envelope, err := Seal(original)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	opened, err := envelope.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	record, ok := opened.Value.(ActuatorArmed)
	if !ok {
		t.Fatalf("opened value type %T, want ActuatorArmed", opened.Value)
	}
	want := original.Value.(ActuatorArmed)
	if !record.SameState(want) || !record.Timestamp.Equal(want.Timestamp) {
		t.Errorf("opened %+v, want %+v", record, want)
	}
	if opened.Generation != 7 || opened.Topic != TopicActuatorArmed {
		t.Errorf("opened header = %s/%d", opened.Topic, opened.Generation)
	}
}

func TestEnvelopeUnknownTopic(t *testing.T) {
	envelope, err := Seal(Message{Topic: "battery_status", Value: map[string]int{"cells": 6}})
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	opened, err := envelope.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	fields, ok := opened.Value.(map[string]any)
	if !ok {
		t.Fatalf("opened value type %T, want map[string]any", opened.Value)
	}
	if fields["cells"] != uint64(6) {
		t.Errorf("cells = %#v, want uint64(6)", fields["cells"])
	}
}
