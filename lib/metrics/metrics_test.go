// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bureau-foundation/cyphal-bridge/lib/bus"
	"github.com/bureau-foundation/cyphal-bridge/subscriber"
)

func TestObserveCountsByRouteAndOutcome(t *testing.T) {
	collector := NewCollector()
	collector.Observe("esc.0.setpoint", subscriber.OutcomeDelivered)
	collector.Observe("esc.0.setpoint", subscriber.OutcomeDelivered)
	collector.Observe("esc.0.readiness", subscriber.OutcomeDecodeFailed)
	collector.Observe("", subscriber.OutcomeUnmatched)

	cases := []struct {
		route, result string
		want          float64
	}{
		{"esc.0.setpoint", "delivered", 2},
		{"esc.0.readiness", "decode_failed", 1},
		{"none", "unmatched", 1},
	}
	for _, tc := range cases {
		got := promtestutil.ToFloat64(collector.Transfers.WithLabelValues(tc.route, tc.result))
		if got != tc.want {
			t.Errorf("transfers{%s,%s} = %v, want %v", tc.route, tc.result, got, tc.want)
		}
	}
}

func TestWatchTracksPublishesAndArmedState(t *testing.T) {
	collector := NewCollector()
	messages := make(chan bus.Message, 8)
	messages <- bus.Message{Topic: bus.TopicActuatorArmed, Generation: 1, Value: bus.ActuatorArmed{}}
	messages <- bus.Message{Topic: bus.TopicOutputControlMC, Generation: 1, Value: bus.OutputControl{}}
	messages <- bus.Message{Topic: bus.TopicActuatorArmed, Generation: 2, Value: bus.ActuatorArmed{Armed: true, Prearmed: true}}
	close(messages)

	collector.Watch(context.Background(), messages)

	if got := promtestutil.ToFloat64(collector.Publishes.WithLabelValues(string(bus.TopicActuatorArmed))); got != 2 {
		t.Errorf("armed publishes = %v, want 2", got)
	}
	if got := promtestutil.ToFloat64(collector.Publishes.WithLabelValues(string(bus.TopicOutputControlMC))); got != 1 {
		t.Errorf("output publishes = %v, want 1", got)
	}
	if got := promtestutil.ToFloat64(collector.Armed); got != 1 {
		t.Errorf("armed gauge = %v, want 1", got)
	}
	if got := promtestutil.ToFloat64(collector.Prearmed); got != 1 {
		t.Errorf("prearmed gauge = %v, want 1", got)
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	collector := NewCollector()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		collector.Watch(ctx, make(chan bus.Message))
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestRegisterToleratesDuplicates(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector()
	if err := collector.Register(registry); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := collector.Register(registry); err != nil {
		t.Fatalf("second Register: %v", err)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector()
	if err := collector.Register(registry); err != nil {
		t.Fatalf("Register: %v", err)
	}
	collector.Observe("esc.0.setpoint", subscriber.OutcomeDelivered)

	recorder := httptest.NewRecorder()
	Handler(registry).ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	body := recorder.Body.String()
	for _, want := range []string{
		`cyphal_bridge_transfers_total{result="delivered",route="esc.0.setpoint"} 1`,
		"cyphal_bridge_armed 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q:\n%s", want, body)
		}
	}
}
