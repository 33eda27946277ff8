// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes bridge activity as Prometheus metrics.
//
// [Collector] counts dispatched transfers by route and outcome (it is
// a subscriber.Observer) and, via [Collector.Watch], counts bus
// publications and mirrors the armed state into gauges.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bureau-foundation/cyphal-bridge/lib/bus"
	"github.com/bureau-foundation/cyphal-bridge/subscriber"
)

// Collector holds the bridge metrics.
type Collector struct {
	Transfers *prometheus.CounterVec
	Publishes *prometheus.CounterVec
	Armed     prometheus.Gauge
	Prearmed  prometheus.Gauge
}

// Compile-time interface check.
var _ subscriber.Observer = (*Collector)(nil)

// NewCollector creates unregistered metrics.
func NewCollector() *Collector {
	return &Collector{
		Transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cyphal_bridge_transfers_total",
			Help: "Cyphal transfers dispatched, by route and outcome",
		}, []string{"route", "result"}),
		Publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cyphal_bridge_publishes_total",
			Help: "Records published on the internal bus, by topic",
		}, []string{"topic"}),
		Armed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cyphal_bridge_armed",
			Help: "1 while the last published actuator state is armed",
		}),
		Prearmed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cyphal_bridge_prearmed",
			Help: "1 while the last published actuator state is prearmed",
		}),
	}
}

// Register registers the metrics on reg (or the default registerer
// if nil). Metrics already registered are not an error.
func (c *Collector) Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, collector := range []prometheus.Collector{c.Transfers, c.Publishes, c.Armed, c.Prearmed} {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}

// Observe counts one dispatched transfer. Unmatched transfers have no
// route and are labelled "none".
func (c *Collector) Observe(route string, outcome subscriber.Outcome) {
	if route == "" {
		route = "none"
	}
	c.Transfers.WithLabelValues(route, string(outcome)).Inc()
}

// Watch counts every message received from messages until ctx is done
// or messages is closed.
func (c *Collector) Watch(ctx context.Context, messages <-chan bus.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case message, ok := <-messages:
			if !ok {
				return
			}
			c.record(message)
		}
	}
}

func (c *Collector) record(message bus.Message) {
	c.Publishes.WithLabelValues(string(message.Topic)).Inc()
	if state, ok := message.Value.(bus.ActuatorArmed); ok {
		c.Armed.Set(boolGauge(state.Armed))
		c.Prearmed.Set(boolGauge(state.Prearmed))
	}
}

func boolGauge(value bool) float64 {
	if value {
		return 1
	}
	return 0
}

// Handler serves the metrics gathered by gatherer in the Prometheus
// text format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
