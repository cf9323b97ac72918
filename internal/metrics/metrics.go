// Package metrics exposes the coordinator/registry's Prometheus counters
// (requests created, fulfilled, expired, reputation updates) via a registry
// and promhttp.Handler() pair.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mangekyou-labs/kamui-vrf/internal/coordinator"
	"github.com/mangekyou-labs/kamui-vrf/internal/oracle"
)

// Registry holds every kamui_vrf Prometheus collector.
var Registry = prometheus.NewRegistry()

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kamui_vrf",
			Subsystem: "coordinator",
			Name:      "events_total",
			Help:      "Total coordinator events emitted, by event name.",
		},
		[]string{"event"},
	)

	reputationUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kamui_vrf",
			Subsystem: "registry",
			Name:      "reputation_updates_total",
			Help:      "Total oracle reputation updates applied by the admin registry.",
		},
		[]string{"authority"},
	)

	oracleRegistrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kamui_vrf",
			Subsystem: "registry",
			Name:      "registrations_total",
			Help:      "Total oracle registrations, by outcome.",
		},
		[]string{"outcome"},
	)

	registryEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kamui_vrf",
			Subsystem: "registry",
			Name:      "events_total",
			Help:      "Total oracle registry events emitted, by event name.",
		},
		[]string{"event"},
	)
)

func init() {
	Registry.MustRegister(eventsTotal, reputationUpdates, oracleRegistrations, registryEventsTotal)
}

// Handler returns an http.Handler exposing the registered collectors.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordReputationUpdate increments the per-authority reputation-update counter.
func RecordReputationUpdate(authorityHex string) {
	reputationUpdates.WithLabelValues(authorityHex).Inc()
}

// RecordOracleRegistration increments the registration counter by outcome
// ("ok" or "error").
func RecordOracleRegistration(ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	oracleRegistrations.WithLabelValues(outcome).Inc()
}

// EventSink adapts coordinator.EventSink to Prometheus, counting every
// emitted event by name. It wraps an optional next sink so metrics collection
// never displaces an existing sink (e.g. one that persists events).
type EventSink struct {
	Next coordinator.EventSink
}

// Emit implements coordinator.EventSink.
func (s EventSink) Emit(ev coordinator.Event) {
	eventsTotal.WithLabelValues(ev.Name).Inc()
	if s.Next != nil {
		s.Next.Emit(ev)
	}
}

// OracleEventSink adapts oracle.EventSink to Prometheus, counting every
// registry event by name. It wraps an optional next sink the same way
// EventSink does for coordinator events.
type OracleEventSink struct {
	Next oracle.EventSink
}

// Emit implements oracle.EventSink.
func (s OracleEventSink) Emit(ev oracle.Event) {
	registryEventsTotal.WithLabelValues(ev.Name).Inc()
	if s.Next != nil {
		s.Next.Emit(ev)
	}
}
