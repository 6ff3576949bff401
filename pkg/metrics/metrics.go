package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "coscribe", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "coscribe", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	HubEventsBroadcast = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "coscribe", Name: "hub_events_broadcast_total", Help: "Edit events accepted into an interest group's queue."},
	)
	HubEventsDelivered = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "coscribe", Name: "hub_events_delivered_total", Help: "Edit events delivered to individual sessions."},
	)
	HubEventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "coscribe", Name: "hub_events_dropped_total", Help: "Edit events dropped (saturated queue or slow session)."},
	)
	HubSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{Namespace: "coscribe", Name: "hub_sessions_active", Help: "Currently connected live sessions."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(HubEventsBroadcast)
	reg.MustRegister(HubEventsDelivered)
	reg.MustRegister(HubEventsDropped)
	reg.MustRegister(HubSessionsActive)
}
