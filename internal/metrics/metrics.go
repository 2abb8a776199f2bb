// Package metrics holds the prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "church_upstream_requests_total",
		Help: "Calls to the attendance backend by endpoint and status code.",
	}, []string{"endpoint", "code"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "church_upstream_request_seconds",
		Help:    "Latency of calls to the attendance backend.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	StatusDecodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "church_status_decodes_total",
		Help: "Attendance status decodes by kind and outcome.",
	}, []string{"kind", "outcome"})

	MarkOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "church_mark_attendance_total",
		Help: "Mark-attendance operations by kind and outcome.",
	}, []string{"kind", "outcome"})

	Reveals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "church_chat_reveals_total",
		Help: "Typed chat reveals by terminal state.",
	}, []string{"state"})

	BulkMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "church_bulk_messages_total",
		Help: "Bulk message deliveries by result.",
	}, []string{"result"})

	Sessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "church_sessions",
		Help: "Browser sessions holding attendance state.",
	})
)
