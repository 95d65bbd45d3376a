package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aligner",
			Subsystem: "bot",
			Name:      "updates_total",
			Help:      "Inbound Telegram updates by kind",
		},
		[]string{"kind"},
	)

	GatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "aligner",
			Subsystem: "bot",
			Name:      "gated_messages_total",
			Help:      "Messages dropped by the membership gate",
		},
	)

	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aligner",
			Subsystem: "bot",
			Name:      "registrations_total",
			Help:      "Join attempts by outcome",
		},
		[]string{"outcome"},
	)

	KudosTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aligner",
			Subsystem: "bot",
			Name:      "kudos_total",
			Help:      "Kudos flow outcomes",
		},
		[]string{"outcome"},
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aligner",
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Failed store operations by kind",
		},
		[]string{"op", "kind"},
	)

	DeliveryFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aligner",
			Subsystem: "bot",
			Name:      "delivery_failures_total",
			Help:      "Outbound Bot API calls that failed",
		},
		[]string{"method"},
	)

	GreetingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "aligner",
			Subsystem: "bot",
			Name:      "greetings_total",
			Help:      "New-member greetings by outcome",
		},
		[]string{"outcome"},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "aligner",
			Subsystem: "bot",
			Name:      "active_sessions",
			Help:      "Kudos conversations awaiting a recipient",
		},
	)
)
