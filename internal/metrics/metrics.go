package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightbid_requests_created_total",
		Help: "Total number of cargo requests created, resales included.",
	})

	OffersSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightbid_offers_submitted_total",
		Help: "Total number of offers successfully submitted.",
	})

	OffersConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightbid_offers_confirmed_total",
		Help: "Total number of offers selected as winners.",
	})

	AllocationConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightbid_allocation_conflicts_total",
		Help: "Total number of confirm attempts that lost a race to another decision.",
	})

	CapacityRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightbid_capacity_rejections_total",
		Help: "Total number of reservations rejected for lack of container capacity.",
	})

	RequestsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightbid_requests_expired_total",
		Help: "Total number of requests closed without a winner by the deadline sweep.",
	})

	NotificationsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freightbid_notifications_created_total",
		Help: "Total number of durable notifications written.",
	})

	LiveEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightbid_live_events_total",
		Help: "Live events handed to sessions, by event name and result.",
	},
		[]string{"event", "result"},
	)

	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "freightbid_live_sessions",
		Help: "Current number of connected live sessions.",
	})

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightbid_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	ConsistencyErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightbid_consistency_errors_total",
		Help: "Internal invariant violations; any increase indicates a bug.",
	},
		[]string{"operation"},
	)

	BoardCacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "freightbid_board_cache_items",
		Help: "Current number of open requests in the board cache.",
	})

	OutboxPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freightbid_outbox_published_total",
		Help: "Outbox tasks relayed to the event stream, by result.",
	},
		[]string{"result"},
	)
)
