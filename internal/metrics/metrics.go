package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	calendarRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caredesk",
			Name:      "calendar_requests_total",
			Help:      "Count of calendar view requests by view mode.",
		},
		[]string{"view"},
	)

	conflictsDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "caredesk",
			Name:      "conflicts_detected_total",
			Help:      "Count of conflicting appointments reported by conflict checks.",
		},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caredesk",
			Name:      "status_transitions_total",
			Help:      "Count of appointment status transitions by target status.",
		},
		[]string{"status"},
	)

	upstreamCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caredesk",
			Name:      "upstream_cache_total",
			Help:      "Count of upstream cache lookups by outcome.",
		},
		[]string{"outcome"},
	)

	syncRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "caredesk",
			Name:      "sync_runs_total",
			Help:      "Count of appointment sync runs by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(calendarRequests, conflictsDetected, statusTransitions, upstreamCache, syncRuns)
	})
}

func IncCalendarRequest(view string) {
	calendarRequests.WithLabelValues(view).Inc()
}

func AddConflictsDetected(n int) {
	conflictsDetected.Add(float64(n))
}

func IncStatusTransition(status string) {
	statusTransitions.WithLabelValues(status).Inc()
}

func IncUpstreamCache(outcome string) {
	upstreamCache.WithLabelValues(outcome).Inc()
}

func IncSyncRun(result string) {
	syncRuns.WithLabelValues(result).Inc()
}
