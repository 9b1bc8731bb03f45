package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Renal37/bankaccount/internal/ledger"
)

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankaccount_events_published_total",
		},
		[]string{"kind"},
	)
	activeSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bankaccount_event_subscribers",
	})
	droppedSubscribers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bankaccount_event_subscribers_dropped_total",
	})
)

func eventPublished(kind ledger.EventKind) {
	eventsPublished.With(map[string]string{"kind": string(kind)}).Inc()
}
