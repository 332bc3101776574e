// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inkwell/common"
)

const namespace = "inkwell"

// Registry is the application registry. It is separate from the prometheus
// default registry so tests can inspect it without global collectors.
var Registry = prometheus.NewRegistry()

var (
	StoreOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Data-access operations by collection, operation and outcome.",
	}, []string{"collection", "op", "outcome"})

	SubscriptionsActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "subscriptions_active",
		Help:      "Live subscriptions currently registered.",
	}, []string{"collection"})

	SubscriptionSnapshots = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "realtime",
		Name:      "snapshots_total",
		Help:      "Full snapshots delivered to subscribers.",
	}, []string{"collection"})

	AuthEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "events_total",
		Help:      "Sign-in, sign-up and sign-out outcomes.",
	}, []string{"event", "outcome"})
)

func init() {
	Registry.MustRegister(
		StoreOperations,
		SubscriptionsActive,
		SubscriptionSnapshots,
		AuthEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Outcome classifies err for the outcome label.
func Outcome(err error) string {
	var verr *common.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, common.ErrNotFound):
		return "not_found"
	case errors.Is(err, common.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, common.ErrForbidden):
		return "forbidden"
	case errors.As(err, &verr):
		return "invalid"
	default:
		return "error"
	}
}

// ObserveStore counts one data-access operation.
func ObserveStore(collection, op string, err error) {
	StoreOperations.WithLabelValues(collection, op, Outcome(err)).Inc()
}

func ObserveAuth(event string, err error) {
	AuthEvents.WithLabelValues(event, Outcome(err)).Inc()
}

// Handler serves the application registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
