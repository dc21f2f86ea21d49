// Package metrics holds the dispatch counters shared by the use case and the
// workers. HTTP metrics live in the middleware package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_dispatches_total",
			Help: "Total number of WhatsApp template dispatches by outcome",
		},
		[]string{"status"},
	)

	integrationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "integration_errors_total",
			Help: "Total number of integration errors",
		},
		[]string{"service"},
	)
)

func RecordDispatch(status string) {
	dispatchesTotal.WithLabelValues(status).Inc()
}

func RecordIntegrationError(service string) {
	integrationErrors.WithLabelValues(service).Inc()
}
