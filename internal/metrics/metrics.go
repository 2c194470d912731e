// Package metrics exposes Prometheus instrumentation for the ingestion
// pipeline and the alert dispatcher.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	documentsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reguard_documents_ingested_total",
		Help: "Document revisions committed by the pipeline.",
	})

	documentsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reguard_documents_rejected_total",
		Help: "Inputs rejected during normalisation.",
	})

	indexSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reguard_index_entries",
		Help: "Live entries in the hybrid index.",
	})

	alertsFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reguard_alerts_fired_total",
		Help: "Alert events fired, by risk tier.",
	}, []string{"tier"})

	alertsByJurisdiction = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reguard_alerts_by_jurisdiction_total",
		Help: "Alert events fired, by jurisdiction tag.",
	}, []string{"jurisdiction"})

	alertsSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reguard_alerts_suppressed_total",
		Help: "Assessments suppressed by alert deduplication.",
	})

	deliveryAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reguard_delivery_attempts_total",
		Help: "Notification send attempts, by channel and outcome.",
	}, []string{"channel", "outcome"})
)

// IncIngested records one committed document revision.
func IncIngested() { documentsIngested.Inc() }

// IncRejected records one rejected input.
func IncRejected() { documentsRejected.Inc() }

// SetIndexSize records the current number of live index entries.
func SetIndexSize(n int) { indexSize.Set(float64(n)) }

// IncAlertFired records one fired alert with its tier and jurisdictions.
func IncAlertFired(tier string, jurisdictions []string) {
	alertsFired.WithLabelValues(tier).Inc()
	for _, j := range jurisdictions {
		alertsByJurisdiction.WithLabelValues(j).Inc()
	}
}

// IncAlertSuppressed records one deduplicated assessment.
func IncAlertSuppressed() { alertsSuppressed.Inc() }

// IncDeliveryAttempt records one send attempt. Outcome is "delivered" or
// "failed".
func IncDeliveryAttempt(channel, outcome string) {
	deliveryAttempts.WithLabelValues(channel, outcome).Inc()
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
