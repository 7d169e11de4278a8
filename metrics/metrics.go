// Package metrics exposes Prometheus collectors for the pharmacy API.
//
// HTTP traffic:
//   - pharmacy_http_requests_total{method, route, status}
//   - pharmacy_http_request_duration_seconds{method, route}
//   - pharmacy_http_requests_in_flight
//
// Domain activity:
//   - pharmacy_lookups_total{kind, tier}: which matching tier answered a lookup
//   - pharmacy_extracted_medications: records produced per extraction
//   - pharmacy_reference_records{table}: rows in the live snapshot
//   - pharmacy_reference_reloads_total{result}
//
// Collectors register with the default registry at init.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pharmacy"

// Lookup kinds
const (
	KindMedication = "medication"
	KindDiagnosis  = "diagnosis"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_limiter_buckets",
			Help:      "Rate limiter buckets held in memory (clients seen recently)",
		},
	)

	LookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Medication and diagnosis lookups by the tier that resolved them",
		},
		[]string{"kind", "tier"},
	)

	ExtractedMedications = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extracted_medications",
			Help:      "Medication records produced per prescription text",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	ReferenceRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_records",
			Help:      "Rows in the live reference snapshot",
		},
		[]string{"table"},
	)

	ReferenceReloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_reloads_total",
			Help:      "Reference table reload attempts",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		RateLimiterBucketsTotal,
		LookupsTotal,
		ExtractedMedications,
		ReferenceRecords,
		ReferenceReloads,
	)
}

// ObserveLookup counts a lookup answered by tier
func ObserveLookup(kind, tier string) {
	LookupsTotal.WithLabelValues(kind, tier).Inc()
}

// ObserveExtraction records how many medications one text produced
func ObserveExtraction(count int) {
	ExtractedMedications.Observe(float64(count))
}

// SetReferenceCounts publishes table sizes after a reload
func SetReferenceCounts(inventory, fulfillment, diagnoses, aliases int) {
	ReferenceRecords.WithLabelValues("inventory").Set(float64(inventory))
	ReferenceRecords.WithLabelValues("fulfillment").Set(float64(fulfillment))
	ReferenceRecords.WithLabelValues("diagnoses").Set(float64(diagnoses))
	ReferenceRecords.WithLabelValues("aliases").Set(float64(aliases))
}

// ObserveReload counts a reload attempt
func ObserveReload(ok bool) {
	ReferenceReloads.WithLabelValues(strconv.FormatBool(ok)).Inc()
}
