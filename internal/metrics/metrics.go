package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "reserveme"

type Metrics struct {
	// Admission attempts by outcome (admitted, invalid, capacity_exceeded, ...).
	AdmissionsTotal *prometheus.CounterVec

	AdmissionDuration prometheus.Histogram

	// HTTP requests by method, route and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	HTTPRequestDuration *prometheus.HistogramVec

	// Venue-changed messages received over pub/sub.
	VenueChangesTotal prometheus.Counter
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AdmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admissions_total",
				Help:      "Total number of reservation admission attempts",
			},
			[]string{"outcome"},
		),
		AdmissionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "admission_duration_seconds",
				Help:      "Time spent deciding a reservation admission",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		VenueChangesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "venue_changes_received_total",
				Help:      "Venue-changed notifications received from other instances",
			},
		),
	}

	reg.MustRegister(
		m.AdmissionsTotal,
		m.AdmissionDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.VenueChangesTotal,
	)

	return m
}

func (m *Metrics) ObserveAdmission(outcome string, took time.Duration) {
	m.AdmissionsTotal.WithLabelValues(outcome).Inc()
	m.AdmissionDuration.Observe(took.Seconds())
}

// ObserveHTTP records one served request. path is the route pattern, not the
// raw URL, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, path string, status int, took time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(took.Seconds())
}
