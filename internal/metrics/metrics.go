// Package metrics holds the Prometheus instruments exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "setlog"

// Instrumentation groups every instrument. A nil *Instrumentation is valid
// and records nothing.
type Instrumentation struct {
	// counters
	CounterRequests           *prometheus.CounterVec
	CounterMaterializations   prometheus.Counter
	CounterPlaceholderRecords prometheus.Counter
	CounterResolutions        *prometheus.CounterVec
	CounterImportedSessions   prometheus.Counter

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

// New registers the instruments with the default Prometheus registry.
func New() *Instrumentation {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewTest registers the instruments with a fresh registry, so tests can
// create as many as they like.
func NewTest() *Instrumentation {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Instrumentation {
	factory := promauto.With(reg)

	return &Instrumentation{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "The total number of handled requests",
		}, []string{"method", "route", "status"}),
		CounterMaterializations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "materializations_total",
			Help:      "Sessions created from a template",
		}),
		CounterPlaceholderRecords: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "placeholder_records_total",
			Help:      "Zero-valued records created by template materialization",
		}),
		CounterResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "training",
			Name:      "session_resolutions_total",
			Help:      "Active session resolutions by outcome",
		}, []string{"outcome"}),
		CounterImportedSessions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "sessions_total",
			Help:      "Sessions written by the CSV importer",
		}),
		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Current number of requests being served",
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of handled requests",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
		registerer: reg,
		gatherer:   gatherer,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (i *Instrumentation) Handler() http.Handler {
	return promhttp.HandlerFor(i.gatherer, promhttp.HandlerOpts{})
}

// Register adds an external collector, such as database pool stats, to the
// registry served by Handler.
func (i *Instrumentation) Register(c prometheus.Collector) error {
	if i == nil {
		return nil
	}
	return i.registerer.Register(c)
}

// ObserveRequest records one finished HTTP request.
func (i *Instrumentation) ObserveRequest(method, route string, status int, d time.Duration) {
	if i == nil {
		return
	}
	i.CounterRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	i.HistRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// TrackInFlight counts a request as in flight until the returned func is
// called.
func (i *Instrumentation) TrackInFlight() func() {
	if i == nil {
		return func() {}
	}
	i.GaugeRequests.Inc()
	return i.GaugeRequests.Dec
}

// ObserveMaterialization records a materialized template and its placeholder
// record count.
func (i *Instrumentation) ObserveMaterialization(records int64) {
	if i == nil {
		return
	}
	i.CounterMaterializations.Inc()
	i.CounterPlaceholderRecords.Add(float64(records))
}

// ObserveResolution records whether resolving the active session reused an
// existing session or created one.
func (i *Instrumentation) ObserveResolution(created bool) {
	if i == nil {
		return
	}
	outcome := "reused"
	if created {
		outcome = "created"
	}
	i.CounterResolutions.WithLabelValues(outcome).Inc()
}

// ObserveImport records sessions written by an import.
func (i *Instrumentation) ObserveImport(sessions int) {
	if i == nil {
		return
	}
	i.CounterImportedSessions.Add(float64(sessions))
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
