package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the prometheus metrics of one client. Every collector owns its
// registry so several clients can live in one process.
type Collector struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TransportErrors *prometheus.CounterVec
	SchemaFetches   prometheus.Counter
}

// NewCollector creates a collector with the given namespace
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of requests sent to the graph backend",
		},
		[]string{"method", "status"},
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Round trip time of backend requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	transportErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_errors_total",
			Help:      "Requests that failed before a response was read",
		},
		[]string{"method", "type"},
	)

	schemaFetches := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schema_fetches_total",
			Help:      "Number of /status fetches that populated the schema cache",
		},
	)

	registry.MustRegister(requests, duration, transportErrors, schemaFetches)

	return &Collector{
		registry:        registry,
		Requests:        requests,
		RequestDuration: duration,
		TransportErrors: transportErrors,
		SchemaFetches:   schemaFetches,
	}
}

// ObserveRequest records one completed round trip
func (c *Collector) ObserveRequest(method string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.RequestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveTransportError records a request that produced no response
func (c *Collector) ObserveTransportError(method, errType string) {
	if c == nil {
		return
	}
	c.TransportErrors.WithLabelValues(method, errType).Inc()
}

// ObserveSchemaFetch counts a schema cache fill
func (c *Collector) ObserveSchemaFetch() {
	if c == nil {
		return
	}
	c.SchemaFetches.Inc()
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
