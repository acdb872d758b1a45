package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// route outcomes
const (
	OutcomeOK            = "ok"
	OutcomeNoCoverage    = "no_coverage"
	OutcomeNoPath        = "no_path"
	OutcomeInvalidVertex = "invalid_vertex"
	OutcomeGeometry      = "geometry"
	OutcomeError         = "error"
)

type Collector struct {
	reg *prometheus.Registry

	RouteRequests *prometheus.CounterVec // outcome label
	RouteDuration prometheus.Histogram
	RouteSegments prometheus.Histogram

	HTTPDuration *prometheus.HistogramVec // method, status labels

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		RouteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "navroute_route_requests_total",
			Help: "Routing requests by outcome.",
		}, []string{"outcome"}),
		RouteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "navroute_route_duration_seconds",
			Help:    "Duration of the routing pipeline (snap, shortest path, itinerary).",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
		RouteSegments: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "navroute_route_segments",
			Help:    "Number of segments of successful itineraries.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "navroute_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "navroute_nats_published_total",
			Help: "Total route events published to NATS.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "navroute_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
	}

	reg.MustRegister(
		c.RouteRequests, c.RouteDuration, c.RouteSegments,
		c.HTTPDuration,
		c.NATSPublished, c.NATSPublishErrs,
	)
	return c
}

func (c *Collector) ObserveRoute(outcome string, segments int, d time.Duration) {
	c.RouteRequests.WithLabelValues(outcome).Inc()
	c.RouteDuration.Observe(d.Seconds())
	if outcome == OutcomeOK {
		c.RouteSegments.Observe(float64(segments))
	}
}

func (c *Collector) ObserveHTTP(method string, status int, d time.Duration) {
	c.HTTPDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

func (c *Collector) NATSPublishedInc() { c.NATSPublished.Inc() }

func (c *Collector) NATSPublishErrInc() { c.NATSPublishErrs.Inc() }

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }
