package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Metrics records request counters and latencies in a prometheus registry.
type Metrics struct {
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	rateLimitHits  *prometheus.CounterVec
}

// NewMetrics creates the HTTP collectors and registers them in reg.
// Collectors already present in reg are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "community",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "community",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		rateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "community",
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Number of rate-limited responses",
		}, []string{"route"}),
	}

	var err error
	if m.requestTotal, err = registerCounter(reg, m.requestTotal); err != nil {
		return nil, err
	}
	if m.rateLimitHits, err = registerCounter(reg, m.rateLimitHits); err != nil {
		return nil, err
	}
	if err := reg.Register(m.requestLatency); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}
		m.requestLatency = existing
	}

	return m, nil
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		return existing, nil
	}
	return c, nil
}

// Handle observes the request once the rest of the chain has produced a status.
func (m *Metrics) Handle(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	labels := prometheus.Labels{
		"method": c.Method(),
		"route":  c.Route().Path,
		"status": strconv.Itoa(c.Response().StatusCode()),
	}
	m.requestTotal.With(labels).Inc()
	m.requestLatency.With(labels).Observe(time.Since(start).Seconds())

	return err
}

// RateLimitHit counts a request rejected by the rate limiter.
func (m *Metrics) RateLimitHit(route string) {
	m.rateLimitHits.With(prometheus.Labels{"route": route}).Inc()
}
