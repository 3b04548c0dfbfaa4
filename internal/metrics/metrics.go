// Package metrics holds the Prometheus collectors of the booking service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reservation results recorded by ObserveReservation
const (
	ReservationOK           = "ok"
	ReservationInsufficient = "insufficient"
	ReservationClosed       = "closed"
	ReservationError        = "error"
)

// Metrics - набор счетчиков и гистограмм сервиса
type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	seatReservations   *prometheus.CounterVec
	capacityClamps     prometheus.Counter
	paymentTransitions *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		seatReservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seat_reservations_total",
			Help: "Seat reservation attempts by result.",
		}, []string{"result"}),
		capacityClamps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "capacity_clamps_total",
			Help: "Capacity edits raised to the number of booked seats.",
		}),
		paymentTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_transitions_total",
			Help: "Applied payment results by state machine outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.seatReservations,
		m.capacityClamps,
		m.paymentTransitions,
	)
	return m
}

// ObserveReservation counts one reservation attempt. Safe on a nil receiver.
func (m *Metrics) ObserveReservation(result string) {
	if m == nil {
		return
	}
	m.seatReservations.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCapacityClamp() {
	if m == nil {
		return
	}
	m.capacityClamps.Inc()
}

func (m *Metrics) ObservePaymentTransition(outcome string) {
	if m == nil {
		return
	}
	m.paymentTransitions.WithLabelValues(outcome).Inc()
}

// Middleware records request count and latency per matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
