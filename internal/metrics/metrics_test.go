package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveReservation(ReservationOK)
	m.ObserveReservation(ReservationOK)
	m.ObserveReservation(ReservationInsufficient)
	m.ObserveCapacityClamp()
	m.ObservePaymentTransition("anomalous")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.seatReservations.WithLabelValues(ReservationOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.seatReservations.WithLabelValues(ReservationInsufficient)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.capacityClamps))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentTransitions.WithLabelValues("anomalous")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveReservation(ReservationOK)
		m.ObserveCapacityClamp()
		m.ObservePaymentTransition("changed")
	})
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/trips/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/trips/7", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/trips/:id", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",route="/api/trips/:id",status="200"} 1`)
}
