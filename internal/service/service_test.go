package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatra/internal/cache"
	"yatra/internal/external"
	"yatra/internal/metrics"
	"yatra/internal/models"
	"yatra/internal/repository"
)

var (
	testNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	tripCols = []string{"id", "title", "origin", "destination", "description", "departure_at", "return_at",
		"price_per_seat", "advance_per_seat", "total_seats", "available_seats", "status", "created_at", "updated_at"}
	bookingCols = []string{"id", "user_id", "trip_id", "passenger_count", "seats", "contact_name", "contact_phone",
		"total_amount", "advance_amount", "payment_status", "booking_status", "payment_id", "created_at", "updated_at"}
	paymentCols = []string{"id", "booking_id", "amount", "type", "status", "method", "order_id",
		"gateway_payment_id", "created_at", "updated_at"}
)

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []any
	err      error
}

func (p *recordingPublisher) Publish(subject string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.events = append(p.events, data)
	return nil
}

type memoryCache struct {
	entries     map[string][]byte
	version     int64
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) pageKey(version int64, query string) string {
	return strconv.FormatInt(version, 10) + ":" + query
}

func (c *memoryCache) GetTripsList(_ context.Context, query string) ([]byte, int64, error) {
	if raw, ok := c.entries[c.pageKey(c.version, query)]; ok {
		return raw, c.version, nil
	}
	return nil, c.version, cache.ErrCacheMiss
}

func (c *memoryCache) SetTripsList(_ context.Context, query string, version int64, data []byte) error {
	c.entries[c.pageKey(version, query)] = data
	return nil
}

func (c *memoryCache) InvalidateTrips(context.Context) error {
	c.invalidated++
	c.version++
	return nil
}

type fakeGateway struct {
	initURL   string
	initErr   error
	verifyErr error
	check     *external.PaymentCheckResponse
	inits     []int64
}

func (g *fakeGateway) InitPayment(_ context.Context, amount int64, orderID, _ string) (*external.PaymentInitResponse, error) {
	g.inits = append(g.inits, amount)
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &external.PaymentInitResponse{Success: true, OrderID: orderID, PaymentURL: g.initURL}, nil
}

func (g *fakeGateway) CheckPayment(context.Context, string) (*external.PaymentCheckResponse, error) {
	return g.check, nil
}

func (g *fakeGateway) VerifyNotification(*models.PaymentNotificationPayload) error {
	return g.verifyErr
}

type fixture struct {
	mock      sqlmock.Sqlmock
	services  *Services
	publisher *recordingPublisher
	cache     *memoryCache
	gateway   *fakeGateway
}

func newFixture(t *testing.T, configure ...func(*Deps)) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	f := &fixture{
		mock:      mock,
		publisher: &recordingPublisher{},
		cache:     newMemoryCache(),
		gateway:   &fakeGateway{initURL: "https://pay.example/p/1"},
	}
	deps := Deps{
		Repos:     repository.NewRepositories(db),
		Publisher: f.publisher,
		Cache:     f.cache,
		Gateway:   f.gateway,
		Metrics:   metrics.New(),
	}
	for _, fn := range configure {
		fn(&deps)
	}
	f.services = NewServices(deps)
	return f
}

func tripRow(id int64, total, available int, status models.TripStatus) *sqlmock.Rows {
	return sqlmock.NewRows(tripCols).AddRow(id, "Tirupati darshan", "Chennai", "Tirumala", "",
		testNow.Add(72*time.Hour), testNow.Add(110*time.Hour), int64(180000), int64(50000),
		total, available, string(status), testNow, testNow)
}

type bookingRowOpts struct {
	userID     int64
	passengers int
	total      int64
	advance    int64
	payment    models.PaymentStatus
	status     models.BookingStatus
}

func bookingRow(id, tripID int64, o bookingRowOpts) *sqlmock.Rows {
	if o.payment == "" {
		o.payment = models.PaymentNone
	}
	if o.status == "" {
		o.status = models.BookingConfirmed
	}
	if o.passengers == 0 {
		o.passengers = 2
	}
	return sqlmock.NewRows(bookingCols).AddRow(id, o.userID, tripID, o.passengers, "{A1,A2}", "Lakshmi",
		"+919876543210", o.total, o.advance, string(o.payment), string(o.status), nil, testNow, testNow)
}

func paymentRow(id, bookingID int64, amount int64, typ models.PaymentType, status models.PaymentResult, orderID string) *sqlmock.Rows {
	return sqlmock.NewRows(paymentCols).AddRow(id, bookingID, amount, string(typ), string(status), "GATEWAY",
		orderID, nil, testNow, testNow)
}

var (
	user  = models.Principal{UserID: 1, Role: models.RoleUser}
	other = models.Principal{UserID: 2, Role: models.RoleUser}
	admin = models.Principal{UserID: 99, Role: models.RoleAdmin}
)
