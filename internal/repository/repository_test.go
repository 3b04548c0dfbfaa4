package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "yatra/internal/errors"
	"yatra/internal/models"
)

var tripCols = []string{"id", "title", "origin", "destination", "description", "departure_at", "return_at",
	"price_per_seat", "advance_per_seat", "total_seats", "available_seats", "status", "created_at", "updated_at"}

var bookingCols = []string{"id", "user_id", "trip_id", "passenger_count", "seats", "contact_name", "contact_phone",
	"total_amount", "advance_amount", "payment_status", "booking_status", "payment_id", "created_at", "updated_at"}

func newMock(t *testing.T) (*Repositories, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewRepositories(db), mock
}

func tripRow(id int64, total, available int, status models.TripStatus) *sqlmock.Rows {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(tripCols).AddRow(id, "Tirupati darshan", "Chennai", "Tirumala", "", now.Add(72*time.Hour),
		now.Add(120*time.Hour), int64(1800), int64(500), total, available, string(status), now, now)
}

func TestReserveSeatsUsesConditionalUpdate(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery(`UPDATE trips\s+SET available_seats = available_seats - \$2.*WHERE id = \$1\s+AND status IN \('UPCOMING', 'FULL'\)\s+AND available_seats >= \$2`).
		WithArgs(int64(5), 2).
		WillReturnRows(tripRow(5, 40, 0, models.TripFull))

	trip, ok, err := repos.Trips.ReserveSeats(context.Background(), 5, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, trip.AvailableSeats)
	assert.Equal(t, models.TripFull, trip.Status)
}

func TestReserveSeatsReportsLostRace(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery(`UPDATE trips`).
		WithArgs(int64(5), 3).
		WillReturnRows(sqlmock.NewRows(tripCols))

	trip, ok, err := repos.Trips.ReserveSeats(context.Background(), 5, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, trip)
}

func TestGetTripNotFound(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery(`SELECT .* FROM trips WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(tripCols))

	_, err := repos.Trips.GetByID(context.Background(), 99)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSaveInventoryMapsCheckViolation(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery(`UPDATE trips\s+SET total_seats = \$2, available_seats = \$3, status = \$4`).
		WithArgs(int64(5), 10, 12, "UPCOMING").
		WillReturnError(&pq.Error{Code: pqCheckViolation})

	err := repos.Trips.SaveInventory(context.Background(), &models.Trip{ID: 5, TotalSeats: 10, AvailableSeats: 12, Status: models.TripUpcoming})
	assert.True(t, apperrors.IsValidation(err))
}

func TestTripFilterBuildsPlaceholders(t *testing.T) {
	where, args := TripFilter{Query: "tiru", Date: "2026-11-07", Status: models.TripUpcoming}.where()
	assert.Equal(t, " WHERE (title ILIKE $1 OR destination ILIKE $1 OR origin ILIKE $1) AND DATE(departure_at) = $2 AND status = $3", where)
	assert.Equal(t, []any{"%tiru%", "2026-11-07", models.TripUpcoming}, args)

	where, args = TripFilter{}.where()
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestListTrips(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM trips WHERE status = \$1`).
		WithArgs("UPCOMING").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM trips WHERE status = \$1 ORDER BY departure_at ASC, id ASC LIMIT \$2 OFFSET \$3`).
		WithArgs("UPCOMING", 20, 0).
		WillReturnRows(tripRow(1, 40, 12, models.TripUpcoming))

	trips, total, err := repos.Trips.List(context.Background(), TripFilter{Status: models.TripUpcoming, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, trips, 1)
	assert.Equal(t, 12, trips[0].AvailableSeats)
}

func TestCreateBookingSeatTaken(t *testing.T) {
	repos, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))
	mock.ExpectExec(`INSERT INTO booking_seats \(booking_id, trip_id, seat_label\)\s+SELECT \$1, \$2, unnest\(\$3::text\[\]\)`).
		WithArgs(int64(11), int64(5), sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	err := repos.Bookings.Create(context.Background(), &models.Booking{
		UserID: 1, TripID: 5, PassengerCount: 1, Seats: []string{"A1"},
		PaymentStatus: models.PaymentNone, BookingStatus: models.BookingConfirmed,
	})
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestGetBookingScansSeats(t *testing.T) {
	repos, mock := newMock(t)
	now := time.Now()
	paymentID := "pay_77"

	mock.ExpectQuery(`FROM bookings b WHERE b.id = \$1`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(int64(11), int64(1), int64(5), 2, "{A1,A2}", "Lakshmi",
			"+919876543210", int64(3600), int64(1000), "ADVANCE_PAID", "CONFIRMED", paymentID, now, now))

	b, err := repos.Bookings.GetByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, b.Seats)
	assert.Equal(t, models.PaymentAdvancePaid, b.PaymentStatus)
	require.NotNil(t, b.PaymentID)
	assert.Equal(t, paymentID, *b.PaymentID)
}

func TestResolvePaymentOnlyFromPending(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectExec(`UPDATE payments SET status = \$2, gateway_payment_id = NULLIF\(\$3, ''\), updated_at = NOW\(\)\s+WHERE id = \$1 AND status = 'PENDING'`).
		WithArgs(int64(3), "SUCCESS", "gw-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE payments`).
		WithArgs(int64(3), "SUCCESS", "gw-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	p := &models.Payment{ID: 3, Status: models.PaymentPending}
	ok, err := repos.Payments.Resolve(context.Background(), p, models.PaymentSuccess, "gw-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.PaymentSuccess, p.Status)

	ok, err = repos.Payments.Resolve(context.Background(), p, models.PaymentSuccess, "gw-1")
	require.NoError(t, err)
	assert.False(t, ok, "a second delivery finds nothing pending")
}

func TestInTxCommitsAndRollsBack(t *testing.T) {
	repos, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(5)).
		WillReturnRows(tripRow(5, 40, 10, models.TripUpcoming))
	mock.ExpectCommit()

	err := repos.InTx(context.Background(), func(tx *Repositories) error {
		_, err := tx.Trips.GetForUpdate(context.Background(), 5)
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = repos.InTx(context.Background(), func(*Repositories) error { return boom })
	assert.ErrorIs(t, err, boom)
}
