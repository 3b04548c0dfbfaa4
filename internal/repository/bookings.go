package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	apperrors "yatra/internal/errors"
	"yatra/internal/models"
)

type BookingRepository struct {
	db Querier
}

// Seats of cancelled bookings stay on record with released_at set, so the
// aggregate covers every seat a booking ever held.
const bookingColumns = `b.id, b.user_id, b.trip_id, b.passenger_count,
	(SELECT COALESCE(array_agg(s.seat_label ORDER BY s.id), '{}') FROM booking_seats s WHERE s.booking_id = b.id),
	b.contact_name, b.contact_phone, b.total_amount, b.advance_amount,
	b.payment_status, b.booking_status, b.payment_id, b.created_at, b.updated_at`

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var seats pq.StringArray
	err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.TripID,
		&b.PassengerCount,
		&seats,
		&b.ContactName,
		&b.ContactPhone,
		&b.TotalAmount,
		&b.AdvanceAmount,
		&b.PaymentStatus,
		&b.BookingStatus,
		&b.PaymentID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Seats = []string(seats)
	return &b, nil
}

// Create inserts the booking and claims its seat labels. A label already held
// by another active booking on the same trip is reported as InvalidStateError.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (user_id, trip_id, passenger_count, contact_name, contact_phone,
		                      total_amount, advance_amount, payment_status, booking_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		booking.UserID,
		booking.TripID,
		booking.PassengerCount,
		booking.ContactName,
		booking.ContactPhone,
		booking.TotalAmount,
		booking.AdvanceAmount,
		booking.PaymentStatus,
		booking.BookingStatus,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	seatsQuery := `
		INSERT INTO booking_seats (booking_id, trip_id, seat_label)
		SELECT $1, $2, unnest($3::text[])`

	if _, err := r.db.ExecContext(ctx, seatsQuery, booking.ID, booking.TripID, pq.Array(booking.Seats)); err != nil {
		if pqCode(err) == pqUniqueViolation {
			return apperrors.NewInvalidStateError("seat", "TAKEN", "book")
		}
		return fmt.Errorf("failed to insert booking seats: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return booking, nil
}

// GetForUpdate locks the booking row; payment updates for one booking are serialized on it
func (r *BookingRepository) GetForUpdate(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1 FOR UPDATE OF b`

	booking, err := scanBooking(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return booking, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.user_id = $1 ORDER BY b.created_at DESC`
	return r.queryBookings(ctx, query, userID)
}

func (r *BookingRepository) ListByTrip(ctx context.Context, tripID int64) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.trip_id = $1 ORDER BY b.id ASC`
	return r.queryBookings(ctx, query, tripID)
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []models.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, *booking)
	}
	return bookings, rows.Err()
}

// Cancel marks the booking cancelled and frees its seat labels
func (r *BookingRepository) Cancel(ctx context.Context, booking *models.Booking) error {
	query := `
		UPDATE bookings SET booking_status = 'CANCELLED', updated_at = NOW()
		WHERE id = $1
		RETURNING booking_status, updated_at`

	if err := r.db.QueryRowContext(ctx, query, booking.ID).Scan(&booking.BookingStatus, &booking.UpdatedAt); err != nil {
		return notFound(err, "booking", booking.ID)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE booking_seats SET released_at = NOW() WHERE booking_id = $1 AND released_at IS NULL`,
		booking.ID); err != nil {
		return fmt.Errorf("failed to release booking seats: %w", err)
	}
	return nil
}

// SetPaymentStatus records the payment status together with the gateway
// correlation id of the payment that produced it
func (r *BookingRepository) SetPaymentStatus(ctx context.Context, booking *models.Booking, status models.PaymentStatus, paymentID string) error {
	query := `
		UPDATE bookings SET payment_status = $2, payment_id = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING payment_status, payment_id, updated_at`

	err := r.db.QueryRowContext(ctx, query, booking.ID, status, paymentID).
		Scan(&booking.PaymentStatus, &booking.PaymentID, &booking.UpdatedAt)
	if err != nil {
		return notFound(err, "booking", booking.ID)
	}
	return nil
}

// CompleteForTrip closes every confirmed booking of a finished trip
func (r *BookingRepository) CompleteForTrip(ctx context.Context, tripID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET booking_status = 'COMPLETED', updated_at = NOW() WHERE trip_id = $1 AND booking_status = 'CONFIRMED'`,
		tripID)
	if err != nil {
		return 0, fmt.Errorf("failed to complete bookings: %w", err)
	}
	return res.RowsAffected()
}
