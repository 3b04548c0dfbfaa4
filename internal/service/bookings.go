package service

import (
	"context"
	"time"

	apperrors "yatra/internal/errors"
	"yatra/internal/inventory"
	"yatra/internal/logger"
	"yatra/internal/metrics"
	"yatra/internal/models"
	"yatra/internal/repository"
	"yatra/internal/ticket"
	"yatra/internal/validation"
)

type BookingService struct {
	repos   *repository.Repositories
	sync    *tripSync
	metrics *metrics.Metrics
}

func NewBookingService(repos *repository.Repositories, sync *tripSync, m *metrics.Metrics) *BookingService {
	return &BookingService{
		repos:   repos,
		sync:    sync,
		metrics: m,
	}
}

// Create reserves seats on the trip and stores the booking in one transaction
func (s *BookingService) Create(ctx context.Context, p models.Principal, req *models.CreateBookingRequest) (*models.Booking, error) {
	if err := validation.CreateBooking(req); err != nil {
		return nil, err
	}

	var booking *models.Booking
	var trip *models.Trip
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		var err error
		trip, err = s.reserve(ctx, tx, req.TripID, req.PassengerCount)
		if err != nil {
			return err
		}

		count := int64(req.PassengerCount)
		booking = &models.Booking{
			UserID:         p.UserID,
			TripID:         trip.ID,
			PassengerCount: req.PassengerCount,
			Seats:          req.Seats,
			ContactName:    req.ContactName,
			ContactPhone:   req.ContactPhone,
			TotalAmount:    trip.PricePerSeat * count,
			AdvanceAmount:  trip.AdvancePerSeat * count,
			PaymentStatus:  models.PaymentNone,
			BookingStatus:  models.BookingConfirmed,
		}
		return tx.Bookings.Create(ctx, booking)
	})
	s.metrics.ObserveReservation(reservationResult(err))
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("Booking created",
		"booking_id", booking.ID,
		"trip_id", trip.ID,
		"passengers", booking.PassengerCount,
		"available_seats", trip.AvailableSeats)

	publish(ctx, s.sync.publisher, models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID:      booking.ID,
		TripID:         booking.TripID,
		UserID:         booking.UserID,
		PassengerCount: booking.PassengerCount,
		Timestamp:      time.Now(),
	})
	s.sync.changed(ctx, trip, models.EventTripUpdated, "booking")
	return booking, nil
}

// reserve takes count seats with a single conditional update. When nothing
// matched, the current trip row tells which rule refused the request.
func (s *BookingService) reserve(ctx context.Context, tx *repository.Repositories, tripID int64, count int) (*models.Trip, error) {
	trip, ok, err := tx.Trips.ReserveSeats(ctx, tripID, count)
	if err != nil {
		return nil, err
	}
	if ok {
		return trip, nil
	}

	current, err := tx.Trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if _, err := inventory.Reserve(*current, count); err != nil {
		return nil, err
	}
	// seats were taken between the update and the read
	return nil, apperrors.NewInsufficientSeatsError(tripID, count, current.AvailableSeats)
}

func reservationResult(err error) string {
	switch {
	case err == nil:
		return metrics.ReservationOK
	case apperrors.IsInsufficientSeats(err):
		return metrics.ReservationInsufficient
	case apperrors.IsInvalidState(err):
		return metrics.ReservationClosed
	default:
		return metrics.ReservationError
	}
}

func (s *BookingService) List(ctx context.Context, p models.Principal) ([]models.Booking, error) {
	return s.repos.Bookings.ListByUser(ctx, p.UserID)
}

// ListByTrip returns the manifest of a trip for admins
func (s *BookingService) ListByTrip(ctx context.Context, tripID int64) ([]models.Booking, error) {
	if _, err := s.repos.Trips.GetByID(ctx, tripID); err != nil {
		return nil, err
	}
	return s.repos.Bookings.ListByTrip(ctx, tripID)
}

func (s *BookingService) Get(ctx context.Context, p models.Principal, id int64) (*models.Booking, error) {
	booking, err := s.repos.Bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, booking.UserID); err != nil {
		return nil, err
	}
	return booking, nil
}

// Cancel cancels a confirmed booking and returns its seats to the trip.
// The trip row is locked before the booking row, the same order the
// lifecycle job uses.
func (s *BookingService) Cancel(ctx context.Context, p models.Principal, id int64) (*models.Booking, error) {
	current, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}

	var booking *models.Booking
	var trip models.Trip
	err = s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		locked, err := tx.Trips.GetForUpdate(ctx, current.TripID)
		if err != nil {
			return err
		}
		if locked.Status == models.TripOngoing || locked.Status == models.TripCompleted {
			return apperrors.NewInvalidStateError("trip", string(locked.Status), "cancel a booking of")
		}

		booking, err = tx.Bookings.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if booking.BookingStatus != models.BookingConfirmed {
			return apperrors.NewInvalidStateError("booking", string(booking.BookingStatus), "cancel")
		}

		if err := tx.Bookings.Cancel(ctx, booking); err != nil {
			return err
		}

		trip, err = inventory.Release(*locked, booking.PassengerCount)
		if err != nil {
			return err
		}
		return tx.Trips.SaveInventory(ctx, &trip)
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("Booking cancelled",
		"booking_id", booking.ID,
		"trip_id", trip.ID,
		"seats_released", booking.PassengerCount)

	publish(ctx, s.sync.publisher, models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID:     booking.ID,
		TripID:        booking.TripID,
		SeatsReleased: booking.PassengerCount,
		Reason:        cancelReason(p, booking),
		Timestamp:     time.Now(),
	})
	s.sync.changed(ctx, &trip, models.EventTripUpdated, "cancellation")
	return booking, nil
}

func cancelReason(p models.Principal, b *models.Booking) string {
	if p.UserID == b.UserID {
		return "user cancellation"
	}
	return "admin cancellation"
}

// Ticket renders the e-ticket PDF of a booking
func (s *BookingService) Ticket(ctx context.Context, p models.Principal, id int64) ([]byte, string, error) {
	booking, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, "", err
	}
	if booking.BookingStatus == models.BookingCancelled {
		return nil, "", apperrors.NewInvalidStateError("booking", string(booking.BookingStatus), "issue a ticket for")
	}

	trip, err := s.repos.Trips.GetByID(ctx, booking.TripID)
	if err != nil {
		return nil, "", err
	}
	return ticket.Render(booking, trip)
}
