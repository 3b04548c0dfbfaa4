package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/stan.go"

	"yatra/internal/auth"
	apperrors "yatra/internal/errors"
	"yatra/internal/models"
	"yatra/internal/service"
	"yatra/internal/ticket"
)

// CallbackApplier applies verified gateway notifications to bookings
type CallbackApplier interface {
	ApplyCallback(ctx context.Context, evt models.PaymentCallbackEvent) (*models.Booking, error)
}

// TripLoader reads the current state of a trip
type TripLoader interface {
	GetByID(ctx context.Context, id int64) (*models.Trip, error)
}

// BookingLoader reads a booking for notifications
type BookingLoader interface {
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
}

// TripIndex keeps the search index in step with PostgreSQL
type TripIndex interface {
	IndexTrip(ctx context.Context, trip *models.Trip) error
	DeleteTrip(ctx context.Context, id int64) error
}

type Handlers struct {
	payments CallbackApplier
	trips    TripLoader
	bookings BookingLoader
	index    TripIndex
	sms      auth.SMSSender
}

func NewHandlers(payments CallbackApplier, trips TripLoader, bookings BookingLoader, index TripIndex, sms auth.SMSSender) *Handlers {
	if sms == nil {
		sms = auth.LogSender{}
	}
	return &Handlers{
		payments: payments,
		trips:    trips,
		bookings: bookings,
		index:    index,
		sms:      sms,
	}
}

// ackable adapts a handler to stan. The message is acked unless the handler
// asks for redelivery; unacked messages come back after AckWait.
func ackable(subject string, fn func(ctx context.Context, data []byte) error) stan.MsgHandler {
	return func(m *stan.Msg) {
		if err := fn(context.Background(), m.Data); err != nil {
			slog.Error("Message will be redelivered", "subject", subject, "sequence", m.Sequence, "error", err)
			return
		}
		if err := m.Ack(); err != nil {
			slog.Error("Failed to ack message", "subject", subject, "sequence", m.Sequence, "error", err)
		}
	}
}

// HandlePaymentCallback applies a relayed gateway notification. Permanent
// failures are logged and dropped, transient ones are redelivered.
func (h *Handlers) HandlePaymentCallback(ctx context.Context, data []byte) error {
	var event models.PaymentCallbackEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal payment callback event", "error", err)
		return nil
	}

	slog.Info("Processing payment callback", "order_id", event.OrderID, "result", event.Result)

	booking, err := h.payments.ApplyCallback(ctx, event)
	if err != nil {
		if service.Retryable(err) {
			return fmt.Errorf("failed to apply payment callback %s: %w", event.OrderID, err)
		}
		slog.Error("Dropping payment callback", "order_id", event.OrderID, "error", err)
		return nil
	}

	if booking != nil {
		slog.Info("Payment callback applied",
			"order_id", event.OrderID,
			"booking_id", booking.ID,
			"payment_status", booking.PaymentStatus)
	}
	return nil
}

// HandleTripChanged reindexes the trip named in a trip.* event
func (h *Handlers) HandleTripChanged(ctx context.Context, data []byte) error {
	var event models.TripChangedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal trip changed event", "error", err)
		return nil
	}

	trip, err := h.trips.GetByID(ctx, event.TripID)
	if apperrors.IsNotFound(err) {
		if err := h.index.DeleteTrip(ctx, event.TripID); err != nil {
			return fmt.Errorf("failed to remove trip %d from index: %w", event.TripID, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load trip %d: %w", event.TripID, err)
	}

	if err := h.index.IndexTrip(ctx, trip); err != nil {
		return fmt.Errorf("failed to index trip %d: %w", trip.ID, err)
	}

	slog.Debug("Trip reindexed", "trip_id", trip.ID, "reason", event.Reason, "available_seats", trip.AvailableSeats)
	return nil
}

// HandleBookingCreated sends the booking confirmation SMS
func (h *Handlers) HandleBookingCreated(ctx context.Context, data []byte) error {
	var event models.BookingCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal booking created event", "error", err)
		return nil
	}

	return h.notify(ctx, event.BookingID, func(b *models.Booking) string {
		return fmt.Sprintf("Yatra booking #%d confirmed for %d passenger(s). Amount due %s, advance %s.",
			b.ID, b.PassengerCount, ticket.FormatRupees(b.TotalAmount), ticket.FormatRupees(b.AdvanceAmount))
	})
}

// HandleBookingCancelled sends the cancellation SMS
func (h *Handlers) HandleBookingCancelled(ctx context.Context, data []byte) error {
	var event models.BookingCancelledEvent
	if err := json.Unmarshal(data, &event); err != nil {
		slog.Error("Failed to unmarshal booking cancelled event", "error", err)
		return nil
	}

	return h.notify(ctx, event.BookingID, func(b *models.Booking) string {
		return fmt.Sprintf("Yatra booking #%d has been cancelled and %d seat(s) released.", b.ID, event.SeatsReleased)
	})
}

func (h *Handlers) notify(ctx context.Context, bookingID int64, message func(b *models.Booking) string) error {
	booking, err := h.bookings.GetByID(ctx, bookingID)
	if apperrors.IsNotFound(err) {
		slog.Warn("Booking for notification not found", "booking_id", bookingID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load booking %d: %w", bookingID, err)
	}

	if err := h.sms.Send(ctx, booking.ContactPhone, message(booking)); err != nil {
		return fmt.Errorf("failed to notify booking %d: %w", bookingID, err)
	}
	return nil
}
