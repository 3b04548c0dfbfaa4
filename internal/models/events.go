package models

import "time"

// NATS Event Types
const (
	EventTripCreated      = "trip.created"
	EventTripUpdated      = "trip.updated"
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"
	EventPaymentApplied   = "payment.applied"
	EventPaymentCallback  = "payment.callback"
)

// TripChangedEvent is published whenever a trip's listing data or seat counts change
type TripChangedEvent struct {
	TripID         int64      `json:"trip_id"`
	Status         TripStatus `json:"status"`
	TotalSeats     int        `json:"total_seats"`
	AvailableSeats int        `json:"available_seats"`
	Reason         string     `json:"reason"`
	Timestamp      time.Time  `json:"timestamp"`
}

// BookingCreatedEvent represents a booking creation event
type BookingCreatedEvent struct {
	BookingID      int64     `json:"booking_id"`
	TripID         int64     `json:"trip_id"`
	UserID         int64     `json:"user_id"`
	PassengerCount int       `json:"passenger_count"`
	Timestamp      time.Time `json:"timestamp"`
}

// BookingCancelledEvent represents a booking cancellation event
type BookingCancelledEvent struct {
	BookingID     int64     `json:"booking_id"`
	TripID        int64     `json:"trip_id"`
	SeatsReleased int       `json:"seats_released"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

// PaymentAppliedEvent represents a payment result applied to a booking
type PaymentAppliedEvent struct {
	BookingID     int64         `json:"booking_id"`
	PaymentID     int64         `json:"payment_id"`
	Type          PaymentType   `json:"type"`
	Result        PaymentResult `json:"result"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Anomalous     bool          `json:"anomalous"`
	Timestamp     time.Time     `json:"timestamp"`
}

// PaymentCallbackEvent carries a verified gateway notification to the consumers
type PaymentCallbackEvent struct {
	OrderID          string        `json:"order_id"`
	GatewayPaymentID string        `json:"gateway_payment_id"`
	Result           PaymentResult `json:"result"`
	ReceivedAt       time.Time     `json:"received_at"`
}
