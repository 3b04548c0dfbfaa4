package models

import (
	"time"
)

type TripStatus string

const (
	TripUpcoming  TripStatus = "UPCOMING"
	TripFull      TripStatus = "FULL"
	TripOngoing   TripStatus = "ONGOING"
	TripCompleted TripStatus = "COMPLETED"
	TripCancelled TripStatus = "CANCELLED"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentNone        PaymentStatus = "NONE"
	PaymentAdvancePaid PaymentStatus = "ADVANCE_PAID"
	PaymentFullPaid    PaymentStatus = "FULL_PAID"
)

type PaymentType string

const (
	PaymentTypeAdvance PaymentType = "ADVANCE"
	PaymentTypeFull    PaymentType = "FULL"
)

// PaymentResult is the status of a single payment record.
type PaymentResult string

const (
	PaymentPending PaymentResult = "PENDING"
	PaymentSuccess PaymentResult = "SUCCESS"
	PaymentFailed  PaymentResult = "FAILED"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user in the system
type User struct {
	ID          int64     `json:"id" db:"id"`
	Phone       string    `json:"phone" db:"phone"`
	Name        string    `json:"name" db:"name"`
	Role        string    `json:"role" db:"role"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	LastLoginAt time.Time `json:"last_login_at" db:"last_login_at"`
}

// Trip represents a scheduled pilgrimage bus trip
type Trip struct {
	ID             int64      `json:"id" db:"id"`
	Title          string     `json:"title" db:"title"`
	Origin         string     `json:"origin" db:"origin"`
	Destination    string     `json:"destination" db:"destination"`
	Description    string     `json:"description" db:"description"`
	DepartureAt    time.Time  `json:"departure_at" db:"departure_at"`
	ReturnAt       time.Time  `json:"return_at" db:"return_at"`
	PricePerSeat   int64      `json:"price_per_seat" db:"price_per_seat"`
	AdvancePerSeat int64      `json:"advance_per_seat" db:"advance_per_seat"`
	TotalSeats     int        `json:"total_seats" db:"total_seats"`
	AvailableSeats int        `json:"available_seats" db:"available_seats"`
	Status         TripStatus `json:"status" db:"status"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// BookedSeats returns the number of seats held by confirmed bookings.
func (t Trip) BookedSeats() int {
	if booked := t.TotalSeats - t.AvailableSeats; booked > 0 {
		return booked
	}
	return 0
}

// Booking represents a booking in the system
type Booking struct {
	ID             int64         `json:"id" db:"id"`
	UserID         int64         `json:"user_id" db:"user_id"`
	TripID         int64         `json:"trip_id" db:"trip_id"`
	PassengerCount int           `json:"passenger_count" db:"passenger_count"`
	Seats          []string      `json:"seats"`
	ContactName    string        `json:"contact_name" db:"contact_name"`
	ContactPhone   string        `json:"contact_phone" db:"contact_phone"`
	TotalAmount    int64         `json:"total_amount" db:"total_amount"`
	AdvanceAmount  int64         `json:"advance_amount" db:"advance_amount"`
	PaymentStatus  PaymentStatus `json:"payment_status" db:"payment_status"`
	BookingStatus  BookingStatus `json:"booking_status" db:"booking_status"`
	PaymentID      *string       `json:"payment_id" db:"payment_id"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// Payment is an append-only record of one payment attempt against a booking
type Payment struct {
	ID               int64         `json:"id" db:"id"`
	BookingID        int64         `json:"booking_id" db:"booking_id"`
	Amount           int64         `json:"amount" db:"amount"`
	Type             PaymentType   `json:"type" db:"type"`
	Status           PaymentResult `json:"status" db:"status"`
	Method           string        `json:"method" db:"method"`
	OrderID          string        `json:"order_id" db:"order_id"`
	GatewayPaymentID *string       `json:"gateway_payment_id" db:"gateway_payment_id"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID int64
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
