package models

import (
	"time"
)

// CreateTripRequest - модель для создания поездки
type CreateTripRequest struct {
	Title          string    `json:"title" validate:"required,max=200"`
	Origin         string    `json:"origin" validate:"required,max=120"`
	Destination    string    `json:"destination" validate:"required,max=120"`
	Description    string    `json:"description" validate:"max=4000"`
	DepartureAt    time.Time `json:"departure_at" validate:"required"`
	ReturnAt       time.Time `json:"return_at" validate:"required,gtfield=DepartureAt"`
	PricePerSeat   int64     `json:"price_per_seat" validate:"gte=0"`
	AdvancePerSeat int64     `json:"advance_per_seat" validate:"gte=0,ltefield=PricePerSeat"`
	TotalSeats     int       `json:"total_seats"`
}

// UpdateCapacityRequest - модель для изменения вместимости поездки
type UpdateCapacityRequest struct {
	TotalSeats int `json:"total_seats"`
}

// UpdateTripStatusRequest - модель для смены статуса поездки администратором
type UpdateTripStatusRequest struct {
	Status TripStatus `json:"status" validate:"required,oneof=ONGOING COMPLETED CANCELLED"`
}

// CapacityChangeResponse - результат изменения вместимости
type CapacityChangeResponse struct {
	Trip           Trip   `json:"trip"`
	RequestedSeats int    `json:"requested_seats"`
	BookedSeats    int    `json:"booked_seats"`
	Clamped        bool   `json:"clamped"`
	Warning        string `json:"warning,omitempty"`
}

// ListTripsParams - параметры поиска поездок
type ListTripsParams struct {
	Query    string     `form:"query"`
	Date     string     `form:"date" validate:"omitempty,datetime=2006-01-02"`
	Status   TripStatus `form:"status" validate:"omitempty,oneof=UPCOMING FULL ONGOING COMPLETED CANCELLED"`
	Page     int        `form:"page" validate:"gte=1"`
	PageSize int        `form:"pageSize" validate:"gte=1,lte=50"`
}

// ListTripsResponse - страница списка поездок
type ListTripsResponse struct {
	Trips    []Trip `json:"trips"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Total    int64  `json:"total"`
}

// CreateBookingRequest - модель для создания бронирования
type CreateBookingRequest struct {
	TripID         int64    `json:"trip_id" validate:"required,gt=0"`
	PassengerCount int      `json:"passenger_count" validate:"required,gt=0,lte=60"`
	Seats          []string `json:"seats" validate:"required,dive,required,seat"`
	ContactName    string   `json:"contact_name" validate:"required,max=120"`
	ContactPhone   string   `json:"contact_phone" validate:"required,phone"`
}

// InitiatePaymentRequest - модель для инициации платежа по бронированию
type InitiatePaymentRequest struct {
	Type PaymentType `json:"type" validate:"required,oneof=ADVANCE FULL"`
}

// InitiatePaymentResponse - ссылка на оплату в платежном шлюзе
type InitiatePaymentResponse struct {
	PaymentID  int64  `json:"payment_id"`
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
	PaymentURL string `json:"payment_url"`
}

// OfflinePaymentRequest - платеж, принятый администратором (наличные, UPI)
type OfflinePaymentRequest struct {
	Type      PaymentType `json:"type" validate:"required,oneof=ADVANCE FULL"`
	Amount    int64       `json:"amount" validate:"gt=0"`
	Method    string      `json:"method" validate:"required,oneof=CASH UPI BANK_TRANSFER"`
	Reference string      `json:"reference" validate:"required,max=120"`
}

// PaymentNotificationPayload - модель для webhook уведомлений от платежного шлюза
type PaymentNotificationPayload struct {
	PaymentID string `json:"paymentId" validate:"required"`
	OrderID   string `json:"orderId" validate:"required"`
	Status    string `json:"status" validate:"required"`
	Amount    int64  `json:"amount"`
	TeamSlug  string `json:"teamSlug"`
	Token     string `json:"token" validate:"required"`
	Timestamp string `json:"timestamp"`
}

// OTPRequest - запрос одноразового кода
type OTPRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
}

// OTPRequestResponse - ответ на запрос кода
type OTPRequestResponse struct {
	ExpiresIn int `json:"expires_in"`
}

// OTPVerifyRequest - подтверждение одноразового кода
type OTPVerifyRequest struct {
	Phone string `json:"phone" validate:"required,phone"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
	Name  string `json:"name" validate:"max=120"`
}

// AuthResponse - выданный токен доступа
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}
