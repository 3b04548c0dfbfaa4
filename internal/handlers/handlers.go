package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "yatra/internal/errors"
	"yatra/internal/logger"
	"yatra/internal/middleware"
	"yatra/internal/models"
)

// TripService - операции с поездками, которые нужны HTTP слою
type TripService interface {
	Create(ctx context.Context, req *models.CreateTripRequest) (*models.Trip, error)
	Get(ctx context.Context, id int64) (*models.Trip, error)
	List(ctx context.Context, params models.ListTripsParams) (*models.ListTripsResponse, error)
	EditCapacity(ctx context.Context, id int64, req *models.UpdateCapacityRequest) (*models.CapacityChangeResponse, error)
	UpdateStatus(ctx context.Context, id int64, req *models.UpdateTripStatusRequest) (*models.Trip, error)
}

// BookingService - операции с бронированиями
type BookingService interface {
	Create(ctx context.Context, p models.Principal, req *models.CreateBookingRequest) (*models.Booking, error)
	List(ctx context.Context, p models.Principal) ([]models.Booking, error)
	ListByTrip(ctx context.Context, tripID int64) ([]models.Booking, error)
	Get(ctx context.Context, p models.Principal, id int64) (*models.Booking, error)
	Cancel(ctx context.Context, p models.Principal, id int64) (*models.Booking, error)
	Ticket(ctx context.Context, p models.Principal, id int64) ([]byte, string, error)
}

// PaymentService - операции с платежами
type PaymentService interface {
	Initiate(ctx context.Context, p models.Principal, bookingID int64, req *models.InitiatePaymentRequest) (*models.InitiatePaymentResponse, error)
	HandleCallback(ctx context.Context, n *models.PaymentNotificationPayload) error
	RecordOffline(ctx context.Context, bookingID int64, req *models.OfflinePaymentRequest) (*models.Booking, error)
	History(ctx context.Context, p models.Principal, bookingID int64) ([]models.Payment, error)
	Sync(ctx context.Context, orderID string) (*models.Payment, error)
}

// AuthService - вход по одноразовому коду
type AuthService interface {
	RequestOTP(ctx context.Context, req *models.OTPRequest) (*models.OTPRequestResponse, error)
	VerifyOTP(ctx context.Context, req *models.OTPVerifyRequest) (*models.AuthResponse, error)
}

type Handlers struct {
	trips    TripService
	bookings BookingService
	payments PaymentService
	auth     AuthService
}

func NewHandlers(trips TripService, bookings BookingService, payments PaymentService, auth AuthService) *Handlers {
	return &Handlers{
		trips:    trips,
		bookings: bookings,
		payments: payments,
		auth:     auth,
	}
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsInsufficientSeats(err), apperrors.IsInvalidState(err):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError пишет ошибку в ответ; внутренние ошибки наружу не раскрываются
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error(fallback, "error", err)
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": fallback})
		return
	}

	body := gin.H{"error": err.Error()}
	var insufficient *apperrors.InsufficientSeatsError
	if errors.As(err, &insufficient) {
		body["requested"] = insufficient.Requested
		body["available"] = insufficient.Available
	}
	c.JSON(status, body)
}

// pathID reads a positive int64 path parameter
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func principal(c *gin.Context) (models.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return p, ok
}

// Health - GET /health
func Health(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := check(c.Request.Context()); err != nil {
			logger.WithContext(c.Request.Context()).Error("Health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
