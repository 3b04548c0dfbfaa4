package service

import (
	"context"
	"time"

	"yatra/internal/auth"
	"yatra/internal/config"
	apperrors "yatra/internal/errors"
	"yatra/internal/external"
	"yatra/internal/logger"
	"yatra/internal/messaging"
	"yatra/internal/metrics"
	"yatra/internal/models"
	"yatra/internal/repository"
	"yatra/internal/search"
)

// TripCache is the trip-list cache in Valkey
type TripCache interface {
	GetTripsList(ctx context.Context, query string) ([]byte, int64, error)
	SetTripsList(ctx context.Context, query string, version int64, data []byte) error
	InvalidateTrips(ctx context.Context) error
}

// TripSearcher serves trip listings from the search index
type TripSearcher interface {
	Search(ctx context.Context, q search.TripQuery) ([]models.Trip, int64, error)
}

// TripIndexer keeps the search index in step with Postgres
type TripIndexer interface {
	IndexTrip(ctx context.Context, trip *models.Trip) error
}

// PaymentGateway is the part of the gateway client the payment service uses
type PaymentGateway interface {
	InitPayment(ctx context.Context, amount int64, orderID, description string) (*external.PaymentInitResponse, error)
	CheckPayment(ctx context.Context, orderID string) (*external.PaymentCheckResponse, error)
	VerifyNotification(n *models.PaymentNotificationPayload) error
}

// OTPStore keeps hashed one-time codes with their attempt counters
type OTPStore interface {
	SaveOTP(ctx context.Context, phone, codeHash string, ttl time.Duration) error
	GetOTP(ctx context.Context, phone string) (string, error)
	IncrOTPAttempts(ctx context.Context, phone string, ttl time.Duration) (int64, error)
	DeleteOTP(ctx context.Context, phone string) error
	ResetOTPAttempts(ctx context.Context, phone string) error
	AcquireResendSlot(ctx context.Context, phone string, window time.Duration) (bool, error)
}

// Deps collects the collaborators of the services. Optional ones may be nil.
type Deps struct {
	Repos     *repository.Repositories
	Publisher messaging.Publisher
	Cache     TripCache
	Searcher  TripSearcher
	// Indexer is set when trips are indexed inline rather than by the consumers
	Indexer TripIndexer
	Gateway PaymentGateway
	// RelayCallbacks sends gateway callbacks through NATS instead of applying them in the request
	RelayCallbacks bool
	OTP            OTPStore
	SMS            auth.SMSSender
	Tokens         *auth.TokenManager
	Auth           config.AuthConfig
	Metrics        *metrics.Metrics
}

type Services struct {
	Trips    *TripService
	Bookings *BookingService
	Payments *PaymentService
	Auth     *AuthService
}

func NewServices(deps Deps) *Services {
	if deps.Publisher == nil {
		deps.Publisher = messaging.NopPublisher{}
	}

	ts := &tripSync{
		publisher: deps.Publisher,
		cache:     deps.Cache,
		indexer:   deps.Indexer,
	}

	return &Services{
		Trips:    NewTripService(deps.Repos, ts, deps.Searcher, deps.Metrics),
		Bookings: NewBookingService(deps.Repos, ts, deps.Metrics),
		Payments: NewPaymentService(deps.Repos, deps.Gateway, deps.Publisher, deps.RelayCallbacks, deps.Metrics),
		Auth:     NewAuthService(deps.Repos.Users, deps.OTP, deps.SMS, deps.Tokens, deps.Auth),
	}
}

// tripSync propagates a committed trip change to the cache, the event stream
// and, when configured, the search index. Failures are logged only.
type tripSync struct {
	publisher messaging.Publisher
	cache     TripCache
	indexer   TripIndexer
}

func (s *tripSync) changed(ctx context.Context, trip *models.Trip, subject, reason string) {
	if s.cache != nil {
		if err := s.cache.InvalidateTrips(ctx); err != nil {
			logger.WithContext(ctx).Warn("Failed to invalidate trips cache", "error", err, "trip_id", trip.ID)
		}
	}

	if s.indexer != nil {
		if err := s.indexer.IndexTrip(ctx, trip); err != nil {
			logger.WithContext(ctx).Warn("Failed to index trip", "error", err, "trip_id", trip.ID)
		}
	}

	publish(ctx, s.publisher, subject, models.TripChangedEvent{
		TripID:         trip.ID,
		Status:         trip.Status,
		TotalSeats:     trip.TotalSeats,
		AvailableSeats: trip.AvailableSeats,
		Reason:         reason,
		Timestamp:      time.Now(),
	})
}

// publish sends an event and logs, but does not return, a failure
func publish(ctx context.Context, p messaging.Publisher, subject string, data any) {
	if err := p.Publish(subject, data); err != nil {
		logger.WithContext(ctx).Error("Failed to publish event",
			"error", err,
			"event_type", subject)
	}
}

// authorize allows the owner of a resource and admins
func authorize(p models.Principal, ownerID int64) error {
	if p.IsAdmin() || p.UserID == ownerID {
		return nil
	}
	return apperrors.ErrForbidden
}
