package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "yatra/internal/errors"
	"yatra/internal/external"
	"yatra/internal/logger"
	"yatra/internal/messaging"
	"yatra/internal/metrics"
	"yatra/internal/models"
	"yatra/internal/paystate"
	"yatra/internal/repository"
	"yatra/internal/validation"
)

const gatewayMethod = "GATEWAY"

type PaymentService struct {
	repos     *repository.Repositories
	gateway   PaymentGateway
	publisher messaging.Publisher
	relay     bool
	metrics   *metrics.Metrics
}

func NewPaymentService(repos *repository.Repositories, gateway PaymentGateway, publisher messaging.Publisher, relay bool, m *metrics.Metrics) *PaymentService {
	return &PaymentService{
		repos:     repos,
		gateway:   gateway,
		publisher: publisher,
		relay:     relay,
		metrics:   m,
	}
}

// Initiate records a pending payment for the booking and registers it with
// the gateway. The caller is sent to the returned payment page.
func (s *PaymentService) Initiate(ctx context.Context, p models.Principal, bookingID int64, req *models.InitiatePaymentRequest) (*models.InitiatePaymentResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	booking, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, booking.UserID); err != nil {
		return nil, err
	}
	if booking.BookingStatus != models.BookingConfirmed {
		return nil, apperrors.NewInvalidStateError("booking", string(booking.BookingStatus), "pay for")
	}

	amount, err := s.amountDue(ctx, booking, req.Type)
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		BookingID: booking.ID,
		Amount:    amount,
		Type:      req.Type,
		Status:    models.PaymentPending,
		Method:    gatewayMethod,
		OrderID:   uuid.New().String(),
	}
	if err := s.repos.Payments.Create(ctx, payment); err != nil {
		return nil, err
	}

	resp, err := s.gateway.InitPayment(ctx, amount, payment.OrderID, fmt.Sprintf("Booking %d (%s)", booking.ID, req.Type))
	if err != nil {
		if _, rerr := s.repos.Payments.Resolve(ctx, payment, models.PaymentFailed, ""); rerr != nil {
			logger.WithContext(ctx).Error("Failed to mark payment failed", "error", rerr, "order_id", payment.OrderID)
		}
		return nil, fmt.Errorf("failed to initialize payment: %w", err)
	}

	logger.WithContext(ctx).Info("Payment initiated",
		"booking_id", booking.ID,
		"order_id", payment.OrderID,
		"type", payment.Type,
		"amount", amount)

	return &models.InitiatePaymentResponse{
		PaymentID:  payment.ID,
		OrderID:    payment.OrderID,
		Amount:     amount,
		PaymentURL: resp.PaymentURL,
	}, nil
}

func (s *PaymentService) amountDue(ctx context.Context, b *models.Booking, typ models.PaymentType) (int64, error) {
	if b.PaymentStatus == models.PaymentFullPaid {
		return 0, apperrors.NewInvalidStateError("booking", string(b.PaymentStatus), "pay for")
	}

	if typ == models.PaymentTypeAdvance {
		if b.AdvanceAmount <= 0 {
			return 0, apperrors.NewValidationError("type", "trip has no advance option")
		}
		if b.PaymentStatus != models.PaymentNone {
			return 0, apperrors.NewInvalidStateError("booking", string(b.PaymentStatus), "pay an advance for")
		}
		return b.AdvanceAmount, nil
	}

	paid, err := s.repos.Payments.PaidAmount(ctx, b.ID)
	if err != nil {
		return 0, err
	}
	if due := b.TotalAmount - paid; due > 0 {
		return due, nil
	}
	return 0, apperrors.NewInvalidStateError("booking", string(b.PaymentStatus), "pay the balance of")
}

// HandleCallback accepts a gateway notification. With relaying enabled the
// result is handed to the consumers; otherwise, or when relaying fails, it is
// applied before returning.
func (s *PaymentService) HandleCallback(ctx context.Context, n *models.PaymentNotificationPayload) error {
	if err := validation.Struct(n); err != nil {
		return err
	}
	if err := s.gateway.VerifyNotification(n); err != nil {
		logger.WithContext(ctx).Warn("Rejected payment notification", "error", err, "order_id", n.OrderID)
		return apperrors.ErrUnauthorized
	}

	result, ok := external.MapStatus(n.Status)
	if !ok {
		logger.WithContext(ctx).Info("Ignoring intermediate payment status", "order_id", n.OrderID, "status", n.Status)
		return nil
	}

	evt := models.PaymentCallbackEvent{
		OrderID:          n.OrderID,
		GatewayPaymentID: n.PaymentID,
		Result:           result,
		ReceivedAt:       time.Now(),
	}

	if s.relay {
		err := s.publisher.Publish(models.EventPaymentCallback, evt)
		if err == nil {
			return nil
		}
		logger.WithContext(ctx).Error("Failed to relay payment callback, applying inline", "error", err, "order_id", n.OrderID)
	}

	_, err := s.ApplyCallback(ctx, evt)
	return err
}

// ApplyCallback resolves the pending payment of the order and, on success,
// advances the booking's payment status. Repeated deliveries are no-ops.
func (s *PaymentService) ApplyCallback(ctx context.Context, evt models.PaymentCallbackEvent) (*models.Booking, error) {
	if evt.Result != models.PaymentSuccess && evt.Result != models.PaymentFailed {
		return nil, apperrors.NewValidationError("result", "unsupported payment result "+string(evt.Result))
	}

	var booking *models.Booking
	var payment *models.Payment
	var tr paystate.Transition
	resolved := false
	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		found, err := tx.Payments.GetByOrderID(ctx, evt.OrderID)
		if err != nil {
			return err
		}

		booking, err = tx.Bookings.GetForUpdate(ctx, found.BookingID)
		if err != nil {
			return err
		}
		payment, err = tx.Payments.GetByOrderIDForUpdate(ctx, evt.OrderID)
		if err != nil {
			return err
		}

		resolved, err = tx.Payments.Resolve(ctx, payment, evt.Result, evt.GatewayPaymentID)
		if err != nil || !resolved || evt.Result != models.PaymentSuccess {
			return err
		}

		tr, err = s.applySuccess(ctx, tx, booking, payment)
		return err
	})
	if err != nil {
		return nil, err
	}

	if !resolved {
		logger.WithContext(ctx).Info("Duplicate payment callback ignored",
			"order_id", evt.OrderID,
			"payment_status", payment.Status)
		return booking, nil
	}

	logger.WithContext(ctx).Info("Payment callback applied",
		"booking_id", booking.ID,
		"order_id", evt.OrderID,
		"result", evt.Result,
		"payment_status", booking.PaymentStatus)

	if evt.Result == models.PaymentSuccess {
		s.published(ctx, booking, payment, tr)
	}
	return booking, nil
}

// RecordOffline stores a payment an admin collected outside the gateway
func (s *PaymentService) RecordOffline(ctx context.Context, bookingID int64, req *models.OfflinePaymentRequest) (*models.Booking, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var booking *models.Booking
	var tr paystate.Transition
	reference := req.Reference
	payment := &models.Payment{
		BookingID:        bookingID,
		Amount:           req.Amount,
		Type:             req.Type,
		Status:           models.PaymentSuccess,
		Method:           req.Method,
		OrderID:          uuid.New().String(),
		GatewayPaymentID: &reference,
	}

	err := s.repos.InTx(ctx, func(tx *repository.Repositories) error {
		var err error
		booking, err = tx.Bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking.BookingStatus == models.BookingCancelled {
			return apperrors.NewInvalidStateError("booking", string(booking.BookingStatus), "record a payment for")
		}

		if err := tx.Payments.Create(ctx, payment); err != nil {
			return err
		}
		tr, err = s.applySuccess(ctx, tx, booking, payment)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info("Offline payment recorded",
		"booking_id", booking.ID,
		"method", payment.Method,
		"amount", payment.Amount,
		"payment_status", booking.PaymentStatus)

	s.published(ctx, booking, payment, tr)
	return booking, nil
}

// applySuccess runs the payment state machine inside the caller's
// transaction. The booking keeps the correlation id of the payment that
// last changed its status.
func (s *PaymentService) applySuccess(ctx context.Context, tx *repository.Repositories, booking *models.Booking, payment *models.Payment) (paystate.Transition, error) {
	tr, err := paystate.Apply(booking.PaymentStatus, payment.Type, models.PaymentSuccess)
	if err != nil {
		return tr, err
	}
	s.metrics.ObservePaymentTransition(string(tr.Outcome))

	switch tr.Outcome {
	case paystate.Changed:
		return tr, tx.Bookings.SetPaymentStatus(ctx, booking, tr.To, correlationID(payment))
	case paystate.Anomalous:
		logger.WithContext(ctx).Warn("Advance payment received for a fully paid booking",
			"booking_id", booking.ID,
			"order_id", payment.OrderID,
			"amount", payment.Amount)
	}
	return tr, nil
}

func correlationID(p *models.Payment) string {
	if p.GatewayPaymentID != nil && *p.GatewayPaymentID != "" {
		return *p.GatewayPaymentID
	}
	return p.OrderID
}

func (s *PaymentService) published(ctx context.Context, booking *models.Booking, payment *models.Payment, tr paystate.Transition) {
	publish(ctx, s.publisher, models.EventPaymentApplied, models.PaymentAppliedEvent{
		BookingID:     booking.ID,
		PaymentID:     payment.ID,
		Type:          payment.Type,
		Result:        payment.Status,
		PaymentStatus: booking.PaymentStatus,
		Anomalous:     tr.Outcome == paystate.Anomalous,
		Timestamp:     time.Now(),
	})
}

// History lists the payments of a booking
func (s *PaymentService) History(ctx context.Context, p models.Principal, bookingID int64) ([]models.Payment, error) {
	booking, err := s.repos.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, booking.UserID); err != nil {
		return nil, err
	}
	return s.repos.Payments.ListByBooking(ctx, bookingID)
}

// Sync asks the gateway for the state of a pending order and applies a
// terminal result. Used by admins when a callback never arrived.
func (s *PaymentService) Sync(ctx context.Context, orderID string) (*models.Payment, error) {
	payment, err := s.repos.Payments.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentPending {
		return payment, nil
	}

	resp, err := s.gateway.CheckPayment(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check payment: %w", err)
	}

	for _, d := range resp.Payments {
		result, ok := external.MapStatus(d.Status)
		if !ok || d.OrderID != orderID {
			continue
		}
		_, err := s.ApplyCallback(ctx, models.PaymentCallbackEvent{
			OrderID:          orderID,
			GatewayPaymentID: d.PaymentID,
			Result:           result,
			ReceivedAt:       time.Now(),
		})
		if err != nil {
			return nil, err
		}
		return s.repos.Payments.GetByOrderID(ctx, orderID)
	}

	return payment, nil
}

// Retryable reports whether a failed callback should be redelivered
func Retryable(err error) bool {
	return err != nil &&
		!apperrors.IsNotFound(err) &&
		!apperrors.IsValidation(err) &&
		!errors.Is(err, apperrors.ErrUnauthorized)
}
