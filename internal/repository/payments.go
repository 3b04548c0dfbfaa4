package repository

import (
	"context"
	"fmt"

	apperrors "yatra/internal/errors"
	"yatra/internal/models"
)

type PaymentRepository struct {
	db Querier
}

const paymentColumns = `id, booking_id, amount, type, status, method, order_id, gateway_payment_id, created_at, updated_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.Amount,
		&p.Type,
		&p.Status,
		&p.Method,
		&p.OrderID,
		&p.GatewayPaymentID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (booking_id, amount, type, status, method, order_id, gateway_payment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		p.BookingID,
		p.Amount,
		p.Type,
		p.Status,
		p.Method,
		p.OrderID,
		p.GatewayPaymentID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return apperrors.NewValidationError("reference", "payment already recorded")
		}
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID))
	if err != nil {
		return nil, notFound(err, "payment", orderID)
	}
	return p, nil
}

func (r *PaymentRepository) GetByOrderIDForUpdate(ctx context.Context, orderID string) (*models.Payment, error) {
	p, err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 FOR UPDATE`, orderID))
	if err != nil {
		return nil, notFound(err, "payment", orderID)
	}
	return p, nil
}

// Resolve moves a pending payment to its terminal result. It reports false
// when the payment was already resolved by an earlier delivery.
func (r *PaymentRepository) Resolve(ctx context.Context, p *models.Payment, result models.PaymentResult, gatewayPaymentID string) (bool, error) {
	query := `
		UPDATE payments SET status = $2, gateway_payment_id = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'`

	res, err := r.db.ExecContext(ctx, query, p.ID, result, gatewayPaymentID)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return false, apperrors.NewValidationError("paymentId", "gateway payment id already used")
		}
		return false, fmt.Errorf("failed to resolve payment: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to resolve payment: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	p.Status = result
	if gatewayPaymentID != "" {
		p.GatewayPaymentID = &gatewayPaymentID
	}
	return true, nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]models.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 ORDER BY id ASC`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// PaidAmount sums the successful payments of a booking
func (r *PaymentRepository) PaidAmount(ctx context.Context, bookingID int64) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE booking_id = $1 AND status = 'SUCCESS'`,
		bookingID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum payments: %w", err)
	}
	return total, nil
}
