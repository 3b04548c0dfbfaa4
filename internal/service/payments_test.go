package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "yatra/internal/errors"
	"yatra/internal/external"
	"yatra/internal/models"
)

func expectCallbackLocks(f *fixture, orderID string, booking *sqlmock.Rows, typ models.PaymentType) {
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`FROM payments WHERE order_id = \$1$`).
		WithArgs(orderID).
		WillReturnRows(paymentRow(3, 11, 100000, typ, models.PaymentPending, orderID))
	f.mock.ExpectQuery(`FOR UPDATE OF b`).
		WithArgs(int64(11)).
		WillReturnRows(booking)
	f.mock.ExpectQuery(`FROM payments WHERE order_id = \$1 FOR UPDATE`).
		WithArgs(orderID).
		WillReturnRows(paymentRow(3, 11, 100000, typ, models.PaymentPending, orderID))
}

func TestApplyCallbackAdvanceSuccess(t *testing.T) {
	f := newFixture(t)

	expectCallbackLocks(f, "ord-1", bookingRow(11, 5, bookingRowOpts{userID: 1, total: 360000, advance: 100000}), models.PaymentTypeAdvance)
	f.mock.ExpectExec(`UPDATE payments SET status = \$2`).
		WithArgs(int64(3), "SUCCESS", "gw-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectQuery(`UPDATE bookings SET payment_status = \$2, payment_id = \$3`).
		WithArgs(int64(11), "ADVANCE_PAID", "gw-1").
		WillReturnRows(sqlmock.NewRows([]string{"payment_status", "payment_id", "updated_at"}).AddRow("ADVANCE_PAID", "gw-1", testNow))
	f.mock.ExpectCommit()

	booking, err := f.services.Payments.ApplyCallback(context.Background(), models.PaymentCallbackEvent{
		OrderID: "ord-1", GatewayPaymentID: "gw-1", Result: models.PaymentSuccess,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentAdvancePaid, booking.PaymentStatus)
	require.NotNil(t, booking.PaymentID)
	assert.Equal(t, "gw-1", *booking.PaymentID)

	require.Equal(t, []string{models.EventPaymentApplied}, f.publisher.subjects)
	applied := f.publisher.events[0].(models.PaymentAppliedEvent)
	assert.False(t, applied.Anomalous)
	assert.Equal(t, models.PaymentAdvancePaid, applied.PaymentStatus)
}

func TestApplyCallbackDuplicateIsNoop(t *testing.T) {
	f := newFixture(t)

	expectCallbackLocks(f, "ord-1", bookingRow(11, 5, bookingRowOpts{userID: 1, payment: models.PaymentAdvancePaid}), models.PaymentTypeAdvance)
	f.mock.ExpectExec(`UPDATE payments SET status = \$2`).
		WithArgs(int64(3), "SUCCESS", "gw-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectCommit()

	booking, err := f.services.Payments.ApplyCallback(context.Background(), models.PaymentCallbackEvent{
		OrderID: "ord-1", GatewayPaymentID: "gw-1", Result: models.PaymentSuccess,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentAdvancePaid, booking.PaymentStatus)
	assert.Empty(t, f.publisher.subjects)
}

func TestApplyCallbackFailureLeavesBooking(t *testing.T) {
	f := newFixture(t)

	expectCallbackLocks(f, "ord-2", bookingRow(11, 5, bookingRowOpts{userID: 1}), models.PaymentTypeFull)
	f.mock.ExpectExec(`UPDATE payments SET status = \$2`).
		WithArgs(int64(3), "FAILED", "gw-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	booking, err := f.services.Payments.ApplyCallback(context.Background(), models.PaymentCallbackEvent{
		OrderID: "ord-2", GatewayPaymentID: "gw-2", Result: models.PaymentFailed,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentNone, booking.PaymentStatus)
}

func TestApplyCallbackUnknownOrder(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`FROM payments WHERE order_id = \$1$`).
		WillReturnRows(sqlmock.NewRows(paymentCols))
	f.mock.ExpectRollback()

	_, err := f.services.Payments.ApplyCallback(context.Background(), models.PaymentCallbackEvent{
		OrderID: "missing", Result: models.PaymentSuccess,
	})
	assert.True(t, apperrors.IsNotFound(err))
	assert.False(t, Retryable(err))
}

func TestRecordOfflineLateAdvanceIsAnomalous(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`FOR UPDATE OF b`).
		WithArgs(int64(11)).
		WillReturnRows(bookingRow(11, 5, bookingRowOpts{userID: 1, payment: models.PaymentFullPaid}))
	f.mock.ExpectQuery(`INSERT INTO payments`).
		WithArgs(int64(11), int64(100000), "ADVANCE", "SUCCESS", "CASH", sqlmock.AnyArg(), "receipt-17").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(8), testNow, testNow))
	f.mock.ExpectCommit()

	booking, err := f.services.Payments.RecordOffline(context.Background(), 11, &models.OfflinePaymentRequest{
		Type: models.PaymentTypeAdvance, Amount: 100000, Method: "CASH", Reference: "receipt-17",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFullPaid, booking.PaymentStatus)

	require.Len(t, f.publisher.events, 1)
	assert.True(t, f.publisher.events[0].(models.PaymentAppliedEvent).Anomalous)
}

func TestRecordOfflineRejectsCancelledBooking(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectBegin()
	f.mock.ExpectQuery(`FOR UPDATE OF b`).
		WillReturnRows(bookingRow(11, 5, bookingRowOpts{userID: 1, status: models.BookingCancelled}))
	f.mock.ExpectRollback()

	_, err := f.services.Payments.RecordOffline(context.Background(), 11, &models.OfflinePaymentRequest{
		Type: models.PaymentTypeFull, Amount: 100, Method: "UPI", Reference: "upi-1",
	})
	assert.True(t, apperrors.IsInvalidState(err))
}

func TestInitiateFullPaymentChargesBalance(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(`FROM bookings b WHERE b.id = \$1$`).
		WithArgs(int64(11)).
		WillReturnRows(bookingRow(11, 5, bookingRowOpts{userID: 1, total: 360000, advance: 100000, payment: models.PaymentAdvancePaid}))
	f.mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM payments`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(100000)))
	f.mock.ExpectQuery(`INSERT INTO payments`).
		WithArgs(int64(11), int64(260000), "FULL", "PENDING", "GATEWAY", sqlmock.AnyArg(), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(4), testNow, testNow))

	resp, err := f.services.Payments.Initiate(context.Background(), user, 11, &models.InitiatePaymentRequest{Type: models.PaymentTypeFull})
	require.NoError(t, err)
	assert.Equal(t, int64(260000), resp.Amount)
	assert.Equal(t, "https://pay.example/p/1", resp.PaymentURL)
	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, []int64{260000}, f.gateway.inits)
}

func TestInitiatePaymentRules(t *testing.T) {
	f := newFixture(t)

	f.mock.ExpectQuery(`FROM bookings b WHERE b.id = \$1$`).
		WillReturnRows(bookingRow(11, 5, bookingRowOpts{userID: 1, advance: 100000, payment: models.PaymentAdvancePaid}))
	_, err := f.services.Payments.Initiate(context.Background(), user, 11, &models.InitiatePaymentRequest{Type: models.PaymentTypeAdvance})
	assert.True(t, apperrors.IsInvalidState(err))

	f.mock.ExpectQuery(`FROM bookings b WHERE b.id = \$1$`).
		WillReturnRows(bookingRow(11, 5, bookingRowOpts{userID: 1}))
	_, err = f.services.Payments.Initiate(context.Background(), user, 11, &models.InitiatePaymentRequest{Type: models.PaymentTypeAdvance})
	assert.True(t, apperrors.IsValidation(err), "trip without an advance option")

	f.mock.ExpectQuery(`FROM bookings b WHERE b.id = \$1$`).
		WillReturnRows(bookingRow(11, 5, bookingRowOpts{userID: 1, advance: 100000}))
	_, err = f.services.Payments.Initiate(context.Background(), other, 11, &models.InitiatePaymentRequest{Type: models.PaymentTypeAdvance})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = f.services.Payments.Initiate(context.Background(), user, 11, &models.InitiatePaymentRequest{Type: "REFUND"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestInitiatePaymentGatewayFailureMarksPaymentFailed(t *testing.T) {
	f := newFixture(t)
	f.gateway.initErr = errors.New("gateway down")

	f.mock.ExpectQuery(`FROM bookings b WHERE b.id = \$1$`).
		WillReturnRows(bookingRow(11, 5, bookingRowOpts{userID: 1, total: 360000, advance: 100000}))
	f.mock.ExpectQuery(`INSERT INTO payments`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(4), testNow, testNow))
	f.mock.ExpectExec(`UPDATE payments SET status = \$2`).
		WithArgs(int64(4), "FAILED", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := f.services.Payments.Initiate(context.Background(), user, 11, &models.InitiatePaymentRequest{Type: models.PaymentTypeAdvance})
	assert.Error(t, err)
}

func notification(status string) *models.PaymentNotificationPayload {
	return &models.PaymentNotificationPayload{
		PaymentID: "gw-1", OrderID: "ord-1", Status: status, Amount: 100000, TeamSlug: "yatra", Token: "t",
	}
}

func TestHandleCallbackRelaysToNATS(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.RelayCallbacks = true })

	require.NoError(t, f.services.Payments.HandleCallback(context.Background(), notification("CONFIRMED")))

	require.Equal(t, []string{models.EventPaymentCallback}, f.publisher.subjects)
	evt := f.publisher.events[0].(models.PaymentCallbackEvent)
	assert.Equal(t, models.PaymentSuccess, evt.Result)
	assert.Equal(t, "gw-1", evt.GatewayPaymentID)
}

func TestHandleCallbackRejectsBadToken(t *testing.T) {
	f := newFixture(t)
	f.gateway.verifyErr = external.ErrInvalidSignature

	err := f.services.Payments.HandleCallback(context.Background(), notification("CONFIRMED"))
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestHandleCallbackIgnoresIntermediateStatus(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.services.Payments.HandleCallback(context.Background(), notification("AUTHORIZED")))
}

func TestSyncAppliesGatewayResult(t *testing.T) {
	f := newFixture(t)
	f.gateway.check = &external.PaymentCheckResponse{
		Success:  true,
		Payments: []external.PaymentDetails{{PaymentID: "gw-5", OrderID: "ord-1", Status: "REJECTED"}},
	}

	f.mock.ExpectQuery(`FROM payments WHERE order_id = \$1$`).
		WillReturnRows(paymentRow(3, 11, 100000, models.PaymentTypeAdvance, models.PaymentPending, "ord-1"))
	expectCallbackLocks(f, "ord-1", bookingRow(11, 5, bookingRowOpts{userID: 1}), models.PaymentTypeAdvance)
	f.mock.ExpectExec(`UPDATE payments SET status = \$2`).
		WithArgs(int64(3), "FAILED", "gw-5").
		WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()
	f.mock.ExpectQuery(`FROM payments WHERE order_id = \$1$`).
		WillReturnRows(paymentRow(3, 11, 100000, models.PaymentTypeAdvance, models.PaymentFailed, "ord-1"))

	payment, err := f.services.Payments.Sync(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, payment.Status)
}
