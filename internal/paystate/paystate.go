// Package paystate computes a booking's payment status from recorded payments.
package paystate

import (
	apperrors "yatra/internal/errors"
	"yatra/internal/models"
)

type Outcome string

const (
	Changed   Outcome = "changed"
	Unchanged Outcome = "unchanged"
	// Anomalous marks a successful advance arriving after the booking was fully paid.
	Anomalous Outcome = "anomalous"
)

// Transition is the verdict of applying one payment result.
type Transition struct {
	From    models.PaymentStatus
	To      models.PaymentStatus
	Outcome Outcome
}

// successTransitions maps a successful payment type and the current status
// to the next status. FULL_PAID is terminal.
var successTransitions = map[models.PaymentType]map[models.PaymentStatus]models.PaymentStatus{
	models.PaymentTypeAdvance: {
		models.PaymentNone:        models.PaymentAdvancePaid,
		models.PaymentAdvancePaid: models.PaymentAdvancePaid,
		models.PaymentFullPaid:    models.PaymentFullPaid,
	},
	models.PaymentTypeFull: {
		models.PaymentNone:        models.PaymentFullPaid,
		models.PaymentAdvancePaid: models.PaymentFullPaid,
		models.PaymentFullPaid:    models.PaymentFullPaid,
	},
}

// Apply returns the booking payment status after a payment of the given type
// reached the given result. Only SUCCESS moves the status.
func Apply(current models.PaymentStatus, paymentType models.PaymentType, result models.PaymentResult) (Transition, error) {
	table, ok := successTransitions[paymentType]
	if !ok {
		return Transition{}, apperrors.NewValidationError("type", "unknown payment type "+string(paymentType))
	}
	next, ok := table[current]
	if !ok {
		return Transition{}, apperrors.NewValidationError("payment_status", "unknown payment status "+string(current))
	}

	tr := Transition{From: current, To: current, Outcome: Unchanged}
	switch result {
	case models.PaymentSuccess:
	case models.PaymentPending, models.PaymentFailed:
		return tr, nil
	default:
		return Transition{}, apperrors.NewValidationError("status", "unknown payment result "+string(result))
	}

	tr.To = next
	switch {
	case next != current:
		tr.Outcome = Changed
	case current == models.PaymentFullPaid && paymentType == models.PaymentTypeAdvance:
		tr.Outcome = Anomalous
	}
	return tr, nil
}
