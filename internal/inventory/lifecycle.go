package inventory

import (
	apperrors "yatra/internal/errors"
	"yatra/internal/models"
)

// allowedTransitions lists the lifecycle moves an operator or the scheduler
// may make. UPCOMING and FULL are never targets: they follow from seat counts.
var allowedTransitions = map[models.TripStatus][]models.TripStatus{
	models.TripUpcoming:  {models.TripOngoing, models.TripCancelled},
	models.TripFull:      {models.TripOngoing, models.TripCancelled},
	models.TripOngoing:   {models.TripCompleted},
	models.TripCompleted: {},
	models.TripCancelled: {},
}

// CanTransition reports whether a trip may move from one lifecycle status to another.
func CanTransition(from, to models.TripStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Transition moves a trip to a new lifecycle status without touching seats.
func Transition(trip models.Trip, to models.TripStatus) (models.Trip, error) {
	if trip.Status == to {
		return trip, nil
	}
	if !CanTransition(trip.Status, to) {
		return trip, apperrors.NewInvalidStateError("trip", string(trip.Status), "move to "+string(to))
	}
	trip.Status = to
	return trip, nil
}
