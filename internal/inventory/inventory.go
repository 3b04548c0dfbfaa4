// Package inventory keeps a trip's seat counters and derived status consistent.
//
// Every function takes a trip snapshot and returns the next snapshot or a typed
// error. Nothing here touches storage; callers persist the result atomically.
package inventory

import (
	apperrors "yatra/internal/errors"
	"yatra/internal/models"
)

// CapacityChange is the result of an administrative capacity edit.
type CapacityChange struct {
	Trip      models.Trip
	Requested int
	Booked    int
	// Clamped reports that the requested total was below the booked seats
	// and the booked count was used as the floor instead.
	Clamped bool
}

// Create opens a new trip with every seat available.
func Create(trip models.Trip) (models.Trip, error) {
	if trip.TotalSeats <= 0 {
		return trip, apperrors.NewValidationError("total_seats", "must be greater than zero")
	}
	trip.AvailableSeats = trip.TotalSeats
	trip.Status = models.TripUpcoming
	return trip, nil
}

// EditCapacity recomputes available seats for a new total while keeping the
// booked count intact. Seats already booked are never revoked. Cancelled and
// completed trips are closed for edits.
func EditCapacity(trip models.Trip, newTotal int) (CapacityChange, error) {
	if trip.Status == models.TripCancelled || trip.Status == models.TripCompleted {
		return CapacityChange{Trip: trip}, apperrors.NewInvalidStateError("trip", string(trip.Status), "edit capacity of")
	}
	if newTotal <= 0 {
		return CapacityChange{Trip: trip}, apperrors.NewValidationError("total_seats", "must be greater than zero")
	}

	booked := trip.BookedSeats()
	change := CapacityChange{Requested: newTotal, Booked: booked}

	total := newTotal
	if newTotal < booked {
		total = booked
		change.Clamped = true
	}

	trip.TotalSeats = total
	trip.AvailableSeats = total - booked
	trip.Status = DeriveStatus(trip.Status, trip.AvailableSeats)
	change.Trip = trip
	return change, nil
}

// Reserve takes count seats from the trip.
func Reserve(trip models.Trip, count int) (models.Trip, error) {
	if count <= 0 {
		return trip, apperrors.NewValidationError("passenger_count", "must be greater than zero")
	}
	if !Bookable(trip.Status) {
		return trip, apperrors.NewInvalidStateError("trip", string(trip.Status), "reserve seats on")
	}
	if count > trip.AvailableSeats {
		return trip, apperrors.NewInsufficientSeatsError(trip.ID, count, trip.AvailableSeats)
	}

	trip.AvailableSeats -= count
	trip.Status = DeriveStatus(trip.Status, trip.AvailableSeats)
	return trip, nil
}

// Release returns count seats to the trip, capped at its total.
func Release(trip models.Trip, count int) (models.Trip, error) {
	if count <= 0 {
		return trip, apperrors.NewValidationError("passenger_count", "must be greater than zero")
	}

	trip.AvailableSeats = min(trip.TotalSeats, trip.AvailableSeats+count)
	trip.Status = DeriveStatus(trip.Status, trip.AvailableSeats)
	return trip, nil
}

// DeriveStatus applies the sold-out rule to an open trip. Closed and
// running trips keep their status.
func DeriveStatus(current models.TripStatus, available int) models.TripStatus {
	switch current {
	case models.TripUpcoming, models.TripFull:
		if available == 0 {
			return models.TripFull
		}
		return models.TripUpcoming
	default:
		return current
	}
}

// Bookable reports whether seats may still be reserved on a trip in this status.
func Bookable(status models.TripStatus) bool {
	return status == models.TripUpcoming || status == models.TripFull
}

// Check verifies the seat counter invariants of a snapshot.
func Check(trip models.Trip) error {
	if trip.AvailableSeats < 0 || trip.AvailableSeats > trip.TotalSeats {
		return apperrors.NewValidationError("available_seats", "must be between 0 and total_seats")
	}
	if DeriveStatus(trip.Status, trip.AvailableSeats) != trip.Status {
		return apperrors.NewValidationError("status", "does not match available seats")
	}
	return nil
}
