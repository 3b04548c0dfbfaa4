package inventory

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "yatra/internal/errors"
	"yatra/internal/models"
)

func newTrip(t *testing.T, total int) models.Trip {
	t.Helper()
	trip, err := Create(models.Trip{ID: 1, Title: "Tirupati weekend", TotalSeats: total})
	require.NoError(t, err)
	return trip
}

func TestCreate(t *testing.T) {
	trip := newTrip(t, 40)
	assert.Equal(t, 40, trip.AvailableSeats)
	assert.Equal(t, models.TripUpcoming, trip.Status)

	for _, total := range []int{0, -3} {
		_, err := Create(models.Trip{TotalSeats: total})
		assert.True(t, apperrors.IsValidation(err), "total=%d", total)
	}
}

func TestCapacityScenario(t *testing.T) {
	trip := newTrip(t, 40)

	trip, err := Reserve(trip, 5)
	require.NoError(t, err)
	assert.Equal(t, 35, trip.AvailableSeats)

	change, err := EditCapacity(trip, 30)
	require.NoError(t, err)
	assert.Equal(t, 5, change.Booked)
	assert.Equal(t, 25, change.Trip.AvailableSeats)
	assert.Equal(t, 30, change.Trip.TotalSeats)
	assert.Equal(t, models.TripUpcoming, change.Trip.Status)
	assert.False(t, change.Clamped)

	change, err = EditCapacity(change.Trip, 3)
	require.NoError(t, err)
	assert.True(t, change.Clamped)
	assert.Equal(t, 3, change.Requested)
	assert.Equal(t, 5, change.Booked)
	assert.Equal(t, 0, change.Trip.AvailableSeats)
	assert.Equal(t, models.TripFull, change.Trip.Status)
	// booked seats are kept as the floor so later edits see the same count
	assert.Equal(t, 5, change.Trip.BookedSeats())

	change, err = EditCapacity(change.Trip, 8)
	require.NoError(t, err)
	assert.Equal(t, 3, change.Trip.AvailableSeats)
	assert.Equal(t, models.TripUpcoming, change.Trip.Status)
}

func TestEditCapacityRejectsNonPositive(t *testing.T) {
	trip := newTrip(t, 10)
	_, err := EditCapacity(trip, 0)
	assert.True(t, apperrors.IsValidation(err))
}

func TestEditCapacityRejectsClosedTrips(t *testing.T) {
	for _, status := range []models.TripStatus{models.TripCancelled, models.TripCompleted} {
		trip := models.Trip{ID: 2, TotalSeats: 10, AvailableSeats: 4, Status: status}

		change, err := EditCapacity(trip, 20)
		require.Error(t, err)
		assert.True(t, apperrors.IsInvalidState(err), "status %s", status)
		assert.Equal(t, trip, change.Trip)
	}
}

func TestEditCapacityKeepsOngoingStatus(t *testing.T) {
	trip := models.Trip{ID: 2, TotalSeats: 10, AvailableSeats: 4, Status: models.TripOngoing}

	change, err := EditCapacity(trip, 20)
	require.NoError(t, err)
	assert.Equal(t, models.TripOngoing, change.Trip.Status)
	assert.Equal(t, 14, change.Trip.AvailableSeats)

	change, err = EditCapacity(trip, 6)
	require.NoError(t, err)
	assert.Equal(t, models.TripOngoing, change.Trip.Status, "a departed trip is never marked full")
	assert.Equal(t, 0, change.Trip.AvailableSeats)
}

func TestReserve(t *testing.T) {
	trip := newTrip(t, 3)

	_, err := Reserve(trip, 4)
	var insufficient *apperrors.InsufficientSeatsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 4, insufficient.Requested)
	assert.Equal(t, 3, insufficient.Available)

	trip, err = Reserve(trip, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, trip.AvailableSeats)
	assert.Equal(t, models.TripFull, trip.Status)

	_, err = Reserve(trip, 1)
	assert.True(t, apperrors.IsInsufficientSeats(err))

	_, err = Reserve(newTrip(t, 3), 0)
	assert.True(t, apperrors.IsValidation(err))
}

func TestReserveOnClosedTrip(t *testing.T) {
	for _, status := range []models.TripStatus{models.TripCancelled, models.TripCompleted, models.TripOngoing} {
		trip := models.Trip{ID: 3, TotalSeats: 10, AvailableSeats: 10, Status: status}
		_, err := Reserve(trip, 1)
		assert.True(t, apperrors.IsInvalidState(err), "status=%s", status)
	}
}

func TestRelease(t *testing.T) {
	trip := newTrip(t, 4)
	trip, err := Reserve(trip, 4)
	require.NoError(t, err)
	require.Equal(t, models.TripFull, trip.Status)

	trip, err = Release(trip, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, trip.AvailableSeats)
	assert.Equal(t, models.TripUpcoming, trip.Status)

	trip, err = Release(trip, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, trip.AvailableSeats, "release is capped at total seats")

	cancelled := models.Trip{TotalSeats: 4, AvailableSeats: 0, Status: models.TripCancelled}
	cancelled, err = Release(cancelled, 2)
	require.NoError(t, err)
	assert.Equal(t, models.TripCancelled, cancelled.Status)
	assert.Equal(t, 2, cancelled.AvailableSeats)
}

func TestTransition(t *testing.T) {
	trip := newTrip(t, 4)

	next, err := Transition(trip, models.TripOngoing)
	require.NoError(t, err)
	assert.Equal(t, models.TripOngoing, next.Status)

	next, err = Transition(next, models.TripCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.TripCompleted, next.Status)

	_, err = Transition(next, models.TripCancelled)
	assert.True(t, apperrors.IsInvalidState(err))

	_, err = Transition(trip, models.TripFull)
	assert.True(t, apperrors.IsInvalidState(err))

	same, err := Transition(next, models.TripCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.TripCompleted, same.Status)
}

// Random sequences of operations must never break the counter invariants.
func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(models.TripUpcoming, models.TripOngoing))
	assert.True(t, CanTransition(models.TripFull, models.TripCancelled))
	assert.True(t, CanTransition(models.TripOngoing, models.TripCompleted))
	assert.False(t, CanTransition(models.TripCancelled, models.TripOngoing))
	assert.False(t, CanTransition(models.TripCompleted, models.TripCancelled))
	assert.False(t, CanTransition(models.TripOngoing, models.TripUpcoming))
}

func TestInvariantsUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		trip := newTrip(t, 1+rng.Intn(50))
		for step := 0; step < 100; step++ {
			var next models.Trip
			var err error
			switch rng.Intn(4) {
			case 0:
				next, err = Reserve(trip, 1+rng.Intn(6))
			case 1:
				next, err = Release(trip, 1+rng.Intn(6))
			case 2:
				var change CapacityChange
				change, err = EditCapacity(trip, 1+rng.Intn(60))
				next = change.Trip
			case 3:
				next, err = Transition(trip, []models.TripStatus{models.TripOngoing, models.TripCancelled, models.TripCompleted}[rng.Intn(3)])
			}
			if err != nil {
				continue
			}
			require.NoError(t, Check(next), "run %d step %d: %+v", run, step, next)
			trip = next
		}
	}
}
