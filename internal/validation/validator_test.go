package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "yatra/internal/errors"
	"yatra/internal/models"
)

func validBooking() *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		TripID:         3,
		PassengerCount: 2,
		Seats:          []string{"a1", " 2 "},
		ContactName:    "Lakshmi",
		ContactPhone:   "98765 43210",
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+919876543210", NormalizePhone("98765-43210"))
	assert.Equal(t, "+919876543210", NormalizePhone("919876543210"))
	assert.Equal(t, "+919876543210", NormalizePhone("+91 98765 43210"))
	assert.Equal(t, "+14155550100", NormalizePhone("+1 (415) 555-0100"))
}

func TestCreateBookingNormalizes(t *testing.T) {
	req := validBooking()
	require.NoError(t, CreateBooking(req))
	assert.Equal(t, []string{"A1", "2"}, req.Seats)
	assert.Equal(t, "+919876543210", req.ContactPhone)
}

func TestCreateBookingRejects(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(r *models.CreateBookingRequest)
		field string
	}{
		{"seat count mismatch", func(r *models.CreateBookingRequest) { r.PassengerCount = 3 }, "seats"},
		{"duplicate seats", func(r *models.CreateBookingRequest) { r.Seats = []string{"a1", "A1"} }, "seats"},
		{"bad seat label", func(r *models.CreateBookingRequest) { r.Seats = []string{"A1", "window"} }, "seats[1]"},
		{"zero passengers", func(r *models.CreateBookingRequest) { r.PassengerCount = 0 }, "passenger_count"},
		{"bad phone", func(r *models.CreateBookingRequest) { r.ContactPhone = "12" }, "contact_phone"},
		{"missing trip", func(r *models.CreateBookingRequest) { r.TripID = 0 }, "trip_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validBooking()
			tt.mut(req)

			err := CreateBooking(req)
			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestStructTripRequest(t *testing.T) {
	dep := time.Date(2026, 11, 6, 21, 0, 0, 0, time.UTC)
	req := models.CreateTripRequest{
		Title:          "Shirdi weekend",
		Origin:         "Pune",
		Destination:    "Shirdi",
		DepartureAt:    dep,
		ReturnAt:       dep.Add(-time.Hour),
		PricePerSeat:   1500,
		AdvancePerSeat: 500,
		TotalSeats:     40,
	}

	var verr *apperrors.ValidationError
	require.ErrorAs(t, Struct(req), &verr)
	assert.Equal(t, "return_at", verr.Field)

	req.ReturnAt = dep.Add(48 * time.Hour)
	assert.NoError(t, Struct(req))

	req.AdvancePerSeat = 2000
	require.ErrorAs(t, Struct(req), &verr)
	assert.Equal(t, "advance_per_seat", verr.Field)
}

func TestListParams(t *testing.T) {
	assert.NoError(t, Struct(models.ListTripsParams{Page: 1, PageSize: 20, Date: "2026-11-07"}))

	var verr *apperrors.ValidationError
	require.ErrorAs(t, Struct(models.ListTripsParams{Page: 1, PageSize: 51}), &verr)
	assert.Equal(t, "pageSize", verr.Field)

	require.ErrorAs(t, Struct(models.ListTripsParams{Page: 1, PageSize: 10, Date: "07.11.2026"}), &verr)
	assert.Equal(t, "date", verr.Field)
}
