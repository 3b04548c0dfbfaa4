package ticket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatra/internal/models"
)

func TestRender(t *testing.T) {
	dep := time.Date(2026, 11, 7, 5, 30, 0, 0, time.UTC)
	trip := &models.Trip{ID: 3, Title: "Sabarimala weekend", Origin: "Bengaluru", Destination: "Sabarimala",
		DepartureAt: dep, ReturnAt: dep.Add(40 * time.Hour)}
	b := &models.Booking{ID: 42, TripID: 3, PassengerCount: 2, Seats: []string{"A1", "A2"},
		ContactName: "Ravi", ContactPhone: "+919876543210", TotalAmount: 360000, AdvanceAmount: 100000,
		PaymentStatus: models.PaymentAdvancePaid, BookingStatus: models.BookingConfirmed}

	data, name, err := Render(b, trip)
	require.NoError(t, err)
	assert.Equal(t, "yatra-ticket-42.pdf", name)
	assert.Equal(t, "%PDF", string(data[:4]))

	_, _, err = Render(nil, trip)
	assert.Error(t, err)
}

func TestFormatRupees(t *testing.T) {
	assert.Equal(t, "Rs 0.00", FormatRupees(0))
	assert.Equal(t, "Rs 999.05", FormatRupees(99905))
	assert.Equal(t, "Rs 1,800.50", FormatRupees(180050))
	assert.Equal(t, "Rs 1,234,567.00", FormatRupees(123456700))
	assert.Equal(t, "Rs -5.00", FormatRupees(-500))
}
