// Package ticket renders booking e-tickets as PDF.
package ticket

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"yatra/internal/models"
)

const dateLayout = "Mon, 02 Jan 2006 15:04"

// Render builds the e-ticket for a booking and returns the PDF with a file name
func Render(b *models.Booking, trip *models.Trip) ([]byte, string, error) {
	if b == nil || trip == nil {
		return nil, "", fmt.Errorf("booking and trip are required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "YATRA E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, trip.Title)
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Booking no  : %d", b.ID),
		fmt.Sprintf("Status      : %s / %s", b.BookingStatus, b.PaymentStatus),
		fmt.Sprintf("Route       : %s - %s", trip.Origin, trip.Destination),
		"Departure   : " + trip.DepartureAt.Format(dateLayout),
		"Return      : " + trip.ReturnAt.Format(dateLayout),
		fmt.Sprintf("Passengers  : %d", b.PassengerCount),
		"Seats       : " + strings.Join(b.Seats, ", "),
		"Contact     : " + safe(b.ContactName, "-") + " " + b.ContactPhone,
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Total       : "+FormatRupees(b.TotalAmount))
	pdf.Ln(7)
	if b.AdvanceAmount > 0 && b.PaymentStatus != models.PaymentFullPaid {
		pdf.SetFont("Helvetica", "", 12)
		pdf.Cell(0, 7, "Advance     : "+FormatRupees(b.AdvanceAmount))
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Please carry a photo ID and show this ticket while boarding. Reporting time is 30 minutes before departure.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to render ticket: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("yatra-ticket-%d.pdf", b.ID), nil
}

// FormatRupees formats an amount in paise, e.g. 180050 -> "Rs 1,800.50"
func FormatRupees(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	rupees := fmt.Sprintf("%d", paise/100)

	var parts []string
	for len(rupees) > 3 {
		parts = append([]string{rupees[len(rupees)-3:]}, parts...)
		rupees = rupees[:len(rupees)-3]
	}
	parts = append([]string{rupees}, parts...)

	return fmt.Sprintf("Rs %s%s.%02d", sign, strings.Join(parts, ","), paise%100)
}

func safe(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
