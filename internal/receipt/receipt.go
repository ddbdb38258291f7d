package receipt

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"

	"homerent/internal/models"
)

// Data is everything printed on a payment receipt
type Data struct {
	PaymentID     int64
	BookingID     int64
	SessionID     string
	Amount        decimal.Decimal
	Currency      string
	DailyRate     decimal.Decimal
	Nights        int64
	CheckinDate   time.Time
	CheckoutDate  time.Time
	Accommodation string
	IssuedAt      time.Time
}

// Filename returns the suggested attachment name for the receipt
func Filename(paymentID int64) string {
	return fmt.Sprintf("RECEIPT_%d.pdf", paymentID)
}

// Render builds a single-page A4 receipt
func Render(d Data) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "PAYMENT RECEIPT")
	pdf.Ln(12)

	currency := strings.ToUpper(d.Currency)
	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Receipt No    : RCP-%d", d.PaymentID),
		fmt.Sprintf("Issued        : %s", d.IssuedAt.Format("2006-01-02 15:04")),
		fmt.Sprintf("Booking       : #%d", d.BookingID),
		fmt.Sprintf("Accommodation : %s", safe(d.Accommodation)),
		fmt.Sprintf("Check-in      : %s", d.CheckinDate.Format(models.DateLayout)),
		fmt.Sprintf("Check-out     : %s", d.CheckoutDate.Format(models.DateLayout)),
		fmt.Sprintf("Session       : %s", safe(d.SessionID)),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("%d night(s) x %s %s", d.Nights, d.DailyRate.StringFixed(2), currency))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total paid: %s %s", d.Amount.StringFixed(2), currency))
	pdf.Ln(12)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func safe(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
