package receipt

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesPDF(t *testing.T) {
	out, err := Render(Data{
		PaymentID:     7,
		BookingID:     3,
		SessionID:     "cs_test_1",
		Amount:        decimal.NewFromInt(360),
		Currency:      "usd",
		DailyRate:     decimal.NewFromInt(90),
		Nights:        4,
		CheckinDate:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckoutDate:  time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		Accommodation: "APARTMENT, Lisbon",
		IssuedAt:      time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "RECEIPT_42.pdf", Filename(42))
}
