package domain

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPayment_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from    PaymentStatus
		to      PaymentStatus
		webhook bool
		want    bool
	}{
		{PaymentStatusPending, PaymentStatusSuccess, false, true},
		{PaymentStatusPending, PaymentStatusFailed, false, true},
		{PaymentStatusPending, PaymentStatusCancelled, false, true},
		{PaymentStatusCancelled, PaymentStatusSuccess, true, true},
		{PaymentStatusCancelled, PaymentStatusSuccess, false, false},
		{PaymentStatusSuccess, PaymentStatusCancelled, false, false},
		{PaymentStatusSuccess, PaymentStatusFailed, true, false},
		{PaymentStatusFailed, PaymentStatusSuccess, true, false},
	}

	for _, tt := range tests {
		p := &Payment{Status: tt.from}
		assert.Equal(t, tt.want, p.CanTransitionTo(tt.to, tt.webhook), "%s -> %s (webhook=%v)", tt.from, tt.to, tt.webhook)
	}
}

func TestNewPayment_ComputesUSD(t *testing.T) {
	p := NewPayment("u1", "b1", PaymentMethodPayPal,
		decimal.NewFromInt(1600000), "idr", decimal.NewFromInt(16000), time.Now())

	assert.Equal(t, "IDR", p.Currency)
	assert.Equal(t, PaymentStatusPending, p.Status)
	assert.Equal(t, "100.00", p.AmountUSD.StringFixed(2))
}

func TestToUSD_RoundsToCents(t *testing.T) {
	got := ToUSD(decimal.NewFromInt(100000), decimal.RequireFromString("16250.5"))
	assert.Equal(t, "6.15", got.StringFixed(2))

	assert.True(t, ToUSD(decimal.NewFromInt(10), decimal.Zero).IsZero())
}

func TestNewInvoiceCode_Format(t *testing.T) {
	pattern := regexp.MustCompile(`^INV-\d{4}$`)
	for range 50 {
		assert.Regexp(t, pattern, NewInvoiceCode())
	}
}

func TestPassportConflictError(t *testing.T) {
	err := error(&PassportConflictError{Passports: []string{"A1", "B2"}})

	assert.True(t, errors.Is(err, ErrPassportAlreadyRegistered))
	assert.True(t, IsConflictError(err))
	assert.Contains(t, err.Error(), "A1, B2")
}

func TestSalesPeriod_Label(t *testing.T) {
	ts := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) // ISO week 1 of 2025

	assert.Equal(t, "2025-01-01", PeriodDaily.Label(ts))
	assert.Equal(t, "2025-01", PeriodWeekly.Label(ts))
	assert.Equal(t, "2025-01", PeriodMonthly.Label(ts))
	assert.Equal(t, "2025", PeriodYearly.Label(ts))

	// 2024-12-30 belongs to ISO week 1 of 2025
	assert.Equal(t, "2025-01", PeriodWeekly.Label(time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)))

	_, err := ParseSalesPeriod("hourly")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "tanah-lot-temple", Slugify("  Tanah Lot   Temple! "))
	assert.Equal(t, "ubud-2025", Slugify("Ubud/2025"))
}
