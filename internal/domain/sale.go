package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the status of a sale (matches DB ENUM)
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusRefunded  SaleStatus = "refunded"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// Sale is the ledger row written once per successful payment
type Sale struct {
	ID        string          `json:"id"`
	BookingID string          `json:"booking_id"`
	PaymentID string          `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    SaleStatus      `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewSale creates a completed sale
func NewSale(paymentID, bookingID string, amount decimal.Decimal, currency string, now time.Time) *Sale {
	return &Sale{
		ID:        uuid.New().String(),
		BookingID: bookingID,
		PaymentID: paymentID,
		Amount:    amount,
		Currency:  currency,
		Status:    SaleStatusCompleted,
		CreatedAt: now,
	}
}

// SalesPeriod is the bucket size of a sales report
type SalesPeriod string

const (
	PeriodDaily   SalesPeriod = "daily"
	PeriodWeekly  SalesPeriod = "weekly"
	PeriodMonthly SalesPeriod = "monthly"
	PeriodYearly  SalesPeriod = "yearly"
)

// ParseSalesPeriod validates a period name
func ParseSalesPeriod(s string) (SalesPeriod, error) {
	switch p := SalesPeriod(s); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return p, nil
	}
	return "", ErrInvalidPeriod
}

// Label formats t as the bucket label for p: 2006-01-02, ISO 2006-01 (year-week), 2006-01 or 2006
func (p SalesPeriod) Label(t time.Time) string {
	t = t.UTC()
	switch p {
	case PeriodDaily:
		return t.Format(time.DateOnly)
	case PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-%02d", year, week)
	case PeriodMonthly:
		return t.Format("2006-01")
	default:
		return t.Format("2006")
	}
}

// SalesBucket is one row of a period report. Amounts in different
// currencies never share a bucket.
type SalesBucket struct {
	Label       string          `json:"label"`
	Currency    string          `json:"currency"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Orders      int             `json:"orders"`
}

// CurrencyTotal is the completed revenue in one currency
type CurrencyTotal struct {
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Orders   int             `json:"orders"`
}

// SalesSummary holds lifetime totals over completed sales, revenue per
// currency sorted by currency code
type SalesSummary struct {
	Revenue     []CurrencyTotal `json:"revenue"`
	TotalOrders int             `json:"total_orders"`
}

// RevenueIn returns the revenue recorded in currency, zero when none
func (s *SalesSummary) RevenueIn(currency string) decimal.Decimal {
	for _, t := range s.Revenue {
		if t.Currency == currency {
			return t.Amount
		}
	}
	return decimal.Zero
}
