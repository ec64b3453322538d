package domain

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of a payment (matches DB ENUM)
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// PaymentMethod represents the method of payment (matches DB ENUM)
type PaymentMethod string

const (
	PaymentMethodPayPal     PaymentMethod = "paypal"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodCash       PaymentMethod = "cash"
)

// IsValid reports whether m is a known method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodPayPal, PaymentMethodCreditCard, PaymentMethodCash:
		return true
	}
	return false
}

// InvoicePrefix starts every invoice code
const InvoicePrefix = "INV-"

// Payment is one attempt to collect funds for a booking
type Payment struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	BookingID     string          `json:"booking_id"`
	InvoiceCode   string          `json:"invoice_code"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	ExchangeRate  decimal.Decimal `json:"exchange_rate"`
	AmountUSD     decimal.Decimal `json:"amount_usd"`
	Method        PaymentMethod   `json:"method"`
	Status        PaymentStatus   `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
	PayerEmail    string          `json:"payer_email,omitempty"`
	RedirectURL   string          `json:"redirect_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewPayment creates a pending payment. amount is in currency; rate is
// units of currency per USD.
func NewPayment(userID, bookingID string, method PaymentMethod, amount decimal.Decimal, currency string, rate decimal.Decimal, now time.Time) *Payment {
	return &Payment{
		ID:           uuid.New().String(),
		UserID:       userID,
		BookingID:    bookingID,
		Amount:       amount,
		Currency:     strings.ToUpper(currency),
		ExchangeRate: rate,
		AmountUSD:    ToUSD(amount, rate),
		Method:       method,
		Status:       PaymentStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ToUSD converts amount at rate units per USD, rounded to cents
func ToUSD(amount, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return decimal.Zero
	}
	return amount.DivRound(rate, 2)
}

// NewInvoiceCode draws a random INV-dddd code
func NewInvoiceCode() string {
	return fmt.Sprintf("%s%04d", InvoicePrefix, rand.IntN(10000))
}

// CanTransitionTo reports whether the payment may move to target.
// cancelled -> success is only valid when the processor reports captured
// funds through a webhook.
func (p *Payment) CanTransitionTo(target PaymentStatus, viaWebhook bool) bool {
	switch p.Status {
	case PaymentStatusPending:
		return target == PaymentStatusSuccess || target == PaymentStatusFailed || target == PaymentStatusCancelled
	case PaymentStatusCancelled:
		return viaWebhook && target == PaymentStatusSuccess
	default:
		return false
	}
}

// TransitionTo applies the status change
func (p *Payment) TransitionTo(target PaymentStatus, viaWebhook bool, now time.Time) error {
	if !p.CanTransitionTo(target, viaWebhook) {
		return ErrInvalidPaymentTransition
	}
	p.Status = target
	p.UpdatedAt = now
	return nil
}

// IsOwnedBy checks if the payment belongs to userID
func (p *Payment) IsOwnedBy(userID string) bool {
	return p.UserID == userID
}
