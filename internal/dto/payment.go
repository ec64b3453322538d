package dto

import (
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest represents request to start a payment
type CreatePaymentRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
	Method    string `json:"payment_method" binding:"required"`
	// Currency of the booking prices; defaults to the service currency
	Currency string `json:"currency,omitempty"`
	// ExchangeRate in units per USD; zero means look it up
	ExchangeRate decimal.Decimal `json:"exchange_rate,omitempty"`
}

// WebhookResponse is returned to payment processors
type WebhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome"`
}
