package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

const (
	stripeSignatureHeader  = "Stripe-Signature"
	eventCheckoutCompleted = "checkout.session.completed"
)

// StripeConfig holds configuration for the Stripe processor
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

// StripeProcessor implements Processor with Stripe Checkout Sessions.
// The order id is the checkout session id.
type StripeProcessor struct {
	config *StripeConfig
}

// NewStripeProcessor creates a Stripe processor
func NewStripeProcessor(config *StripeConfig) (*StripeProcessor, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	// Set Stripe API key globally
	stripe.Key = config.SecretKey

	return &StripeProcessor{config: config}, nil
}

// Name returns the processor name
func (p *StripeProcessor) Name() string {
	return "stripe"
}

// CreateOrder opens a hosted checkout session for the USD amount
func (p *StripeProcessor) CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	if req == nil {
		return nil, fmt.Errorf("order request is required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(p.config.SuccessURL),
		CancelURL:         stripe.String(p.config.CancelURL),
		ClientReferenceID: stripe.String(req.PaymentID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(req.AmountUSD.Shift(2).Round(0).IntPart()),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.Description),
				},
			},
		}},
	}
	params.Context = ctx
	params.AddMetadata("payment_id", req.PaymentID)
	params.AddMetadata("invoice_code", req.InvoiceCode)
	if req.PayerEmail != "" {
		params.CustomerEmail = stripe.String(req.PayerEmail)
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: create checkout session: %v", ErrUnavailable, err)
	}

	return &Order{ID: sess.ID, ApprovalURL: sess.URL, Status: string(sess.Status)}, nil
}

// Capture checks whether the checkout session has been paid. Stripe
// captures checkout payments itself.
func (p *StripeProcessor) Capture(ctx context.Context, orderID string) (*CaptureResult, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order ID is required")
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := session.Get(orderID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: get checkout session: %v", ErrUnavailable, err)
	}

	switch {
	case sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		return &CaptureResult{OrderID: sess.ID, Status: string(sess.PaymentStatus), PayerEmail: customerEmail(sess)}, nil
	case sess.Status == stripe.CheckoutSessionStatusExpired:
		return nil, ErrDeclined
	default:
		return nil, fmt.Errorf("%w: session %s is %s", ErrUnavailable, sess.ID, sess.PaymentStatus)
	}
}

// ParseWebhook verifies the Stripe signature and decodes the event
func (p *StripeProcessor) ParseWebhook(_ context.Context, payload []byte, headers http.Header) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, headers.Get(stripeSignatureHeader), p.config.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{Kind: WebhookIgnored, Type: string(event.Type)}
	if string(event.Type) != eventCheckoutCompleted {
		return out, nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("invalid checkout session payload: %w", err)
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return out, nil
	}

	out.Kind = WebhookCaptured
	out.OrderID = sess.ID
	out.PayerEmail = customerEmail(&sess)
	return out, nil
}

func customerEmail(sess *stripe.CheckoutSession) string {
	if sess.CustomerDetails != nil {
		return sess.CustomerDetails.Email
	}
	return ""
}
