package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/plutov/paypal/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// PayPal issue codes that change how a failed capture is treated
const (
	issueTooManyAttempts    = "MAX_NUMBER_OF_PAYMENT_ATTEMPTS_EXCEEDED"
	issueInstrumentDeclined = "INSTRUMENT_DECLINED"
	statusDeclined          = "DECLINED"
	linkRelApprove          = "approve"
)

// PayPal webhook event types
const (
	eventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	eventOrderApproved    = "CHECKOUT.ORDER.APPROVED"
	eventOrderCompleted   = "CHECKOUT.ORDER.COMPLETED"
)

// PayPalConfig holds configuration for the PayPal processor
type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	APIBase      string
	BrandName    string
	ReturnURL    string
	CancelURL    string
	Timeout      time.Duration
	// WebhookID enables signature verification when set
	WebhookID string
}

// PayPalProcessor implements Processor using PayPal Orders v2
type PayPalProcessor struct {
	client *paypal.Client
	config *PayPalConfig
}

// NewPayPalProcessor creates a PayPal processor. The SDK fetches and
// refreshes the OAuth token on demand.
func NewPayPalProcessor(config *PayPalConfig) (*PayPalProcessor, error) {
	if config == nil {
		return nil, fmt.Errorf("paypal config is required")
	}
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, fmt.Errorf("paypal client id and secret are required")
	}
	if config.APIBase == "" {
		config.APIBase = paypal.APIBaseSandBox
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	client, err := paypal.NewClient(config.ClientID, config.ClientSecret, config.APIBase)
	if err != nil {
		return nil, fmt.Errorf("failed to create paypal client: %w", err)
	}
	client.SetHTTPClient(&http.Client{
		Timeout:   config.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})

	return &PayPalProcessor{client: client, config: config}, nil
}

// Name returns the processor name
func (p *PayPalProcessor) Name() string {
	return "paypal"
}

// CreateOrder creates a CAPTURE intent order and returns its approval link
func (p *PayPalProcessor) CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	if req == nil {
		return nil, fmt.Errorf("order request is required")
	}

	units := []paypal.PurchaseUnitRequest{{
		ReferenceID: req.PaymentID,
		InvoiceID:   req.InvoiceCode,
		Description: req.Description,
		Amount: &paypal.PurchaseUnitAmount{
			Currency: "USD",
			Value:    req.AmountUSD.StringFixed(2),
		},
	}}
	appCtx := &paypal.ApplicationContext{
		BrandName:          p.config.BrandName,
		ShippingPreference: paypal.ShippingPreferenceNoShipping,
		UserAction:         paypal.UserActionPayNow,
		ReturnURL:          p.config.ReturnURL,
		CancelURL:          p.config.CancelURL,
	}

	order, err := p.client.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		return nil, fmt.Errorf("%w: create order: %v", ErrUnavailable, err)
	}

	var approval string
	for _, link := range order.Links {
		if link.Rel == linkRelApprove {
			approval = link.Href
			break
		}
	}
	if approval == "" {
		return nil, fmt.Errorf("%w: order %s has no approval link", ErrUnavailable, order.ID)
	}

	return &Order{ID: order.ID, ApprovalURL: approval, Status: order.Status}, nil
}

// Capture captures an approved order
func (p *PayPalProcessor) Capture(ctx context.Context, orderID string) (*CaptureResult, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order ID is required")
	}

	resp, err := p.client.CaptureOrder(ctx, orderID, paypal.CaptureOrderRequest{})
	if err != nil {
		return nil, classifyPayPalError(err)
	}
	if resp.Status == statusDeclined {
		return nil, ErrDeclined
	}

	result := &CaptureResult{OrderID: resp.ID, Status: resp.Status}
	if resp.Payer != nil {
		result.PayerEmail = resp.Payer.EmailAddress
	}
	return result, nil
}

// classifyPayPalError maps PayPal issue codes onto processor errors
func classifyPayPalError(err error) error {
	var apiErr *paypal.ErrorResponse
	if errors.As(err, &apiErr) {
		for _, d := range apiErr.Details {
			switch d.Issue {
			case issueTooManyAttempts:
				return ErrTooManyAttempts
			case issueInstrumentDeclined:
				return ErrDeclined
			}
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

type paypalWebhook struct {
	EventType string `json:"event_type"`
	Resource  struct {
		ID                string `json:"id"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
		Payer struct {
			EmailAddress string `json:"email_address"`
			PayerInfo    struct {
				Email string `json:"email"`
			} `json:"payer_info"`
		} `json:"payer"`
	} `json:"resource"`
}

// ParseWebhook decodes a PayPal webhook. When a webhook id is configured
// the delivery is verified with PayPal first.
func (p *PayPalProcessor) ParseWebhook(ctx context.Context, payload []byte, headers http.Header) (*WebhookEvent, error) {
	if p.config.WebhookID != "" {
		if err := p.verify(ctx, payload, headers); err != nil {
			return nil, err
		}
	}
	return parsePayPalWebhook(payload)
}

func (p *PayPalProcessor) verify(ctx context.Context, payload []byte, headers http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header = headers.Clone()

	resp, err := p.client.VerifyWebhookSignature(ctx, req, p.config.WebhookID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !strings.EqualFold(resp.VerificationStatus, "SUCCESS") {
		return ErrInvalidSignature
	}
	return nil
}

func parsePayPalWebhook(payload []byte) (*WebhookEvent, error) {
	var hook paypalWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return nil, fmt.Errorf("invalid paypal webhook: %w", err)
	}

	event := &WebhookEvent{Kind: WebhookIgnored, Type: hook.EventType}
	switch hook.EventType {
	case eventCaptureCompleted:
		event.OrderID = hook.Resource.SupplementaryData.RelatedIDs.OrderID
		if event.OrderID == "" {
			event.OrderID = hook.Resource.ID
		}
	case eventOrderCompleted:
		event.OrderID = hook.Resource.ID
	case eventOrderApproved:
		event.Kind = WebhookApproved
		event.OrderID = hook.Resource.ID
		return event, nil
	default:
		return event, nil
	}

	event.Kind = WebhookCaptured
	event.PayerEmail = hook.Resource.Payer.EmailAddress
	if event.PayerEmail == "" {
		event.PayerEmail = hook.Resource.Payer.PayerInfo.Email
	}
	return event, nil
}
