package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/bentansusanto/travel-api/internal/domain"
)

// Processor errors. The payment service maps them onto domain errors.
var (
	ErrDeclined          = errors.New("payment declined by processor")
	ErrTooManyAttempts   = errors.New("maximum number of payment attempts exceeded")
	ErrUnavailable       = errors.New("payment processor unavailable")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrUnsupportedMethod = errors.New("no processor for payment method")
)

// OrderRequest describes the amount a processor should collect
type OrderRequest struct {
	PaymentID   string
	InvoiceCode string
	AmountUSD   decimal.Decimal
	Description string
	PayerEmail  string
}

// Order is the processor-side order awaiting payer approval
type Order struct {
	ID          string
	ApprovalURL string
	Status      string
}

// CaptureResult is returned after funds were captured
type CaptureResult struct {
	OrderID    string
	Status     string
	PayerEmail string
}

// Processor creates and captures orders on one payment processor
type Processor interface {
	Name() string
	CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error)
	Capture(ctx context.Context, orderID string) (*CaptureResult, error)
}

// WebhookKind classifies a parsed webhook
type WebhookKind string

const (
	// WebhookCaptured means the processor holds the payer's money
	WebhookCaptured WebhookKind = "captured"
	// WebhookApproved means the payer approved the order; funds are not
	// captured yet
	WebhookApproved WebhookKind = "approved"
	// WebhookIgnored covers every event the service does not act on
	WebhookIgnored WebhookKind = "ignored"
)

// WebhookEvent is the processor-neutral view of a webhook delivery
type WebhookEvent struct {
	Kind       WebhookKind
	Type       string
	OrderID    string
	PayerEmail string
}

// WebhookParser is implemented by processors that push events
type WebhookParser interface {
	ParseWebhook(ctx context.Context, payload []byte, headers http.Header) (*WebhookEvent, error)
}

// Registry resolves the processor for a payment method
type Registry struct {
	processors map[domain.PaymentMethod]Processor
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{processors: make(map[domain.PaymentMethod]Processor)}
}

// Register binds method to p, replacing any earlier binding
func (r *Registry) Register(method domain.PaymentMethod, p Processor) *Registry {
	r.processors[method] = p
	return r
}

// Resolve returns the processor for method
func (r *Registry) Resolve(method domain.PaymentMethod) (Processor, error) {
	p, ok := r.processors[method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
	return p, nil
}

// WebhookParser returns the parser for method, if its processor has one
func (r *Registry) WebhookParser(method domain.PaymentMethod) (WebhookParser, error) {
	p, err := r.Resolve(method)
	if err != nil {
		return nil, err
	}
	parser, ok := p.(WebhookParser)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no webhooks", ErrUnsupportedMethod, method)
	}
	return parser, nil
}

// Methods lists the registered methods
func (r *Registry) Methods() []domain.PaymentMethod {
	methods := make([]domain.PaymentMethod, 0, len(r.processors))
	for m := range r.processors {
		methods = append(methods, m)
	}
	return methods
}
