package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"
)

// alphanumericChars for generating processor-like IDs
const alphanumericChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomAlphanumeric(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumericChars[rand.IntN(len(alphanumericChars))]
	}
	return string(b)
}

// MockProcessor implements Processor for development and tests
type MockProcessor struct {
	config *MockProcessorConfig

	mu         sync.Mutex
	orders     map[string]*Order
	createErr  error
	captureErr error
	captures   int
}

// MockProcessorConfig holds configuration for the mock processor
type MockProcessorConfig struct {
	// SuccessRate is the probability of a successful capture (0.0 to 1.0)
	SuccessRate float64

	// DelayMs is the simulated processing delay in milliseconds
	DelayMs int

	// PayerEmail is reported on every capture
	PayerEmail string
}

// DefaultMockProcessorConfig returns default configuration
func DefaultMockProcessorConfig() *MockProcessorConfig {
	return &MockProcessorConfig{
		SuccessRate: 1,
		PayerEmail:  "sandbox-buyer@example.com",
	}
}

// NewMockProcessor creates a new mock processor
func NewMockProcessor(config *MockProcessorConfig) *MockProcessor {
	if config == nil {
		config = DefaultMockProcessorConfig()
	}
	config.SuccessRate = min(max(config.SuccessRate, 0), 1)

	return &MockProcessor{
		config: config,
		orders: make(map[string]*Order),
	}
}

// Name returns the processor name
func (m *MockProcessor) Name() string {
	return "mock"
}

// FailCreateWith makes every following CreateOrder return err; nil resets
func (m *MockProcessor) FailCreateWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = err
}

// FailCaptureWith makes every following Capture return err; nil resets
func (m *MockProcessor) FailCaptureWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captureErr = err
}

// Captures returns how many captures succeeded
func (m *MockProcessor) Captures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.captures
}

// Orders returns how many orders were created
func (m *MockProcessor) Orders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// CreateOrder creates a mock order with a sandbox approval URL
func (m *MockProcessor) CreateOrder(ctx context.Context, req *OrderRequest) (*Order, error) {
	if req == nil {
		return nil, fmt.Errorf("order request is required")
	}
	if err := m.delay(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}

	id := "MOCK" + randomAlphanumeric(13)
	order := &Order{
		ID:          id,
		ApprovalURL: fmt.Sprintf("https://sandbox.example.com/checkoutnow?token=%s", id),
		Status:      "CREATED",
	}
	m.orders[id] = order
	return order, nil
}

// Capture captures a mock order
func (m *MockProcessor) Capture(ctx context.Context, orderID string) (*CaptureResult, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order ID is required")
	}
	if err := m.delay(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.captureErr != nil {
		return nil, m.captureErr
	}
	if rand.Float64() >= m.config.SuccessRate {
		return nil, ErrDeclined
	}

	if order, ok := m.orders[orderID]; ok {
		order.Status = "COMPLETED"
	}
	m.captures++
	return &CaptureResult{OrderID: orderID, Status: "COMPLETED", PayerEmail: m.config.PayerEmail}, nil
}

type mockWebhook struct {
	Type       string `json:"type"`
	OrderID    string `json:"order_id"`
	PayerEmail string `json:"payer_email"`
}

// ParseWebhook accepts {"type":"captured"|"approved","order_id":...,"payer_email":...}
func (m *MockProcessor) ParseWebhook(_ context.Context, payload []byte, _ http.Header) (*WebhookEvent, error) {
	var hook mockWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return nil, fmt.Errorf("invalid mock webhook: %w", err)
	}
	switch kind := WebhookKind(hook.Type); kind {
	case WebhookCaptured, WebhookApproved:
		return &WebhookEvent{Kind: kind, Type: hook.Type, OrderID: hook.OrderID, PayerEmail: hook.PayerEmail}, nil
	default:
		return &WebhookEvent{Kind: WebhookIgnored, Type: hook.Type}, nil
	}
}

func (m *MockProcessor) delay(ctx context.Context) error {
	if m.config.DelayMs <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(m.config.DelayMs) * time.Millisecond):
		return nil
	}
}
