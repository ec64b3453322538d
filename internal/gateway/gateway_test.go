package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/bentansusanto/travel-api/internal/domain"
)

func TestRegistry_Resolve(t *testing.T) {
	mock := NewMockProcessor(nil)
	reg := NewRegistry().Register(domain.PaymentMethodPayPal, mock)

	p, err := reg.Resolve(domain.PaymentMethodPayPal)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())

	_, err = reg.Resolve(domain.PaymentMethodCash)
	assert.ErrorIs(t, err, ErrUnsupportedMethod)

	parser, err := reg.WebhookParser(domain.PaymentMethodPayPal)
	require.NoError(t, err)
	assert.NotNil(t, parser)

	assert.ElementsMatch(t, []domain.PaymentMethod{domain.PaymentMethodPayPal}, reg.Methods())
}

func TestParsePayPalWebhook(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantKind  WebhookKind
		wantOrder string
		wantEmail string
	}{
		{
			name:      "capture completed uses related order id",
			payload:   `{"event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-1","supplementary_data":{"related_ids":{"order_id":"ORD-1"}},"payer":{"email_address":"a@example.com"}}}`,
			wantKind:  WebhookCaptured,
			wantOrder: "ORD-1",
			wantEmail: "a@example.com",
		},
		{
			name:      "capture completed falls back to resource id",
			payload:   `{"event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"CAP-2","payer":{"payer_info":{"email":"b@example.com"}}}}`,
			wantKind:  WebhookCaptured,
			wantOrder: "CAP-2",
			wantEmail: "b@example.com",
		},
		{
			name:      "order approved is not a capture",
			payload:   `{"event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"ORD-3","payer":{"email_address":"c@example.com"}}}`,
			wantKind:  WebhookApproved,
			wantOrder: "ORD-3",
		},
		{
			name:      "order completed",
			payload:   `{"event_type":"CHECKOUT.ORDER.COMPLETED","resource":{"id":"ORD-4","payer":{"email_address":"d@example.com"}}}`,
			wantKind:  WebhookCaptured,
			wantOrder: "ORD-4",
			wantEmail: "d@example.com",
		},
		{
			name:     "unknown type ignored",
			payload:  `{"event_type":"BILLING.PLAN.CREATED","resource":{"id":"X"}}`,
			wantKind: WebhookIgnored,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := parsePayPalWebhook([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, event.Kind)
			assert.Equal(t, tt.wantOrder, event.OrderID)
			assert.Equal(t, tt.wantEmail, event.PayerEmail)
		})
	}

	_, err := parsePayPalWebhook([]byte("{"))
	assert.Error(t, err)
}

// paypalStub serves the token, create-order and capture endpoints
func paypalStub(t *testing.T, captureStatus int, captureBody string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v1/oauth2/token":
			_, _ = w.Write([]byte(`{"access_token":"token","token_type":"Bearer","expires_in":32400}`))
		case r.URL.Path == "/v2/checkout/orders" && r.Method == http.MethodPost:
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			units := body["purchase_units"].([]any)
			amount := units[0].(map[string]any)["amount"].(map[string]any)
			assert.Equal(t, "USD", amount["currency_code"])
			assert.Equal(t, "100.00", amount["value"])
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"ORD-1","status":"CREATED","links":[{"href":"https://paypal.test/self","rel":"self"},{"href":"https://paypal.test/approve","rel":"approve"}]}`))
		case strings.HasSuffix(r.URL.Path, "/capture"):
			w.WriteHeader(captureStatus)
			_, _ = w.Write([]byte(captureBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestPayPal(t *testing.T, srv *httptest.Server) *PayPalProcessor {
	t.Helper()
	p, err := NewPayPalProcessor(&PayPalConfig{
		ClientID:     "id",
		ClientSecret: "secret",
		APIBase:      srv.URL,
		Timeout:      5 * time.Second,
	})
	require.NoError(t, err)
	return p
}

func TestPayPalProcessor_CreateOrderAndCapture(t *testing.T) {
	srv := paypalStub(t, http.StatusCreated, `{"id":"ORD-1","status":"COMPLETED","payer":{"email_address":"buyer@example.com"}}`)
	defer srv.Close()
	p := newTestPayPal(t, srv)

	order, err := p.CreateOrder(context.Background(), &OrderRequest{
		PaymentID:   "pay-1",
		AmountUSD:   decimal.NewFromInt(100),
		Description: "Order ID: pay-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", order.ID)
	assert.Equal(t, "https://paypal.test/approve", order.ApprovalURL)

	res, err := p.Capture(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", res.Status)
	assert.Equal(t, "buyer@example.com", res.PayerEmail)
}

func TestPayPalProcessor_CaptureErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "too many attempts",
			status:  http.StatusUnprocessableEntity,
			body:    `{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"MAX_NUMBER_OF_PAYMENT_ATTEMPTS_EXCEEDED"}]}`,
			wantErr: ErrTooManyAttempts,
		},
		{
			name:    "instrument declined",
			status:  http.StatusUnprocessableEntity,
			body:    `{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"INSTRUMENT_DECLINED"}]}`,
			wantErr: ErrDeclined,
		},
		{
			name:    "declined status",
			status:  http.StatusCreated,
			body:    `{"id":"ORD-1","status":"DECLINED"}`,
			wantErr: ErrDeclined,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"name":"INTERNAL_SERVER_ERROR"}`,
			wantErr: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := paypalStub(t, tt.status, tt.body)
			defer srv.Close()

			_, err := newTestPayPal(t, srv).Capture(context.Background(), "ORD-1")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStripeProcessor_ParseWebhook(t *testing.T) {
	p, err := NewStripeProcessor(&StripeConfig{SecretKey: "sk_test_x", WebhookSecret: "whsec_test"})
	require.NoError(t, err)

	sign := func(payload string, secret string) http.Header {
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload:   []byte(payload),
			Secret:    secret,
			Timestamp: time.Now(),
		})
		h := http.Header{}
		h.Set("Stripe-Signature", signed.Header)
		return h
	}

	paid := `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_test_1","object":"checkout.session","payment_status":"paid","customer_details":{"email":"buyer@example.com"}}}}`
	event, err := p.ParseWebhook(context.Background(), []byte(paid), sign(paid, "whsec_test"))
	require.NoError(t, err)
	assert.Equal(t, WebhookCaptured, event.Kind)
	assert.Equal(t, "cs_test_1", event.OrderID)
	assert.Equal(t, "buyer@example.com", event.PayerEmail)

	other := `{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`
	event, err = p.ParseWebhook(context.Background(), []byte(other), sign(other, "whsec_test"))
	require.NoError(t, err)
	assert.Equal(t, WebhookIgnored, event.Kind)

	_, err = p.ParseWebhook(context.Background(), []byte(paid), sign(paid, "whsec_wrong"))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestMockProcessor(t *testing.T) {
	m := NewMockProcessor(nil)
	ctx := context.Background()

	order, err := m.CreateOrder(ctx, &OrderRequest{PaymentID: "p1", AmountUSD: decimal.NewFromInt(1)})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ApprovalURL)

	res, err := m.Capture(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, res.OrderID)
	assert.Equal(t, 1, m.Captures())

	m.FailCaptureWith(ErrDeclined)
	_, err = m.Capture(ctx, order.ID)
	assert.ErrorIs(t, err, ErrDeclined)

	event, err := m.ParseWebhook(ctx, []byte(`{"type":"captured","order_id":"X"}`), nil)
	require.NoError(t, err)
	assert.Equal(t, WebhookCaptured, event.Kind)

	event, err = m.ParseWebhook(ctx, []byte(`{"type":"approved","order_id":"X"}`), nil)
	require.NoError(t, err)
	assert.Equal(t, WebhookApproved, event.Kind)
	assert.Equal(t, 1, m.Orders())
}
