package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/bentansusanto/travel-api/pkg/retry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingMailer struct {
	mu       sync.Mutex
	sent     []*Message
	failures int // fail this many sends before succeeding
	calls    int
}

func (m *recordingMailer) Send(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return errors.New("421 service not available")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type recordingDLQ struct {
	mu   sync.Mutex
	msgs []*retry.DLQMessage
}

func (d *recordingDLQ) PublishToDLQ(_ context.Context, msg *retry.DLQMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.msgs = append(d.msgs, msg)
	return nil
}

func (d *recordingDLQ) GetDLQTopic(topic string) string { return topic + ".dlq" }

func fastRetry() *retry.Config {
	return &retry.Config{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, Multiplier: 1}
}

func orderFields() Fields {
	return Fields{
		CustomerName:  "Ana",
		OrderCode:     "INV-0042",
		Items:         []Item{{Name: "Uluwatu Temple", VisitDate: "2025-03-10"}},
		TotalAmount:   "1,600,000",
		AmountUSD:     "100.00",
		Currency:      "IDR",
		ExchangeRate:  "16000",
		PaymentMethod: "paypal",
		ShowUSD:       true,
	}
}

func TestDispatcher_SendOrder_CustomerThenAdmin(t *testing.T) {
	mailer := &recordingMailer{}
	d := NewDispatcher(mailer, &DispatcherConfig{
		OwnerEmail:  "owner@example.com",
		AdminEmails: []string{"ops@example.com", "owner@example.com", ""},
		Retry:       fastRetry(),
	}, nil, nil)

	require.NoError(t, d.SendOrder(context.Background(), KindBookingConfirmation, "ana@example.com", orderFields()))

	require.Len(t, mailer.sent, 2)
	customer, admin := mailer.sent[0], mailer.sent[1]

	assert.Equal(t, []string{"ana@example.com"}, customer.To)
	assert.Equal(t, "Your booking confirmation - INV-0042", customer.Subject)
	assert.Contains(t, customer.HTML, "INV-0042")
	assert.Contains(t, customer.HTML, "USD 100.00")
	assert.Contains(t, customer.HTML, "Uluwatu Temple")

	assert.Equal(t, []string{"owner@example.com"}, admin.To)
	assert.Equal(t, []string{"ops@example.com"}, admin.Cc)
	assert.Equal(t, "New booking received - INV-0042", admin.Subject)
	assert.Contains(t, admin.HTML, "ana@example.com")
}

func TestDispatcher_Send_RetriesTransientFailures(t *testing.T) {
	mailer := &recordingMailer{failures: 2}
	dlq := &recordingDLQ{}
	d := NewDispatcher(mailer, &DispatcherConfig{Retry: fastRetry()}, dlq, nil)

	err := d.Send(context.Background(), KindVerifyAccount, "ana@example.com", Fields{
		Subject: "Verify your account",
		Link:    "https://example.com/verify?token=abc",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, mailer.calls)
	assert.Empty(t, dlq.msgs)
	assert.Contains(t, mailer.sent[0].HTML, "https://example.com/verify?token=abc")
}

func TestDispatcher_Send_ExhaustedGoesToDLQ(t *testing.T) {
	mailer := &recordingMailer{failures: 10}
	dlq := &recordingDLQ{}
	d := NewDispatcher(mailer, &DispatcherConfig{Retry: fastRetry(), Topic: "tour.notifications"}, dlq, nil)

	err := d.Send(context.Background(), KindPaymentSuccess, "ana@example.com", orderFields())
	require.Error(t, err)
	assert.Equal(t, 3, mailer.calls)

	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "tour.notifications", dlq.msgs[0].OriginalTopic)
	assert.Equal(t, 3, dlq.msgs[0].Attempts)
	assert.Contains(t, dlq.msgs[0].Error, "421")
}

func TestDispatcher_Send_Validation(t *testing.T) {
	d := NewDispatcher(&recordingMailer{}, nil, nil, nil)
	ctx := context.Background()

	assert.ErrorIs(t, d.Send(ctx, KindVerifyAccount, "", Fields{}), ErrNoRecipient)
	assert.ErrorIs(t, d.Send(ctx, Kind("newsletter"), "a@example.com", Fields{}), ErrUnknownKind)
	assert.ErrorIs(t, d.SendOrder(ctx, KindResetPassword, "a@example.com", Fields{}), ErrUnknownKind)
}

func TestRender_EscapesFields(t *testing.T) {
	html, err := render(KindBookingConfirmation, Fields{CustomerName: "<script>x</script>", Currency: "IDR"}, false)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}
