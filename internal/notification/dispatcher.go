package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/bentansusanto/travel-api/internal/metrics"
	"github.com/bentansusanto/travel-api/pkg/logger"
	"github.com/bentansusanto/travel-api/pkg/retry"
	"github.com/bentansusanto/travel-api/pkg/telemetry"
)

var (
	ErrUnknownKind = errors.New("unknown notification kind")
	ErrNoRecipient = errors.New("notification has no recipient")
)

// Dispatcher is the outbound email entry point used by the services
type Dispatcher interface {
	// Send renders kind for one recipient
	Send(ctx context.Context, kind Kind, recipient string, fields Fields) error
	// SendOrder sends the customer copy, then the admin copy
	SendOrder(ctx context.Context, kind Kind, customer string, fields Fields) error
}

// DispatcherConfig holds recipients and delivery settings
type DispatcherConfig struct {
	OwnerEmail  string
	AdminEmails []string
	Retry       *retry.Config
	// Topic names the notification stream; exhausted messages go to its DLQ
	Topic string
}

type dispatcher struct {
	mailer  Mailer
	config  *DispatcherConfig
	retrier *retry.Retrier
	dlq     retry.DLQPublisher
	log     *logger.Logger
}

// NewDispatcher creates a dispatcher. dlq may be nil.
func NewDispatcher(mailer Mailer, config *DispatcherConfig, dlq retry.DLQPublisher, log *logger.Logger) Dispatcher {
	if config == nil {
		config = &DispatcherConfig{}
	}
	if config.Topic == "" {
		config.Topic = "tour.notifications"
	}
	if dlq == nil {
		dlq = retry.NoOpDLQPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &dispatcher{
		mailer:  mailer,
		config:  config,
		retrier: retry.New(config.Retry),
		dlq:     dlq,
		log:     log,
	}
}

// Send renders kind for recipient and delivers it
func (d *dispatcher) Send(ctx context.Context, kind Kind, recipient string, fields Fields) error {
	ctx, span := telemetry.StartSpan(ctx, "notification.send")
	defer span.End()

	if recipient == "" {
		return ErrNoRecipient
	}
	html, err := render(kind, fields, false)
	if err != nil {
		return err
	}

	return d.deliver(ctx, &Message{
		Kind:    kind,
		To:      []string{recipient},
		Subject: customerSubject(kind, fields),
		HTML:    html,
	})
}

// SendOrder sends the customer copy, then the admin copy (To owner, Cc admins)
func (d *dispatcher) SendOrder(ctx context.Context, kind Kind, customer string, fields Fields) error {
	ctx, span := telemetry.StartSpan(ctx, "notification.send_order")
	defer span.End()

	if !kind.IsOrder() {
		return fmt.Errorf("%w: %s is not an order email", ErrUnknownKind, kind)
	}
	if fields.CustomerEmail == "" {
		fields.CustomerEmail = customer
	}

	if err := d.Send(ctx, kind, customer, fields); err != nil {
		return fmt.Errorf("customer copy: %w", err)
	}

	to, cc := d.adminRecipients()
	if len(to) == 0 {
		d.log.Debug("No admin recipients configured", zap.String("kind", string(kind)))
		return nil
	}

	html, err := render(kind, fields, true)
	if err != nil {
		return err
	}
	if err := d.deliver(ctx, &Message{
		Kind:    kind,
		To:      to,
		Cc:      cc,
		Subject: adminSubject(kind, fields),
		HTML:    html,
	}); err != nil {
		return fmt.Errorf("admin copy: %w", err)
	}
	return nil
}

// adminRecipients puts the owner in To and the admins in Cc. Without an
// owner the first admin is promoted to To.
func (d *dispatcher) adminRecipients() (to, cc []string) {
	admins := lo.Uniq(lo.Compact(d.config.AdminEmails))
	if d.config.OwnerEmail != "" {
		return []string{d.config.OwnerEmail}, lo.Without(admins, d.config.OwnerEmail)
	}
	if len(admins) == 0 {
		return nil, nil
	}
	return admins[:1], admins[1:]
}

func (d *dispatcher) deliver(ctx context.Context, msg *Message) error {
	result := d.retrier.DoWithCallback(ctx, func(ctx context.Context) error {
		return d.mailer.Send(ctx, msg)
	}, func(attempt int, err error, wait time.Duration) {
		d.log.WarnContext(ctx, "Email delivery failed, retrying",
			zap.String("kind", string(msg.Kind)),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	})

	metrics.RecordNotification(ctx, string(msg.Kind), result.Err)
	if result.Err == nil {
		return nil
	}

	d.log.ErrorContext(ctx, "Email delivery exhausted",
		zap.String("kind", string(msg.Kind)),
		zap.Strings("to", msg.To),
		zap.Int("attempts", result.Attempts),
		zap.Error(result.LastError))
	d.park(ctx, msg, result)

	if result.LastError != nil {
		return fmt.Errorf("send %s: %w", msg.Kind, result.LastError)
	}
	return fmt.Errorf("send %s: %w", msg.Kind, result.Err)
}

// park writes an undeliverable message to the dead-letter topic
func (d *dispatcher) park(ctx context.Context, msg *Message, result *retry.Result) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	reason := result.Err
	if result.LastError != nil {
		reason = result.LastError
	}

	dlqMsg := &retry.DLQMessage{
		ID:            uuid.New().String(),
		OriginalTopic: d.config.Topic,
		OriginalKey:   string(msg.Kind),
		Payload:       payload,
		Headers:       map[string]string{"kind": string(msg.Kind)},
		Error:         reason.Error(),
		Attempts:      result.Attempts,
	}
	if err := d.dlq.PublishToDLQ(context.WithoutCancel(ctx), dlqMsg); err != nil {
		d.log.ErrorContext(ctx, "Failed to park email on DLQ",
			zap.String("topic", d.dlq.GetDLQTopic(d.config.Topic)),
			zap.Error(err))
	}
}
