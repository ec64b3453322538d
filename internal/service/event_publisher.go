package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bentansusanto/travel-api/internal/domain"
	"github.com/bentansusanto/travel-api/pkg/retry"
)

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish writes event to the topic of its aggregate
	Publish(ctx context.Context, event *domain.Event) error

	// Close closes the event publisher
	Close() error
}

// EventPublisherConfig contains configuration for the event publisher
type EventPublisherConfig struct {
	BookingTopic string
	PaymentTopic string
	ServiceName  string
}

// KafkaEventPublisher implements EventPublisher on a shared Kafka producer.
// booking.* events go to BookingTopic, payment.* and sale.* to PaymentTopic.
type KafkaEventPublisher struct {
	producer retry.JSONProducer
	config   EventPublisherConfig
}

// NewKafkaEventPublisher creates a new Kafka event publisher. The producer
// is owned by the caller.
func NewKafkaEventPublisher(producer retry.JSONProducer, cfg *EventPublisherConfig) (*KafkaEventPublisher, error) {
	if producer == nil {
		return nil, fmt.Errorf("kafka producer is required")
	}

	c := EventPublisherConfig{
		BookingTopic: "tour.booking-events",
		PaymentTopic: "tour.payment-events",
		ServiceName:  "travel-api",
	}
	if cfg != nil {
		if cfg.BookingTopic != "" {
			c.BookingTopic = cfg.BookingTopic
		}
		if cfg.PaymentTopic != "" {
			c.PaymentTopic = cfg.PaymentTopic
		}
		if cfg.ServiceName != "" {
			c.ServiceName = cfg.ServiceName
		}
	}

	return &KafkaEventPublisher{producer: producer, config: c}, nil
}

// Publish publishes event keyed by its aggregate id
func (p *KafkaEventPublisher) Publish(ctx context.Context, event *domain.Event) error {
	headers := map[string]string{
		"event_type":   string(event.Type),
		"event_id":     event.ID,
		"source":       p.config.ServiceName,
		"content_type": "application/json",
	}

	topic := p.topicFor(event.Type)
	if err := p.producer.ProduceJSON(ctx, topic, event.Key(), event, headers); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

func (p *KafkaEventPublisher) topicFor(t domain.EventType) string {
	if strings.HasPrefix(string(t), "booking.") {
		return p.config.BookingTopic
	}
	return p.config.PaymentTopic
}

// Close is a no-op; the shared producer is closed by its owner
func (p *KafkaEventPublisher) Close() error {
	return nil
}

// NoOpEventPublisher is a no-op implementation of EventPublisher for testing
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a new no-op event publisher
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

// Publish is a no-op
func (p *NoOpEventPublisher) Publish(ctx context.Context, event *domain.Event) error {
	return nil
}

// Close is a no-op
func (p *NoOpEventPublisher) Close() error {
	return nil
}

// RecordingEventPublisher keeps published events in memory. Used by tests
// and the development profile.
type RecordingEventPublisher struct {
	mu     sync.Mutex
	events []*domain.Event
}

// NewRecordingEventPublisher creates an empty recorder
func NewRecordingEventPublisher() *RecordingEventPublisher {
	return &RecordingEventPublisher{}
}

// Publish records event
func (p *RecordingEventPublisher) Publish(_ context.Context, event *domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns the recorded events of type t, or all when t is empty
func (p *RecordingEventPublisher) Events(t domain.EventType) []*domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*domain.Event
	for _, e := range p.events {
		if t == "" || e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Close is a no-op
func (p *RecordingEventPublisher) Close() error {
	return nil
}
