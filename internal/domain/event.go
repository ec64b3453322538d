package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a domain event published to Kafka
type EventType string

const (
	EventBookingItemAdded     EventType = "booking.item_added"
	EventBookingStatusChanged EventType = "booking.status_changed"
	EventPaymentCreated       EventType = "payment.created"
	EventPaymentSucceeded     EventType = "payment.succeeded"
	EventPaymentCancelled     EventType = "payment.cancelled"
	EventSaleRecorded         EventType = "sale.recorded"
)

// Event is the envelope written to the event topics
type Event struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	AggregateID string         `json:"aggregate_id"`
	UserID      string         `json:"user_id,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Data        map[string]any `json:"data,omitempty"`
}

// NewEvent builds an event keyed by aggregateID
func NewEvent(eventType EventType, aggregateID, userID string, data map[string]any) *Event {
	return &Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		UserID:      userID,
		OccurredAt:  time.Now().UTC(),
		Data:        data,
	}
}

// Key is the partition key: all events of one aggregate stay ordered
func (e *Event) Key() string {
	return e.AggregateID
}
