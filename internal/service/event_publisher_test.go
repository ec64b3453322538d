package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bentansusanto/travel-api/internal/domain"
)

type producedRecord struct {
	topic   string
	key     string
	value   any
	headers map[string]string
}

type captureProducer struct {
	records []producedRecord
	err     error
}

func (p *captureProducer) ProduceJSON(_ context.Context, topic, key string, v any, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.records = append(p.records, producedRecord{topic: topic, key: key, value: v, headers: headers})
	return nil
}

func TestKafkaEventPublisher_RoutesByAggregate(t *testing.T) {
	producer := &captureProducer{}
	publisher, err := NewKafkaEventPublisher(producer, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, publisher.Publish(ctx, domain.NewEvent(domain.EventBookingItemAdded, "booking-1", "user-1", nil)))
	require.NoError(t, publisher.Publish(ctx, domain.NewEvent(domain.EventPaymentSucceeded, "pay-1", "user-1", nil)))
	require.NoError(t, publisher.Publish(ctx, domain.NewEvent(domain.EventSaleRecorded, "pay-1", "", nil)))

	require.Len(t, producer.records, 3)
	assert.Equal(t, "tour.booking-events", producer.records[0].topic)
	assert.Equal(t, "booking-1", producer.records[0].key)
	assert.Equal(t, "tour.payment-events", producer.records[1].topic)
	assert.Equal(t, "tour.payment-events", producer.records[2].topic)

	headers := producer.records[1].headers
	assert.Equal(t, "payment.succeeded", headers["event_type"])
	assert.Equal(t, "travel-api", headers["source"])
	assert.Equal(t, "application/json", headers["content_type"])
	assert.NotEmpty(t, headers["event_id"])
}

func TestKafkaEventPublisher_Errors(t *testing.T) {
	_, err := NewKafkaEventPublisher(nil, nil)
	assert.Error(t, err)

	publisher, err := NewKafkaEventPublisher(&captureProducer{err: errors.New("broker down")}, &EventPublisherConfig{PaymentTopic: "payments"})
	require.NoError(t, err)
	err = publisher.Publish(context.Background(), domain.NewEvent(domain.EventPaymentCreated, "pay-1", "", nil))
	assert.ErrorContains(t, err, "payment.created")
}
