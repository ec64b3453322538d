package retry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type captureProducer struct {
	topic   string
	key     string
	value   any
	headers map[string]string
	err     error
}

func (p *captureProducer) ProduceJSON(_ context.Context, topic, key string, v any, headers map[string]string) error {
	p.topic, p.key, p.value, p.headers = topic, key, v, headers
	return p.err
}

func TestKafkaDLQPublisher_PublishToDLQ(t *testing.T) {
	producer := &captureProducer{}
	pub := NewKafkaDLQPublisher(producer, &DLQConfig{Source: "notification-dispatcher"})

	msg := &DLQMessage{
		ID:            "n-1",
		OriginalTopic: "tour.notifications",
		OriginalKey:   "user@example.com",
		Payload:       json.RawMessage(`{"kind":"payment_success"}`),
		Headers:       map[string]string{"kind": "payment_success"},
		Error:         "smtp: 421 try later",
		Attempts:      3,
	}

	if err := pub.PublishToDLQ(context.Background(), msg); err != nil {
		t.Fatalf("PublishToDLQ() error = %v", err)
	}

	if producer.topic != "tour.notifications.dlq" {
		t.Errorf("topic = %s, want tour.notifications.dlq", producer.topic)
	}
	if producer.key != "user@example.com" {
		t.Errorf("key = %s, want user@example.com", producer.key)
	}
	if producer.headers["attempts"] != "3" {
		t.Errorf("attempts header = %s, want 3", producer.headers["attempts"])
	}
	if producer.headers["original_kind"] != "payment_success" {
		t.Errorf("original_kind header = %s", producer.headers["original_kind"])
	}
	if msg.Source != "notification-dispatcher" || msg.MovedToDLQAt.IsZero() {
		t.Errorf("message not stamped: source=%s moved=%v", msg.Source, msg.MovedToDLQAt)
	}
}

func TestKafkaDLQPublisher_Errors(t *testing.T) {
	pub := NewKafkaDLQPublisher(&captureProducer{err: errors.New("broker down")}, nil)

	if err := pub.PublishToDLQ(context.Background(), nil); err == nil {
		t.Error("PublishToDLQ(nil) should fail")
	}
	if err := pub.PublishToDLQ(context.Background(), &DLQMessage{OriginalTopic: "t"}); err == nil {
		t.Error("producer error should propagate")
	}
}
