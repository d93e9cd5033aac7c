package audit

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher is implemented by aws.Publisher.
type Publisher interface {
	Send(ctx context.Context, messageBody string, attributes map[string]string) error
}

// QueueSink sends audit events straight to an SQS queue.
type QueueSink struct {
	publisher Publisher
}

// NewQueueSink returns a sink that publishes through p.
func NewQueueSink(p Publisher) *QueueSink {
	return &QueueSink{publisher: p}
}

// Emit sends ev as a JSON message with category and transaction_id attributes.
func (s *QueueSink) Emit(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return s.publisher.Send(ctx, string(body), map[string]string{
		"category":       string(ev.Category),
		"transaction_id": ev.TransactionID,
	})
}
