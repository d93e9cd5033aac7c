package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

// Category classifies a destructive termination.
type Category string

// Audit categories
const (
	CategoryTimeout       Category = "TIMEOUT"
	CategoryInvalidFormat Category = "INVALID_FORMAT"
)

// EventBridge envelope values the audit bus rules match on.
const (
	Source     = "app.invoice"
	DetailType = "invoice"
)

// Event is an immutable fact about a transaction that ended destructively.
// Status is what the bus rules filter on: TIMEOUT, or the rejection reason
// for invalid files.
type Event struct {
	Category      Category          `json:"category"`
	TransactionID string            `json:"transactionId"`
	Status        string            `json:"status"`
	Info          map[string]string `json:"info,omitempty"`
	OccurredAt    time.Time         `json:"occurredAt"`
}

// NewTimeout builds the event emitted when a transaction expires unfinished.
func NewTimeout(transactionID string, info map[string]string, at time.Time) Event {
	return Event{
		Category:      CategoryTimeout,
		TransactionID: transactionID,
		Status:        string(CategoryTimeout),
		Info:          info,
		OccurredAt:    at.UTC(),
	}
}

// NewInvalidFormat builds the event emitted when an uploaded file is rejected.
func NewInvalidFormat(transactionID, reason string, info map[string]string, at time.Time) Event {
	return Event{
		Category:      CategoryInvalidFormat,
		TransactionID: transactionID,
		Status:        reason,
		Info:          info,
		OccurredAt:    at.UTC(),
	}
}

// Decode parses an event from its JSON form and checks the required fields.
func Decode(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("decode audit event: %w", err)
	}
	switch ev.Category {
	case CategoryTimeout, CategoryInvalidFormat:
	default:
		return Event{}, fmt.Errorf("unknown audit category %q", ev.Category)
	}
	if ev.TransactionID == "" {
		return Event{}, fmt.Errorf("audit event without transaction id")
	}
	return ev, nil
}

// DecodeMessage parses a queued audit event. Bus rules deliver the event
// inside an EventBridge envelope; QueueSink sends it bare.
func DecodeMessage(body string) (Event, error) {
	var envelope events.CloudWatchEvent
	if err := json.Unmarshal([]byte(body), &envelope); err == nil && envelope.Source == Source && len(envelope.Detail) > 0 {
		return Decode(envelope.Detail)
	}
	return Decode([]byte(body))
}
