package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/imrishuroy/go-invoice-importflow/internal/aws"
)

// EventBridgeSink puts audit events on an EventBridge bus.
type EventBridgeSink struct {
	client  aws.EventBridgeAPI
	busName string
}

// NewEventBridgeSink returns a sink bound to busName.
func NewEventBridgeSink(client aws.EventBridgeAPI, busName string) *EventBridgeSink {
	return &EventBridgeSink{client: client, busName: busName}
}

// Emit puts ev on the bus. A partially failed PutEvents is reported as an error.
func (s *EventBridgeSink) Emit(ctx context.Context, ev Event) error {
	detail, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	out, err := s.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{{
			EventBusName: &s.busName,
			Source:       awsString(Source),
			DetailType:   awsString(DetailType),
			Detail:       awsString(string(detail)),
			Time:         &ev.OccurredAt,
		}},
	})
	if err != nil {
		return fmt.Errorf("put events: %w", err)
	}
	if out.FailedEntryCount > 0 {
		code, msg := "", ""
		if len(out.Entries) > 0 {
			if out.Entries[0].ErrorCode != nil {
				code = *out.Entries[0].ErrorCode
			}
			if out.Entries[0].ErrorMessage != nil {
				msg = *out.Entries[0].ErrorMessage
			}
		}
		return fmt.Errorf("put events rejected entry: %s %s", code, msg)
	}
	return nil
}

func awsString(s string) *string { return &s }
