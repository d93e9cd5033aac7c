package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-invoice-importflow/internal/audit"
)

// AuditRecorder is implemented by *metrics.Recorder.
type AuditRecorder interface {
	RecordAudit(ctx context.Context, category string) error
}

// Processor consumes the audit queue: every TIMEOUT and INVALID_FORMAT event
// is logged and counted.
type Processor struct {
	metrics AuditRecorder
	logger  *slog.Logger
}

// NewProcessor creates a new audit processor.
func NewProcessor(rec AuditRecorder, logger *slog.Logger) *Processor {
	return &Processor{metrics: rec, logger: logger}
}

// Handle processes an SQS batch. Failed messages are reported individually
// so only they are redelivered (and eventually dead-lettered).
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.Error("audit message failed", "message_id", rec.MessageId, "error", err)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	ev, err := audit.DecodeMessage(rec.Body)
	if err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	p.logger.Warn("import terminated",
		"category", ev.Category,
		"transaction_id", ev.TransactionID,
		"status", ev.Status,
		"connection_id", ev.Info["connectionId"],
		"occurred_at", ev.OccurredAt,
	)

	if err := p.metrics.RecordAudit(ctx, string(ev.Category)); err != nil {
		return fmt.Errorf("record audit metric: %w", err)
	}
	return nil
}
