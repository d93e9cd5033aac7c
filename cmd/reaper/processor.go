package main

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-invoice-importflow/internal/transactions"
)

// Reaper is implemented by *importer.Coordinator.
type Reaper interface {
	Reap(ctx context.Context, last transactions.Transaction) (bool, error)
}

// Processor feeds TTL removals from the invoices table stream to the reaper.
type Processor struct {
	reaper Reaper
	logger *slog.Logger
}

// NewProcessor creates a stream processor.
func NewProcessor(r Reaper, logger *slog.Logger) *Processor {
	return &Processor{reaper: r, logger: logger}
}

// Handle walks the batch in stream order. On the first failure it reports
// that record's sequence number, so the stream resumes from it.
func (p *Processor) Handle(ctx context.Context, ev events.DynamoDBEvent) (events.DynamoDBEventResponse, error) {
	var resp events.DynamoDBEventResponse
	for _, rec := range ev.Records {
		if err := p.processRecord(ctx, rec); err != nil {
			p.logger.Error("expiry handling failed",
				"event_id", rec.EventID,
				"sequence_number", rec.Change.SequenceNumber,
				"error", err,
			)
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.DynamoDBBatchItemFailure{
				ItemIdentifier: rec.Change.SequenceNumber,
			})
			return resp, nil
		}
	}
	return resp, nil
}

func (p *Processor) processRecord(ctx context.Context, rec events.DynamoDBEventRecord) error {
	last, ok, err := transactions.ExpiredImage(rec)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	_, err = p.reaper.Reap(ctx, last)
	return err
}
