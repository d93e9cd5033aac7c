package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/go-invoice-importflow/internal/transactions"
)

// Completer is implemented by *importer.Coordinator.
type Completer interface {
	CompleteUpload(ctx context.Context, transactionID string) (transactions.Status, error)
}

// Processor turns S3 "object created" notifications into upload completions.
type Processor struct {
	completer Completer
	bucket    string
	logger    *slog.Logger
}

// NewProcessor creates a processor for objects landing in bucket.
func NewProcessor(c Completer, bucket string, logger *slog.Logger) *Processor {
	return &Processor{completer: c, bucket: bucket, logger: logger}
}

// Handle completes every record of the batch concurrently. Any failure fails
// the invocation so S3 redelivers; completed records are idempotent on retry.
func (p *Processor) Handle(ctx context.Context, ev events.S3Event) error {
	var g errgroup.Group
	errs := make([]error, len(ev.Records))
	for i, rec := range ev.Records {
		i, rec := i, rec
		g.Go(func() error {
			errs[i] = p.processRecord(ctx, rec)
			return errs[i]
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}
	return errors.Join(errs...)
}

func (p *Processor) processRecord(ctx context.Context, rec events.S3EventRecord) error {
	if !strings.HasPrefix(rec.EventName, "ObjectCreated:") {
		p.logger.Debug("ignoring s3 event", "event", rec.EventName)
		return nil
	}
	if p.bucket != "" && rec.S3.Bucket.Name != p.bucket {
		p.logger.Warn("object from unexpected bucket", "bucket", rec.S3.Bucket.Name)
		return nil
	}

	key, err := objectKey(rec.S3.Object)
	if err != nil {
		return err
	}
	status, err := p.completer.CompleteUpload(ctx, key)
	if err != nil {
		return fmt.Errorf("complete upload %s: %w", key, err)
	}
	p.logger.Info("upload handled", "transaction_id", key, "status", status, "size", rec.S3.Object.Size)
	return nil
}

// objectKey is the transaction id: keys arrive URL encoded in notifications.
func objectKey(obj events.S3Object) (string, error) {
	if obj.URLDecodedKey != "" {
		return obj.URLDecodedKey, nil
	}
	key, err := url.QueryUnescape(obj.Key)
	if err != nil {
		return "", fmt.Errorf("decode object key %q: %w", obj.Key, err)
	}
	return key, nil
}
