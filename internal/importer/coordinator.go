// Package importer coordinates the invoice import lifecycle.
//
// Every status change goes through a compare-and-swap on the stored status.
// That conditional write is the only serialization point between the
// triggers (upload completion, cancellation, expiry): whoever writes first
// wins and every loser reports the winning status back to the client.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/imrishuroy/go-invoice-importflow/internal/audit"
	"github.com/imrishuroy/go-invoice-importflow/internal/invoices"
	"github.com/imrishuroy/go-invoice-importflow/internal/landing"
	"github.com/imrishuroy/go-invoice-importflow/internal/notify"
	"github.com/imrishuroy/go-invoice-importflow/internal/transactions"
	"github.com/imrishuroy/go-invoice-importflow/internal/validation"
)

// TransactionStore is implemented by *transactions.Store.
type TransactionStore interface {
	Create(ctx context.Context, tx transactions.Transaction) (transactions.Transaction, error)
	Get(ctx context.Context, transactionID string) (*transactions.Transaction, error)
	CompareAndSetStatus(ctx context.Context, transactionID string, expected, next transactions.Status) error
}

// InvoiceStore is implemented by *invoices.Store.
type InvoiceStore interface {
	Create(ctx context.Context, inv invoices.Invoice) error
}

// LandingZone is implemented by *landing.Zone.
type LandingZone interface {
	IssueWriteCredential(ctx context.Context, key string, ttl time.Duration) (landing.Credential, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Channel is implemented by *notify.WebSocketChannel.
type Channel interface {
	Send(ctx context.Context, connectionID string, payload any) error
	Close(ctx context.Context, connectionID string) error
}

// AuditSink is implemented by *audit.EventBridgeSink and *audit.QueueSink.
type AuditSink interface {
	Emit(ctx context.Context, ev audit.Event) error
}

// Metrics is implemented by *metrics.Recorder.
type Metrics interface {
	RecordOutcome(ctx context.Context, status string) error
}

// Dependencies are the collaborators a Coordinator drives. Metrics and
// Logger are optional.
type Dependencies struct {
	Transactions TransactionStore
	Invoices     InvoiceStore
	Zone         LandingZone
	Channel      Channel
	Audit        AuditSink
	Metrics      Metrics
	Validator    *validatorv10.Validate
	Logger       *slog.Logger

	// UploadURLExpiry is how long an issued upload URL stays valid.
	UploadURLExpiry time.Duration
	// Endpoint is recorded on new transactions for tracing.
	Endpoint string
}

// Coordinator owns every status transition of import transactions.
type Coordinator struct {
	store     TransactionStore
	invoices  InvoiceStore
	zone      LandingZone
	channel   Channel
	audit     AuditSink
	metrics   Metrics
	validator *validatorv10.Validate
	logger    *slog.Logger

	uploadURLExpiry time.Duration
	endpoint        string

	nowFunc func() time.Time
	newID   func() string
}

// NewCoordinator wires a Coordinator.
func NewCoordinator(deps Dependencies) *Coordinator {
	c := &Coordinator{
		store:           deps.Transactions,
		invoices:        deps.Invoices,
		zone:            deps.Zone,
		channel:         deps.Channel,
		audit:           deps.Audit,
		metrics:         deps.Metrics,
		validator:       deps.Validator,
		logger:          deps.Logger,
		uploadURLExpiry: deps.UploadURLExpiry,
		endpoint:        deps.Endpoint,
		nowFunc:         time.Now,
		newID:           uuid.NewString,
	}
	if c.metrics == nil {
		c.metrics = nopMetrics{}
	}
	if c.validator == nil {
		c.validator = validation.New()
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.uploadURLExpiry <= 0 {
		c.uploadURLExpiry = 5 * time.Minute
	}
	return c
}

// Lookup reports the current status of a transaction, or NOT_FOUND.
// It never creates or mutates a record.
func (c *Coordinator) Lookup(ctx context.Context, transactionID string) (transactions.Status, error) {
	tx, err := c.store.Get(ctx, transactionID)
	if errors.Is(err, transactions.ErrNotFound) {
		return transactions.StatusNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("get transaction: %w", err)
	}
	return tx.Status, nil
}

// transition attempts expected -> next. When another trigger already moved
// the record, won is false and current is the status that trigger left behind
// (NOT_FOUND if the record is gone). The write is never retried.
func (c *Coordinator) transition(ctx context.Context, transactionID string, expected, next transactions.Status) (won bool, current transactions.Status, err error) {
	err = c.store.CompareAndSetStatus(ctx, transactionID, expected, next)
	if err == nil {
		return true, next, nil
	}
	if !errors.Is(err, transactions.ErrStatusMismatch) {
		return false, "", fmt.Errorf("transition %s -> %s: %w", expected, next, err)
	}

	current, err = c.Lookup(ctx, transactionID)
	if err != nil {
		return false, "", err
	}
	c.logger.Info("transition lost",
		"transaction_id", transactionID,
		"attempted", next,
		"status", current,
	)
	return false, current, nil
}

func (c *Coordinator) send(ctx context.Context, connectionID, transactionID string, status transactions.Status) error {
	return c.channel.Send(ctx, connectionID, notify.StatusMessage{
		TransactionID: transactionID,
		Status:        string(status),
	})
}

// notify sends status and only logs failures: a client that cannot be
// reached never blocks or reverts a transition.
func (c *Coordinator) notify(ctx context.Context, connectionID, transactionID string, status transactions.Status) {
	if err := c.send(ctx, connectionID, transactionID, status); err != nil {
		c.logger.Warn("status notification failed",
			"transaction_id", transactionID,
			"connection_id", connectionID,
			"status", status,
			"error", err,
		)
	}
}

func (c *Coordinator) recordOutcome(ctx context.Context, status transactions.Status) error {
	return c.metrics.RecordOutcome(ctx, string(status))
}

type effect struct {
	name string
	run  func(ctx context.Context) error
}

// join runs independent effects concurrently and waits for all of them.
// A failing effect never stops the others; the returned error joins every failure.
func join(ctx context.Context, effects ...effect) error {
	var g errgroup.Group
	errs := make([]error, len(effects))
	for i, e := range effects {
		i, e := i, e
		g.Go(func() error {
			if err := e.run(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", e.name, err)
				return errs[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}
	return errors.Join(errs...)
}

type nopMetrics struct{}

func (nopMetrics) RecordOutcome(context.Context, string) error { return nil }
