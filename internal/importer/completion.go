package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/imrishuroy/go-invoice-importflow/internal/audit"
	"github.com/imrishuroy/go-invoice-importflow/internal/invoices"
	"github.com/imrishuroy/go-invoice-importflow/internal/landing"
	"github.com/imrishuroy/go-invoice-importflow/internal/transactions"
	"github.com/imrishuroy/go-invoice-importflow/internal/validation"
)

// CompleteUpload handles one "object created" event for transactionID and
// returns the status reported to the client.
//
// Duplicate deliveries and deliveries that lost a race to cancellation or
// expiry only report the current status. A returned error means a
// collaborator was unavailable; the event source may redeliver.
func (c *Coordinator) CompleteUpload(ctx context.Context, transactionID string) (transactions.Status, error) {
	log := c.logger.With("transaction_id", transactionID, "trigger", "upload")

	tx, err := c.store.Get(ctx, transactionID)
	if errors.Is(err, transactions.ErrNotFound) {
		// no record means no connection to report to
		log.Warn("upload for unknown transaction", "status", transactions.StatusNotFound)
		return transactions.StatusNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("get transaction: %w", err)
	}
	log = log.With("connection_id", tx.ConnectionID)

	if tx.Status != transactions.StatusGenerated {
		log.Info("upload ignored, transaction already progressed", "status", tx.Status)
		c.notify(ctx, tx.ConnectionID, transactionID, tx.Status)
		return tx.Status, nil
	}

	won, current, err := c.transition(ctx, transactionID, transactions.StatusGenerated, transactions.StatusReceived)
	if err != nil {
		return "", err
	}
	c.notify(ctx, tx.ConnectionID, transactionID, current)
	if !won {
		return current, nil
	}

	raw, err := c.zone.Get(ctx, transactionID)
	if errors.Is(err, landing.ErrObjectTooLarge) {
		return c.reject(ctx, log, tx, validation.InvoiceFile{}, &validation.Rejection{Reason: validation.ReasonTooLarge})
	}
	if err != nil {
		return "", fmt.Errorf("fetch uploaded file: %w", err)
	}

	file, err := validation.ParseInvoiceFile(c.validator, raw)
	if err != nil {
		var rej *validation.Rejection
		if !errors.As(err, &rej) {
			return "", err
		}
		return c.reject(ctx, log, tx, file, rej)
	}
	return c.accept(ctx, log, tx, file)
}

// reject finishes a transaction whose file failed validation: the object is
// deleted alongside RECEIVED -> NON_VALID, then the audit event and the
// client notification go out together.
func (c *Coordinator) reject(ctx context.Context, log *slog.Logger, tx *transactions.Transaction, file validation.InvoiceFile, rej *validation.Rejection) (transactions.Status, error) {
	id := tx.TransactionID
	log.Warn("invoice file rejected", "reason", rej.Reason, "fields", rej.Fields)

	var (
		won     bool
		current transactions.Status
		casErr  error
	)
	err := join(ctx,
		effect{"delete object", func(ctx context.Context) error {
			return c.zone.Delete(ctx, id)
		}},
		effect{"transition", func(ctx context.Context) error {
			won, current, casErr = c.transition(ctx, id, transactions.StatusReceived, transactions.StatusNonValid)
			return casErr
		}},
	)
	if casErr != nil {
		return "", casErr
	}
	if err != nil {
		log.Error("rejection cleanup incomplete", "error", err)
	}

	if !won {
		c.notify(ctx, tx.ConnectionID, id, current)
		return current, nil
	}

	info := map[string]string{
		"connectionId": tx.ConnectionID,
		"reason":       rej.Reason,
	}
	if file.CustomerName != "" {
		info["customerName"] = file.CustomerName
	}
	ev := audit.NewInvalidFormat(id, rej.Reason, info, c.nowFunc())

	err = join(ctx,
		effect{"emit audit", func(ctx context.Context) error {
			return c.audit.Emit(ctx, ev)
		}},
		effect{"notify", func(ctx context.Context) error {
			return c.send(ctx, tx.ConnectionID, id, transactions.StatusNonValid)
		}},
		effect{"record outcome", func(ctx context.Context) error {
			return c.recordOutcome(ctx, transactions.StatusNonValid)
		}},
	)
	if err != nil {
		log.Error("rejection fan-out incomplete", "status", transactions.StatusNonValid, "error", err)
	}
	return transactions.StatusNonValid, nil
}

// accept finishes a transaction whose file is valid. The invoice is created
// (idempotently) alongside the object deletion; only then is RECEIVED ->
// PROCESSED attempted, so PROCESSED always implies the invoice exists.
func (c *Coordinator) accept(ctx context.Context, log *slog.Logger, tx *transactions.Transaction, file validation.InvoiceFile) (transactions.Status, error) {
	id := tx.TransactionID
	inv := invoices.Invoice{
		InvoiceNumber: file.InvoiceNumber,
		CustomerName:  file.CustomerName,
		TotalValue:    file.TotalValue,
		ProductID:     file.ProductID,
		Quantity:      file.Quantity,
		TransactionID: id,
		CreatedAt:     c.nowFunc().UTC(),
	}

	var invoiceErr error
	err := join(ctx,
		effect{"create invoice", func(ctx context.Context) error {
			invoiceErr = c.invoices.Create(ctx, inv)
			if errors.Is(invoiceErr, invoices.ErrAlreadyExists) {
				log.Info("invoice already exists", "customer", inv.CustomerName, "invoice_number", inv.InvoiceNumber)
				invoiceErr = nil
			}
			return invoiceErr
		}},
		effect{"delete object", func(ctx context.Context) error {
			return c.zone.Delete(ctx, id)
		}},
	)
	if invoiceErr != nil {
		return "", fmt.Errorf("create invoice: %w", invoiceErr)
	}
	if err != nil {
		log.Error("object cleanup failed", "error", err)
	}

	won, current, err := c.transition(ctx, id, transactions.StatusReceived, transactions.StatusProcessed)
	if err != nil {
		return "", err
	}
	c.notify(ctx, tx.ConnectionID, id, current)
	if won {
		if err := c.recordOutcome(ctx, current); err != nil {
			log.Warn("outcome metric failed", "error", err)
		}
		log.Info("invoice imported", "status", current, "invoice_number", inv.InvoiceNumber)
	}
	return current, nil
}
