package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/imrishuroy/go-invoice-importflow/internal/notify"
	"github.com/imrishuroy/go-invoice-importflow/internal/transactions"
)

// UploadRequest identifies the client asking for an upload URL.
type UploadRequest struct {
	ConnectionID string
	RequestID    string
}

// IssueUploadURL starts a new transaction: it presigns a PUT for a fresh
// object key, records the transaction as GENERATED, and pushes the
// credential to the client. The credential is also returned to the caller.
func (c *Coordinator) IssueUploadURL(ctx context.Context, req UploadRequest) (notify.UploadURLMessage, error) {
	if req.ConnectionID == "" {
		return notify.UploadURLMessage{}, errors.New("connection id is required")
	}
	transactionID := c.newID()
	log := c.logger.With("transaction_id", transactionID, "connection_id", req.ConnectionID, "request_id", req.RequestID)

	cred, err := c.zone.IssueWriteCredential(ctx, transactionID, c.uploadURLExpiry)
	if err != nil {
		return notify.UploadURLMessage{}, fmt.Errorf("issue write credential: %w", err)
	}

	tx, err := c.store.Create(ctx, transactions.Transaction{
		TransactionID: transactionID,
		ConnectionID:  req.ConnectionID,
		RequestID:     req.RequestID,
		Endpoint:      c.endpoint,
		ExpiresIn:     int64(cred.ExpiresIn.Seconds()),
	})
	if err != nil {
		return notify.UploadURLMessage{}, fmt.Errorf("create transaction: %w", err)
	}

	msg := notify.UploadURLMessage{
		URL:           cred.URL,
		Expires:       tx.ExpiresIn,
		TransactionID: transactionID,
	}
	if err := c.channel.Send(ctx, req.ConnectionID, msg); err != nil {
		log.Warn("upload url notification failed", "error", err)
	}
	log.Info("transaction created", "status", tx.Status, "ttl", tx.ExpiresAt)
	return msg, nil
}
