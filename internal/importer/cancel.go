package importer

import (
	"context"

	"github.com/imrishuroy/go-invoice-importflow/internal/transactions"
)

// Cancel attempts GENERATED -> CANCELED on behalf of connectionID and
// reports the outcome to that connection. Cancelling an unknown, progressing
// or finished transaction is not an error: the client is told the current
// status (or NOT_FOUND) instead.
func (c *Coordinator) Cancel(ctx context.Context, transactionID, connectionID string) (transactions.Status, error) {
	log := c.logger.With("transaction_id", transactionID, "connection_id", connectionID, "trigger", "cancel")

	won, current, err := c.transition(ctx, transactionID, transactions.StatusGenerated, transactions.StatusCanceled)
	if err != nil {
		return "", err
	}
	c.notify(ctx, connectionID, transactionID, current)

	if !won {
		log.Info("cancel rejected", "status", current)
		return current, nil
	}
	if err := c.recordOutcome(ctx, current); err != nil {
		log.Warn("outcome metric failed", "error", err)
	}
	log.Info("transaction canceled", "status", current)
	return current, nil
}
