package importer

import (
	"context"
	"fmt"

	"github.com/imrishuroy/go-invoice-importflow/internal/audit"
	"github.com/imrishuroy/go-invoice-importflow/internal/transactions"
)

// Reap handles the last image of a transaction record removed by TTL. The
// record no longer exists, so nothing is written back to the store.
//
// Transactions that had already finished are normal cleanup. Anything still
// GENERATED or RECEIVED timed out: a TIMEOUT audit event is emitted, the
// client is told TIMEOUT and then disconnected. reaped reports whether that
// escalation ran. Only an audit failure is returned, so the stream redelivers
// the record; notification and disconnect failures are logged.
func (c *Coordinator) Reap(ctx context.Context, last transactions.Transaction) (reaped bool, err error) {
	log := c.logger.With(
		"transaction_id", last.TransactionID,
		"connection_id", last.ConnectionID,
		"trigger", "expiry",
		"last_status", last.Status,
	)

	if !transactions.CanTransition(last.Status, transactions.StatusTimeout) {
		log.Debug("expired transaction already finished")
		return false, nil
	}

	info := map[string]string{
		"connectionId": last.ConnectionID,
		"lastStatus":   string(last.Status),
	}
	if last.RequestID != "" {
		info["requestId"] = last.RequestID
	}
	ev := audit.NewTimeout(last.TransactionID, info, c.nowFunc())

	var auditErr error
	joinErr := join(ctx,
		effect{"emit audit", func(ctx context.Context) error {
			auditErr = c.audit.Emit(ctx, ev)
			return auditErr
		}},
		effect{"notify and disconnect", func(ctx context.Context) error {
			c.notify(ctx, last.ConnectionID, last.TransactionID, transactions.StatusTimeout)
			if err := c.channel.Close(ctx, last.ConnectionID); err != nil {
				log.Warn("disconnect failed", "error", err)
			}
			return nil
		}},
		effect{"record outcome", func(ctx context.Context) error {
			return c.recordOutcome(ctx, transactions.StatusTimeout)
		}},
	)
	if auditErr != nil {
		return false, fmt.Errorf("emit timeout audit: %w", auditErr)
	}
	if joinErr != nil {
		log.Warn("expiry fan-out incomplete", "error", joinErr)
	}
	log.Info("transaction timed out", "status", transactions.StatusTimeout)
	return true, nil
}
