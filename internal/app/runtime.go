// Package app wires configuration, AWS clients and the import coordinator
// for the Lambda entry points under cmd/.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/imrishuroy/go-invoice-importflow/internal/audit"
	"github.com/imrishuroy/go-invoice-importflow/internal/aws"
	"github.com/imrishuroy/go-invoice-importflow/internal/config"
	"github.com/imrishuroy/go-invoice-importflow/internal/importer"
	"github.com/imrishuroy/go-invoice-importflow/internal/invoices"
	"github.com/imrishuroy/go-invoice-importflow/internal/landing"
	"github.com/imrishuroy/go-invoice-importflow/internal/metrics"
	"github.com/imrishuroy/go-invoice-importflow/internal/notify"
	"github.com/imrishuroy/go-invoice-importflow/internal/transactions"
)

// Runtime holds what every entry point shares.
type Runtime struct {
	Config  config.Config
	Logger  *slog.Logger
	Clients *aws.AWSClients
	Metrics *metrics.Recorder
}

// NewLogger returns the JSON logger used by all functions, tagged with component.
func NewLogger(w io.Writer, cfg config.Config, component string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level()})).
		With("service", cfg.ServiceName, "component", component)
}

// NewRuntime loads configuration, installs the default logger and builds the AWS clients.
func NewRuntime(ctx context.Context, component string) (*Runtime, error) {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return nil, err
	}
	logger := NewLogger(os.Stdout, cfg, component)
	slog.SetDefault(logger)

	clients, err := aws.NewAWSClients(ctx, cfg.WebSocketEndpoint)
	if err != nil {
		return nil, fmt.Errorf("init aws clients: %w", err)
	}
	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Clients: clients,
		Metrics: metrics.NewRecorder(clients.CloudWatch, cfg.MetricsNamespace),
	}, nil
}

// Coordinator builds the import coordinator. It needs the invoices table,
// the landing bucket and the WebSocket endpoint.
func (r *Runtime) Coordinator() (*importer.Coordinator, error) {
	if err := r.Config.Require("INVOICE_DDB", "BUCKET_NAME", "INVOICE_WSAPI_ENDPOINT"); err != nil {
		return nil, err
	}
	return NewCoordinator(r.Config, r.Clients, r.Metrics, r.Logger), nil
}

// NewCoordinator wires the coordinator from already built clients.
func NewCoordinator(cfg config.Config, clients *aws.AWSClients, rec importer.Metrics, logger *slog.Logger) *importer.Coordinator {
	return importer.NewCoordinator(importer.Dependencies{
		Transactions:    transactions.NewStore(clients.DynamoDB, cfg.InvoiceTable, cfg.TransactionTTL),
		Invoices:        invoices.NewStore(clients.DynamoDB, cfg.InvoiceTable),
		Zone:            landing.NewZone(clients.S3, clients.Presign, cfg.BucketName),
		Channel:         notify.NewWebSocketChannel(clients.Connections),
		Audit:           NewAuditSink(cfg, clients),
		Metrics:         rec,
		Logger:          logger,
		UploadURLExpiry: cfg.UploadURLExpiry,
		Endpoint:        cfg.WebSocketEndpoint,
	})
}

// NewAuditSink returns the EventBridge bus sink, or the SQS queue sink when
// AUDIT_SINK=sqs.
func NewAuditSink(cfg config.Config, clients *aws.AWSClients) importer.AuditSink {
	if cfg.AuditSink == config.SinkSQS {
		return audit.NewQueueSink(aws.NewPublisher(clients.SQS, cfg.AuditQueueURL))
	}
	return audit.NewEventBridgeSink(clients.EventBridge, cfg.AuditBusName)
}
