package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/imrishuroy/go-invoice-importflow/internal/audit"
	"github.com/imrishuroy/go-invoice-importflow/internal/aws"
	"github.com/imrishuroy/go-invoice-importflow/internal/config"
)

func TestNewAuditSink_Selection(t *testing.T) {
	clients := &aws.AWSClients{}

	if _, ok := NewAuditSink(config.Config{AuditSink: config.SinkEventBridge}, clients).(*audit.EventBridgeSink); !ok {
		t.Fatalf("expected eventbridge sink")
	}
	sqsCfg := config.Config{AuditSink: config.SinkSQS, AuditQueueURL: "https://sqs.local/audit"}
	if _, ok := NewAuditSink(sqsCfg, clients).(*audit.QueueSink); !ok {
		t.Fatalf("expected queue sink")
	}
}

func TestNewLogger_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.Config{ServiceName: "invoice-import", LogLevel: "info"}, "reaper")

	logger.Debug("hidden")
	logger.Info("hello", "transaction_id", "T1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if line["component"] != "reaper" || line["service"] != "invoice-import" || line["transaction_id"] != "T1" {
		t.Fatalf("unexpected log line: %v", line)
	}
}

func TestCoordinator_RequiresSettings(t *testing.T) {
	r := &Runtime{Config: config.Config{InvoiceTable: "invoices"}, Clients: &aws.AWSClients{}}

	if _, err := r.Coordinator(); err == nil {
		t.Fatalf("expected error for missing bucket and endpoint")
	}
}
