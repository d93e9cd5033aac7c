package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when CONFIG_PATH is unset. A missing file is not an error.
const DefaultPath = "configs/default.yaml"

// Audit sink kinds.
const (
	SinkEventBridge = "eventbridge"
	SinkSQS         = "sqs"
)

// Config is the resolved runtime configuration shared by every entry point.
type Config struct {
	ServiceName string
	LogLevel    string

	InvoiceTable      string
	BucketName        string
	WebSocketEndpoint string

	AuditSink     string
	AuditBusName  string
	AuditQueueURL string

	MetricsNamespace string

	TransactionTTL  time.Duration
	UploadURLExpiry time.Duration

	RunLocal bool
	HTTPAddr string
}

// configFile mirrors configs/default.yaml.
type configFile struct {
	Service struct {
		Name     string `yaml:"name"`
		LogLevel string `yaml:"log_level"`
		HTTPAddr string `yaml:"http_addr"`
	} `yaml:"service"`
	Storage struct {
		InvoiceTable string `yaml:"invoice_table"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"storage"`
	WebSocket struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"websocket"`
	Audit struct {
		Sink     string `yaml:"sink"`
		BusName  string `yaml:"bus_name"`
		QueueURL string `yaml:"queue_url"`
	} `yaml:"audit"`
	Metrics struct {
		Namespace string `yaml:"namespace"`
	} `yaml:"metrics"`
	Transactions struct {
		TTLSeconds             int `yaml:"ttl_seconds"`
		UploadURLExpirySeconds int `yaml:"upload_url_expiry_seconds"`
	} `yaml:"transactions"`
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	return envOrDefault("CONFIG_PATH", DefaultPath)
}

// Load resolves configuration in priority order: defaults -> file -> env.
func Load(path string) (Config, error) {
	cfg := Config{
		ServiceName:      "invoice-import",
		LogLevel:         "info",
		AuditSink:        SinkEventBridge,
		AuditBusName:     "default",
		MetricsNamespace: "InvoiceImport",
		TransactionTTL:   120 * time.Second,
		UploadURLExpiry:  300 * time.Second,
		HTTPAddr:         ":8080",
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		applyFile(&cfg, f)
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg.ServiceName = envOrDefault("SERVICE_NAME", cfg.ServiceName)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(envOrDefault("LOG_LEVEL", cfg.LogLevel)))
	cfg.InvoiceTable = envOrDefault("INVOICE_DDB", cfg.InvoiceTable)
	cfg.BucketName = envOrDefault("BUCKET_NAME", cfg.BucketName)
	cfg.WebSocketEndpoint = envOrDefault("INVOICE_WSAPI_ENDPOINT", cfg.WebSocketEndpoint)
	cfg.AuditSink = strings.ToLower(strings.TrimSpace(envOrDefault("AUDIT_SINK", cfg.AuditSink)))
	cfg.AuditBusName = envOrDefault("AUDIT_BUS_NAME", cfg.AuditBusName)
	cfg.AuditQueueURL = envOrDefault("AUDIT_QUEUE_URL", cfg.AuditQueueURL)
	cfg.MetricsNamespace = envOrDefault("METRICS_NAMESPACE", cfg.MetricsNamespace)
	cfg.TransactionTTL = time.Duration(envInt("TRANSACTION_TTL_SECONDS", int(cfg.TransactionTTL.Seconds()))) * time.Second
	cfg.UploadURLExpiry = time.Duration(envInt("UPLOAD_URL_EXPIRES_SECONDS", int(cfg.UploadURLExpiry.Seconds()))) * time.Second
	cfg.RunLocal = envBool("RUN_LOCAL", cfg.RunLocal)
	cfg.HTTPAddr = envOrDefault("HTTP_ADDR", cfg.HTTPAddr)

	if cfg.TransactionTTL <= 0 {
		return Config{}, fmt.Errorf("TRANSACTION_TTL_SECONDS must be positive")
	}
	if cfg.UploadURLExpiry <= 0 {
		return Config{}, fmt.Errorf("UPLOAD_URL_EXPIRES_SECONDS must be positive")
	}
	switch cfg.AuditSink {
	case SinkEventBridge:
	case SinkSQS:
		if cfg.AuditQueueURL == "" {
			return Config{}, fmt.Errorf("missing AUDIT_QUEUE_URL for sqs audit sink")
		}
	default:
		return Config{}, fmt.Errorf("unknown AUDIT_SINK %q", cfg.AuditSink)
	}

	return cfg, nil
}

func applyFile(cfg *Config, f configFile) {
	if f.Service.Name != "" {
		cfg.ServiceName = f.Service.Name
	}
	if f.Service.LogLevel != "" {
		cfg.LogLevel = f.Service.LogLevel
	}
	if f.Service.HTTPAddr != "" {
		cfg.HTTPAddr = f.Service.HTTPAddr
	}
	if f.Storage.InvoiceTable != "" {
		cfg.InvoiceTable = f.Storage.InvoiceTable
	}
	if f.Storage.Bucket != "" {
		cfg.BucketName = f.Storage.Bucket
	}
	if f.WebSocket.Endpoint != "" {
		cfg.WebSocketEndpoint = f.WebSocket.Endpoint
	}
	if f.Audit.Sink != "" {
		cfg.AuditSink = f.Audit.Sink
	}
	if f.Audit.BusName != "" {
		cfg.AuditBusName = f.Audit.BusName
	}
	if f.Audit.QueueURL != "" {
		cfg.AuditQueueURL = f.Audit.QueueURL
	}
	if f.Metrics.Namespace != "" {
		cfg.MetricsNamespace = f.Metrics.Namespace
	}
	if f.Transactions.TTLSeconds > 0 {
		cfg.TransactionTTL = time.Duration(f.Transactions.TTLSeconds) * time.Second
	}
	if f.Transactions.UploadURLExpirySeconds > 0 {
		cfg.UploadURLExpiry = time.Duration(f.Transactions.UploadURLExpirySeconds) * time.Second
	}
}

// Require fails when any named setting is empty. Names are the environment
// variables that set them.
func (c Config) Require(names ...string) error {
	values := map[string]string{
		"INVOICE_DDB":            c.InvoiceTable,
		"BUCKET_NAME":            c.BucketName,
		"INVOICE_WSAPI_ENDPOINT": c.WebSocketEndpoint,
		"AUDIT_BUS_NAME":         c.AuditBusName,
		"AUDIT_QUEUE_URL":        c.AuditQueueURL,
		"METRICS_NAMESPACE":      c.MetricsNamespace,
	}
	var missing []string
	for _, name := range names {
		if values[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// Level maps LogLevel onto slog, defaulting to info.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return fallback
	}
}
