package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-invoice-importflow/internal/importer"
	"github.com/imrishuroy/go-invoice-importflow/internal/invoices"
	"github.com/imrishuroy/go-invoice-importflow/internal/notify"
	"github.com/imrishuroy/go-invoice-importflow/internal/transactions"
	"github.com/imrishuroy/go-invoice-importflow/internal/validation"
)

// Coordinator is the part of *importer.Coordinator the handlers drive.
type Coordinator interface {
	IssueUploadURL(ctx context.Context, req importer.UploadRequest) (notify.UploadURLMessage, error)
	Cancel(ctx context.Context, transactionID, connectionID string) (transactions.Status, error)
	Lookup(ctx context.Context, transactionID string) (transactions.Status, error)
}

// InvoiceReader is implemented by *invoices.Store.
type InvoiceReader interface {
	Get(ctx context.Context, customer, invoiceNumber string) (*invoices.Invoice, error)
}

// HandlerConfig groups dependencies for the imports handler. Invoices is
// optional; without it the invoice route is not registered.
type HandlerConfig struct {
	Coordinator Coordinator
	Invoices    InvoiceReader
	Validator   *validatorv10.Validate
	Logger      *slog.Logger
}

type statusResponse struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	Final         bool   `json:"final"`
}

func newStatusResponse(id string, status transactions.Status) statusResponse {
	return statusResponse{TransactionID: id, Status: string(status), Final: status.Terminal()}
}

// RegisterImportsRoutes registers the HTTP facade over the import lifecycle.
// Status pushes still go to the WebSocket connection named in X-Connection-Id.
func RegisterImportsRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := cfg.Validator
	if v == nil {
		v = validation.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.GET("/imports/:id", func(c *gin.Context) {
		id := c.Param("id")
		status, err := cfg.Coordinator.Lookup(c.Request.Context(), id)
		if err != nil {
			logger.Error("lookup failed", "transaction_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
			return
		}
		code := http.StatusOK
		if status == transactions.StatusNotFound {
			code = http.StatusNotFound
		}
		c.JSON(code, newStatusResponse(id, status))
	})

	r.POST("/imports", func(c *gin.Context) {
		connID := c.GetHeader("X-Connection-Id")
		if connID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_connection_id"})
			return
		}

		msg, err := cfg.Coordinator.IssueUploadURL(c.Request.Context(), importer.UploadRequest{
			ConnectionID: connID,
			RequestID:    c.GetHeader("X-Request-Id"),
		})
		if err != nil {
			logger.Error("issue upload url failed", "connection_id", connID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "issue_failed"})
			return
		}

		c.Header("Location", fmt.Sprintf("/imports/%s", msg.TransactionID))
		c.JSON(http.StatusCreated, msg)
	})

	r.POST("/imports/cancel", func(c *gin.Context) {
		var req validation.CancelImportRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}
		connID := c.GetHeader("X-Connection-Id")
		if connID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_connection_id"})
			return
		}

		status, err := cfg.Coordinator.Cancel(c.Request.Context(), req.TransactionID, connID)
		if err != nil {
			logger.Error("cancel failed", "transaction_id", req.TransactionID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cancel_failed"})
			return
		}

		code := http.StatusOK
		switch status {
		case transactions.StatusCanceled:
		case transactions.StatusNotFound:
			code = http.StatusNotFound
		default:
			// the transaction already progressed; report where it is
			code = http.StatusConflict
		}
		c.JSON(code, newStatusResponse(req.TransactionID, status))
	})

	if cfg.Invoices != nil {
		r.GET("/invoices/:customer/:number", func(c *gin.Context) {
			inv, err := cfg.Invoices.Get(c.Request.Context(), c.Param("customer"), c.Param("number"))
			if errors.Is(err, invoices.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "invoice_not_found"})
				return
			}
			if err != nil {
				logger.Error("get invoice failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "get_invoice_failed"})
				return
			}
			c.JSON(http.StatusOK, inv)
		})
	}
}
