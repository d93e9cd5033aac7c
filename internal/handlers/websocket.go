package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-invoice-importflow/internal/importer"
	"github.com/imrishuroy/go-invoice-importflow/internal/validation"
)

// WebSocket route keys.
const (
	RouteConnect      = "$connect"
	RouteDisconnect   = "$disconnect"
	RouteGetImportURL = "getImportUrl"
	RouteCancelImport = "cancelImport"
)

// WebSocketHandler dispatches API Gateway WebSocket routes to the coordinator.
type WebSocketHandler struct {
	coordinator Coordinator
	validator   *validatorv10.Validate
	logger      *slog.Logger
}

// NewWebSocketHandler returns a handler for the invoice WebSocket API.
func NewWebSocketHandler(cfg HandlerConfig) *WebSocketHandler {
	h := &WebSocketHandler{coordinator: cfg.Coordinator, validator: cfg.Validator, logger: cfg.Logger}
	if h.validator == nil {
		h.validator = validation.New()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Handle is the Lambda entry point. Results reach the client over the
// connection itself; the response only acknowledges the frame.
func (h *WebSocketHandler) Handle(ctx context.Context, req events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	route := req.RequestContext.RouteKey
	connID := req.RequestContext.ConnectionID
	requestID := req.RequestContext.RequestID
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		requestID = lc.AwsRequestID
	}
	log := h.logger.With("route", route, "connection_id", connID, "request_id", requestID)

	switch route {
	case RouteConnect, RouteDisconnect:
		log.Info("connection event")
		return okResponse(), nil

	case RouteGetImportURL:
		msg, err := h.coordinator.IssueUploadURL(ctx, importer.UploadRequest{ConnectionID: connID, RequestID: requestID})
		if err != nil {
			return events.APIGatewayProxyResponse{}, fmt.Errorf("issue upload url: %w", err)
		}
		log.Info("upload url issued", "transaction_id", msg.TransactionID)
		return okResponse(), nil

	case RouteCancelImport:
		var body validation.CancelImportRequest
		if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
			log.Warn("malformed cancel request", "error", err)
			return badRequest("invalid_request_body"), nil
		}
		if err := h.validator.Struct(body); err != nil {
			log.Warn("invalid cancel request", "error", err)
			return badRequest("validation_failed"), nil
		}
		if _, err := h.coordinator.Cancel(ctx, body.TransactionID, connID); err != nil {
			return events.APIGatewayProxyResponse{}, fmt.Errorf("cancel import: %w", err)
		}
		return okResponse(), nil

	default:
		log.Warn("unknown route")
		return badRequest("unknown_route"), nil
	}
}

func okResponse() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK, Body: "OK"}
}

func badRequest(reason string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: http.StatusBadRequest, Body: reason}
}
