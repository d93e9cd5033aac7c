// Package notify pushes import status messages to WebSocket clients through
// the API Gateway management API.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"github.com/imrishuroy/go-invoice-importflow/internal/aws"
)

// ErrUnreachable means the connection is gone or was never open.
var ErrUnreachable = errors.New("connection unreachable")

// StatusMessage is pushed to the client on every client-visible status change.
type StatusMessage struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// UploadURLMessage hands the client its write credential.
type UploadURLMessage struct {
	URL           string `json:"url"`
	Expires       int64  `json:"expires"`
	TransactionID string `json:"transactionId"`
}

// WebSocketChannel sends JSON payloads to API Gateway WebSocket connections.
type WebSocketChannel struct {
	client aws.ConnectionsAPI
}

// NewWebSocketChannel returns a channel bound to a management API client.
func NewWebSocketChannel(client aws.ConnectionsAPI) *WebSocketChannel {
	return &WebSocketChannel{client: client}
}

// Send marshals payload to JSON and posts it to connectionID.
func (c *WebSocketChannel) Send(ctx context.Context, connectionID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := c.ensureOpen(ctx, connectionID); err != nil {
		return err
	}
	_, err = c.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: &connectionID,
		Data:         data,
	})
	if err != nil {
		return classify("post to connection", err)
	}
	return nil
}

// Close disconnects connectionID. Closing a connection that is already gone is not an error.
func (c *WebSocketChannel) Close(ctx context.Context, connectionID string) error {
	if err := c.ensureOpen(ctx, connectionID); err != nil {
		if errors.Is(err, ErrUnreachable) {
			return nil
		}
		return err
	}
	_, err := c.client.DeleteConnection(ctx, &apigatewaymanagementapi.DeleteConnectionInput{
		ConnectionId: &connectionID,
	})
	if err != nil {
		err = classify("delete connection", err)
		if errors.Is(err, ErrUnreachable) {
			return nil
		}
		return err
	}
	return nil
}

func (c *WebSocketChannel) ensureOpen(ctx context.Context, connectionID string) error {
	if connectionID == "" {
		return fmt.Errorf("%w: empty connection id", ErrUnreachable)
	}
	_, err := c.client.GetConnection(ctx, &apigatewaymanagementapi.GetConnectionInput{
		ConnectionId: &connectionID,
	})
	if err != nil {
		return classify("get connection", err)
	}
	return nil
}

func classify(op string, err error) error {
	var gone *apigwtypes.GoneException
	if errors.As(err, &gone) {
		return fmt.Errorf("%s: %w", op, ErrUnreachable)
	}
	return fmt.Errorf("%s: %w", op, err)
}
