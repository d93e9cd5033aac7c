package invoices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/imrishuroy/go-invoice-importflow/internal/aws"
)

var (
	// ErrAlreadyExists is returned when an invoice with the same customer and number exists.
	ErrAlreadyExists = errors.New("invoice already exists")
	// ErrNotFound is returned by Get when there is no such invoice.
	ErrNotFound = errors.New("invoice not found")
)

// Store encapsulates invoice operations against DynamoDB.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore returns a configured Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Create writes inv if no invoice with the same natural key exists.
// Returns ErrAlreadyExists otherwise, so retried imports never duplicate.
func (s *Store) Create(ctx context.Context, inv Invoice) error {
	if inv.CustomerName == "" || inv.InvoiceNumber == "" {
		return errors.New("customer name and invoice number are required")
	}
	inv.PK = PartitionKey(inv.CustomerName)
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = s.nowFunc().UTC()
	}

	item, err := attributevalue.MarshalMap(inv)
	if err != nil {
		return fmt.Errorf("marshal invoice: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(sk)"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			return ErrAlreadyExists
		}
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// Get retrieves an invoice by its natural key.
func (s *Store) Get(ctx context.Context, customer, invoiceNumber string) (*Invoice, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: PartitionKey(customer)},
			"sk": &types.AttributeValueMemberS{Value: invoiceNumber},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var inv Invoice
	if err := attributevalue.UnmarshalMap(out.Item, &inv); err != nil {
		return nil, fmt.Errorf("unmarshal invoice: %w", err)
	}
	return &inv, nil
}

// Helper
func awsString(s string) *string { return &s }
