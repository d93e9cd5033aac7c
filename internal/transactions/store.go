package transactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/imrishuroy/go-invoice-importflow/internal/aws"
)

var (
	// ErrNotFound is returned when no record exists for a transaction id.
	ErrNotFound = errors.New("transaction not found")
	// ErrAlreadyExists is returned by Create when the id is already taken.
	ErrAlreadyExists = errors.New("transaction already exists")
	// ErrStatusMismatch means the conditioned write was rejected: the stored status was not the expected one.
	ErrStatusMismatch = errors.New("status mismatch/conditional failed")
	// ErrInvalidTransition means the requested edge is not part of the lifecycle graph.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Store encapsulates operations on transaction records.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewStore creates a new transactions Store. ttlWindow is how long a record
// lives before DynamoDB TTL removes it.
func NewStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

// Create persists a new record in GENERATED state. The caller sets
// TransactionID, ConnectionID and the optional tracing fields; keys,
// timestamps and the TTL deadline are filled in here.
func (s *Store) Create(ctx context.Context, tx Transaction) (Transaction, error) {
	if tx.TransactionID == "" {
		return Transaction{}, errors.New("transaction id is required")
	}
	now := s.nowFunc().UTC()
	tx.PK = PartitionKey
	tx.Status = StatusGenerated
	tx.CreatedAt = now
	tx.UpdatedAt = now
	tx.ExpiresAt = now.Add(s.ttlWindow).Unix()

	item, err := attributevalue.MarshalMap(tx)
	if err != nil {
		return Transaction{}, fmt.Errorf("marshal transaction: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(sk)"),
	})
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return Transaction{}, ErrAlreadyExists
		}
		return Transaction{}, fmt.Errorf("put item: %w", err)
	}
	return tx, nil
}

// Get fetches a transaction by id. Returns ErrNotFound if there is no record.
func (s *Store) Get(ctx context.Context, transactionID string) (*Transaction, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            key(transactionID),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var tx Transaction
	if err := attributevalue.UnmarshalMap(out.Item, &tx); err != nil {
		return nil, fmt.Errorf("unmarshal transaction: %w", err)
	}
	return &tx, nil
}

// CompareAndSetStatus moves the record from expected to next only if the
// stored status is still expected. Returns ErrStatusMismatch when the
// condition fails, which includes the record not existing.
func (s *Store) CompareAndSetStatus(ctx context.Context, transactionID string, expected, next Status) error {
	if !CanTransition(expected, next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, expected, next)
	}
	now := s.nowFunc().UTC()
	input := &dyn.UpdateItemInput{
		TableName:                &s.tableName,
		Key:                      key(transactionID),
		UpdateExpression:         awsString("SET #s = :new, updated_at = :ua"),
		ConditionExpression:      awsString("#s = :expected"),
		ExpressionAttributeNames: map[string]string{"#s": "status"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":new":      &types.AttributeValueMemberS{Value: string(next)},
			":expected": &types.AttributeValueMemberS{Value: string(expected)},
			":ua":       &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
		},
	}

	_, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		var cc *types.ConditionalCheckFailedException
		if errors.As(err, &cc) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func key(transactionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: PartitionKey},
		"sk": &types.AttributeValueMemberS{Value: transactionID},
	}
}

func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }
