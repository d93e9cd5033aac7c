package transactions

import "time"

// Status is the lifecycle state of an invoice import transaction.
type Status string

// Transaction statuses
const (
	StatusGenerated Status = "GENERATED"
	StatusReceived  Status = "RECEIVED"
	StatusProcessed Status = "PROCESSED"
	StatusNonValid  Status = "NON_VALID"
	StatusCanceled  Status = "CANCELED"
	StatusTimeout   Status = "TIMEOUT"
	// StatusNotFound is reported for unknown ids and is never persisted.
	StatusNotFound Status = "NOT_FOUND"
)

// PartitionKey groups every transaction record under one partition of the invoices table.
const PartitionKey = "#transaction"

var transitions = map[Status][]Status{
	StatusGenerated: {StatusReceived, StatusCanceled, StatusTimeout},
	StatusReceived:  {StatusProcessed, StatusNonValid, StatusTimeout},
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s Status) Terminal() bool {
	switch s {
	case StatusProcessed, StatusNonValid, StatusCanceled, StatusTimeout:
		return true
	}
	return false
}

// Transaction represents the item stored in the invoices DynamoDB table for one import attempt.
type Transaction struct {
	PK            string    `dynamodbav:"pk"`            // always PartitionKey
	TransactionID string    `dynamodbav:"sk"`            // also the landing zone object key
	Status        Status    `dynamodbav:"status"`        // see Status constants
	ConnectionID  string    `dynamodbav:"connection_id"` // WebSocket connection of the requesting client
	RequestID     string    `dynamodbav:"request_id,omitempty"`
	Endpoint      string    `dynamodbav:"endpoint,omitempty"`
	ExpiresIn     int64     `dynamodbav:"expires_in"` // upload URL lifetime, seconds
	CreatedAt     time.Time `dynamodbav:"created_at"`
	UpdatedAt     time.Time `dynamodbav:"updated_at"`
	ExpiresAt     int64     `dynamodbav:"ttl"` // TTL epoch seconds; never rewritten after create
}
