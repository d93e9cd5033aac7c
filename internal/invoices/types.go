package invoices

import "time"

// Invoice is the business record created once per successfully imported file.
// The natural key is (customer, invoice number): PK "#invoice_<customer>", SK invoice number.
type Invoice struct {
	PK            string    `dynamodbav:"pk" json:"-"`
	InvoiceNumber string    `dynamodbav:"sk" json:"invoiceNumber"`
	CustomerName  string    `dynamodbav:"customer_name" json:"customerName"`
	TotalValue    float64   `dynamodbav:"total_value" json:"totalValue"`
	ProductID     string    `dynamodbav:"product_id,omitempty" json:"productId,omitempty"`
	Quantity      int       `dynamodbav:"quantity" json:"quantity"`
	TransactionID string    `dynamodbav:"transaction_id" json:"transactionId"`
	CreatedAt     time.Time `dynamodbav:"created_at" json:"createdAt"`
}

// PartitionKey returns the partition an invoice for customer lives in.
func PartitionKey(customer string) string {
	return "#invoice_" + customer
}
