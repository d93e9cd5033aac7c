package validation

// MinInvoiceNumberLength is the shortest invoice number accepted on import.
const MinInvoiceNumberLength = 5

// InvoiceFile is the JSON document a client uploads to the landing zone.
type InvoiceFile struct {
	CustomerName  string  `json:"customerName" validate:"required"`
	InvoiceNumber string  `json:"invoiceNumber" validate:"required,invoice_number"`
	TotalValue    float64 `json:"totalValue" validate:"gte=0"`
	ProductID     string  `json:"productId"`
	Quantity      int     `json:"quantity" validate:"gte=0"`
}

// CancelImportRequest is the payload of the cancelImport route and POST /imports/cancel.
type CancelImportRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
}
