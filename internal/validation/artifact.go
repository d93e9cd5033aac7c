package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// ErrInvalidFormat matches every Rejection via errors.Is.
var ErrInvalidFormat = errors.New("invalid invoice file")

// Rejection describes why an uploaded file was not accepted.
type Rejection struct {
	Reason string
	Fields map[string]string
}

func (r *Rejection) Error() string {
	if len(r.Fields) == 0 {
		return "invalid invoice file: " + r.Reason
	}
	names := make([]string, 0, len(r.Fields))
	for name := range r.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid invoice file: %s (%s)", r.Reason, strings.Join(names, ", "))
}

func (r *Rejection) Is(target error) bool { return target == ErrInvalidFormat }

// Rejection reasons. FAIL_NO_INVOICE_NUMBER is the audit detail the
// downstream bus rules match on.
const (
	ReasonMalformedJSON   = "MALFORMED_JSON"
	ReasonFailedSchema    = "FAIL_SCHEMA"
	ReasonTooLarge        = "FILE_TOO_LARGE"
	ReasonNoInvoiceNumber = "FAIL_NO_INVOICE_NUMBER"
)

// ParseInvoiceFile decodes and validates an uploaded file. It either returns
// the file with a nil error or a *Rejection; no other error type is returned.
func ParseInvoiceFile(v *validatorv10.Validate, raw []byte) (InvoiceFile, error) {
	var f InvoiceFile
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&f); err != nil {
		return InvoiceFile{}, &Rejection{Reason: ReasonMalformedJSON, Fields: map[string]string{"body": err.Error()}}
	}
	f.CustomerName = strings.TrimSpace(f.CustomerName)
	f.InvoiceNumber = strings.TrimSpace(f.InvoiceNumber)

	if err := v.Struct(f); err != nil {
		fields := validationErrorsToMap(err)
		reason := ReasonFailedSchema
		if _, ok := fields["InvoiceFile.InvoiceNumber"]; ok {
			reason = ReasonNoInvoiceNumber
		}
		return f, &Rejection{Reason: reason, Fields: fields}
	}
	return f, nil
}
