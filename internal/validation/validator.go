package validation

import (
	"unicode/utf8"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with the custom invoice rules registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// invoice_number enforces the minimum business identifier length.
	_ = v.RegisterValidation("invoice_number", func(fl validatorv10.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) >= MinInvoiceNumberLength
	})

	return v
}
