package invoice

import "errors"

var (
	ErrInvalidSubject    = errors.New("invoice subject is required")
	ErrInvoiceNotFound   = errors.New("invoice not found")
	ErrInvoiceImmutable  = errors.New("invoice can no longer be changed")
	ErrDuplicateNumber   = errors.New("invoice number already exists")
	ErrSequenceFailed    = errors.New("failed to allocate invoice sequence number")
	ErrFailedToSave      = errors.New("failed to save invoice")
	ErrPaymentIDRequired = errors.New("payment id is required")
	ErrNumberExhausted   = errors.New("could not allocate a unique invoice number")
)
