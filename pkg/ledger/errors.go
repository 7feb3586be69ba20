package ledger

import (
	"errors"

	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/statemachine"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

// Stable machine-readable error codes.
const (
	CodeNotFound             = "not_found"
	CodeAlreadySubscribed    = "already_subscribed"
	CodeQuotaExhausted       = "quota_exhausted"
	CodeInvalidBillingPeriod = "invalid_billing_period"
	CodeTariffInactive       = "tariff_inactive"
	CodeUnknownPaymentIntent = "unknown_payment_intent"
	CodeInvalidTransition    = "invalid_transition"
	CodeInvalidInput         = "invalid_input"
	CodeGatewayError         = "gateway_error"
	CodeInternal             = "internal"
)

// Error is a ledger error with a stable code.
type Error struct {
	code    string
	message string
}

func (e *Error) Error() string { return e.message }

// Code returns the machine-readable code.
func (e *Error) Code() string { return e.code }

func newError(code, message string) *Error {
	return &Error{code: code, message: message}
}

var (
	ErrNotFound             = newError(CodeNotFound, "not found")
	ErrAlreadySubscribed    = newError(CodeAlreadySubscribed, "subject already has a live subscription")
	ErrQuotaExhausted       = newError(CodeQuotaExhausted, "lead quota exhausted")
	ErrInvalidBillingPeriod = newError(CodeInvalidBillingPeriod, "invalid billing period")
	ErrTariffInactive       = newError(CodeTariffInactive, "tariff is inactive")
	ErrUnknownPaymentIntent = newError(CodeUnknownPaymentIntent, "unknown payment intent")
	ErrInvalidTransition    = newError(CodeInvalidTransition, "transition not allowed in current state")
	ErrInvalidInput         = newError(CodeInvalidInput, "invalid input")
	ErrFreePlan             = newError(CodeInvalidInput, "free tariff needs no payment, activate the subscription directly")
	ErrGateway              = newError(CodeGatewayError, "payment gateway error")
)

// Code extracts the stable code from err, or CodeInternal for foreign errors.
// A nil error has no code.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeInternal
}

// translate maps errors of collaborating packages onto ledger errors,
// keeping the original in the chain.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	switch {
	case errors.Is(err, tariff.ErrTariffNotFound), errors.Is(err, invoice.ErrInvoiceNotFound):
		return errors.Join(ErrNotFound, err)
	case errors.Is(err, tariff.ErrTariffInactive):
		return errors.Join(ErrTariffInactive, err)
	case errors.Is(err, tariff.ErrInvalidBillingPeriod):
		return errors.Join(ErrInvalidBillingPeriod, err)
	case errors.Is(err, invoice.ErrInvalidSubject):
		return errors.Join(ErrInvalidInput, err)
	case errors.Is(err, invoice.ErrInvoiceImmutable),
		statemachine.IsNoTransitionAvailableError(err),
		statemachine.IsTransitionRejectedError(err):
		return errors.Join(ErrInvalidTransition, err)
	}
	return err
}
