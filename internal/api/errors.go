package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/tariffledger/pkg/gateway"
	"github.com/dmitrymomot/tariffledger/pkg/handler"
	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/qrcode"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
	"github.com/dmitrymomot/tariffledger/pkg/verification"
)

// statusByCode maps ledger error codes to HTTP status codes.
var statusByCode = map[string]int{
	ledger.CodeNotFound:             http.StatusNotFound,
	ledger.CodeUnknownPaymentIntent: http.StatusNotFound,
	ledger.CodeAlreadySubscribed:    http.StatusConflict,
	ledger.CodeInvalidTransition:    http.StatusConflict,
	ledger.CodeQuotaExhausted:       http.StatusTooManyRequests,
	ledger.CodeInvalidBillingPeriod: http.StatusBadRequest,
	ledger.CodeInvalidInput:         http.StatusBadRequest,
	ledger.CodeTariffInactive:       http.StatusUnprocessableEntity,
	ledger.CodeGatewayError:         http.StatusBadGateway,
}

// StatusFor returns the HTTP status for a ledger error code.
func StatusFor(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type sentinel struct {
	err    error
	status int
	code   string
}

// sentinels covers errors returned by packages the API calls directly,
// outside the ledger.
var sentinels = []sentinel{
	{tariff.ErrTariffNotFound, http.StatusNotFound, ledger.CodeNotFound},
	{tariff.ErrNoActivePlans, http.StatusNotFound, ledger.CodeNotFound},
	{tariff.ErrTariffInactive, http.StatusUnprocessableEntity, ledger.CodeTariffInactive},
	{tariff.ErrInvalidBillingPeriod, http.StatusBadRequest, ledger.CodeInvalidBillingPeriod},
	{tariff.ErrAmountOverflow, http.StatusUnprocessableEntity, "amount_overflow"},
	{invoice.ErrInvoiceNotFound, http.StatusNotFound, ledger.CodeNotFound},
	{invoice.ErrInvoiceImmutable, http.StatusConflict, ledger.CodeInvalidTransition},
	{verification.ErrNotRegistered, http.StatusNotFound, "not_registered"},
	{verification.ErrRegistryFailure, http.StatusBadGateway, "registry_unavailable"},
	{gateway.ErrInvalidSignature, http.StatusUnauthorized, "invalid_signature"},
	{gateway.ErrInvalidPayload, http.StatusBadRequest, "invalid_payload"},
	{gateway.ErrUnknownProvider, http.StatusNotFound, "unknown_provider"},
	{qrcode.ErrInvalidPayment, http.StatusUnprocessableEntity, "qr_unavailable"},
}

// classify maps domain errors onto the JSON error envelope. Validation
// failures are left to the handler package defaults.
func classify(err error) (int, *handler.ErrorDetail, bool) {
	var lerr *ledger.Error
	if errors.As(err, &lerr) {
		return StatusFor(lerr.Code()), &handler.ErrorDetail{Code: lerr.Code(), Message: lerr.Error()}, true
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.status, &handler.ErrorDetail{Code: s.code, Message: s.err.Error()}, true
		}
	}
	return 0, nil, false
}
