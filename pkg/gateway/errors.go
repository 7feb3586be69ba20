package gateway

import "errors"

var (
	ErrIgnoredEvent      = errors.New("webhook event does not carry a payment verdict")
	ErrInvalidSignature  = errors.New("webhook signature verification failed")
	ErrInvalidPayload    = errors.New("invalid webhook payload")
	ErrInvalidRequest    = errors.New("invalid payment request")
	ErrProviderFailure   = errors.New("payment provider request failed")
	ErrInvalidConfig     = errors.New("invalid payment gateway configuration")
	ErrUnknownProvider   = errors.New("unknown payment provider")
	ErrPriceNotMapped    = errors.New("no provider price configured for tariff and period")
	ErrRefundUnsupported = errors.New("payment provider does not support refunds")
)
