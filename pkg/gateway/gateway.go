package gateway

import (
	"context"

	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

// Status is the outcome reported by a provider for a payment.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ParseStatus converts provider-agnostic input ("succeeded", "failed").
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusSucceeded, StatusFailed:
		return Status(s), true
	}
	return "", false
}

// Request describes the money to collect.
type Request struct {
	Amount      tariff.Money
	Description string
	Metadata    Metadata
}

// Intent is what the provider returns for a created payment.
type Intent struct {
	PaymentID    string
	CheckoutURL  string // hosted payment page, empty for client-side flows
	ClientSecret string // Stripe client-side confirmation secret
}

// Verdict is a parsed, authenticated payment outcome.
type Verdict struct {
	PaymentID string
	Status    Status
	Metadata  Metadata
	Provider  string
}

// Gateway creates payment intents at a provider.
type Gateway interface {
	Name() string
	CreatePaymentIntent(ctx context.Context, req Request) (*Intent, error)
}

// WebhookParser authenticates provider callbacks and extracts verdicts.
// Events that carry no verdict yield ErrIgnoredEvent.
type WebhookParser interface {
	ParseVerdict(ctx context.Context, payload []byte, signature string) (*Verdict, error)
}

// Refunder is implemented by providers that can return captured money.
type Refunder interface {
	Refund(ctx context.Context, paymentID string, amount tariff.Money, reason string) error
}

// Provider is a gateway that also understands its own webhooks.
type Provider interface {
	Gateway
	WebhookParser
}

func validateRequest(req Request) error {
	if req.Amount.Amount <= 0 {
		return ErrInvalidRequest
	}
	if req.Amount.Currency == "" {
		return ErrInvalidRequest
	}
	if req.Metadata.SubjectID == "" || req.Metadata.InvoiceNumber == "" {
		return ErrInvalidRequest
	}
	return nil
}
