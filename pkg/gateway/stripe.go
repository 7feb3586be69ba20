package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

// StripeName identifies the Stripe provider in webhook routes and config.
const StripeName = "stripe"

// StripeConfig holds configuration for the Stripe provider.
type StripeConfig struct {
	APIKey        string `env:"STRIPE_API_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
}

// Stripe collects payments with PaymentIntents confirmed on the client.
type Stripe struct {
	intents       paymentintent.Client
	refunds       refund.Client
	webhookSecret string
}

// NewStripe creates a Stripe provider. The API key is scoped to the
// provider's clients rather than set globally.
func NewStripe(cfg StripeConfig) (*Stripe, error) {
	if cfg.APIKey == "" {
		return nil, errors.Join(ErrInvalidConfig, errors.New("stripe API key is required"))
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.Join(ErrInvalidConfig, errors.New("stripe webhook secret is required"))
	}

	backend := stripe.GetBackend(stripe.APIBackend)
	return &Stripe{
		intents:       paymentintent.Client{B: backend, Key: cfg.APIKey},
		refunds:       refund.Client{B: backend, Key: cfg.APIKey},
		webhookSecret: cfg.WebhookSecret,
	}, nil
}

func (s *Stripe) Name() string { return StripeName }

func (s *Stripe) CreatePaymentIntent(ctx context.Context, req Request) (*Intent, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount.Amount),
		Currency:    stripe.String(strings.ToLower(req.Amount.Currency)),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	for k, v := range req.Metadata.Map() {
		params.AddMetadata(k, v)
	}

	pi, err := s.intents.New(params)
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, fmt.Errorf("create stripe payment intent: %w", err))
	}

	return &Intent{
		PaymentID:    pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// ParseVerdict verifies the Stripe-Signature header and maps PaymentIntent events.
func (s *Stripe) ParseVerdict(_ context.Context, payload []byte, signature string) (*Verdict, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	var status Status
	switch event.Type {
	case "payment_intent.succeeded":
		status = StatusSucceeded
	case "payment_intent.payment_failed":
		status = StatusFailed
	default:
		return nil, ErrIgnoredEvent
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, errors.Join(ErrInvalidPayload, fmt.Errorf("parse payment intent: %w", err))
	}

	return &Verdict{
		PaymentID: pi.ID,
		Status:    status,
		Metadata:  MetadataFromMap(pi.Metadata),
		Provider:  StripeName,
	}, nil
}

// Refund returns the amount of a succeeded PaymentIntent.
// The free-form reason is stored in refund metadata.
func (s *Stripe) Refund(ctx context.Context, paymentID string, amount tariff.Money, reason string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentID),
		Amount:        stripe.Int64(amount.Amount),
	}
	params.Context = ctx
	if reason != "" {
		params.AddMetadata("reason", reason)
	}

	if _, err := s.refunds.New(params); err != nil {
		return errors.Join(ErrProviderFailure, fmt.Errorf("create stripe refund: %w", err))
	}
	return nil
}

var (
	_ Provider = (*Stripe)(nil)
	_ Refunder = (*Stripe)(nil)
)
