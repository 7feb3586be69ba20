package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleName identifies the Paddle provider in webhook routes and config.
const PaddleName = "paddle"

// PaddleConfig holds configuration for the Paddle provider.
// PriceIDs maps "{tariff}.{period}" to a Paddle catalog price, for example
// PADDLE_PRICE_IDS="professional.monthly=pri_01h...,professional.yearly=pri_01j...".
type PaddleConfig struct {
	APIKey        string            `env:"PADDLE_API_KEY"`
	WebhookSecret string            `env:"PADDLE_WEBHOOK_SECRET"`
	Environment   string            `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	PriceIDs      map[string]string `env:"PADDLE_PRICE_IDS" envKeyValSeparator:"="`
}

// Paddle collects payments through Paddle Billing transactions.
type Paddle struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	priceIDs map[string]string
}

// NewPaddle creates a Paddle provider.
func NewPaddle(cfg PaddleConfig) (*Paddle, error) {
	if cfg.APIKey == "" {
		return nil, errors.Join(ErrInvalidConfig, errors.New("paddle API key is required"))
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.Join(ErrInvalidConfig, errors.New("paddle webhook secret is required"))
	}

	var (
		client *paddle.SDK
		err    error
	)
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, errors.Join(ErrInvalidConfig, fmt.Errorf("invalid paddle environment: %s", cfg.Environment))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &Paddle{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
		priceIDs: cfg.PriceIDs,
	}, nil
}

func (p *Paddle) Name() string { return PaddleName }

// CreatePaymentIntent opens a Paddle transaction for the catalog price mapped
// to the tariff and period. The invoice amount is authoritative on our side;
// the Paddle price must be configured to match it.
func (p *Paddle) CreatePaymentIntent(ctx context.Context, req Request) (*Intent, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	priceID, ok := p.priceIDs[req.Metadata.TariffCode+"."+string(req.Metadata.Period)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrPriceNotMapped, req.Metadata.TariffCode, req.Metadata.Period)
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  priceID,
		Quantity: 1,
	})

	customData := paddle.CustomData{}
	for k, v := range req.Metadata.Map() {
		customData[k] = v
	}

	txn, err := p.client.TransactionsClient.CreateTransaction(ctx, &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomData: customData,
	})
	if err != nil {
		return nil, errors.Join(ErrProviderFailure, fmt.Errorf("create paddle transaction: %w", err))
	}

	if txn.Checkout == nil || txn.Checkout.URL == nil {
		return nil, errors.Join(ErrProviderFailure, errors.New("no checkout URL returned from paddle"))
	}

	return &Intent{
		PaymentID:   txn.ID,
		CheckoutURL: *txn.Checkout.URL,
	}, nil
}

type paddleEvent struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Data      struct {
		ID         string         `json:"id"`
		Status     string         `json:"status"`
		CustomData map[string]any `json:"custom_data"`
	} `json:"data"`
}

// ParseVerdict verifies the Paddle-Signature header and maps transaction events.
func (p *Paddle) ParseVerdict(ctx context.Context, payload []byte, signature string) (*Verdict, error) {
	// the SDK verifier works on requests
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	var event paddleEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}

	var status Status
	switch event.EventType {
	case "transaction.paid", "transaction.completed":
		status = StatusSucceeded
	case "transaction.payment_failed":
		status = StatusFailed
	default:
		return nil, ErrIgnoredEvent
	}

	if event.Data.ID == "" {
		return nil, errors.Join(ErrInvalidPayload, errors.New("transaction id is empty"))
	}

	return &Verdict{
		PaymentID: event.Data.ID,
		Status:    status,
		Metadata:  metadataFromAny(event.Data.CustomData),
		Provider:  PaddleName,
	}, nil
}

var _ Provider = (*Paddle)(nil)
