package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

// LocalName identifies the local provider in webhook routes and config.
const LocalName = "local"

// LocalConfig configures the local provider.
type LocalConfig struct {
	CheckoutBaseURL string `env:"LOCAL_PAYMENTS_CHECKOUT_URL" envDefault:"http://localhost:8080/pay"`
	WebhookSecret   string `env:"LOCAL_PAYMENTS_WEBHOOK_SECRET" envDefault:"local-secret"`
}

// Local is a provider without an external service.
// It generates PAY-{yymmdd}-{HEX8} ids and accepts verdicts signed with an
// HMAC-SHA256 of the raw body. Used in development and tests.
type Local struct {
	cfg LocalConfig
	now func() time.Time

	mu       sync.Mutex
	refunded map[string]tariff.Money
}

// NewLocal creates a Local provider.
func NewLocal(cfg LocalConfig) *Local {
	if cfg.WebhookSecret == "" {
		panic("gateway: local webhook secret is required")
	}
	return &Local{
		cfg:      cfg,
		now:      time.Now,
		refunded: make(map[string]tariff.Money),
	}
}

// WithClock replaces the time source. Returns l for chaining.
func (l *Local) WithClock(now func() time.Time) *Local {
	l.now = now
	return l
}

func (l *Local) Name() string { return LocalName }

func (l *Local) CreatePaymentIntent(_ context.Context, req Request) (*Intent, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	id := NewPaymentID(l.now())
	return &Intent{
		PaymentID:   id,
		CheckoutURL: strings.TrimRight(l.cfg.CheckoutBaseURL, "/") + "/" + id,
	}, nil
}

type localVerdict struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

// ParseVerdict expects {"payment_id": "...", "status": "succeeded|failed"}
// signed with Sign. Any other status is ignored.
func (l *Local) ParseVerdict(_ context.Context, payload []byte, signature string) (*Verdict, error) {
	if !hmac.Equal([]byte(l.Sign(payload)), []byte(strings.ToLower(strings.TrimSpace(signature)))) {
		return nil, ErrInvalidSignature
	}

	var v localVerdict
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	if v.PaymentID == "" {
		return nil, errors.Join(ErrInvalidPayload, errors.New("payment_id is empty"))
	}

	status, ok := ParseStatus(v.Status)
	if !ok {
		return nil, ErrIgnoredEvent
	}

	return &Verdict{PaymentID: v.PaymentID, Status: status, Provider: LocalName}, nil
}

// Sign returns the hex HMAC-SHA256 of payload with the webhook secret.
func (l *Local) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(l.cfg.WebhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Refund records the refund in memory. Refunding the same payment twice fails.
func (l *Local) Refund(_ context.Context, paymentID string, amount tariff.Money, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, done := l.refunded[paymentID]; done {
		return fmt.Errorf("%w: payment %s already refunded", ErrProviderFailure, paymentID)
	}
	l.refunded[paymentID] = amount
	return nil
}

// NewPaymentID generates a local payment id like PAY-250314-1A2B3C4D.
func NewPaymentID(at time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("PAY-%s-%s", at.UTC().Format("060102"), strings.ToUpper(hex.EncodeToString(id[:4])))
}

var (
	_ Provider = (*Local)(nil)
	_ Refunder = (*Local)(nil)
)
