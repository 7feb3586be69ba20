package gateway_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tariffledger/pkg/gateway"
)

const paddleSecret = "pdl_ntfset_test"

func paddleEvent(eventType string) []byte {
	return fmt.Appendf(nil, `{
  "event_id": "evt_01",
  "event_type": %q,
  "occurred_at": "2025-03-14T12:00:00Z",
  "data": {
    "id": "txn_01",
    "status": "completed",
    "custom_data": {
      "subject_id": "acme",
      "tariff_code": "start",
      "period": "yearly",
      "invoice_number": "INV-250314-ACME-0002"
    }
  }
}`, eventType)
}

func paddleSignature(payload []byte, secret string) string {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + ":"))
	mac.Write(payload)
	return "ts=" + ts + ";h1=" + hex.EncodeToString(mac.Sum(nil))
}

func TestPaddle_ParseVerdict(t *testing.T) {
	t.Parallel()

	p, err := gateway.NewPaddle(gateway.PaddleConfig{
		APIKey:        "pdl_test_key",
		WebhookSecret: paddleSecret,
		Environment:   "sandbox",
	})
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("completed transaction", func(t *testing.T) {
		t.Parallel()
		payload := paddleEvent("transaction.completed")
		v, err := p.ParseVerdict(ctx, payload, paddleSignature(payload, paddleSecret))
		require.NoError(t, err)
		assert.Equal(t, "txn_01", v.PaymentID)
		assert.Equal(t, gateway.StatusSucceeded, v.Status)
		assert.Equal(t, "acme", v.Metadata.SubjectID)
		assert.Equal(t, "INV-250314-ACME-0002", v.Metadata.InvoiceNumber)
	})

	t.Run("payment failed", func(t *testing.T) {
		t.Parallel()
		payload := paddleEvent("transaction.payment_failed")
		v, err := p.ParseVerdict(ctx, payload, paddleSignature(payload, paddleSecret))
		require.NoError(t, err)
		assert.Equal(t, gateway.StatusFailed, v.Status)
	})

	t.Run("subscription event is ignored", func(t *testing.T) {
		t.Parallel()
		payload := paddleEvent("subscription.updated")
		_, err := p.ParseVerdict(ctx, payload, paddleSignature(payload, paddleSecret))
		assert.ErrorIs(t, err, gateway.ErrIgnoredEvent)
	})

	t.Run("tampered body", func(t *testing.T) {
		t.Parallel()
		payload := paddleEvent("transaction.completed")
		sig := paddleSignature(payload, paddleSecret)
		_, err := p.ParseVerdict(ctx, paddleEvent("transaction.paid"), sig)
		assert.ErrorIs(t, err, gateway.ErrInvalidSignature)
	})
}

func TestPaddle_PriceMapping(t *testing.T) {
	t.Parallel()

	p, err := gateway.NewPaddle(gateway.PaddleConfig{APIKey: "k", WebhookSecret: "s"})
	require.NoError(t, err)

	_, err = p.CreatePaymentIntent(context.Background(), validRequest())
	assert.ErrorIs(t, err, gateway.ErrPriceNotMapped)

	_, err = gateway.NewPaddle(gateway.PaddleConfig{APIKey: "k", WebhookSecret: "s", Environment: "staging"})
	assert.ErrorIs(t, err, gateway.ErrInvalidConfig)
}
