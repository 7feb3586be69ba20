package postgres

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/tariffledger/pkg/gateway"
	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/pg"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

// GetIntent loads a payment intent. The client secret is never stored.
func (s *Store) GetIntent(ctx context.Context, paymentID string) (*ledger.PaymentIntent, error) {
	var (
		intent ledger.PaymentIntent
		status string
		period string
	)
	err := s.db.QueryRow(ctx,
		`SELECT payment_id, invoice_number, amount, currency, status, subject_id, tariff_code,
			period, provider, checkout_url, created_at, updated_at
		 FROM payment_intents WHERE payment_id = $1`, paymentID,
	).Scan(
		&intent.PaymentID, &intent.InvoiceNumber, &intent.Amount.Amount, &intent.Amount.Currency,
		&status, &intent.Metadata.SubjectID, &intent.Metadata.TariffCode, &period,
		&intent.Provider, &intent.CheckoutURL, &intent.CreatedAt, &intent.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ledger.ErrUnknownPaymentIntent
		}
		return nil, fmt.Errorf("get payment intent: %w", err)
	}

	intent.Status = ledger.IntentStatus(status)
	intent.Metadata.Period = tariff.Period(period)
	intent.Metadata.InvoiceNumber = intent.InvoiceNumber
	intent.CreatedAt = intent.CreatedAt.UTC()
	intent.UpdatedAt = intent.UpdatedAt.UTC()
	return &intent, nil
}

func (s *Store) SaveIntent(ctx context.Context, intent *ledger.PaymentIntent) error {
	meta := intent.Metadata
	_, err := s.db.Exec(ctx,
		`INSERT INTO payment_intents (payment_id, invoice_number, amount, currency, status,
			subject_id, tariff_code, period, provider, checkout_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (payment_id) DO UPDATE SET
			status       = EXCLUDED.status,
			checkout_url = EXCLUDED.checkout_url,
			updated_at   = EXCLUDED.updated_at`,
		intent.PaymentID, intent.InvoiceNumber, intent.Amount.Amount, currencyOf(intent.Amount),
		string(intent.Status), meta.SubjectID, meta.TariffCode, string(meta.Period),
		providerOf(intent), intent.CheckoutURL, intent.CreatedAt, intent.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save payment intent: %w", err)
	}
	return nil
}

func currencyOf(m tariff.Money) string {
	if m.Currency == "" {
		return tariff.DefaultCurrency
	}
	return m.Currency
}

func providerOf(intent *ledger.PaymentIntent) string {
	if intent.Provider == "" {
		return gateway.LocalName
	}
	return intent.Provider
}
