package postgres_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tariffledger/internal/db/migrations"
	"github.com/dmitrymomot/tariffledger/internal/store/postgres"
	"github.com/dmitrymomot/tariffledger/pkg/gateway"
	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/pg"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

var t0 = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// newTestStore connects to PG_CONN_URL and applies migrations.
// The test is skipped when PG_CONN_URL is not set.
func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()
	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		t.Skip("PG_CONN_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString: url,
		MaxOpenConns:     8,
		RetryAttempts:    1,
		MigrationsTable:  "ledger_schema_migrations",
	}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pg.Migrate(ctx, pool, migrations.FS, cfg, slog.New(slog.DiscardHandler)))
	return postgres.New(pool)
}

func subject() string {
	return uuid.NewString()[:8] + "-subj"
}

func newSubscription(subjectID string, status ledger.Status) *ledger.Subscription {
	return &ledger.Subscription{
		ID:         uuid.New(),
		SubjectID:  subjectID,
		TariffCode: "professional",
		Period:     tariff.PeriodMonthly,
		Status:     status,
		StartAt:    t0,
		ExpiresAt:  t0.AddDate(0, 0, 30),
		AutoRenew:  true,
		LeadsLimit: 25,
		Features:   []tariff.Feature{tariff.FeatureBotIntegration},
		CreatedAt:  t0,
		UpdatedAt:  t0,
	}
}

func TestStore_Subscriptions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		sub := newSubscription(subject(), ledger.StatusActive)
		require.NoError(t, store.SaveSubscription(ctx, sub))

		got, err := store.GetSubscription(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, sub, got)

		live, err := store.GetActiveBySubject(ctx, sub.SubjectID)
		require.NoError(t, err)
		assert.Equal(t, sub.ID, live.ID)

		cancelledAt := t0.Add(time.Hour)
		sub.Status = ledger.StatusCancelled
		sub.CancelReason = "too expensive"
		sub.CancelledAt = &cancelledAt
		require.NoError(t, store.SaveSubscription(ctx, sub))

		_, err = store.GetActiveBySubject(ctx, sub.SubjectID)
		assert.ErrorIs(t, err, ledger.ErrNotFound)

		latest, err := store.GetLatestBySubject(ctx, sub.SubjectID)
		require.NoError(t, err)
		assert.Equal(t, "too expensive", latest.CancelReason)
		require.NotNil(t, latest.CancelledAt)
		assert.True(t, cancelledAt.Equal(*latest.CancelledAt))
	})

	t.Run("single live subscription", func(t *testing.T) {
		subjectID := subject()
		require.NoError(t, store.SaveSubscription(ctx, newSubscription(subjectID, ledger.StatusSuspended)))

		err := store.SaveSubscription(ctx, newSubscription(subjectID, ledger.StatusActive))
		assert.ErrorIs(t, err, ledger.ErrAlreadySubscribed)
		assert.Equal(t, ledger.CodeAlreadySubscribed, ledger.Code(err))

		require.NoError(t, store.SaveSubscription(ctx, newSubscription(subjectID, ledger.StatusExpired)))
	})

	t.Run("missing", func(t *testing.T) {
		_, err := store.GetSubscription(ctx, uuid.New())
		assert.ErrorIs(t, err, ledger.ErrNotFound)
		_, err = store.GetLatestBySubject(ctx, subject())
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})
}

func TestStore_Intents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	intent := &ledger.PaymentIntent{
		PaymentID:     gateway.NewPaymentID(t0) + uuid.NewString()[:4],
		InvoiceNumber: "INV-250314-subj01-0001",
		Amount:        tariff.Money{Amount: 500000, Currency: "RUB"},
		Status:        ledger.IntentPending,
		Metadata: gateway.Metadata{
			SubjectID:     subject(),
			TariffCode:    "professional",
			Period:        tariff.PeriodMonthly,
			InvoiceNumber: "INV-250314-subj01-0001",
		},
		Provider:     gateway.LocalName,
		CheckoutURL:  "http://pay.local/checkout",
		ClientSecret: "never-stored",
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}
	require.NoError(t, store.SaveIntent(ctx, intent))

	intent.Status = ledger.IntentSucceeded
	intent.UpdatedAt = t0.Add(time.Minute)
	require.NoError(t, store.SaveIntent(ctx, intent))

	got, err := store.GetIntent(ctx, intent.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, ledger.IntentSucceeded, got.Status)
	assert.Equal(t, intent.Metadata, got.Metadata)
	assert.Equal(t, intent.Amount, got.Amount)
	assert.Empty(t, got.ClientSecret)

	_, err = store.GetIntent(ctx, "PAY-missing")
	assert.ErrorIs(t, err, ledger.ErrUnknownPaymentIntent)
}

func TestStore_Atomic(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("rolls back subscription and intent together", func(t *testing.T) {
		sub := newSubscription(subject(), ledger.StatusActive)
		require.NoError(t, store.SaveSubscription(ctx, sub))

		intent := &ledger.PaymentIntent{
			PaymentID:     gateway.NewPaymentID(t0) + uuid.NewString()[:4],
			InvoiceNumber: "INV-250314-subj01-0002",
			Amount:        tariff.Money{Amount: 500000, Currency: "RUB"},
			Status:        ledger.IntentPending,
			Metadata:      gateway.Metadata{SubjectID: sub.SubjectID, TariffCode: "professional", Period: tariff.PeriodMonthly},
			CreatedAt:     t0,
			UpdatedAt:     t0,
		}
		require.NoError(t, store.SaveIntent(ctx, intent))

		boom := errors.New("boom")
		err := store.Atomic(ctx, func(tx ledger.Repository) error {
			extended := sub.Clone()
			extended.ExpiresAt = sub.ExpiresAt.AddDate(0, 0, 30)
			if err := tx.SaveSubscription(ctx, extended); err != nil {
				return err
			}
			settled := intent.Clone()
			settled.Status = ledger.IntentSucceeded
			if err := tx.SaveIntent(ctx, settled); err != nil {
				return err
			}
			// nested calls join the open transaction
			return tx.Atomic(ctx, func(ledger.Repository) error { return boom })
		})
		assert.ErrorIs(t, err, boom)

		got, err := store.GetSubscription(ctx, sub.ID)
		require.NoError(t, err)
		assert.True(t, sub.ExpiresAt.Equal(got.ExpiresAt))

		stored, err := store.GetIntent(ctx, intent.PaymentID)
		require.NoError(t, err)
		assert.Equal(t, ledger.IntentPending, stored.Status)
	})

	t.Run("commits on success", func(t *testing.T) {
		sub := newSubscription(subject(), ledger.StatusActive)
		err := store.Atomic(ctx, func(tx ledger.Repository) error {
			return tx.SaveSubscription(ctx, sub)
		})
		require.NoError(t, err)

		got, err := store.GetSubscription(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, sub.ID, got.ID)
	})
}

func TestStore_Invoices(t *testing.T) {
	store := newTestStore(t)
	invoices := store.Invoices()
	ctx := context.Background()
	subjectID := subject()

	inv := &invoice.Invoice{
		Number:     invoice.FormatNumber("INV", t0, subjectID, 1),
		SubjectID:  subjectID,
		TariffCode: "start",
		Period:     tariff.PeriodQuarterly,
		Amount:     tariff.Money{Amount: 1350000, Currency: "RUB"},
		Status:     invoice.StatusPending,
		IssuedAt:   t0,
		DueAt:      t0.AddDate(0, 0, 3),
	}
	require.NoError(t, invoices.Create(ctx, inv))
	assert.ErrorIs(t, invoices.Create(ctx, inv), invoice.ErrDuplicateNumber)

	paidAt := t0.Add(time.Hour)
	updated, err := invoices.Update(ctx, inv.Number, func(i *invoice.Invoice) error {
		i.Status = invoice.StatusPaid
		i.PaidAt = &paidAt
		i.PaymentID = "PAY-1"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPaid, updated.Status)

	list, err := invoices.ListBySubject(ctx, subjectID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "PAY-1", list[0].PaymentID)
	require.NotNil(t, list[0].PaidAt)
	assert.True(t, paidAt.Equal(*list[0].PaidAt))

	_, err = invoices.Update(ctx, inv.Number, func(i *invoice.Invoice) error { return invoice.ErrInvoiceImmutable })
	assert.ErrorIs(t, err, invoice.ErrInvoiceImmutable)

	_, err = invoices.Get(ctx, "INV-missing")
	assert.ErrorIs(t, err, invoice.ErrInvoiceNotFound)
}

func TestSequence(t *testing.T) {
	store := newTestStore(t)
	seq := store.Sequence()
	ctx := context.Background()
	subjectID := subject()

	for want := int64(1); want <= 3; want++ {
		got, err := seq.Next(ctx, subjectID, t0)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := seq.Next(ctx, subjectID, t0.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "counter restarts on a new day")
}

func TestStore_LedgerEndToEnd(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	catalog, err := tariff.NewCatalog(ctx, tariff.NewInMemSource(tariff.DefaultPlans()...))
	require.NoError(t, err)

	now := func() time.Time { return t0 }
	issuer := invoice.NewIssuer(catalog, store.Invoices(), store.Sequence(), invoice.WithClock(now))
	gw := gateway.NewLocal(gateway.LocalConfig{CheckoutBaseURL: "http://pay.local", WebhookSecret: "secret"}).WithClock(now)
	l := ledger.New(catalog, issuer, gw, store, ledger.WithClock(now))

	subjectID := subject()
	intent, inv, err := l.RequestPayment(ctx, subjectID, "professional", tariff.PeriodMonthly)
	require.NoError(t, err)
	assert.Equal(t, inv.Number, intent.InvoiceNumber)

	_, sub, err := l.RecordPaymentVerdict(ctx, intent.PaymentID, gateway.StatusSucceeded)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, ledger.StatusActive, sub.Status)

	paid, err := issuer.Get(ctx, inv.Number)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPaid, paid.Status)

	_, err = l.ActivateSubscription(ctx, subjectID, "start", tariff.PeriodMonthly)
	assert.ErrorIs(t, err, ledger.ErrAlreadySubscribed)
}
