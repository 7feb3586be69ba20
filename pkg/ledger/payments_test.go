package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tariffledger/pkg/gateway"
	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) CreatePaymentIntent(ctx context.Context, req gateway.Request) (*gateway.Intent, error) {
	args := m.Called(ctx, req)
	if intent := args.Get(0); intent != nil {
		return intent.(*gateway.Intent), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRequestPayment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	intent, inv, err := f.ledger.RequestPayment(ctx, "S1", "professional", tariff.PeriodQuarterly)
	require.NoError(t, err)

	assert.Equal(t, ledger.IntentPending, intent.Status)
	assert.Equal(t, gateway.LocalName, intent.Provider)
	assert.Equal(t, inv.Number, intent.InvoiceNumber)
	assert.Equal(t, tariff.Money{Amount: 1350000, Currency: "RUB"}, intent.Amount)
	assert.Equal(t, gateway.Metadata{
		SubjectID:     "S1",
		TariffCode:    "professional",
		Period:        tariff.PeriodQuarterly,
		InvoiceNumber: inv.Number,
	}, intent.Metadata)
	assert.NotEmpty(t, intent.CheckoutURL)
	assert.Equal(t, invoice.StatusPending, inv.Status)

	stored, err := f.ledger.GetPaymentIntent(ctx, intent.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, intent.PaymentID, stored.PaymentID)

	_, err = f.ledger.GetActive(ctx, "S1")
	assert.ErrorIs(t, err, ledger.ErrNotFound, "requesting a payment does not activate anything")

	_, _, err = f.ledger.RequestPayment(ctx, "S1", "archived", tariff.PeriodMonthly)
	assert.ErrorIs(t, err, ledger.ErrTariffInactive)

	_, _, err = f.ledger.RequestPayment(ctx, "", "start", tariff.PeriodMonthly)
	assert.ErrorIs(t, err, ledger.ErrInvalidInput)
}

func TestRequestPayment_FreePlan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	catalog, err := tariff.NewCatalog(ctx, tariff.NewInMemSource(tariff.DefaultPlans()...))
	require.NoError(t, err)
	store := invoice.NewMemoryStore()
	issuer := invoice.NewIssuer(catalog, store, invoice.NewMemorySequence())
	gw := &mockGateway{}
	l := ledger.New(catalog, issuer, gw, ledger.NewMemoryRepository())

	intent, inv, err := l.RequestPayment(ctx, "S1", "free", tariff.PeriodMonthly)
	assert.ErrorIs(t, err, ledger.ErrFreePlan)
	assert.Equal(t, ledger.CodeInvalidInput, ledger.Code(err))
	assert.Contains(t, err.Error(), "activate the subscription directly")
	assert.Nil(t, intent)
	assert.Nil(t, inv)

	issued, err := store.ListBySubject(ctx, "S1")
	require.NoError(t, err)
	assert.Empty(t, issued, "no invoice is issued for a free plan")
	gw.AssertNotCalled(t, "CreatePaymentIntent", mock.Anything, mock.Anything)

	sub, err := l.ActivateSubscription(ctx, "S1", "free", tariff.PeriodMonthly)
	require.NoError(t, err)
	assert.Equal(t, "free", sub.TariffCode)
}

func TestRequestPayment_GatewayFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	catalog, err := tariff.NewCatalog(ctx, tariff.NewInMemSource(tariff.DefaultPlans()...))
	require.NoError(t, err)
	issuer := invoice.NewIssuer(catalog, invoice.NewMemoryStore(), invoice.NewMemorySequence())

	gw := &mockGateway{}
	gw.On("CreatePaymentIntent", mock.Anything, mock.AnythingOfType("gateway.Request")).
		Return(nil, errors.New("connection refused")).Once()

	l := ledger.New(catalog, issuer, gw, ledger.NewMemoryRepository())

	_, inv, err := l.RequestPayment(ctx, "S1", "start", tariff.PeriodMonthly)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrGateway)
	assert.Equal(t, ledger.CodeGatewayError, ledger.Code(err))
	require.NotNil(t, inv, "the invoice stays issued")

	gw.On("CreatePaymentIntent", mock.Anything, mock.AnythingOfType("gateway.Request")).
		Return(&gateway.Intent{PaymentID: "mock-1"}, nil).Once()
	intent, _, err := l.RequestPayment(ctx, "S1", "start", tariff.PeriodMonthly)
	require.NoError(t, err)
	assert.Equal(t, "mock", intent.Provider)
	gw.AssertExpectations(t)

	_, _, err = l.RecordPaymentVerdict(ctx, "mock-1", gateway.StatusSucceeded)
	require.NoError(t, err)

	_, err = l.RefundPayment(ctx, "mock-1", "x")
	assert.ErrorIs(t, err, ledger.ErrGateway)
	assert.ErrorIs(t, err, gateway.ErrRefundUnsupported)

	_, err = l.RefundPayment(ctx, "PAY-unknown", "x")
	assert.ErrorIs(t, err, ledger.ErrUnknownPaymentIntent)
}

func TestRecordPaymentVerdict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("success activates and marks the invoice paid", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		intent, inv, err := f.ledger.RequestPayment(ctx, "S1", "professional", tariff.PeriodMonthly)
		require.NoError(t, err)

		f.clock.Advance(5 * time.Minute)
		paid, sub, err := f.ledger.RecordPaymentVerdict(ctx, intent.PaymentID, gateway.StatusSucceeded)
		require.NoError(t, err)
		assert.Equal(t, ledger.IntentSucceeded, paid.Status)
		require.NotNil(t, sub)
		assert.Equal(t, ledger.StatusActive, sub.Status)
		assert.Equal(t, "professional", sub.TariffCode)
		assert.Equal(t, int64(25), sub.LeadsLimit)
		assert.Equal(t, intent.PaymentID, sub.LastPaymentID)
		assert.Equal(t, f.clock.Now().Add(days(30)), sub.ExpiresAt)

		settled, err := f.issuer.Get(ctx, inv.Number)
		require.NoError(t, err)
		assert.Equal(t, invoice.StatusPaid, settled.Status)
		assert.Equal(t, intent.PaymentID, settled.PaymentID)

		assert.Equal(t, []string{"subscription:activate", "payment:payment_succeeded"}, f.events.Events())

		t.Run("re-delivery is a no-op", func(t *testing.T) {
			again, sameSub, err := f.ledger.RecordPaymentVerdict(ctx, intent.PaymentID, gateway.StatusSucceeded)
			require.NoError(t, err)
			assert.Equal(t, paid, again)
			assert.Equal(t, sub, sameSub)
			assert.Len(t, f.events.Events(), 2)
		})

		t.Run("conflicting verdict is rejected", func(t *testing.T) {
			_, _, err := f.ledger.RecordPaymentVerdict(ctx, intent.PaymentID, gateway.StatusFailed)
			assert.ErrorIs(t, err, ledger.ErrInvalidTransition)
		})
	})

	t.Run("failure leaves subscriptions alone", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		intent, inv, err := f.ledger.RequestPayment(ctx, "S1", "start", tariff.PeriodMonthly)
		require.NoError(t, err)

		failed, sub, err := f.ledger.RecordPaymentVerdict(ctx, intent.PaymentID, gateway.StatusFailed)
		require.NoError(t, err)
		assert.Equal(t, ledger.IntentFailed, failed.Status)
		assert.Nil(t, sub)

		pending, err := f.issuer.Get(ctx, inv.Number)
		require.NoError(t, err)
		assert.Equal(t, invoice.StatusPending, pending.Status)

		_, _, err = f.ledger.RecordPaymentVerdict(ctx, intent.PaymentID, gateway.StatusSucceeded)
		assert.ErrorIs(t, err, ledger.ErrInvalidTransition)
	})

	t.Run("payment for a live subscription extends it", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		current, err := f.ledger.ActivateSubscription(ctx, "S1", "start", tariff.PeriodMonthly)
		require.NoError(t, err)
		_, err = f.ledger.RecordLeadUsage(ctx, "S1")
		require.NoError(t, err)

		f.clock.Advance(days(20))
		intent, _, err := f.ledger.RequestPayment(ctx, "S1", "business", tariff.PeriodMonthly)
		require.NoError(t, err)
		_, sub, err := f.ledger.RecordPaymentVerdict(ctx, intent.PaymentID, gateway.StatusSucceeded)
		require.NoError(t, err)

		assert.Equal(t, current.ID, sub.ID)
		assert.Equal(t, "business", sub.TariffCode)
		assert.Equal(t, int64(100), sub.LeadsLimit)
		assert.Zero(t, sub.LeadsUsed)
		assert.Equal(t, current.ExpiresAt.Add(days(30)), sub.ExpiresAt)
	})

	t.Run("payment for a suspended subscription keeps it suspended", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		current, err := f.ledger.ActivateSubscription(ctx, "S1", "start", tariff.PeriodMonthly)
		require.NoError(t, err)
		_, err = f.ledger.SuspendSubscription(ctx, current.ID)
		require.NoError(t, err)

		intent, _, err := f.ledger.RequestPayment(ctx, "S1", "start", tariff.PeriodMonthly)
		require.NoError(t, err)
		_, sub, err := f.ledger.RecordPaymentVerdict(ctx, intent.PaymentID, gateway.StatusSucceeded)
		require.NoError(t, err)

		assert.Equal(t, ledger.StatusSuspended, sub.Status)
		assert.Equal(t, "start", sub.TariffCode)
		assert.Equal(t, current.ExpiresAt.Add(days(30)), sub.ExpiresAt)
	})

	t.Run("payment for another tariff while suspended switches the plan", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		current, err := f.ledger.ActivateSubscription(ctx, "S1", "start", tariff.PeriodMonthly)
		require.NoError(t, err)
		_, err = f.ledger.SuspendSubscription(ctx, current.ID)
		require.NoError(t, err)

		intent, _, err := f.ledger.RequestPayment(ctx, "S1", "business", tariff.PeriodMonthly)
		require.NoError(t, err)
		_, sub, err := f.ledger.RecordPaymentVerdict(ctx, intent.PaymentID, gateway.StatusSucceeded)
		require.NoError(t, err)

		assert.Equal(t, ledger.StatusSuspended, sub.Status)
		assert.Equal(t, "business", sub.TariffCode)
		assert.Equal(t, int64(100), sub.LeadsLimit)
		assert.True(t, sub.HasFeature(tariff.FeatureAPIAccess))
		assert.Equal(t, current.ExpiresAt.Add(days(30)), sub.ExpiresAt)
		assert.Equal(t, []string{
			"subscription:activate",
			"subscription:suspend",
			"subscription:upgrade",
			"subscription:renew",
			"payment:payment_succeeded",
		}, f.events.Events())

		_, err = f.ledger.UpgradeTariff(ctx, "S1", "professional")
		assert.ErrorIs(t, err, ledger.ErrInvalidTransition, "unpaid plan changes still need an active subscription")

		resumed, err := f.ledger.ResumeSubscription(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, "business", resumed.TariffCode)
	})

	t.Run("unknown payment", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, _, err := f.ledger.RecordPaymentVerdict(ctx, "PAY-250314-DEADBEEF", gateway.StatusSucceeded)
		assert.ErrorIs(t, err, ledger.ErrUnknownPaymentIntent)
		assert.Equal(t, ledger.CodeUnknownPaymentIntent, ledger.Code(err))
	})

	t.Run("unknown verdict", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		_, _, err := f.ledger.RecordPaymentVerdict(ctx, "PAY-250314-DEADBEEF", gateway.Status("maybe"))
		assert.ErrorIs(t, err, ledger.ErrInvalidInput)
	})
}

func TestRecordPaymentVerdict_SignedWebhook(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	intent, _, err := f.ledger.RequestPayment(ctx, "S1", "start", tariff.PeriodMonthly)
	require.NoError(t, err)

	payload := []byte(`{"payment_id":"` + intent.PaymentID + `","status":"succeeded"}`)
	verdict, err := f.gateway.ParseVerdict(ctx, payload, f.gateway.Sign(payload))
	require.NoError(t, err)

	_, sub, err := f.ledger.RecordPaymentVerdict(ctx, verdict.PaymentID, verdict.Status)
	require.NoError(t, err)
	assert.Equal(t, "start", sub.TariffCode)
}

func TestRefundPayment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	intent, _, err := f.ledger.RequestPayment(ctx, "S1", "professional", tariff.PeriodMonthly)
	require.NoError(t, err)

	_, err = f.ledger.RefundPayment(ctx, intent.PaymentID, "too early")
	assert.ErrorIs(t, err, ledger.ErrInvalidTransition, "pending payments cannot be refunded")

	_, _, err = f.ledger.RecordPaymentVerdict(ctx, intent.PaymentID, gateway.StatusSucceeded)
	require.NoError(t, err)

	refunded, err := f.ledger.RefundPayment(ctx, intent.PaymentID, "duplicate charge")
	require.NoError(t, err)
	assert.Equal(t, ledger.IntentRefunded, refunded.Status)

	_, err = f.ledger.GetActive(ctx, "S1")
	assert.ErrorIs(t, err, ledger.ErrNotFound)

	latest, err := f.repo.GetLatestBySubject(ctx, "S1")
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCancelled, latest.Status)
	assert.Equal(t, "refund: duplicate charge", latest.CancelReason)

	again, err := f.ledger.RefundPayment(ctx, intent.PaymentID, "duplicate charge")
	require.NoError(t, err)
	assert.Equal(t, refunded, again)

	assert.Equal(t, []string{
		"subscription:activate",
		"payment:payment_succeeded",
		"payment:payment_refunded",
		"subscription:cancel",
	}, f.events.Events())
}
