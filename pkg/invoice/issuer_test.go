package invoice_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

var issueTime = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

func newCatalog(t *testing.T) *tariff.Catalog {
	t.Helper()
	plans := append(tariff.DefaultPlans(), tariff.Plan{
		Code:   "legacy",
		Name:   "Legacy",
		Prices: map[tariff.Period]tariff.Money{tariff.PeriodMonthly: {Amount: 100, Currency: "RUB"}},
	})
	c, err := tariff.NewCatalog(context.Background(), tariff.NewInMemSource(plans...))
	require.NoError(t, err)
	return c
}

func newIssuer(t *testing.T, now *time.Time, opts ...invoice.Option) *invoice.Issuer {
	t.Helper()
	opts = append([]invoice.Option{invoice.WithClock(func() time.Time { return *now })}, opts...)
	return invoice.NewIssuer(newCatalog(t), invoice.NewMemoryStore(), invoice.NewMemorySequence(), opts...)
}

func number(day time.Time, subjectID string, seq int64) string {
	return invoice.FormatNumber("INV", day, subjectID, seq)
}

func TestIssuer_Issue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("creates pending invoice", func(t *testing.T) {
		t.Parallel()
		now := issueTime
		issuer := newIssuer(t, &now)

		inv, err := issuer.Issue(ctx, "partner-42", "professional", tariff.PeriodMonthly)
		require.NoError(t, err)

		assert.Regexp(t, `^INV-250314-PARTNE-[0-9A-F]{6}-0001$`, inv.Number)
		assert.Equal(t, number(issueTime, "partner-42", 1), inv.Number)
		assert.Equal(t, invoice.StatusPending, inv.Status)
		assert.Equal(t, int64(500000), inv.Amount.Amount)
		assert.Equal(t, "RUB", inv.Amount.Currency)
		assert.Equal(t, issueTime.Add(72*time.Hour), inv.DueAt)

		stored, err := issuer.Get(ctx, inv.Number)
		require.NoError(t, err)
		assert.Equal(t, inv, stored)
	})

	t.Run("numbers increase per subject and day", func(t *testing.T) {
		t.Parallel()
		now := issueTime
		issuer := newIssuer(t, &now)

		var numbers []string
		for range 3 {
			inv, err := issuer.Issue(ctx, "acme", "start", tariff.PeriodMonthly)
			require.NoError(t, err)
			numbers = append(numbers, inv.Number)
		}
		assert.Equal(t, []string{
			number(issueTime, "acme", 1),
			number(issueTime, "acme", 2),
			number(issueTime, "acme", 3),
		}, numbers)

		other, err := issuer.Issue(ctx, "globex", "start", tariff.PeriodMonthly)
		require.NoError(t, err)
		assert.Equal(t, number(issueTime, "globex", 1), other.Number)

		now = issueTime.Add(24 * time.Hour)
		nextDay, err := issuer.Issue(ctx, "acme", "start", tariff.PeriodMonthly)
		require.NoError(t, err)
		assert.Equal(t, number(now, "acme", 1), nextDay.Number)

		list, err := issuer.ListBySubject(ctx, "acme")
		require.NoError(t, err)
		assert.Len(t, list, 4)
	})

	t.Run("subjects sharing a prefix never collide", func(t *testing.T) {
		t.Parallel()
		now := issueTime
		issuer := newIssuer(t, &now)

		a, err := issuer.Issue(ctx, "partner-a", "start", tariff.PeriodMonthly)
		require.NoError(t, err)
		b, err := issuer.Issue(ctx, "partner-b", "start", tariff.PeriodMonthly)
		require.NoError(t, err)

		assert.Equal(t, number(issueTime, "partner-a", 1), a.Number)
		assert.Equal(t, number(issueTime, "partner-b", 1), b.Number)
		assert.NotEqual(t, a.Number, b.Number)
	})

	t.Run("many subjects sharing a prefix on one day", func(t *testing.T) {
		t.Parallel()
		now := issueTime
		issuer := newIssuer(t, &now)

		seen := make(map[string]string)
		for i := 1; i <= 8; i++ {
			subject := fmt.Sprintf("PART%03d", i)
			inv, err := issuer.Issue(ctx, subject, "start", tariff.PeriodMonthly)
			require.NoError(t, err, subject)
			assert.True(t, strings.HasPrefix(inv.Number, "INV-250314-PART00-"), inv.Number)
			assert.True(t, strings.HasSuffix(inv.Number, "-0001"), inv.Number)
			assert.NotContains(t, seen, inv.Number, "%s reuses the number of %s", subject, seen[inv.Number])
			seen[inv.Number] = subject
		}

		second, err := issuer.Issue(ctx, "PART002", "start", tariff.PeriodMonthly)
		require.NoError(t, err)
		assert.Equal(t, number(issueTime, "PART002", 2), second.Number)
	})

	t.Run("concurrent issue yields unique numbers", func(t *testing.T) {
		t.Parallel()
		now := issueTime
		issuer := newIssuer(t, &now)

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			seen = make(map[string]struct{})
		)
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				inv, err := issuer.Issue(ctx, "acme", "start", tariff.PeriodMonthly)
				assert.NoError(t, err)
				mu.Lock()
				seen[inv.Number] = struct{}{}
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, seen, 20)
	})

	t.Run("period price falls back to monthly without discount", func(t *testing.T) {
		t.Parallel()
		now := issueTime
		c, err := tariff.NewCatalog(ctx, tariff.NewInMemSource(tariff.Plan{
			Code:   "flat",
			Active: true,
			Prices: map[tariff.Period]tariff.Money{tariff.PeriodMonthly: {Amount: 1000}},
		}))
		require.NoError(t, err)
		issuer := invoice.NewIssuer(c, invoice.NewMemoryStore(), invoice.NewMemorySequence(),
			invoice.WithClock(func() time.Time { return now }))

		inv, err := issuer.Issue(ctx, "acme", "flat", tariff.PeriodYearly)
		require.NoError(t, err)
		assert.Equal(t, int64(12000), inv.Amount.Amount)
	})

	tests := []struct {
		name    string
		subject string
		tariff  string
		period  tariff.Period
		wantErr error
	}{
		{"blank subject", "  ", "start", tariff.PeriodMonthly, invoice.ErrInvalidSubject},
		{"unknown tariff", "acme", "platinum", tariff.PeriodMonthly, tariff.ErrTariffNotFound},
		{"inactive tariff", "acme", "legacy", tariff.PeriodMonthly, tariff.ErrTariffInactive},
		{"invalid period", "acme", "start", "weekly", tariff.ErrInvalidBillingPeriod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			now := issueTime
			_, err := newIssuer(t, &now).Issue(ctx, tt.subject, tt.tariff, tt.period)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

type mockSequence struct {
	mock.Mock
}

func (m *mockSequence) Next(ctx context.Context, subjectID string, day time.Time) (int64, error) {
	args := m.Called(ctx, subjectID, day)
	return args.Get(0).(int64), args.Error(1)
}

func TestIssuer_IssueSequenceFailure(t *testing.T) {
	t.Parallel()

	seq := &mockSequence{}
	seq.On("Next", mock.Anything, "acme", issueTime).Return(int64(0), errors.New("redis down"))

	issuer := invoice.NewIssuer(newCatalog(t), invoice.NewMemoryStore(), seq,
		invoice.WithClock(func() time.Time { return issueTime }))

	_, err := issuer.Issue(context.Background(), "acme", "start", tariff.PeriodMonthly)
	assert.ErrorIs(t, err, invoice.ErrSequenceFailed)
	seq.AssertExpectations(t)
}

func TestIssuer_MarkPaid(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("pending to paid and idempotent", func(t *testing.T) {
		t.Parallel()
		now := issueTime
		issuer := newIssuer(t, &now)
		inv, err := issuer.Issue(ctx, "acme", "start", tariff.PeriodMonthly)
		require.NoError(t, err)

		paidAt := issueTime.Add(time.Hour)
		paid, err := issuer.MarkPaid(ctx, inv.Number, "PAY-1", paidAt)
		require.NoError(t, err)
		assert.Equal(t, invoice.StatusPaid, paid.Status)
		assert.Equal(t, "PAY-1", paid.PaymentID)
		require.NotNil(t, paid.PaidAt)
		assert.Equal(t, paidAt, *paid.PaidAt)

		again, err := issuer.MarkPaid(ctx, inv.Number, "PAY-1", paidAt.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, paid, again, "re-delivery must not change the invoice")

		_, err = issuer.MarkPaid(ctx, inv.Number, "PAY-2", paidAt)
		assert.ErrorIs(t, err, invoice.ErrInvoiceImmutable)
	})

	t.Run("voided invoice cannot be paid", func(t *testing.T) {
		t.Parallel()
		now := issueTime
		issuer := newIssuer(t, &now)
		inv, err := issuer.Issue(ctx, "acme", "start", tariff.PeriodMonthly)
		require.NoError(t, err)

		voided, err := issuer.Void(ctx, inv.Number)
		require.NoError(t, err)
		assert.Equal(t, invoice.StatusVoided, voided.Status)

		_, err = issuer.Void(ctx, inv.Number)
		require.NoError(t, err)

		_, err = issuer.MarkPaid(ctx, inv.Number, "PAY-1", now)
		assert.ErrorIs(t, err, invoice.ErrInvoiceImmutable)
	})

	t.Run("paid invoice cannot be voided", func(t *testing.T) {
		t.Parallel()
		now := issueTime
		issuer := newIssuer(t, &now)
		inv, err := issuer.Issue(ctx, "acme", "start", tariff.PeriodMonthly)
		require.NoError(t, err)
		_, err = issuer.MarkPaid(ctx, inv.Number, "PAY-1", now)
		require.NoError(t, err)

		_, err = issuer.Void(ctx, inv.Number)
		assert.ErrorIs(t, err, invoice.ErrInvoiceImmutable)
	})

	t.Run("missing payment id and unknown invoice", func(t *testing.T) {
		t.Parallel()
		now := issueTime
		issuer := newIssuer(t, &now)

		_, err := issuer.MarkPaid(ctx, "INV-000000-X-0001", "", now)
		assert.ErrorIs(t, err, invoice.ErrPaymentIDRequired)

		_, err = issuer.MarkPaid(ctx, "INV-000000-X-0001", "PAY-1", now)
		assert.ErrorIs(t, err, invoice.ErrInvoiceNotFound)
	})
}

func TestIssuer_ExpireOverdue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := issueTime
	issuer := newIssuer(t, &now)

	overdue, err := issuer.Issue(ctx, "acme", "start", tariff.PeriodMonthly)
	require.NoError(t, err)
	paid, err := issuer.Issue(ctx, "acme", "start", tariff.PeriodMonthly)
	require.NoError(t, err)
	_, err = issuer.MarkPaid(ctx, paid.Number, "PAY-1", now)
	require.NoError(t, err)

	now = issueTime.Add(48 * time.Hour)
	fresh, err := issuer.Issue(ctx, "acme", "start", tariff.PeriodMonthly)
	require.NoError(t, err)

	expired, err := issuer.ExpireOverdue(ctx, issueTime.Add(73*time.Hour))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, overdue.Number, expired[0].Number)
	assert.Equal(t, invoice.StatusExpired, expired[0].Status)

	stillPending, err := issuer.Get(ctx, fresh.Number)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPending, stillPending.Status)

	// late capture on an expired invoice is accepted
	late, err := issuer.MarkPaid(ctx, overdue.Number, "PAY-LATE", issueTime.Add(80*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPaid, late.Status)

	again, err := issuer.ExpireOverdue(ctx, issueTime.Add(200*time.Hour))
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, fresh.Number, again[0].Number)
}

func TestIssuer_Options(t *testing.T) {
	t.Parallel()

	now := issueTime
	issuer := newIssuer(t, &now, invoice.WithGracePeriod(24*time.Hour), invoice.WithNumberPrefix("BILL"))
	inv, err := issuer.Issue(context.Background(), "acme", "start", tariff.PeriodMonthly)
	require.NoError(t, err)
	assert.Equal(t, invoice.FormatNumber("BILL", issueTime, "acme", 1), inv.Number)
	assert.Equal(t, issueTime.Add(24*time.Hour), inv.DueAt)

	assert.Panics(t, func() { newIssuer(t, &now, invoice.WithGracePeriod(0)) })
	assert.Panics(t, func() { invoice.NewIssuer(nil, invoice.NewMemoryStore(), invoice.NewMemorySequence()) })
}

func TestSubjectPrefix(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"partner-42": "PARTNE",
		"S1":         "S1",
		"ab-cd_ef9z": "ABCDEF",
		"---":        "X",
		"тест-12":    "12",
	}
	for in, want := range tests {
		assert.Equal(t, want, invoice.SubjectPrefix(in), in)
	}
}

func TestSubjectHash(t *testing.T) {
	t.Parallel()

	assert.Regexp(t, `^[0-9A-F]{6}$`, invoice.SubjectHash("PART001"))
	assert.Equal(t, invoice.SubjectHash("PART001"), invoice.SubjectHash(" PART001 "))
	assert.NotEqual(t, invoice.SubjectHash("PART001"), invoice.SubjectHash("PART002"))
	assert.NotEqual(t, invoice.SubjectHash("partner-a"), invoice.SubjectHash("partner-b"))
}
