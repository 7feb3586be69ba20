package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

func TestSweepExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	monthly, err := f.ledger.ActivateSubscription(ctx, "monthly", "start", tariff.PeriodMonthly)
	require.NoError(t, err)
	yearly, err := f.ledger.ActivateSubscription(ctx, "yearly", "start", tariff.PeriodYearly)
	require.NoError(t, err)
	suspended, err := f.ledger.ActivateSubscription(ctx, "suspended", "start", tariff.PeriodMonthly)
	require.NoError(t, err)
	_, err = f.ledger.SuspendSubscription(ctx, suspended.ID)
	require.NoError(t, err)
	cancelled, err := f.ledger.ActivateSubscription(ctx, "cancelled", "start", tariff.PeriodMonthly)
	require.NoError(t, err)
	_, err = f.ledger.CancelSubscription(ctx, "cancelled", "x", true)
	require.NoError(t, err)

	// exactly at expiry nothing has lapsed yet
	changed, err := f.ledger.SweepExpired(ctx, monthly.ExpiresAt)
	require.NoError(t, err)
	assert.Empty(t, changed)

	changed, err = f.ledger.SweepExpired(ctx, monthly.ExpiresAt.Add(time.Second))
	require.NoError(t, err)
	ids := make([]string, 0, len(changed))
	for _, s := range changed {
		assert.Equal(t, ledger.StatusExpired, s.Status)
		ids = append(ids, s.SubjectID)
	}
	assert.ElementsMatch(t, []string{"monthly", "suspended"}, ids)

	live, err := f.ledger.GetActive(ctx, "yearly")
	require.NoError(t, err)
	assert.Equal(t, yearly.ID, live.ID)

	old, err := f.ledger.GetSubscription(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusCancelled, old.Status, "terminal records are not touched")

	// a second sweep finds nothing new
	changed, err = f.ledger.SweepExpired(ctx, monthly.ExpiresAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, changed)

	// the subject may start over
	_, err = f.ledger.ActivateSubscription(ctx, "monthly", "professional", tariff.PeriodMonthly)
	assert.NoError(t, err)
}

func TestSweepExpired_AutoRenewDoesNotExtend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	sub, err := f.ledger.ActivateSubscription(ctx, "S1", "start", tariff.PeriodMonthly)
	require.NoError(t, err)
	require.True(t, sub.AutoRenew)

	changed, err := f.ledger.SweepExpired(ctx, t0.Add(days(31)))
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, ledger.StatusExpired, changed[0].Status)
	assert.Equal(t, sub.ExpiresAt, changed[0].ExpiresAt)
}

func TestFindExpiringSoon(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.ledger.ActivateSubscription(ctx, "soon", "start", tariff.PeriodMonthly)
	require.NoError(t, err)
	_, err = f.ledger.ActivateSubscription(ctx, "later", "start", tariff.PeriodQuarterly)
	require.NoError(t, err)
	_, err = f.ledger.ActivateSubscription(ctx, "leaving", "start", tariff.PeriodMonthly)
	require.NoError(t, err)
	_, err = f.ledger.CancelSubscription(ctx, "leaving", "x", false)
	require.NoError(t, err)
	paused, err := f.ledger.ActivateSubscription(ctx, "paused", "start", tariff.PeriodMonthly)
	require.NoError(t, err)
	_, err = f.ledger.SuspendSubscription(ctx, paused.ID)
	require.NoError(t, err)

	now := t0.Add(days(27))
	found, err := f.ledger.FindExpiringSoon(ctx, now, 3*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "soon", found[0].SubjectID)

	found, err = f.ledger.FindExpiringSoon(ctx, now, 2*24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, found)

	lapsed := t0.Add(days(31))
	found, err = f.ledger.FindExpiringSoon(ctx, lapsed, 3*24*time.Hour)
	require.NoError(t, err)
	assert.Empty(t, found, "lapsed subscriptions belong to the sweep")

	swept, err := f.ledger.SweepExpired(ctx, lapsed)
	require.NoError(t, err)
	subjects := make([]string, 0, len(swept))
	for _, s := range swept {
		subjects = append(subjects, s.SubjectID)
	}
	assert.Contains(t, subjects, "soon", "the sweep expires what the reminder query skips")
}
