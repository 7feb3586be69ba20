package sweeper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tariffledger/internal/sweeper"
	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/requestid"
)

var t0 = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type mockLedger struct{ mock.Mock }

func (m *mockLedger) SweepExpired(ctx context.Context, now time.Time) ([]*ledger.Subscription, error) {
	args := m.Called(ctx, now)
	subs, _ := args.Get(0).([]*ledger.Subscription)
	return subs, args.Error(1)
}

func (m *mockLedger) FindExpiringSoon(ctx context.Context, now time.Time, within time.Duration) ([]*ledger.Subscription, error) {
	args := m.Called(ctx, now, within)
	subs, _ := args.Get(0).([]*ledger.Subscription)
	return subs, args.Error(1)
}

type mockInvoices struct{ mock.Mock }

func (m *mockInvoices) ExpireOverdue(ctx context.Context, now time.Time) ([]*invoice.Invoice, error) {
	args := m.Called(ctx, now)
	invs, _ := args.Get(0).([]*invoice.Invoice)
	return invs, args.Error(1)
}

type mockReminder struct{ mock.Mock }

func (m *mockReminder) RemindRenewals(ctx context.Context, subs []*ledger.Subscription, now time.Time) (int, error) {
	args := m.Called(ctx, subs, now)
	return args.Int(0), args.Error(1)
}

func fixedClock() time.Time { return t0 }

func TestNew_InvalidSchedule(t *testing.T) {
	t.Parallel()

	_, err := sweeper.New(sweeper.Config{ExpireSchedule: "every now and then"}, &mockLedger{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), sweeper.JobExpireSubscriptions)

	assert.Panics(t, func() { _, _ = sweeper.New(sweeper.Config{}, nil) })
}

func TestSweeper_ExpireSubscriptions(t *testing.T) {
	t.Parallel()

	l := &mockLedger{}
	l.On("SweepExpired", mock.Anything, t0).Return([]*ledger.Subscription{{ID: uuid.New()}}, nil).Once()

	s, err := sweeper.New(sweeper.Config{}, l, sweeper.WithClock(fixedClock))
	require.NoError(t, err)

	require.NoError(t, s.ExpireSubscriptions(context.Background()))
	l.AssertExpectations(t)
}

func TestSweeper_ExpireInvoices(t *testing.T) {
	t.Parallel()

	t.Run("disabled without issuer", func(t *testing.T) {
		t.Parallel()
		s, err := sweeper.New(sweeper.Config{}, &mockLedger{})
		require.NoError(t, err)
		assert.NoError(t, s.ExpireInvoices(context.Background()))
	})

	t.Run("propagates failure", func(t *testing.T) {
		t.Parallel()
		inv := &mockInvoices{}
		inv.On("ExpireOverdue", mock.Anything, t0).Return(nil, errors.New("store down")).Once()

		s, err := sweeper.New(sweeper.Config{}, &mockLedger{}, sweeper.WithInvoices(inv), sweeper.WithClock(fixedClock))
		require.NoError(t, err)
		assert.EqualError(t, s.ExpireInvoices(context.Background()), "store down")
		inv.AssertExpectations(t)
	})
}

func TestSweeper_SendReminders(t *testing.T) {
	t.Parallel()

	cfg := sweeper.Config{ReminderWindow: 72 * time.Hour}

	t.Run("forwards expiring subscriptions", func(t *testing.T) {
		t.Parallel()
		subs := []*ledger.Subscription{{ID: uuid.New(), SubjectID: "S1"}}

		l := &mockLedger{}
		l.On("FindExpiringSoon", mock.Anything, t0, 72*time.Hour).Return(subs, nil).Once()
		r := &mockReminder{}
		r.On("RemindRenewals", mock.Anything, subs, t0).Return(1, nil).Once()

		s, err := sweeper.New(cfg, l, sweeper.WithReminder(r), sweeper.WithClock(fixedClock))
		require.NoError(t, err)
		require.NoError(t, s.SendReminders(context.Background()))

		l.AssertExpectations(t)
		r.AssertExpectations(t)
	})

	t.Run("nothing expiring", func(t *testing.T) {
		t.Parallel()
		l := &mockLedger{}
		l.On("FindExpiringSoon", mock.Anything, t0, 72*time.Hour).Return([]*ledger.Subscription{}, nil).Once()
		r := &mockReminder{}

		s, err := sweeper.New(cfg, l, sweeper.WithReminder(r), sweeper.WithClock(fixedClock))
		require.NoError(t, err)
		require.NoError(t, s.SendReminders(context.Background()))
		r.AssertNotCalled(t, "RemindRenewals", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSweeper_Run(t *testing.T) {
	t.Parallel()

	ran := make(chan string, 4)
	l := &mockLedger{}
	l.On("SweepExpired", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			select {
			case ran <- requestid.FromContext(args.Get(0).(context.Context)):
			default:
			}
		}).
		Return(nil, nil)

	s, err := sweeper.New(sweeper.Config{ExpireSchedule: "@every 1s"}, l)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case id := <-ran:
		assert.Contains(t, id, sweeper.JobExpireSubscriptions+"-")
	case <-time.After(3 * time.Second):
		require.FailNow(t, "scheduled job did not run")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		require.FailNow(t, "sweeper did not stop")
	}
}
