// Package sweeper runs the periodic billing jobs on a cron schedule:
// expiring lapsed subscriptions, expiring overdue invoices and sending
// renewal reminders.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/logger"
	"github.com/dmitrymomot/tariffledger/pkg/requestid"
)

// Ledger is the part of *ledger.Ledger the sweeper drives.
type Ledger interface {
	SweepExpired(ctx context.Context, now time.Time) ([]*ledger.Subscription, error)
	FindExpiringSoon(ctx context.Context, now time.Time, within time.Duration) ([]*ledger.Subscription, error)
}

// Invoices is satisfied by *invoice.Issuer.
type Invoices interface {
	ExpireOverdue(ctx context.Context, now time.Time) ([]*invoice.Invoice, error)
}

// Reminder is satisfied by *notifications.Manager.
type Reminder interface {
	RemindRenewals(ctx context.Context, subs []*ledger.Subscription, now time.Time) (int, error)
}

// Job names, used in logs and as request id prefixes.
const (
	JobExpireSubscriptions = "expire_subscriptions"
	JobExpireInvoices      = "expire_invoices"
	JobRenewalReminders    = "renewal_reminders"
)

// Sweeper owns a cron scheduler. Runs of the same job never overlap.
type Sweeper struct {
	cfg      Config
	ledger   Ledger
	invoices Invoices
	reminder Reminder
	cron     *cron.Cron
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithInvoices enables the overdue invoice job.
func WithInvoices(inv Invoices) Option {
	return func(s *Sweeper) { s.invoices = inv }
}

// WithReminder enables the renewal reminder job.
func WithReminder(r Reminder) Option {
	return func(s *Sweeper) { s.reminder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// New validates the schedules and registers the enabled jobs.
func New(cfg Config, l Ledger, opts ...Option) (*Sweeper, error) {
	if l == nil {
		panic("sweeper: ledger is required")
	}
	s := &Sweeper{
		cfg:    cfg,
		ledger: l,
		now:    time.Now,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.JobTimeout <= 0 {
		s.cfg.JobTimeout = 2 * time.Minute
	}

	cl := cronLogger{log: s.logger}
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	jobs := []struct {
		name     string
		schedule string
		enabled  bool
		run      func(context.Context) error
	}{
		{JobExpireSubscriptions, cfg.ExpireSchedule, true, s.ExpireSubscriptions},
		{JobExpireInvoices, cfg.InvoiceSchedule, s.invoices != nil, s.ExpireInvoices},
		{JobRenewalReminders, cfg.ReminderSchedule, s.reminder != nil, s.SendReminders},
	}
	for _, j := range jobs {
		if !j.enabled || j.schedule == "" {
			continue
		}
		if _, err := s.cron.AddFunc(j.schedule, s.wrap(j.name, j.run)); err != nil {
			return nil, fmt.Errorf("sweeper: schedule %s %q: %w", j.name, j.schedule, err)
		}
	}
	return s, nil
}

// Run starts the scheduler and blocks until ctx is cancelled, then waits
// for running jobs to finish.
func (s *Sweeper) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.InfoContext(ctx, "sweeper started", slog.Int("jobs", len(s.cron.Entries())))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.InfoContext(ctx, "sweeper stopped")
	return nil
}

// ExpireSubscriptions expires every lapsed live subscription.
func (s *Sweeper) ExpireSubscriptions(ctx context.Context) error {
	expired, err := s.ledger.SweepExpired(ctx, s.now())
	s.logger.DebugContext(ctx, "subscriptions swept", logger.Count(len(expired)))
	return err
}

// ExpireInvoices expires pending invoices past their due date.
func (s *Sweeper) ExpireInvoices(ctx context.Context) error {
	if s.invoices == nil {
		return nil
	}
	expired, err := s.invoices.ExpireOverdue(ctx, s.now())
	s.logger.DebugContext(ctx, "invoices swept", logger.Count(len(expired)))
	return err
}

// SendReminders notifies subjects whose auto-renewing term ends within the
// reminder window.
func (s *Sweeper) SendReminders(ctx context.Context) error {
	if s.reminder == nil {
		return nil
	}
	now := s.now()
	subs, err := s.ledger.FindExpiringSoon(ctx, now, s.cfg.ReminderWindow)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}
	_, err = s.reminder.RemindRenewals(ctx, subs, now)
	return err
}

func (s *Sweeper) wrap(name string, run func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
		defer cancel()
		ctx = requestid.WithContext(ctx, name+"-"+requestid.New())

		started := time.Now()
		err := run(ctx)
		attrs := []any{logger.Component("sweeper"), slog.String("job", name), logger.Duration(time.Since(started))}
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				attrs = append(attrs, slog.Duration("timeout", s.cfg.JobTimeout))
			}
			s.logger.ErrorContext(ctx, "sweeper job failed", append(attrs, logger.Error(err))...)
			return
		}
		s.logger.DebugContext(ctx, "sweeper job finished", attrs...)
	}
}

// cronLogger routes cron's own messages into slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, logger.Error(err))...)
}
