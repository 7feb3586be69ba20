package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/logger"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

const dateLayout = "2006-01-02"

// PlanLookup resolves tariff names and prices. *tariff.Catalog satisfies it.
type PlanLookup interface {
	Get(code string) (tariff.Plan, error)
}

// Manager stores notices and hands them to a Deliverer. It is a
// ledger.Observer: subscription and payment transitions become notices.
type Manager struct {
	storage   Storage
	deliverer Deliverer
	plans     PlanLookup
	lang      language.Tag
	now       func() time.Time
	logger    *slog.Logger
}

var _ ledger.Observer = (*Manager)(nil)

type ManagerOption func(*Manager)

func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithPlans lets notices mention plan names and prices.
func WithPlans(plans PlanLookup) ManagerOption {
	return func(m *Manager) {
		m.plans = plans
	}
}

// WithLanguage sets the locale used for amounts and numbers.
func WithLanguage(tag language.Tag) ManagerOption {
	return func(m *Manager) {
		m.lang = tag
	}
}

func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

func NewManager(storage Storage, deliverer Deliverer, opts ...ManagerOption) *Manager {
	if storage == nil {
		panic("notifications: storage is required")
	}
	if deliverer == nil {
		deliverer = NoOpDeliverer{}
	}

	m := &Manager{
		storage:   storage,
		deliverer: deliverer,
		lang:      language.English,
		now:       time.Now,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send stores the notice and delivers it. A duplicate DedupKey returns
// ErrDuplicate without delivering. Delivery failures are logged; the notice
// stays stored.
func (m *Manager) Send(ctx context.Context, notif Notification) error {
	if notif.ID == "" {
		notif.ID = uuid.New().String()
	}
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = m.now().UTC()
	}

	if err := m.storage.Create(ctx, notif); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return err
		}
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if err := m.deliverer.Deliver(ctx, notif); err != nil {
		m.logger.LogAttrs(ctx, slog.LevelWarn, "failed to deliver notification, but it was stored",
			slog.String("notification_id", notif.ID),
			slog.String("kind", string(notif.Kind)),
			logger.SubjectID(notif.SubjectID),
			logger.Error(err),
		)
	}
	return nil
}

func (m *Manager) Get(ctx context.Context, subjectID, notifID string) (*Notification, error) {
	return m.storage.Get(ctx, subjectID, notifID)
}

func (m *Manager) List(ctx context.Context, subjectID string, opts ListOptions) ([]Notification, error) {
	return m.storage.List(ctx, subjectID, opts)
}

// OnTransition turns ledger transitions into notices. Errors are logged.
func (m *Manager) OnTransition(ctx context.Context, t ledger.Transition) {
	notif, ok := m.fromTransition(t)
	if !ok {
		return
	}
	if err := m.Send(ctx, notif); err != nil && !errors.Is(err, ErrDuplicate) {
		m.logger.LogAttrs(ctx, slog.LevelError, "failed to send notification",
			logger.SubjectID(t.SubjectID),
			logger.Event(t.Event),
			logger.Error(err),
		)
	}
}

// RemindRenewals sends one reminder per subscription term. Repeated calls
// for the same term are skipped, so a frequent schedule is safe.
func (m *Manager) RemindRenewals(ctx context.Context, subs []*ledger.Subscription, now time.Time) (int, error) {
	var (
		sent int
		errs []error
	)
	p := message.NewPrinter(m.lang)
	for _, s := range subs {
		days := int(math.Ceil(s.ExpiresAt.Sub(now).Hours() / 24))
		msg := p.Sprintf("Your %s subscription renews on %s (%d days left).",
			m.planName(s.TariffCode), s.ExpiresAt.Format(dateLayout), days)
		if price, ok := m.price(s.TariffCode, s.Period); ok {
			msg += " " + p.Sprintf("The next charge is %s.", price)
		}

		err := m.Send(ctx, Notification{
			SubjectID: s.SubjectID,
			Kind:      KindRenewalReminder,
			Title:     "Your subscription renews soon",
			Message:   msg,
			Data: map[string]string{
				"subscription_id": s.ID.String(),
				"expires_at":      s.ExpiresAt.Format(time.RFC3339),
			},
			DedupKey: fmt.Sprintf("%s:%s:%s", KindRenewalReminder, s.ID, s.ExpiresAt.Format(time.RFC3339)),
		})
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ErrDuplicate):
		default:
			errs = append(errs, err)
		}
	}

	if sent > 0 {
		m.logger.InfoContext(ctx, "renewal reminders sent", logger.Count(sent))
	}
	return sent, errors.Join(errs...)
}

func (m *Manager) fromTransition(t ledger.Transition) (Notification, bool) {
	p := message.NewPrinter(m.lang)
	n := Notification{SubjectID: t.SubjectID}

	if t.Entity == ledger.EntityPayment && t.Intent != nil {
		in := t.Intent
		n.Data = map[string]string{
			"payment_id":     in.PaymentID,
			"invoice_number": in.InvoiceNumber,
		}
		amount := FormatMoney(in.Amount, m.lang)
		switch t.Event {
		case ledger.EventPaymentFailed.Name():
			n.Kind = KindPaymentFailed
			n.Title = "Payment failed"
			n.Message = p.Sprintf("We could not charge %s for invoice %s. Please try again.", amount, in.InvoiceNumber)
			if in.CheckoutURL != "" {
				n.Actions = []Action{{Label: "Retry payment", URL: in.CheckoutURL}}
			}
		case ledger.EventPaymentRefunded.Name():
			n.Kind = KindPaymentRefunded
			n.Title = "Payment refunded"
			n.Message = p.Sprintf("%s for invoice %s has been refunded.", amount, in.InvoiceNumber)
		default:
			return Notification{}, false
		}
		n.DedupKey = fmt.Sprintf("%s:%s", n.Kind, in.PaymentID)
		return n, true
	}

	if t.Entity != ledger.EntitySubscription || t.Subscription == nil {
		return Notification{}, false
	}
	s := t.Subscription
	name := m.planName(s.TariffCode)
	n.Data = map[string]string{
		"subscription_id": s.ID.String(),
		"tariff":          s.TariffCode,
	}
	switch t.Event {
	case ledger.EventActivate.Name():
		n.Kind = KindActivated
		n.Title = "Subscription activated"
		n.Message = p.Sprintf("Your %s subscription is active until %s and includes %d leads.",
			name, s.ExpiresAt.Format(dateLayout), s.LeadsLimit)
	case ledger.EventRenew.Name():
		n.Kind = KindRenewed
		n.Title = "Subscription renewed"
		n.Message = p.Sprintf("Your %s subscription now runs until %s. The lead counter was reset to %d available leads.",
			name, s.ExpiresAt.Format(dateLayout), s.LeadsLimit)
	case ledger.EventCancel.Name():
		n.Kind = KindCancelled
		n.Title = "Subscription cancelled"
		n.Message = p.Sprintf("Your %s subscription has been cancelled.", name)
	case ledger.EventExpire.Name():
		n.Kind = KindExpired
		n.Title = "Subscription expired"
		n.Message = p.Sprintf("Your %s subscription expired on %s. Choose a tariff to continue receiving leads.",
			name, s.ExpiresAt.Format(dateLayout))
	case ledger.EventSuspend.Name():
		n.Kind = KindSuspended
		n.Title = "Subscription suspended"
		n.Message = p.Sprintf("Your %s subscription has been suspended. Contact support for details.", name)
	default:
		return Notification{}, false
	}
	n.DedupKey = fmt.Sprintf("%s:%s:%s", n.Kind, s.ID, s.ExpiresAt.Format(time.RFC3339))
	return n, true
}

func (m *Manager) planName(code string) string {
	if m.plans != nil {
		if plan, err := m.plans.Get(code); err == nil && plan.Name != "" {
			return plan.Name
		}
	}
	return code
}

func (m *Manager) price(code string, period tariff.Period) (string, bool) {
	if m.plans == nil {
		return "", false
	}
	plan, err := m.plans.Get(code)
	if err != nil {
		return "", false
	}
	money, err := plan.Price(period)
	if err != nil || money.IsZero() {
		return "", false
	}
	return FormatMoney(money, m.lang), true
}
