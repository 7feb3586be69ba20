package invoice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/tariffledger/pkg/logger"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

// PlanLookup resolves active tariff plans. *tariff.Catalog satisfies it.
type PlanLookup interface {
	GetActive(code string) (tariff.Plan, error)
}

// Issuer creates invoices and drives their lifecycle.
type Issuer struct {
	plans  PlanLookup
	store  Store
	seq    Sequence
	now    func() time.Time
	grace  time.Duration
	prefix string
	logger *slog.Logger
}

// NewIssuer creates an Issuer. Panics if a dependency is nil.
func NewIssuer(plans PlanLookup, store Store, seq Sequence, opts ...Option) *Issuer {
	if plans == nil {
		panic("invoice: plan lookup is required")
	}
	if store == nil {
		panic("invoice: store is required")
	}
	if seq == nil {
		panic("invoice: sequence is required")
	}

	i := &Issuer{
		plans:  plans,
		store:  store,
		seq:    seq,
		now:    time.Now,
		grace:  defaultGracePeriod,
		prefix: defaultNumberPrefix,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue creates a pending invoice for one period of the tariff.
//
// The amount is the plan price for the period; without an explicit price the
// monthly price is multiplied by the number of months, never discounted.
// Numbers carry a hash of the full subject id, so subjects sharing a
// readable prefix keep separate number spaces. If a number is still taken
// (a restarted in-memory sequence) the next sequence value is tried.
func (i *Issuer) Issue(ctx context.Context, subjectID, tariffCode string, period tariff.Period) (*Invoice, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, ErrInvalidSubject
	}
	if !period.Valid() {
		return nil, tariff.ErrInvalidBillingPeriod
	}

	plan, err := i.plans.GetActive(tariffCode)
	if err != nil {
		return nil, err
	}
	amount, err := plan.Price(period)
	if err != nil {
		return nil, err
	}

	issuedAt := i.now().UTC()

	for range defaultNumberAttempts {
		seq, err := i.seq.Next(ctx, subjectID, issuedAt)
		if err != nil {
			return nil, errors.Join(ErrSequenceFailed, err)
		}

		inv := &Invoice{
			Number:     FormatNumber(i.prefix, issuedAt, subjectID, seq),
			SubjectID:  subjectID,
			TariffCode: plan.Code,
			Period:     period,
			Amount:     amount,
			Status:     StatusPending,
			IssuedAt:   issuedAt,
			DueAt:      issuedAt.Add(i.grace),
		}

		err = i.store.Create(ctx, inv)
		if errors.Is(err, ErrDuplicateNumber) {
			i.logger.WarnContext(ctx, "invoice number collision, retrying",
				logger.InvoiceNumber(inv.Number),
				logger.SubjectID(subjectID),
			)
			continue
		}
		if err != nil {
			return nil, errors.Join(ErrFailedToSave, err)
		}

		i.logger.InfoContext(ctx, "invoice issued",
			logger.InvoiceNumber(inv.Number),
			logger.SubjectID(subjectID),
			logger.TariffCode(plan.Code),
			slog.Int64("amount", amount.Amount),
		)
		return inv, nil
	}

	return nil, ErrNumberExhausted
}

// Get returns an invoice by number.
func (i *Issuer) Get(ctx context.Context, number string) (*Invoice, error) {
	return i.store.Get(ctx, number)
}

// ListBySubject returns the subject's invoices ordered by issue time.
func (i *Issuer) ListBySubject(ctx context.Context, subjectID string) ([]*Invoice, error) {
	return i.store.ListBySubject(ctx, subjectID)
}

// MarkPaid records a captured payment.
// Repeating the call with the same payment id is a no-op; any other change
// to a paid or voided invoice fails with ErrInvoiceImmutable.
func (i *Issuer) MarkPaid(ctx context.Context, number, paymentID string, at time.Time) (*Invoice, error) {
	if paymentID == "" {
		return nil, ErrPaymentIDRequired
	}

	inv, err := i.store.Update(ctx, number, func(inv *Invoice) error {
		if inv.Status == StatusPaid && inv.PaymentID == paymentID {
			return nil
		}
		if err := transition(ctx, inv, eventPay); err != nil {
			return err
		}
		paidAt := at.UTC()
		inv.PaidAt = &paidAt
		inv.PaymentID = paymentID
		return nil
	})
	if err != nil {
		return nil, err
	}

	i.logger.InfoContext(ctx, "invoice paid",
		logger.InvoiceNumber(number),
		logger.PaymentID(paymentID),
	)
	return inv, nil
}

// Void cancels a pending invoice. Voiding a voided invoice is a no-op.
func (i *Issuer) Void(ctx context.Context, number string) (*Invoice, error) {
	return i.store.Update(ctx, number, func(inv *Invoice) error {
		if inv.Status == StatusVoided {
			return nil
		}
		return transition(ctx, inv, eventVoid)
	})
}

var errNotOverdue = errors.New("invoice is not overdue")

// ExpireOverdue moves pending invoices whose due date passed to expired
// and returns the ones it changed.
func (i *Issuer) ExpireOverdue(ctx context.Context, now time.Time) ([]*Invoice, error) {
	pending, err := i.store.ListByStatus(ctx, StatusPending)
	if err != nil {
		return nil, err
	}

	expired := make([]*Invoice, 0)
	for _, candidate := range pending {
		if !candidate.IsOverdue(now) {
			continue
		}

		inv, err := i.store.Update(ctx, candidate.Number, func(inv *Invoice) error {
			// paid or voided since it was listed
			if !inv.IsOverdue(now) {
				return errNotOverdue
			}
			return transition(ctx, inv, eventExpire)
		})
		if errors.Is(err, errNotOverdue) {
			continue
		}
		if err != nil {
			return expired, err
		}
		expired = append(expired, inv)
	}

	if len(expired) > 0 {
		i.logger.InfoContext(ctx, "overdue invoices expired", logger.Count(len(expired)))
	}
	return expired, nil
}
