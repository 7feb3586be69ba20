package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/tariffledger/pkg/gateway"
	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/logger"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

// RequestPayment issues an invoice for the tariff period and opens a payment
// at the provider. The resulting intent is stored as pending with the
// metadata needed to apply its verdict later. Free plans have nothing to pay
// and fail with ErrFreePlan before any invoice is issued.
func (l *Ledger) RequestPayment(ctx context.Context, subjectID, tariffCode string, period tariff.Period) (*PaymentIntent, *invoice.Invoice, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, nil, fmt.Errorf("%w: subject id is required", ErrInvalidInput)
	}

	plan, err := l.catalog.GetActive(tariffCode)
	if err != nil {
		return nil, nil, translate(err)
	}
	price, err := plan.Price(period)
	if err != nil {
		return nil, nil, translate(err)
	}
	if price.Amount <= 0 {
		return nil, nil, ErrFreePlan
	}

	inv, err := l.invoices.Issue(ctx, subjectID, tariffCode, period)
	if err != nil {
		return nil, nil, translate(err)
	}

	meta := gateway.Metadata{
		SubjectID:     subjectID,
		TariffCode:    inv.TariffCode,
		Period:        inv.Period,
		InvoiceNumber: inv.Number,
	}

	// provider call stays outside the subject lock
	created, err := l.gateway.CreatePaymentIntent(ctx, gateway.Request{
		Amount:      inv.Amount,
		Description: fmt.Sprintf("%s, %s (%s)", inv.TariffCode, inv.Period, inv.Number),
		Metadata:    meta,
	})
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to create payment intent",
			logger.SubjectID(subjectID),
			logger.InvoiceNumber(inv.Number),
			logger.Provider(l.gateway.Name()),
			logger.Error(err),
		)
		return nil, inv, errors.Join(ErrGateway, err)
	}

	now := l.clock()
	intent := &PaymentIntent{
		PaymentID:     created.PaymentID,
		InvoiceNumber: inv.Number,
		Amount:        inv.Amount,
		Status:        IntentPending,
		Metadata:      meta,
		Provider:      l.gateway.Name(),
		CheckoutURL:   created.CheckoutURL,
		ClientSecret:  created.ClientSecret,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = l.withSubject(ctx, subjectID, func(ctx context.Context, repo Repository, _ func(Transition)) error {
		return repo.SaveIntent(ctx, intent)
	})
	if err != nil {
		return nil, inv, err
	}

	l.logger.InfoContext(ctx, "payment requested",
		logger.SubjectID(subjectID),
		logger.PaymentID(intent.PaymentID),
		logger.InvoiceNumber(inv.Number),
	)
	return intent, inv, nil
}

// RecordPaymentVerdict applies a provider verdict to the intent.
//
// On success the invoice is marked paid and the subject's subscription is
// activated, or extended if one is live. When the paid tariff differs from
// the live one the plan is switched before the term is extended. A failure
// only marks the intent failed.
//
// Re-delivering the verdict an intent already has is a no-op that returns
// the current state. A different verdict for a settled intent fails with
// ErrInvalidTransition. The returned subscription is nil when the subject
// has none.
func (l *Ledger) RecordPaymentVerdict(ctx context.Context, paymentID string, verdict gateway.Status) (*PaymentIntent, *Subscription, error) {
	event := EventPaymentSucceeded
	switch verdict {
	case gateway.StatusSucceeded:
	case gateway.StatusFailed:
		event = EventPaymentFailed
	default:
		return nil, nil, fmt.Errorf("%w: unknown verdict %q", ErrInvalidInput, verdict)
	}

	found, err := l.repo.GetIntent(ctx, paymentID)
	if err != nil {
		return nil, nil, err
	}
	subjectID := found.Metadata.SubjectID

	var (
		intent *PaymentIntent
		sub    *Subscription
	)
	err = l.withSubject(ctx, subjectID, func(ctx context.Context, repo Repository, emit func(Transition)) error {
		current, err := repo.GetIntent(ctx, paymentID)
		if err != nil {
			return err
		}

		if current.Status != IntentPending {
			if string(current.Status) != string(verdict) {
				return fmt.Errorf("%w: payment %s is already %s", ErrInvalidTransition, paymentID, current.Status)
			}
			intent = current
			sub, err = l.liveOrNil(ctx, repo, subjectID)
			return err
		}

		from := current.Status
		if err := fireIntent(ctx, current, event); err != nil {
			return err
		}
		now := l.clock()
		current.UpdatedAt = now

		if verdict == gateway.StatusSucceeded {
			sub, err = l.applyCapturedPayment(ctx, repo, emit, current)
			if err != nil {
				return err
			}
		} else {
			sub, err = l.liveOrNil(ctx, repo, subjectID)
			if err != nil {
				return err
			}
		}

		if err := repo.SaveIntent(ctx, current); err != nil {
			return err
		}

		l.logger.InfoContext(ctx, "payment verdict recorded",
			logger.SubjectID(subjectID),
			logger.PaymentID(paymentID),
			logger.Transition(string(from), string(current.Status)),
		)
		emit(paymentTransition(event.Name(), from, current, now))
		intent = current
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return intent, sub, nil
}

// applyCapturedPayment must be called under the subject lock. It saves the
// subscription through repo; the caller saves the intent in the same unit of
// work, so a failed intent write also discards the extension.
func (l *Ledger) applyCapturedPayment(ctx context.Context, repo Repository, emit func(Transition), intent *PaymentIntent) (*Subscription, error) {
	meta := intent.Metadata

	if _, err := l.invoices.MarkPaid(ctx, intent.InvoiceNumber, intent.PaymentID, l.clock()); err != nil {
		// the money has moved, the subscription is honoured regardless
		l.logger.WarnContext(ctx, "could not mark invoice paid",
			logger.InvoiceNumber(intent.InvoiceNumber),
			logger.PaymentID(intent.PaymentID),
			logger.Error(err),
		)
	}

	// the paid plan may have been retired since the invoice was issued
	plan, err := l.catalog.Get(meta.TariffCode)
	if err != nil {
		return nil, translate(err)
	}

	sub, err := repo.GetActiveBySubject(ctx, meta.SubjectID)
	if errors.Is(err, ErrNotFound) {
		return l.activate(ctx, repo, emit, meta.SubjectID, plan, meta.Period, intent.PaymentID)
	}
	if err != nil {
		return nil, err
	}

	// a suspended subscription switches to the paid plan as well
	if sub.TariffCode != plan.Code {
		if err := l.upgrade(ctx, repo, emit, sub, plan, renewal{paid: true}); err != nil {
			return nil, err
		}
	}
	sub.LastPaymentID = intent.PaymentID
	if err := l.renew(ctx, repo, emit, sub, meta.Period, renewal{paid: true}); err != nil {
		return nil, err
	}
	return sub, nil
}

// RefundPayment returns a captured payment. The provider is called before
// the subject lock is taken. If the refunded payment funded the live
// subscription, that subscription is cancelled immediately.
// Refunding an already refunded intent returns it unchanged.
func (l *Ledger) RefundPayment(ctx context.Context, paymentID, reason string) (*PaymentIntent, error) {
	found, err := l.repo.GetIntent(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	switch found.Status {
	case IntentRefunded:
		return found, nil
	case IntentSucceeded:
	default:
		return nil, fmt.Errorf("%w: payment %s is %s", ErrInvalidTransition, paymentID, found.Status)
	}

	refunder, ok := l.gateway.(gateway.Refunder)
	if !ok {
		return nil, errors.Join(ErrGateway, gateway.ErrRefundUnsupported)
	}
	if err := refunder.Refund(ctx, paymentID, found.Amount, reason); err != nil {
		return nil, errors.Join(ErrGateway, err)
	}

	var intent *PaymentIntent
	err = l.withSubject(ctx, found.Metadata.SubjectID, func(ctx context.Context, repo Repository, emit func(Transition)) error {
		current, err := repo.GetIntent(ctx, paymentID)
		if err != nil {
			return err
		}
		if current.Status == IntentRefunded {
			intent = current
			return nil
		}

		from := current.Status
		if err := fireIntent(ctx, current, EventPaymentRefunded); err != nil {
			return err
		}
		now := l.clock()
		current.UpdatedAt = now
		if err := repo.SaveIntent(ctx, current); err != nil {
			return err
		}
		emit(paymentTransition(EventPaymentRefunded.Name(), from, current, now))

		sub, err := repo.GetActiveBySubject(ctx, current.Metadata.SubjectID)
		if err == nil && sub.LastPaymentID == paymentID {
			subFrom := sub.Status
			if err := fireSubscription(ctx, sub, EventCancel, nil); err != nil {
				return err
			}
			sub.AutoRenew = false
			sub.CancelReason = "refund: " + reason
			sub.ExpiresAt = now
			sub.CancelledAt = &now
			sub.UpdatedAt = now
			if err := repo.SaveSubscription(ctx, sub); err != nil {
				return err
			}
			emit(subscriptionTransition(EventCancel.Name(), subFrom, sub, now))
		} else if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		l.logger.InfoContext(ctx, "payment refunded",
			logger.SubjectID(current.Metadata.SubjectID),
			logger.PaymentID(paymentID),
		)
		intent = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return intent, nil
}

// GetPaymentIntent returns an intent by payment id.
func (l *Ledger) GetPaymentIntent(ctx context.Context, paymentID string) (*PaymentIntent, error) {
	return l.repo.GetIntent(ctx, paymentID)
}

func (l *Ledger) liveOrNil(ctx context.Context, repo Repository, subjectID string) (*Subscription, error) {
	sub, err := repo.GetActiveBySubject(ctx, subjectID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return sub, err
}
