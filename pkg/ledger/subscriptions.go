package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tariffledger/pkg/logger"
	"github.com/dmitrymomot/tariffledger/pkg/statemachine"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

// ActivateSubscription starts a new subscription lineage for the subject.
// It fails with ErrAlreadySubscribed when the subject already has a live
// (active or suspended) subscription. The term is Period.Days() from now.
func (l *Ledger) ActivateSubscription(ctx context.Context, subjectID, tariffCode string, period tariff.Period) (*Subscription, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, fmt.Errorf("%w: subject id is required", ErrInvalidInput)
	}
	if !period.Valid() {
		return nil, ErrInvalidBillingPeriod
	}
	plan, err := l.catalog.GetActive(tariffCode)
	if err != nil {
		return nil, translate(err)
	}

	var sub *Subscription
	err = l.withSubject(ctx, subjectID, func(ctx context.Context, repo Repository, emit func(Transition)) error {
		var err error
		sub, err = l.activate(ctx, repo, emit, subjectID, plan, period, "")
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// activate must be called under the subject lock with its unit of work.
func (l *Ledger) activate(ctx context.Context, repo Repository, emit func(Transition), subjectID string, plan tariff.Plan, period tariff.Period, paymentID string) (*Subscription, error) {
	if _, err := repo.GetActiveBySubject(ctx, subjectID); err == nil {
		return nil, ErrAlreadySubscribed
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := l.clock()
	sub := &Subscription{
		ID:            uuid.New(),
		SubjectID:     subjectID,
		Period:        period,
		Status:        StatusPending,
		StartAt:       now,
		ExpiresAt:     now.AddDate(0, 0, period.Days()),
		AutoRenew:     true,
		LastPaymentID: paymentID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	sub.applyPlan(plan)

	if err := fireSubscription(ctx, sub, EventActivate, nil); err != nil {
		return nil, err
	}
	if err := repo.SaveSubscription(ctx, sub); err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "subscription activated",
		logger.SubjectID(subjectID),
		logger.SubscriptionID(sub.ID),
		logger.TariffCode(plan.Code),
	)
	emit(subscriptionTransition(EventActivate.Name(), StatusPending, sub, now))
	return sub, nil
}

// RenewSubscription extends an active subscription by one period.
// A subscription that has not lapsed is extended from its current expiry,
// a lapsed one from now. The lead counter is reset and the quota snapshot is
// refreshed from the catalog.
func (l *Ledger) RenewSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	current, err := l.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	var sub *Subscription
	err = l.withSubject(ctx, current.SubjectID, func(ctx context.Context, repo Repository, emit func(Transition)) error {
		s, err := repo.GetSubscription(ctx, id)
		if err != nil {
			return err
		}
		if err := l.renew(ctx, repo, emit, s, s.Period, renewal{}); err != nil {
			return err
		}
		sub = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// renew must be called under the subject lock. It saves sub.
func (l *Ledger) renew(ctx context.Context, repo Repository, emit func(Transition), sub *Subscription, period tariff.Period, r renewal) error {
	from := sub.Status
	if err := fireSubscription(ctx, sub, EventRenew, r); err != nil {
		return err
	}

	now := l.clock()
	base := sub.ExpiresAt
	if base.Before(now) {
		base = now
	}
	sub.Period = period
	sub.ExpiresAt = base.AddDate(0, 0, period.Days())
	sub.LeadsUsed = 0
	sub.UpdatedAt = now

	// a plan removed from the catalog keeps its last snapshot
	if plan, err := l.catalog.Get(sub.TariffCode); err == nil {
		sub.applyPlan(plan)
	}

	if err := repo.SaveSubscription(ctx, sub); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "subscription renewed",
		logger.SubjectID(sub.SubjectID),
		logger.SubscriptionID(sub.ID),
		slog.Time("expires_at", sub.ExpiresAt),
	)
	emit(subscriptionTransition(EventRenew.Name(), from, sub, now))
	return nil
}

// CancelSubscription ends the subject's live subscription.
//
// With immediate set the subscription becomes cancelled and expires now.
// Otherwise auto-renewal is switched off and the subscription stays live
// until the expiry sweep moves it to expired. If the subject has no live
// subscription but its latest one is already cancelled, that record is
// returned unchanged.
func (l *Ledger) CancelSubscription(ctx context.Context, subjectID, reason string, immediate bool) (*Subscription, error) {
	var sub *Subscription
	err := l.withSubject(ctx, subjectID, func(ctx context.Context, repo Repository, emit func(Transition)) error {
		s, err := repo.GetActiveBySubject(ctx, subjectID)
		if errors.Is(err, ErrNotFound) {
			latest, lerr := repo.GetLatestBySubject(ctx, subjectID)
			if lerr == nil && latest.Status == StatusCancelled {
				sub = latest
				return nil
			}
			return err
		}
		if err != nil {
			return err
		}

		// already scheduled to end, keep the first reason
		if !immediate && !s.AutoRenew {
			sub = s
			return nil
		}

		now := l.clock()
		s.AutoRenew = false
		s.CancelReason = reason
		s.UpdatedAt = now

		if !immediate {
			if err := repo.SaveSubscription(ctx, s); err != nil {
				return err
			}
			l.logger.InfoContext(ctx, "subscription set to end at expiry",
				logger.SubjectID(subjectID),
				logger.SubscriptionID(s.ID),
			)
			sub = s
			return nil
		}

		from := s.Status
		if err := fireSubscription(ctx, s, EventCancel, nil); err != nil {
			return err
		}
		s.ExpiresAt = now
		s.CancelledAt = &now
		if err := repo.SaveSubscription(ctx, s); err != nil {
			return err
		}

		l.logger.InfoContext(ctx, "subscription cancelled",
			logger.SubjectID(subjectID),
			logger.SubscriptionID(s.ID),
			logger.Transition(string(from), string(s.Status)),
		)
		emit(subscriptionTransition(EventCancel.Name(), from, s, now))
		sub = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// UpgradeTariff switches the active subscription to another plan right away.
// Tariff code, lead limit and features are replaced; expiry and the leads
// already used are kept. Proration is left to invoicing.
func (l *Ledger) UpgradeTariff(ctx context.Context, subjectID, newTariffCode string) (*Subscription, error) {
	plan, err := l.catalog.GetActive(newTariffCode)
	if err != nil {
		return nil, translate(err)
	}

	var sub *Subscription
	err = l.withSubject(ctx, subjectID, func(ctx context.Context, repo Repository, emit func(Transition)) error {
		s, err := repo.GetActiveBySubject(ctx, subjectID)
		if err != nil {
			return err
		}
		if err := l.upgrade(ctx, repo, emit, s, plan, nil); err != nil {
			return err
		}
		sub = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// upgrade must be called under the subject lock. It saves sub.
// data reaches the state table guards.
func (l *Ledger) upgrade(ctx context.Context, repo Repository, emit func(Transition), sub *Subscription, plan tariff.Plan, data any) error {
	from := sub.Status
	previous := sub.TariffCode
	if err := fireSubscription(ctx, sub, EventUpgrade, data); err != nil {
		return err
	}

	now := l.clock()
	sub.applyPlan(plan)
	sub.UpdatedAt = now
	if err := repo.SaveSubscription(ctx, sub); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "subscription tariff changed",
		logger.SubjectID(sub.SubjectID),
		logger.SubscriptionID(sub.ID),
		logger.Transition(previous, plan.Code),
	)
	emit(subscriptionTransition(EventUpgrade.Name(), from, sub, now))
	return nil
}

// SuspendSubscription pauses an active subscription administratively.
// A suspended subscription still occupies the subject's live slot.
func (l *Ledger) SuspendSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return l.applyAdmin(ctx, id, EventSuspend, func(s *Subscription, now time.Time) {
		s.SuspendedAt = &now
	})
}

// ResumeSubscription reactivates a suspended subscription. The term is not
// extended; a subscription that lapsed while suspended is expired by the
// next sweep.
func (l *Ledger) ResumeSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return l.applyAdmin(ctx, id, EventResume, func(s *Subscription, _ time.Time) {
		s.SuspendedAt = nil
	})
}

func (l *Ledger) applyAdmin(ctx context.Context, id uuid.UUID, event statemachine.Event, mutate func(*Subscription, time.Time)) (*Subscription, error) {
	current, err := l.repo.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}

	var sub *Subscription
	err = l.withSubject(ctx, current.SubjectID, func(ctx context.Context, repo Repository, emit func(Transition)) error {
		s, err := repo.GetSubscription(ctx, id)
		if err != nil {
			return err
		}

		from := s.Status
		if err := fireSubscription(ctx, s, event, nil); err != nil {
			return err
		}
		now := l.clock()
		mutate(s, now)
		s.UpdatedAt = now
		if err := repo.SaveSubscription(ctx, s); err != nil {
			return err
		}

		l.logger.InfoContext(ctx, "subscription "+event.Name(),
			logger.SubjectID(s.SubjectID),
			logger.SubscriptionID(s.ID),
		)
		emit(subscriptionTransition(event.Name(), from, s, now))
		sub = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// GetSubscription returns a subscription by id.
func (l *Ledger) GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	return l.repo.GetSubscription(ctx, id)
}

// GetActive returns the subject's live subscription or ErrNotFound.
// It never fabricates a default subscription.
func (l *Ledger) GetActive(ctx context.Context, subjectID string) (*Subscription, error) {
	return l.repo.GetActiveBySubject(ctx, subjectID)
}
