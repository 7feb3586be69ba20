package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/tariffledger/pkg/logger"
)

// SweepExpired expires every live subscription whose term ended before now
// and returns the ones it changed.
//
// Subjects are locked one at a time. Auto-renewal is never granted here:
// extending a term requires a captured payment, so a lapsed subscription
// expires whatever its AutoRenew flag says. Failures for one subject do not
// stop the sweep; they are joined into the returned error.
func (l *Ledger) SweepExpired(ctx context.Context, now time.Time) ([]*Subscription, error) {
	candidates, err := l.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var (
		changed = make([]*Subscription, 0)
		errs    []error
	)
	for _, c := range candidates {
		if !c.IsLapsed(now) {
			continue
		}
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		var expired *Subscription
		err := l.withSubject(ctx, c.SubjectID, func(ctx context.Context, repo Repository, emit func(Transition)) error {
			s, err := repo.GetSubscription(ctx, c.ID)
			if err != nil {
				return err
			}
			// renewed or cancelled since listing
			if !s.Status.IsLive() || !s.IsLapsed(now) {
				return nil
			}

			from := s.Status
			if err := fireSubscription(ctx, s, EventExpire, nil); err != nil {
				return err
			}
			s.UpdatedAt = l.clock()
			if err := repo.SaveSubscription(ctx, s); err != nil {
				return err
			}
			emit(subscriptionTransition(EventExpire.Name(), from, s, now))
			expired = s
			return nil
		})
		if err != nil {
			l.logger.ErrorContext(ctx, "failed to expire subscription",
				logger.SubjectID(c.SubjectID),
				logger.SubscriptionID(c.ID),
				logger.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		if expired != nil {
			changed = append(changed, expired)
		}
	}

	if len(changed) > 0 {
		l.logger.InfoContext(ctx, "expired subscriptions swept", logger.Count(len(changed)))
	}
	return changed, errors.Join(errs...)
}

// FindExpiringSoon lists active, auto-renewing subscriptions whose term ends
// within the window. Subscriptions that already lapsed are left to the sweep.
func (l *Ledger) FindExpiringSoon(ctx context.Context, now time.Time, within time.Duration) ([]*Subscription, error) {
	candidates, err := l.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*Subscription, 0)
	for _, s := range candidates {
		if s.Status != StatusActive || !s.AutoRenew || s.IsLapsed(now) {
			continue
		}
		if s.ExpiresAt.Sub(now) <= within {
			out = append(out, s)
		}
	}
	return out, nil
}
