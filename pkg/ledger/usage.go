package ledger

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dmitrymomot/tariffledger/pkg/logger"
)

// RecordLeadUsage counts one lead against the active subscription.
// At the limit it fails with ErrQuotaExhausted and leaves the counter as is.
// Suspended and lapsed subscriptions accept no leads.
func (l *Ledger) RecordLeadUsage(ctx context.Context, subjectID string) (*Subscription, error) {
	var sub *Subscription
	err := l.withSubject(ctx, subjectID, func(ctx context.Context, repo Repository, _ func(Transition)) error {
		s, err := repo.GetActiveBySubject(ctx, subjectID)
		if err != nil {
			return err
		}

		now := l.clock()
		switch {
		case s.Status != StatusActive:
			return fmt.Errorf("%w: subscription is %s", ErrNotFound, s.Status)
		case s.IsLapsed(now):
			return fmt.Errorf("%w: subscription lapsed at %s", ErrNotFound, s.ExpiresAt.Format(time.RFC3339))
		case s.LeadsUsed >= s.LeadsLimit:
			l.logger.DebugContext(ctx, "lead quota exhausted",
				logger.SubjectID(subjectID),
				logger.SubscriptionID(s.ID),
			)
			return ErrQuotaExhausted
		}

		s.LeadsUsed++
		s.UpdatedAt = now
		if err := repo.SaveSubscription(ctx, s); err != nil {
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

// Usage reports quota consumption of the subject's live subscription.
func (l *Ledger) Usage(ctx context.Context, subjectID string, now time.Time) (Usage, error) {
	sub, err := l.repo.GetActiveBySubject(ctx, subjectID)
	if err != nil {
		return Usage{}, err
	}

	u := Usage{
		SubscriptionID: sub.ID,
		TariffCode:     sub.TariffCode,
		LeadsUsed:      sub.LeadsUsed,
		LeadsLimit:     sub.LeadsLimit,
		LeadsRemaining: max(sub.LeadsLimit-sub.LeadsUsed, 0),
		ExpiresAt:      sub.ExpiresAt,
	}
	if sub.LeadsLimit > 0 {
		u.Utilization = math.Round(float64(sub.LeadsUsed)*10000/float64(sub.LeadsLimit)) / 100
	}
	if left := sub.ExpiresAt.Sub(now); left > 0 {
		u.DaysRemaining = int(math.Ceil(left.Hours() / 24))
	}
	return u, nil
}
