package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/pg"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

const liveIndex = "subscriptions_one_live_per_subject"

const subscriptionColumns = `id, subject_id, tariff_code, period, status, start_at, expires_at,
	auto_renew, leads_used, leads_limit, features, cancel_reason, cancelled_at, suspended_at,
	last_payment_id, created_at, updated_at`

func (s *Store) GetSubscription(ctx context.Context, id uuid.UUID) (*ledger.Subscription, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	return scanSubscriptionRow(row)
}

func (s *Store) GetActiveBySubject(ctx context.Context, subjectID string) (*ledger.Subscription, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE subject_id = $1 AND status IN ('active', 'suspended')`, subjectID)
	return scanSubscriptionRow(row)
}

func (s *Store) GetLatestBySubject(ctx context.Context, subjectID string) (*ledger.Subscription, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE subject_id = $1 ORDER BY created_at DESC LIMIT 1`, subjectID)
	return scanSubscriptionRow(row)
}

// SaveSubscription upserts by id. The partial unique index on live rows
// turns a second live subscription into ledger.ErrAlreadySubscribed.
func (s *Store) SaveSubscription(ctx context.Context, sub *ledger.Subscription) error {
	features := make([]string, len(sub.Features))
	for i, f := range sub.Features {
		features[i] = string(f)
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		 ON CONFLICT (id) DO UPDATE SET
			tariff_code     = EXCLUDED.tariff_code,
			period          = EXCLUDED.period,
			status          = EXCLUDED.status,
			start_at        = EXCLUDED.start_at,
			expires_at      = EXCLUDED.expires_at,
			auto_renew      = EXCLUDED.auto_renew,
			leads_used      = EXCLUDED.leads_used,
			leads_limit     = EXCLUDED.leads_limit,
			features        = EXCLUDED.features,
			cancel_reason   = EXCLUDED.cancel_reason,
			cancelled_at    = EXCLUDED.cancelled_at,
			suspended_at    = EXCLUDED.suspended_at,
			last_payment_id = EXCLUDED.last_payment_id,
			updated_at      = EXCLUDED.updated_at`,
		sub.ID, sub.SubjectID, sub.TariffCode, string(sub.Period), string(sub.Status),
		sub.StartAt, sub.ExpiresAt, sub.AutoRenew, sub.LeadsUsed, sub.LeadsLimit, features,
		sub.CancelReason, sub.CancelledAt, sub.SuspendedAt, sub.LastPaymentID,
		sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) && pg.ConstraintName(err) == liveIndex {
			return fmt.Errorf("%w: subject %s", ledger.ErrAlreadySubscribed, sub.SubjectID)
		}
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

func (s *Store) ListActive(ctx context.Context) ([]*ledger.Subscription, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE status IN ('active', 'suspended') ORDER BY expires_at`)
	if err != nil {
		return nil, fmt.Errorf("list live subscriptions: %w", err)
	}
	defer rows.Close()

	out := make([]*ledger.Subscription, 0)
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list live subscriptions: %w", err)
	}
	return out, nil
}

func scanSubscriptionRow(row pgx.Row) (*ledger.Subscription, error) {
	sub, err := scanSubscription(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ledger.ErrNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func scanSubscription(row rowScanner) (*ledger.Subscription, error) {
	var (
		sub      ledger.Subscription
		period   string
		status   string
		features []string
		start    time.Time
		expires  time.Time
	)
	err := row.Scan(
		&sub.ID, &sub.SubjectID, &sub.TariffCode, &period, &status, &start, &expires,
		&sub.AutoRenew, &sub.LeadsUsed, &sub.LeadsLimit, &features, &sub.CancelReason,
		&sub.CancelledAt, &sub.SuspendedAt, &sub.LastPaymentID, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sub.Period = tariff.Period(period)
	sub.Status = ledger.Status(status)
	sub.StartAt = start.UTC()
	sub.ExpiresAt = expires.UTC()
	sub.CreatedAt = sub.CreatedAt.UTC()
	sub.UpdatedAt = sub.UpdatedAt.UTC()
	sub.Features = make([]tariff.Feature, len(features))
	for i, f := range features {
		sub.Features[i] = tariff.Feature(f)
	}
	return &sub, nil
}
