package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tariffledger/pkg/invoice"
)

// Sequence implements invoice.Sequence with one counter row per subject and
// UTC day. The upsert is atomic, so concurrent issuers never share a value.
type Sequence struct {
	pool *pgxpool.Pool
}

func (s *Sequence) Next(ctx context.Context, subjectID string, day time.Time) (int64, error) {
	var next int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO invoice_sequences (subject_id, day, last_value)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (subject_id, day)
		 DO UPDATE SET last_value = invoice_sequences.last_value + 1
		 RETURNING last_value`,
		subjectID, day.UTC().Format(time.DateOnly),
	).Scan(&next)
	if err != nil {
		return 0, errors.Join(invoice.ErrSequenceFailed, err)
	}
	return next, nil
}
