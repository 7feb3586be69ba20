// Package postgres persists the ledger, invoices and invoice sequences in
// PostgreSQL through pgx/v5. The schema lives in internal/db/migrations.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/ledger"
	"github.com/dmitrymomot/tariffledger/pkg/pg"
)

// Store implements ledger.Repository, invoice.Store and invoice.Sequence
// over one pool.
type Store struct {
	pool *pgxpool.Pool
	// db is the pool, or the open transaction inside Atomic.
	db pg.Querier
}

func New(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("postgres: pool is required")
	}
	return &Store{pool: pool, db: pool}
}

// Atomic runs fn in one read-committed transaction. Subscription and intent
// writes made through the repository passed to fn commit together when fn
// returns nil. A nested Atomic joins the open transaction.
func (s *Store) Atomic(ctx context.Context, fn func(repo ledger.Repository) error) error {
	if _, ok := s.db.(pgx.Tx); ok {
		return fn(s)
	}
	return pg.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&Store{pool: s.pool, db: tx})
	})
}

// Invoices returns the invoice.Store view of s.
func (s *Store) Invoices() *InvoiceStore {
	return &InvoiceStore{pool: s.pool}
}

// Sequence returns the invoice.Sequence view of s.
func (s *Store) Sequence() *Sequence {
	return &Sequence{pool: s.pool}
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

var (
	_ ledger.Repository = (*Store)(nil)
	_ invoice.Store     = (*InvoiceStore)(nil)
	_ invoice.Sequence  = (*Sequence)(nil)
)
