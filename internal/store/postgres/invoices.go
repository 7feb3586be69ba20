package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/pg"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

const invoiceColumns = `number, subject_id, tariff_code, period, amount, currency, status,
	issued_at, due_at, paid_at, payment_id`

// InvoiceStore implements invoice.Store.
type InvoiceStore struct {
	pool *pgxpool.Pool
}

func (s *InvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO invoices (`+invoiceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		invoiceArgs(inv)...,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return invoice.ErrDuplicateNumber
		}
		return errors.Join(invoice.ErrFailedToSave, err)
	}
	return nil
}

func (s *InvoiceStore) Get(ctx context.Context, number string) (*invoice.Invoice, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE number = $1`, number)
	inv, err := scanInvoice(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, invoice.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (s *InvoiceStore) ListBySubject(ctx context.Context, subjectID string) ([]*invoice.Invoice, error) {
	return s.list(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE subject_id = $1 ORDER BY issued_at, number`,
		subjectID)
}

func (s *InvoiceStore) ListByStatus(ctx context.Context, status invoice.Status) ([]*invoice.Invoice, error) {
	return s.list(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE status = $1 ORDER BY issued_at, number`,
		string(status))
}

// Update locks the row for the duration of fn.
func (s *InvoiceStore) Update(ctx context.Context, number string, fn func(*invoice.Invoice) error) (*invoice.Invoice, error) {
	var updated *invoice.Invoice
	err := pg.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT `+invoiceColumns+` FROM invoices WHERE number = $1 FOR UPDATE`, number)
		inv, err := scanInvoice(row)
		if err != nil {
			if pg.IsNotFoundError(err) {
				return invoice.ErrInvoiceNotFound
			}
			return fmt.Errorf("lock invoice: %w", err)
		}

		if err := fn(inv); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE invoices SET status = $2, paid_at = $3, payment_id = $4 WHERE number = $1`,
			inv.Number, string(inv.Status), inv.PaidAt, inv.PaymentID)
		if err != nil {
			return errors.Join(invoice.ErrFailedToSave, err)
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *InvoiceStore) list(ctx context.Context, query string, arg any) ([]*invoice.Invoice, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	out := make([]*invoice.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func invoiceArgs(inv *invoice.Invoice) []any {
	return []any{
		inv.Number, inv.SubjectID, inv.TariffCode, string(inv.Period), inv.Amount.Amount,
		currencyOf(inv.Amount), string(inv.Status), inv.IssuedAt, inv.DueAt, inv.PaidAt, inv.PaymentID,
	}
}

func scanInvoice(row rowScanner) (*invoice.Invoice, error) {
	var (
		inv    invoice.Invoice
		period string
		status string
	)
	err := row.Scan(
		&inv.Number, &inv.SubjectID, &inv.TariffCode, &period, &inv.Amount.Amount,
		&inv.Amount.Currency, &status, &inv.IssuedAt, &inv.DueAt, &inv.PaidAt, &inv.PaymentID,
	)
	if err != nil {
		return nil, err
	}
	inv.Period = tariff.Period(period)
	inv.Status = invoice.Status(status)
	inv.IssuedAt = inv.IssuedAt.UTC()
	inv.DueAt = inv.DueAt.UTC()
	if inv.PaidAt != nil {
		at := inv.PaidAt.UTC()
		inv.PaidAt = &at
	}
	return &inv, nil
}
