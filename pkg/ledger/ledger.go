package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tariffledger/pkg/gateway"
	"github.com/dmitrymomot/tariffledger/pkg/invoice"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

// Catalog resolves tariff plans. *tariff.Catalog satisfies it.
type Catalog interface {
	Get(code string) (tariff.Plan, error)
	GetActive(code string) (tariff.Plan, error)
}

// Invoicer issues and settles invoices. *invoice.Issuer satisfies it.
type Invoicer interface {
	Issue(ctx context.Context, subjectID, tariffCode string, period tariff.Period) (*invoice.Invoice, error)
	MarkPaid(ctx context.Context, number, paymentID string, at time.Time) (*invoice.Invoice, error)
}

// Ledger is the subscription state machine.
//
// Every mutation of a subject's records runs under that subject's lock;
// different subjects proceed in parallel. Calls to the payment provider
// happen before the lock is taken. Once a mutation has started it runs to
// completion even if the caller's context is cancelled.
type Ledger struct {
	catalog   Catalog
	invoices  Invoicer
	gateway   gateway.Gateway
	repo      Repository
	locks     *keyedMutex
	now       func() time.Time
	logger    *slog.Logger
	observers []Observer
}

// New creates a Ledger. Panics if a dependency is nil.
func New(catalog Catalog, invoices Invoicer, gw gateway.Gateway, repo Repository, opts ...Option) *Ledger {
	if catalog == nil {
		panic("ledger: catalog is required")
	}
	if invoices == nil {
		panic("ledger: invoicer is required")
	}
	if gw == nil {
		panic("ledger: payment gateway is required")
	}
	if repo == nil {
		panic("ledger: repository is required")
	}

	l := &Ledger{
		catalog:  catalog,
		invoices: invoices,
		gateway:  gw,
		repo:     repo,
		locks:    newKeyedMutex(),
		now:      time.Now,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// withSubject runs fn holding the subject lock, inside one repository unit
// of work. fn must read and write through the repo it is given and gets a
// context detached from cancellation, so a started mutation is never cut
// short. The writes commit only when fn returns nil. Collected transitions
// are delivered to observers after unlocking, and only after a commit.
func (l *Ledger) withSubject(ctx context.Context, subjectID string, fn func(ctx context.Context, repo Repository, emit func(Transition)) error) error {
	events, err := l.commitLocked(ctx, subjectID, fn)
	if err != nil {
		return err
	}

	for _, t := range events {
		for _, o := range l.observers {
			o.OnTransition(ctx, t)
		}
	}
	return nil
}

func (l *Ledger) commitLocked(ctx context.Context, subjectID string, fn func(ctx context.Context, repo Repository, emit func(Transition)) error) ([]Transition, error) {
	unlock := l.locks.Lock(subjectID)
	defer unlock()

	ctx = context.WithoutCancel(ctx)
	var events []Transition
	err := l.repo.Atomic(ctx, func(repo Repository) error {
		return fn(ctx, repo, func(t Transition) { events = append(events, t) })
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (l *Ledger) clock() time.Time {
	return l.now().UTC()
}
