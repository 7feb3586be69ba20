package invoice

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/tariffledger/pkg/statemachine"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

// Status of an invoice.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusExpired Status = "expired"
	StatusVoided  Status = "voided"
)

func (s Status) Name() string { return string(s) }

// Invoice is a billing document for one tariff period.
type Invoice struct {
	Number     string        `json:"number"`
	SubjectID  string        `json:"subject_id"`
	TariffCode string        `json:"tariff_code"`
	Period     tariff.Period `json:"period"`
	Amount     tariff.Money  `json:"amount"`
	Status     Status        `json:"status"`
	IssuedAt   time.Time     `json:"issued_at"`
	DueAt      time.Time     `json:"due_at"`
	PaidAt     *time.Time    `json:"paid_at,omitempty"`
	PaymentID  string        `json:"payment_id,omitempty"`
}

// IsOverdue reports whether a pending invoice passed its due date.
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == StatusPending && i.DueAt.Before(now)
}

// Clone returns a copy that shares no pointers with i.
func (i *Invoice) Clone() *Invoice {
	if i == nil {
		return nil
	}
	cp := *i
	if i.PaidAt != nil {
		at := *i.PaidAt
		cp.PaidAt = &at
	}
	return &cp
}

const (
	eventPay    = statemachine.StringEvent("pay")
	eventVoid   = statemachine.StringEvent("void")
	eventExpire = statemachine.StringEvent("expire")
)

// A payment captured after the invoice expired is still honoured: the money
// has already moved, so expired -> paid is allowed. Voided invoices are final.
var lifecycle = statemachine.MustNew(
	statemachine.WithTransitionFrom([]statemachine.State{StatusPending, StatusExpired}, StatusPaid, eventPay),
	statemachine.WithTransition(StatusPending, StatusVoided, eventVoid),
	statemachine.WithTransition(StatusPending, StatusExpired, eventExpire),
)

func transition(ctx context.Context, inv *Invoice, event statemachine.Event) error {
	next, err := lifecycle.Fire(ctx, inv.Status, event, inv)
	if err != nil {
		if statemachine.IsNoTransitionAvailableError(err) {
			return errors.Join(ErrInvoiceImmutable, err)
		}
		return err
	}
	inv.Status = next.(Status)
	return nil
}
