package ledger

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tariffledger/pkg/gateway"
	"github.com/dmitrymomot/tariffledger/pkg/tariff"
)

// Status of a subscription.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

func (s Status) Name() string { return string(s) }

// IsLive reports whether the status occupies the subject's single live slot.
func (s Status) IsLive() bool {
	return s == StatusActive || s == StatusSuspended
}

// Subscription is one activation lineage of a subject.
// Renewals and upgrades keep the ID; a new activation gets a new one.
// LeadsLimit and Features are snapshots of the tariff taken at activation,
// renewal or upgrade; catalog changes never alter them retroactively.
type Subscription struct {
	ID            uuid.UUID        `json:"id"`
	SubjectID     string           `json:"subject_id"`
	TariffCode    string           `json:"tariff_code"`
	Period        tariff.Period    `json:"period"`
	Status        Status           `json:"status"`
	StartAt       time.Time        `json:"start_at"`
	ExpiresAt     time.Time        `json:"expires_at"`
	AutoRenew     bool             `json:"auto_renew"`
	LeadsUsed     int64            `json:"leads_used"`
	LeadsLimit    int64            `json:"leads_limit"`
	Features      []tariff.Feature `json:"features"`
	CancelReason  string           `json:"cancel_reason,omitempty"`
	CancelledAt   *time.Time       `json:"cancelled_at,omitempty"`
	SuspendedAt   *time.Time       `json:"suspended_at,omitempty"`
	LastPaymentID string           `json:"last_payment_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// HasFeature reports whether the subscription snapshot grants the feature.
func (s *Subscription) HasFeature(f tariff.Feature) bool {
	return slices.Contains(s.Features, f)
}

// IsLapsed reports whether the paid term ended before now.
func (s *Subscription) IsLapsed(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// Clone returns a deep copy.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Features = slices.Clone(s.Features)
	cp.CancelledAt = cloneTime(s.CancelledAt)
	cp.SuspendedAt = cloneTime(s.SuspendedAt)
	return &cp
}

func (s *Subscription) applyPlan(plan tariff.Plan) {
	s.TariffCode = plan.Code
	s.LeadsLimit = plan.LeadsIncluded
	s.Features = slices.Clone(plan.Features)
}

// IntentStatus of a payment intent.
type IntentStatus string

const (
	IntentPending   IntentStatus = "pending"
	IntentSucceeded IntentStatus = "succeeded"
	IntentFailed    IntentStatus = "failed"
	IntentRefunded  IntentStatus = "refunded"
)

func (s IntentStatus) Name() string { return string(s) }

// PaymentIntent tracks one attempt to pay an invoice.
// A failed intent is final; retrying means requesting a new payment.
type PaymentIntent struct {
	PaymentID     string           `json:"payment_id"`
	InvoiceNumber string           `json:"invoice_number"`
	Amount        tariff.Money     `json:"amount"`
	Status        IntentStatus     `json:"status"`
	Metadata      gateway.Metadata `json:"metadata"`
	Provider      string           `json:"provider"`
	CheckoutURL   string           `json:"checkout_url,omitempty"`
	ClientSecret  string           `json:"-"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Clone returns a copy.
func (p *PaymentIntent) Clone() *PaymentIntent {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// Usage summarises quota consumption of the live subscription.
type Usage struct {
	SubscriptionID uuid.UUID `json:"subscription_id"`
	TariffCode     string    `json:"tariff_code"`
	LeadsUsed      int64     `json:"leads_used"`
	LeadsLimit     int64     `json:"leads_limit"`
	LeadsRemaining int64     `json:"leads_remaining"`
	Utilization    float64   `json:"utilization_percent"`
	DaysRemaining  int       `json:"days_remaining"`
	ExpiresAt      time.Time `json:"expires_at"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
