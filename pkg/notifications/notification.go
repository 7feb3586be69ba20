package notifications

import (
	"time"
)

// Kind names a billing notice.
type Kind string

const (
	KindActivated       Kind = "subscription_activated"
	KindRenewed         Kind = "subscription_renewed"
	KindRenewalReminder Kind = "renewal_reminder"
	KindCancelled       Kind = "subscription_cancelled"
	KindExpired         Kind = "subscription_expired"
	KindSuspended       Kind = "subscription_suspended"
	KindPaymentFailed   Kind = "payment_failed"
	KindPaymentRefunded Kind = "payment_refunded"
)

// Action is a call-to-action link rendered under the message.
type Action struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Notification is one notice addressed to a subject.
// DedupKey, when set, makes a second notice with the same key a no-op.
type Notification struct {
	ID        string            `json:"id"`
	SubjectID string            `json:"subject_id"`
	Kind      Kind              `json:"kind"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
	Actions   []Action          `json:"actions,omitempty"`
	DedupKey  string            `json:"-"`
	CreatedAt time.Time         `json:"created_at"`
}
