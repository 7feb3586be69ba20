package ledger

import (
	"context"
	"time"
)

// Entity names the record a Transition is about.
type Entity string

const (
	EntitySubscription Entity = "subscription"
	EntityPayment      Entity = "payment"
)

// Transition describes one applied state change.
// Subscription or Intent carries a snapshot taken after the change.
type Transition struct {
	Entity       Entity
	Event        string
	From         string
	To           string
	SubjectID    string
	At           time.Time
	Subscription *Subscription
	Intent       *PaymentIntent
}

// Observer receives transitions after the subject lock is released.
// Observers run synchronously on the caller's goroutine.
type Observer interface {
	OnTransition(ctx context.Context, t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, t Transition)

func (f ObserverFunc) OnTransition(ctx context.Context, t Transition) { f(ctx, t) }

func subscriptionTransition(event string, from Status, sub *Subscription, at time.Time) Transition {
	return Transition{
		Entity:       EntitySubscription,
		Event:        event,
		From:         string(from),
		To:           string(sub.Status),
		SubjectID:    sub.SubjectID,
		At:           at,
		Subscription: sub.Clone(),
	}
}

func paymentTransition(event string, from IntentStatus, intent *PaymentIntent, at time.Time) Transition {
	return Transition{
		Entity:    EntityPayment,
		Event:     event,
		From:      string(from),
		To:        string(intent.Status),
		SubjectID: intent.Metadata.SubjectID,
		At:        at,
		Intent:    intent.Clone(),
	}
}
