package ledger

import (
	"context"

	"github.com/dmitrymomot/tariffledger/pkg/statemachine"
)

const (
	EventActivate = statemachine.StringEvent("activate")
	EventRenew    = statemachine.StringEvent("renew")
	EventUpgrade  = statemachine.StringEvent("upgrade")
	EventSuspend  = statemachine.StringEvent("suspend")
	EventResume   = statemachine.StringEvent("resume")
	EventCancel   = statemachine.StringEvent("cancel")
	EventExpire   = statemachine.StringEvent("expire")

	EventPaymentSucceeded = statemachine.StringEvent("payment_succeeded")
	EventPaymentFailed    = statemachine.StringEvent("payment_failed")
	EventPaymentRefunded  = statemachine.StringEvent("payment_refunded")
)

// renewal is passed to the state table when extending a term.
type renewal struct {
	paid bool // triggered by a captured payment
}

// A suspended subscription keeps its status but its term may still be
// extended, and its plan switched to the paid one, when a payment is
// captured for it.
func paidRenewal(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
	r, ok := data.(renewal)
	return ok && r.paid
}

var live = []statemachine.State{StatusActive, StatusSuspended}

var subscriptionStates = statemachine.MustNew(
	statemachine.WithTransition(StatusPending, StatusActive, EventActivate),
	statemachine.WithTransition(StatusActive, StatusActive, EventRenew),
	statemachine.WithTransition(StatusSuspended, StatusSuspended, EventRenew, statemachine.WithGuard(paidRenewal)),
	statemachine.WithTransition(StatusActive, StatusActive, EventUpgrade),
	statemachine.WithTransition(StatusSuspended, StatusSuspended, EventUpgrade, statemachine.WithGuard(paidRenewal)),
	statemachine.WithTransition(StatusActive, StatusSuspended, EventSuspend),
	statemachine.WithTransition(StatusSuspended, StatusActive, EventResume),
	statemachine.WithTransitionFrom(live, StatusCancelled, EventCancel),
	statemachine.WithTransitionFrom(live, StatusExpired, EventExpire),
)

var intentStates = statemachine.MustNew(
	statemachine.WithTransition(IntentPending, IntentSucceeded, EventPaymentSucceeded),
	statemachine.WithTransition(IntentPending, IntentFailed, EventPaymentFailed),
	statemachine.WithTransition(IntentSucceeded, IntentRefunded, EventPaymentRefunded),
)

func fireSubscription(ctx context.Context, sub *Subscription, event statemachine.Event, data any) error {
	next, err := subscriptionStates.Fire(ctx, sub.Status, event, data)
	if err != nil {
		return translate(err)
	}
	sub.Status = next.(Status)
	return nil
}

func fireIntent(ctx context.Context, intent *PaymentIntent, event statemachine.Event) error {
	next, err := intentStates.Fire(ctx, intent.Status, event, intent)
	if err != nil {
		return translate(err)
	}
	intent.Status = next.(IntentStatus)
	return nil
}
