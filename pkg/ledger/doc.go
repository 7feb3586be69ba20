// Package ledger is the subscription and billing state machine.
//
// It owns subscriptions and payment intents, consults the tariff catalog,
// issues invoices through an invoice issuer and opens payments at a gateway.
//
// Subscription states:
//
//	pending   -> active      activate (first captured payment or explicit activation)
//	active    -> active      renew, upgrade
//	active    -> suspended   suspend
//	suspended -> active      resume
//	active    -> cancelled   cancel (immediate)
//	active    -> expired     expire (sweep, once the term lapsed)
//
// Suspended subscriptions can also be cancelled or expired. When a payment
// is captured for one, its term is extended and its plan switched to the
// paid tariff. Cancelled and expired
// are final for a subscription id; a later activation starts a new one.
//
// A subject has at most one live subscription, active or suspended, at any
// time. Every mutation runs under a per-subject lock, so operations for one
// subject never interleave while different subjects proceed in parallel.
// The writes of one mutation form a single Repository unit of work and
// observers hear only about committed transitions.
//
// Errors carry stable codes (see Code) so transports can map them without
// knowing the ledger's internals. Missing records are reported as
// ErrNotFound or ErrUnknownPaymentIntent; the ledger never invents a
// default subscription.
package ledger
