// Package api exposes the billing ledger over JSON HTTP.
//
// Routes are grouped by resource: tariffs, subjects (payments, the live
// subscription, leads, usage, invoices, tax id verification), subscriptions
// by id (renew, suspend, resume), invoices (details and payment QR code),
// payments (operator verdicts and refunds) and provider webhooks under
// /webhooks/{provider}. Errors use the envelope
//
//	{"error": {"code": "already_subscribed", "message": "..."}}
//
// with the HTTP status taken from the ledger error code, see StatusFor.
// Metrics doubles as a ledger.Observer so state transitions and captured
// payment volume are exported next to request metrics.
package api
