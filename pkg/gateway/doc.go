// Package gateway talks to payment providers.
//
// A Gateway creates a payment intent for an invoice and returns the provider's
// payment id, plus a checkout URL or client secret. Providers later report the
// outcome through webhooks; a WebhookParser authenticates the callback and
// turns it into a Verdict. Invoice and subject data travel as Metadata in the
// provider's custom data so a verdict can be correlated on its own.
//
// Implementations:
//
//   - Local: no external service, PAY-{yymmdd}-{HEX8} ids, HMAC-signed verdicts
//   - Paddle: Paddle Billing transactions against mapped catalog prices
//   - Stripe: PaymentIntents and signed webhook events
//
// Local and Stripe also implement Refunder.
//
// Webhook events unrelated to payment outcomes return ErrIgnoredEvent so HTTP
// handlers can acknowledge them without acting.
package gateway
