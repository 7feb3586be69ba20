// Package invoice issues billing documents for tariff periods.
//
// An Issuer prices an invoice from the tariff catalog, numbers it as
// INV-{yymmdd}-{subject prefix}-{sequence} and stores it as pending with a due
// date three days after issue. Sequence values are scoped to the subject and
// UTC calendar day; NewMemorySequence keeps them in process, NewRedisSequence
// shares them between processes through INCR with a 48 hour TTL.
//
// Invoice lifecycle:
//
//	pending -> paid     MarkPaid with the capturing payment id
//	pending -> voided   Void
//	pending -> expired  ExpireOverdue once DueAt has passed
//	expired -> paid     late capture is still honoured
//
// Paid and voided invoices are immutable; attempts to change them fail with
// ErrInvoiceImmutable. MarkPaid with the same payment id is idempotent so
// webhook re-deliveries are harmless.
package invoice
