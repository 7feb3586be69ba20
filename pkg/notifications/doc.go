// Package notifications stores and delivers billing notices to subjects.
//
// Manager is registered as a ledger.Observer, so activations, renewals,
// cancellations, expiries, suspensions, failed payments and refunds each
// produce a Notification. Renewal reminders are sent by RemindRenewals from
// the scheduled sweep. Every notice carries a DedupKey: a retried webhook or
// a repeated sweep never sends the same notice twice.
//
// Notices are stored first and then handed to a Deliverer. EmailDeliverer
// renders them with the email templates and sends them through the
// configured email.EmailSender; a delivery failure is logged and does not
// undo the stored notice.
//
//	mgr := notifications.NewManager(
//	    notifications.NewMemoryStorage(),
//	    notifications.NewEmailDeliverer(sender, recipients),
//	    notifications.WithPlans(catalog),
//	)
//	l := ledger.New(catalog, issuer, gw, repo, ledger.WithObserver(mgr))
package notifications
