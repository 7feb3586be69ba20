// Package requestid correlates API requests, ledger transitions and the
// log lines they produce.
//
// Middleware assigns every request an id (honouring a valid inbound
// X-Request-ID), FromContext reads it back, and LoggerExtractor attaches it
// to slog records:
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r.Use(requestid.Middleware)
package requestid
