package invoice

import (
	"log/slog"
	"time"
)

const (
	defaultGracePeriod    = 72 * time.Hour
	defaultNumberAttempts = 5
)

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock sets the time source. Useful for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// WithGracePeriod sets how long an invoice stays payable after issue.
// Panics on non-positive values.
func WithGracePeriod(d time.Duration) Option {
	return func(i *Issuer) {
		if d <= 0 {
			panic("invoice: grace period must be positive")
		}
		i.grace = d
	}
}

// WithNumberPrefix replaces the "INV" prefix of invoice numbers.
func WithNumberPrefix(prefix string) Option {
	return func(i *Issuer) {
		if prefix != "" {
			i.prefix = prefix
		}
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(i *Issuer) {
		if l != nil {
			i.logger = l
		}
	}
}
