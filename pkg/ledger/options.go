package ledger

import (
	"log/slog"
	"time"
)

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source. Useful for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithObserver registers observers notified of every applied transition.
func WithObserver(observers ...Observer) Option {
	return func(l *Ledger) {
		for _, o := range observers {
			if o != nil {
				l.observers = append(l.observers, o)
			}
		}
	}
}
