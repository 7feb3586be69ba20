package notifications

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/tariffledger/pkg/logger"
)

// Deliverer pushes a stored notice to a channel.
type Deliverer interface {
	Deliver(ctx context.Context, notif Notification) error
}

// MultiDeliverer fans a notice out to several channels. A failing channel
// is logged and does not stop the others.
type MultiDeliverer struct {
	deliverers []Deliverer
	logger     *slog.Logger
}

type MultiDelivererOption func(*MultiDeliverer)

func WithMultiDelivererLogger(logger *slog.Logger) MultiDelivererOption {
	return func(m *MultiDeliverer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func NewMultiDeliverer(deliverers []Deliverer, opts ...MultiDelivererOption) *MultiDeliverer {
	m := &MultiDeliverer{
		deliverers: deliverers,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MultiDeliverer) Deliver(ctx context.Context, notif Notification) error {
	for i, d := range m.deliverers {
		if err := d.Deliver(ctx, notif); err != nil {
			m.logger.LogAttrs(ctx, slog.LevelError, "failed to deliver notification",
				slog.String("notification_id", notif.ID),
				logger.SubjectID(notif.SubjectID),
				slog.Int("deliverer_index", i),
				logger.Error(err),
			)
		}
	}
	return nil
}

// NoOpDeliverer only stores notices.
type NoOpDeliverer struct{}

func (NoOpDeliverer) Deliver(context.Context, Notification) error { return nil }

// LogDeliverer writes notices to a logger. Useful next to the email
// channel to keep an audit trail in the service logs.
type LogDeliverer struct {
	logger *slog.Logger
}

func NewLogDeliverer(l *slog.Logger) LogDeliverer {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	return LogDeliverer{logger: l}
}

func (d LogDeliverer) Deliver(ctx context.Context, notif Notification) error {
	d.logger.LogAttrs(ctx, slog.LevelInfo, "notification",
		slog.String("notification_id", notif.ID),
		slog.String("kind", string(notif.Kind)),
		logger.SubjectID(notif.SubjectID),
		slog.String("title", notif.Title),
	)
	return nil
}
