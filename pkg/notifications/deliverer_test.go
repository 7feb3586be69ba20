package notifications_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tariffledger/pkg/notifications"
)

type delivererFunc func(ctx context.Context, n notifications.Notification) error

func (f delivererFunc) Deliver(ctx context.Context, n notifications.Notification) error { return f(ctx, n) }

func TestMultiDeliverer(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	var delivered []string
	failing := delivererFunc(func(context.Context, notifications.Notification) error {
		return errors.New("smtp down")
	})
	recording := delivererFunc(func(_ context.Context, n notifications.Notification) error {
		delivered = append(delivered, n.ID)
		return nil
	})

	multi := notifications.NewMultiDeliverer(
		[]notifications.Deliverer{failing, recording, notifications.NewLogDeliverer(log)},
		notifications.WithMultiDelivererLogger(log),
	)

	notif := notifications.Notification{
		ID:        "n-1",
		SubjectID: "acme",
		Kind:      notifications.KindActivated,
		Title:     "Subscription activated",
	}
	require.NoError(t, multi.Deliver(context.Background(), notif))

	assert.Equal(t, []string{"n-1"}, delivered)
	assert.Contains(t, buf.String(), "failed to deliver notification")
	assert.Contains(t, buf.String(), "smtp down")
	assert.Contains(t, buf.String(), "kind=subscription_activated")
}
