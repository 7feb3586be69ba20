package notifications

import (
	"context"
	"errors"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrDuplicate            = errors.New("notification already sent")
)

// Storage keeps the notices sent to subjects.
type Storage interface {
	// Create stores a notice. It returns ErrDuplicate when DedupKey is set
	// and already stored.
	Create(ctx context.Context, notif Notification) error

	// Get retrieves a single notice.
	Get(ctx context.Context, subjectID, notifID string) (*Notification, error)

	// List returns the subject's notices, newest first.
	List(ctx context.Context, subjectID string, opts ListOptions) ([]Notification, error)
}

// ListOptions filters and pages List results.
type ListOptions struct {
	Limit int    // 0 means no limit
	Kinds []Kind // empty means every kind
}
